package tui

import (
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// RenderQR converts a string to a compact QR code using Unicode
// half-block characters, two module rows per text line.
func RenderQR(content string) string {
	qr, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "  (QR generation failed: " + err.Error() + ")"
	}
	return renderBitmap(qr.Bitmap())
}

func renderBitmap(bitmap [][]bool) string {
	rows := len(bitmap)
	var sb strings.Builder
	for y := 0; y < rows; y += 2 {
		sb.WriteString("  ")
		for x := range bitmap[y] {
			top := bitmap[y][x]
			bot := y+1 < rows && bitmap[y+1][x]
			switch {
			case top && bot:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bot:
				sb.WriteRune('▄')
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}
