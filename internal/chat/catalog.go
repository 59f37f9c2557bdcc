package chat

// Dialog is one entry of a conversation listing. Folder entries are
// markers, not conversations.
type Dialog struct {
	Folder bool
	Peer   PeerRef
}

// DialogsPage is a single listing response together with the lookup
// tables needed to resolve its peers.
type DialogsPage struct {
	Dialogs []Dialog
	Users   map[int64]UserRecord
	Chats   map[int64]ChatRecord
}

// Catalog is the ordered list of resolved conversations. Order is the
// provider's listing order and doubles as the menu index.
type Catalog []Conversation

// BuildCatalog resolves every dialog of the page in order. Folder markers
// and unresolvable peers are skipped; duplicates are kept.
func BuildCatalog(page *DialogsPage) Catalog {
	if page == nil {
		return nil
	}
	catalog := make(Catalog, 0, len(page.Dialogs))
	for _, d := range page.Dialogs {
		if d.Folder {
			continue
		}
		conv, err := Resolve(d.Peer, page.Users, page.Chats)
		if err != nil {
			continue
		}
		catalog = append(catalog, conv)
	}
	return catalog
}

// Labels returns the menu text of each conversation, index-aligned with
// the catalog.
func (c Catalog) Labels() []string {
	labels := make([]string, len(c))
	for i, conv := range c {
		labels[i] = conv.Label()
	}
	return labels
}

// ListingEntry is one dialog as the full listing shows it. Resolved is
// false for peers that could not be classified.
type ListingEntry struct {
	Conversation
	Resolved bool
}

// BuildListing is BuildCatalog for display: folder markers are skipped
// but unresolvable peers keep their place as unresolved entries.
func BuildListing(page *DialogsPage) []ListingEntry {
	if page == nil {
		return nil
	}
	listing := make([]ListingEntry, 0, len(page.Dialogs))
	for _, d := range page.Dialogs {
		if d.Folder {
			continue
		}
		conv, err := Resolve(d.Peer, page.Users, page.Chats)
		listing = append(listing, ListingEntry{Conversation: conv, Resolved: err == nil})
	}
	return listing
}
