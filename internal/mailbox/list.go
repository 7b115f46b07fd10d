package mailbox

import (
	"context"
	"fmt"
)

// Presentation selects how row selection behaves: wide keeps the
// reader on the same screen, narrow navigates to a dedicated detail
// view.
type Presentation int

const (
	PresentationWide Presentation = iota
	PresentationNarrow
)

// Selection is the outcome of picking a list row. Folder and Search
// carry the list context so a narrow detail view can return to an
// equivalent list state.
type Selection struct {
	MessageID string
	Folder    Folder
	Search    string
	Navigate  bool // true on narrow presentations
}

const defaultPageSize = 20

// List renders the active folder's messages: server-ordered, filtered
// by a search term on the server and by the inbox-only unread toggle
// locally. Responses for a stale folder+search combination are
// discarded.
type List struct {
	store        Store
	bus          *Bus
	presentation Presentation

	folder     Folder
	search     string
	page       int
	unreadOnly bool

	items      []Message
	total      int64
	totalPages int
	loaded     bool
	loading    bool
	err        error

	selectedID string

	// requestKey identifies the folder+search+page combination the
	// latest fetch was issued for
	requestKey string

	unsubscribe func()
}

// NewList creates a list for the inbox and subscribes it to mailbox
// update events for authoritative refetches
func NewList(store Store, bus *Bus, presentation Presentation) *List {
	l := &List{
		store:        store,
		bus:          bus,
		presentation: presentation,
		folder:       FolderInbox,
		page:         1,
	}
	if bus != nil {
		l.unsubscribe = bus.Subscribe(func(ctx context.Context, _ UpdateEvent) {
			l.Reload(ctx)
		})
	}
	return l
}

// Close detaches the list from the bus
func (l *List) Close() {
	if l.unsubscribe != nil {
		l.unsubscribe()
		l.unsubscribe = nil
	}
}

func (l *List) key() string {
	return fmt.Sprintf("%s|%s|%d", l.folder, l.search, l.page)
}

// SetFolder switches folders and reloads. The unread-only toggle does
// not persist across folders: leaving the inbox clears it.
func (l *List) SetFolder(ctx context.Context, folder Folder) {
	if !ValidFolder(folder) || folder == l.folder {
		return
	}
	l.folder = folder
	l.page = 1
	l.selectedID = ""
	if folder != FolderInbox {
		l.unreadOnly = false
	}
	l.Reload(ctx)
}

// SetSearch applies a search term and reloads from the first page
func (l *List) SetSearch(ctx context.Context, term string) {
	if term == l.search {
		return
	}
	l.search = term
	l.page = 1
	l.Reload(ctx)
}

// SetPage moves to the given page and reloads
func (l *List) SetPage(ctx context.Context, page int) {
	if page < 1 || page == l.page {
		return
	}
	l.page = page
	l.Reload(ctx)
}

// ToggleUnreadOnly flips the unread-only filter. Only meaningful on
// the inbox; elsewhere it is a no-op.
func (l *List) ToggleUnreadOnly() {
	if l.folder != FolderInbox {
		return
	}
	l.unreadOnly = !l.unreadOnly
}

// Reload fetches the current folder page. The response is applied only
// if the list still shows the folder+search+page the request was
// issued for; stale responses are dropped.
func (l *List) Reload(ctx context.Context) {
	key := l.key()
	l.requestKey = key
	l.loading = true

	page, err := l.store.ListMessages(ctx, l.folder, l.search, l.page, defaultPageSize)

	if l.requestKey != key {
		return // a newer request owns the list now
	}
	l.loading = false

	if err != nil {
		l.err = fmt.Errorf("failed to load messages: %w", err)
		return
	}
	l.items = page.Items
	l.total = page.Total
	l.totalPages = page.TotalPages
	l.loaded = true
	l.err = nil

	if l.selectedID != "" && l.find(l.selectedID) == nil {
		l.selectedID = ""
	}
}

func (l *List) find(id string) *Message {
	for i := range l.items {
		if l.items[i].ID == id {
			return &l.items[i]
		}
	}
	return nil
}

// Visible returns the rows to render, in server order, after applying
// the local unread-only filter
func (l *List) Visible() []Message {
	if !l.unreadOnly {
		return l.items
	}
	filtered := make([]Message, 0, len(l.items))
	for _, m := range l.items {
		if m.Unread {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// Select picks a row and returns the selection outcome for the caller
// to route
func (l *List) Select(id string) (Selection, bool) {
	if l.find(id) == nil {
		return Selection{}, false
	}
	l.selectedID = id
	return Selection{
		MessageID: id,
		Folder:    l.folder,
		Search:    l.search,
		Navigate:  l.presentation == PresentationNarrow,
	}, true
}

// SelectedID returns the selected row's id, empty when none
func (l *List) SelectedID() string {
	return l.selectedID
}

// RemoveLocal optimistically drops a row (after archive or delete)
// before the authoritative refetch lands; the refetch result wins if it
// disagrees
func (l *List) RemoveLocal(id string) {
	for i := range l.items {
		if l.items[i].ID == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			if l.selectedID == id {
				l.selectedID = ""
			}
			return
		}
	}
}

// MarkReadLocal optimistically patches a row's unread flag
func (l *List) MarkReadLocal(id string, read bool) {
	if m := l.find(id); m != nil && l.folder == FolderInbox {
		m.Unread = !read
	}
}

// Accessors for rendering

func (l *List) Folder() Folder   { return l.folder }
func (l *List) Search() string   { return l.search }
func (l *List) Page() int        { return l.page }
func (l *List) TotalPages() int  { return l.totalPages }
func (l *List) Total() int64     { return l.total }
func (l *List) UnreadOnly() bool { return l.unreadOnly }
func (l *List) Loading() bool    { return l.loading }
func (l *List) Err() error       { return l.err }

// Empty distinguishes a genuinely empty folder from a list that has
// not loaded yet
func (l *List) Empty() bool {
	return l.loaded && !l.loading && len(l.items) == 0
}
