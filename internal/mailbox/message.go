package mailbox

import (
	"fmt"
	"time"
)

// BodyPlaceholder stands in for a body with no extractable text. A
// message body is never an empty sequence of lines.
const BodyPlaceholder = "(Aucun contenu)"

// Attachment is one file attached to a message. FileName doubles as the
// de-duplication key while attachments are staged in the composer.
type Attachment struct {
	ID        string
	FileName  string
	SizeLabel string
	MimeType  string
}

// Message is the UI-facing view of one mailbox item. CreatedAt stays
// sortable; DisplayDate is the formatted rendition shown in lists.
type Message struct {
	ID           string
	Folder       Folder
	Sender       string // display name
	SenderUserID string // empty when "self" is implied (drafts, sent)
	Subject      string
	Preview      string
	CreatedAt    time.Time
	DisplayDate  string
	Unread       bool // meaningful only while Folder == FolderInbox
	Body         []string
	BodyHTML     string // authoritative for rendering when non-empty
	Attachments  []Attachment
}

// BodyLines returns the plain-text body, substituting the placeholder
// when nothing could be extracted
func (m *Message) BodyLines() []string {
	if len(m.Body) == 0 {
		return []string{BodyPlaceholder}
	}
	return m.Body
}

// FolderCounts carries per-folder totals for the navigator badges.
// They are global per-folder totals, independent of any search term.
type FolderCounts struct {
	Inbox       int
	InboxUnread int
	Sent        int
	Drafts      int
	Archive     int
}

// MessagePage is one page of a folder listing, in server order
type MessagePage struct {
	Items      []Message
	Page       int
	Limit      int
	Total      int64
	TotalPages int
}

// FormatSize renders a byte count the way the platform displays
// attachment sizes
func FormatSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f Mo", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.0f Ko", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d o", bytes)
	}
}
