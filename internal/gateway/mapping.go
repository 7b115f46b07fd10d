package gateway

import (
	"strings"
	"time"

	"github.com/jaytaylor/html2text"

	"github.com/openscol/messagerie/internal/mailbox"
)

// displayDateLayout is the list/detail date rendition. The underlying
// time.Time stays on the view model for sorting.
const displayDateLayout = "02/01/2006 15:04"

type senderWire struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type listItemWire struct {
	ID              string      `json:"id"`
	Folder          string      `json:"folder"`
	Subject         string      `json:"subject"`
	Preview         string      `json:"preview"`
	CreatedAt       time.Time   `json:"createdAt"`
	Unread          bool        `json:"unread"`
	Sender          *senderWire `json:"sender"`
	AttachmentCount int         `json:"attachmentCount"`
}

type attachmentWire struct {
	ID        string `json:"id"`
	FileName  string `json:"fileName"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
}

type detailWire struct {
	ID          string           `json:"id"`
	Folder      string           `json:"folder"`
	Subject     string           `json:"subject"`
	Body        string           `json:"body"`
	Status      string           `json:"status"`
	CreatedAt   time.Time        `json:"createdAt"`
	SentAt      *time.Time       `json:"sentAt"`
	Sender      *senderWire      `json:"sender"`
	Attachments []attachmentWire `json:"attachments"`
}

type createWire struct {
	Subject          string   `json:"subject"`
	Body             string   `json:"body"`
	RecipientUserIDs []string `json:"recipientUserIds"`
	IsDraft          bool     `json:"isDraft"`
	DraftID          string   `json:"draftId,omitempty"`
}

func (w listItemWire) toMessage() mailbox.Message {
	msg := mailbox.Message{
		ID:          w.ID,
		Folder:      mailbox.Folder(w.Folder),
		Subject:     w.Subject,
		Preview:     w.Preview,
		CreatedAt:   w.CreatedAt,
		DisplayDate: w.CreatedAt.Format(displayDateLayout),
	}
	// unread is inbox-scoped; other folders always render it false
	if msg.Folder == mailbox.FolderInbox {
		msg.Unread = w.Unread
	}
	applySender(&msg, w.Sender)
	return msg
}

func (w detailWire) toMessage() mailbox.Message {
	msg := mailbox.Message{
		ID:          w.ID,
		Folder:      mailbox.Folder(w.Folder),
		Subject:     w.Subject,
		CreatedAt:   w.CreatedAt,
		DisplayDate: w.CreatedAt.Format(displayDateLayout),
		BodyHTML:    w.Body,
		Body:        bodyLines(w.Body),
	}
	if w.Folder == "" {
		// Older payloads omit the folder; fall back to the entry's home
		// folder so the view model never carries an invalid zero value
		switch {
		case w.Status == "DRAFT":
			msg.Folder = mailbox.FolderDrafts
		case w.Sender != nil:
			msg.Folder = mailbox.FolderInbox
		default:
			msg.Folder = mailbox.FolderSent
		}
	}
	applySender(&msg, w.Sender)
	for _, a := range w.Attachments {
		msg.Attachments = append(msg.Attachments, mailbox.Attachment{
			ID:        a.ID,
			FileName:  a.FileName,
			MimeType:  a.MimeType,
			SizeLabel: mailbox.FormatSize(a.SizeBytes),
		})
	}
	return msg
}

func applySender(msg *mailbox.Message, s *senderWire) {
	if s == nil {
		return
	}
	msg.SenderUserID = s.ID
	msg.Sender = strings.TrimSpace(s.FirstName + " " + s.LastName)
	if msg.Sender == "" {
		msg.Sender = s.Email
	}
}

// bodyLines derives the plain-text fallback from the body. An HTML body
// is flattened with html2text; a body yielding no text at all becomes
// the single placeholder line.
func bodyLines(body string) []string {
	text := body
	if strings.Contains(body, "<") {
		if extracted, err := html2text.FromString(body, html2text.Options{TextOnly: true}); err == nil {
			text = extracted
		}
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return []string{mailbox.BodyPlaceholder}
	}
	return lines
}
