package models

import (
	"time"
)

// MessageStatus represents the lifecycle state of a message
type MessageStatus string

const (
	// StatusDraft marks an unsent, still mutable message
	StatusDraft MessageStatus = "DRAFT"
	// StatusSent marks a delivered message; sent messages are immutable
	StatusSent MessageStatus = "SENT"
)

// Message represents an in-app message exchanged between school users.
// Author identity is denormalized at creation time because identity
// resolution lives outside this service.
type Message struct {
	ID              string        `gorm:"primaryKey;size:36" json:"id"`
	AuthorID        string        `gorm:"not null;size:64;index" json:"author_id"`
	AuthorFirstName string        `gorm:"size:100" json:"author_first_name,omitempty"`
	AuthorLastName  string        `gorm:"size:100" json:"author_last_name,omitempty"`
	AuthorEmail     string        `gorm:"size:255" json:"author_email,omitempty"`
	Subject         string        `gorm:"size:255" json:"subject"`
	BodyHTML        string        `gorm:"type:text" json:"body_html,omitempty"`
	BodyText        string        `gorm:"type:text" json:"body_text,omitempty"`
	Snippet         string        `gorm:"size:255" json:"snippet,omitempty"`
	Status          MessageStatus `gorm:"not null;size:10;default:'DRAFT'" json:"status"`
	CreatedAt       time.Time     `gorm:"autoCreateTime" json:"created_at"`
	SentAt          *time.Time    `json:"sent_at,omitempty"`

	// Relationships
	Recipients  []MessageRecipient `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"recipients,omitempty"`
	Attachments []Attachment       `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"attachments,omitempty"`
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}

// MessageRecipient records one recipient of a sent message
type MessageRecipient struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	MessageID string `gorm:"not null;size:36;index" json:"message_id"`
	UserID    string `gorm:"not null;size:64;index" json:"user_id"`
}

// TableName returns the table name for MessageRecipient
func (MessageRecipient) TableName() string {
	return "message_recipients"
}

// MessageListItem is a lightweight projection for folder list views.
// Sender fields are only populated for incoming entries; for drafts and
// sent items "self" is implied and sender is omitted.
type MessageListItem struct {
	ID              string    `json:"id"`
	Folder          Folder    `json:"folder"`
	Subject         string    `json:"subject"`
	Snippet         string    `json:"snippet,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	Unread          bool      `json:"unread"`
	SenderID        string    `json:"sender_id,omitempty"`
	SenderFirstName string    `json:"sender_first_name,omitempty"`
	SenderLastName  string    `json:"sender_last_name,omitempty"`
	SenderEmail     string    `json:"sender_email,omitempty"`
	AttachmentCount int       `json:"attachment_count"`
}

// FolderCounts carries the per-folder totals for one mailbox. Counts are
// global per folder, never affected by an active search term.
type FolderCounts struct {
	Inbox       int64 `json:"inbox"`
	InboxUnread int64 `json:"inboxUnread"`
	Sent        int64 `json:"sent"`
	Drafts      int64 `json:"drafts"`
	Archive     int64 `json:"archive"`
}
