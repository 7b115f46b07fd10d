package models

// Folder is one of the four mutually exclusive mailbox partitions.
// A message occupies exactly one folder per mailbox at any time.
type Folder string

const (
	FolderInbox   Folder = "inbox"
	FolderSent    Folder = "sent"
	FolderDrafts  Folder = "drafts"
	FolderArchive Folder = "archive"
)

// ValidFolder reports whether f names a known folder
func ValidFolder(f Folder) bool {
	switch f {
	case FolderInbox, FolderSent, FolderDrafts, FolderArchive:
		return true
	}
	return false
}

// EntryKind distinguishes a received copy of a message from an authored one
type EntryKind string

const (
	// KindIncoming is a copy delivered to a recipient's mailbox
	KindIncoming EntryKind = "incoming"
	// KindOutgoing is the author's own copy (draft or sent)
	KindOutgoing EntryKind = "outgoing"
)

// MailboxEntry is the per-user folder state of one message. Folder
// transitions are explicit operations: archive/unarchive, send-draft,
// delete. Unread is meaningful only for incoming entries in the inbox.
type MailboxEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"not null;size:64;index:idx_entries_user_folder" json:"user_id"`
	MessageID string    `gorm:"not null;size:36;index" json:"message_id"`
	Kind      EntryKind `gorm:"not null;size:10" json:"kind"`
	Folder    Folder    `gorm:"not null;size:10;index:idx_entries_user_folder" json:"folder"`
	Unread    bool      `gorm:"default:false" json:"unread"`

	// Relationships
	Message Message `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for MailboxEntry
func (MailboxEntry) TableName() string {
	return "mailbox_entries"
}

// HomeFolder returns the folder an entry of this kind returns to when
// unarchived: inbox for incoming copies, sent for outgoing ones.
func (k EntryKind) HomeFolder() Folder {
	if k == KindOutgoing {
		return FolderSent
	}
	return FolderInbox
}
