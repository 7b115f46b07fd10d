package models

// Attachment represents a file attached to a message
type Attachment struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	MessageID string `gorm:"not null;size:36;index" json:"message_id"`
	FileName  string `gorm:"size:255" json:"file_name"`
	MimeType  string `gorm:"size:100" json:"mime_type"`
	FilePath  string `gorm:"size:500" json:"-"`
	SizeBytes int64  `json:"size_bytes"`

	// Relationships
	Message Message `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for Attachment
func (Attachment) TableName() string {
	return "attachments"
}
