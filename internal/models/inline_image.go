package models

import (
	"time"
)

// InlineImage is an image uploaded from the composer for embedding in a
// message body. It is stored independently of any message: the body HTML
// references it by URL.
type InlineImage struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserID     string    `gorm:"not null;size:64;index" json:"user_id"`
	FileName   string    `gorm:"size:255" json:"file_name"`
	MimeType   string    `gorm:"size:100" json:"mime_type"`
	FilePath   string    `gorm:"size:500" json:"-"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}

// TableName returns the table name for InlineImage
func (InlineImage) TableName() string {
	return "inline_images"
}
