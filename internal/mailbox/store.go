package mailbox

import (
	"context"
	"io"
)

// CreateMessage carries the payload for draft saves and sends. IsDraft
// is explicit at every call site, never inferred.
type CreateMessage struct {
	Subject      string
	Body         string // serialized HTML
	RecipientIDs []string
	IsDraft      bool
	DraftID      string // draft to overwrite, when known
}

// InlineImageUpload is one composer image upload
type InlineImageUpload struct {
	FileName string
	MimeType string
	Size     int64
	Content  io.Reader
}

// Store is the boundary to the remote mailbox. Implementations confine
// side effects to network calls and never mutate view state; callers
// decide whether to patch local state optimistically or wait for a
// reload. Every mutating call fails loudly on a non-2xx response.
type Store interface {
	ListMessages(ctx context.Context, folder Folder, search string, page, limit int) (*MessagePage, error)
	GetMessage(ctx context.Context, id string) (*Message, error)
	CreateMessage(ctx context.Context, in CreateMessage) (*Message, error)
	MarkRead(ctx context.Context, id string, read bool) error
	Archive(ctx context.Context, id string, archived bool) error
	DeleteMessage(ctx context.Context, id string) error
	UnreadCount(ctx context.Context) (int, error)
	FolderCounts(ctx context.Context) (*FolderCounts, error)
	UploadInlineImage(ctx context.Context, upload InlineImageUpload) (string, error)
}
