package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openscol/messagerie/internal/models"
	"gorm.io/gorm"
)

// CreateMessageInput carries everything needed to create or overwrite a
// message. DraftID, when set, names an existing draft of the same author
// to overwrite instead of inserting a new row.
type CreateMessageInput struct {
	AuthorID        string
	AuthorFirstName string
	AuthorLastName  string
	AuthorEmail     string
	Subject         string
	BodyHTML        string
	BodyText        string
	Snippet         string
	RecipientIDs    []string
	DraftID         string
	IsDraft         bool
}

// MessageRepository defines the interface for mailbox data access
type MessageRepository interface {
	Create(ctx context.Context, in CreateMessageInput) (*models.Message, error)
	ListFolder(ctx context.Context, userID string, folder models.Folder, search string, limit, offset int) ([]models.MessageListItem, int64, error)
	GetForUser(ctx context.Context, userID, id string) (*models.Message, *models.MailboxEntry, error)
	SetRead(ctx context.Context, userID, id string, read bool) error
	SetArchived(ctx context.Context, userID, id string, archived bool) error
	Delete(ctx context.Context, userID, id string) error
	CountUnread(ctx context.Context, userID string) (int64, error)
	FolderCounts(ctx context.Context, userID string) (*models.FolderCounts, error)
}

// messageRepository implements MessageRepository using GORM
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository instance
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create creates a draft or sent message together with its mailbox
// entries, all inside one transaction. Sending delivers one incoming
// entry per recipient, marked unread.
func (r *messageRepository) Create(ctx context.Context, in CreateMessageInput) (*models.Message, error) {
	var message *models.Message

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if in.DraftID != "" {
			message, err = overwriteDraft(tx, in)
		} else {
			message, err = insertMessage(tx, in)
		}
		if err != nil {
			return err
		}

		if !in.IsDraft {
			if err := deliver(tx, message, in.RecipientIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return message, nil
}

// insertMessage creates a fresh message row plus the author's outgoing entry
func insertMessage(tx *gorm.DB, in CreateMessageInput) (*models.Message, error) {
	now := time.Now().UTC()
	message := &models.Message{
		ID:              uuid.New().String(),
		AuthorID:        in.AuthorID,
		AuthorFirstName: in.AuthorFirstName,
		AuthorLastName:  in.AuthorLastName,
		AuthorEmail:     in.AuthorEmail,
		Subject:         in.Subject,
		BodyHTML:        in.BodyHTML,
		BodyText:        in.BodyText,
		Snippet:         in.Snippet,
		Status:          models.StatusDraft,
	}
	folder := models.FolderDrafts
	if !in.IsDraft {
		message.Status = models.StatusSent
		message.SentAt = &now
		folder = models.FolderSent
	}

	if err := tx.Create(message).Error; err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	entry := &models.MailboxEntry{
		UserID:    in.AuthorID,
		MessageID: message.ID,
		Kind:      models.KindOutgoing,
		Folder:    folder,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to create mailbox entry: %w", err)
	}

	if err := replaceRecipients(tx, message.ID, in.RecipientIDs); err != nil {
		return nil, err
	}
	return message, nil
}

// overwriteDraft updates an existing draft in place. Only the author may
// overwrite it, and only while it is still a draft.
func overwriteDraft(tx *gorm.DB, in CreateMessageInput) (*models.Message, error) {
	var message models.Message
	err := tx.Where("id = ? AND author_id = ? AND status = ?", in.DraftID, in.AuthorID, models.StatusDraft).
		First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}

	message.Subject = in.Subject
	message.BodyHTML = in.BodyHTML
	message.BodyText = in.BodyText
	message.Snippet = in.Snippet

	if !in.IsDraft {
		now := time.Now().UTC()
		message.Status = models.StatusSent
		message.SentAt = &now

		err = tx.Model(&models.MailboxEntry{}).
			Where("message_id = ? AND user_id = ? AND kind = ?", message.ID, in.AuthorID, models.KindOutgoing).
			Update("folder", models.FolderSent).Error
		if err != nil {
			return nil, fmt.Errorf("failed to move draft to sent: %w", err)
		}
	}

	if err := tx.Save(&message).Error; err != nil {
		return nil, fmt.Errorf("failed to overwrite draft: %w", err)
	}
	if err := replaceRecipients(tx, message.ID, in.RecipientIDs); err != nil {
		return nil, err
	}
	return &message, nil
}

// replaceRecipients resets the recipient list of record for a message
func replaceRecipients(tx *gorm.DB, messageID string, recipientIDs []string) error {
	if err := tx.Where("message_id = ?", messageID).Delete(&models.MessageRecipient{}).Error; err != nil {
		return fmt.Errorf("failed to clear recipients: %w", err)
	}
	for _, userID := range recipientIDs {
		rec := &models.MessageRecipient{MessageID: messageID, UserID: userID}
		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("failed to create recipient: %w", err)
		}
	}
	return nil
}

// deliver creates one unread incoming entry per recipient
func deliver(tx *gorm.DB, message *models.Message, recipientIDs []string) error {
	for _, userID := range recipientIDs {
		entry := &models.MailboxEntry{
			UserID:    userID,
			MessageID: message.ID,
			Kind:      models.KindIncoming,
			Folder:    models.FolderInbox,
			Unread:    true,
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to deliver message: %w", err)
		}
	}
	return nil
}

// messageListRow is the raw scan target for folder list queries
type messageListRow struct {
	ID              string
	Folder          models.Folder
	Kind            models.EntryKind
	Unread          bool
	Subject         string
	Snippet         string
	CreatedAt       time.Time
	AuthorID        string
	AuthorFirstName string
	AuthorLastName  string
	AuthorEmail     string
	AttachmentCount int
}

// ListFolder retrieves one folder of a user's mailbox, newest first,
// optionally filtered by a free-text search across subject, sender name
// and snippet.
func (r *messageRepository) ListFolder(ctx context.Context, userID string, folder models.Folder, search string, limit, offset int) ([]models.MessageListItem, int64, error) {
	base := r.db.WithContext(ctx).
		Table("mailbox_entries e").
		Joins("JOIN messages m ON m.id = e.message_id").
		Where("e.user_id = ? AND e.folder = ?", userID, folder)

	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		base = base.Where(
			"LOWER(m.subject) LIKE ? OR LOWER(m.snippet) LIKE ? OR LOWER(m.author_first_name || ' ' || m.author_last_name) LIKE ?",
			like, like, like)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	var rows []messageListRow
	err := base.Session(&gorm.Session{}).
		Select(`m.id, e.folder, e.kind, e.unread, m.subject, m.snippet, m.created_at,
			m.author_id, m.author_first_name, m.author_last_name, m.author_email,
			COALESCE((SELECT COUNT(*) FROM attachments a WHERE a.message_id = m.id), 0) AS attachment_count`).
		Order("m.created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}

	items := make([]models.MessageListItem, 0, len(rows))
	for _, row := range rows {
		item := models.MessageListItem{
			ID:              row.ID,
			Folder:          row.Folder,
			Subject:         row.Subject,
			Snippet:         row.Snippet,
			CreatedAt:       row.CreatedAt,
			AttachmentCount: row.AttachmentCount,
		}
		// Unread only carries meaning inside the inbox
		if row.Folder == models.FolderInbox {
			item.Unread = row.Unread
		}
		// Sender identity is implied ("self") on authored copies
		if row.Kind == models.KindIncoming {
			item.SenderID = row.AuthorID
			item.SenderFirstName = row.AuthorFirstName
			item.SenderLastName = row.AuthorLastName
			item.SenderEmail = row.AuthorEmail
		}
		items = append(items, item)
	}
	return items, total, nil
}

// GetForUser retrieves full message detail together with the caller's
// mailbox entry for it. Users can only see messages present in their
// own mailbox.
func (r *messageRepository) GetForUser(ctx context.Context, userID, id string) (*models.Message, *models.MailboxEntry, error) {
	var entry models.MailboxEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND message_id = ?", userID, id).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to get mailbox entry: %w", err)
	}

	var message models.Message
	err = r.db.WithContext(ctx).
		Preload("Attachments").
		Preload("Recipients").
		First(&message, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to get message: %w", err)
	}

	return &message, &entry, nil
}

// SetRead updates the unread flag of the caller's entry. Outside the
// inbox the flag carries no meaning, so the call is a no-op there.
func (r *messageRepository) SetRead(ctx context.Context, userID, id string, read bool) error {
	var entry models.MailboxEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND message_id = ?", userID, id).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get mailbox entry: %w", err)
	}

	if entry.Kind != models.KindIncoming || entry.Folder != models.FolderInbox {
		return nil
	}

	err = r.db.WithContext(ctx).Model(&models.MailboxEntry{}).
		Where("id = ?", entry.ID).
		Update("unread", !read).Error
	if err != nil {
		return fmt.Errorf("failed to update read state: %w", err)
	}
	return nil
}

// SetArchived moves the caller's entry between archive and its home
// folder. Archiving is reversible; drafts are never archivable.
func (r *messageRepository) SetArchived(ctx context.Context, userID, id string, archived bool) error {
	var entry models.MailboxEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND message_id = ?", userID, id).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get mailbox entry: %w", err)
	}

	if entry.Folder == models.FolderDrafts {
		return ErrInvalidTransition
	}

	target := entry.Kind.HomeFolder()
	if archived {
		target = models.FolderArchive
	}
	if entry.Folder == target {
		return nil
	}

	err = r.db.WithContext(ctx).Model(&models.MailboxEntry{}).
		Where("id = ?", entry.ID).
		Update("folder", target).Error
	if err != nil {
		return fmt.Errorf("failed to update folder: %w", err)
	}
	return nil
}

// Delete removes the caller's entry. The message row itself goes when
// no mailbox still references it, which also covers draft deletion.
func (r *messageRepository) Delete(ctx context.Context, userID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND message_id = ?", userID, id).
			Delete(&models.MailboxEntry{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete mailbox entry: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		var remaining int64
		if err := tx.Model(&models.MailboxEntry{}).Where("message_id = ?", id).Count(&remaining).Error; err != nil {
			return fmt.Errorf("failed to count remaining entries: %w", err)
		}
		if remaining == 0 {
			if err := tx.Delete(&models.Message{}, "id = ?", id).Error; err != nil {
				return fmt.Errorf("failed to delete message: %w", err)
			}
		}
		return nil
	})
}

// CountUnread counts unread inbox messages for a user
func (r *messageRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.MailboxEntry{}).
		Where("user_id = ? AND folder = ? AND unread = ?", userID, models.FolderInbox, true).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", result.Error)
	}
	return count, nil
}

// FolderCounts returns per-folder totals for a user's mailbox
func (r *messageRepository) FolderCounts(ctx context.Context, userID string) (*models.FolderCounts, error) {
	type folderRow struct {
		Folder models.Folder
		Total  int64
		Unread int64
	}

	var rows []folderRow
	err := r.db.WithContext(ctx).Model(&models.MailboxEntry{}).
		Select("folder, COUNT(*) AS total, SUM(CASE WHEN unread THEN 1 ELSE 0 END) AS unread").
		Where("user_id = ?", userID).
		Group("folder").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count folders: %w", err)
	}

	counts := &models.FolderCounts{}
	for _, row := range rows {
		switch row.Folder {
		case models.FolderInbox:
			counts.Inbox = row.Total
			counts.InboxUnread = row.Unread
		case models.FolderSent:
			counts.Sent = row.Total
		case models.FolderDrafts:
			counts.Drafts = row.Total
		case models.FolderArchive:
			counts.Archive = row.Total
		}
	}
	return counts, nil
}
