// Package mocks provides testify mocks shared by handler and
// integration tests.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/openscol/messagerie/internal/models"
	"github.com/openscol/messagerie/internal/repository"
)

// MockMessageRepository implements repository.MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Create creates a draft or sent message
func (m *MockMessageRepository) Create(ctx context.Context, in repository.CreateMessageInput) (*models.Message, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

// ListFolder lists one folder of a user's mailbox
func (m *MockMessageRepository) ListFolder(ctx context.Context, userID string, folder models.Folder, search string, limit, offset int) ([]models.MessageListItem, int64, error) {
	args := m.Called(ctx, userID, folder, search, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.MessageListItem), args.Get(1).(int64), args.Error(2)
}

// GetForUser retrieves message detail with the caller's mailbox entry
func (m *MockMessageRepository) GetForUser(ctx context.Context, userID, id string) (*models.Message, *models.MailboxEntry, error) {
	args := m.Called(ctx, userID, id)
	var message *models.Message
	var entry *models.MailboxEntry
	if args.Get(0) != nil {
		message = args.Get(0).(*models.Message)
	}
	if args.Get(1) != nil {
		entry = args.Get(1).(*models.MailboxEntry)
	}
	return message, entry, args.Error(2)
}

// SetRead updates the unread flag of the caller's entry
func (m *MockMessageRepository) SetRead(ctx context.Context, userID, id string, read bool) error {
	args := m.Called(ctx, userID, id, read)
	return args.Error(0)
}

// SetArchived moves the caller's entry between archive and home folder
func (m *MockMessageRepository) SetArchived(ctx context.Context, userID, id string, archived bool) error {
	args := m.Called(ctx, userID, id, archived)
	return args.Error(0)
}

// Delete removes the caller's entry
func (m *MockMessageRepository) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// CountUnread counts unread inbox messages
func (m *MockMessageRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// FolderCounts returns per-folder totals
func (m *MockMessageRepository) FolderCounts(ctx context.Context, userID string) (*models.FolderCounts, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FolderCounts), args.Error(1)
}

// MockInlineImageRepository implements repository.InlineImageRepository
type MockInlineImageRepository struct {
	mock.Mock
}

// Create stores inline image metadata
func (m *MockInlineImageRepository) Create(ctx context.Context, image *models.InlineImage) error {
	args := m.Called(ctx, image)
	return args.Error(0)
}

// GetByID retrieves inline image metadata
func (m *MockInlineImageRepository) GetByID(ctx context.Context, id string) (*models.InlineImage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InlineImage), args.Error(1)
}

// Delete removes inline image metadata
func (m *MockInlineImageRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
