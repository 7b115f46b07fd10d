package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openscol/messagerie/internal/models"
)

// MessageRepositoryTestSuite is the test suite for MessageRepository
type MessageRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo MessageRepository
}

// SetupSuite runs once before all tests
func (s *MessageRepositoryTestSuite) SetupSuite() {
	// Use in-memory SQLite for testing
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err)

	db.Exec("PRAGMA foreign_keys = ON")

	err = db.AutoMigrate(&models.Message{}, &models.MessageRecipient{}, &models.MailboxEntry{}, &models.Attachment{})
	require.NoError(s.T(), err)

	s.db = db
	s.repo = NewMessageRepository(db)
}

// TearDownSuite runs once after all tests
func (s *MessageRepositoryTestSuite) TearDownSuite() {
	sqlDB, _ := s.db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// SetupTest runs before each test
func (s *MessageRepositoryTestSuite) SetupTest() {
	s.db.Exec("DELETE FROM attachments")
	s.db.Exec("DELETE FROM mailbox_entries")
	s.db.Exec("DELETE FROM message_recipients")
	s.db.Exec("DELETE FROM messages")
}

// TestMessageRepositoryTestSuite runs the test suite
func TestMessageRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(MessageRepositoryTestSuite))
}

func (s *MessageRepositoryTestSuite) sendMessage(subject string, recipients ...string) *models.Message {
	msg, err := s.repo.Create(context.Background(), CreateMessageInput{
		AuthorID:        "u-marc",
		AuthorFirstName: "Marc",
		AuthorLastName:  "Petit",
		AuthorEmail:     "marc.petit@ecole.fr",
		Subject:         subject,
		BodyHTML:        "<p>Bonjour</p>",
		BodyText:        "Bonjour",
		Snippet:         "Bonjour",
		RecipientIDs:    recipients,
		IsDraft:         false,
	})
	require.NoError(s.T(), err)
	return msg
}

func (s *MessageRepositoryTestSuite) saveDraft(subject, draftID string) *models.Message {
	msg, err := s.repo.Create(context.Background(), CreateMessageInput{
		AuthorID:     "u-marc",
		Subject:      subject,
		BodyHTML:     "<p>brouillon</p>",
		BodyText:     "brouillon",
		Snippet:      "brouillon",
		RecipientIDs: []string{"u-anne"},
		DraftID:      draftID,
		IsDraft:      true,
	})
	require.NoError(s.T(), err)
	return msg
}

// ==================== Create Tests ====================

func (s *MessageRepositoryTestSuite) TestSendDeliversToRecipients() {
	msg := s.sendMessage("Sortie scolaire", "u-anne", "u-zoe")

	assert.Equal(s.T(), models.StatusSent, msg.Status)
	require.NotNil(s.T(), msg.SentAt)

	// author's copy lands in sent
	items, total, err := s.repo.ListFolder(context.Background(), "u-marc", models.FolderSent, "", 20, 0)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), total)
	require.Len(s.T(), items, 1)
	assert.Empty(s.T(), items[0].SenderID, "sender is implied on authored copies")

	// each recipient gets an unread inbox copy
	for _, user := range []string{"u-anne", "u-zoe"} {
		items, _, err := s.repo.ListFolder(context.Background(), user, models.FolderInbox, "", 20, 0)
		require.NoError(s.T(), err)
		require.Len(s.T(), items, 1)
		assert.True(s.T(), items[0].Unread)
		assert.Equal(s.T(), "u-marc", items[0].SenderID)
		assert.Equal(s.T(), "Marc", items[0].SenderFirstName)
	}
}

func (s *MessageRepositoryTestSuite) TestDraftIsNotDelivered() {
	s.saveDraft("(Sans objet)", "")

	items, _, err := s.repo.ListFolder(context.Background(), "u-marc", models.FolderDrafts, "", 20, 0)
	require.NoError(s.T(), err)
	assert.Len(s.T(), items, 1)

	items, _, err = s.repo.ListFolder(context.Background(), "u-anne", models.FolderInbox, "", 20, 0)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), items, "drafts never reach the recipient")
}

func (s *MessageRepositoryTestSuite) TestOverwriteDraft() {
	draft := s.saveDraft("v1", "")
	updated := s.saveDraft("v2", draft.ID)

	assert.Equal(s.T(), draft.ID, updated.ID)

	items, total, err := s.repo.ListFolder(context.Background(), "u-marc", models.FolderDrafts, "", 20, 0)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), total, "overwrite must not create a second draft")
	assert.Equal(s.T(), "v2", items[0].Subject)
}

func (s *MessageRepositoryTestSuite) TestSendExistingDraft() {
	draft := s.saveDraft("brouillon", "")

	msg, err := s.repo.Create(context.Background(), CreateMessageInput{
		AuthorID:     "u-marc",
		Subject:      "envoye",
		BodyText:     "Contenu",
		Snippet:      "Contenu",
		RecipientIDs: []string{"u-anne"},
		DraftID:      draft.ID,
		IsDraft:      false,
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.StatusSent, msg.Status)

	// the draft moved to sent for the author
	items, _, err := s.repo.ListFolder(context.Background(), "u-marc", models.FolderDrafts, "", 20, 0)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), items)

	items, _, err = s.repo.ListFolder(context.Background(), "u-marc", models.FolderSent, "", 20, 0)
	require.NoError(s.T(), err)
	assert.Len(s.T(), items, 1)

	// and was delivered
	items, _, err = s.repo.ListFolder(context.Background(), "u-anne", models.FolderInbox, "", 20, 0)
	require.NoError(s.T(), err)
	assert.Len(s.T(), items, 1)
}

func (s *MessageRepositoryTestSuite) TestOverwriteForeignDraftFails() {
	draft := s.saveDraft("brouillon", "")

	_, err := s.repo.Create(context.Background(), CreateMessageInput{
		AuthorID: "u-intrus",
		Subject:  "pirate",
		DraftID:  draft.ID,
		IsDraft:  true,
	})
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *MessageRepositoryTestSuite) TestOverwriteSentMessageFails() {
	msg := s.sendMessage("envoye", "u-anne")

	_, err := s.repo.Create(context.Background(), CreateMessageInput{
		AuthorID: "u-marc",
		Subject:  "modifie",
		DraftID:  msg.ID,
		IsDraft:  true,
	})
	assert.ErrorIs(s.T(), err, ErrNotFound, "sent messages have no update-in-place")
}

// ==================== ListFolder Tests ====================

func (s *MessageRepositoryTestSuite) TestListFolderSearch() {
	s.sendMessage("Nouvelle activite extra-scolaire", "u-anne")
	s.sendMessage("Reunion parents", "u-anne")

	items, total, err := s.repo.ListFolder(context.Background(), "u-anne", models.FolderInbox, "activite", 20, 0)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), total)
	require.Len(s.T(), items, 1)
	assert.Equal(s.T(), "Nouvelle activite extra-scolaire", items[0].Subject)

	// sender name matches too
	items, _, err = s.repo.ListFolder(context.Background(), "u-anne", models.FolderInbox, "marc petit", 20, 0)
	require.NoError(s.T(), err)
	assert.Len(s.T(), items, 2)
}

func (s *MessageRepositoryTestSuite) TestListFolderPagination() {
	for i := 0; i < 5; i++ {
		s.sendMessage("message", "u-anne")
	}

	items, total, err := s.repo.ListFolder(context.Background(), "u-anne", models.FolderInbox, "", 2, 2)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(5), total)
	assert.Len(s.T(), items, 2)
}

func (s *MessageRepositoryTestSuite) TestListFolderEmpty() {
	items, total, err := s.repo.ListFolder(context.Background(), "u-anne", models.FolderArchive, "", 20, 0)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(0), total)
	assert.Empty(s.T(), items)
}

// ==================== Read state Tests ====================

func (s *MessageRepositoryTestSuite) TestSetReadInbox() {
	msg := s.sendMessage("Sortie", "u-anne")

	require.NoError(s.T(), s.repo.SetRead(context.Background(), "u-anne", msg.ID, true))

	count, err := s.repo.CountUnread(context.Background(), "u-anne")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(0), count)

	// reversible
	require.NoError(s.T(), s.repo.SetRead(context.Background(), "u-anne", msg.ID, false))
	count, err = s.repo.CountUnread(context.Background(), "u-anne")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), count)
}

func (s *MessageRepositoryTestSuite) TestSetReadOutsideInboxIsNoop() {
	msg := s.sendMessage("Sortie", "u-anne")

	// the author's sent copy has no meaningful unread state
	require.NoError(s.T(), s.repo.SetRead(context.Background(), "u-marc", msg.ID, true))

	var entry models.MailboxEntry
	require.NoError(s.T(), s.db.Where("user_id = ? AND message_id = ?", "u-marc", msg.ID).First(&entry).Error)
	assert.False(s.T(), entry.Unread)
}

func (s *MessageRepositoryTestSuite) TestSetReadUnknownMessage() {
	err := s.repo.SetRead(context.Background(), "u-anne", "missing", true)
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

// ==================== Archive Tests ====================

func (s *MessageRepositoryTestSuite) TestArchiveAndUnarchiveInbox() {
	msg := s.sendMessage("Sortie", "u-anne")

	require.NoError(s.T(), s.repo.SetArchived(context.Background(), "u-anne", msg.ID, true))

	items, _, err := s.repo.ListFolder(context.Background(), "u-anne", models.FolderArchive, "", 20, 0)
	require.NoError(s.T(), err)
	assert.Len(s.T(), items, 1)

	// unarchive returns it to its home folder
	require.NoError(s.T(), s.repo.SetArchived(context.Background(), "u-anne", msg.ID, false))
	items, _, err = s.repo.ListFolder(context.Background(), "u-anne", models.FolderInbox, "", 20, 0)
	require.NoError(s.T(), err)
	assert.Len(s.T(), items, 1)
}

func (s *MessageRepositoryTestSuite) TestUnarchiveSentCopyGoesHome() {
	msg := s.sendMessage("Sortie", "u-anne")

	require.NoError(s.T(), s.repo.SetArchived(context.Background(), "u-marc", msg.ID, true))
	require.NoError(s.T(), s.repo.SetArchived(context.Background(), "u-marc", msg.ID, false))

	items, _, err := s.repo.ListFolder(context.Background(), "u-marc", models.FolderSent, "", 20, 0)
	require.NoError(s.T(), err)
	assert.Len(s.T(), items, 1, "outgoing copies unarchive back to sent")
}

func (s *MessageRepositoryTestSuite) TestArchiveDraftRejected() {
	draft := s.saveDraft("brouillon", "")

	err := s.repo.SetArchived(context.Background(), "u-marc", draft.ID, true)
	assert.ErrorIs(s.T(), err, ErrInvalidTransition)
}

func (s *MessageRepositoryTestSuite) TestArchiveIsPerUser() {
	msg := s.sendMessage("Sortie", "u-anne")

	require.NoError(s.T(), s.repo.SetArchived(context.Background(), "u-anne", msg.ID, true))

	// the author's copy stays in sent
	items, _, err := s.repo.ListFolder(context.Background(), "u-marc", models.FolderSent, "", 20, 0)
	require.NoError(s.T(), err)
	assert.Len(s.T(), items, 1)
}

// ==================== Delete Tests ====================

func (s *MessageRepositoryTestSuite) TestDeleteRemovesOwnCopyOnly() {
	msg := s.sendMessage("Sortie", "u-anne")

	require.NoError(s.T(), s.repo.Delete(context.Background(), "u-anne", msg.ID))

	items, _, err := s.repo.ListFolder(context.Background(), "u-anne", models.FolderInbox, "", 20, 0)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), items)

	// the author still sees it
	_, entry, err := s.repo.GetForUser(context.Background(), "u-marc", msg.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.KindOutgoing, entry.Kind)
}

func (s *MessageRepositoryTestSuite) TestDeleteLastCopyRemovesMessage() {
	msg := s.sendMessage("Sortie", "u-anne")

	require.NoError(s.T(), s.repo.Delete(context.Background(), "u-anne", msg.ID))
	require.NoError(s.T(), s.repo.Delete(context.Background(), "u-marc", msg.ID))

	var count int64
	s.db.Model(&models.Message{}).Where("id = ?", msg.ID).Count(&count)
	assert.Equal(s.T(), int64(0), count)
}

func (s *MessageRepositoryTestSuite) TestDeleteUnknownMessage() {
	err := s.repo.Delete(context.Background(), "u-anne", "missing")
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

// ==================== GetForUser Tests ====================

func (s *MessageRepositoryTestSuite) TestGetForUser() {
	msg := s.sendMessage("Sortie", "u-anne")

	got, entry, err := s.repo.GetForUser(context.Background(), "u-anne", msg.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Sortie", got.Subject)
	assert.Equal(s.T(), models.KindIncoming, entry.Kind)
	require.Len(s.T(), got.Recipients, 1)
	assert.Equal(s.T(), "u-anne", got.Recipients[0].UserID)
}

func (s *MessageRepositoryTestSuite) TestGetForUserDeniedToStrangers() {
	msg := s.sendMessage("Sortie", "u-anne")

	_, _, err := s.repo.GetForUser(context.Background(), "u-intrus", msg.ID)
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

// ==================== Counter Tests ====================

func (s *MessageRepositoryTestSuite) TestFolderCounts() {
	m1 := s.sendMessage("un", "u-anne")
	s.sendMessage("deux", "u-anne")
	s.saveDraft("brouillon", "")

	require.NoError(s.T(), s.repo.SetRead(context.Background(), "u-anne", m1.ID, true))
	require.NoError(s.T(), s.repo.SetArchived(context.Background(), "u-anne", m1.ID, true))

	counts, err := s.repo.FolderCounts(context.Background(), "u-anne")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), counts.Inbox)
	assert.Equal(s.T(), int64(1), counts.InboxUnread)
	assert.Equal(s.T(), int64(1), counts.Archive)

	counts, err = s.repo.FolderCounts(context.Background(), "u-marc")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(2), counts.Sent)
	assert.Equal(s.T(), int64(1), counts.Drafts)
}
