package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/openscol/messagerie/internal/api/middleware"
	"github.com/openscol/messagerie/internal/models"
	"github.com/openscol/messagerie/internal/repository"
	"github.com/openscol/messagerie/tests/mocks"
)

// MessageHandlerTestSuite is the test suite for MessageHandler
type MessageHandlerTestSuite struct {
	suite.Suite
	echo         *echo.Echo
	handler      *MessageHandler
	mockRepo     *mocks.MockMessageRepository
	mockNotifier *mocks.MockUpdateNotifier
}

// SetupTest runs before each test
func (s *MessageHandlerTestSuite) SetupTest() {
	s.echo = echo.New()
	s.mockRepo = new(mocks.MockMessageRepository)
	s.mockNotifier = new(mocks.MockUpdateNotifier)
	s.handler = NewMessageHandler(s.mockRepo, s.mockNotifier)
}

// TearDownTest runs after each test
func (s *MessageHandlerTestSuite) TearDownTest() {
	s.mockRepo.AssertExpectations(s.T())
	s.mockNotifier.AssertExpectations(s.T())
}

// TestMessageHandlerTestSuite runs the test suite
func TestMessageHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(MessageHandlerTestSuite))
}

// createContext builds a request context carrying the test identity
func (s *MessageHandlerTestSuite) createContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)
	c.Set(middleware.ContextUserID, "u-marc")
	c.Set(middleware.ContextUserFirstName, "Marc")
	c.Set(middleware.ContextUserLastName, "Petit")
	c.Set(middleware.ContextUserEmail, "marc.petit@ecole.fr")
	return c, rec
}

func (s *MessageHandlerTestSuite) testListItem(id string, unread bool) models.MessageListItem {
	return models.MessageListItem{
		ID:              id,
		Folder:          models.FolderInbox,
		Subject:         "Nouvelle activite extra-scolaire",
		Snippet:         "Bonjour, les inscriptions sont ouvertes",
		CreatedAt:       time.Now(),
		Unread:          unread,
		SenderID:        "u-anne",
		SenderFirstName: "Anne",
		SenderLastName:  "Durand",
	}
}

func (s *MessageHandlerTestSuite) testMessage(id string, status models.MessageStatus) *models.Message {
	now := time.Now()
	msg := &models.Message{
		ID:              id,
		AuthorID:        "u-marc",
		AuthorFirstName: "Marc",
		AuthorLastName:  "Petit",
		Subject:         "Objet",
		BodyHTML:        "<p>Contenu</p>",
		BodyText:        "Contenu",
		Snippet:         "Contenu",
		Status:          status,
		CreatedAt:       now,
	}
	if status == models.StatusSent {
		msg.SentAt = &now
	}
	return msg
}

// ==================== List Tests ====================

func (s *MessageHandlerTestSuite) TestListDefaultsToInbox() {
	items := []models.MessageListItem{s.testListItem("m-1", true)}
	s.mockRepo.On("ListFolder", mock.Anything, "u-marc", models.FolderInbox, "", 20, 0).
		Return(items, int64(1), nil)

	c, rec := s.createContext(http.MethodGet, "/api/messages", "")
	s.NoError(s.handler.List(c))
	s.Equal(http.StatusOK, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Data    []struct {
			ID     string `json:"id"`
			Unread bool   `json:"unread"`
			Sender *struct {
				ID        string `json:"id"`
				FirstName string `json:"firstName"`
			} `json:"sender"`
		} `json:"data"`
		Meta struct {
			Page       int   `json:"page"`
			Total      int64 `json:"total"`
			TotalPages int   `json:"totalPages"`
		} `json:"meta"`
	}
	s.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.True(body.Success)
	s.Require().Len(body.Data, 1)
	s.Equal("m-1", body.Data[0].ID)
	s.True(body.Data[0].Unread)
	s.Require().NotNil(body.Data[0].Sender)
	s.Equal("Anne", body.Data[0].Sender.FirstName)
	s.Equal(1, body.Meta.Page)
	s.Equal(int64(1), body.Meta.Total)
	s.Equal(1, body.Meta.TotalPages)
}

func (s *MessageHandlerTestSuite) TestListPassesSearchAndPagination() {
	s.mockRepo.On("ListFolder", mock.Anything, "u-marc", models.FolderSent, "sortie", 10, 10).
		Return([]models.MessageListItem{}, int64(0), nil)

	c, rec := s.createContext(http.MethodGet, "/api/messages?folder=sent&q=sortie&page=2&limit=10", "")
	s.NoError(s.handler.List(c))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *MessageHandlerTestSuite) TestListRejectsUnknownFolder() {
	c, rec := s.createContext(http.MethodGet, "/api/messages?folder=spam", "")
	s.NoError(s.handler.List(c))
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *MessageHandlerTestSuite) TestListRepositoryError() {
	s.mockRepo.On("ListFolder", mock.Anything, "u-marc", models.FolderInbox, "", 20, 0).
		Return(nil, int64(0), errors.New("db down"))

	c, rec := s.createContext(http.MethodGet, "/api/messages", "")
	s.NoError(s.handler.List(c))
	s.Equal(http.StatusInternalServerError, rec.Code)
}

// ==================== Get Tests ====================

func (s *MessageHandlerTestSuite) TestGetIncomingMessageIncludesSender() {
	msg := s.testMessage("m-1", models.StatusSent)
	msg.AuthorID = "u-anne"
	msg.AuthorFirstName = "Anne"
	msg.AuthorLastName = "Durand"
	entry := &models.MailboxEntry{UserID: "u-marc", MessageID: "m-1", Kind: models.KindIncoming, Folder: models.FolderInbox}

	s.mockRepo.On("GetForUser", mock.Anything, "u-marc", "m-1").Return(msg, entry, nil)

	c, rec := s.createContext(http.MethodGet, "/api/messages/m-1", "")
	c.SetParamNames("id")
	c.SetParamValues("m-1")
	s.NoError(s.handler.Get(c))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"firstName":"Anne"`)
	s.Contains(rec.Body.String(), `"folder":"inbox"`)
}

func (s *MessageHandlerTestSuite) TestGetOwnCopyOmitsSender() {
	msg := s.testMessage("m-1", models.StatusSent)
	entry := &models.MailboxEntry{UserID: "u-marc", MessageID: "m-1", Kind: models.KindOutgoing, Folder: models.FolderSent}

	s.mockRepo.On("GetForUser", mock.Anything, "u-marc", "m-1").Return(msg, entry, nil)

	c, rec := s.createContext(http.MethodGet, "/api/messages/m-1", "")
	c.SetParamNames("id")
	c.SetParamValues("m-1")
	s.NoError(s.handler.Get(c))
	s.Contains(rec.Body.String(), `"sender":null`)
	s.Contains(rec.Body.String(), `"folder":"sent"`)
}

func (s *MessageHandlerTestSuite) TestGetNotFound() {
	s.mockRepo.On("GetForUser", mock.Anything, "u-marc", "missing").
		Return(nil, nil, repository.ErrNotFound)

	c, rec := s.createContext(http.MethodGet, "/api/messages/missing", "")
	c.SetParamNames("id")
	c.SetParamValues("missing")
	s.NoError(s.handler.Get(c))
	s.Equal(http.StatusNotFound, rec.Code)
}

// ==================== Create Tests ====================

func (s *MessageHandlerTestSuite) TestCreateSend() {
	s.mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(in repository.CreateMessageInput) bool {
		return in.AuthorID == "u-marc" &&
			in.Subject == "Objet" &&
			len(in.RecipientIDs) == 1 && in.RecipientIDs[0] == "u-anne" &&
			!in.IsDraft
	})).Return(s.testMessage("m-9", models.StatusSent), nil)
	s.mockNotifier.On("MessagingUpdated", []string{"u-marc", "u-anne"}).Return()

	c, rec := s.createContext(http.MethodPost, "/api/messages",
		`{"subject": "Objet", "body": "<p>Contenu</p>", "recipientUserIds": ["u-anne"]}`)
	s.NoError(s.handler.Create(c))
	s.Equal(http.StatusCreated, rec.Code)
	s.Contains(rec.Body.String(), `"status":"SENT"`)
	s.Contains(rec.Body.String(), `"folder":"sent"`)
}

func (s *MessageHandlerTestSuite) TestCreateSendDeduplicatesRecipients() {
	s.mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(in repository.CreateMessageInput) bool {
		return len(in.RecipientIDs) == 1
	})).Return(s.testMessage("m-9", models.StatusSent), nil)
	s.mockNotifier.On("MessagingUpdated", mock.Anything).Return()

	c, rec := s.createContext(http.MethodPost, "/api/messages",
		`{"subject": "Objet", "body": "Contenu", "recipientUserIds": ["u-anne", "u-anne", " u-anne "]}`)
	s.NoError(s.handler.Create(c))
	s.Equal(http.StatusCreated, rec.Code)
}

func (s *MessageHandlerTestSuite) TestCreateSendValidation() {
	cases := []struct {
		name string
		body string
	}{
		{"missing recipient", `{"subject": "Objet", "body": "Contenu", "recipientUserIds": []}`},
		{"missing subject", `{"subject": "  ", "body": "Contenu", "recipientUserIds": ["u-anne"]}`},
		{"missing body", `{"subject": "Objet", "body": " ", "recipientUserIds": ["u-anne"]}`},
	}
	for _, tc := range cases {
		c, rec := s.createContext(http.MethodPost, "/api/messages", tc.body)
		s.NoError(s.handler.Create(c))
		s.Equal(http.StatusBadRequest, rec.Code, tc.name)
	}
}

func (s *MessageHandlerTestSuite) TestCreateDraftSubstitutesPlaceholderSubject() {
	draft := s.testMessage("d-1", models.StatusDraft)
	draft.Subject = DraftSubjectPlaceholder

	s.mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(in repository.CreateMessageInput) bool {
		return in.IsDraft && in.Subject == DraftSubjectPlaceholder
	})).Return(draft, nil)
	// a draft save notifies the author only
	s.mockNotifier.On("MessagingUpdated", []string{"u-marc"}).Return()

	c, rec := s.createContext(http.MethodPost, "/api/messages",
		`{"subject": "", "body": "", "recipientUserIds": [], "isDraft": true}`)
	s.NoError(s.handler.Create(c))
	s.Equal(http.StatusCreated, rec.Code)
	s.Contains(rec.Body.String(), DraftSubjectPlaceholder)
	s.Contains(rec.Body.String(), `"folder":"drafts"`)
}

func (s *MessageHandlerTestSuite) TestCreateDraftOverwrite() {
	s.mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(in repository.CreateMessageInput) bool {
		return in.IsDraft && in.DraftID == "d-1"
	})).Return(s.testMessage("d-1", models.StatusDraft), nil)
	s.mockNotifier.On("MessagingUpdated", mock.Anything).Return()

	c, rec := s.createContext(http.MethodPost, "/api/messages",
		`{"subject": "v2", "body": "Contenu", "isDraft": true, "draftId": "d-1"}`)
	s.NoError(s.handler.Create(c))
	s.Equal(http.StatusCreated, rec.Code)
}

func (s *MessageHandlerTestSuite) TestCreateUnknownDraft() {
	s.mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil, repository.ErrNotFound)

	c, rec := s.createContext(http.MethodPost, "/api/messages",
		`{"subject": "v2", "body": "Contenu", "isDraft": true, "draftId": "missing"}`)
	s.NoError(s.handler.Create(c))
	s.Equal(http.StatusNotFound, rec.Code)
}

// ==================== MarkRead Tests ====================

func (s *MessageHandlerTestSuite) TestMarkRead() {
	s.mockRepo.On("SetRead", mock.Anything, "u-marc", "m-1", true).Return(nil)
	s.mockNotifier.On("MessagingUpdated", []string{"u-marc"}).Return()

	c, rec := s.createContext(http.MethodPatch, "/api/messages/m-1/read", `{"read": true}`)
	c.SetParamNames("id")
	c.SetParamValues("m-1")
	s.NoError(s.handler.MarkRead(c))
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *MessageHandlerTestSuite) TestMarkReadNotFound() {
	s.mockRepo.On("SetRead", mock.Anything, "u-marc", "missing", true).Return(repository.ErrNotFound)

	c, rec := s.createContext(http.MethodPatch, "/api/messages/missing/read", `{"read": true}`)
	c.SetParamNames("id")
	c.SetParamValues("missing")
	s.NoError(s.handler.MarkRead(c))
	s.Equal(http.StatusNotFound, rec.Code)
}

// ==================== Archive Tests ====================

func (s *MessageHandlerTestSuite) TestArchive() {
	s.mockRepo.On("SetArchived", mock.Anything, "u-marc", "m-1", true).Return(nil)
	s.mockNotifier.On("MessagingUpdated", []string{"u-marc"}).Return()

	c, rec := s.createContext(http.MethodPatch, "/api/messages/m-1/archive", `{"archived": true}`)
	c.SetParamNames("id")
	c.SetParamValues("m-1")
	s.NoError(s.handler.Archive(c))
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *MessageHandlerTestSuite) TestArchiveDraftRejected() {
	s.mockRepo.On("SetArchived", mock.Anything, "u-marc", "d-1", true).
		Return(repository.ErrInvalidTransition)

	c, rec := s.createContext(http.MethodPatch, "/api/messages/d-1/archive", `{"archived": true}`)
	c.SetParamNames("id")
	c.SetParamValues("d-1")
	s.NoError(s.handler.Archive(c))
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "drafts cannot be archived")
}

// ==================== Delete Tests ====================

func (s *MessageHandlerTestSuite) TestDelete() {
	s.mockRepo.On("Delete", mock.Anything, "u-marc", "m-1").Return(nil)
	s.mockNotifier.On("MessagingUpdated", []string{"u-marc"}).Return()

	c, rec := s.createContext(http.MethodDelete, "/api/messages/m-1", "")
	c.SetParamNames("id")
	c.SetParamValues("m-1")
	s.NoError(s.handler.Delete(c))
	s.Equal(http.StatusNoContent, rec.Code)
}

// ==================== Counter Tests ====================

func (s *MessageHandlerTestSuite) TestUnreadCount() {
	s.mockRepo.On("CountUnread", mock.Anything, "u-marc").Return(int64(3), nil)

	c, rec := s.createContext(http.MethodGet, "/api/messages/unread-count", "")
	s.NoError(s.handler.UnreadCount(c))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"unread":3`)
}

func (s *MessageHandlerTestSuite) TestFolderCounts() {
	s.mockRepo.On("FolderCounts", mock.Anything, "u-marc").
		Return(&models.FolderCounts{Inbox: 4, InboxUnread: 2, Sent: 7, Drafts: 1, Archive: 3}, nil)

	c, rec := s.createContext(http.MethodGet, "/api/messages/folder-counts", "")
	s.NoError(s.handler.FolderCounts(c))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"inboxUnread":2`)
}
