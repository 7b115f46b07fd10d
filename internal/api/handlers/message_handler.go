package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jaytaylor/html2text"
	"github.com/labstack/echo/v4"
	"github.com/openscol/messagerie/internal/api/middleware"
	"github.com/openscol/messagerie/internal/api/response"
	"github.com/openscol/messagerie/internal/models"
	"github.com/openscol/messagerie/internal/repository"
)

// DraftSubjectPlaceholder replaces an empty subject when a draft is
// explicitly saved. Manual draft saves are never rejected for a missing
// subject.
const DraftSubjectPlaceholder = "(Sans objet)"

// snippetMaxLen bounds the derived list preview
const snippetMaxLen = 160

// UpdateNotifier broadcasts a "messaging updated" signal to the given
// users after a successful mutation. Subscribed views refetch their own
// counters; nothing mutates shared state directly.
type UpdateNotifier interface {
	MessagingUpdated(userIDs ...string)
}

// MessageHandler handles mailbox HTTP requests
type MessageHandler struct {
	messageRepo repository.MessageRepository
	notifier    UpdateNotifier
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messageRepo repository.MessageRepository, notifier UpdateNotifier) *MessageHandler {
	return &MessageHandler{
		messageRepo: messageRepo,
		notifier:    notifier,
	}
}

// senderDTO is the wire shape of a message sender. It is null on
// authored copies, where "self" is implied.
type senderDTO struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
}

// listItemDTO is the wire shape of one folder list row
type listItemDTO struct {
	ID              string     `json:"id"`
	Folder          string     `json:"folder"`
	Subject         string     `json:"subject"`
	Preview         string     `json:"preview,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	Unread          bool       `json:"unread"`
	Sender          *senderDTO `json:"sender"`
	AttachmentCount int        `json:"attachmentCount"`
}

// attachmentDTO is the wire shape of one attachment
type attachmentDTO struct {
	ID        string `json:"id"`
	FileName  string `json:"fileName"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
}

// detailDTO is the wire shape of full message detail
type detailDTO struct {
	ID          string          `json:"id"`
	Folder      string          `json:"folder"`
	Subject     string          `json:"subject"`
	Body        string          `json:"body"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	SentAt      *time.Time      `json:"sentAt"`
	Sender      *senderDTO      `json:"sender"`
	Recipients  []string        `json:"recipientUserIds,omitempty"`
	Attachments []attachmentDTO `json:"attachments,omitempty"`
}

// CreateMessageRequest represents the request body for creating a message.
// isDraft must be explicit at the call site: true saves a draft, false
// (or absent) sends immediately.
type CreateMessageRequest struct {
	Subject          string   `json:"subject"`
	Body             string   `json:"body"`
	RecipientUserIDs []string `json:"recipientUserIds"`
	IsDraft          bool     `json:"isDraft"`
	DraftID          string   `json:"draftId,omitempty"`
}

// readRequest represents the request body for the read toggle
type readRequest struct {
	Read bool `json:"read"`
}

// archiveRequest represents the request body for the archive toggle
type archiveRequest struct {
	Archived bool `json:"archived"`
}

// List handles GET /api/messages?folder&q&page&limit
func (h *MessageHandler) List(c echo.Context) error {
	folder := models.Folder(c.QueryParam("folder"))
	if folder == "" {
		folder = models.FolderInbox
	}
	if !models.ValidFolder(folder) {
		return response.BadRequest(c, "invalid folder")
	}

	page := 1
	limit := 20
	if p := c.QueryParam("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	search := strings.TrimSpace(c.QueryParam("q"))
	userID := middleware.UserID(c)

	items, total, err := h.messageRepo.ListFolder(c.Request().Context(), userID, folder, search, limit, (page-1)*limit)
	if err != nil {
		return response.InternalError(c, "failed to list messages")
	}

	dtos := make([]listItemDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, toListItemDTO(item))
	}
	return response.Paginated(c, dtos, response.NewMeta(page, limit, total))
}

// Get handles GET /api/messages/:id
func (h *MessageHandler) Get(c echo.Context) error {
	userID := middleware.UserID(c)

	message, entry, err := h.messageRepo.GetForUser(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "message not found")
		}
		return response.InternalError(c, "failed to get message")
	}

	return response.Success(c, toDetailDTO(message, entry))
}

// Create handles POST /api/messages
func (h *MessageHandler) Create(c echo.Context) error {
	var req CreateMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	req.Subject = strings.TrimSpace(req.Subject)
	recipients := dedupeRecipients(req.RecipientUserIDs)

	if req.IsDraft {
		// An explicitly saved draft is never rejected for minimal content
		if req.Subject == "" {
			req.Subject = DraftSubjectPlaceholder
		}
	} else {
		if len(recipients) == 0 {
			return response.BadRequest(c, "at least one recipient is required")
		}
		if req.Subject == "" {
			return response.BadRequest(c, "subject is required")
		}
		if strings.TrimSpace(req.Body) == "" {
			return response.BadRequest(c, "body is required")
		}
	}

	bodyText := plainText(req.Body)
	firstName, lastName, email := middleware.UserDisplay(c)

	message, err := h.messageRepo.Create(c.Request().Context(), repository.CreateMessageInput{
		AuthorID:        middleware.UserID(c),
		AuthorFirstName: firstName,
		AuthorLastName:  lastName,
		AuthorEmail:     email,
		Subject:         req.Subject,
		BodyHTML:        req.Body,
		BodyText:        bodyText,
		Snippet:         snippet(bodyText),
		RecipientIDs:    recipients,
		DraftID:         req.DraftID,
		IsDraft:         req.IsDraft,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "draft not found")
		}
		return response.InternalError(c, "failed to create message")
	}

	if h.notifier != nil {
		affected := append([]string{message.AuthorID}, recipients...)
		if req.IsDraft {
			affected = []string{message.AuthorID}
		}
		h.notifier.MessagingUpdated(affected...)
	}

	return response.Created(c, toDetailDTO(message, nil))
}

// MarkRead handles PATCH /api/messages/:id/read
func (h *MessageHandler) MarkRead(c echo.Context) error {
	var req readRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	userID := middleware.UserID(c)
	if err := h.messageRepo.SetRead(c.Request().Context(), userID, c.Param("id"), req.Read); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "message not found")
		}
		return response.InternalError(c, "failed to update read state")
	}

	if h.notifier != nil {
		h.notifier.MessagingUpdated(userID)
	}
	return response.NoContent(c)
}

// Archive handles PATCH /api/messages/:id/archive
func (h *MessageHandler) Archive(c echo.Context) error {
	var req archiveRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	userID := middleware.UserID(c)
	err := h.messageRepo.SetArchived(c.Request().Context(), userID, c.Param("id"), req.Archived)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "message not found")
		}
		if errors.Is(err, repository.ErrInvalidTransition) {
			return response.BadRequest(c, "drafts cannot be archived")
		}
		return response.InternalError(c, "failed to update folder")
	}

	if h.notifier != nil {
		h.notifier.MessagingUpdated(userID)
	}
	return response.NoContent(c)
}

// Delete handles DELETE /api/messages/:id
func (h *MessageHandler) Delete(c echo.Context) error {
	userID := middleware.UserID(c)
	if err := h.messageRepo.Delete(c.Request().Context(), userID, c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "message not found")
		}
		return response.InternalError(c, "failed to delete message")
	}

	if h.notifier != nil {
		h.notifier.MessagingUpdated(userID)
	}
	return response.NoContent(c)
}

// UnreadCount handles GET /api/messages/unread-count
func (h *MessageHandler) UnreadCount(c echo.Context) error {
	count, err := h.messageRepo.CountUnread(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.InternalError(c, "failed to count unread messages")
	}
	return response.Success(c, map[string]int64{"unread": count})
}

// FolderCounts handles GET /api/messages/folder-counts
func (h *MessageHandler) FolderCounts(c echo.Context) error {
	counts, err := h.messageRepo.FolderCounts(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.InternalError(c, "failed to count folders")
	}
	return response.Success(c, counts)
}

// toListItemDTO maps a repository projection to the wire shape
func toListItemDTO(item models.MessageListItem) listItemDTO {
	dto := listItemDTO{
		ID:              item.ID,
		Folder:          string(item.Folder),
		Subject:         item.Subject,
		Preview:         item.Snippet,
		CreatedAt:       item.CreatedAt,
		Unread:          item.Unread,
		AttachmentCount: item.AttachmentCount,
	}
	if item.SenderID != "" {
		dto.Sender = &senderDTO{
			ID:        item.SenderID,
			FirstName: item.SenderFirstName,
			LastName:  item.SenderLastName,
			Email:     item.SenderEmail,
		}
	}
	return dto
}

// toDetailDTO maps a message to the wire detail shape. The sender block
// is omitted for the author's own copies.
func toDetailDTO(message *models.Message, entry *models.MailboxEntry) detailDTO {
	dto := detailDTO{
		ID:        message.ID,
		Subject:   message.Subject,
		Body:      message.BodyHTML,
		Status:    string(message.Status),
		CreatedAt: message.CreatedAt,
		SentAt:    message.SentAt,
	}
	if dto.Body == "" {
		dto.Body = message.BodyText
	}
	if entry != nil {
		dto.Folder = string(entry.Folder)
	} else if message.Status == models.StatusDraft {
		// Create responses carry no entry; the author's copy sits in
		// drafts or sent depending on the outcome
		dto.Folder = string(models.FolderDrafts)
	} else {
		dto.Folder = string(models.FolderSent)
	}
	if entry != nil && entry.Kind == models.KindIncoming {
		dto.Sender = &senderDTO{
			ID:        message.AuthorID,
			FirstName: message.AuthorFirstName,
			LastName:  message.AuthorLastName,
			Email:     message.AuthorEmail,
		}
	}
	for _, rec := range message.Recipients {
		dto.Recipients = append(dto.Recipients, rec.UserID)
	}
	for _, att := range message.Attachments {
		dto.Attachments = append(dto.Attachments, attachmentDTO{
			ID:        att.ID,
			FileName:  att.FileName,
			MimeType:  att.MimeType,
			SizeBytes: att.SizeBytes,
		})
	}
	return dto
}

// dedupeRecipients trims, filters and deduplicates recipient IDs while
// keeping first-occurrence order
func dedupeRecipients(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// plainText derives a plain-text rendition of an HTML body
func plainText(body string) string {
	text, err := html2text.FromString(body, html2text.Options{TextOnly: true})
	if err != nil {
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(text)
}

// snippet derives the short list preview from body text
func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= snippetMaxLen {
		return text
	}
	return string(runes[:snippetMaxLen-1]) + "…"
}
