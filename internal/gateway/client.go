// Package gateway is the HTTP client for the mailbox service. It
// implements mailbox.Store: it owns the translation between the wire
// shapes and the view model, attaches the caller's identity and
// anti-forgery headers, and turns every non-2xx response into an error
// so callers can always tell success from failure.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	apperrors "github.com/openscol/messagerie/internal/errors"
	"github.com/openscol/messagerie/internal/mailbox"
)

// Identity/anti-forgery headers expected by the mailbox service
const (
	headerUserID        = "X-User-ID"
	headerUserFirstName = "X-User-First-Name"
	headerUserLastName  = "X-User-Last-Name"
	headerUserEmail     = "X-User-Email"
	headerCSRFToken     = "X-CSRF-Token"
)

// Identity is the authenticated caller, forwarded on every request
type Identity struct {
	UserID    string
	FirstName string
	LastName  string
	Email     string
}

// Config configures a Client
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Identity   Identity

	// CSRFToken is required on every mutating call. An empty token is
	// a local precondition failure: the call returns ErrMissingToken
	// without touching the network.
	CSRFToken string
}

// Client talks to the mailbox service API
type Client struct {
	baseURL    string
	httpClient *http.Client
	identity   Identity
	csrfToken  string
}

// compile-time check that Client satisfies the store boundary
var _ mailbox.Store = (*Client)(nil)

// New creates a gateway client
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: httpClient,
		identity:   cfg.Identity,
		csrfToken:  cfg.CSRFToken,
	}
}

// APIError is a non-2xx response from the mailbox service
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("mailbox service: %s (%d)", e.Message, e.Status)
	}
	return fmt.Sprintf("mailbox service: status %d", e.Status)
}

// envelope matches the service's response wrapper
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    *wireMeta       `json:"meta"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

type wireMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// ListMessages fetches one page of a folder, optionally filtered by a
// free-text search over subject, sender and preview
func (c *Client) ListMessages(ctx context.Context, folder mailbox.Folder, search string, page, limit int) (*mailbox.MessagePage, error) {
	q := url.Values{}
	q.Set("folder", string(folder))
	if search != "" {
		q.Set("q", search)
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	env, err := c.do(ctx, http.MethodGet, "/api/messages?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var items []listItemWire
	if err := json.Unmarshal(env.Data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode message list: %w", err)
	}

	result := &mailbox.MessagePage{Items: make([]mailbox.Message, 0, len(items))}
	for _, item := range items {
		result.Items = append(result.Items, item.toMessage())
	}
	if env.Meta != nil {
		result.Page = env.Meta.Page
		result.Limit = env.Meta.Limit
		result.Total = env.Meta.Total
		result.TotalPages = env.Meta.TotalPages
	}
	return result, nil
}

// GetMessage fetches full message detail, body included
func (c *Client) GetMessage(ctx context.Context, id string) (*mailbox.Message, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/messages/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var detail detailWire
	if err := json.Unmarshal(env.Data, &detail); err != nil {
		return nil, fmt.Errorf("failed to decode message detail: %w", err)
	}
	msg := detail.toMessage()
	return &msg, nil
}

// CreateMessage sends a message or saves a draft, per in.IsDraft
func (c *Client) CreateMessage(ctx context.Context, in mailbox.CreateMessage) (*mailbox.Message, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}

	payload := createWire{
		Subject:          in.Subject,
		Body:             in.Body,
		RecipientUserIDs: in.RecipientIDs,
		IsDraft:          in.IsDraft,
		DraftID:          in.DraftID,
	}
	if payload.RecipientUserIDs == nil {
		payload.RecipientUserIDs = []string{}
	}

	env, err := c.do(ctx, http.MethodPost, "/api/messages", payload)
	if err != nil {
		return nil, err
	}

	var detail detailWire
	if err := json.Unmarshal(env.Data, &detail); err != nil {
		return nil, fmt.Errorf("failed to decode created message: %w", err)
	}
	msg := detail.toMessage()
	return &msg, nil
}

// MarkRead sets the read flag of an inbox message
func (c *Client) MarkRead(ctx context.Context, id string, read bool) error {
	if err := c.requireToken(); err != nil {
		return err
	}
	_, err := c.do(ctx, http.MethodPatch, "/api/messages/"+url.PathEscape(id)+"/read", map[string]bool{"read": read})
	return err
}

// Archive moves a message into or out of the archive folder
func (c *Client) Archive(ctx context.Context, id string, archived bool) error {
	if err := c.requireToken(); err != nil {
		return err
	}
	_, err := c.do(ctx, http.MethodPatch, "/api/messages/"+url.PathEscape(id)+"/archive", map[string]bool{"archived": archived})
	return err
}

// DeleteMessage removes a message irreversibly. Confirmation is the
// caller's responsibility.
func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	if err := c.requireToken(); err != nil {
		return err
	}
	_, err := c.do(ctx, http.MethodDelete, "/api/messages/"+url.PathEscape(id), nil)
	return err
}

// UnreadCount returns the number of unread inbox messages
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/messages/unread-count", nil)
	if err != nil {
		return 0, err
	}
	var data struct {
		Unread int `json:"unread"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return 0, fmt.Errorf("failed to decode unread count: %w", err)
	}
	return data.Unread, nil
}

// FolderCounts returns the global per-folder totals
func (c *Client) FolderCounts(ctx context.Context) (*mailbox.FolderCounts, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/messages/folder-counts", nil)
	if err != nil {
		return nil, err
	}
	var data struct {
		Inbox       int `json:"inbox"`
		InboxUnread int `json:"inboxUnread"`
		Sent        int `json:"sent"`
		Drafts      int `json:"drafts"`
		Archive     int `json:"archive"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode folder counts: %w", err)
	}
	return &mailbox.FolderCounts{
		Inbox:       data.Inbox,
		InboxUnread: data.InboxUnread,
		Sent:        data.Sent,
		Drafts:      data.Drafts,
		Archive:     data.Archive,
	}, nil
}

// UploadInlineImage posts the file as multipart form data and returns
// the URL to embed in the message body
func (c *Client) UploadInlineImage(ctx context.Context, upload mailbox.InlineImageUpload) (string, error) {
	if err := c.requireToken(); err != nil {
		return "", err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", upload.FileName)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	if _, err := io.Copy(part, upload.Content); err != nil {
		return "", fmt.Errorf("failed to read upload content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/uploads/inline-image", &body)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setHeaders(req)

	env, err := c.send(req)
	if err != nil {
		return "", err
	}
	var data struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	return data.URL, nil
}

func (c *Client) requireToken() error {
	if c.csrfToken == "" {
		return apperrors.ErrMissingToken
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set(headerUserID, c.identity.UserID)
	req.Header.Set(headerUserFirstName, c.identity.FirstName)
	req.Header.Set(headerUserLastName, c.identity.LastName)
	req.Header.Set(headerUserEmail, c.identity.Email)
	if c.csrfToken != "" {
		req.Header.Set(headerCSRFToken, c.csrfToken)
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (*envelope, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setHeaders(req)

	return c.send(req)
}

func (c *Client) send(req *http.Request) (*envelope, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mailbox service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return &envelope{Success: true}, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 300 {
			return nil, &APIError{Status: resp.StatusCode}
		}
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode >= 300 || !env.Success {
		return nil, &APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Error}
	}
	return &env, nil
}
