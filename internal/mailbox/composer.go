package mailbox

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/jaytaylor/html2text"

	"github.com/openscol/messagerie/internal/compose"
	apperrors "github.com/openscol/messagerie/internal/errors"
	"github.com/openscol/messagerie/internal/richtext"
)

// MaxInlineImageBytes is the upload ceiling checked locally before any
// network call
const MaxInlineImageBytes = 8 * 1024 * 1024

// StagedAttachment is a file staged for the message being composed,
// unique by FileName
type StagedAttachment struct {
	FileName  string
	MimeType  string
	SizeBytes int64
	SizeLabel string
}

// Composer orchestrates recipient selection, rich-text body authoring,
// attachment staging and the send/save-draft calls. The recipient
// selection strategy is fixed at construction.
type Composer struct {
	store Store
	bus   *Bus
	dir   Directory
	mode  RecipientMode

	flatRecipient string
	selected      []SelectedRecipient

	subject     string
	editor      *richtext.Editor
	attachments []StagedAttachment

	sending     bool
	savingDraft bool
	sent        bool
	err         error

	draftID   string
	lastSaved *compose.Snapshot

	// uploadImages gates inline image upload; when false the composer
	// reports the upload as unavailable instead of pretending success
	uploadImages bool
}

// ComposerConfig configures a composer
type ComposerConfig struct {
	Store     Store
	Bus       *Bus
	Directory Directory
	Mode      RecipientMode

	// Initial holds reply/forward derived fields, zero for a blank
	// composition
	Initial compose.Query

	// DraftID resumes an existing draft; saves overwrite it
	DraftID string

	// EnableImageUpload wires the inline image upload path
	EnableImageUpload bool
}

// NewComposer creates a composer seeded with the initial fields
func NewComposer(cfg ComposerConfig) *Composer {
	c := &Composer{
		store:        cfg.Store,
		bus:          cfg.Bus,
		dir:          cfg.Directory,
		mode:         cfg.Mode,
		subject:      cfg.Initial.Subject,
		draftID:      cfg.DraftID,
		uploadImages: cfg.EnableImageUpload,
	}
	if cfg.Initial.BodyHTML != "" {
		c.editor = richtext.NewEditorWithSeed(cfg.Initial.BodyHTML)
	} else {
		c.editor = richtext.NewEditor()
	}
	// Seed the strategy the composer actually reads from: flat mode
	// holds a single recipient, grouped modes accumulate a selection
	if c.mode.Grouped() {
		for _, id := range cfg.Initial.RecipientIDs {
			c.addRecipient(SelectedRecipient{Kind: KindDirect, Value: id, Label: id})
		}
	} else if len(cfg.Initial.RecipientIDs) > 0 {
		c.flatRecipient = cfg.Initial.RecipientIDs[0]
	}
	return c
}

// Editor exposes the rich-text surface for body authoring commands
func (c *Composer) Editor() *richtext.Editor {
	return c.editor
}

// Mode returns the recipient selection strategy
func (c *Composer) Mode() RecipientMode {
	return c.mode
}

// SetSubject updates the subject line
func (c *Composer) SetSubject(subject string) {
	c.subject = subject
}

// Subject returns the current subject line
func (c *Composer) Subject() string {
	return c.subject
}

// SetFlatRecipient picks the single recipient in flat mode
func (c *Composer) SetFlatRecipient(value string) {
	if c.mode == ModeFlat {
		c.flatRecipient = value
	}
}

// AddRecipients merges picked entries into the selection, deduplicated
// by (kind, value)
func (c *Composer) AddRecipients(entries ...SelectedRecipient) {
	if !c.mode.Grouped() {
		return
	}
	for _, e := range entries {
		c.addRecipient(e)
	}
}

func (c *Composer) addRecipient(entry SelectedRecipient) {
	for _, s := range c.selected {
		if s.Kind == entry.Kind && s.Value == entry.Value {
			return
		}
	}
	c.selected = append(c.selected, entry)
}

// RemoveRecipient drops one entry from the selection
func (c *Composer) RemoveRecipient(kind RecipientKind, value string) {
	for i, s := range c.selected {
		if s.Kind == kind && s.Value == value {
			c.selected = append(c.selected[:i], c.selected[i+1:]...)
			return
		}
	}
}

// SelectedRecipients returns the accumulated selection in pick order
func (c *Composer) SelectedRecipients() []SelectedRecipient {
	return c.selected
}

// SearchTeachers queries the directory modal for teacher candidates
func (c *Composer) SearchTeachers(ctx context.Context, query string, page, limit int) ([]TeacherOption, int, error) {
	if c.dir == nil {
		return nil, 0, nil
	}
	return c.dir.SearchTeachers(ctx, query, page, limit)
}

// SearchFunctions queries the directory modal for staff-by-function
// candidates
func (c *Composer) SearchFunctions(ctx context.Context, query string, page, limit int) ([]FunctionOption, int, error) {
	if c.dir == nil {
		return nil, 0, nil
	}
	return c.dir.SearchFunctions(ctx, query, page, limit)
}

// RecipientOptions lists the flat dropdown candidates
func (c *Composer) RecipientOptions(ctx context.Context) ([]RecipientOption, error) {
	if c.dir == nil {
		return nil, nil
	}
	return c.dir.Options(ctx)
}

// AddAttachment stages a file. Duplicate file names are silently
// ignored, first occurrence wins.
func (c *Composer) AddAttachment(fileName, mimeType string, sizeBytes int64) {
	for _, a := range c.attachments {
		if a.FileName == fileName {
			return
		}
	}
	c.attachments = append(c.attachments, StagedAttachment{
		FileName:  fileName,
		MimeType:  mimeType,
		SizeBytes: sizeBytes,
		SizeLabel: FormatSize(sizeBytes),
	})
}

// RemoveAttachment unstages a file by name
func (c *Composer) RemoveAttachment(fileName string) {
	for i, a := range c.attachments {
		if a.FileName == fileName {
			c.attachments = append(c.attachments[:i], c.attachments[i+1:]...)
			return
		}
	}
}

// Attachments returns the staged files in staging order
func (c *Composer) Attachments() []StagedAttachment {
	return c.attachments
}

// UploadInlineImage validates the file locally (image MIME type, size
// ceiling) and, on success, uploads it and inserts the returned URL
// into the editor. Validation failures never reach the network.
func (c *Composer) UploadInlineImage(ctx context.Context, upload InlineImageUpload) (string, error) {
	if !c.uploadImages {
		c.err = apperrors.ErrUploadUnavailable
		return "", c.err
	}
	if !strings.HasPrefix(upload.MimeType, "image/") {
		c.err = apperrors.ErrUploadNotImage
		return "", c.err
	}
	if upload.Size > MaxInlineImageBytes {
		c.err = apperrors.ErrUploadTooLarge
		return "", c.err
	}

	url, err := c.store.UploadInlineImage(ctx, upload)
	if err != nil {
		c.err = fmt.Errorf("failed to upload image: %w", err)
		return "", c.err
	}
	c.err = nil
	c.editor.InsertImage(path.Base(url), url)
	return url, nil
}

// recipientIDs is the deduplicated outgoing recipient set
func (c *Composer) recipientIDs() []string {
	if !c.mode.Grouped() {
		if r := strings.TrimSpace(c.flatRecipient); r != "" {
			return []string{r}
		}
		return nil
	}
	ids := make([]string, 0, len(c.selected))
	for _, s := range c.selected {
		ids = append(ids, s.Value)
	}
	return compose.NormalizeRecipientIDs(ids)
}

// CanSend evaluates send eligibility from the current state
func (c *Composer) CanSend() bool {
	return compose.CanSendMessage(compose.SendInput{
		Sending:                 c.sending,
		SavingDraft:             c.savingDraft,
		GroupedRecipients:       c.mode.Grouped(),
		SelectedRecipientsCount: len(c.selected),
		Recipient:               c.flatRecipient,
		Subject:                 c.subject,
		BodyText:                c.bodyText(),
	})
}

// bodyText is the plain-text rendition used by send eligibility and
// snapshots. Seeded content (reply/forward quotes) counts even when
// nothing was typed.
func (c *Composer) bodyText() string {
	if text := c.editor.PlainText(); text != "" {
		return text
	}
	if c.editor.IsEmpty() {
		return ""
	}
	text, err := html2text.FromString(c.editor.HTML(), html2text.Options{TextOnly: true})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// Send submits the composition. Precondition failures (missing
// recipient, subject or body) surface as specific errors before any
// network call; a failed send keeps the typed content intact.
func (c *Composer) Send(ctx context.Context) error {
	if c.sending || c.savingDraft {
		return nil
	}
	if err := c.sendPrecondition(); err != nil {
		c.err = err
		return err
	}

	c.sending = true
	defer func() { c.sending = false }()

	_, err := c.store.CreateMessage(ctx, CreateMessage{
		Subject:      strings.TrimSpace(c.subject),
		Body:         c.editor.HTML(),
		RecipientIDs: c.recipientIDs(),
		IsDraft:      false,
		DraftID:      c.draftID,
	})
	if err != nil {
		c.err = fmt.Errorf("failed to send message: %w", err)
		return c.err
	}

	c.sent = true
	c.err = nil
	c.publish(ctx, ReasonSend)
	return nil
}

func (c *Composer) sendPrecondition() error {
	if len(c.recipientIDs()) == 0 {
		return apperrors.ErrMissingRecipient
	}
	if strings.TrimSpace(c.subject) == "" {
		return apperrors.ErrMissingSubject
	}
	if strings.TrimSpace(c.bodyText()) == "" {
		return apperrors.ErrMissingBody
	}
	return nil
}

// SaveDraft persists the composition as a draft. An explicit save is
// never skipped; an empty subject is replaced with the placeholder
// rather than rejected. On success the saved snapshot becomes the
// unsaved-changes baseline and later saves overwrite the same draft.
func (c *Composer) SaveDraft(ctx context.Context) error {
	if c.sending || c.savingDraft {
		return nil
	}
	c.savingDraft = true
	defer func() { c.savingDraft = false }()

	subject := strings.TrimSpace(c.subject)
	if subject == "" {
		subject = compose.DraftSubjectPlaceholder
	}

	msg, err := c.store.CreateMessage(ctx, CreateMessage{
		Subject:      subject,
		Body:         c.editor.HTML(),
		RecipientIDs: c.recipientIDs(),
		IsDraft:      true,
		DraftID:      c.draftID,
	})
	if err != nil {
		c.err = fmt.Errorf("failed to save draft: %w", err)
		return c.err
	}

	c.draftID = msg.ID
	snap := c.snapshot()
	c.lastSaved = &snap
	c.err = nil
	c.publish(ctx, ReasonDraftSaved)
	return nil
}

func (c *Composer) snapshot() compose.Snapshot {
	return compose.BuildDraftSnapshot(compose.SnapshotInput{
		GroupedRecipients: c.mode.Grouped(),
		RecipientIDs:      c.recipientIDs(),
		Recipient:         c.flatRecipient,
		Subject:           c.subject,
		Body:              c.bodyText(),
	})
}

// HasUnsavedChanges reports whether the composition diverges from the
// last saved draft
func (c *Composer) HasUnsavedChanges() bool {
	return compose.HasUnsavedDraftChanges(c.snapshot(), c.lastSaved)
}

// LeaveConfirmMessage returns the prompt to show before navigating
// away
func (c *Composer) LeaveConfirmMessage() string {
	return compose.LeaveComposerConfirmMessage(c.HasUnsavedChanges())
}

// Sending reports whether a send is in flight
func (c *Composer) Sending() bool { return c.sending }

// SavingDraft reports whether a draft save is in flight
func (c *Composer) SavingDraft() bool { return c.savingDraft }

// Sent reports whether the composition was sent; the caller returns
// focus to the list when true
func (c *Composer) Sent() bool { return c.sent }

// DraftID returns the id of the draft being overwritten, empty for a
// fresh composition
func (c *Composer) DraftID() string { return c.draftID }

// Err returns the last composer error, nil after a success
func (c *Composer) Err() error { return c.err }

func (c *Composer) publish(ctx context.Context, reason UpdateReason) {
	if c.bus != nil {
		c.bus.Publish(ctx, UpdateEvent{Reason: reason})
	}
}
