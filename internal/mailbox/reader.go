package mailbox

import (
	"context"
	"fmt"

	"github.com/openscol/messagerie/internal/compose"
	apperrors "github.com/openscol/messagerie/internal/errors"
)

// DeleteConfirmPrompt is shown before an irreversible delete
const DeleteConfirmPrompt = "Voulez-vous vraiment supprimer ce message ?"

// Confirmer asks the user to confirm a destructive action; returning
// false cancels it entirely
type Confirmer func(prompt string) bool

// Reader displays one selected message and exposes its actions:
// toggle-read (inbox only), archive/unarchive (not for drafts), delete
// with confirmation, and reply/forward handoff to the composer.
type Reader struct {
	store   Store
	bus     *Bus
	confirm Confirmer

	folder     Folder
	message    *Message
	loading    bool
	actionBusy bool
	err        error

	// markedFor records the message id already marked read for the
	// current selection, so opening marks at most once
	markedFor string
}

// NewReader creates a reader. confirm guards deletes; a nil confirmer
// rejects every delete.
func NewReader(store Store, bus *Bus, confirm Confirmer) *Reader {
	return &Reader{store: store, bus: bus, confirm: confirm}
}

// Open fetches and displays a message from the given folder. For inbox
// messages it fires markRead once per selection; the body renders
// regardless of whether that side effect succeeds.
func (r *Reader) Open(ctx context.Context, folder Folder, id string) error {
	r.loading = true
	defer func() { r.loading = false }()

	msg, err := r.store.GetMessage(ctx, id)
	if err != nil {
		r.err = fmt.Errorf("failed to load message: %w", err)
		return r.err
	}
	msg.Folder = folder
	r.folder = folder
	r.message = msg
	r.err = nil

	if folder == FolderInbox && r.markedFor != id {
		r.markedFor = id
		// fire-and-forget relative to rendering: a failure leaves the
		// message readable and is not surfaced as the reader's error
		if err := r.store.MarkRead(ctx, id, true); err == nil {
			r.publish(ctx, ReasonReadToggle)
		}
	}
	return nil
}

// Message returns the displayed message, nil when none is open
func (r *Reader) Message() *Message {
	return r.message
}

// Loading reports whether a detail fetch is in flight
func (r *Reader) Loading() bool { return r.loading }

// ActionBusy reports whether a mutating action is in flight
func (r *Reader) ActionBusy() bool { return r.actionBusy }

// Err returns the last action error, nil after a success
func (r *Reader) Err() error { return r.err }

// ToggleRead flips the read state of an open inbox message. Outside
// the inbox it is a no-op.
func (r *Reader) ToggleRead(ctx context.Context, read bool) error {
	if r.message == nil || r.folder != FolderInbox || r.actionBusy {
		return nil
	}
	r.actionBusy = true
	defer func() { r.actionBusy = false }()

	if err := r.store.MarkRead(ctx, r.message.ID, read); err != nil {
		r.err = fmt.Errorf("failed to update read state: %w", err)
		return r.err
	}
	r.err = nil
	r.publish(ctx, ReasonReadToggle)
	return nil
}

// SetArchived archives or unarchives the open message. Drafts are not
// archivable.
func (r *Reader) SetArchived(ctx context.Context, archived bool) error {
	if r.message == nil || r.actionBusy {
		return nil
	}
	if r.folder == FolderDrafts {
		r.err = apperrors.ErrInvalidTransition
		return r.err
	}
	r.actionBusy = true
	defer func() { r.actionBusy = false }()

	if err := r.store.Archive(ctx, r.message.ID, archived); err != nil {
		r.err = fmt.Errorf("failed to move message: %w", err)
		return r.err
	}
	r.err = nil
	r.publish(ctx, ReasonArchive)
	return nil
}

// Delete removes the open message after explicit confirmation.
// Cancelling the confirmation is a true no-op.
func (r *Reader) Delete(ctx context.Context) error {
	if r.message == nil || r.actionBusy {
		return nil
	}
	if r.confirm == nil || !r.confirm(DeleteConfirmPrompt) {
		return nil
	}
	r.actionBusy = true
	defer func() { r.actionBusy = false }()

	if err := r.store.DeleteMessage(ctx, r.message.ID); err != nil {
		r.err = fmt.Errorf("failed to delete message: %w", err)
		return r.err
	}
	r.message = nil
	r.err = nil
	r.publish(ctx, ReasonDelete)
	return nil
}

// Reply derives the composer's initial fields for replying to the open
// message. The reader sends nothing itself.
func (r *Reader) Reply() (compose.Query, bool) {
	return r.composeQuery(compose.ModeReply)
}

// Forward derives the composer's initial fields for forwarding the
// open message
func (r *Reader) Forward() (compose.Query, bool) {
	return r.composeQuery(compose.ModeForward)
}

func (r *Reader) composeQuery(mode compose.Mode) (compose.Query, bool) {
	if r.message == nil {
		return compose.Query{}, false
	}
	m := r.message
	return compose.BuildComposeQueryFromMessage(mode, compose.SourceMessage{
		Subject:      m.Subject,
		SenderName:   m.Sender,
		SenderUserID: m.SenderUserID,
		DisplayDate:  m.DisplayDate,
		BodyHTML:     m.BodyHTML,
		BodyLines:    m.BodyLines(),
	}), true
}

func (r *Reader) publish(ctx context.Context, reason UpdateReason) {
	if r.bus != nil {
		r.bus.Publish(ctx, UpdateEvent{Reason: reason})
	}
}
