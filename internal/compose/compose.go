// Package compose holds the pure composition logic: send eligibility,
// draft snapshots and reply/forward field derivation. Nothing here
// performs I/O; every function is safe to call on each keystroke.
package compose

import (
	"fmt"
	"sort"
	"strings"
)

// DraftSubjectPlaceholder replaces an empty subject on a manual draft
// save. A draft save is never rejected for a missing subject.
const DraftSubjectPlaceholder = "(Sans objet)"

// Leave-composer confirmation prompts, selected solely on whether
// unsaved changes exist
const (
	ConfirmLeaveUnsaved = "Des modifications ne sont pas enregistrées. Voulez-vous vraiment quitter la messagerie ?"
	ConfirmLeave        = "Voulez-vous quitter la messagerie ?"
)

// SendInput is the composer state evaluated by CanSendMessage
type SendInput struct {
	Sending     bool
	SavingDraft bool

	// GroupedRecipients selects between the accumulated-selection
	// count and the single flat recipient value
	GroupedRecipients       bool
	SelectedRecipientsCount int
	Recipient               string

	Subject  string
	BodyText string
}

// CanSendMessage reports whether a send may be submitted right now: no
// send or draft save in flight, a recipient present, and trimmed
// subject and body both non-empty.
func CanSendMessage(in SendInput) bool {
	if in.Sending || in.SavingDraft {
		return false
	}
	if in.GroupedRecipients {
		if in.SelectedRecipientsCount <= 0 {
			return false
		}
	} else if strings.TrimSpace(in.Recipient) == "" {
		return false
	}
	return strings.TrimSpace(in.Subject) != "" && strings.TrimSpace(in.BodyText) != ""
}

// SnapshotInput is the composer state captured into a draft snapshot
type SnapshotInput struct {
	GroupedRecipients bool
	RecipientIDs      []string // grouped mode
	Recipient         string   // flat mode
	Subject           string
	Body              string
}

// Snapshot is a normalized rendition of composer content, used only for
// equality comparison against the last saved state. It is never
// persisted as the source of truth.
type Snapshot struct {
	RecipientIDs []string // trimmed, deduplicated, sorted
	Subject      string
	Body         string
}

// BuildDraftSnapshot normalizes the composer state so that equivalent
// selections in different orders produce identical snapshots
func BuildDraftSnapshot(in SnapshotInput) Snapshot {
	var ids []string
	if in.GroupedRecipients {
		ids = NormalizeRecipientIDs(in.RecipientIDs)
	} else if r := strings.TrimSpace(in.Recipient); r != "" {
		ids = []string{r}
	}
	return Snapshot{
		RecipientIDs: ids,
		Subject:      strings.TrimSpace(in.Subject),
		Body:         strings.TrimSpace(in.Body),
	}
}

// NormalizeRecipientIDs trims, drops empties, deduplicates and sorts
// recipient identifiers. The result is the canonical recipient set for
// both snapshots and outgoing payloads.
func NormalizeRecipientIDs(ids []string) []string {
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
	sort.Strings(out)
	return out
}

// IsEmpty reports whether the snapshot holds no content at all
func (s Snapshot) IsEmpty() bool {
	return len(s.RecipientIDs) == 0 && s.Subject == "" && s.Body == ""
}

// Equal compares two snapshots structurally
func (s Snapshot) Equal(other Snapshot) bool {
	if s.Subject != other.Subject || s.Body != other.Body {
		return false
	}
	if len(s.RecipientIDs) != len(other.RecipientIDs) {
		return false
	}
	for i := range s.RecipientIDs {
		if s.RecipientIDs[i] != other.RecipientIDs[i] {
			return false
		}
	}
	return true
}

// HasUnsavedDraftChanges reports whether the current composer content
// diverges from the last saved draft. With no prior save, any non-empty
// content counts as unsaved. Stable under re-evaluation with unchanged
// inputs.
func HasUnsavedDraftChanges(current Snapshot, lastSaved *Snapshot) bool {
	if lastSaved == nil {
		return !current.IsEmpty()
	}
	return !current.Equal(*lastSaved)
}

// LeaveComposerConfirmMessage picks the confirmation prompt shown
// before navigating away from the composer
func LeaveComposerConfirmMessage(hasUnsavedChanges bool) string {
	if hasUnsavedChanges {
		return ConfirmLeaveUnsaved
	}
	return ConfirmLeave
}

// Mode distinguishes the two compose derivations from an existing
// message
type Mode string

const (
	ModeReply   Mode = "reply"
	ModeForward Mode = "forward"
)

// Subject prefixes applied when deriving a reply or forward
const (
	ReplySubjectPrefix   = "Re: "
	ForwardSubjectPrefix = "Tr: "
)

const forwardSeparator = "---------- Message transféré ----------"

// SourceMessage is the slice of a message needed to derive compose
// fields. BodyHTML, when non-empty, wins over BodyLines for the
// forwarded body.
type SourceMessage struct {
	Subject      string
	SenderName   string
	SenderUserID string
	DisplayDate  string
	BodyHTML     string
	BodyLines    []string
}

// Query is the initial state handed to the composer by reply and
// forward
type Query struct {
	Subject      string
	RecipientIDs []string
	BodyHTML     string
}

// BuildComposeQueryFromMessage derives the composer's initial fields
// from an existing message. Reply prefills the original sender as sole
// recipient when its identifier is known and otherwise leaves the
// recipient empty for the user to pick; it never carries over the
// body. Forward synthesizes a quoted body and prefills no recipient.
func BuildComposeQueryFromMessage(mode Mode, msg SourceMessage) Query {
	switch mode {
	case ModeForward:
		return Query{
			Subject:  ForwardSubjectPrefix + msg.Subject,
			BodyHTML: forwardBody(msg),
		}
	default:
		q := Query{Subject: ReplySubjectPrefix + msg.Subject}
		if msg.SenderUserID != "" {
			q.RecipientIDs = []string{msg.SenderUserID}
		}
		return q
	}
}

// forwardBody prepends the separator, a header block with the original
// sender, date and subject, and a rule, followed by the original body
func forwardBody(msg SourceMessage) string {
	var b strings.Builder
	b.WriteString("<p><br></p>")
	fmt.Fprintf(&b, "<p>%s</p>", forwardSeparator)
	fmt.Fprintf(&b, "<p>De : %s<br>Date : %s<br>Objet : %s</p>", msg.SenderName, msg.DisplayDate, msg.Subject)
	b.WriteString("<hr>")
	if msg.BodyHTML != "" {
		b.WriteString(msg.BodyHTML)
		return b.String()
	}
	for _, line := range msg.BodyLines {
		fmt.Fprintf(&b, "<p>%s</p>", line)
	}
	return b.String()
}
