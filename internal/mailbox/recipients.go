package mailbox

import "context"

// RecipientKind tags where a selected recipient came from
type RecipientKind string

const (
	KindDirect   RecipientKind = "direct"
	KindTeacher  RecipientKind = "teacher"
	KindFunction RecipientKind = "function"
)

// RecipientOption is one selectable entry of a flat recipient list
type RecipientOption struct {
	Value string
	Label string
}

// TeacherOption is a teacher entry of the searchable recipient modal
type TeacherOption struct {
	RecipientOption
	Email    string
	Classes  []string
	Subjects []string
}

// FunctionOption is a staff-by-function entry of the searchable
// recipient modal
type FunctionOption struct {
	RecipientOption
	Email         string
	FunctionID    string
	FunctionLabel string
}

// SelectedRecipient is one entry of the composer's accumulated
// selection, unique by (Kind, Value)
type SelectedRecipient struct {
	Kind  RecipientKind
	Value string
	Label string
}

// Directory serves the recipient candidates for the composer's
// selection strategies. Search calls are paginated; they return the
// matching page and the total match count.
type Directory interface {
	Options(ctx context.Context) ([]RecipientOption, error)
	SearchTeachers(ctx context.Context, query string, page, limit int) ([]TeacherOption, int, error)
	SearchFunctions(ctx context.Context, query string, page, limit int) ([]FunctionOption, int, error)
}

// RecipientMode is the selection strategy fixed at composer
// construction from the caller's role
type RecipientMode int

const (
	// ModeFlat offers a single dropdown of candidates
	ModeFlat RecipientMode = iota
	// ModeTeacherSearch accumulates teachers picked through the
	// search modal
	ModeTeacherSearch
	// ModeFunctionSearch accumulates staff picked by function through
	// the search modal
	ModeFunctionSearch
)

// Grouped reports whether the mode accumulates a selection set rather
// than holding a single flat choice
func (m RecipientMode) Grouped() bool {
	return m != ModeFlat
}
