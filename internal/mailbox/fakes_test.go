package mailbox

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/openscol/messagerie/internal/errors"
)

// fakeStore is a scriptable Store for component tests. Each call is
// recorded; hooks allow tests to interleave state changes mid-call.
type fakeStore struct {
	messages map[Folder][]Message
	counts   FolderCounts

	createCalls   []CreateMessage
	markReadCalls []struct {
		ID   string
		Read bool
	}
	archiveCalls []struct {
		ID       string
		Archived bool
	}
	deleteCalls []string
	listCalls   []struct {
		Folder Folder
		Search string
		Page   int
	}

	listErr     error
	getErr      error
	createErr   error
	markReadErr error
	archiveErr  error
	deleteErr   error
	uploadErr   error
	uploadURL   string

	createResult *Message

	// onList runs before ListMessages returns, letting tests simulate
	// a folder switch racing an in-flight fetch
	onList func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{messages: make(map[Folder][]Message)}
}

func (f *fakeStore) ListMessages(_ context.Context, folder Folder, search string, page, limit int) (*MessagePage, error) {
	f.listCalls = append(f.listCalls, struct {
		Folder Folder
		Search string
		Page   int
	}{folder, search, page})
	if f.onList != nil {
		f.onList()
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	items := f.messages[folder]
	return &MessagePage{
		Items:      items,
		Page:       page,
		Limit:      limit,
		Total:      int64(len(items)),
		TotalPages: 1,
	}, nil
}

func (f *fakeStore) GetMessage(_ context.Context, id string) (*Message, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, items := range f.messages {
		for _, m := range items {
			if m.ID == id {
				copy := m
				return &copy, nil
			}
		}
	}
	return nil, apperrors.ErrMessageNotFound
}

func (f *fakeStore) CreateMessage(_ context.Context, in CreateMessage) (*Message, error) {
	f.createCalls = append(f.createCalls, in)
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createResult != nil {
		return f.createResult, nil
	}
	return &Message{ID: "m-new", Subject: in.Subject, CreatedAt: time.Now()}, nil
}

func (f *fakeStore) MarkRead(_ context.Context, id string, read bool) error {
	f.markReadCalls = append(f.markReadCalls, struct {
		ID   string
		Read bool
	}{id, read})
	return f.markReadErr
}

func (f *fakeStore) Archive(_ context.Context, id string, archived bool) error {
	f.archiveCalls = append(f.archiveCalls, struct {
		ID       string
		Archived bool
	}{id, archived})
	return f.archiveErr
}

func (f *fakeStore) DeleteMessage(_ context.Context, id string) error {
	f.deleteCalls = append(f.deleteCalls, id)
	return f.deleteErr
}

func (f *fakeStore) UnreadCount(context.Context) (int, error) {
	return f.counts.InboxUnread, nil
}

func (f *fakeStore) FolderCounts(context.Context) (*FolderCounts, error) {
	counts := f.counts
	return &counts, nil
}

func (f *fakeStore) UploadInlineImage(_ context.Context, _ InlineImageUpload) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	if f.uploadURL != "" {
		return f.uploadURL, nil
	}
	return "/api/uploads/inline-images/img-1", nil
}

// fakeDirectory serves fixed recipient candidates
type fakeDirectory struct {
	options   []RecipientOption
	teachers  []TeacherOption
	functions []FunctionOption
}

func (f *fakeDirectory) Options(context.Context) ([]RecipientOption, error) {
	return f.options, nil
}

func (f *fakeDirectory) SearchTeachers(_ context.Context, query string, _, _ int) ([]TeacherOption, int, error) {
	var out []TeacherOption
	for _, t := range f.teachers {
		if query == "" || strings.Contains(t.Label, query) {
			out = append(out, t)
		}
	}
	return out, len(out), nil
}

func (f *fakeDirectory) SearchFunctions(_ context.Context, query string, _, _ int) ([]FunctionOption, int, error) {
	var out []FunctionOption
	for _, fn := range f.functions {
		if query == "" || strings.Contains(fn.Label, query) {
			out = append(out, fn)
		}
	}
	return out, len(out), nil
}
