package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockUpdateNotifier implements handlers.UpdateNotifier
type MockUpdateNotifier struct {
	mock.Mock
}

// MessagingUpdated notifies the given users of a mailbox change
func (m *MockUpdateNotifier) MessagingUpdated(userIDs ...string) {
	m.Called(userIDs)
}
