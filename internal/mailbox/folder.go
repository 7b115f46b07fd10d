// Package mailbox holds the messaging view model and the view
// components built on it: folder navigator, message list, reader and
// composer. All state here is single-threaded; network calls go through
// the Store boundary and cross-component synchronization goes through
// the Bus.
package mailbox

// Folder is one of the four mutually exclusive mailbox partitions
type Folder string

const (
	FolderInbox   Folder = "inbox"
	FolderSent    Folder = "sent"
	FolderDrafts  Folder = "drafts"
	FolderArchive Folder = "archive"
)

// ValidFolder reports whether f names a known folder
func ValidFolder(f Folder) bool {
	switch f {
	case FolderInbox, FolderSent, FolderDrafts, FolderArchive:
		return true
	}
	return false
}
