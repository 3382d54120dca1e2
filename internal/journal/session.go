package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gitjrnl/gitjrnl/internal/apperrors"
	"github.com/gitjrnl/gitjrnl/internal/github"
)

// RemoteStore is the slice of the repository client the journal layer uses.
type RemoteStore interface {
	GetFile(ctx context.Context, path string) (*github.Document, error)
	PutFile(ctx context.Context, path, content, sha string) (string, error)
}

// State is the lifecycle of one save attempt.
type State int

const (
	// StateIdle means no save is in flight and no conflict is pending.
	StateIdle State = iota
	// StateSaving means a put is in flight.
	StateSaving
	// StateConflict means the last put was rejected because the base
	// version token went stale; the current remote content has been
	// fetched and a resolution is required.
	StateConflict
)

// Session tracks one edit of one document: the local content, the version
// token observed at the last successful read or write, and the conflict
// state when another writer raced ahead. Resolution is binary: adopt the
// remote content, or keep the local edits and retry on the fresh token.
type Session struct {
	store  RemoteStore
	logger *slog.Logger

	mu              sync.Mutex
	path            string
	content         string
	originalContent string
	baseSHA         string
	state           State

	// Populated while state == StateConflict.
	remoteContent string
	remoteSHA     string
}

// SessionOption configures the session.
type SessionOption func(*Session)

// WithSessionLogger sets a custom logger.
func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = l
	}
}

// NewSession starts an edit session from a fetched document. For a
// document that does not exist yet the version token is empty and the
// first save creates the file.
func NewSession(store RemoteStore, doc *github.Document, opts ...SessionOption) *Session {
	session := &Session{
		store:           store,
		logger:          slog.Default(),
		path:            doc.Path,
		content:         doc.Content,
		originalContent: doc.Content,
		baseSHA:         doc.SHA,
		state:           StateIdle,
	}

	for _, opt := range opts {
		opt(session)
	}

	return session
}

// Open fetches a document and starts an edit session on it. When the
// document does not exist, the session starts from the supplied default
// content with no version token.
func Open(ctx context.Context, store RemoteStore, path, defaultContent string) (*Session, error) {
	doc, err := store.GetFile(ctx, path)
	if err != nil {
		return nil, err
	}
	if !doc.Exists {
		doc.Content = defaultContent
	}
	return NewSession(store, doc), nil
}

// Path returns the document path the session edits.
func (s *Session) Path() string {
	return s.path
}

// Content returns the current local content.
func (s *Session) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content
}

// SetContent replaces the local content.
func (s *Session) SetContent(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content = content
}

// HasChanges reports whether the local content differs from the content
// observed at the last read or successful save.
func (s *Session) HasChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content != s.originalContent
}

// State returns the session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RemoteContent returns the remote content fetched on conflict, and
// whether a conflict is pending.
func (s *Session) RemoteContent() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remoteContent, s.state == StateConflict
}

// Save writes the local content on the base version token. On success the
// new token becomes the base. When the remote rejects the token as stale,
// the session fetches the current remote state, enters StateConflict, and
// returns an error matching apperrors.ErrConflict; local edits are kept.
// Any other failure leaves the session idle with no state retained.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateSaving {
		s.mu.Unlock()
		return apperrors.ErrSaveInProgress
	}
	s.state = StateSaving
	path, content, baseSHA := s.path, s.content, s.baseSHA
	s.mu.Unlock()

	newSHA, err := s.store.PutFile(ctx, path, content, baseSHA)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		s.baseSHA = newSHA
		s.originalContent = content
		s.state = StateIdle
		s.remoteContent = ""
		s.remoteSHA = ""
		return nil
	}

	if errors.Is(err, apperrors.ErrConflict) {
		return s.enterConflict(ctx, err)
	}

	s.state = StateIdle
	return err
}

// enterConflict re-fetches the current remote state after a rejected
// write. Must be called with the mutex held.
func (s *Session) enterConflict(ctx context.Context, conflictErr error) error {
	doc, err := s.store.GetFile(ctx, s.path)
	if err != nil {
		// The conflict stands but the remote state is unknown; stay idle
		// so the caller can retry the whole save.
		s.state = StateIdle
		return fmt.Errorf("refetch after conflict: %w", err)
	}

	s.logger.WarnContext(ctx, "save conflict detected",
		"path", s.path,
		"base_sha", s.baseSHA,
		"remote_sha", doc.SHA)

	s.state = StateConflict
	s.remoteContent = doc.Content
	s.remoteSHA = doc.SHA
	return conflictErr
}

// AcceptRemote resolves a pending conflict by adopting the remote content
// and its version token; no write is performed and the user may re-edit.
// Calling it with no conflict pending is a no-op, so resolving twice in a
// row is safe.
func (s *Session) AcceptRemote() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConflict {
		return
	}

	s.content = s.remoteContent
	s.originalContent = s.remoteContent
	s.baseSHA = s.remoteSHA
	s.state = StateIdle
	s.remoteContent = ""
	s.remoteSHA = ""
}

// KeepMine resolves a pending conflict by keeping the local edits and
// adopting the freshly fetched version token as the new base; the caller
// is expected to call Save again. This is last-write-wins: if the retry
// succeeds, the other writer's changes are overwritten. Calling it with
// no conflict pending is a no-op.
func (s *Session) KeepMine() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateConflict {
		return
	}

	s.baseSHA = s.remoteSHA
	s.state = StateIdle
	s.remoteContent = ""
	s.remoteSHA = ""
}

// Append fetches the latest journal state, appends the formatted entry and
// writes it back on the fetched version token, so concurrent appends from
// other devices are detected rather than overwritten. It returns the new
// content on success. When the file does not exist yet, the entry is
// appended to the default heading for the effective date and the write
// creates the file.
func Append(ctx context.Context, store RemoteStore, path, entry string, at time.Time) (string, error) {
	doc, err := store.GetFile(ctx, path)
	if err != nil {
		return "", err
	}

	current := doc.Content
	if !doc.Exists {
		current = DefaultContent(at)
	}

	newContent := FormatEntry(current, entry)
	if _, err := store.PutFile(ctx, path, newContent, doc.SHA); err != nil {
		return "", err
	}

	return newContent, nil
}
