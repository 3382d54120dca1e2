package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gitjrnl/gitjrnl/internal/apperrors"
	"github.com/gitjrnl/gitjrnl/internal/github"
)

// fakeStore is an in-memory single-document remote with version tokens.
type fakeStore struct {
	content string
	sha     string
	exists  bool
	puts    int
	gets    int

	// putErr, when set, is returned by the next PutFile call once.
	putErr error
	getErr error
}

func (f *fakeStore) GetFile(_ context.Context, path string) (*github.Document, error) {
	f.gets++
	if f.getErr != nil {
		err := f.getErr
		f.getErr = nil
		return nil, err
	}
	if !f.exists {
		return &github.Document{Path: path, Exists: false}, nil
	}
	return &github.Document{Path: path, Content: f.content, SHA: f.sha, Exists: true}, nil
}

func (f *fakeStore) PutFile(_ context.Context, _, content, sha string) (string, error) {
	f.puts++
	if f.putErr != nil {
		err := f.putErr
		f.putErr = nil
		return "", err
	}
	if f.exists && sha != f.sha {
		return "", apperrors.ErrConflict
	}
	f.content = content
	f.sha = "sha-" + content[:min(len(content), 8)]
	f.exists = true
	return f.sha, nil
}

func TestSession_SaveAdvancesToken(t *testing.T) {
	t.Parallel()

	store := &fakeStore{content: "old", sha: "sha-1", exists: true}
	session := NewSession(store, &github.Document{Path: "notes/a.md", Content: "old", SHA: "sha-1", Exists: true})

	session.SetContent("new content")
	if !session.HasChanges() {
		t.Fatal("expected HasChanges after SetContent")
	}

	if err := session.Save(context.Background()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if session.State() != StateIdle {
		t.Errorf("state = %v, want StateIdle", session.State())
	}
	if session.HasChanges() {
		t.Error("expected no changes after successful save")
	}
	if store.content != "new content" {
		t.Errorf("remote content = %q, want %q", store.content, "new content")
	}

	// A second save on the advanced token must not conflict.
	session.SetContent("newer content")
	if err := session.Save(context.Background()); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
}

func TestSession_FirstWriteWithoutToken(t *testing.T) {
	t.Parallel()

	store := &fakeStore{exists: false}
	session, err := Open(context.Background(), store, "log/2024/03/05.md", "# 2024-03-05")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if got := session.Content(); got != "# 2024-03-05" {
		t.Errorf("content = %q, want default content", got)
	}

	session.SetContent("# 2024-03-05\n- first entry")
	if err := session.Save(context.Background()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !store.exists {
		t.Error("expected remote file to be created")
	}
}

func TestSession_ConflictDetectedAndAcceptRemote(t *testing.T) {
	t.Parallel()

	// Remote has advanced to sha-2 behind the session's back.
	store := &fakeStore{content: "their edit", sha: "sha-2", exists: true}
	session := NewSession(store, &github.Document{Path: "notes/a.md", Content: "base", SHA: "sha-1", Exists: true})

	session.SetContent("my edit")
	err := session.Save(context.Background())
	if !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("Save error = %v, want ErrConflict", err)
	}

	if session.State() != StateConflict {
		t.Fatalf("state = %v, want StateConflict", session.State())
	}
	remote, pending := session.RemoteContent()
	if !pending || remote != "their edit" {
		t.Errorf("RemoteContent() = (%q, %v), want (%q, true)", remote, pending, "their edit")
	}
	// Local edits are never discarded by the conflict itself.
	if got := session.Content(); got != "my edit" {
		t.Errorf("local content = %q, want %q", got, "my edit")
	}

	session.AcceptRemote()
	if session.State() != StateIdle {
		t.Errorf("state after AcceptRemote = %v, want StateIdle", session.State())
	}
	if got := session.Content(); got != "their edit" {
		t.Errorf("content after AcceptRemote = %q, want remote content", got)
	}
	if store.puts != 1 {
		t.Errorf("puts = %d, want 1 (accept remote performs no write)", store.puts)
	}
}

func TestSession_AcceptRemoteWithoutConflictIsNoOp(t *testing.T) {
	t.Parallel()

	store := &fakeStore{content: "base", sha: "sha-1", exists: true}
	session := NewSession(store, &github.Document{Path: "notes/a.md", Content: "base", SHA: "sha-1", Exists: true})

	session.SetContent("my edit")
	session.AcceptRemote()
	session.AcceptRemote()

	if got := session.Content(); got != "my edit" {
		t.Errorf("content = %q, want local edit untouched", got)
	}
	if session.State() != StateIdle {
		t.Errorf("state = %v, want StateIdle", session.State())
	}
}

func TestSession_KeepMineRetriesOnFreshToken(t *testing.T) {
	t.Parallel()

	store := &fakeStore{content: "their edit", sha: "sha-2", exists: true}
	session := NewSession(store, &github.Document{Path: "notes/a.md", Content: "base", SHA: "sha-1", Exists: true})

	session.SetContent("my edit")
	if err := session.Save(context.Background()); !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("Save error = %v, want ErrConflict", err)
	}

	session.KeepMine()
	if session.State() != StateIdle {
		t.Fatalf("state after KeepMine = %v, want StateIdle", session.State())
	}

	// The retry carries the freshly fetched token and wins.
	if err := session.Save(context.Background()); err != nil {
		t.Fatalf("retry Save failed: %v", err)
	}
	if store.content != "my edit" {
		t.Errorf("remote content = %q, want local edit (last write wins)", store.content)
	}
}

func TestSession_OtherErrorsLeaveNoState(t *testing.T) {
	t.Parallel()

	store := &fakeStore{content: "base", sha: "sha-1", exists: true, putErr: apperrors.ErrAuth}
	session := NewSession(store, &github.Document{Path: "notes/a.md", Content: "base", SHA: "sha-1", Exists: true})

	session.SetContent("my edit")
	err := session.Save(context.Background())
	if !errors.Is(err, apperrors.ErrAuth) {
		t.Fatalf("Save error = %v, want ErrAuth", err)
	}
	if session.State() != StateIdle {
		t.Errorf("state = %v, want StateIdle", session.State())
	}
	if _, pending := session.RemoteContent(); pending {
		t.Error("expected no conflict state after a non-conflict failure")
	}
}

func TestSession_ConflictRefetchFailure(t *testing.T) {
	t.Parallel()

	store := &fakeStore{content: "their edit", sha: "sha-2", exists: true}
	store.getErr = apperrors.ErrRateLimited
	session := NewSession(store, &github.Document{Path: "notes/a.md", Content: "base", SHA: "sha-1", Exists: true})

	session.SetContent("my edit")
	err := session.Save(context.Background())
	if err == nil {
		t.Fatal("expected error when conflict refetch fails")
	}
	if !errors.Is(err, apperrors.ErrRateLimited) {
		t.Errorf("error = %v, want wrapped ErrRateLimited", err)
	}
	if session.State() != StateIdle {
		t.Errorf("state = %v, want StateIdle so the save can be retried whole", session.State())
	}
}

func TestAppend_CreatesFileWithDefaultHeading(t *testing.T) {
	t.Parallel()

	store := &fakeStore{exists: false}
	at := time.Date(2024, 3, 5, 12, 0, 0, 0, time.Local)

	content, err := Append(context.Background(), store, "log/2024/03/05.md", "had coffee", at)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	want := "# 2024-03-05\n- had coffee"
	if content != want {
		t.Errorf("content = %q, want %q", content, want)
	}
	if store.content != want {
		t.Errorf("remote content = %q, want %q", store.content, want)
	}
}

func TestAppend_UsesFetchedToken(t *testing.T) {
	t.Parallel()

	store := &fakeStore{content: "# 2024-03-05\n- earlier", sha: "sha-5", exists: true}

	content, err := Append(context.Background(), store, "log/2024/03/05.md", "later entry", time.Now())
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	want := "# 2024-03-05\n- earlier\n- later entry"
	if content != want {
		t.Errorf("content = %q, want %q", content, want)
	}
	if store.gets != 1 || store.puts != 1 {
		t.Errorf("gets=%d puts=%d, want one fetch and one write", store.gets, store.puts)
	}
}
