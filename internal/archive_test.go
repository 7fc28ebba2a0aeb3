package internal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/hermes-agent/hermesctl/testutil"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	dir := testutil.CreateTempDir(t)
	archive, err := OpenArchive(filepath.Join(dir, "archive.db"))
	if err != nil {
		t.Fatalf("OpenArchive() error = %v", err)
	}
	t.Cleanup(func() { _ = archive.Close() })
	return archive
}

func sampleDetail() *SessionDetail {
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return &SessionDetail{
		Session: Session{
			ID:        "s1",
			Title:     "Trip planning",
			CreatedAt: created,
			UpdatedAt: created.Add(time.Hour),
		},
		Messages: []Message{
			{ID: 1, SessionID: "s1", Role: RoleUser, Content: "find flights", CreatedAt: created},
			{
				ID: 2, SessionID: "s1", Role: RoleAssistant,
				Content:   "Here are the options",
				ToolCalls: []ToolCall{{ID: "tc1", Name: "web_search", Arguments: `{"q":"flights"}`, Result: "3 results"}},
				CreatedAt: created.Add(time.Minute),
			},
		},
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	archive := openTestArchive(t)
	in := sampleDetail()

	if err := archive.SaveSession(in); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	out, err := archive.GetSession("s1")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if out == nil {
		t.Fatal("GetSession() = nil for archived session")
	}
	if out.Title != in.Title {
		t.Errorf("Title = %q, want %q", out.Title, in.Title)
	}
	if len(out.Messages) != 2 {
		t.Fatalf("Messages len = %d, want 2", len(out.Messages))
	}
	if out.Messages[0].Content != "find flights" || out.Messages[0].Role != RoleUser {
		t.Errorf("Messages[0] = %+v", out.Messages[0])
	}
	calls := out.Messages[1].ToolCalls
	if len(calls) != 1 || calls[0].Name != "web_search" || calls[0].Result != "3 results" {
		t.Errorf("ToolCalls = %+v", calls)
	}
	if !out.CreatedAt.Equal(in.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", out.CreatedAt, in.CreatedAt)
	}
}

func TestArchiveReplaceSnapshot(t *testing.T) {
	archive := openTestArchive(t)
	in := sampleDetail()

	if err := archive.SaveSession(in); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	// Re-archive with a shorter history; the old messages must not linger.
	in.Messages = in.Messages[:1]
	in.Title = "Trip planning (trimmed)"
	if err := archive.SaveSession(in); err != nil {
		t.Fatalf("second SaveSession() error = %v", err)
	}

	out, err := archive.GetSession("s1")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if len(out.Messages) != 1 {
		t.Errorf("Messages len = %d after re-archive, want 1", len(out.Messages))
	}
	if out.Title != "Trip planning (trimmed)" {
		t.Errorf("Title = %q", out.Title)
	}
}

func TestArchiveGetMissingSession(t *testing.T) {
	archive := openTestArchive(t)

	out, err := archive.GetSession("never-archived")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if out != nil {
		t.Errorf("GetSession() = %+v for missing session, want nil", out)
	}
}

func TestArchiveListSessions(t *testing.T) {
	archive := openTestArchive(t)

	first := sampleDetail()
	second := sampleDetail()
	second.ID = "s2"
	second.Title = "Second"
	second.UpdatedAt = first.UpdatedAt.Add(time.Hour)
	second.Messages = nil

	if err := archive.SaveSession(first); err != nil {
		t.Fatalf("SaveSession(first) error = %v", err)
	}
	if err := archive.SaveSession(second); err != nil {
		t.Fatalf("SaveSession(second) error = %v", err)
	}

	sessions, err := archive.ListSessions()
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	// Most recently updated first.
	if sessions[0].ID != "s2" || sessions[1].ID != "s1" {
		t.Errorf("order = [%s %s], want [s2 s1]", sessions[0].ID, sessions[1].ID)
	}
	if sessions[1].MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2", sessions[1].MessageCount)
	}
}
