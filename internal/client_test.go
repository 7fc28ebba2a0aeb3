package internal

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/hermes-agent/hermesctl/testutil"
)

func TestClientListSessions(t *testing.T) {
	backend := testutil.NewMockBackend(t)
	backend.Handle("/api/sessions", http.StatusOK, `{
		"sessions": [
			{"id": "s1", "title": "First", "message_count": 4},
			{"id": "s2", "title": "Second", "message_count": 0}
		]
	}`)

	client := NewClient(backend.URL(), "tok", 0)
	sessions, err := client.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].ID != "s1" || sessions[0].MessageCount != 4 {
		t.Errorf("sessions[0] = %+v", sessions[0])
	}
}

func TestClientDefaultConfigTimeoutUsable(t *testing.T) {
	backend := testutil.NewMockBackend(t)
	backend.Handle("/api/sessions", http.StatusOK, `{"sessions":[]}`)

	dir := testutil.CreateTempDir(t)
	t.Setenv(envServerURL, "")
	cfg, err := LoadClientConfig(dir, backend.URL())
	if err != nil {
		t.Fatalf("LoadClientConfig() error = %v", err)
	}

	// A context built from an unset timeout must leave room for the
	// request rather than expiring immediately.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
	defer cancel()

	client := NewClient(cfg.ServerURL, "tok", cfg.RequestTimeout())
	if _, err := client.ListSessions(ctx); err != nil {
		t.Fatalf("ListSessions() with default timeout error = %v", err)
	}
}

func TestClientSendsBearerToken(t *testing.T) {
	backend := testutil.NewMockBackend(t)
	var gotAuth string
	backend.HandleFunc("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sessions":[]}`))
	})

	client := NewClient(backend.URL(), "secret-token", 0)
	if _, err := client.ListSessions(context.Background()); err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestClientUnauthorizedBecomesAuthError(t *testing.T) {
	backend := testutil.NewMockBackend(t)
	backend.Handle("/api/sessions", http.StatusUnauthorized, `{"detail":"invalid token"}`)

	client := NewClient(backend.URL(), "stale", 0)
	_, err := client.ListSessions(context.Background())
	if err == nil {
		t.Fatal("ListSessions() succeeded, want error")
	}
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Errorf("error = %T (%v), want *AuthError", err, err)
	}
}

func TestClientTimeoutBecomesTimeoutError(t *testing.T) {
	backend := testutil.NewMockBackend(t)
	backend.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})

	client := NewClient(backend.URL(), "", 20*time.Millisecond)
	_, err := client.GetHealth(context.Background())
	if err == nil {
		t.Fatal("GetHealth() succeeded, want timeout")
	}
	var terr *TimeoutError
	if !errors.As(err, &terr) {
		t.Errorf("error = %T (%v), want *TimeoutError", err, err)
	}
}

func TestClientErrorBodyDetail(t *testing.T) {
	backend := testutil.NewMockBackend(t)
	backend.Handle("/api/sessions/missing", http.StatusNotFound, `{"detail":"session not found"}`)

	client := NewClient(backend.URL(), "tok", 0)
	_, err := client.GetSession(context.Background(), "missing")
	if err == nil {
		t.Fatal("GetSession() succeeded, want error")
	}
	var rerr *RequestError
	if !errors.As(err, &rerr) {
		t.Fatalf("error = %T, want *RequestError", err)
	}
	if rerr.Status != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", rerr.Status)
	}
	if rerr.Detail != "session not found" {
		t.Errorf("Detail = %q", rerr.Detail)
	}
}

func TestClientLogin(t *testing.T) {
	backend := testutil.NewMockBackend(t)
	backend.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var body struct {
			Password string `json:"password"`
		}
		testutil.JSONUnmarshal(t, readBody(t, r), &body)
		if body.Password != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"fresh-token"}`))
	})

	client := NewClient(backend.URL(), "", 0)
	token, err := client.Login(context.Background(), "hunter2")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token != "fresh-token" {
		t.Errorf("token = %q", token)
	}

	_, err = client.Login(context.Background(), "wrong")
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Errorf("wrong password error = %T, want *AuthError", err)
	}
}

func TestClientGetLogsQuery(t *testing.T) {
	backend := testutil.NewMockBackend(t)
	var gotQuery string
	backend.HandleFunc("/api/logs", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"logs":[{"id":1,"level":"ERROR","logger":"agent","message":"boom"}],"total":37}`))
	})

	client := NewClient(backend.URL(), "tok", 0)
	page, err := client.GetLogs(context.Background(), "ERROR", 50, 100)
	if err != nil {
		t.Fatalf("GetLogs() error = %v", err)
	}
	if page.Total != 37 || len(page.Logs) != 1 {
		t.Errorf("page = %+v", page)
	}
	for _, want := range []string{"level=ERROR", "limit=50", "offset=100"} {
		if !containsParam(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
}

func TestClientBareArrayEndpoints(t *testing.T) {
	backend := testutil.NewMockBackend(t)
	backend.Handle("/api/memory", http.StatusOK, `[{"name":"User profile","filename":"user.md","content":"..."}]`)
	backend.Handle("/api/tools", http.StatusOK, `[{"name":"web_search","category":"Research","description":"Search the web"}]`)
	backend.Handle("/api/cron/jobs", http.StatusOK, `[{"id":"c1","name":"digest","schedule":"0 9 * * 1","enabled":true}]`)

	client := NewClient(backend.URL(), "tok", 0)

	memory, err := client.ListMemory(context.Background())
	if err != nil || len(memory) != 1 || memory[0].Filename != "user.md" {
		t.Errorf("ListMemory() = %+v, %v", memory, err)
	}
	tools, err := client.ListTools(context.Background())
	if err != nil || len(tools) != 1 || tools[0].Category != "Research" {
		t.Errorf("ListTools() = %+v, %v", tools, err)
	}
	jobs, err := client.ListCronJobs(context.Background())
	if err != nil || len(jobs) != 1 || jobs[0].Schedule != "0 9 * * 1" {
		t.Errorf("ListCronJobs() = %+v, %v", jobs, err)
	}
}

func readBody(t *testing.T, r *http.Request) []byte {
	t.Helper()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("reading request body: %v", err)
	}
	return data
}

func containsParam(query, param string) bool {
	for len(query) > 0 {
		i := 0
		for i < len(query) && query[i] != '&' {
			i++
		}
		if query[:i] == param {
			return true
		}
		if i == len(query) {
			break
		}
		query = query[i+1:]
	}
	return false
}
