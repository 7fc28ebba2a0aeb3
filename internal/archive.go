package internal

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"
)

// Archive is a local SQLite snapshot of sessions and messages, for offline
// inspection after `hermesctl sessions archive`. It is an explicit export,
// not a cache: the live console always re-fetches from the backend.
type Archive struct {
	db   *sql.DB
	path string
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	message_count INTEGER NOT NULL,
	archived_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	session_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	tool_calls TEXT,
	created_at TEXT NOT NULL,
	PRIMARY KEY (session_id, seq)
);
`

// OpenArchive opens (creating if necessary) an archive database.
func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &ArchiveError{Path: path, Op: "open", Err: err}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &ArchiveError{Path: path, Op: "open", Err: err}
	}
	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, &ArchiveError{Path: path, Op: "open", Err: err}
	}
	return &Archive{db: db, path: path}, nil
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// SaveSession writes one session and its messages, replacing any prior
// snapshot of the same session.
func (a *Archive) SaveSession(detail *SessionDetail) error {
	tx, err := a.db.Begin()
	if err != nil {
		return &ArchiveError{Path: a.path, Op: "write", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages WHERE session_id = ?`, detail.ID); err != nil {
		return &ArchiveError{Path: a.path, Op: "write", Err: err}
	}
	_, err = tx.Exec(
		`INSERT OR REPLACE INTO sessions (id, title, created_at, updated_at, message_count, archived_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		detail.ID, detail.Title,
		detail.CreatedAt.Format(time.RFC3339), detail.UpdatedAt.Format(time.RFC3339),
		len(detail.Messages), time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return &ArchiveError{Path: a.path, Op: "write", Err: err}
	}

	for i, m := range detail.Messages {
		var toolCalls sql.NullString
		if len(m.ToolCalls) > 0 {
			data, err := json.Marshal(m.ToolCalls)
			if err != nil {
				return &ArchiveError{Path: a.path, Op: "write", Err: err}
			}
			toolCalls = sql.NullString{String: string(data), Valid: true}
		}
		_, err := tx.Exec(
			`INSERT INTO messages (session_id, seq, role, content, tool_calls, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			detail.ID, i, m.Role, m.Content, toolCalls, m.CreatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return &ArchiveError{Path: a.path, Op: "write", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &ArchiveError{Path: a.path, Op: "write", Err: err}
	}
	return nil
}

// ListSessions returns all archived sessions, most recently updated first.
func (a *Archive) ListSessions() ([]Session, error) {
	rows, err := a.db.Query(
		`SELECT id, title, created_at, updated_at, message_count
		 FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, &ArchiveError{Path: a.path, Op: "read", Err: err}
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		var created, updated string
		if err := rows.Scan(&s.ID, &s.Title, &created, &updated, &s.MessageCount); err != nil {
			return nil, &ArchiveError{Path: a.path, Op: "read", Err: err}
		}
		s.CreatedAt, _ = time.Parse(time.RFC3339, created)
		s.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &ArchiveError{Path: a.path, Op: "read", Err: err}
	}
	return sessions, nil
}

// GetSession returns one archived session with its messages, or nil when the
// session was never archived.
func (a *Archive) GetSession(id string) (*SessionDetail, error) {
	var detail SessionDetail
	var created, updated string
	err := a.db.QueryRow(
		`SELECT id, title, created_at, updated_at, message_count FROM sessions WHERE id = ?`, id).
		Scan(&detail.ID, &detail.Title, &created, &updated, &detail.MessageCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &ArchiveError{Path: a.path, Op: "read", Err: err}
	}
	detail.CreatedAt, _ = time.Parse(time.RFC3339, created)
	detail.UpdatedAt, _ = time.Parse(time.RFC3339, updated)

	rows, err := a.db.Query(
		`SELECT role, content, tool_calls, created_at FROM messages
		 WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, &ArchiveError{Path: a.path, Op: "read", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var m Message
		var toolCalls sql.NullString
		var createdAt string
		if err := rows.Scan(&m.Role, &m.Content, &toolCalls, &createdAt); err != nil {
			return nil, &ArchiveError{Path: a.path, Op: "read", Err: err}
		}
		m.SessionID = id
		m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if toolCalls.Valid {
			if err := json.Unmarshal([]byte(toolCalls.String), &m.ToolCalls); err != nil {
				LogWarn("skipping malformed tool_calls for session %s: %v", id, err)
			}
		}
		detail.Messages = append(detail.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &ArchiveError{Path: a.path, Op: "read", Err: err}
	}
	return &detail, nil
}
