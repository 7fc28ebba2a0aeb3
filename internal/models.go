package internal

import "time"

// Message roles as reported by the backend.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Session is a persisted conversation thread. The backend owns the title,
// counts and timestamps; the client only caches them.
type Session struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// SessionDetail is a session together with its full message history.
type SessionDetail struct {
	Session
	Messages []Message `json:"messages"`
}

// Message is an immutable chat entry. IDs of locally originated messages are
// provisional (assigned from the wall clock) and are never compared against
// server-assigned ids.
type Message struct {
	ID        int64      `json:"id"`
	SessionID string     `json:"session_id"`
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ToolCall records one tool invocation attached to a message.
type ToolCall struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Result    string `json:"result,omitempty"`
}

// LocalMessageID returns a provisional id for a locally originated message.
func LocalMessageID() int64 {
	return time.Now().UnixMilli()
}

// AgentConfig is the backend's LLM and logging configuration.
type AgentConfig struct {
	Provider       string             `json:"provider"`
	Model          string             `json:"model"`
	BaseURL        string             `json:"base_url,omitempty"`
	APIKeys        map[string]*string `json:"api_keys"`
	LogLevel       string             `json:"log_level"`
	GatewayEnabled map[string]bool    `json:"gateway_enabled,omitempty"`
}

// AgentConfigUpdate carries a partial config update; nil fields are left
// untouched by the backend.
type AgentConfigUpdate struct {
	Provider *string           `json:"provider,omitempty"`
	Model    *string           `json:"model,omitempty"`
	BaseURL  *string           `json:"base_url,omitempty"`
	APIKeys  map[string]string `json:"api_keys,omitempty"`
	LogLevel *string           `json:"log_level,omitempty"`
}

// ProviderInfo describes one selectable LLM provider.
type ProviderInfo struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	RequiresAPIKey    bool   `json:"requires_api_key"`
	SupportsStreaming bool   `json:"supports_streaming"`
}

// LogEntry is one backend log record.
type LogEntry struct {
	ID        int64     `json:"id"`
	Level     string    `json:"level"`
	Logger    string    `json:"logger"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// LogsPage is a page of backend logs.
type LogsPage struct {
	Logs  []LogEntry `json:"logs"`
	Total int        `json:"total"`
}

// Skill is one entry in the agent's skill registry.
type Skill struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Content     string    `json:"content,omitempty"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MemoryFile is a named persistent text file held by the agent.
type MemoryFile struct {
	Name        string  `json:"name"`
	Filename    string  `json:"filename"`
	Description string  `json:"description"`
	Content     string  `json:"content"`
	UpdatedAt   float64 `json:"updated_at,omitempty"`
}

// ToolInfo describes one tool in the agent's static catalog.
type ToolInfo struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// GatewayPlatform is the status of one messaging platform bridge.
type GatewayPlatform struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Icon       string `json:"icon"`
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
}

// CronJob is one scheduled job on the backend.
type CronJob struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Schedule string `json:"schedule"`
	Command  string `json:"command"`
	Enabled  bool   `json:"enabled"`
	LastRun  string `json:"last_run,omitempty"`
	NextRun  string `json:"next_run,omitempty"`
}

// Health is the backend health report.
type Health struct {
	Status            string `json:"status"`
	AgentInitialized  bool   `json:"agent_initialized"`
	DatabaseConnected bool   `json:"database_connected"`
	Version           string `json:"version"`
}
