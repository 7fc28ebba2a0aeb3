package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/hermes-agent/hermesctl/internal"
)

// JSONLExporter exports sessions in JSONL format (one message per line)
type JSONLExporter struct{}

// Export exports a session to JSONL format
func (e *JSONLExporter) Export(session *internal.SessionDetail, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, msg := range session.Messages {
		obj := map[string]interface{}{
			"role":    msg.Role,
			"content": msg.Content,
		}
		if !msg.CreatedAt.IsZero() {
			obj["created_at"] = msg.CreatedAt.Format(time.RFC3339)
		}
		if len(msg.ToolCalls) > 0 {
			obj["tool_calls"] = msg.ToolCalls
		}

		// Encode to single line
		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
