// Package hook decodes the structured payload the host delivers on stdin
// for each hook invocation.
package hook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Input is the payload delivered once per hook invocation. Fields not
// listed here are ignored; the host is free to extend the payload.
type Input struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	ToolName       string `json:"tool_name"`
	HookEventName  string `json:"hook_event_name"`
	CWD            string `json:"cwd"`
}

// Decode errors.
var (
	ErrEmptyPayload     = errors.New("empty hook payload")
	ErrMissingSessionID = errors.New("hook payload missing session_id")
)

// Decode reads a single JSON hook payload from r. A payload that is not
// valid JSON or carries no session_id is rejected; the host expects a
// definite failure signal for malformed input rather than a silent guess.
func Decode(r io.Reader) (Input, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Input{}, fmt.Errorf("reading hook payload: %w", err)
	}
	if len(raw) == 0 {
		return Input{}, ErrEmptyPayload
	}

	var in Input
	if err := json.Unmarshal(raw, &in); err != nil {
		return Input{}, fmt.Errorf("decoding hook payload: %w", err)
	}
	if in.SessionID == "" {
		return Input{}, ErrMissingSessionID
	}
	return in, nil
}
