// Package transcript implements compaction of JSONL conversation
// transcripts: matched (tool request, tool result) record pairs are removed
// and the parentUuid causal chain is repaired so it never dangles into a
// removed record.
package transcript

import "encoding/json"

// Record is one causal entry in a transcript. The raw line is preserved
// byte-for-byte; it is only re-marshaled when the parent link needs repair.
type Record struct {
	UUID       string
	ParentUUID string // empty for roots (parentUuid null or absent)

	// ToolUseIDs are the correlation ids this record requests (tool_use
	// content blocks). A single record may carry several.
	ToolUseIDs []string

	// ToolResultID is the correlation id this record answers (tool_result
	// content block), or empty.
	ToolResultID string

	Raw json.RawMessage
}

// IsRequest reports whether the record requests at least one tool use.
func (r *Record) IsRequest() bool { return len(r.ToolUseIDs) > 0 }

// IsResult reports whether the record answers a tool use.
func (r *Record) IsResult() bool { return r.ToolResultID != "" }

// envelope is the subset of a transcript line the compactor inspects.
type envelope struct {
	UUID       string `json:"uuid"`
	ParentUUID string `json:"parentUuid"`
	Message    struct {
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

// contentBlock is one element of a message content array.
type contentBlock struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	ToolUseID string `json:"tool_use_id"`
}

// parseRecord extracts the fields relevant to compaction from one raw
// transcript line. The line is assumed to be valid JSON. Content that is
// not an array of blocks (plain-string content, absent message) yields a
// record that is neither request nor result.
func parseRecord(line json.RawMessage) Record {
	var env envelope
	// Valid JSON that does not match the envelope shape still produces a
	// usable record; unknown shapes are carried through untouched.
	_ = json.Unmarshal(line, &env)

	rec := Record{
		UUID:       env.UUID,
		ParentUUID: env.ParentUUID,
		Raw:        line,
	}

	var blocks []contentBlock
	if len(env.Message.Content) > 0 && env.Message.Content[0] == '[' {
		if err := json.Unmarshal(env.Message.Content, &blocks); err == nil {
			for _, b := range blocks {
				switch b.Type {
				case "tool_use":
					if b.ID != "" {
						rec.ToolUseIDs = append(rec.ToolUseIDs, b.ID)
					}
				case "tool_result":
					if b.ToolUseID != "" {
						rec.ToolResultID = b.ToolUseID
					}
				}
			}
		}
	}
	return rec
}

// rewriteParent returns the record's raw line with parentUuid replaced.
// An empty parent is written as JSON null, matching the root convention.
func rewriteParent(raw json.RawMessage, parent string) (json.RawMessage, error) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	if parent == "" {
		obj["parentUuid"] = nil
	} else {
		obj["parentUuid"] = parent
	}
	return json.Marshal(obj)
}
