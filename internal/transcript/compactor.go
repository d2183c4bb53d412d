package transcript

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// ErrTranscriptChanged reports that the transcript grew or shrank between
// the read snapshot and the atomic replace. The original file is left
// untouched; the next cycle retries against the fresh contents.
var ErrTranscriptChanged = errors.New("transcript changed during compaction")

// Report summarizes one compaction run.
type Report struct {
	PairsRemoved   int `json:"pairs_removed"`
	RecordsRemoved int `json:"records_removed"`
	LinksRepaired  int `json:"links_repaired"`
	SkippedLines   int `json:"skipped_lines"`
	OriginalCount  int `json:"original_count"`
	FinalCount     int `json:"final_count"`
}

// Removed reports whether the run removed anything.
func (r Report) Removed() bool { return r.RecordsRemoved > 0 }

// Compactor removes fully-matched tool request/result pairs from a
// transcript and repairs the causal chain. The zero value is not usable;
// construct with NewCompactor.
type Compactor struct {
	retention int
	now       func() time.Time
}

// NewCompactor returns a Compactor with the default backup retention.
func NewCompactor() *Compactor {
	return &Compactor{retention: DefaultRetention, now: time.Now}
}

// SetRetention overrides the backup retention cap. Values below 1 are ignored.
func (c *Compactor) SetRetention(n int) {
	if n >= 1 {
		c.retention = n
	}
}

// Compact scans the transcript at path, removes every record that is half
// of a fully-matched (request, result) pair, rewrites surviving parentUuid
// links through removed ancestors, and atomically replaces the file after
// taking a timestamped backup.
//
// A missing transcript is a no-op with a zero report. Running Compact on an
// already-compacted transcript is a no-op: no matched pairs remain, so the
// file is not rewritten and no backup is taken.
func (c *Compactor) Compact(path string) (Report, error) {
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Report{}, nil
	}
	if err != nil {
		return Report{}, fmt.Errorf("stat transcript: %w", err)
	}
	sizeAtLoad := fi.Size()

	records, skipped, err := readRecords(path)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		SkippedLines:  skipped,
		OriginalCount: len(records),
		FinalCount:    len(records),
	}

	removed, pairs := selectRemovable(records)
	if len(removed) == 0 {
		return report, nil
	}
	report.PairsRemoved = pairs
	report.RecordsRemoved = len(removed)

	survivors, repaired := rebuild(records, removed)
	report.LinksRepaired = repaired
	report.FinalCount = len(survivors)

	if _, err := snapshot(path, c.retention, c.now()); err != nil {
		return Report{}, err
	}

	// Detect appends since the read snapshot; the host normally guarantees
	// a quiet transcript during the hook, but a silent drop of fresh
	// records would be worse than retrying next cycle.
	fi, err = os.Stat(path)
	if err != nil {
		return Report{}, fmt.Errorf("stat transcript: %w", err)
	}
	if fi.Size() != sizeAtLoad {
		return Report{}, ErrTranscriptChanged
	}

	if err := writeRecords(path, survivors); err != nil {
		return Report{}, err
	}
	return report, nil
}

// selectRemovable returns the uuids of every record that belongs to a
// matched pair, plus the matched pair count. A request is removable once
// any of its tool uses has a result present; a result is removable only
// together with its request. Records lacking a counterpart are never
// selected.
func selectRemovable(records []Record) (map[string]bool, int) {
	resultByID := make(map[string]int) // correlation id -> result record index
	for i := range records {
		if records[i].IsResult() && records[i].UUID != "" {
			resultByID[records[i].ToolResultID] = i
		}
	}

	removed := make(map[string]bool)
	pairs := 0
	for i := range records {
		req := &records[i]
		if !req.IsRequest() || req.UUID == "" {
			continue
		}
		for _, id := range req.ToolUseIDs {
			ri, ok := resultByID[id]
			if !ok {
				continue
			}
			removed[req.UUID] = true
			if !removed[records[ri].UUID] {
				removed[records[ri].UUID] = true
				pairs++
			}
		}
	}
	return removed, pairs
}

// rebuild returns the surviving records in original order with parentUuid
// links repaired, plus the count of repaired links. For each survivor whose
// parent was removed, the original chain is walked until a surviving
// ancestor (or the root) is found. If the walk hits a uuid missing from the
// transcript the last known parent is kept rather than inventing a root.
func rebuild(records []Record, removed map[string]bool) ([]Record, int) {
	byUUID := make(map[string]int, len(records))
	for i := range records {
		if records[i].UUID != "" {
			byUUID[records[i].UUID] = i
		}
	}

	survivors := make([]Record, 0, len(records)-len(removed))
	repaired := 0
	for i := range records {
		rec := records[i]
		if removed[rec.UUID] {
			continue
		}

		parent := rec.ParentUUID
		for parent != "" && removed[parent] {
			idx, ok := byUUID[parent]
			if !ok {
				break
			}
			parent = records[idx].ParentUUID
		}

		if parent != rec.ParentUUID {
			raw, err := rewriteParent(rec.Raw, parent)
			if err == nil {
				rec.ParentUUID = parent
				rec.Raw = raw
				repaired++
			}
		}
		survivors = append(survivors, rec)
	}
	return survivors, repaired
}
