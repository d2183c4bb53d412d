package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fixture line builders. parent == "" encodes a null parentUuid.

func jsonParent(parent string) string {
	if parent == "" {
		return "null"
	}
	return fmt.Sprintf("%q", parent)
}

func textLine(id, parent, text string) string {
	return fmt.Sprintf(`{"uuid":%q,"parentUuid":%s,"type":"user","message":{"content":%q}}`,
		id, jsonParent(parent), text)
}

func toolUseLine(id, parent, toolID string) string {
	return fmt.Sprintf(`{"uuid":%q,"parentUuid":%s,"type":"assistant","message":{"content":[{"type":"tool_use","id":%q,"name":"Bash","input":{}}]}}`,
		id, jsonParent(parent), toolID)
}

func toolResultLine(id, parent, toolID string) string {
	return fmt.Sprintf(`{"uuid":%q,"parentUuid":%s,"type":"user","message":{"content":[{"type":"tool_result","tool_use_id":%q,"content":"ok"}]}}`,
		id, jsonParent(parent), toolID)
}

func writeTranscript(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func readBack(t *testing.T, path string) []Record {
	t.Helper()
	records, skipped, err := readRecords(path)
	require.NoError(t, err)
	require.Zero(t, skipped)
	return records
}

func TestCompactRemovesMatchedPairAndRepairsChain(t *testing.T) {
	// A(root) <- B(req corr=1) <- C(res corr=1) <- D(req corr=2, unmatched)
	path := writeTranscript(t,
		textLine("A", "", "hello"),
		toolUseLine("B", "A", "corr-1"),
		toolResultLine("C", "B", "corr-1"),
		toolUseLine("D", "C", "corr-2"),
	)

	report, err := NewCompactor().Compact(path)
	require.NoError(t, err)

	assert.Equal(t, 1, report.PairsRemoved)
	assert.Equal(t, 2, report.RecordsRemoved)
	assert.Equal(t, 1, report.LinksRepaired)
	assert.Equal(t, 4, report.OriginalCount)
	assert.Equal(t, 2, report.FinalCount)

	records := readBack(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, "A", records[0].UUID)
	assert.Equal(t, "D", records[1].UUID)
	// D's parent walked through removed C and B to surviving A.
	assert.Equal(t, "A", records[1].ParentUUID)
}

func TestCompactIsIdempotent(t *testing.T) {
	path := writeTranscript(t,
		textLine("A", "", "hello"),
		toolUseLine("B", "A", "corr-1"),
		toolResultLine("C", "B", "corr-1"),
	)

	comp := NewCompactor()
	first, err := comp.Compact(path)
	require.NoError(t, err)
	require.True(t, first.Removed())

	after, err := os.ReadFile(path)
	require.NoError(t, err)

	second, err := comp.Compact(path)
	require.NoError(t, err)
	assert.Zero(t, second.PairsRemoved)
	assert.Zero(t, second.RecordsRemoved)
	assert.Zero(t, second.LinksRepaired)

	unchanged, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, after, unchanged, "second run must not rewrite the transcript")
}

func TestCompactNeverRemovesOrphans(t *testing.T) {
	// Request without result and result without request both survive.
	path := writeTranscript(t,
		textLine("A", "", "hello"),
		toolUseLine("B", "A", "corr-1"),
		toolResultLine("C", "B", "corr-other"),
	)

	report, err := NewCompactor().Compact(path)
	require.NoError(t, err)
	assert.Zero(t, report.RecordsRemoved)

	records := readBack(t, path)
	assert.Len(t, records, 3)
}

func TestCompactRemovalIsTwicePairCount(t *testing.T) {
	path := writeTranscript(t,
		textLine("A", "", "hello"),
		toolUseLine("B", "A", "corr-1"),
		toolResultLine("C", "B", "corr-1"),
		toolUseLine("D", "C", "corr-2"),
		toolResultLine("E", "D", "corr-2"),
		textLine("F", "E", "done"),
	)

	report, err := NewCompactor().Compact(path)
	require.NoError(t, err)
	assert.Equal(t, 2, report.PairsRemoved)
	assert.Equal(t, report.PairsRemoved*2, report.RecordsRemoved)

	records := readBack(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, "A", records[1].ParentUUID, "F must chain back to A")
}

func TestCompactChainNeverDanglesIntoRemoved(t *testing.T) {
	path := writeTranscript(t,
		textLine("A", "", "hello"),
		toolUseLine("B", "A", "corr-1"),
		toolResultLine("C", "B", "corr-1"),
		toolUseLine("D", "C", "corr-2"),
		toolResultLine("E", "D", "corr-2"),
		textLine("F", "E", "done"),
	)

	report, err := NewCompactor().Compact(path)
	require.NoError(t, err)

	records := readBack(t, path)
	surviving := make(map[string]bool)
	for _, rec := range records {
		surviving[rec.UUID] = true
	}
	for _, rec := range records {
		if rec.ParentUUID != "" {
			assert.True(t, surviving[rec.ParentUUID],
				"record %s points at non-surviving parent %s", rec.UUID, rec.ParentUUID)
		}
	}
	assert.Equal(t, 1, report.LinksRepaired)
}

func TestCompactRemovedPairWithRootRequestRepairsToNull(t *testing.T) {
	// The removed request is itself the root; its child is repaired to null.
	path := writeTranscript(t,
		toolUseLine("A", "", "corr-1"),
		toolResultLine("B", "A", "corr-1"),
		textLine("C", "B", "done"),
	)

	report, err := NewCompactor().Compact(path)
	require.NoError(t, err)
	assert.Equal(t, 1, report.LinksRepaired)

	records := readBack(t, path)
	require.Len(t, records, 1)
	assert.Equal(t, "C", records[0].UUID)
	assert.Empty(t, records[0].ParentUUID)

	// The repaired line carries an explicit null, not a dropped key.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var obj map[string]any
	require.NoError(t, json.Unmarshal(raw[:len(raw)-1], &obj))
	v, ok := obj["parentUuid"]
	require.True(t, ok)
	assert.Nil(t, v)
}

func TestCompactSkipsMalformedLines(t *testing.T) {
	path := writeTranscript(t,
		textLine("A", "", "hello"),
		`{this is not json`,
		toolUseLine("B", "A", "corr-1"),
		toolResultLine("C", "B", "corr-1"),
	)

	report, err := NewCompactor().Compact(path)
	require.NoError(t, err)
	assert.Equal(t, 1, report.SkippedLines)
	assert.Equal(t, 1, report.PairsRemoved)

	records := readBack(t, path)
	require.Len(t, records, 1)
	assert.Equal(t, "A", records[0].UUID)
}

func TestCompactAbortsWhenTranscriptGrowsMidRun(t *testing.T) {
	path := writeTranscript(t,
		textLine("A", "", "hello"),
		toolUseLine("B", "A", "corr-1"),
		toolResultLine("C", "B", "corr-1"),
	)
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	// The host appends a record between the read snapshot and the replace.
	// The clock seam fires after the load, so the append lands mid-run.
	late := textLine("D", "C", "late append") + "\n"
	comp := NewCompactor()
	comp.now = func() time.Time {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
		require.NoError(t, err)
		_, err = f.WriteString(late)
		require.NoError(t, err)
		require.NoError(t, f.Close())
		return time.Now()
	}

	_, err = comp.Compact(path)
	assert.ErrorIs(t, err, ErrTranscriptChanged)

	// The transcript, including the late append, is untouched.
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(original)+late, string(got))
}

func TestCompactMissingTranscriptIsNoOp(t *testing.T) {
	report, err := NewCompactor().Compact(filepath.Join(t.TempDir(), "absent.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, Report{}, report)
}

func TestCompactCreatesBackupBeforeRewrite(t *testing.T) {
	path := writeTranscript(t,
		textLine("A", "", "hello"),
		toolUseLine("B", "A", "corr-1"),
		toolResultLine("C", "B", "corr-1"),
	)
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = NewCompactor().Compact(path)
	require.NoError(t, err)

	backups, err := filepath.Glob(path + ".bak.*")
	require.NoError(t, err)
	require.Len(t, backups, 1)

	saved, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Equal(t, original, saved, "backup must hold the pre-compaction transcript")
}

func TestCompactNoBackupWhenNothingRemoved(t *testing.T) {
	path := writeTranscript(t, textLine("A", "", "hello"))

	_, err := NewCompactor().Compact(path)
	require.NoError(t, err)

	backups, err := filepath.Glob(path + ".bak.*")
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestCompactPreservesUnrelatedRecordsVerbatim(t *testing.T) {
	// A surviving record whose parent was untouched keeps its exact bytes,
	// including fields the compactor does not model.
	custom := `{"uuid":"A","parentUuid":null,"type":"user","message":{"content":"hi"},"extra":{"nested":[1,2,3]}}`
	path := writeTranscript(t,
		custom,
		toolUseLine("B", "A", "corr-1"),
		toolResultLine("C", "B", "corr-1"),
	)

	_, err := NewCompactor().Compact(path)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, custom+"\n", string(raw))
}
