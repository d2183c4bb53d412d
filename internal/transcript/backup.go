// Timestamped transcript snapshots with bounded retention.
package transcript

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// DefaultRetention is the number of backup snapshots kept per transcript.
const DefaultRetention = 5

// backupTimeFormat sorts lexicographically by creation time.
const backupTimeFormat = "20060102-150405"

// snapshot copies the transcript to <path>.bak.<timestamp> and prunes the
// oldest backups beyond the retention cap. Prune failures are ignored; a
// leftover backup is harmless.
func snapshot(path string, retention int, now time.Time) (string, error) {
	backupPath := fmt.Sprintf("%s.bak.%s", path, now.Format(backupTimeFormat))
	if err := copyFile(path, backupPath); err != nil {
		return "", fmt.Errorf("creating backup: %w", err)
	}

	backups, err := filepath.Glob(path + ".bak.*")
	if err != nil {
		return backupPath, nil
	}
	sort.Strings(backups)
	for len(backups) > retention {
		os.Remove(backups[0])
		backups = backups[1:]
	}
	return backupPath, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
