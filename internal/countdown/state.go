// Package countdown implements the persisted turn scheduler: a countdown
// reloaded from disk on every invocation that decides, per turn, whether to
// stay idle, warn, compact the session transcript, or request a session
// restart.
package countdown

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// StateFileName is the countdown state file inside the state directory.
const StateFileName = "countdown.json"

// State is the persisted countdown record. The zero value is the idle
// state: nothing armed, no session recorded.
type State struct {
	Countdown   int    `json:"countdown"`
	SessionID   string `json:"session_id"`
	LastTrigger string `json:"last_trigger,omitempty"`
}

// Idle reports whether the countdown is at rest.
func (s State) Idle() bool { return s.Countdown <= 0 }

// Store loads and saves countdown state under a state directory. Every
// invocation is short-lived, so the store holds no cached state; each Load
// reads the file fresh.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at stateDir. The directory is created
// lazily on first Save.
func NewStore(stateDir string) *Store {
	return &Store{dir: stateDir}
}

// Path returns the state file location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, StateFileName)
}

// Load reads the persisted state. A missing or corrupt state file is the
// idle default, never an error: the scheduler must come up cleanly on a
// fresh project and after a torn write.
func (s *Store) Load() State {
	raw, err := os.ReadFile(s.Path())
	if err != nil {
		return State{}
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return State{}
	}
	if st.Countdown < 0 {
		st.Countdown = 0
	}
	return st
}

// Save persists the state atomically (temp file, rename) so a crash leaves
// either the old or the new state, never a torn file. The state directory
// is created if absent.
func (s *Store) Save(st State) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	raw = append(raw, '\n')

	tmp, err := os.CreateTemp(s.dir, ".countdown-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing state: %w", err)
	}
	if err := os.Rename(tmpName, s.Path()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming state: %w", err)
	}
	return nil
}
