package countdown

import (
	"fmt"

	"github.com/mesh-intelligence/broom/internal/transcript"
)

// DefaultMax is the armed countdown value: three warning turns followed by
// one action turn.
const DefaultMax = 4

// Countdown values with a fixed meaning regardless of the armed maximum.
// Larger maximums only add warning turns in front.
const (
	compactAt = 2
	restartAt = 1
)

// Decision actions.
const (
	ActionIdle    = "idle"
	ActionWarn    = "warn"
	ActionCompact = "compact"
	ActionRestart = "restart"
)

// Decision describes what the scheduler did for one turn.
type Decision struct {
	Action    string
	Countdown int    // countdown value after this turn
	Message   string // operator banner; empty when idle
	Blocking  bool   // host must surface Message before proceeding

	// Report is set when this turn ran a compaction, even an empty one.
	Report *transcript.Report
}

// Compactor compacts a transcript. Satisfied by *transcript.Compactor.
type Compactor interface {
	Compact(path string) (transcript.Report, error)
}

// Restarter requests an out-of-band restart of the host session. The
// request is fire-and-forget; the scheduler neither awaits nor verifies it.
type Restarter interface {
	RequestRestart(sessionID string)
}

// Scheduler drives the countdown. Each invocation is a pure function of
// (loaded state, input): the state is read from disk, advanced once, and
// written back. No state survives in memory between turns.
type Scheduler struct {
	store     *Store
	compactor Compactor
	restarter Restarter
	max       int
}

// NewScheduler wires a scheduler from its collaborators. max values below
// DefaultMax fall back to the default so the compact and restart turns
// always exist.
func NewScheduler(store *Store, c Compactor, r Restarter, max int) *Scheduler {
	if max < DefaultMax {
		max = DefaultMax
	}
	return &Scheduler{store: store, compactor: c, restarter: r, max: max}
}

// Arm unconditionally resets the countdown to its maximum and records the
// session, regardless of any cycle already in flight (activity restarts the
// countdown, it never adds to it).
func (s *Scheduler) Arm(sessionID, toolName string) error {
	st := s.store.Load()
	st.Countdown = s.max
	st.SessionID = sessionID
	st.LastTrigger = toolName
	return s.store.Save(st)
}

// TurnEnd advances the countdown by one turn and returns the decision. When
// the countdown is idle (state file absent, corrupt, or at zero) this is a
// no-op. Persisting the advanced state can fail independently of the
// decision; the decision is returned either way so the host still sees the
// banner.
func (s *Scheduler) TurnEnd(sessionID, transcriptPath string) (Decision, error) {
	st := s.store.Load()
	if st.Idle() {
		return Decision{Action: ActionIdle}, nil
	}

	var d Decision
	switch {
	case st.Countdown == restartAt:
		d = s.restart(st.SessionID)
	case st.Countdown == compactAt:
		d = s.compact(transcriptPath)
	default:
		d = Decision{
			Action:    ActionWarn,
			Countdown: st.Countdown - 1,
			Blocking:  true,
			Message: fmt.Sprintf("broom: %d turn(s) remaining: transcript compaction at %d, session restart at %d.",
				st.Countdown-1, compactAt, restartAt),
		}
	}

	st.Countdown = d.Countdown
	if err := s.store.Save(st); err != nil {
		return d, fmt.Errorf("persisting countdown: %w", err)
	}
	return d, nil
}

// compact runs the compactor exactly once per cycle, at the compact turn.
func (s *Scheduler) compact(transcriptPath string) Decision {
	d := Decision{
		Action:    ActionCompact,
		Countdown: compactAt - 1,
		Blocking:  true,
	}

	report, err := s.compactor.Compact(transcriptPath)
	if err != nil {
		d.Message = fmt.Sprintf("broom: transcript compaction failed (%v); original transcript untouched. %d turn remaining before session restart.",
			err, d.Countdown)
		return d
	}

	d.Report = &report
	if report.Removed() {
		d.Message = fmt.Sprintf("broom: compacted transcript: %d tool pair(s), %d record(s) removed, %d link(s) repaired (%d -> %d records). %d turn remaining before session restart.",
			report.PairsRemoved, report.RecordsRemoved, report.LinksRepaired,
			report.OriginalCount, report.FinalCount, d.Countdown)
	} else {
		d.Message = fmt.Sprintf("broom: no removable tool pairs found. %d turn remaining before session restart.", d.Countdown)
	}
	return d
}

// restart signals the external actuator and parks the countdown at zero.
func (s *Scheduler) restart(sessionID string) Decision {
	s.restarter.RequestRestart(sessionID)
	return Decision{
		Action:    ActionRestart,
		Countdown: 0,
		Blocking:  true,
		Message:   "broom: countdown complete: session restart requested. Countdown is now idle.",
	}
}
