package domain

import "time"

// Outcome classifies a finished replication attempt.
type Outcome int

const (
	// OutcomePending means the attempt has not reached a terminal state yet.
	OutcomePending Outcome = iota

	// OutcomeSnapshotConfirmed means the completion marker was found in the
	// captured output: a snapshot was durably written to the remote store
	// and the local database file has been deleted.
	OutcomeSnapshotConfirmed

	// OutcomeTimedOutNoSnapshot means the deadline elapsed without the
	// completion marker appearing. The local database file is untouched.
	// This is a normal result for short replication windows, not an error.
	OutcomeTimedOutNoSnapshot

	// OutcomeExitedNoSnapshot means the replication process exited on its
	// own before the deadline (it is expected to run until killed) and the
	// captured output carried no completion marker.
	OutcomeExitedNoSnapshot
)

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "Pending"
	case OutcomeSnapshotConfirmed:
		return "SnapshotConfirmed"
	case OutcomeTimedOutNoSnapshot:
		return "TimedOutNoSnapshot"
	case OutcomeExitedNoSnapshot:
		return "ExitedNoSnapshot"
	default:
		return "Unknown"
	}
}

// Confirmed reports whether the outcome is the successful terminal state.
func (o Outcome) Confirmed() bool { return o == OutcomeSnapshotConfirmed }

// Terminal reports whether the outcome is a terminal state.
func (o Outcome) Terminal() bool { return o != OutcomePending }

// Attempt is one bounded replication attempt. It is created at the start of
// a replicate call, transitions exactly once to a terminal outcome, and goes
// out of scope when the call returns. Attempts are never shared across calls.
type Attempt struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Timeout    time.Duration
	Outcome    Outcome

	// ExitedEarly is set when the child terminated before the deadline.
	ExitedEarly bool

	// OutputBytes is the length of the captured diagnostic stream.
	OutputBytes int
}

// NewAttempt returns an Attempt in the pending state, stamped now.
func NewAttempt(timeout time.Duration) Attempt {
	return Attempt{StartedAt: time.Now(), Timeout: timeout, Outcome: OutcomePending}
}

// Finish records the terminal outcome. It is a no-op if the attempt already
// reached a terminal state; the first transition wins.
func (a *Attempt) Finish(o Outcome) {
	if a.Outcome.Terminal() {
		return
	}
	a.Outcome = o
	a.FinishedAt = time.Now()
}

// Status is the persisted record of the most recent attempt, written to the
// state directory after every attempt for crash observability.
type Status struct {
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Outcome     string    `json:"outcome"`
	ExitedEarly bool      `json:"exited_early"`
	OutputBytes int       `json:"output_bytes"`
	Attempts    uint64    `json:"attempts"`
}

// StatusOf converts a finished attempt into its persisted form.
// The attempt counter is carried from the previous status by the caller.
func StatusOf(a Attempt, attempts uint64) Status {
	return Status{
		StartedAt:   a.StartedAt,
		FinishedAt:  a.FinishedAt,
		Outcome:     a.Outcome.String(),
		ExitedEarly: a.ExitedEarly,
		OutputBytes: a.OutputBytes,
		Attempts:    attempts,
	}
}
