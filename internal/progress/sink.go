// Package progress defines the ProgressSink collaborator RetileEngine
// reports into and drives cancellation through, plus a console
// implementation adapted from the teacher's worker-pool progress bar.
package progress

// Sink is the observer RetileEngine reports progress to and polls for
// cancellation. SetMax is called once at the end of Phase 1; AddProgress
// is called after every tile attempt (hit, miss, or skip) in Phase 4;
// the relocation pass reports no progress. IsActive is polled at the top of each zoom and each
// row/column iteration inside Phase 4 — a false return cancels the
// remainder of generate() cooperatively.
type Sink interface {
	SetMax(n int)
	AddProgress(delta int)
	IsActive() bool
	CleanupOnCancel() bool
}

// Noop is a Sink that never cancels and discards progress, useful for
// callers that don't need reporting (tests, one-shot CLI runs without
// a bar).
type Noop struct{}

func (Noop) SetMax(int)          {}
func (Noop) AddProgress(int)     {}
func (Noop) IsActive() bool      { return true }
func (Noop) CleanupOnCancel() bool { return false }
