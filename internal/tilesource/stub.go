package tilesource

import "context"

// Stub is a deterministic in-memory Source for tests: it returns the
// same bytes (or absence) for every coordinate, optionally recording
// every coordinate it was asked for.
type Stub struct {
	Data    []byte
	Missing map[[3]int]bool
	calls   [][3]int
}

// NewStub returns a Stub that always returns data for every coordinate.
func NewStub(data []byte) *Stub {
	return &Stub{Data: data, Missing: map[[3]int]bool{}}
}

func (s *Stub) Fetch(_ context.Context, z, x, y int) ([]byte, bool, error) {
	key := [3]int{z, x, y}
	s.calls = append(s.calls, key)
	if s.Missing[key] {
		return nil, false, nil
	}
	return s.Data, true, nil
}

// Calls returns every coordinate Fetch was invoked with, in order.
func (s *Stub) Calls() [][3]int { return s.calls }
