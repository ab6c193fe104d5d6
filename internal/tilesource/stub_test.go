package tilesource

import (
	"context"
	"testing"
)

func TestStubFetch(t *testing.T) {
	s := NewStub([]byte("tile-bytes"))
	data, ok, err := s.Fetch(context.Background(), 3, 1, 2)
	if err != nil || !ok {
		t.Fatalf("Fetch: ok=%v err=%v", ok, err)
	}
	if string(data) != "tile-bytes" {
		t.Errorf("data = %q, want tile-bytes", data)
	}
}

func TestStubMissing(t *testing.T) {
	s := NewStub([]byte("x"))
	s.Missing[[3]int{0, 0, 0}] = true

	_, ok, err := s.Fetch(context.Background(), 0, 0, 0)
	if err != nil || ok {
		t.Fatalf("Fetch at missing coord: ok=%v err=%v, want false, nil", ok, err)
	}

	data, ok, err := s.Fetch(context.Background(), 1, 0, 0)
	if err != nil || !ok || string(data) != "x" {
		t.Fatalf("Fetch at present coord: data=%q ok=%v err=%v", data, ok, err)
	}
}

func TestStubRecordsCalls(t *testing.T) {
	s := NewStub([]byte("x"))
	s.Fetch(context.Background(), 1, 2, 3)
	s.Fetch(context.Background(), 4, 5, 6)

	calls := s.Calls()
	if len(calls) != 2 || calls[0] != [3]int{1, 2, 3} || calls[1] != [3]int{4, 5, 6} {
		t.Errorf("Calls() = %v, unexpected", calls)
	}
}

func TestPrefetchingSourceServesFromCache(t *testing.T) {
	stub := NewStub([]byte("cached"))
	p := NewPrefetchingSource(stub, 4)

	coords := [][3]int{{1, 0, 0}, {1, 1, 0}, {1, 0, 1}, {1, 1, 1}}
	p.Prefetch(context.Background(), coords)

	for _, c := range coords {
		data, ok, err := p.Fetch(context.Background(), c[0], c[1], c[2])
		if err != nil || !ok || string(data) != "cached" {
			t.Fatalf("Fetch(%v) = %q, %v, %v", c, data, ok, err)
		}
	}
}

func TestPrefetchingSourceFallsThroughWithoutPrefetch(t *testing.T) {
	stub := NewStub([]byte("direct"))
	p := NewPrefetchingSource(stub, 2)

	data, ok, err := p.Fetch(context.Background(), 5, 5, 5)
	if err != nil || !ok || string(data) != "direct" {
		t.Fatalf("Fetch without prefetch = %q, %v, %v", data, ok, err)
	}
}
