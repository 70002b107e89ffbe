package playback

import (
	"errors"
	"testing"

	"github.com/danieloquelis/questvoice/core/audio"
)

type testSink struct {
	rate    int
	played  [][]int16
	active  bool
	overlap bool
	stops   int
	playErr error
}

func (s *testSink) SampleRate() int { return s.rate }

func (s *testSink) Play(samples []int16) error {
	if s.playErr != nil {
		return s.playErr
	}
	if s.active {
		s.overlap = true
	}
	s.active = true
	s.played = append(s.played, samples)
	return nil
}

func (s *testSink) IsPlaying() bool { return s.active }

func (s *testSink) Stop() error {
	s.stops++
	s.active = false
	return nil
}

func (s *testSink) finish() { s.active = false }

func newTestQueue(t *testing.T, sink *testSink) *Queue {
	t.Helper()
	q, err := NewQueue(sink, WithStreamRate(sink.rate))
	if err != nil {
		t.Fatalf("unexpected error creating queue: %v", err)
	}
	return q
}

func TestQueuePlaysInFIFOOrderWithoutOverlap(t *testing.T) {
	sink := &testSink{rate: 24000}
	q := newTestQueue(t, sink)

	for i := range 5 {
		if err := q.Enqueue(audio.EncodeInt16([]int16{int16(i), int16(i)})); err != nil {
			t.Fatalf("unexpected enqueue error: %v", err)
		}
	}

	for range 20 {
		if _, err := q.Tick(); err != nil {
			t.Fatalf("unexpected tick error: %v", err)
		}
		// A second tick while the sink is busy must not start anything.
		if started, _ := q.Tick(); started {
			t.Fatalf("expected no playback start while sink is busy")
		}
		sink.finish()
	}

	if sink.overlap {
		t.Fatalf("expected no overlapping playback")
	}
	if len(sink.played) != 5 {
		t.Fatalf("expected 5 played items, got %d", len(sink.played))
	}
	for i, samples := range sink.played {
		if samples[0] != int16(i) {
			t.Fatalf("item %d played out of order: %v", i, samples)
		}
	}
}

func TestQueueStopImmediatelyClearsPendingItems(t *testing.T) {
	sink := &testSink{rate: 24000}
	q := newTestQueue(t, sink)

	for i := range 3 {
		_ = q.Enqueue(audio.EncodeInt16([]int16{int16(i)}))
	}
	_, _ = q.Tick()

	if err := q.StopImmediately(); err != nil {
		t.Fatalf("unexpected stop error: %v", err)
	}
	if q.Len() != 0 || q.Busy() {
		t.Fatalf("expected empty idle queue after stop, len=%d busy=%t", q.Len(), q.Busy())
	}
	if sink.active || sink.stops != 1 {
		t.Fatalf("expected sink to be stopped once, active=%t stops=%d", sink.active, sink.stops)
	}

	_ = q.Enqueue(audio.EncodeInt16([]int16{42}))
	_, _ = q.Tick()
	if got := sink.played[len(sink.played)-1][0]; got != 42 {
		t.Fatalf("expected item enqueued after stop to play next, got %d", got)
	}
}

func TestQueueTickReportsSinkErrors(t *testing.T) {
	sink := &testSink{rate: 24000, playErr: errors.New("device gone")}
	q := newTestQueue(t, sink)
	_ = q.Enqueue(audio.EncodeInt16([]int16{1}))

	if _, err := q.Tick(); err == nil {
		t.Fatalf("expected tick to surface sink error")
	}
}

func TestQueueMutedDropsItems(t *testing.T) {
	sink := &testSink{rate: 24000}
	q := newTestQueue(t, sink)
	q.SetMuted(true)

	_ = q.Enqueue(audio.EncodeInt16([]int16{1}))
	_, _ = q.Tick()
	if len(sink.played) != 0 || q.Len() != 0 {
		t.Fatalf("expected muted queue to discard item, played=%d len=%d", len(sink.played), q.Len())
	}
}

func TestQueueWithoutSinkIsNoop(t *testing.T) {
	q, err := NewQueue(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.Enqueue(audio.EncodeInt16([]int16{1})); err != nil {
		t.Fatalf("unexpected enqueue error: %v", err)
	}
	if started, err := q.Tick(); started || err != nil {
		t.Fatalf("expected noop tick, started=%t err=%v", started, err)
	}
	if err := q.StopImmediately(); err != nil {
		t.Fatalf("unexpected stop error: %v", err)
	}
}
