package reembed

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_Increment(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100, 10)

	tracker.Start()
	assert.True(t, tracker.started)

	tracker.Increment(25)
	tracker.Increment(25)
	tracker.Increment(50)

	assert.Equal(t, 100, tracker.Current())
	assert.Greater(t, tracker.Elapsed(), time.Duration(0))
	assert.Contains(t, buf.String(), "100/100 notes")
	assert.Contains(t, buf.String(), "100.0%")
}

func TestProgressTracker_CapsAtTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10, 5)

	tracker.Start()
	tracker.Increment(15)
	assert.Equal(t, 10, tracker.Current())

	tracker.Update(40)
	assert.Equal(t, 10, tracker.Current())
	assert.NotContains(t, buf.String(), "15/10")
}

func TestProgressTracker_ReportInterval(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 1000, 100)
	tracker.Start()

	tracker.Update(50)
	assert.Empty(t, buf.String(), "below interval")

	tracker.Update(100)
	assert.Contains(t, buf.String(), "100/1000")

	buf.Reset()
	tracker.Update(150)
	assert.Empty(t, buf.String(), "less than an interval since the last report")
}

func TestProgressTracker_Finish(t *testing.T) {
	tests := []struct {
		name  string
		total int
		done  int
		want  string
	}{
		{name: "partial", total: 100, done: 75, want: "75/100 notes (75.0%)"},
		{name: "zero total", total: 0, done: 0, want: "0/0 notes (100.0%)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tracker := NewProgressTracker(&buf, tt.total, 1000)
			tracker.Start()
			tracker.Update(tt.done)
			tracker.Finish()

			assert.Contains(t, buf.String(), tt.want)
			assert.Contains(t, buf.String(), "notes/s")
			assert.Equal(t, byte('\n'), buf.Bytes()[buf.Len()-1])
		})
	}
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100, 10)

	tracker.Increment(10)
	tracker.Finish()

	assert.Empty(t, buf.String())
	assert.Zero(t, tracker.Current())
	assert.Zero(t, tracker.Elapsed())
}

func TestProgressTracker_NilWriter(t *testing.T) {
	tracker := NewProgressTracker(nil, 3, 0)
	tracker.Start()
	assert.NotPanics(t, func() {
		tracker.Increment(3)
		tracker.Finish()
	})
}

func TestProgressTracker_Concurrent(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 400, 50)
	tracker.Start()

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				tracker.Increment(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 400, tracker.Current())
}
