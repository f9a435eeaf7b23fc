package pipeline

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchProgressIsMonotonicWithinRun(t *testing.T) {
	var p BatchProgress
	assert.Equal(t, 0, p.Value())

	assert.True(t, p.Advance(10))
	assert.False(t, p.Advance(5))
	assert.False(t, p.Advance(10))
	assert.Equal(t, 10, p.Value())

	assert.True(t, p.Advance(250))
	assert.Equal(t, 100, p.Value())

	assert.True(t, p.Reset())
	assert.False(t, p.Reset())
	assert.Equal(t, 0, p.Value())
	assert.False(t, p.Advance(-3))
}

func TestImportPercent(t *testing.T) {
	tests := []struct {
		fraction float64
		want     int
	}{
		{fraction: 0, want: 0},
		{fraction: -1, want: 0},
		{fraction: math.NaN(), want: 0},
		{fraction: 0.5, want: 24},
		{fraction: 0.999, want: 48},
		{fraction: 1, want: 49},
		{fraction: 7, want: 49},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.fraction), func(t *testing.T) {
			got := importPercent(tt.fraction)
			assert.Equal(t, tt.want, got)
			assert.Less(t, got, progressAwaitReady)
		})
	}
}

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{name: "bootstrap", err: &BootstrapError{Err: cause}, message: BootstrapFailedMessage},
		{name: "import", err: &ImportError{Err: cause}, message: ImportFailedMessage},
		{name: "capture", err: &CaptureError{Err: cause}, message: CaptureFailedMessage},
		{name: "wrapped import", err: fmt.Errorf("model x: %w", &ImportError{Err: cause}), message: ImportFailedMessage},
		{name: "plain", err: cause, message: "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.message, UserMessage(tt.err))
			assert.ErrorIs(t, tt.err, cause)
		})
	}
	assert.Empty(t, UserMessage(nil))

	var importErr *ImportError
	require.ErrorAs(t, fmt.Errorf("x: %w", &ImportError{Err: cause}), &importErr)
	assert.Contains(t, importErr.Error(), "boom")
}

func TestBroadcasterDropsForSlowSubscribers(t *testing.T) {
	b := newBroadcaster()
	fast, unsubscribeFast := b.subscribe()
	slow, unsubscribeSlow := b.subscribe()
	defer unsubscribeFast()

	for i := 0; i < subscriberBuffer+10; i++ {
		b.publish(Event{Phase: PhaseImporting, Percent: i % 50, Time: time.Now()})
		if i < subscriberBuffer {
			<-fast
		}
	}
	assert.Len(t, slow, subscriberBuffer)

	unsubscribeSlow()
	unsubscribeSlow()
	for range slow {
	}
	b.publish(Event{Phase: PhaseIdle})
	b.close()
	_, ok := <-fast
	for ok {
		_, ok = <-fast
	}
}
