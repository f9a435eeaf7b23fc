package pipeline

import (
	"sync"
	"time"
)

// Phase is a step of a model's pipeline run.
type Phase string

const (
	PhaseQueued        Phase = "queued"
	PhaseBootstrapping Phase = "bootstrapping"
	PhaseImporting     Phase = "importing"
	PhaseFraming       Phase = "framing"
	PhaseAwaitingReady Phase = "awaiting-readiness"
	PhaseCapturing     Phase = "capturing"
	PhaseReady         Phase = "ready"
	PhaseFailed        Phase = "failed"

	// PhaseReleased follows the disposal of a model's render session.
	PhaseReleased Phase = "released"

	// PhaseRemoved is emitted when a record is removed from the batch.
	PhaseRemoved Phase = "removed"

	// PhaseIdle is emitted when no queued model remains. It carries no model ID.
	PhaseIdle Phase = "idle"
)

const subscriberBuffer = 256

// Event is a pipeline notification. Error is set only on PhaseFailed.
type Event struct {
	ModelID string    `json:"model_id,omitempty"`
	Phase   Phase     `json:"phase"`
	Percent int       `json:"percent"`
	Error   string    `json:"error,omitempty"`
	Time    time.Time `json:"time"`
}

// broadcaster fans events out to subscribers. Slow subscribers lose events instead of
// blocking the pipeline.
type broadcaster struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan Event)}
}

func (b *broadcaster) subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

func (b *broadcaster) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
