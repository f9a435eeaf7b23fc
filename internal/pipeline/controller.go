// Package pipeline turns queued GLB uploads into screenshots, one isolated render
// session at a time.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-shot/engine/render"
	"github.com/Carmen-Shannon/oxy-shot/internal/intake"
	"github.com/Carmen-Shannon/oxy-shot/internal/storage"
)

const (
	// DefaultSettleDelay separates the end of one model's run from the start of the next.
	DefaultSettleDelay = 300 * time.Millisecond

	cancelledMessage = "Processing was cancelled."
)

// ErrAlreadyRunning is returned by Run when the controller is already running.
var ErrAlreadyRunning = errors.New("pipeline controller is already running")

// activeRun is the model currently owning the single render session slot.
type activeRun struct {
	id      string
	phase   Phase
	cancel  context.CancelFunc
	session *RenderSession
}

// Controller runs queued models through bootstrap, import, framing, readiness and
// capture, strictly one at a time, and reports a single progress value and events.
// Records and progress are written only by the controller.
type Controller struct {
	mu     *sync.Mutex
	logger *slog.Logger

	bootstrapper Bootstrapper
	importer     Importer
	framer       *Framer
	gate         *ReadinessGate
	capture      *CaptureEngine

	records  *storage.Store[ModelRecord]
	progress BatchProgress
	events   *broadcaster

	viewport      ViewportConfig
	settleDelay   time.Duration
	pollInterval  time.Duration
	previewWidth  int
	previewHeight int
	workers       int
	maxAssetSize  int64

	running bool
	idle    bool
	active  *activeRun
	changed chan struct{}

	// wake is signalled by Enqueue; interrupt cuts a pending settle delay short.
	wake        chan struct{}
	interrupt   chan struct{}
	settleTimer *time.Timer
}

// NewController creates a Controller. The pipeline starts when Run is called.
// Defaults: 1920x1080 opaque white viewport, 300ms settle delay, 100ms readiness polling,
// 640x360 live preview.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - *Controller: the configured controller
func NewController(options ...ControllerBuilderOption) *Controller {
	c := &Controller{
		mu:            &sync.Mutex{},
		logger:        slog.Default(),
		records:       storage.New[ModelRecord](),
		events:        newBroadcaster(),
		viewport:      DefaultViewport(),
		settleDelay:   DefaultSettleDelay,
		pollInterval:  DefaultPollInterval,
		previewWidth:  defaultPreviewWidth,
		previewHeight: defaultPreviewHeight,
		idle:          true,
		changed:       make(chan struct{}),
		wake:          make(chan struct{}, 1),
		interrupt:     make(chan struct{}, 1),
	}
	for _, option := range options {
		option(c)
	}

	if c.bootstrapper == nil {
		c.bootstrapper = NewBootstrapper(
			WithBootstrapLogger(c.logger),
			WithPreviewSurface(c.previewWidth, c.previewHeight),
			WithEngineWorkers(c.workers),
			WithAssetSizeLimit(c.maxAssetSize),
		)
	}
	if c.importer == nil {
		c.importer = NewImporter(c.logger)
	}
	c.framer = NewFramer()
	c.gate = NewReadinessGate(c.pollInterval)
	c.capture = NewCaptureEngine(c.framer, c.gate, c.logger)
	return c
}

// Run processes queued models until ctx is done. The active session is disposed on exit.
//
// Parameters:
//   - ctx: stops the pipeline
//
// Returns:
//   - error: ErrAlreadyRunning if another Run is in progress, nil otherwise
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		if c.settleTimer != nil {
			c.settleTimer.Stop()
			c.settleTimer = nil
		}
		c.mu.Unlock()
	}()

	c.logger.Info("pipeline started", "settle_delay", c.settleDelay, "poll_interval", c.pollInterval)
	for {
		if ctx.Err() != nil {
			c.logger.Info("pipeline stopped")
			return nil
		}

		rec, ok := c.nextQueued()
		if !ok {
			c.enterIdle()
			select {
			case <-ctx.Done():
				c.logger.Info("pipeline stopped")
				return nil
			case <-c.wake:
			}
			continue
		}

		c.process(ctx, rec)

		if _, more := c.nextQueued(); more && !c.settle(ctx) {
			c.logger.Info("pipeline stopped")
			return nil
		}
	}
}

// Enqueue admits the binary glTF files among files as queued records and wakes the pipeline.
// Other files are ignored.
//
// Parameters:
//   - files: uploaded files
//
// Returns:
//   - []ModelRecord: the created records in order
func (c *Controller) Enqueue(files ...intake.File) []ModelRecord {
	accepted := intake.Filter(files)
	created := make([]ModelRecord, 0, len(accepted))
	for _, f := range accepted {
		rec := NewModelRecord(f)
		c.records.Set(rec.ID, rec)
		created = append(created, rec)
		c.emit(rec.ID, PhaseQueued, "")
	}
	if len(created) == 0 {
		return created
	}

	c.mu.Lock()
	c.idle = false
	c.notifyLocked()
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
	c.logger.Info("models queued", "accepted", len(created), "ignored", len(files)-len(created))
	return created
}

// Records returns every record in intake order.
func (c *Controller) Records() []ModelRecord {
	return c.records.All()
}

// Record returns one record.
func (c *Controller) Record(id string) (ModelRecord, bool) {
	return c.records.Get(id)
}

// Progress returns the current model's progress percentage.
func (c *Controller) Progress() int {
	return c.progress.Value()
}

// Viewport returns the configuration applied to the next pipeline run.
func (c *Controller) Viewport() ViewportConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewport
}

// SetViewport validates and stores the configuration for subsequent runs.
// A run already in progress keeps the configuration it started with.
func (c *Controller) SetViewport(vp ViewportConfig) error {
	if err := vp.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewport = vp
	return nil
}

// ActiveSession returns the session of the model being processed, or nil.
func (c *Controller) ActiveSession() *RenderSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil
	}
	return c.active.session
}

// Remove deletes a record. Removing the model being processed cancels its run and
// disposes its session; other records are unaffected.
//
// Parameters:
//   - id: the record ID
//
// Returns:
//   - bool: false if the record does not exist
func (c *Controller) Remove(id string) bool {
	if !c.records.Delete(id) {
		return false
	}

	c.mu.Lock()
	run := c.active
	if run != nil && run.id != id {
		run = nil
	}
	c.notifyLocked()
	c.mu.Unlock()

	if run != nil {
		c.abort(run)
	}
	c.emit(id, PhaseRemoved, "")
	c.logger.Info("model removed", "model", id, "active", run != nil)
	return true
}

// Clear removes every record, aborts the active run and cancels a pending settle delay.
func (c *Controller) Clear() {
	removed := c.records.All()
	c.records.Clear()

	c.mu.Lock()
	run := c.active
	if c.settleTimer != nil {
		c.settleTimer.Stop()
	}
	c.notifyLocked()
	c.mu.Unlock()

	select {
	case c.interrupt <- struct{}{}:
	default:
	}
	if run != nil {
		c.abort(run)
	}
	c.progress.Reset()
	for _, rec := range removed {
		c.emit(rec.ID, PhaseRemoved, "")
	}
	c.logger.Info("models cleared", "count", len(removed))
}

// Subscribe registers an event receiver. The channel is buffered; events are dropped
// for receivers that fall behind. Call the returned function to unsubscribe.
//
// Returns:
//   - <-chan Event: the event stream
//   - func(): closes the stream
func (c *Controller) Subscribe() (<-chan Event, func()) {
	return c.events.subscribe()
}

// Close aborts the active run and ends every event stream. Call it after Run has returned.
func (c *Controller) Close() {
	c.mu.Lock()
	run := c.active
	c.mu.Unlock()
	if run != nil {
		c.abort(run)
	}
	c.events.close()
}

// WaitIdle blocks until no record is queued or loading and the pipeline has gone idle.
//
// Parameters:
//   - ctx: cancels the wait
//
// Returns:
//   - error: ctx.Err() on cancellation
func (c *Controller) WaitIdle(ctx context.Context) error {
	for {
		c.mu.Lock()
		ch := c.changed
		done := c.idle && !c.pending()
		c.mu.Unlock()
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

// process runs one model and records its terminal state.
func (c *Controller) process(ctx context.Context, rec ModelRecord) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	run := &activeRun{id: rec.ID, cancel: cancel}
	c.mu.Lock()
	c.idle = false
	c.active = run
	vp := c.viewport
	c.mu.Unlock()

	if !c.records.Update(rec.ID, func(r *ModelRecord) { r.Status = StatusLoading }) {
		c.mu.Lock()
		c.active = nil
		c.mu.Unlock()
		return
	}
	c.progress.Reset()
	c.logger.Info("processing model", "model", rec.ID, "name", rec.Name, "width", vp.Width, "height", vp.Height)

	started := time.Now()
	shot, err := c.runPipeline(runCtx, run, rec, vp)

	c.mu.Lock()
	c.active = nil
	c.mu.Unlock()

	c.finish(rec, shot, err, time.Since(started))
}

// runPipeline executes the phases in order. The session is disposed before returning.
func (c *Controller) runPipeline(ctx context.Context, run *activeRun, rec ModelRecord, vp ViewportConfig) (*render.Screenshot, error) {
	c.transition(run, PhaseBootstrapping, 0)
	if err := vp.Validate(); err != nil {
		return nil, &CaptureError{Err: err}
	}

	s, err := c.bootstrapper.Bootstrap(ctx, rec, vp)
	if err != nil {
		return nil, err
	}
	if !c.attach(run, s) {
		s.Dispose()
		return nil, ErrSessionDisposed
	}
	defer c.release(run, s)

	c.transition(run, PhaseImporting, 0)
	nodes, err := c.importer.Import(ctx, s, rec, func(f float64) {
		c.report(run, importPercent(f))
	})
	if err != nil {
		return nil, err
	}

	c.transition(run, PhaseFraming, -1)
	framed := c.framer.Frame(s, nodes)
	c.logger.Debug("model framed", "model", rec.ID, "framed", framed.Framed, "scale", framed.Scale, "radius", framed.Radius)

	c.transition(run, PhaseAwaitingReady, progressAwaitReady)
	if err := c.gate.Wait(ctx, s.Scene()); err != nil {
		if s.Disposed() {
			return nil, ErrSessionDisposed
		}
		return nil, err
	}

	c.transition(run, PhaseCapturing, progressReady)
	return c.capture.Capture(ctx, s, vp.Width, vp.Height)
}

// finish writes the terminal state of a run. Removed records are left alone.
func (c *Controller) finish(rec ModelRecord, shot *render.Screenshot, err error, elapsed time.Duration) {
	if err == nil && shot == nil {
		err = &CaptureError{Err: errors.New("no screenshot produced")}
	}

	message := UserMessage(err)
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrSessionDisposed) {
		message = cancelledMessage
	}

	exists := c.records.Update(rec.ID, func(r *ModelRecord) {
		r.CompletedAt = time.Now()
		if err != nil {
			r.Status = StatusFailed
			r.Error = message
			return
		}
		r.Status = StatusReady
		if r.Screenshot == nil {
			r.Screenshot = shot
		}
	})

	switch {
	case !exists:
		c.progress.Reset()
		c.logger.Info("model removed during processing", "model", rec.ID, "elapsed", elapsed)
	case err != nil:
		c.progress.Reset()
		c.emit(rec.ID, PhaseFailed, message)
		c.logger.Error("model failed", "model", rec.ID, "name", rec.Name, "elapsed", elapsed, "err", err)
	default:
		c.progress.Advance(progressDone)
		c.emit(rec.ID, PhaseReady, "")
		c.logger.Info("model captured", "model", rec.ID, "name", rec.Name, "elapsed", elapsed,
			"width", shot.Width, "height", shot.Height)
	}

	c.mu.Lock()
	c.notifyLocked()
	c.mu.Unlock()
}

// settle waits for the settle delay before the next model. Returns false if ctx ended.
func (c *Controller) settle(ctx context.Context) bool {
	select {
	case <-c.interrupt:
	default:
	}

	c.mu.Lock()
	timer := time.NewTimer(c.settleDelay)
	c.settleTimer = timer
	c.mu.Unlock()

	defer func() {
		timer.Stop()
		c.mu.Lock()
		if c.settleTimer == timer {
			c.settleTimer = nil
		}
		c.mu.Unlock()
	}()

	select {
	case <-ctx.Done():
		return false
	case <-c.interrupt:
		return true
	case <-timer.C:
		return true
	}
}

// enterIdle resets progress and announces an empty queue once per busy period.
func (c *Controller) enterIdle() {
	c.mu.Lock()
	if c.pending() {
		c.mu.Unlock()
		return
	}
	c.progress.Reset()
	wasIdle := c.idle
	c.idle = true
	c.notifyLocked()
	c.mu.Unlock()

	if !wasIdle {
		c.emit("", PhaseIdle, "")
		c.logger.Info("pipeline idle")
	}
}

func (c *Controller) nextQueued() (ModelRecord, bool) {
	return c.records.Find(func(r ModelRecord) bool {
		return r.Status == StatusQueued
	})
}

// pending reports queued or loading records.
func (c *Controller) pending() bool {
	_, ok := c.records.Find(func(r ModelRecord) bool {
		return r.Status == StatusQueued || r.Status == StatusLoading
	})
	return ok
}

// attach publishes the session of a run unless the run was aborted meanwhile.
func (c *Controller) attach(run *activeRun, s *RenderSession) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != run {
		return false
	}
	if _, ok := c.records.Get(run.id); !ok {
		return false
	}
	run.session = s
	return true
}

// release disposes the session of a run and announces it.
func (c *Controller) release(run *activeRun, s *RenderSession) {
	s.Dispose()
	c.mu.Lock()
	if run.session == s {
		run.session = nil
	}
	c.mu.Unlock()
	c.emit(run.id, PhaseReleased, "")
}

// abort cancels a run and disposes its session from outside the pipeline goroutine.
func (c *Controller) abort(run *activeRun) {
	run.cancel()
	c.mu.Lock()
	s := run.session
	c.mu.Unlock()
	if s != nil {
		s.Dispose()
	}
}

// transition enters a phase, optionally advancing progress (percent < 0 keeps it), and
// emits one event. Ignored once the run is no longer active.
func (c *Controller) transition(run *activeRun, phase Phase, percent int) {
	c.mu.Lock()
	if c.active != run {
		c.mu.Unlock()
		return
	}
	run.phase = phase
	c.mu.Unlock()

	if percent >= 0 {
		c.progress.Advance(percent)
	}
	c.emit(run.id, phase, "")
}

// report advances progress within the current phase and emits an event when it changed.
func (c *Controller) report(run *activeRun, percent int) {
	c.mu.Lock()
	if c.active != run {
		c.mu.Unlock()
		return
	}
	phase := run.phase
	c.mu.Unlock()

	if c.progress.Advance(percent) {
		c.emit(run.id, phase, "")
	}
}

func (c *Controller) emit(id string, phase Phase, message string) {
	ev := Event{
		ModelID: id,
		Phase:   phase,
		Percent: c.progress.Value(),
		Error:   message,
		Time:    time.Now(),
	}
	c.events.publish(ev)
	c.logger.Debug("pipeline event", "model", id, "phase", phase, "percent", ev.Percent)
}

// notifyLocked wakes WaitIdle callers. Caller must hold the mutex.
func (c *Controller) notifyLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}
