package acquire

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-wave/calib"
	"github.com/cwbudde/algo-wave/core"
	"github.com/cwbudde/algo-wave/quality"
	"github.com/cwbudde/algo-wave/ringbuf"
	"github.com/cwbudde/algo-wave/stats/wave"
)

// ErrNoResult is returned by latest-result queries before the first
// evaluation tick has completed for the channel.
var ErrNoResult = errors.New("acquire: no result available yet")

// Controller owns an acquisition session: the per-channel ring buffers, the
// producer (ingest) and consumer (statistics) goroutines and the lifecycle
// state machine Stopped -> Running -> Paused -> Running -> Stopped, with
// Running -> Error on unrecoverable source failure.
//
// The calling goroutine only issues control commands and read-only queries;
// buffers are mutated exclusively by the ingest loop.
type Controller struct {
	cfg     Config
	source  Source
	logger  *zap.Logger
	monitor *quality.Monitor

	statsOpts []wave.Option

	mu           sync.Mutex
	state        State
	subscribers  []chan Event
	cancel       context.CancelFunc
	models       map[int]calib.Model
	sessionStart time.Time

	paused atomic.Bool
	wg     sync.WaitGroup

	buffers map[int]*ringbuf.Buffer
	gaps    map[int]*quality.GapCounter

	resultsMu   sync.RWMutex
	lastStats   map[int]wave.Statistics
	lastQuality map[int]quality.Snapshot

	loopErrMu sync.Mutex
	loopErr   error
}

// NewController validates the configuration and prepares a stopped session.
// The source must not be nil; a nil logger disables logging.
func NewController(cfg Config, source Source, logger *zap.Logger) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("%w: source must not be nil", ErrInvalidConfiguration)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Controller{
		cfg:    cfg,
		source: source,
		logger: logger,
		monitor: quality.NewMonitor(
			quality.WithRange(cfg.PhysicalRangeMin, cfg.PhysicalRangeMax),
			quality.WithSaturationTolerance(cfg.SaturationTolerance),
		),
		statsOpts: []wave.Option{
			wave.WithHsConvention(cfg.HsConvention),
			wave.WithSpectralModel(cfg.SpectralModel),
			wave.WithWindow(cfg.Window),
		},
		models:      make(map[int]calib.Model),
		lastStats:   make(map[int]wave.Statistics),
		lastQuality: make(map[int]quality.Snapshot),
	}
	if err := c.resetBuffers(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Controller) resetBuffers() error {
	c.buffers = make(map[int]*ringbuf.Buffer, len(c.cfg.ChannelIDs))
	c.gaps = make(map[int]*quality.GapCounter, len(c.cfg.ChannelIDs))
	for _, id := range c.cfg.ChannelIDs {
		buf, err := ringbuf.New(id, c.cfg.BufferCapacity)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
		c.buffers[id] = buf
		c.gaps[id] = &quality.GapCounter{}
	}
	return nil
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start spawns the ingest and statistics loops. Valid from Stopped or Error;
// a fresh session discards buffers of the previous one.
func (c *Controller) Start() error {
	c.mu.Lock()
	switch c.state {
	case StateRunning, StatePaused:
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	c.mu.Unlock()

	// An errored session's loops may still be winding down; join them before
	// touching the buffers. Must not hold c.mu here: exiting loops publish.
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateRunning, StatePaused:
		return ErrAlreadyRunning
	}

	if err := c.resetBuffers(); err != nil {
		return err
	}

	// A fresh session must not serve the previous session's results.
	c.resultsMu.Lock()
	c.lastStats = make(map[int]wave.Statistics, len(c.cfg.ChannelIDs))
	c.lastQuality = make(map[int]quality.Snapshot, len(c.cfg.ChannelIDs))
	c.resultsMu.Unlock()

	c.loopErrMu.Lock()
	c.loopErr = nil
	c.loopErrMu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.sessionStart = time.Now()
	c.paused.Store(false)

	// The ingest loop applies the models fixed at session start; calibration
	// is only possible while stopped, so the copy cannot go stale.
	models := make(map[int]calib.Model, len(c.models))
	for id, m := range c.models {
		models[id] = m
	}

	c.wg.Add(2)
	go c.ingestLoop(ctx, models)
	go c.statisticsLoop(ctx)

	c.state = StateRunning
	c.logger.Info("acquisition started",
		zap.Float64("samplingRateHz", c.cfg.SamplingRateHz),
		zap.Ints("channels", c.cfg.ChannelIDs),
		zap.Int("bufferCapacity", c.cfg.BufferCapacity),
	)
	return nil
}

// Pause suspends appending. Source reads continue and are discarded so a
// device cannot accumulate back-pressure; buffered samples are untouched.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRunning {
		return fmt.Errorf("%w: pause from %s", ErrInvalidTransition, c.state)
	}
	c.state = StatePaused
	c.paused.Store(true)
	c.logger.Info("acquisition paused")
	return nil
}

// Resume continues appending after a Pause without losing buffered samples.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePaused {
		return fmt.Errorf("%w: resume from %s", ErrInvalidTransition, c.state)
	}
	c.state = StateRunning
	c.paused.Store(false)
	c.logger.Info("acquisition resumed")
	return nil
}

// Stop cancels both loops and waits until they have fully exited, leaving
// buffers consistent and readable. Stopping an already stopped controller is
// a no-op.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if c.state == StateStopped {
		c.mu.Unlock()
		return nil
	}
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()

	c.mu.Lock()
	c.state = StateStopped
	c.closeSubscribers()
	c.mu.Unlock()

	c.logger.Info("acquisition stopped")

	c.loopErrMu.Lock()
	defer c.loopErrMu.Unlock()
	return c.loopErr
}

// fail moves a running session into the Error state and cancels both loops.
// Called from inside a loop; it must never wait for loop exit itself.
func (c *Controller) fail(reason error) {
	c.mu.Lock()
	if c.state != StateRunning && c.state != StatePaused {
		c.mu.Unlock()
		return
	}
	c.state = StateError
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	c.loopErrMu.Lock()
	c.loopErr = multierr.Append(c.loopErr, reason)
	c.loopErrMu.Unlock()

	c.logger.Error("acquisition failed", zap.Error(reason))
	c.publish(Event{Type: EventError, Err: reason})

	if cancel != nil {
		cancel()
	}
}

// buffer looks up a channel buffer under the state lock; the buffer map is
// replaced on Start, so external queries must not read it directly.
func (c *Controller) buffer(channelID int) (*ringbuf.Buffer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.buffers[channelID]
	return b, ok
}

// Calibrate fits a model for the channel from reference points. Calibration
// and acquisition are mutually exclusive: the session must be stopped. A
// poorly fitting model is stored and returned with its quality grade; only
// insufficient or degenerate input fails.
func (c *Controller) Calibrate(channelID int, points []calib.Point) (calib.Model, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateStopped {
		return calib.Model{}, ErrCalibrationLocked
	}
	if _, ok := c.buffers[channelID]; !ok {
		return calib.Model{}, fmt.Errorf("%w: %d", ErrUnknownChannel, channelID)
	}

	m, err := calib.Fit(points)
	if err != nil {
		return calib.Model{}, err
	}
	c.models[channelID] = m

	c.logger.Info("channel calibrated",
		zap.Int("channel", channelID),
		zap.Float64("slope", m.Slope),
		zap.Float64("intercept", m.Intercept),
		zap.Float64("rSquared", m.RSquared),
		zap.String("quality", m.Quality.String()),
	)
	return m, nil
}

// CalibrationModel returns the stored model for the channel, if any.
func (c *Controller) CalibrationModel(channelID int) (calib.Model, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.models[channelID]
	return m, ok
}

// LatestStatistics returns the most recent wave statistics for the channel.
func (c *Controller) LatestStatistics(channelID int) (wave.Statistics, error) {
	if _, ok := c.buffer(channelID); !ok {
		return wave.Statistics{}, fmt.Errorf("%w: %d", ErrUnknownChannel, channelID)
	}

	c.resultsMu.RLock()
	defer c.resultsMu.RUnlock()
	s, ok := c.lastStats[channelID]
	if !ok {
		return wave.Statistics{}, ErrNoResult
	}
	return s, nil
}

// LatestQuality returns the most recent quality snapshot for the channel.
func (c *Controller) LatestQuality(channelID int) (quality.Snapshot, error) {
	if _, ok := c.buffer(channelID); !ok {
		return quality.Snapshot{}, fmt.Errorf("%w: %d", ErrUnknownChannel, channelID)
	}

	c.resultsMu.RLock()
	defer c.resultsMu.RUnlock()
	q, ok := c.lastQuality[channelID]
	if !ok {
		return quality.Snapshot{}, ErrNoResult
	}
	return q, nil
}

// Snapshot returns a copy of the most recent n buffered samples for the
// channel (all, if n <= 0). Safe to call in any state.
func (c *Controller) Snapshot(channelID, n int) ([]core.Sample, error) {
	buf, ok := c.buffer(channelID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownChannel, channelID)
	}
	return buf.Snapshot(n), nil
}

// Bundle is the hand-off to an export/archival collaborator. The collaborator
// owns container format, hashing and filesystem I/O; this core only supplies
// typed, validated data.
type Bundle struct {
	ChannelID  int
	Model      calib.Model
	HasModel   bool
	Samples    []core.Sample
	Statistics wave.Statistics
	Quality    quality.Snapshot
}

// Export collects the channel's calibration model, full buffer snapshot and
// latest results into a Bundle.
func (c *Controller) Export(channelID int) (Bundle, error) {
	samples, err := c.Snapshot(channelID, 0)
	if err != nil {
		return Bundle{}, err
	}

	b := Bundle{ChannelID: channelID, Samples: samples}
	b.Model, b.HasModel = c.CalibrationModel(channelID)

	c.resultsMu.RLock()
	b.Statistics = c.lastStats[channelID]
	b.Quality = c.lastQuality[channelID]
	c.resultsMu.RUnlock()

	return b, nil
}
