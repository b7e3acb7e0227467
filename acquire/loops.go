package acquire

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-wave/calib"
	"github.com/cwbudde/algo-wave/core"
	"github.com/cwbudde/algo-wave/stats/wave"
)

// ingestLoop is the producer. On every sampling tick it reads one raw value
// per channel with a deadline of at most one sampling interval, applies the
// channel's calibration and appends to the ring buffer. Failures stay local:
// a bad read skips that tick for that channel only and records a gap.
func (c *Controller) ingestLoop(ctx context.Context, models map[int]calib.Model) {
	defer c.wg.Done()

	interval := c.cfg.samplingInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			paused := c.paused.Load()
			for _, id := range c.cfg.ChannelIDs {
				if !c.ingestTick(ctx, id, models, interval, paused) {
					return
				}
			}
		}
	}
}

// ingestTick handles one channel on one tick. It reports false only when the
// session cannot continue.
func (c *Controller) ingestTick(ctx context.Context, channelID int, models map[int]calib.Model, interval time.Duration, paused bool) bool {
	readCtx, cancel := context.WithTimeout(ctx, interval)
	raw, err := c.source.Read(readCtx, channelID)
	cancel()

	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		if errors.Is(err, ErrSourceUnavailable) {
			c.fail(err)
			return false
		}
		// Timeout or decode failure: skip this tick for this channel only.
		if !paused {
			c.gaps[channelID].Record()
		}
		c.logger.Warn("source read failed, tick skipped",
			zap.Int("channel", channelID),
			zap.Error(err),
		)
		return true
	}

	// While paused the source is still drained so the device cannot build up
	// back-pressure, but nothing is appended.
	if paused {
		return true
	}

	s := core.Sample{
		ChannelID: channelID,
		Timestamp: time.Since(c.sessionStart).Seconds(),
		Raw:       raw,
	}
	if m, ok := models[channelID]; ok {
		s.Calibrated = m.Apply(raw)
	} else {
		s.Calibrated = raw
	}

	c.buffers[channelID].Append(s)
	c.publish(Event{Type: EventSampleAppended, ChannelID: channelID, Sample: s})
	return true
}

// statisticsLoop is the consumer. On a slower, independent tick it snapshots
// every channel buffer and recomputes wave statistics and quality metrics,
// keeping only the most recent result per channel.
func (c *Controller) statisticsLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.statisticsInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, id := range c.cfg.ChannelIDs {
				c.evaluateChannel(id)
			}
		}
	}
}

func (c *Controller) evaluateChannel(channelID int) {
	snapshot := c.buffers[channelID].Snapshot(c.cfg.windowSamples())

	stats := wave.Analyze(snapshot, c.statsOpts...)
	qual := c.monitor.Evaluate(channelID, snapshot, c.gaps[channelID].Drain())

	c.resultsMu.Lock()
	c.lastStats[channelID] = stats
	c.lastQuality[channelID] = qual
	c.resultsMu.Unlock()

	c.publish(Event{Type: EventStatisticsReady, ChannelID: channelID, Statistics: stats})
	c.publish(Event{Type: EventQualityUpdated, ChannelID: channelID, Quality: qual})
}
