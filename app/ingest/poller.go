// Package ingest feeds profile changes from external sources into the
// contact index: a database change poller and a Kafka consumer.
package ingest

import (
	"context"
	"time"

	"github.com/vibast-solutions/ms-go-contacts/app/dto"
	"github.com/vibast-solutions/ms-go-contacts/app/entity"
	"github.com/vibast-solutions/ms-go-contacts/app/service"

	"github.com/sirupsen/logrus"
)

// clockSkew is subtracted from local resync timestamps before they are
// compared with database updated_at values.
const clockSkew = 5 * time.Second

type ChangeFeed interface {
	ListChangedSince(ctx context.Context, since time.Time) ([]*entity.ProfileChange, error)
}

type Resyncer interface {
	Resync(ctx context.Context, source string) (*dto.ResyncResult, error)
	RefreshGauges()
}

type PollerConfig struct {
	Interval       time.Duration
	ResyncInterval time.Duration
}

// Poller replays the change feed into the index on every tick and runs a
// full resync every ResyncInterval. A zero ResyncInterval disables it.
type Poller struct {
	config   PollerConfig
	feed     ChangeFeed
	sink     service.ProfileSink
	resyncer Resyncer

	watermark  time.Time
	lastResync time.Time
	now        func() time.Time
}

func NewPoller(config PollerConfig, feed ChangeFeed, sink service.ProfileSink, resyncer Resyncer) *Poller {
	if config.Interval <= 0 {
		config.Interval = 30 * time.Second
	}
	return &Poller{
		config:   config,
		feed:     feed,
		sink:     sink,
		resyncer: resyncer,
		now:      time.Now,
	}
}

// Start blocks until ctx is cancelled. Failed polls are logged and retried
// on the next tick.
func (p *Poller) Start(ctx context.Context) error {
	logrus.WithFields(logrus.Fields{
		"interval":        p.config.Interval.String(),
		"resync_interval": p.config.ResyncInterval.String(),
	}).Info("Starting contact change poller")

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Stopping contact change poller")
			return nil
		case <-ticker.C:
			if err := p.Tick(ctx); err != nil && ctx.Err() == nil {
				logrus.WithError(err).Error("Contact change poll failed")
			}
		}
	}
}

// Tick runs one poll cycle, or a full resync when it is due.
func (p *Poller) Tick(ctx context.Context) error {
	if p.resyncDue() {
		return p.resync(ctx)
	}
	return p.Poll(ctx)
}

// Poll applies every change at or after the current watermark. The
// watermark only advances once the whole batch is applied.
func (p *Poller) Poll(ctx context.Context) error {
	changes, err := p.feed.ListChangedSince(ctx, p.watermark)
	if err != nil {
		return err
	}

	next := p.watermark
	for _, change := range changes {
		if change == nil || change.Profile == nil {
			continue
		}
		if change.Deleted {
			p.sink.Remove(service.SourcePoller, change.Profile)
		} else {
			p.sink.Consume(service.SourcePoller, change.Profile)
		}
		if change.UpdatedAt.After(next) {
			next = change.UpdatedAt
		}
	}
	p.watermark = next

	if len(changes) > 0 {
		logrus.WithFields(logrus.Fields{
			"changes":   len(changes),
			"watermark": p.watermark.Format(time.RFC3339Nano),
		}).Debug("Applied contact profile changes")
		if p.resyncer != nil {
			p.resyncer.RefreshGauges()
		}
	}

	return nil
}

// Watermark is the updated_at of the newest change applied so far.
func (p *Poller) Watermark() time.Time {
	return p.watermark
}

// MarkSynced records a resync done elsewhere, for example at startup, so the
// poller only replays changes made from that point on.
func (p *Poller) MarkSynced(at time.Time) {
	p.lastResync = at
	p.watermark = at.Add(-clockSkew)
}

func (p *Poller) resyncDue() bool {
	if p.resyncer == nil || p.config.ResyncInterval <= 0 {
		return false
	}
	return p.lastResync.IsZero() || p.now().Sub(p.lastResync) >= p.config.ResyncInterval
}

func (p *Poller) resync(ctx context.Context) error {
	started := p.now()
	if _, err := p.resyncer.Resync(ctx, service.SourcePoller); err != nil {
		return err
	}
	p.lastResync = started
	// Changes committed while the snapshot was read are replayed next tick.
	p.watermark = started.Add(-clockSkew)
	return nil
}
