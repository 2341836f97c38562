package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vibast-solutions/ms-go-contacts/app/dto"
	"github.com/vibast-solutions/ms-go-contacts/app/entity"
	"github.com/vibast-solutions/ms-go-contacts/app/index"
	"github.com/vibast-solutions/ms-go-contacts/app/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrResyncInProgress = errors.New("index resync already in progress")
	ErrNoSnapshotSource = errors.New("no snapshot source configured")
)

const (
	SourceHTTP   = "http"
	SourceGRPC   = "grpc"
	SourcePoller = "poller"
	SourceKafka  = "kafka"
	SourceCLI    = "cli"
)

type profileIndex interface {
	Consume(profile *entity.ContactProfile) index.Result
	Remove(profile *entity.ContactProfile) index.Result
	Reset()
	Rebuild(profiles []*entity.ContactProfile) int
	Stats() index.Stats
	Conflicts(ch index.Channel) []index.Conflict
}

// SnapshotSource yields every live profile of the authoritative store.
type SnapshotSource interface {
	ListActive(ctx context.Context) ([]*entity.ContactProfile, error)
}

// ProfileSink is what the change feeds (poller, broker, transports) write to.
type ProfileSink interface {
	Consume(source string, profile *entity.ContactProfile) index.Result
	ConsumeAll(source string, profiles []*entity.ContactProfile) *dto.IngestResult
	Remove(source string, profile *entity.ContactProfile) index.Result
}

type IngestionService struct {
	index    profileIndex
	snapshot SnapshotSource
	metrics  *metrics.Metrics

	resyncMu sync.Mutex
}

func NewIngestionService(idx profileIndex, snapshot SnapshotSource, m *metrics.Metrics) *IngestionService {
	if m == nil {
		m = metrics.New(nil)
	}
	return &IngestionService{
		index:    idx,
		snapshot: snapshot,
		metrics:  m,
	}
}

func (s *IngestionService) Consume(source string, profile *entity.ContactProfile) index.Result {
	if profile == nil {
		return index.Result{}
	}

	res := s.index.Consume(profile)
	s.observe("consume", source, profile, res)
	return res
}

func (s *IngestionService) ConsumeAll(source string, profiles []*entity.ContactProfile) *dto.IngestResult {
	result := &dto.IngestResult{}
	for _, profile := range profiles {
		if profile == nil {
			continue
		}
		res := s.Consume(source, profile)
		result.Accepted++
		if changed(res) {
			result.Changed++
		}
	}
	return result
}

func (s *IngestionService) Remove(source string, profile *entity.ContactProfile) index.Result {
	if profile == nil {
		return index.Result{}
	}

	res := s.index.Remove(profile)
	s.observe("remove", source, profile, res)
	return res
}

func (s *IngestionService) Reset(source string) {
	s.index.Reset()
	s.metrics.ObserveEvent("reset", source, 1)
	s.RefreshGauges()
	logrus.WithField("source", source).Warn("Contact index reset")
}

// Resync rebuilds the index from the snapshot source. Only one resync runs
// at a time; a concurrent call gets ErrResyncInProgress.
func (s *IngestionService) Resync(ctx context.Context, source string) (*dto.ResyncResult, error) {
	if s.snapshot == nil {
		return nil, ErrNoSnapshotSource
	}
	if !s.resyncMu.TryLock() {
		return nil, ErrResyncInProgress
	}
	defer s.resyncMu.Unlock()

	runID := uuid.New().String()
	started := time.Now()
	entry := logrus.WithFields(logrus.Fields{
		"run_id": runID,
		"source": source,
	})
	entry.Info("Contact index resync started")

	profiles, err := s.snapshot.ListActive(ctx)
	if err != nil {
		s.metrics.ObserveResync("failure")
		entry.WithError(err).Error("Contact index resync failed")
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	applied := s.index.Rebuild(profiles)
	s.metrics.ObserveResync("success")
	s.metrics.ObserveEvent("resync", source, applied)
	s.RefreshGauges()

	result := &dto.ResyncResult{
		RunID:    runID,
		Profiles: applied,
		Duration: time.Since(started),
	}
	entry.WithFields(logrus.Fields{
		"profiles":    applied,
		"duration_ms": result.Duration.Milliseconds(),
	}).Info("Contact index resync finished")

	return result, nil
}

func (s *IngestionService) Stats() index.Stats {
	return s.index.Stats()
}

func (s *IngestionService) Conflicts(ch index.Channel) []index.Conflict {
	return s.index.Conflicts(ch)
}

func (s *IngestionService) RefreshGauges() {
	stats := s.index.Stats()
	s.metrics.SetIndexSize(index.ChannelEmail.String(), stats.Email.Claims, stats.Email.Conflicts)
	s.metrics.SetIndexSize(index.ChannelMobile.String(), stats.Mobile.Claims, stats.Mobile.Conflicts)
}

func (s *IngestionService) observe(operation, source string, profile *entity.ContactProfile, res index.Result) {
	s.metrics.ObserveEvent(operation, source, 1)
	for _, ch := range index.Channels {
		s.metrics.ObserveTransition(ch.String(), res.For(ch).String())
	}

	logrus.WithFields(logrus.Fields{
		"user_id":   profile.UserID,
		"operation": operation,
		"source":    source,
		"email":     res.Email.String(),
		"mobile":    res.Mobile.String(),
	}).Debug("Contact profile ingested")
}

func changed(res index.Result) bool {
	for _, ch := range index.Channels {
		switch res.For(ch) {
		case index.TransitionClaimed, index.TransitionReleased, index.TransitionMoved:
			return true
		}
	}
	return false
}
