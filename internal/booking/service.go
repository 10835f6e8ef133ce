// Package booking runs the transport request lifecycle on top of the
// dispatcher: create, query, persist, publish, cancel.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tournevent/transports/internal/events"
	"github.com/tournevent/transports/internal/store"
	"github.com/tournevent/transports/internal/telemetry"
	"github.com/tournevent/transports/pkg/transport"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Repository persists transport requests.
type Repository interface {
	Create(ctx context.Context, req *transport.Request) error
	Update(ctx context.Context, req *transport.Request) error
	Get(ctx context.Context, id uuid.UUID) (*transport.Request, error)
	FindByReference(ctx context.Context, platform, reference string) (*transport.Request, error)
	List(ctx context.Context, filter store.ListFilter) ([]*transport.Request, error)
	Cancel(ctx context.Context, id uuid.UUID) (*transport.Request, error)
}

// Dispatcher sends a request to its carrier.
type Dispatcher interface {
	Query(ctx context.Context, req *transport.Request, boxes []transport.Box) error
	ResolveProtocol(platform string) (transport.Protocol, transport.PlatformConfig, error)
}

// unknownPlatform labels metrics of platforms that are not configured, so
// caller input never becomes a series of its own.
const unknownPlatform = "unknown"

// ErrCancelled is returned when booking or cancelling a request that is already cancelled.
var ErrCancelled = errors.New("transport request is cancelled")

// Input is what a caller supplies to book a transport.
type Input struct {
	Platform    string
	Reverse     string
	Notes       string
	Origin      transport.Address
	Destination transport.Address
	Boxes       []transport.BoxSpec
}

// Service books and cancels transport requests.
type Service struct {
	dispatcher Dispatcher
	repo       Repository
	publisher  events.Publisher
	metrics    *telemetry.Metrics
	logger     *otelzap.Logger
	now        func() time.Time
}

// NewService creates a booking service.
func NewService(dispatcher Dispatcher, repo Repository, publisher events.Publisher, metrics *telemetry.Metrics, logger *otelzap.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		dispatcher: dispatcher,
		repo:       repo,
		publisher:  publisher,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Book creates a request, queries its carrier and persists the outcome.
// The returned request carries the audit trail even when the query fails.
func (s *Service) Book(ctx context.Context, in Input) (*transport.Request, error) {
	log := s.logger.Ctx(ctx)

	req := transport.NewRequest(in.Platform, in.Origin, in.Destination)
	req.Reverse = in.Reverse
	req.Notes = in.Notes

	if err := s.repo.Create(ctx, req); err != nil {
		log.Warn("Cannot register transport request", zap.String("platform", in.Platform), zap.Error(err))
		return nil, err
	}

	boxes := make([]transport.Box, len(in.Boxes))
	for i, b := range in.Boxes {
		boxes[i] = b
	}

	start := s.now()
	queryErr := s.dispatcher.Query(ctx, req, boxes)
	elapsed := s.now().Sub(start).Seconds()

	s.record(req, queryErr, elapsed)

	if err := s.repo.Update(ctx, req); err != nil {
		log.Error("Cannot persist transport request",
			zap.String("request_id", req.ID.String()),
			zap.Error(err),
		)
		return req, errors.Join(queryErr, err)
	}

	eventType := events.TypeRequested
	if queryErr != nil {
		eventType = events.TypeFailed
	}
	s.publish(ctx, events.NewEvent(eventType, req, queryErr, s.now()))

	return req, queryErr
}

// Cancel flags a request as cancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*transport.Request, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Cancelled {
		return current, fmt.Errorf("%w: %s", ErrCancelled, id)
	}

	req, err := s.repo.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordCancel(s.platformLabel(req.Platform))
	s.logger.Ctx(ctx).Info("Transport request cancelled",
		zap.String("request_id", req.ID.String()),
		zap.String("reference", req.ReferenceValue()),
	)
	s.publish(ctx, events.NewEvent(events.TypeCancelled, req, nil, s.now()))
	return req, nil
}

// Get returns a request by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*transport.Request, error) {
	return s.repo.Get(ctx, id)
}

// FindByReference returns a request by carrier reference.
func (s *Service) FindByReference(ctx context.Context, platform, reference string) (*transport.Request, error) {
	return s.repo.FindByReference(ctx, platform, reference)
}

// List returns stored requests.
func (s *Service) List(ctx context.Context, filter store.ListFilter) ([]*transport.Request, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) record(req *transport.Request, err error, elapsed float64) {
	status := transport.Classify(err)
	s.metrics.RecordQuery(s.platformLabel(req.Platform), string(req.Protocol), status, elapsed)
	if err != nil {
		s.metrics.RecordError(string(req.Protocol), status)
	}
}

func (s *Service) platformLabel(platform string) string {
	if _, _, err := s.dispatcher.ResolveProtocol(platform); err != nil {
		return unknownPlatform
	}
	return platform
}

// publish never fails the caller; events are best effort.
func (s *Service) publish(ctx context.Context, ev events.Event) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Ctx(ctx).Warn("Transport event dropped",
			zap.String("type", ev.Type),
			zap.String("request_id", ev.RequestID),
			zap.Error(err),
		)
	}
}
