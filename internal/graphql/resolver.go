package graphql

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/tournevent/transports/internal/booking"
	"github.com/tournevent/transports/internal/store"
	"github.com/tournevent/transports/pkg/transport"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const maxListLimit = 200

// Booker is the booking service used by the resolvers.
type Booker interface {
	Book(ctx context.Context, in booking.Input) (*transport.Request, error)
	Cancel(ctx context.Context, id uuid.UUID) (*transport.Request, error)
	Get(ctx context.Context, id uuid.UUID) (*transport.Request, error)
	FindByReference(ctx context.Context, platform, reference string) (*transport.Request, error)
	List(ctx context.Context, filter store.ListFilter) ([]*transport.Request, error)
}

// Resolver is the root resolver for the GraphQL schema.
// It holds dependencies needed by all resolvers.
type Resolver struct {
	Booking   Booker
	Platforms map[string]transport.PlatformConfig
	Registry  *transport.Registry
	Real      bool
	Logger    *otelzap.Logger
}

// NewResolver creates a new resolver with the given dependencies.
func NewResolver(booker Booker, cfg transport.StaticConfig, registry *transport.Registry, logger *otelzap.Logger) *Resolver {
	return &Resolver{
		Booking:   booker,
		Platforms: cfg.Platforms,
		Registry:  registry,
		Real:      cfg.Real,
		Logger:    logger,
	}
}

// Query returns the query resolver.
func (r *Resolver) Query() *QueryResolver { return &QueryResolver{r} }

// Mutation returns the mutation resolver.
func (r *Resolver) Mutation() *MutationResolver { return &MutationResolver{r} }

// QueryResolver resolves Query fields.
type QueryResolver struct{ *Resolver }

// Health resolves Query.health.
func (q *QueryResolver) Health(ctx context.Context) (string, error) {
	return "ok", nil
}

// Environment resolves Query.environment.
func (q *QueryResolver) Environment(ctx context.Context) (string, error) {
	return transport.EnvironmentLabel(q.Real), nil
}

// PlatformList resolves Query.platforms.
func (q *QueryResolver) PlatformList(ctx context.Context) ([]*Platform, error) {
	names := make([]string, 0, len(q.Platforms))
	for name := range q.Platforms {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*Platform, 0, len(names))
	for _, name := range names {
		cfg := q.Platforms[name]
		available := false
		if p, ok := transport.ParseProtocol(cfg.Protocol); ok && q.Registry != nil {
			_, err := q.Registry.Get(p)
			available = err == nil
		}
		out = append(out, &Platform{Name: name, Protocol: cfg.Protocol, Available: available})
	}
	return out, nil
}

// TransportRequest resolves Query.transportRequest. Unknown IDs resolve to null.
func (q *QueryResolver) TransportRequest(ctx context.Context, id string) (*TransportRequest, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid id %q", id)
	}
	req, err := q.Booking.Get(ctx, uid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return requestToGraphQL(req), nil
}

// TransportRequestByReference resolves Query.transportRequestByReference.
func (q *QueryResolver) TransportRequestByReference(ctx context.Context, platform, reference string) (*TransportRequest, error) {
	req, err := q.Booking.FindByReference(ctx, platform, reference)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return requestToGraphQL(req), nil
}

// TransportRequests resolves Query.transportRequests.
func (q *QueryResolver) TransportRequests(ctx context.Context, platform *string, includeCancelled *bool, limit *int) ([]*TransportRequest, error) {
	filter := store.ListFilter{Limit: maxListLimit}
	if platform != nil {
		filter.Platform = *platform
	}
	if includeCancelled != nil {
		filter.IncludeCancelled = *includeCancelled
	}
	if limit != nil && *limit > 0 && *limit < maxListLimit {
		filter.Limit = *limit
	}

	reqs, err := q.Booking.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]*TransportRequest, len(reqs))
	for i, req := range reqs {
		out[i] = requestToGraphQL(req)
	}
	return out, nil
}

// MutationResolver resolves Mutation fields.
type MutationResolver struct{ *Resolver }

// BookTransport resolves Mutation.bookTransport. Booking failures are
// reported in the result, together with the request audit trail.
func (m *MutationResolver) BookTransport(ctx context.Context, input BookTransportInput) (*BookTransportResult, error) {
	log := m.Logger.Ctx(ctx)

	req, err := m.Booking.Book(ctx, bookingInputToModel(input))
	result := &BookTransportResult{
		Success: err == nil,
		Request: requestToGraphQL(req),
	}
	if err != nil {
		log.Warn("bookTransport failed",
			zap.String("platform", input.Platform),
			zap.String("error_type", transport.Classify(err)),
			zap.Error(err),
		)
		result.Errors = []*Error{errorToGraphQL(err)}
	}
	return result, nil
}

// CancelTransport resolves Mutation.cancelTransport.
func (m *MutationResolver) CancelTransport(ctx context.Context, id string) (*CancelTransportResult, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid id %q", id)
	}

	req, err := m.Booking.Cancel(ctx, uid)
	result := &CancelTransportResult{
		Success: err == nil,
		Request: requestToGraphQL(req),
	}
	if err != nil {
		result.Errors = []*Error{errorToGraphQL(err)}
	}
	return result, nil
}
