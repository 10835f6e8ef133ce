package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tournevent/transports/pkg/transport"
)

// MemoryRepository keeps requests in memory. It is used when no database is
// configured and mirrors the unique (reference, platform) constraint.
type MemoryRepository struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]RequestDTO
	now      func() time.Time
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		requests: make(map[uuid.UUID]RequestDTO),
		now:      time.Now,
	}
}

// Create inserts a new request.
func (m *MemoryRepository) Create(ctx context.Context, req *transport.Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.requests[req.ID]; ok {
		return fmt.Errorf("%w: id %s", ErrDuplicateReference, req.ID)
	}
	dto := fromDomain(req)
	if err := m.checkUnique(dto); err != nil {
		return err
	}
	now := m.now()
	dto.CreatedAt, dto.UpdatedAt = now, now
	m.requests[dto.ID] = dto
	req.CreatedAt, req.UpdatedAt = now, now
	return nil
}

// Update saves every mutable field of an existing request.
func (m *MemoryRepository) Update(ctx context.Context, req *transport.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.requests[req.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, req.ID)
	}
	dto := fromDomain(req)
	if err := m.checkUnique(dto); err != nil {
		return err
	}
	dto.CreatedAt = existing.CreatedAt
	dto.UpdatedAt = m.now()
	m.requests[dto.ID] = dto
	req.UpdatedAt = dto.UpdatedAt
	return nil
}

// Get retrieves a request by ID.
func (m *MemoryRepository) Get(ctx context.Context, id uuid.UUID) (*transport.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dto, ok := m.requests[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return toDomain(dto), nil
}

// FindByReference retrieves a request by carrier reference on a platform.
func (m *MemoryRepository) FindByReference(ctx context.Context, platform, reference string) (*transport.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, dto := range m.requests {
		if dto.Platform == platform && dto.Reference != nil && *dto.Reference == reference {
			return toDomain(dto), nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, platform, reference)
}

// List returns requests, newest first.
func (m *MemoryRepository) List(ctx context.Context, filter ListFilter) ([]*transport.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dtos := make([]RequestDTO, 0, len(m.requests))
	for _, dto := range m.requests {
		if filter.Platform != "" && dto.Platform != filter.Platform {
			continue
		}
		if dto.Cancelled && !filter.IncludeCancelled {
			continue
		}
		dtos = append(dtos, dto)
	}
	sort.Slice(dtos, func(i, j int) bool { return dtos[i].CreatedAt.After(dtos[j].CreatedAt) })
	if filter.Limit > 0 && len(dtos) > filter.Limit {
		dtos = dtos[:filter.Limit]
	}

	out := make([]*transport.Request, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, toDomain(dto))
	}
	return out, nil
}

// Cancel flags a request as cancelled and returns it.
func (m *MemoryRepository) Cancel(ctx context.Context, id uuid.UUID) (*transport.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dto, ok := m.requests[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	dto.Cancelled = true
	dto.UpdatedAt = m.now()
	m.requests[id] = dto
	return toDomain(dto), nil
}

// checkUnique must be called with mu held.
func (m *MemoryRepository) checkUnique(dto RequestDTO) error {
	if dto.Reference == nil {
		return nil
	}
	for id, other := range m.requests {
		if id != dto.ID && other.Platform == dto.Platform && other.Reference != nil && *other.Reference == *dto.Reference {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateReference, dto.Platform, *dto.Reference)
		}
	}
	return nil
}
