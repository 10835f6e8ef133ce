package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tournevent/transports/pkg/transport"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrNotFound is returned when no request matches.
	ErrNotFound = errors.New("transport request not found")

	// ErrDuplicateReference is returned when a reference is already used on the platform.
	ErrDuplicateReference = errors.New("reference already registered for platform")
)

// Open connects to PostgreSQL and migrates the schema.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the transport_requests table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&RequestDTO{}); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

// Repository stores transport requests using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new request.
func (r *Repository) Create(ctx context.Context, req *transport.Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	dto := fromDomain(req)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return translate(err)
	}
	req.CreatedAt = dto.CreatedAt
	req.UpdatedAt = dto.UpdatedAt
	return nil
}

// Update saves every mutable field of an existing request.
func (r *Repository) Update(ctx context.Context, req *transport.Request) error {
	dto := fromDomain(req)
	result := r.db.WithContext(ctx).
		Model(&RequestDTO{}).
		Where("id = ?", dto.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(&dto)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, req.ID)
	}
	return nil
}

// Get retrieves a request by ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*transport.Request, error) {
	var dto RequestDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	return toDomain(dto), nil
}

// FindByReference retrieves a request by carrier reference on a platform.
func (r *Repository) FindByReference(ctx context.Context, platform, reference string) (*transport.Request, error) {
	var dto RequestDTO
	err := r.db.WithContext(ctx).
		First(&dto, "platform = ? AND reference = ?", platform, reference).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, platform, reference)
		}
		return nil, err
	}
	return toDomain(dto), nil
}

// ListFilter narrows List results.
type ListFilter struct {
	Platform         string
	IncludeCancelled bool
	Limit            int
}

// List returns requests, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]*transport.Request, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if filter.Platform != "" {
		q = q.Where("platform = ?", filter.Platform)
	}
	if !filter.IncludeCancelled {
		q = q.Where("cancelled = ?", false)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var dtos []RequestDTO
	if err := q.Find(&dtos).Error; err != nil {
		return nil, err
	}

	out := make([]*transport.Request, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, toDomain(dto))
	}
	return out, nil
}

// Cancel flags a request as cancelled and returns it.
func (r *Repository) Cancel(ctx context.Context, id uuid.UUID) (*transport.Request, error) {
	result := r.db.WithContext(ctx).
		Model(&RequestDTO{}).
		Where("id = ?", id).
		Update("cancelled", true)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r.Get(ctx, id)
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicateReference, err)
	}
	return err
}
