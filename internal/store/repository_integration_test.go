package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/tournevent/transports/internal/store"
	"github.com/tournevent/transports/pkg/transport"
	"gorm.io/gorm"
)

// RepositoryIntegrationTestSuite runs the repository against a PostgreSQL container.
type RepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *store.Repository
}

func (s *RepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("transports"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := store.Open(connStr)
	s.Require().NoError(err)
	s.db = db
}

func (s *RepositoryIntegrationTestSuite) SetupTest() {
	s.Require().NoError(s.db.Exec("TRUNCATE TABLE transport_requests").Error)
	s.repository = store.NewRepository(s.db)
}

func (s *RepositoryIntegrationTestSuite) TearDownSuite() {
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(context.Background()))
	}
}

func (s *RepositoryIntegrationTestSuite) newRequest(platform string) *transport.Request {
	return transport.NewRequest(platform,
		transport.Address{Line: "Calle Larios 1", Country: "ES"},
		transport.Address{Line: "Gran Via 22", Country: "ES"},
	)
}

func (s *RepositoryIntegrationTestSuite) TestCreateAndGet() {
	ctx := context.Background()
	req := s.newRequest("mrw-es")
	req.Notes = "fragile"

	s.Require().NoError(s.repository.Create(ctx, req))
	s.False(req.CreatedAt.IsZero())

	got, err := s.repository.Get(ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(req.ID, got.ID)
	s.Equal("fragile", got.Notes)
	s.Nil(got.Reference)
	s.Equal("ES", got.Destination.Country)
}

func (s *RepositoryIntegrationTestSuite) TestCreate_InvalidRequest() {
	req := s.newRequest("mrw-es")
	req.Origin.Country = "XX"

	err := s.repository.Create(context.Background(), req)

	s.True(errors.Is(err, transport.ErrInvalidRequest))
}

func (s *RepositoryIntegrationTestSuite) TestUpdate_PersistsAuditTrail() {
	ctx := context.Background()
	req := s.newRequest("seur-es")
	s.Require().NoError(s.repository.Create(ctx, req))

	ref := "LOC1234567"
	now := time.Now().UTC().Truncate(time.Microsecond)
	req.Reference = &ref
	req.Protocol = transport.ProtocolSEUR
	req.RequestPayload = "<req/>"
	req.ResponsePayload = "<resp/>"
	req.RequestedAt = &now
	req.RespondedAt = &now
	s.Require().NoError(s.repository.Update(ctx, req))

	got, err := s.repository.Get(ctx, req.ID)
	s.Require().NoError(err)
	s.Equal("LOC1234567", got.ReferenceValue())
	s.Equal(transport.ProtocolSEUR, got.Protocol)
	s.Equal("<resp/>", got.ResponsePayload)
	s.Require().NotNil(got.RespondedAt)
	s.True(now.Equal(*got.RespondedAt))
}

func (s *RepositoryIntegrationTestSuite) TestUpdate_ClearsErrorFlag() {
	ctx := context.Background()
	req := s.newRequest("seur-es")
	req.Error = true
	req.ErrorText = "boom"
	s.Require().NoError(s.repository.Create(ctx, req))

	req.Error = false
	req.ErrorText = ""
	s.Require().NoError(s.repository.Update(ctx, req))

	got, err := s.repository.Get(ctx, req.ID)
	s.Require().NoError(err)
	s.False(got.Error)
	s.Empty(got.ErrorText)
}

func (s *RepositoryIntegrationTestSuite) TestUpdate_NotFound() {
	err := s.repository.Update(context.Background(), s.newRequest("mrw-es"))
	s.True(errors.Is(err, store.ErrNotFound))
}

func (s *RepositoryIntegrationTestSuite) TestReferenceUniquePerPlatform() {
	ctx := context.Background()
	ref := "0270012345"

	first := s.newRequest("mrw-es")
	first.Reference = &ref
	s.Require().NoError(s.repository.Create(ctx, first))

	otherPlatform := s.newRequest("mrw-pt")
	otherPlatform.Reference = &ref
	s.Require().NoError(s.repository.Create(ctx, otherPlatform))

	duplicate := s.newRequest("mrw-es")
	duplicate.Reference = &ref
	err := s.repository.Create(ctx, duplicate)
	s.True(errors.Is(err, store.ErrDuplicateReference), "got %v", err)

	s.Require().NoError(s.repository.Create(ctx, s.newRequest("mrw-es")))
	s.Require().NoError(s.repository.Create(ctx, s.newRequest("mrw-es")))
}

func (s *RepositoryIntegrationTestSuite) TestFindByReference() {
	ctx := context.Background()
	ref := "0270012345"
	req := s.newRequest("mrw-es")
	req.Reference = &ref
	s.Require().NoError(s.repository.Create(ctx, req))

	got, err := s.repository.FindByReference(ctx, "mrw-es", ref)
	s.Require().NoError(err)
	s.Equal(req.ID, got.ID)

	_, err = s.repository.FindByReference(ctx, "seur-es", ref)
	s.True(errors.Is(err, store.ErrNotFound))
}

func (s *RepositoryIntegrationTestSuite) TestCancelAndList() {
	ctx := context.Background()
	a := s.newRequest("mrw-es")
	b := s.newRequest("mrw-es")
	c := s.newRequest("seur-es")
	for _, r := range []*transport.Request{a, b, c} {
		s.Require().NoError(s.repository.Create(ctx, r))
	}

	cancelled, err := s.repository.Cancel(ctx, b.ID)
	s.Require().NoError(err)
	s.True(cancelled.Cancelled)

	active, err := s.repository.List(ctx, store.ListFilter{Platform: "mrw-es"})
	s.Require().NoError(err)
	s.Len(active, 1)
	s.Equal(a.ID, active[0].ID)

	all, err := s.repository.List(ctx, store.ListFilter{IncludeCancelled: true})
	s.Require().NoError(err)
	s.Len(all, 3)

	limited, err := s.repository.List(ctx, store.ListFilter{IncludeCancelled: true, Limit: 2})
	s.Require().NoError(err)
	s.Len(limited, 2)
}

func (s *RepositoryIntegrationTestSuite) TestGetAndCancel_NotFound() {
	ctx := context.Background()

	_, err := s.repository.Get(ctx, uuid.New())
	s.True(errors.Is(err, store.ErrNotFound))

	_, err = s.repository.Cancel(ctx, uuid.New())
	s.True(errors.Is(err, store.ErrNotFound))
}

func TestRepositoryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration tests in short mode")
	}
	suite.Run(t, new(RepositoryIntegrationTestSuite))
}
