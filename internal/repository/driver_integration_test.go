//go:build integration

package repository_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"service-parcel-platform/internal/apperr"
	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/repository"
)

type DriverRepositorySuite struct {
	suite.Suite
	pool *pgxpool.Pool
	repo *repository.DriverRepo
}

func (s *DriverRepositorySuite) SetupSuite() {
	s.Require().NotNil(tcPool, "tcPool must be initialized in TestMain")

	s.pool = tcPool
	s.repo = repository.NewDriverRepo(tcPool)
}

func (s *DriverRepositorySuite) SetupTest() {
	_, err := s.pool.Exec(context.Background(), `TRUNCATE parcels, drivers CASCADE`)
	s.Require().NoError(err)
}

func sampleDriver(name, phone, email, license string) *domain.Driver {
	return &domain.Driver{ID: uuid.New(), Name: name, Phone: phone, Email: email, LicenseNumber: license}
}

func (s *DriverRepositorySuite) TestCreateAndGet() {
	ctx := context.Background()
	in := sampleDriver("Joe", "+254711111111", "joe@example.com", "DL-1")

	s.Require().NoError(s.repo.Create(ctx, in))

	got, err := s.repo.Get(ctx, in.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(in.Name, got.Name)
	s.Equal(in.LicenseNumber, got.LicenseNumber)
	s.False(got.CreatedAt.IsZero())
}

func (s *DriverRepositorySuite) TestCreate_DuplicateLicense() {
	ctx := context.Background()
	s.Require().NoError(s.repo.Create(ctx, sampleDriver("A", "+254711111111", "a@example.com", "DL-1")))

	err := s.repo.Create(ctx, sampleDriver("B", "+254722222222", "b@example.com", "DL-1"))
	s.Require().ErrorIs(err, apperr.ErrConflict)
}

func (s *DriverRepositorySuite) TestGet_NotFound() {
	got, err := s.repo.Get(context.Background(), uuid.New())
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *DriverRepositorySuite) TestList_LimitOffset() {
	ctx := context.Background()
	for i, name := range []string{"Cid", "Ann", "Bob"} {
		d := sampleDriver(name, "+25471111111"+string(rune('0'+i)), name+"@example.com", "DL-"+name)
		s.Require().NoError(s.repo.Create(ctx, d))
	}

	all, err := s.repo.List(ctx, nil, nil)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal("Ann", all[0].Name)

	limit, offset := 1, 1
	page, err := s.repo.List(ctx, &limit, &offset)
	s.Require().NoError(err)
	s.Require().Len(page, 1)
	s.Equal("Bob", page[0].Name)
}

func (s *DriverRepositorySuite) TestUpdatePartial() {
	ctx := context.Background()
	d := sampleDriver("Joe", "+254711111111", "joe@example.com", "DL-1")
	s.Require().NoError(s.repo.Create(ctx, d))
	other := sampleDriver("Kim", "+254722222222", "kim@example.com", "DL-2")
	s.Require().NoError(s.repo.Create(ctx, other))

	name := "Joseph"
	ok, err := s.repo.UpdatePartial(ctx, domain.PartialDriverUpdate{ID: d.ID, Name: &name})
	s.Require().NoError(err)
	s.True(ok)

	got, err := s.repo.Get(ctx, d.ID)
	s.Require().NoError(err)
	s.Equal("Joseph", got.Name)
	s.Equal("+254711111111", got.Phone)

	phone := other.Phone
	_, err = s.repo.UpdatePartial(ctx, domain.PartialDriverUpdate{ID: d.ID, Phone: &phone})
	s.Require().ErrorIs(err, apperr.ErrConflict)

	ok, err = s.repo.UpdatePartial(ctx, domain.PartialDriverUpdate{ID: uuid.New(), Name: &name})
	s.Require().NoError(err)
	s.False(ok)
}

func TestDriverRepositorySuite(t *testing.T) {
	suite.Run(t, new(DriverRepositorySuite))
}
