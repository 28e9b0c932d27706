//go:build integration

package repositories_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"fintechbank_backend/internal/models"
	"fintechbank_backend/internal/repositories"
	"fintechbank_backend/internal/testutil/containers"
)

type PostgresClientRepositorySuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	repo     repositories.ClientRepository
	users    repositories.AuthRepository
	ctx      context.Context
}

func TestPostgresClientRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresClientRepositorySuite))
}

func (s *PostgresClientRepositorySuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.repo = repositories.NewClientRepository(s.postgres.DB)
	s.users = repositories.NewAuthRepository(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *PostgresClientRepositorySuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "clientes", "users"))
}

func newClient(n int, name string) *models.Client {
	phone := "+34600000000"
	return &models.Client{
		FirstName:            name,
		LastName:             "Prueba",
		AccountNumber:        fmt.Sprintf("ACC%010d", n),
		Balance:              decimal.RequireFromString("1500.50"),
		BirthDate:            models.NewDate(1990, time.May, 20),
		Phone:                &phone,
		Email:                fmt.Sprintf("cliente%d@example.com", n),
		ClientType:           models.ClientTypeIndividual,
		IdentificationNumber: fmt.Sprintf("ID%06d", n),
	}
}

func (s *PostgresClientRepositorySuite) TestCreateAndRead() {
	c := newClient(1, "María")
	s.Require().NoError(s.repo.CreateClient(s.ctx, c))
	s.NotZero(c.ID)
	s.False(c.CreatedAt.IsZero())

	got, err := s.repo.GetClientByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal("María", got.FirstName)
	s.True(got.Balance.Equal(c.Balance))
	s.Equal(c.BirthDate, got.BirthDate)
	s.Equal("+34600000000", *got.Phone)
	s.Nil(got.Address)
	s.Nil(got.UpdatedAt)

	byEmail, err := s.repo.GetClientByEmail(s.ctx, c.Email)
	s.Require().NoError(err)
	s.Equal(c.ID, byEmail.ID)

	byIdent, err := s.repo.GetClientByIdentificationNumber(s.ctx, c.IdentificationNumber)
	s.Require().NoError(err)
	s.Equal(c.ID, byIdent.ID)

	_, err = s.repo.GetClientByAccountNumber(s.ctx, "missing")
	s.ErrorIs(err, repositories.ErrNotFound)
}

// TestConcurrentDuplicateAccount verifies that concurrent inserts of the
// same account number result in exactly one success.
func (s *PostgresClientRepositorySuite) TestConcurrentDuplicateAccount() {
	const goroutines = 20
	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := newClient(100+i, "Concurrente")
			c.AccountNumber = "SHARED00001"
			err := s.repo.CreateClient(s.ctx, c)
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, repositories.ErrDuplicateKey) {
				conflictCount.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one create should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should get a duplicate error")
}

func (s *PostgresClientRepositorySuite) TestListPaginationAndFilters() {
	for i := 1; i <= 15; i++ {
		name := fmt.Sprintf("Cliente%02d", i)
		if i <= 3 {
			name = fmt.Sprintf("María%d", i)
		}
		c := newClient(i, name)
		if i == 2 {
			c.ClientType = models.ClientTypeVIP
		}
		s.Require().NoError(s.repo.CreateClient(s.ctx, c))
	}

	page, total, err := s.repo.GetClients(s.ctx, models.ClientFilter{}, 10, 10)
	s.Require().NoError(err)
	s.Equal(15, total)
	s.Len(page, 5)
	s.Equal("Cliente11", page[0].FirstName)

	_, total, err = s.repo.GetClients(s.ctx, models.ClientFilter{Name: "MAR"}, 10, 0)
	s.Require().NoError(err)
	s.Equal(3, total)

	vip, total, err := s.repo.GetClients(s.ctx, models.ClientFilter{Name: "mar", ClientType: models.ClientTypeVIP}, 10, 0)
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal("María2", vip[0].FirstName)

	// Wildcards in the search term match literally.
	_, total, err = s.repo.GetClients(s.ctx, models.ClientFilter{Name: "%"}, 10, 0)
	s.Require().NoError(err)
	s.Zero(total)
}

func (s *PostgresClientRepositorySuite) TestUpdateAndDelete() {
	a := newClient(1, "Ana")
	b := newClient(2, "Beto")
	s.Require().NoError(s.repo.CreateClient(s.ctx, a))
	s.Require().NoError(s.repo.CreateClient(s.ctx, b))

	a.LastName = "Actualizada"
	a.Balance = decimal.RequireFromString("10.25")
	s.Require().NoError(s.repo.UpdateClient(s.ctx, a))
	s.NotNil(a.UpdatedAt)

	got, err := s.repo.GetClientByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal("Actualizada", got.LastName)
	s.True(got.Balance.Equal(decimal.RequireFromString("10.25")))

	b.IdentificationNumber = a.IdentificationNumber
	s.ErrorIs(s.repo.UpdateClient(s.ctx, b), repositories.ErrDuplicateKey)

	missing := newClient(9, "Nadie")
	missing.ID = 9999
	s.ErrorIs(s.repo.UpdateClient(s.ctx, missing), repositories.ErrNotFound)

	deleted, err := s.repo.DeleteClient(s.ctx, a.ID)
	s.Require().NoError(err)
	s.True(deleted)
	deleted, err = s.repo.DeleteClient(s.ctx, a.ID)
	s.Require().NoError(err)
	s.False(deleted)
}

func (s *PostgresClientRepositorySuite) TestUsers() {
	user := &models.User{Username: "admin", Email: "admin@fintechbank.com", HashedPassword: "hash", IsActive: true, IsAdmin: true}
	s.Require().NoError(s.users.CreateUser(s.ctx, user))
	s.NotZero(user.ID)

	exists, err := s.users.UserExists(s.ctx, "other", "admin@fintechbank.com")
	s.Require().NoError(err)
	s.True(exists)

	dup := &models.User{Username: "admin", Email: "x@fintechbank.com", HashedPassword: "hash"}
	s.ErrorIs(s.users.CreateUser(s.ctx, dup), repositories.ErrDuplicateKey)

	found, err := s.users.FindUserByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal("admin", found.Username)
}
