package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"fintechbank_backend/internal/models"
	"fintechbank_backend/internal/repositories"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ListClientsParams selects one page of the client listing.
type ListClientsParams struct {
	Page       int
	PageSize   int
	Name       string
	ClientType models.ClientType
}

// ClientPage is the page envelope returned by ListClients.
type ClientPage struct {
	Items []models.Client `json:"items"`
	Total int             `json:"total"`
	Page  int             `json:"page"`
	Size  int             `json:"size"`
	Pages int             `json:"pages"`
}

// --- ClientService Interface ---
type ClientService interface {
	CreateClient(ctx context.Context, req CreateClientRequest) (*models.Client, error)
	GetClientByID(ctx context.Context, clientID int64) (*models.Client, error)
	GetClientByEmail(ctx context.Context, email string) (*models.Client, error)
	GetClientByAccountNumber(ctx context.Context, accountNumber string) (*models.Client, error)
	ListClients(ctx context.Context, params ListClientsParams) (*ClientPage, error)
	UpdateClient(ctx context.Context, clientID int64, req UpdateClientRequest) (*models.Client, error)
	DeleteClient(ctx context.Context, clientID int64) (bool, error)
}

// --- clientService Implementation ---
type clientService struct {
	clientRepo repositories.ClientRepository
	now        func() time.Time
}

// NewClientService creates a new instance of ClientService.
func NewClientService(repo repositories.ClientRepository) ClientService {
	return &clientService{
		clientRepo: repo,
		now:        time.Now,
	}
}

func (s *clientService) today() models.Date {
	return models.DateOf(s.now())
}

func (s *clientService) CreateClient(ctx context.Context, req CreateClientRequest) (*models.Client, error) {
	if err := ValidateCreateClient(&req, s.today()); err != nil {
		return nil, err
	}

	client := &models.Client{
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		AccountNumber:        req.AccountNumber,
		Balance:              decimal.Zero,
		BirthDate:            *req.BirthDate,
		Address:              req.Address,
		Phone:                req.Phone,
		Email:                req.Email,
		ClientType:           models.ClientTypeIndividual,
		MaritalStatus:        req.MaritalStatus,
		IdentificationNumber: req.IdentificationNumber,
		Profession:           req.Profession,
		Gender:               req.Gender,
		Nationality:          req.Nationality,
	}
	if req.Balance != nil {
		client.Balance = *req.Balance
	}
	if req.ClientType != nil {
		client.ClientType = *req.ClientType
	}

	if err := s.clientRepo.CreateClient(ctx, client); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w (%v)", ErrDuplicateClient, err)
		}
		return nil, fmt.Errorf("failed to create client in repository: %w", err)
	}
	return client, nil
}

func (s *clientService) lookup(client *models.Client, err error, what string) (*models.Client, error) {
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client by %s: %w", what, err)
	}
	return client, nil
}

func (s *clientService) GetClientByID(ctx context.Context, clientID int64) (*models.Client, error) {
	client, err := s.clientRepo.GetClientByID(ctx, clientID)
	return s.lookup(client, err, "ID")
}

func (s *clientService) GetClientByEmail(ctx context.Context, email string) (*models.Client, error) {
	client, err := s.clientRepo.GetClientByEmail(ctx, email)
	return s.lookup(client, err, "email")
}

func (s *clientService) GetClientByAccountNumber(ctx context.Context, accountNumber string) (*models.Client, error) {
	client, err := s.clientRepo.GetClientByAccountNumber(ctx, accountNumber)
	return s.lookup(client, err, "account number")
}

func (s *clientService) ListClients(ctx context.Context, params ListClientsParams) (*ClientPage, error) {
	if params.Page < 1 {
		return nil, newValidationError("page", "must be greater than or equal to 1")
	}
	if params.PageSize < 1 || params.PageSize > MaxPageSize {
		return nil, newValidationError("size", fmt.Sprintf("must be between 1 and %d", MaxPageSize))
	}
	if params.Page-1 > math.MaxInt/params.PageSize {
		return nil, newValidationError("page", "is too large")
	}
	if err := ValidateClientType(params.ClientType); err != nil {
		return nil, err
	}

	offset := (params.Page - 1) * params.PageSize
	filter := models.ClientFilter{Name: params.Name, ClientType: params.ClientType}
	clients, total, err := s.clientRepo.GetClients(ctx, filter, params.PageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get clients: %w", err)
	}
	if clients == nil {
		clients = []models.Client{}
	}

	pages := 1
	if total > 0 {
		pages = (total + params.PageSize - 1) / params.PageSize
	}
	return &ClientPage{
		Items: clients,
		Total: total,
		Page:  params.Page,
		Size:  params.PageSize,
		Pages: pages,
	}, nil
}

func (s *clientService) UpdateClient(ctx context.Context, clientID int64, req UpdateClientRequest) (*models.Client, error) {
	client, err := s.clientRepo.GetClientByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to find client for update: %w", err)
	}

	if err := ValidateUpdateClient(&req, s.today()); err != nil {
		return nil, err
	}
	applyClientUpdate(client, &req)

	if err := s.clientRepo.UpdateClient(ctx, client); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w (%v)", ErrDuplicateClient, err)
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrClientNotFound // deleted between read and write
		}
		return nil, fmt.Errorf("failed to update client in repository: %w", err)
	}
	return client, nil
}

func applyClientUpdate(client *models.Client, req *UpdateClientRequest) {
	if req.FirstName != nil {
		client.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		client.LastName = *req.LastName
	}
	if req.AccountNumber != nil {
		client.AccountNumber = *req.AccountNumber
	}
	if req.Balance != nil {
		client.Balance = *req.Balance
	}
	if req.BirthDate != nil {
		client.BirthDate = *req.BirthDate
	}
	if req.Address != nil {
		client.Address = req.Address
	}
	if req.Phone != nil {
		client.Phone = req.Phone
	}
	if req.Email != nil {
		client.Email = *req.Email
	}
	if req.ClientType != nil {
		client.ClientType = *req.ClientType
	}
	if req.MaritalStatus != nil {
		client.MaritalStatus = req.MaritalStatus
	}
	if req.IdentificationNumber != nil {
		client.IdentificationNumber = *req.IdentificationNumber
	}
	if req.Profession != nil {
		client.Profession = req.Profession
	}
	if req.Gender != nil {
		client.Gender = req.Gender
	}
	if req.Nationality != nil {
		client.Nationality = req.Nationality
	}
}

func (s *clientService) DeleteClient(ctx context.Context, clientID int64) (bool, error) {
	deleted, err := s.clientRepo.DeleteClient(ctx, clientID)
	if err != nil {
		return false, fmt.Errorf("failed to delete client: %w", err)
	}
	return deleted, nil
}
