package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"fintechbank_backend/internal/models"
)

// InMemoryClientRepository keeps clients in process memory. Unique-key checks
// and writes happen under one lock, so it gives the same conflict guarantees
// as the unique indexes of the PostgreSQL store.
type InMemoryClientRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]models.Client
	now    func() time.Time
}

// NewInMemoryClientRepository creates an empty in-memory store.
func NewInMemoryClientRepository() *InMemoryClientRepository {
	return &InMemoryClientRepository{
		byID: make(map[int64]models.Client),
		now:  time.Now,
	}
}

// conflictLocked reports the unique column that c would collide on, ignoring
// the record with c.ID. Callers hold mu.
func (r *InMemoryClientRepository) conflictLocked(c *models.Client) string {
	for id, existing := range r.byID {
		if id == c.ID {
			continue
		}
		switch {
		case existing.AccountNumber == c.AccountNumber:
			return "clientes_numero_cuenta_key"
		case existing.Email == c.Email:
			return "clientes_correo_electronico_key"
		case existing.IdentificationNumber == c.IdentificationNumber:
			return "clientes_numero_identificacion_key"
		}
	}
	return ""
}

func (r *InMemoryClientRepository) CreateClient(_ context.Context, client *models.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	candidate := *client
	candidate.ID = 0
	if constraint := r.conflictLocked(&candidate); constraint != "" {
		return fmt.Errorf("%w (constraint: %s)", ErrDuplicateKey, constraint)
	}
	r.nextID++
	client.ID = r.nextID
	client.CreatedAt = r.now()
	client.UpdatedAt = nil
	r.byID[client.ID] = copyClient(*client)
	return nil
}

func (r *InMemoryClientRepository) findLocked(match func(models.Client) bool) (*models.Client, error) {
	for _, c := range r.byID {
		if match(c) {
			found := copyClient(c)
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (r *InMemoryClientRepository) GetClientByID(_ context.Context, id int64) (*models.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	found := copyClient(c)
	return &found, nil
}

func (r *InMemoryClientRepository) GetClientByEmail(_ context.Context, email string) (*models.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findLocked(func(c models.Client) bool { return c.Email == email })
}

func (r *InMemoryClientRepository) GetClientByAccountNumber(_ context.Context, accountNumber string) (*models.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findLocked(func(c models.Client) bool { return c.AccountNumber == accountNumber })
}

func (r *InMemoryClientRepository) GetClientByIdentificationNumber(_ context.Context, identificationNumber string) (*models.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findLocked(func(c models.Client) bool { return c.IdentificationNumber == identificationNumber })
}

func (r *InMemoryClientRepository) GetClients(_ context.Context, filter models.ClientFilter, limit, offset int) ([]models.Client, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name := strings.ToLower(filter.Name)
	matched := make([]models.Client, 0, len(r.byID))
	for _, c := range r.byID {
		if name != "" && !strings.Contains(strings.ToLower(c.FirstName), name) {
			continue
		}
		if filter.ClientType != "" && c.ClientType != filter.ClientType {
			continue
		}
		matched = append(matched, c)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	clients := []models.Client{}
	if offset < 0 || limit <= 0 || offset >= total {
		return clients, total, nil
	}
	end := offset + limit
	if end > total || end < offset {
		end = total
	}
	for _, c := range matched[offset:end] {
		clients = append(clients, copyClient(c))
	}
	return clients, total, nil
}

func (r *InMemoryClientRepository) UpdateClient(_ context.Context, client *models.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[client.ID]
	if !ok {
		return ErrNotFound
	}
	if constraint := r.conflictLocked(client); constraint != "" {
		return fmt.Errorf("%w (constraint: %s)", ErrDuplicateKey, constraint)
	}
	updatedAt := r.now()
	client.CreatedAt = existing.CreatedAt
	client.UpdatedAt = &updatedAt
	r.byID[client.ID] = copyClient(*client)
	return nil
}

func (r *InMemoryClientRepository) DeleteClient(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return false, nil
	}
	delete(r.byID, id)
	return true, nil
}

// copyClient detaches the optional fields so callers cannot mutate stored state.
func copyClient(c models.Client) models.Client {
	c.Address = cloneString(c.Address)
	c.Phone = cloneString(c.Phone)
	c.Profession = cloneString(c.Profession)
	c.Nationality = cloneString(c.Nationality)
	if c.MaritalStatus != nil {
		ms := *c.MaritalStatus
		c.MaritalStatus = &ms
	}
	if c.Gender != nil {
		g := *c.Gender
		c.Gender = &g
	}
	if c.UpdatedAt != nil {
		t := *c.UpdatedAt
		c.UpdatedAt = &t
	}
	return c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
