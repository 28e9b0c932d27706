package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fintechbank_backend/internal/models"
)

// ClientRepository defines the interface for client-related storage operations.
// Implementations must detect unique-key conflicts atomically with the write.
type ClientRepository interface {
	CreateClient(ctx context.Context, client *models.Client) error
	GetClientByID(ctx context.Context, id int64) (*models.Client, error)
	GetClientByEmail(ctx context.Context, email string) (*models.Client, error)
	GetClientByAccountNumber(ctx context.Context, accountNumber string) (*models.Client, error)
	GetClientByIdentificationNumber(ctx context.Context, identificationNumber string) (*models.Client, error)
	GetClients(ctx context.Context, filter models.ClientFilter, limit, offset int) ([]models.Client, int, error) // Clients, total count, error
	UpdateClient(ctx context.Context, client *models.Client) error
	DeleteClient(ctx context.Context, id int64) (bool, error)
}

const clientColumns = `id, nombre, apellido, numero_cuenta, saldo, fecha_nacimiento, direccion, telefono,
	correo_electronico, tipo_cliente, estado_civil, numero_identificacion, profesion, genero, nacionalidad,
	created_at, updated_at`

type clientRepository struct {
	db *sql.DB
}

// NewClientRepository creates a PostgreSQL-backed ClientRepository.
func NewClientRepository(db *sql.DB) ClientRepository {
	return &clientRepository{db: db}
}

func scanClient(row scanner) (*models.Client, error) {
	var (
		client        models.Client
		maritalStatus sql.NullString
		gender        sql.NullString
		updatedAt     sql.NullTime
	)
	err := row.Scan(
		&client.ID, &client.FirstName, &client.LastName, &client.AccountNumber, &client.Balance,
		&client.BirthDate, &client.Address, &client.Phone, &client.Email, &client.ClientType,
		&maritalStatus, &client.IdentificationNumber, &client.Profession, &gender, &client.Nationality,
		&client.CreatedAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if maritalStatus.Valid {
		ms := models.MaritalStatus(maritalStatus.String)
		client.MaritalStatus = &ms
	}
	if gender.Valid {
		g := models.Gender(gender.String)
		client.Gender = &g
	}
	if updatedAt.Valid {
		client.UpdatedAt = &updatedAt.Time
	}
	return &client, nil
}

// CreateClient inserts a new client. ID and CreatedAt are assigned by the database.
func (r *clientRepository) CreateClient(ctx context.Context, client *models.Client) error {
	query := `INSERT INTO clientes (nombre, apellido, numero_cuenta, saldo, fecha_nacimiento, direccion, telefono,
	              correo_electronico, tipo_cliente, estado_civil, numero_identificacion, profesion, genero, nacionalidad)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	          RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		client.FirstName, client.LastName, client.AccountNumber, client.Balance, client.BirthDate,
		client.Address, client.Phone, client.Email, client.ClientType, client.MaritalStatus,
		client.IdentificationNumber, client.Profession, client.Gender, client.Nationality,
	).Scan(&client.ID, &client.CreatedAt)
	if err != nil {
		return translateWriteError(err, "creating client")
	}
	client.UpdatedAt = nil
	return nil
}

func (r *clientRepository) getClientBy(ctx context.Context, column string, value interface{}) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clientes WHERE ` + column + ` = $1`
	client, err := scanClient(r.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting client by %s: %v", ErrDatabaseError, column, err)
	}
	return client, nil
}

// GetClientByID retrieves a client by their ID.
func (r *clientRepository) GetClientByID(ctx context.Context, id int64) (*models.Client, error) {
	return r.getClientBy(ctx, "id", id)
}

// GetClientByEmail retrieves a client by their email address.
func (r *clientRepository) GetClientByEmail(ctx context.Context, email string) (*models.Client, error) {
	return r.getClientBy(ctx, "correo_electronico", email)
}

// GetClientByAccountNumber retrieves a client by their account number.
func (r *clientRepository) GetClientByAccountNumber(ctx context.Context, accountNumber string) (*models.Client, error) {
	return r.getClientBy(ctx, "numero_cuenta", accountNumber)
}

// GetClientByIdentificationNumber retrieves a client by their identification number.
func (r *clientRepository) GetClientByIdentificationNumber(ctx context.Context, identificationNumber string) (*models.Client, error) {
	return r.getClientBy(ctx, "numero_identificacion", identificationNumber)
}

// likeEscaper neutralises LIKE wildcards in user-supplied search terms.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// GetClients retrieves one page of clients plus the total number of matches.
// Both queries run in one read-only snapshot so the total agrees with the page.
func (r *clientRepository) GetClients(ctx context.Context, filter models.ClientFilter, limit, offset int) ([]models.Client, int, error) {
	var conditions []string
	var args []interface{}
	argCount := 1

	if filter.Name != "" {
		conditions = append(conditions, fmt.Sprintf(`nombre ILIKE $%d ESCAPE '\'`, argCount))
		args = append(args, "%"+likeEscaper.Replace(filter.Name)+"%")
		argCount++
	}
	if filter.ClientType != "" {
		conditions = append(conditions, fmt.Sprintf("tipo_cliente = $%d", argCount))
		args = append(args, filter.ClientType)
		argCount++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: starting client listing: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback() //nolint:errcheck // read-only

	totalCount := 0
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM clientes`+where, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("%w: counting clients: %v", ErrDatabaseError, err)
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + clientColumns + ` FROM clientes`)
	queryBuilder.WriteString(where)
	queryBuilder.WriteString(" ORDER BY id ASC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, limit, offset)

	clients, err := queryClients(ctx, tx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, err
	}
	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("%w: finishing client listing: %v", ErrDatabaseError, err)
	}
	return clients, totalCount, nil
}

func queryClients(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) ([]models.Client, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying clients: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	clients := []models.Client{}
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning client: %v", ErrDatabaseError, err)
		}
		clients = append(clients, *client)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating client rows: %v", ErrDatabaseError, err)
	}
	return clients, nil
}

// UpdateClient writes every mutable column of client and stamps updated_at.
func (r *clientRepository) UpdateClient(ctx context.Context, client *models.Client) error {
	query := `UPDATE clientes SET
	            nombre = $1, apellido = $2, numero_cuenta = $3, saldo = $4, fecha_nacimiento = $5,
	            direccion = $6, telefono = $7, correo_electronico = $8, tipo_cliente = $9, estado_civil = $10,
	            numero_identificacion = $11, profesion = $12, genero = $13, nacionalidad = $14, updated_at = NOW()
	          WHERE id = $15
	          RETURNING updated_at`

	var updatedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query,
		client.FirstName, client.LastName, client.AccountNumber, client.Balance, client.BirthDate,
		client.Address, client.Phone, client.Email, client.ClientType, client.MaritalStatus,
		client.IdentificationNumber, client.Profession, client.Gender, client.Nationality, client.ID,
	).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return translateWriteError(err, fmt.Sprintf("updating client ID %d", client.ID))
	}
	if updatedAt.Valid {
		client.UpdatedAt = &updatedAt.Time
	}
	return nil
}

// DeleteClient removes a client and reports whether a row existed.
func (r *clientRepository) DeleteClient(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM clientes WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("%w: deleting client ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: getting rows affected for deleting client ID %d: %v", ErrDatabaseError, id, err)
	}
	return rowsAffected > 0, nil
}
