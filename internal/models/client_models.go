package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// saldo is exchanged as a JSON number, not a quoted string.
	decimal.MarshalJSONWithoutQuotes = true
}

// ClientType is the commercial category of a client.
type ClientType string

const (
	ClientTypeIndividual ClientType = "individual"
	ClientTypeCorporate  ClientType = "corporativo"
	ClientTypeVIP        ClientType = "vip"
)

// Valid reports whether t is one of the known client categories.
func (t ClientType) Valid() bool {
	switch t {
	case ClientTypeIndividual, ClientTypeCorporate, ClientTypeVIP:
		return true
	}
	return false
}

// MaritalStatus of a client.
type MaritalStatus string

const (
	MaritalStatusSingle   MaritalStatus = "soltero"
	MaritalStatusMarried  MaritalStatus = "casado"
	MaritalStatusDivorced MaritalStatus = "divorciado"
	MaritalStatusWidowed  MaritalStatus = "viudo"
)

// Gender of a client.
type Gender string

const (
	GenderMale   Gender = "masculino"
	GenderFemale Gender = "femenino"
	GenderOther  Gender = "otro"
)

// Client represents a bank customer
type Client struct {
	ID                   int64           `json:"id" db:"id"`
	FirstName            string          `json:"nombre" db:"nombre"`
	LastName             string          `json:"apellido" db:"apellido"`
	AccountNumber        string          `json:"numero_cuenta" db:"numero_cuenta"`
	Balance              decimal.Decimal `json:"saldo" db:"saldo"`
	BirthDate            Date            `json:"fecha_nacimiento" db:"fecha_nacimiento"`
	Address              *string         `json:"direccion" db:"direccion"`
	Phone                *string         `json:"telefono" db:"telefono"`
	Email                string          `json:"correo_electronico" db:"correo_electronico"`
	ClientType           ClientType      `json:"tipo_cliente" db:"tipo_cliente"`
	MaritalStatus        *MaritalStatus  `json:"estado_civil" db:"estado_civil"`
	IdentificationNumber string          `json:"numero_identificacion" db:"numero_identificacion"`
	Profession           *string         `json:"profesion" db:"profesion"`
	Gender               *Gender         `json:"genero" db:"genero"`
	Nationality          *string         `json:"nacionalidad" db:"nacionalidad"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt            *time.Time      `json:"updated_at" db:"updated_at"` // nil until the first update
}

// ClientFilter narrows a client listing. Zero values mean "no filter".
type ClientFilter struct {
	Name       string     // case-insensitive substring of FirstName
	ClientType ClientType // exact match
}
