package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"fintechbank_backend/internal/models"
)

const (
	minClientAge = 18
	maxClientAge = 120
)

// --- Client DTOs ---

// CreateClientRequest carries a full client record as supplied by the caller.
type CreateClientRequest struct {
	FirstName            string                `json:"nombre" validate:"required,min=2,max=100"`
	LastName             string                `json:"apellido" validate:"required,min=2,max=100"`
	AccountNumber        string                `json:"numero_cuenta" validate:"required,min=10,max=20"`
	Balance              *decimal.Decimal      `json:"saldo"`
	BirthDate            *models.Date          `json:"fecha_nacimiento" validate:"required"`
	Address              *string               `json:"direccion" validate:"omitnil,max=255"`
	Phone                *string               `json:"telefono" validate:"omitnil,max=20"`
	Email                string                `json:"correo_electronico" validate:"required,max=100,email"`
	ClientType           *models.ClientType    `json:"tipo_cliente" validate:"omitnil,oneof=individual corporativo vip"`
	MaritalStatus        *models.MaritalStatus `json:"estado_civil" validate:"omitnil,oneof=soltero casado divorciado viudo"`
	IdentificationNumber string                `json:"numero_identificacion" validate:"required,min=5,max=20"`
	Profession           *string               `json:"profesion" validate:"omitnil,max=100"`
	Gender               *models.Gender        `json:"genero" validate:"omitnil,oneof=masculino femenino otro"`
	Nationality          *string               `json:"nacionalidad" validate:"omitnil,max=50"`
}

// UpdateClientRequest is a partial update: nil fields are left unchanged.
type UpdateClientRequest struct {
	FirstName            *string               `json:"nombre" validate:"omitnil,min=2,max=100"`
	LastName             *string               `json:"apellido" validate:"omitnil,min=2,max=100"`
	AccountNumber        *string               `json:"numero_cuenta" validate:"omitnil,min=10,max=20"`
	Balance              *decimal.Decimal      `json:"saldo"`
	BirthDate            *models.Date          `json:"fecha_nacimiento"`
	Address              *string               `json:"direccion" validate:"omitnil,max=255"`
	Phone                *string               `json:"telefono" validate:"omitnil,max=20"`
	Email                *string               `json:"correo_electronico" validate:"omitnil,max=100,email"`
	ClientType           *models.ClientType    `json:"tipo_cliente" validate:"omitnil,oneof=individual corporativo vip"`
	MaritalStatus        *models.MaritalStatus `json:"estado_civil" validate:"omitnil,oneof=soltero casado divorciado viudo"`
	IdentificationNumber *string               `json:"numero_identificacion" validate:"omitnil,min=5,max=20"`
	Profession           *string               `json:"profesion" validate:"omitnil,max=100"`
	Gender               *models.Gender        `json:"genero" validate:"omitnil,oneof=masculino femenino otro"`
	Nationality          *string               `json:"nacionalidad" validate:"omitnil,max=50"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their wire names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidateCreateClient checks every field of a new client against the
// record constraints and the age rule as of today.
func ValidateCreateClient(req *CreateClientRequest, today models.Date) error {
	if err := validate.Struct(req); err != nil {
		return translateValidationError(err)
	}
	if err := validateBalance(req.Balance); err != nil {
		return err
	}
	return validateBirthDate(*req.BirthDate, today)
}

// ValidateUpdateClient checks only the fields present in req.
func ValidateUpdateClient(req *UpdateClientRequest, today models.Date) error {
	if err := validate.Struct(req); err != nil {
		return translateValidationError(err)
	}
	if err := validateBalance(req.Balance); err != nil {
		return err
	}
	if req.BirthDate != nil {
		return validateBirthDate(*req.BirthDate, today)
	}
	return nil
}

// ValidateEmail checks a single address with the same rule as client records.
func ValidateEmail(email string) error {
	if err := validate.Var(email, "required,max=100,email"); err != nil {
		return newValidationError("correo_electronico", "must be a valid email address")
	}
	return nil
}

// ValidateClientType rejects unknown category filters.
func ValidateClientType(t models.ClientType) error {
	if t != "" && !t.Valid() {
		return newValidationError("tipo_cliente", "must be one of: individual, corporativo, vip")
	}
	return nil
}

func validateBalance(balance *decimal.Decimal) error {
	if balance != nil && balance.IsNegative() {
		return newValidationError("saldo", "must be greater than or equal to 0")
	}
	return nil
}

func validateBirthDate(birthDate, today models.Date) error {
	age := birthDate.AgeOn(today)
	if age < minClientAge {
		return newValidationError("fecha_nacimiento", fmt.Sprintf("client must be at least %d years old", minClientAge))
	}
	if age > maxClientAge {
		return newValidationError("fecha_nacimiento", "birth date is not valid")
	}
	return nil
}

func translateValidationError(err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return newValidationError("", err.Error())
	}
	fe := fieldErrors[0]
	return newValidationError(fe.Field(), validationReason(fe))
}

func validationReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	return "is invalid"
}
