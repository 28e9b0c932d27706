package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"

	"fintechbank_backend/internal/config"
	"fintechbank_backend/internal/metrics"
	"fintechbank_backend/internal/repositories"
	"fintechbank_backend/internal/router"
	"fintechbank_backend/internal/services"
	"fintechbank_backend/pkg/utils"
)

const (
	adminUser     = "admin"
	adminPassword = "Str0ng!Pass"
)

type APISuite struct {
	suite.Suite
	engine *gin.Engine
	token  string
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	utils.InitLoggerTo(io.Discard, "error", "json")

	cfg := config.Config{
		SecretKey:                "test-secret",
		Algorithm:                "HS256",
		AccessTokenExpireMinutes: 30,
		APIV1Str:                 "/api/v1",
		ProjectName:              "FinTechBank API",
		CORSAllowedOrigins:       "*",
		StorageDriver:            config.StorageDriverMemory,
	}
	tokens, err := utils.NewTokenManager(cfg.SecretKey, cfg.Algorithm, cfg.AccessTokenTTL())
	s.Require().NoError(err)

	authService := services.NewAuthService(repositories.NewInMemoryAuthRepository(), tokens)
	_, err = authService.CreateAdmin(context.Background(), adminUser, "admin@fintechbank.com", adminPassword)
	s.Require().NoError(err)

	s.engine = gin.New()
	router.Setup(s.engine, router.Dependencies{
		Config:        cfg,
		ClientService: services.NewClientService(repositories.NewInMemoryClientRepository()),
		AuthService:   authService,
		Metrics:       metrics.New(),
	})
	s.token = s.login()
}

func (s *APISuite) login() string {
	w := s.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": adminUser, "password": adminPassword}, false)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().Equal("bearer", resp.TokenType)
	return resp.AccessToken
}

func (s *APISuite) do(method, path string, body interface{}, auth bool) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func clientBody(n int) map[string]interface{} {
	return map[string]interface{}{
		"nombre":                "María",
		"apellido":              "García",
		"numero_cuenta":         fmt.Sprintf("ACC%010d", n),
		"saldo":                 1500.5,
		"fecha_nacimiento":      "1990-05-20",
		"correo_electronico":    fmt.Sprintf("cliente%d@example.com", n),
		"numero_identificacion": fmt.Sprintf("ID%06d", n),
	}
}

func decode(s *APISuite, w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorBody(s *APISuite, w *httptest.ResponseRecorder) map[string]interface{} {
	body := decode(s, w)
	errObj, ok := body["error"].(map[string]interface{})
	s.Require().True(ok, "expected error envelope: %s", w.Body.String())
	return errObj
}

func (s *APISuite) create(n int) int64 {
	w := s.do(http.MethodPost, "/api/v1/clientes/", clientBody(n), true)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return int64(decode(s, w)["id"].(float64))
}

func (s *APISuite) TestPublicRoutes() {
	w := s.do(http.MethodGet, "/health", nil, false)
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":"healthy","service":"fintechbank-api"}`, w.Body.String())

	w = s.do(http.MethodGet, "/", nil, false)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "FinTechBank API is running!")
	s.NotEmpty(w.Header().Get("X-Request-ID"))
}

func (s *APISuite) TestClientRoutesRequireToken() {
	w := s.do(http.MethodGet, "/api/v1/clientes/", nil, false)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Bearer", w.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clientes/1", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Could not validate credentials.", errorBody(s, w)["message"])
}

func (s *APISuite) TestLogin() {
	w := s.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": adminUser, "password": "wrong"}, false)
	s.Equal(http.StatusUnauthorized, w.Code)

	form := url.Values{"username": {adminUser}, "password": {adminPassword}, "grant_type": {"password"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/auth/me", nil, true)
	s.Equal(http.StatusOK, w.Code)
	me := decode(s, w)
	s.Equal(adminUser, me["username"])
	s.NotContains(me, "hashed_password")
}

func (s *APISuite) TestCreateAndGet() {
	w := s.do(http.MethodPost, "/api/v1/clientes/", clientBody(1), true)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	created := decode(s, w)
	s.Equal("individual", created["tipo_cliente"])
	s.Equal(1500.5, created["saldo"])
	s.Nil(created["updated_at"])
	s.NotEmpty(created["created_at"])

	id := int64(created["id"].(float64))
	w = s.do(http.MethodGet, fmt.Sprintf("/api/v1/clientes/%d", id), nil, true)
	s.Equal(http.StatusOK, w.Code)
	s.Equal(created, decode(s, w))

	w = s.do(http.MethodGet, "/api/v1/clientes/buscar/email/cliente1@example.com", nil, true)
	s.Equal(http.StatusOK, w.Code)
	w = s.do(http.MethodGet, "/api/v1/clientes/buscar/cuenta/ACC0000000001", nil, true)
	s.Equal(http.StatusOK, w.Code)
}

func (s *APISuite) TestRoundTripKeepsEverySuppliedField() {
	body := clientBody(1)
	body["direccion"] = "Calle Mayor 1, Madrid"
	body["telefono"] = "+34600000000"
	body["tipo_cliente"] = "corporativo"
	body["estado_civil"] = "casado"
	body["profesion"] = "Ingeniera"
	body["genero"] = "femenino"
	body["nacionalidad"] = "Española"

	w := s.do(http.MethodPost, "/api/v1/clientes/", body, true)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	id := int64(decode(s, w)["id"].(float64))

	w = s.do(http.MethodGet, fmt.Sprintf("/api/v1/clientes/%d", id), nil, true)
	s.Require().Equal(http.StatusOK, w.Code)
	fetched := decode(s, w)

	for field, want := range body {
		s.Equal(want, fetched[field], field)
	}
	s.NotNil(fetched["id"])
	s.NotEmpty(fetched["created_at"])
	s.Nil(fetched["updated_at"])
	s.Len(fetched, len(body)+3, "only id and the timestamps are server-assigned")
}

func (s *APISuite) TestCreateDuplicatesAreFieldSpecific() {
	s.create(1)

	dupEmail := clientBody(2)
	dupEmail["correo_electronico"] = "cliente1@example.com"
	w := s.do(http.MethodPost, "/api/v1/clientes/", dupEmail, true)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("A client with this email already exists.", errorBody(s, w)["message"])

	dupAccount := clientBody(3)
	dupAccount["numero_cuenta"] = "ACC0000000001"
	w = s.do(http.MethodPost, "/api/v1/clientes/", dupAccount, true)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("A client with this account number already exists.", errorBody(s, w)["message"])

	dupIdentification := clientBody(4)
	dupIdentification["numero_identificacion"] = "ID000001"
	w = s.do(http.MethodPost, "/api/v1/clientes/", dupIdentification, true)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("CONFLICT", errorBody(s, w)["code"])
}

func (s *APISuite) TestValidationPrecedesDuplicateChecks() {
	first := s.create(1)
	s.create(2)

	malformed := clientBody(3)
	malformed["correo_electronico"] = "cliente1@example.com"
	malformed["nombre"] = "M"
	w := s.do(http.MethodPost, "/api/v1/clientes/", malformed, true)
	s.Equal(http.StatusBadRequest, w.Code)
	errObj := errorBody(s, w)
	s.Equal("VALIDATION_FAILED", errObj["code"])
	s.Equal("nombre", errObj["field"])

	w = s.do(http.MethodPut, fmt.Sprintf("/api/v1/clientes/%d", first), map[string]interface{}{
		"correo_electronico": "cliente2@example.com",
		"apellido":           "G",
	}, true)
	s.Equal(http.StatusBadRequest, w.Code)
	errObj = errorBody(s, w)
	s.Equal("VALIDATION_FAILED", errObj["code"])
	s.Equal("apellido", errObj["field"])
}

func (s *APISuite) TestCreateValidation() {
	minor := clientBody(1)
	minor["fecha_nacimiento"] = time.Now().AddDate(-10, 0, 0).Format("2006-01-02")
	w := s.do(http.MethodPost, "/api/v1/clientes/", minor, true)
	s.Equal(http.StatusBadRequest, w.Code)
	errObj := errorBody(s, w)
	s.Equal("fecha_nacimiento", errObj["field"])
	s.Equal("client must be at least 18 years old", errObj["details"])

	negative := clientBody(2)
	negative["saldo"] = -5
	w = s.do(http.MethodPost, "/api/v1/clientes/", negative, true)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("saldo", errorBody(s, w)["field"])

	badDate := clientBody(3)
	badDate["fecha_nacimiento"] = "20/05/1990"
	w = s.do(http.MethodPost, "/api/v1/clientes/", badDate, true)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *APISuite) TestNotFoundAndBadID() {
	for _, path := range []string{
		"/api/v1/clientes/999",
		"/api/v1/clientes/buscar/email/nobody@example.com",
		"/api/v1/clientes/buscar/cuenta/0000000000",
	} {
		w := s.do(http.MethodGet, path, nil, true)
		s.Equal(http.StatusNotFound, w.Code, path)
	}

	w := s.do(http.MethodGet, "/api/v1/clientes/abc", nil, true)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/api/v1/clientes/999", map[string]string{"apellido": "Nadie"}, true)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/clientes/999", nil, true)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APISuite) TestListEnvelope() {
	for i := 1; i <= 15; i++ {
		s.create(i)
	}

	w := s.do(http.MethodGet, "/api/v1/clientes/?page=2&size=10", nil, true)
	s.Require().Equal(http.StatusOK, w.Code)
	page := decode(s, w)
	s.Equal(float64(15), page["total"])
	s.Equal(float64(2), page["pages"])
	s.Equal(float64(2), page["page"])
	s.Equal(float64(10), page["size"])
	s.Len(page["items"], 5)

	w = s.do(http.MethodGet, "/api/v1/clientes?nombre=MAR&tipo_cliente=individual", nil, true)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(float64(15), decode(s, w)["total"])

	w = s.do(http.MethodGet, "/api/v1/clientes/?size=101", nil, true)
	s.Equal(http.StatusBadRequest, w.Code)
	w = s.do(http.MethodGet, "/api/v1/clientes/?page=0", nil, true)
	s.Equal(http.StatusBadRequest, w.Code)
	w = s.do(http.MethodGet, "/api/v1/clientes/?tipo_cliente=premium", nil, true)
	s.Equal(http.StatusBadRequest, w.Code)
	w = s.do(http.MethodGet, fmt.Sprintf("/api/v1/clientes/?page=%d&size=10", math.MaxInt/5), nil, true)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("page", errorBody(s, w)["field"])
}

func (s *APISuite) TestUpdate() {
	first := s.create(1)
	second := s.create(2)

	w := s.do(http.MethodPut, fmt.Sprintf("/api/v1/clientes/%d", first), map[string]interface{}{"apellido": "López", "tipo_cliente": "vip"}, true)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	updated := decode(s, w)
	s.Equal("López", updated["apellido"])
	s.Equal("vip", updated["tipo_cliente"])
	s.Equal("María", updated["nombre"])
	s.NotNil(updated["updated_at"])

	// Re-sending the client's own email is not a conflict.
	w = s.do(http.MethodPut, fmt.Sprintf("/api/v1/clientes/%d", first), map[string]interface{}{"correo_electronico": "cliente1@example.com"}, true)
	s.Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPut, fmt.Sprintf("/api/v1/clientes/%d", second), map[string]interface{}{"correo_electronico": "cliente1@example.com"}, true)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("correo_electronico", errorBody(s, w)["field"])

	w = s.do(http.MethodPut, fmt.Sprintf("/api/v1/clientes/%d", second), map[string]interface{}{"nombre": "X"}, true)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("nombre", errorBody(s, w)["field"])
}

func (s *APISuite) TestDelete() {
	id := s.create(1)

	w := s.do(http.MethodDelete, fmt.Sprintf("/api/v1/clientes/%d", id), nil, true)
	s.Equal(http.StatusNoContent, w.Code)
	s.Empty(w.Body.String())

	w = s.do(http.MethodGet, fmt.Sprintf("/api/v1/clientes/%d", id), nil, true)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APISuite) TestMetricsExposed() {
	s.create(1)
	w := s.do(http.MethodGet, "/metrics", nil, false)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "fintechbank_clients_created_total 1")
	s.Contains(w.Body.String(), "fintechbank_http_requests_total")
}
