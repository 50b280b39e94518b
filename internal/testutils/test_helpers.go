// Package testutils builds a fully wired server over the in-memory store
// for HTTP tests.
package testutils

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/blureserve/seat-reservation/internal/handler"
	"github.com/blureserve/seat-reservation/internal/model"
	"github.com/blureserve/seat-reservation/internal/repository"
	"github.com/blureserve/seat-reservation/internal/router"
	"github.com/blureserve/seat-reservation/internal/service"
	"github.com/blureserve/seat-reservation/internal/utils"
)

// Seeded employees.  Employee 3 reports to the manager like 2; 4 has no
// manager.
const (
	ManagerID  int64 = 1
	EmployeeID int64 = 2
	PeerID     int64 = 3
	LoneID     int64 = 4

	Password  = "password"
	JWTSecret = "test-secret-key"
)

// TestContext holds all dependencies for tests.
type TestContext struct {
	Router       *echo.Echo
	Store        *repository.MemoryStore
	Reservations *service.Reservations
	Ledger       *service.Ledger
}

// SetupTestContext wires handlers, services and a seeded memory store.
func SetupTestContext(t *testing.T) *TestContext {
	t.Helper()
	store := repository.NewMemoryStore()
	hash, err := utils.HashPassword(Password, bcrypt.MinCost)
	require.NoError(t, err)

	store.AddEmployee(model.Employee{ID: ManagerID})
	store.AddEmployee(model.Employee{ID: EmployeeID, ManagerID: ManagerID})
	store.AddEmployee(model.Employee{ID: PeerID, ManagerID: ManagerID})
	store.AddEmployee(model.Employee{ID: LoneID})
	store.AddFundAccount(model.FundAccount{EmployeeID: ManagerID, CurrentFunds: 5000})
	for name, id := range map[string]int64{"manager": ManagerID, "employee": EmployeeID, "peer": PeerID} {
		store.AddCredential(model.Credential{Username: name, PasswordHash: hash, EmployeeID: id})
	}

	reservations := service.NewReservations(store, service.Options{})
	ledger := service.NewLedger(store, nil)
	auth := service.NewAuth(store, service.AuthConfig{JWTSecret: JWTSecret, AccessTTLMin: 15, RefreshTTLDays: 7}, nil)

	e := router.New(router.Deps{
		JWTSecret: JWTSecret,
		Auth:      handler.NewAuthHandler(auth, nil),
		Seats:     handler.NewSeatHandler(reservations, nil),
		Manager:   handler.NewManagerHandler(ledger, nil),
	})
	return &TestContext{Router: e, Store: store, Reservations: reservations, Ledger: ledger}
}

// AuthHeaders returns a bearer header for empID with role.
func AuthHeaders(t *testing.T, empID int64, role string) map[string]string {
	t.Helper()
	tok, err := utils.NewAccessToken(JWTSecret, empID, role, 15)
	require.NoError(t, err)
	return map[string]string{echo.HeaderAuthorization: "Bearer " + tok.Token}
}

// PerformRequest sends body (JSON-encoded unless nil or a string) and
// returns the recorded response.
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewBuffer(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// Decode unmarshals a JSON response body into v.
func Decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}
