package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/isdelr/incomesense-be/internal/auth"
	"github.com/isdelr/incomesense-be/internal/repository/memory"
	"github.com/isdelr/incomesense-be/internal/services"
	"github.com/isdelr/incomesense-be/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RouterSuite struct {
	suite.Suite
	basePath string

	store  *memory.Store
	tokens *auth.TokenService
	hub    *websocket.Hub
	stop   context.CancelFunc
	router http.Handler
}

func (s *RouterSuite) SetupTest() {
	var err error
	s.store = memory.New()
	s.tokens, err = auth.NewTokenService("test-secret", time.Hour)
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	s.hub = websocket.NewHub()
	go s.hub.Run(ctx)

	s.router = NewRouter(Deps{
		BasePath:     s.basePath,
		Tokens:       s.tokens,
		Users:        services.NewUserService(s.store),
		Transactions: services.NewTransactionService(s.store, s.store, s.hub),
		Summaries:    services.NewSummaryService(s.store),
		Events:       services.NewEventService(s.store),
		Hub:          s.hub,
		Store:        s.store,
		Started:      time.Now(),
	})
}

func (s *RouterSuite) TearDownTest() {
	s.stop()
}

func (s *RouterSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		s.Require().NoError(json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, s.basePath+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) message(rec *httptest.ResponseRecorder) string {
	var body struct {
		Message string `json:"message"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Message
}

func (s *RouterSuite) register(username string) (id, token string) {
	rec := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password1",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Token    string `json:"token"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(username, resp.Username)
	return resp.ID, resp.Token
}

func (s *RouterSuite) createTransaction(token string, body map[string]any) map[string]any {
	rec := s.do(http.MethodPost, "/api/transactions", token, body)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var tx map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &tx))
	return tx
}

func (s *RouterSuite) TestRegisterLoginMe() {
	id, token := s.register("alice")

	owner, err := s.tokens.Verify(token)
	s.Require().NoError(err)
	s.Equal(id, owner)

	rec := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ALICE@example.com", "password": "password1"})
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.NotContains(rec.Body.String(), "password")

	rec = s.do(http.MethodGet, "/api/auth/me", token, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"username":"alice"`)
	s.NotContains(rec.Body.String(), "$2a$")
}

func (s *RouterSuite) TestAuthErrors() {
	s.register("bob")

	tests := []struct {
		name    string
		method  string
		path    string
		body    any
		status  int
		message string
	}{
		{"duplicate email", http.MethodPost, "/api/auth/register", map[string]string{"username": "bobby", "email": "bob@example.com", "password": "password1"}, http.StatusBadRequest, "User already exists"},
		{"duplicate username", http.MethodPost, "/api/auth/register", map[string]string{"username": "bob", "email": "b2@example.com", "password": "password1"}, http.StatusBadRequest, "Username already taken"},
		{"short password", http.MethodPost, "/api/auth/register", map[string]string{"username": "carl", "email": "carl@example.com", "password": "123"}, http.StatusBadRequest, "Password must be at least 6 characters long"},
		{"malformed register", http.MethodPost, "/api/auth/register", "{", http.StatusBadRequest, "Invalid request body"},
		{"wrong password", http.MethodPost, "/api/auth/login", map[string]string{"email": "bob@example.com", "password": "nope"}, http.StatusUnauthorized, "Invalid credentials"},
		{"unknown email", http.MethodPost, "/api/auth/login", map[string]string{"email": "ghost@example.com", "password": "password1"}, http.StatusUnauthorized, "Invalid credentials"},
		{"malformed login", http.MethodPost, "/api/auth/login", "not json", http.StatusBadRequest, "Invalid request body"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.do(tt.method, tt.path, "", tt.body)
			s.Equal(tt.status, rec.Code, rec.Body.String())
			s.Equal(tt.message, s.message(rec))
		})
	}
}

func (s *RouterSuite) TestGate() {
	rec := s.do(http.MethodGet, "/api/transactions", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(auth.MsgMissingToken, s.message(rec))

	rec = s.do(http.MethodGet, "/api/transactions", "garbage", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(auth.MsgInvalidToken, s.message(rec))
}

func (s *RouterSuite) TestTransactionLifecycle() {
	_, alice := s.register("alice")
	_, mallory := s.register("mallory")

	tx := s.createTransaction(alice, map[string]any{
		"type":        "expense",
		"category":    "Food",
		"amount":      12.5,
		"date":        "2024-01-15",
		"description": "lunch",
	})
	id := tx["id"].(string)
	s.Equal(12.5, tx["amount"])
	s.Equal("2024-01-15T00:00:00Z", tx["date"])

	rec := s.do(http.MethodPost, "/api/transactions", alice, map[string]any{"type": "expense", "category": "Food"})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Please include all required fields: type, category, and amount", s.message(rec))

	rec = s.do(http.MethodPost, "/api/transactions", alice, map[string]any{"type": "expense", "category": "Food", "amount": -3})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Amount must be a positive number", s.message(rec))

	rec = s.do(http.MethodPost, "/api/transactions", alice, map[string]any{"type": "expense", "category": "Food", "amount": 3, "date": "yesterday"})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Invalid date format", s.message(rec))

	// Other users can neither see nor change it.
	rec = s.do(http.MethodGet, "/api/transactions", mallory, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[]`, rec.Body.String())

	rec = s.do(http.MethodPut, "/api/transactions/"+id, mallory, map[string]any{"amount": 0})
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal("Not authorized to update this transaction", s.message(rec))

	rec = s.do(http.MethodDelete, "/api/transactions/"+id, mallory, nil)
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal("Not authorized to delete this transaction", s.message(rec))

	rec = s.do(http.MethodPut, "/api/transactions/not-an-id", alice, map[string]any{"amount": 1})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Invalid transaction ID format", s.message(rec))

	rec = s.do(http.MethodPut, "/api/transactions/6f1c1f5e-6a8e-4f55-9c53-1f1f1f1f1f1f", alice, map[string]any{"amount": 1})
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("Transaction not found", s.message(rec))

	// Only the fields present change.
	rec = s.do(http.MethodPut, "/api/transactions/"+id, alice, map[string]any{"description": "", "amount": "20.25", "category": nil})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var updated map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &updated))
	s.Equal("", updated["description"])
	s.Equal("Food", updated["category"])
	s.Equal(20.25, updated["amount"])

	rec = s.do(http.MethodPut, "/api/transactions/"+id, alice, map[string]any{"amount": 0})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodDelete, "/api/transactions/"+id, alice, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("Transaction removed", s.message(rec))

	rec = s.do(http.MethodDelete, "/api/transactions/"+id, alice, nil)
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/events?limit=10", alice, nil)
	s.Equal(http.StatusOK, rec.Code)
	var events []map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &events))
	s.Len(events, 3)
}

func (s *RouterSuite) TestInputBounds() {
	_, token := s.register("henry")
	tx := s.createTransaction(token, map[string]any{"type": "income", "category": "Pay", "amount": 100, "date": "2024-02-01"})
	id := tx["id"].(string)

	rec := s.do(http.MethodPost, "/api/transactions", token, `{"type":"income","category":"Pay","amount":1e200000000}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Amount is too large", s.message(rec))

	rec = s.do(http.MethodPut, "/api/transactions/"+id, token, `{"amount":"1e200000000"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Amount is too large", s.message(rec))

	rec = s.do(http.MethodPost, "/api/transactions", token, `{"type":"income","category":"Pay","amount":5,"date":"0001-01-01T00:00:00Z"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Invalid date format", s.message(rec))

	rec = s.do(http.MethodPut, "/api/transactions/"+id, token, `{"date":"0001-01-01T00:00:00Z"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Invalid date format", s.message(rec))

	rec = s.do(http.MethodGet, "/api/transactions", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var list []map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &list))
	s.Require().Len(list, 1)
	s.Equal(100.0, list[0]["amount"])
	s.Equal("2024-02-01T00:00:00Z", list[0]["date"])

	rec = s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "ivy",
		"email":    "ivy@example.com",
		"password": strings.Repeat("p", 73),
	})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Password cannot be more than 72 bytes", s.message(rec))
}

func (s *RouterSuite) TestListOrderAndSummary() {
	_, token := s.register("dana")
	s.createTransaction(token, map[string]any{"type": "income", "category": "Salary", "amount": 1000, "date": "2024-01-01T09:00:00Z"})
	s.createTransaction(token, map[string]any{"type": "expense", "category": "Rent", "amount": 300, "date": "2024-01-20T09:00:00Z"})
	s.createTransaction(token, map[string]any{"type": "expense", "category": "Food", "amount": 40, "date": "2024-02-02T09:00:00Z"})

	rec := s.do(http.MethodGet, "/api/transactions", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var list []map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &list))
	s.Require().Len(list, 3)
	s.Equal("Food", list[0]["category"])
	s.Equal("Salary", list[2]["category"])

	rec = s.do(http.MethodGet, "/api/summary?month=1&year=2024", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var report struct {
		Period  map[string]int `json:"period"`
		Summary struct {
			TotalIncome  float64 `json:"totalIncome"`
			TotalExpense float64 `json:"totalExpense"`
			Balance      float64 `json:"balance"`
			SavingsRate  float64 `json:"savingsRate"`
		} `json:"summary"`
		Categories map[string]float64 `json:"categories"`
		Monthly    []map[string]any   `json:"monthly"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &report))
	s.Equal(map[string]int{"month": 1, "year": 2024}, report.Period)
	s.Equal(1000.0, report.Summary.TotalIncome)
	s.Equal(300.0, report.Summary.TotalExpense)
	s.Equal(700.0, report.Summary.Balance)
	s.Equal(70.0, report.Summary.SavingsRate)
	s.Equal(map[string]float64{"Rent": 300}, report.Categories)
	s.Len(report.Monthly, 2)

	rec = s.do(http.MethodGet, "/api/summary?month=13&year=2024", token, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodGet, "/api/summary?month=x", token, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RouterSuite) TestHealth() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"status":"ok"`)
}

func (s *RouterSuite) TestWebSocketReceivesOwnChanges() {
	_, token := s.register("erin")
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + s.basePath + "/api/ws"

	_, resp, err := gws.DefaultDialer.Dial(url, nil)
	s.Require().Error(err)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := gws.DefaultDialer.Dial(url, http.Header{"Authorization": {"Bearer " + token}})
	s.Require().NoError(err)
	defer conn.Close()

	// Registration with the hub is asynchronous; a ping round trip proves it is done.
	s.Require().NoError(conn.WriteJSON(websocket.Message{Action: "ping"}))
	var msg websocket.Message
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	s.Require().NoError(conn.ReadJSON(&msg))
	s.Equal("pong", msg.Action)

	tx := s.createTransaction(token, map[string]any{"type": "income", "category": "Gift", "amount": 5})
	s.Require().NoError(conn.ReadJSON(&msg))
	s.Equal("transaction.create", msg.Action)
	s.Equal(tx["id"], msg.Payload.(map[string]any)["id"])
}

func TestRouter(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func TestRouterWithBasePath(t *testing.T) {
	suite.Run(t, &RouterSuite{basePath: "/finance"})
}

func TestRouter_BasePathHidesRootAPI(t *testing.T) {
	tokens, err := auth.NewTokenService("secret", time.Hour)
	require.NoError(t, err)
	store := memory.New()
	r := NewRouter(Deps{
		BasePath: "/finance",
		Tokens:   tokens,
		Users:    services.NewUserService(store),
		Store:    store,
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
