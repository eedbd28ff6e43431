package transporthttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"example.com/registration/internal/config"
	"example.com/registration/internal/domain"
	"example.com/registration/internal/logger"
	"example.com/registration/internal/metrics"
	"example.com/registration/internal/notify"
	"example.com/registration/internal/registration"
	"example.com/registration/internal/storage/memory"
)

type stubNotifier struct {
	err   error
	calls int
}

func (n *stubNotifier) Notify(_ context.Context, reg domain.Registration) (notify.Receipt, error) {
	n.calls++
	if n.err != nil {
		return notify.Receipt{}, n.err
	}
	return notify.Receipt{MessageID: "<msg-1@relay>", Recipient: "admin@example.com"}, nil
}

type stubRelay struct {
	err error
}

func (r *stubRelay) Verify(context.Context) error { return r.err }
func (r *stubRelay) Summary() notify.RelaySummary {
	return notify.RelaySummary{Host: "smtp.example.com", Port: "587", User: "relay@example.com"}
}

type HandlerSuite struct {
	suite.Suite
	store    *memory.Store
	notifier *stubNotifier
	relay    *stubRelay
	deps     *ServerDeps
	router   http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.store = memory.New(nil)
	s.notifier = &stubNotifier{}
	s.relay = &stubRelay{}
	reg := prometheus.NewRegistry()
	svc := registration.NewService(s.store, s.notifier, metrics.New(reg), logger.Discard())

	started := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	s.deps = &ServerDeps{
		Cfg: config.Config{
			Env:            "development",
			MaxBodyBytes:   1024,
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		Registrations: svc,
		Relay:         s.relay,
		Gatherer:      reg,
		Log:           logger.Discard(),
		Started:       started,
		Now:           func() time.Time { return started.Add(90 * time.Second) },
	}
	s.router = s.deps.Router()
}

const ashaBody = `{"name":"Asha","email":"ASHA@X.COM","phone":"9999999999","college":"ABC","year":"2","department":"CS","teamSize":"2"}`

func (s *HandlerSuite) post(body string) (*httptest.ResponseRecorder, Envelope) {
	req := httptest.NewRequest(http.MethodPost, "/send-registration", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env Envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func (s *HandlerSuite) stored() int64 {
	n, err := s.store.Count(context.Background())
	s.Require().NoError(err)
	return n
}

func (s *HandlerSuite) TestSendRegistration() {
	s.T().Run("200 with id and message id", func(t *testing.T) {
		s.SetupTest()
		rec, env := s.post(ashaBody)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, env.Success)
		assert.Equal(t, "Registration successful", env.Message)
		assert.NotEmpty(t, env.ID)
		require.NotNil(t, env.Data)
		assert.Equal(t, env.ID, env.Data.RegistrationID)
		assert.Equal(t, "<msg-1@relay>", env.Data.EmailMessageID)

		got, ok := s.store.Get(context.Background(), env.ID)
		require.True(t, ok)
		assert.Equal(t, "asha@x.com", got.Email)
		assert.False(t, got.CreatedAt.IsZero())
	})

	s.T().Run("400 when phone is missing, nothing stored", func(t *testing.T) {
		s.SetupTest()
		rec, env := s.post(`{"name":"Asha","email":"asha@x.com","college":"ABC","year":"2","department":"CS","teamSize":"2"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, env.Success)
		assert.Equal(t, "validation_error", env.Error)
		assert.Equal(t, []string{"required"}, env.Errors["phone"])
		assert.Empty(t, env.ID)
		assert.Zero(t, s.stored())
		assert.Zero(t, s.notifier.calls)
	})

	s.T().Run("400 on malformed json", func(t *testing.T) {
		s.SetupTest()
		rec, env := s.post(`{bad-json`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_json", env.Error)
		assert.NotEmpty(t, env.Details)
	})

	s.T().Run("413 on oversize body", func(t *testing.T) {
		s.SetupTest()
		big := `{"name":"` + strings.Repeat("a", 2048) + `"}`
		rec, env := s.post(big)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, "body_too_large", env.Error)
	})

	s.T().Run("415 without json content type", func(t *testing.T) {
		s.SetupTest()
		req := httptest.NewRequest(http.MethodPost, "/send-registration", strings.NewReader(ashaBody))
		req.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})

	s.T().Run("500 without id when the store fails", func(t *testing.T) {
		s.SetupTest()
		s.store.FailWith = errors.New("no reachable servers")
		rec, env := s.post(ashaBody)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.False(t, env.Success)
		assert.Equal(t, "persistence_error", env.Error)
		assert.Equal(t, "Internal Server Error during registration", env.Message)
		assert.Contains(t, env.Details, "no reachable servers")
		assert.Empty(t, env.ID)
		assert.Nil(t, env.Data)
		assert.Zero(t, s.notifier.calls)
	})

	s.T().Run("500 keeps the stored id when email fails", func(t *testing.T) {
		s.SetupTest()
		s.notifier.err = &notify.DeliveryError{Kind: notify.KindAuth, Err: errors.New("535 bad credentials")}
		rec, env := s.post(ashaBody)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.False(t, env.Success)
		assert.Equal(t, "EAUTH", env.Error)
		assert.Contains(t, env.Message, notify.KindAuth.Message())
		require.NotEmpty(t, env.ID)
		require.NotNil(t, env.Data)
		assert.Equal(t, env.ID, env.Data.RegistrationID)

		_, ok := s.store.Get(context.Background(), env.ID)
		assert.True(t, ok)
	})

	s.T().Run("details hidden in production", func(t *testing.T) {
		s.SetupTest()
		s.deps.Cfg.Env = "production"
		s.router = s.deps.Router()
		s.store.FailWith = errors.New("secret internals")
		_, env := s.post(ashaBody)
		assert.Empty(t, env.Details)
	})

	s.T().Run("identical submissions create two records", func(t *testing.T) {
		s.SetupTest()
		_, a := s.post(ashaBody)
		_, b := s.post(ashaBody)
		assert.NotEqual(t, a.ID, b.ID)
		assert.EqualValues(t, 2, s.stored())
	})
}

func (s *HandlerSuite) TestHealth() {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	s.Equal(http.StatusOK, rec.Code)

	var body healthResp
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal("OK", body.Status)
	s.Equal("connected", body.Store)
	s.InDelta(90.0, body.Uptime, 0.001)

	s.store.FailWith = errors.New("down")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal("disconnected", body.Store)
}

func (s *HandlerSuite) TestTestEmail() {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test-email", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"host":"smtp.example.com"`)
	s.NotContains(rec.Body.String(), "secret")

	s.relay.err = &notify.DeliveryError{Kind: notify.KindConnection, Err: errors.New("dial tcp: connection refused")}
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test-email", nil))
	s.Equal(http.StatusInternalServerError, rec.Code)

	var env Envelope
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env))
	s.Equal("ECONNECTION", env.Error)
	s.Contains(env.Details, "connection refused")
}

func (s *HandlerSuite) TestCORS() {
	req := httptest.NewRequest(http.MethodOptions, "/send-registration", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal("http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/send-registration", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Empty(rec.Header().Get("Access-Control-Allow-Origin"))
}

func (s *HandlerSuite) TestMetricsEndpoint() {
	_, _ = s.post(ashaBody)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `registration_submissions_total{outcome="completed"} 1`)
}

func TestRequireJSONAllowsGet(t *testing.T) {
	called := false
	h := RequireJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", bytes.NewReader(nil)))
	assert.True(t, called)
}
