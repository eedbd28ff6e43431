package transporthttp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/registration/internal/config"
	"example.com/registration/internal/domain"
	"example.com/registration/internal/notify"
	"example.com/registration/internal/registration"
)

// Registrar runs the submission workflow.
type Registrar interface {
	Submit(ctx context.Context, sub domain.Submission) (registration.Outcome, error)
	Ping(ctx context.Context) error
}

// RelayChecker verifies the mail relay without sending a registration email.
type RelayChecker interface {
	Verify(ctx context.Context) error
	Summary() notify.RelaySummary
}

type ServerDeps struct {
	Cfg           config.Config
	Registrations Registrar
	Relay         RelayChecker
	Gatherer      prometheus.Gatherer
	Log           *slog.Logger
	Started       time.Time
	Now           func() time.Time
}

const healthPingTimeout = 2 * time.Second

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// details returns err's text for the caller, or "" in production.
func (d *ServerDeps) details(err error) string {
	if err == nil || d.Cfg.Production() {
		return ""
	}
	return err.Error()
}

// --- Health ---

type healthResp struct {
	Status string  `json:"status"`
	Uptime float64 `json:"uptime"`
	Store  string  `json:"store"`
}

func (d *ServerDeps) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	resp := healthResp{
		Status: "OK",
		Uptime: d.Now().Sub(d.Started).Seconds(),
		Store:  "connected",
	}
	status := http.StatusOK
	if err := d.Registrations.Ping(ctx); err != nil {
		d.Log.Warn("health: store unreachable", "err", err)
		resp.Status = "DEGRADED"
		resp.Store = "disconnected"
		status = http.StatusServiceUnavailable
	}
	WriteJSON(w, status, resp)
}

// --- Registration ---

func (d *ServerDeps) HandleSendRegistration(w http.ResponseWriter, r *http.Request) {
	defer DrainBody(r)

	var sub domain.Submission
	if err := decodeJSON(r, &sub); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			WriteFailure(w, http.StatusRequestEntityTooLarge, "request body too large", "body_too_large")
			return
		}
		WriteJSON(w, http.StatusBadRequest, Envelope{
			Message: "Invalid JSON body",
			Error:   "invalid_json",
			Details: d.details(err),
		})
		return
	}

	out, err := d.Registrations.Submit(r.Context(), sub)
	if err != nil {
		d.writeSubmitError(w, out, err)
		return
	}

	WriteJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: "Registration successful",
		ID:      out.Registration.ID,
		Data: &RegistrationData{
			RegistrationID: out.Registration.ID,
			EmailMessageID: out.Receipt.MessageID,
		},
	})
}

func (d *ServerDeps) writeSubmitError(w http.ResponseWriter, out registration.Outcome, err error) {
	var ve *registration.ValidationError
	var de *notify.DeliveryError
	switch {
	case errors.As(err, &ve):
		fields := map[string][]string{}
		for _, fe := range ve.Fields {
			fields[fe.Field] = append(fields[fe.Field], fe.Msg)
		}
		WriteJSON(w, http.StatusBadRequest, Envelope{
			Message: "Validation failed",
			Error:   "validation_error",
			Errors:  fields,
		})

	case errors.As(err, &de) && out.Registration != nil:
		WriteJSON(w, http.StatusInternalServerError, Envelope{
			Message: "Registration saved, but the notification email failed: " + de.Kind.Message(),
			Error:   de.Kind.Code(),
			ID:      out.Registration.ID,
			Data:    &RegistrationData{RegistrationID: out.Registration.ID},
			Details: d.details(de.Err),
		})

	case errors.Is(err, domain.ErrPersistence):
		WriteJSON(w, http.StatusInternalServerError, Envelope{
			Message: "Internal Server Error during registration",
			Error:   "persistence_error",
			Details: d.details(err),
		})

	default:
		d.Log.Error("registration: unexpected error", "err", err)
		WriteJSON(w, http.StatusInternalServerError, Envelope{
			Message: "Internal Server Error during registration",
			Error:   "internal_error",
			Details: d.details(err),
		})
	}
}

// --- Relay diagnostics ---

func (d *ServerDeps) HandleTestEmail(w http.ResponseWriter, r *http.Request) {
	if err := d.Relay.Verify(r.Context()); err != nil {
		kind := notify.Classify(err)
		var de *notify.DeliveryError
		if errors.As(err, &de) {
			kind = de.Kind
		}
		d.Log.Warn("test-email: relay check failed", "kind", kind, "err", err)
		WriteJSON(w, http.StatusInternalServerError, Envelope{
			Message: kind.Message(),
			Error:   kind.Code(),
			Details: d.details(err),
		})
		return
	}
	WriteJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: "SMTP connection verified",
		Config:  d.Relay.Summary(),
	})
}

// --- Router ---

func (d *ServerDeps) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(d.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.Get("/health", d.HandleHealth)
	r.Get("/test-email", d.HandleTestEmail)
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
	r.With(BodyLimit(d.Cfg.MaxBodyBytes), RequireJSON).Post("/send-registration", d.HandleSendRegistration)

	return r
}
