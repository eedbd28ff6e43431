// Package registration runs the submission workflow: validate, persist one
// record, send one notification. Delivery failures never undo the write.
package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"example.com/registration/internal/domain"
	"example.com/registration/internal/metrics"
	"example.com/registration/internal/notify"
)

// Store persists registrations. Implementations assign ID and timestamps
// and wrap failures with domain.ErrPersistence.
type Store interface {
	Create(ctx context.Context, sub domain.Submission) (domain.Registration, error)
	Recent(ctx context.Context, limit int) ([]domain.Registration, error)
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// Notifier delivers one message per registration.
type Notifier interface {
	Notify(ctx context.Context, reg domain.Registration) (notify.Receipt, error)
}

// State is the last workflow step reached.
type State string

const (
	StateReceived  State = "received"
	StatePersisted State = "persisted"
	StateNotified  State = "notified"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// ValidationError lists every invalid field of a rejected submission.
type ValidationError struct {
	Fields []domain.FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%d invalid field(s): %v", len(e.Fields), e.Fields)
}

func (e *ValidationError) Unwrap() error { return domain.ErrValidation }

// Outcome reports how far a submission got. Registration is set whenever
// the write succeeded, including when delivery later failed.
type Outcome struct {
	State        State
	Registration *domain.Registration
	Receipt      *notify.Receipt
}

type Service struct {
	store    Store
	notifier Notifier
	metrics  *metrics.Metrics
	log      *slog.Logger
	tracer   trace.Tracer
}

func NewService(store Store, notifier Notifier, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		metrics:  m,
		log:      log,
		tracer:   otel.Tracer("example.com/registration/internal/registration"),
	}
}

// Submit runs one submission through the workflow. The returned error is a
// *ValidationError, an error wrapping domain.ErrPersistence, or a
// *notify.DeliveryError; the Outcome is meaningful in every case.
//
// Once started the workflow ignores caller cancellation, so a client that
// disconnects mid-request still gets its record written and its email sent.
func (s *Service) Submit(ctx context.Context, sub domain.Submission) (Outcome, error) {
	ctx = context.WithoutCancel(ctx)
	ctx, span := s.tracer.Start(ctx, "registration.Submit")
	defer span.End()

	out := Outcome{State: StateReceived}

	sub.Normalize()
	if errs := domain.ValidateSubmission(&sub); len(errs) > 0 {
		out.State = StateFailed
		s.metrics.ObserveSubmission(metrics.OutcomeInvalid)
		s.log.Info("registration rejected", "email", sub.Email, "invalid_fields", len(errs))
		span.SetStatus(codes.Error, "validation")
		return out, &ValidationError{Fields: errs}
	}
	s.log.Info("new registration attempt", "email", sub.Email)

	start := time.Now()
	reg, err := s.store.Create(ctx, sub)
	s.metrics.ObserveStep("persist", time.Since(start).Seconds())
	if err != nil {
		out.State = StateFailed
		s.metrics.ObserveSubmission(metrics.OutcomePersistFailed)
		s.log.Error("registration persist failed", "email", sub.Email, "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist")
		if !errors.Is(err, domain.ErrPersistence) {
			err = fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		}
		return out, err
	}
	out.State = StatePersisted
	out.Registration = &reg
	s.metrics.IncrementRegistrations()
	span.SetAttributes(attribute.String("registration.id", reg.ID))

	start = time.Now()
	rcpt, err := s.notifier.Notify(ctx, reg)
	s.metrics.ObserveStep("notify", time.Since(start).Seconds())
	if err != nil {
		out.State = StateFailed
		var de *notify.DeliveryError
		if !errors.As(err, &de) {
			de = &notify.DeliveryError{Kind: notify.Classify(err), Err: err}
		}
		s.metrics.ObserveEmail(string(de.Kind))
		s.metrics.ObserveSubmission(metrics.OutcomeDeliveryFailed)
		s.log.Error("registration email failed", "id", reg.ID, "kind", de.Kind, "err", de.Err)
		span.RecordError(de)
		span.SetStatus(codes.Error, "notify")
		return out, de
	}
	out.State = StateNotified
	out.Receipt = &rcpt
	s.metrics.ObserveEmail("sent")

	out.State = StateCompleted
	s.metrics.ObserveSubmission(metrics.OutcomeCompleted)
	s.log.Info("registration completed", "id", reg.ID, "message_id", rcpt.MessageID)
	return out, nil
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
