package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"

	"example.com/registration/internal/config"
	"example.com/registration/internal/domain"
)

// Mailer is the subset of *mail.Client the sender needs.
type Mailer interface {
	DialAndSendWithContext(ctx context.Context, msgs ...*mail.Msg) error
	DialWithContext(ctx context.Context) error
	Close() error
}

// Dialer builds a fresh, unconnected Mailer for one call.
type Dialer func(cfg config.SMTP) (Mailer, error)

// Receipt describes an accepted message.
type Receipt struct {
	MessageID string    `json:"messageId"`
	Recipient string    `json:"recipient"`
	SentAt    time.Time `json:"sentAt"`
}

// Sender delivers registration notifications through an SMTP relay.
// It holds no connection between calls.
type Sender struct {
	cfg  config.SMTP
	dial Dialer
	log  *slog.Logger
	now  func() time.Time
}

type Option func(*Sender)

// WithDialer replaces the go-mail client factory.
func WithDialer(d Dialer) Option { return func(s *Sender) { s.dial = d } }

func WithClock(now func() time.Time) Option { return func(s *Sender) { s.now = now } }

func NewSender(cfg config.SMTP, log *slog.Logger, opts ...Option) *Sender {
	s := &Sender{
		cfg:  cfg,
		dial: NewClient,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewClient builds a go-mail client for cfg. Port 465 gets implicit TLS,
// anything else negotiates STARTTLS.
func NewClient(cfg config.SMTP) (Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(cfg.Timeout),
	}
	if cfg.ImplicitTLS() {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	if cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.User),
			mail.WithPassword(cfg.Password),
		)
	}
	return mail.NewClient(cfg.Host, opts...)
}

// Notify sends one message describing reg. There is a single attempt; the
// connection is opened for this call and closed before returning.
func (s *Sender) Notify(ctx context.Context, reg domain.Registration) (Receipt, error) {
	body, err := Render(reg)
	if err != nil {
		return Receipt{}, &DeliveryError{Kind: KindGeneric, Err: err}
	}

	msgID := uuid.NewString() + "@" + s.cfg.Host
	msg := mail.NewMsg()
	if err := msg.FromFormat(s.cfg.SenderName, s.cfg.From()); err != nil {
		return Receipt{}, &DeliveryError{Kind: KindGeneric, Err: fmt.Errorf("from address: %w", err)}
	}
	if err := msg.To(s.cfg.Recipient()); err != nil {
		return Receipt{}, &DeliveryError{Kind: KindGeneric, Err: fmt.Errorf("recipient address: %w", err)}
	}
	if reg.Email != "" {
		// a bad reply-to should not cost the notification
		if err := msg.ReplyTo(reg.Email); err != nil {
			s.log.Warn("notify: reply-to skipped", "id", reg.ID, "err", err)
		}
	}
	msg.Subject(Subject)
	msg.SetGenHeader(mail.HeaderMessageID, "<"+msgID+">")
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextHTML, body)

	client, err := s.dial(s.cfg)
	if err != nil {
		return Receipt{}, newDeliveryError(err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		_ = client.Close()
		return Receipt{}, newDeliveryError(err)
	}

	rcpt := Receipt{
		MessageID: "<" + msgID + ">",
		Recipient: s.cfg.Recipient(),
		SentAt:    s.now(),
	}
	s.log.Info("notify: email sent", "id", reg.ID, "message_id", rcpt.MessageID, "to", rcpt.Recipient)
	return rcpt, nil
}

// RelaySummary is the non-secret view of the relay configuration.
type RelaySummary struct {
	Host   string `json:"host"`
	Port   string `json:"port"`
	User   string `json:"user"`
	Secure bool   `json:"secure"`
}

func (s *Sender) Summary() RelaySummary {
	return RelaySummary{
		Host:   s.cfg.Host,
		Port:   strconv.Itoa(s.cfg.Port),
		User:   s.cfg.User,
		Secure: s.cfg.ImplicitTLS(),
	}
}

// Verify connects and authenticates against the relay without sending.
func (s *Sender) Verify(ctx context.Context) error {
	client, err := s.dial(s.cfg)
	if err != nil {
		return newDeliveryError(err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	if err := client.DialWithContext(ctx); err != nil {
		_ = client.Close()
		return newDeliveryError(err)
	}
	if err := client.Close(); err != nil {
		s.log.Debug("notify: close after verify", "err", err)
	}
	return nil
}
