package notify

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"regexp"
	"strings"
	"syscall"

	"example.com/registration/internal/domain"
)

// Kind classifies a failed delivery.
type Kind string

const (
	KindAuth       Kind = "authentication"
	KindConnection Kind = "connection"
	KindTimeout    Kind = "timeout"
	KindGeneric    Kind = "generic"
)

// Code is the short error code reported to callers for this kind.
func (k Kind) Code() string {
	switch k {
	case KindAuth:
		return "EAUTH"
	case KindConnection:
		return "ECONNECTION"
	case KindTimeout:
		return "ETIMEDOUT"
	default:
		return "EMESSAGE"
	}
}

// Message is the user-facing explanation for this kind.
func (k Kind) Message() string {
	switch k {
	case KindAuth:
		return "Email authentication failed"
	case KindConnection:
		return "Could not connect to email server"
	case KindTimeout:
		return "Email server connection timed out"
	default:
		return "Failed to send email"
	}
}

// DeliveryError is returned by Sender for any failed send or verify.
// It matches domain.ErrDelivery with errors.Is.
type DeliveryError struct {
	Kind Kind
	Err  error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery error: %v", e.Kind, e.Err)
}

func (e *DeliveryError) Unwrap() []error { return []error{domain.ErrDelivery, e.Err} }

func newDeliveryError(err error) *DeliveryError {
	return &DeliveryError{Kind: Classify(err), Err: err}
}

// authText matches relay replies that reject credentials. Word boundaries
// keep "authority" (x509) and host names like authsmtp.com out.
var authText = regexp.MustCompile(`(?i)\bauth\b|authentication failed|failed to authenticate|invalid credentials|username and password not accepted`)

// Classify maps a relay error onto a Kind. Typed errors are checked before
// any text matching: SMTP auth reply codes, then timeouts, then network and
// TLS failures.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}

	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		switch tpErr.Code {
		case 530, 534, 535:
			return KindAuth
		}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return KindTimeout
	}

	if isConnectionError(err) {
		return KindConnection
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out"):
		return KindTimeout
	case authText.MatchString(msg):
		return KindAuth
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "dial"):
		return KindConnection
	}
	return KindGeneric
}

func isConnectionError(err error) bool {
	var (
		opErr     *net.OpError
		dnsErr    *net.DNSError
		unknownCA x509.UnknownAuthorityError
		hostErr   x509.HostnameError
		certErr   x509.CertificateInvalidError
		verifyErr *tls.CertificateVerificationError
		recordErr tls.RecordHeaderError
	)
	return errors.As(err, &opErr) || errors.As(err, &dnsErr) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.As(err, &unknownCA) || errors.As(err, &hostErr) || errors.As(err, &certErr) ||
		errors.As(err, &verifyErr) || errors.As(err, &recordErr)
}
