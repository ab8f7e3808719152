package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/url"
	"syscall"
)

// Code is the closed set of probe failure classifications. Every failed
// probe maps to exactly one code; callers never see raw transport errors.
type Code string

const (
	CodeInvalidURL        Code = "INVALID_URL"
	CodeTimeout           Code = "TIMEOUT"
	CodeDNSError          Code = "DNS_ERROR"
	CodeConnectionRefused Code = "CONNECTION_REFUSED"
	CodeSSLError          Code = "SSL_ERROR"
	CodeNetworkError      Code = "NETWORK_ERROR"
	CodeHTTPError         Code = "HTTP_ERROR"
	CodeInactiveOffer     Code = "INACTIVE_OFFER"
	CodeFetchError        Code = "FETCH_ERROR"
	CodeUnknown           Code = "UNKNOWN"
)

// Message returns the operator-facing description for a code. These end up
// in lastError fields and notifications, so they stay short and free of
// transport details.
func (c Code) Message() string {
	switch c {
	case CodeInvalidURL:
		return "invalid or disallowed URL"
	case CodeTimeout:
		return "request timed out"
	case CodeDNSError:
		return "DNS lookup failed"
	case CodeConnectionRefused:
		return "connection refused"
	case CodeSSLError:
		return "TLS handshake failed"
	case CodeNetworkError:
		return "network error"
	case CodeHTTPError:
		return "unexpected HTTP status"
	case CodeInactiveOffer:
		return "offer is inactive"
	case CodeFetchError:
		return "request failed"
	default:
		return "unknown error"
	}
}

// classifyNetError maps a transport-level error to a Code. Unwraps
// url.Error first since http.Client wraps everything in one.
func classifyNetError(err error) Code {
	if err == nil {
		return CodeUnknown
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CodeTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return CodeDNSError
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return CodeConnectionRefused
	}

	var certErr *tls.CertificateVerificationError
	var recordErr tls.RecordHeaderError
	var unknownAuthErr x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	if errors.As(err, &certErr) || errors.As(err, &recordErr) ||
		errors.As(err, &unknownAuthErr) || errors.As(err, &hostnameErr) {
		return CodeSSLError
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return CodeNetworkError
	}

	return CodeFetchError
}
