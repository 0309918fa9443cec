package store

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// OpOpen is used for errors raised while connecting to a backend.
const OpOpen = "open"

// ClassifyNetError maps transport-level failures onto a Kind. ok is false
// when err carries no network signal and the backend must decide.
func ClassifyNetError(err error) (kind Kind, ok bool) {
	if err == nil {
		return "", false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient, true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return KindTransient, true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTransient, true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return KindUnreachable, true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTemporary {
			return KindTransient, true
		}
		return KindUnreachable, true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return KindUnreachable, true
	}
	return "", false
}
