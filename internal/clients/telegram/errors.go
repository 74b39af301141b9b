package telegram

import (
	"context"
	"errors"
	"fmt"
	"net"
)

const (
	// ErrTimeout is returned when a send does not complete within its deadline.
	ErrTimeout = constError("telegram request timed out")
	// ErrDeliveryFailed is returned for transport failures and unusable responses.
	ErrDeliveryFailed = constError("telegram delivery failed")
)

// IsTimeout checks if the error is a send timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsDeliveryFailed checks if the error is a non-timeout delivery failure.
func IsDeliveryFailed(err error) bool {
	return errors.Is(err, ErrDeliveryFailed)
}

type constError string

func (e constError) Error() string {
	return string(e)
}

// classify wraps a transport error as ErrTimeout when the request deadline
// expired and as ErrDeliveryFailed otherwise.
func classify(ctx context.Context, method string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", ErrTimeout, method, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s: %w", ErrTimeout, method, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrDeliveryFailed, method, err)
}
