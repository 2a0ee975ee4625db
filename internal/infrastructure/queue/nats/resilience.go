package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/course-assistant/internal/core/domain"
	"github.com/kirillkom/course-assistant/internal/infrastructure/resilience"
)

// Errors caused by the turn event itself. Resending the same payload cannot
// succeed and the broker is healthy, so they neither retry nor trip the breaker.
var rejectedTurnErrors = []error{
	nats.ErrMaxPayload,
	nats.ErrBadSubject,
	nats.ErrInvalidMsg,
}

// Errors from a broker that is unreachable or still reconnecting.
var brokerDownErrors = []error{
	nats.ErrNoServers,
	nats.ErrTimeout,
	nats.ErrReconnectBufExceeded,
	nats.ErrConnectionClosed,
	nats.ErrConnectionReconnecting,
	nats.ErrDisconnected,
}

func classifyPublishError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.ErrorClassification{}
	case isAny(err, rejectedTurnErrors):
		return resilience.ErrorClassification{}
	case resilience.IsCircuitOpen(err), isAny(err, brokerDownErrors):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return resilience.ErrorClassification{RecordFailure: true}
	}
}

// publishError marks broker outages as temporary so the chat turn logs them
// as a transient sink failure; rejected payloads keep their own error.
func publishError(err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyPublishError(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, "nats publish turn", err)
	}
	return err
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
