// Package services holds the profile, friendship and notification operations
// exposed to the HTTP layer.
package services

import (
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/theleywin/talent-nest-friends/src/lib"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/theleywin/talent-nest-friends/src/services")

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, lib.PublicMessage(err))
	}
	span.End()
}

// storeError passes domain errors through and wraps everything else as a
// store failure carrying message.
func storeError(err error, message string) error {
	var domain *lib.Error
	if errors.As(err, &domain) {
		return err
	}
	return lib.StoreFailure(message, err)
}

// logOutcome logs a finished operation: store failures at error level,
// refused actions at debug level.
func logOutcome(entry *logrus.Entry, err error, success string) {
	switch {
	case err == nil:
		entry.Info(success)
	case lib.KindOf(err) == lib.KindStoreFailure:
		entry.WithError(err).Error("Store failure")
	default:
		entry.WithField("reason", lib.PublicMessage(err)).Debug("Operation refused")
	}
}
