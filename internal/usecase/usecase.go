package usecase

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"github.com/totegamma/timepulse/internal/domain"
)

var tracer = otel.Tracer("usecase")

var decimalOne = decimal.NewFromInt(1)

// Clock returns the current time. Usecases take one so tests can pin it.
type Clock func() time.Time

func newID() string {
	return uuid.NewString()
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

func validEmail(field, value string) error {
	if err := required(field, value); err != nil {
		return err
	}
	if _, err := mail.ParseAddress(value); err != nil {
		return domain.ValidationError{Field: field, Message: "is not a valid email address"}
	}
	return nil
}
