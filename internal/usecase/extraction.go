package usecase

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/timepulse/internal/domain"
	"github.com/totegamma/timepulse/internal/extract"
)

type ExtractionInput struct {
	Filename    string
	ContentType string
	Data        []byte
	// EmployeeID and WeekStart, when both set, turn the result into a draft.
	EmployeeID string
	WeekStart  *time.Time
}

type ExtractionOutcome struct {
	Result    extract.Result    `json:"result"`
	Timesheet *domain.Timesheet `json:"timesheet,omitempty"`
}

type ExtractionUsecase struct {
	extractor  Extractor
	timesheets *TimesheetUsecase
}

func NewExtractionUsecase(extractor Extractor, timesheets *TimesheetUsecase) *ExtractionUsecase {
	return &ExtractionUsecase{extractor: extractor, timesheets: timesheets}
}

func (uc *ExtractionUsecase) Extract(ctx context.Context, tenantID string, input ExtractionInput) (ExtractionOutcome, error) {
	ctx, span := tracer.Start(ctx, "Extraction.Usecase.Extract")
	defer span.End()

	result, err := uc.extractor.Extract(ctx, input.Filename, input.ContentType, input.Data)
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, extract.ErrEmptyFile),
			errors.Is(err, extract.ErrUnsupportedFormat),
			errors.Is(err, extract.ErrFileTooLarge),
			errors.Is(err, extract.ErrOCRUnavailable):
			return ExtractionOutcome{}, domain.ValidationError{Field: "file", Message: err.Error()}
		}
		return ExtractionOutcome{}, errors.Wrap(err, "Extraction.Usecase.Extract")
	}
	span.SetAttributes(
		attribute.String("strategy", string(result.Strategy)),
		attribute.Float64("confidence", result.Confidence),
	)

	outcome := ExtractionOutcome{Result: result}
	if input.EmployeeID == "" || input.WeekStart == nil {
		return outcome, nil
	}
	if !result.Valid {
		return outcome, domain.ValidationError{Field: "file", Message: "extracted hours are not valid enough to create a timesheet"}
	}

	ts, err := uc.timesheets.CreateFromExtraction(ctx, tenantID, input.EmployeeID, *input.WeekStart, result)
	if err != nil {
		return outcome, err
	}
	outcome.Timesheet = &ts
	return outcome, nil
}
