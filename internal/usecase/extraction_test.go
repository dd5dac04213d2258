package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/timepulse/internal/domain"
	"github.com/totegamma/timepulse/internal/extract"
)

func TestExtractionCreatesDraft(t *testing.T) {
	f := newTimesheetFixture()
	uc := NewExtractionUsecase(extract.NewExtractor(nil, 0, nil), f.uc)

	csv := []byte("Mon,Tue,Wed,Thu,Fri\n8,8,8,8,4\n")
	week := date("2024-03-11")

	preview, err := uc.Extract(context.Background(), tenantID, ExtractionInput{Filename: "week.csv", Data: csv})
	require.NoError(t, err)
	assert.Nil(t, preview.Timesheet)
	assert.Equal(t, 36.0, preview.Result.TotalHours)

	outcome, err := uc.Extract(context.Background(), tenantID, ExtractionInput{
		Filename:   "week.csv",
		Data:       csv,
		EmployeeID: "emp-1",
		WeekStart:  &week,
	})
	require.NoError(t, err)
	require.NotNil(t, outcome.Timesheet)
	assert.Equal(t, domain.SourceUpload, outcome.Timesheet.Source)
	assert.Equal(t, 36.0, outcome.Timesheet.TotalHours)
}

func TestExtractionRejectsBadFiles(t *testing.T) {
	f := newTimesheetFixture()
	uc := NewExtractionUsecase(extract.NewExtractor(nil, 0, nil), f.uc)

	_, err := uc.Extract(context.Background(), tenantID, ExtractionInput{Filename: "a.zip", Data: []byte("PK")})
	assert.ErrorIs(t, err, domain.ErrValidation)

	week := date("2024-03-11")
	_, err = uc.Extract(context.Background(), tenantID, ExtractionInput{
		Filename:   "a.txt",
		Data:       []byte("no hours here"),
		EmployeeID: "emp-1",
		WeekStart:  &week,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
