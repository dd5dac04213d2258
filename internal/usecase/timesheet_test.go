package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/timepulse"
	"github.com/totegamma/timepulse/internal/domain"
	"github.com/totegamma/timepulse/internal/extract"
)

const tenantID = "tenant-1"

type timesheetFixture struct {
	uc       *TimesheetUsecase
	repo     *memTimesheets
	notifier *recordingNotifier
	access   *fakeAccess
}

func newTimesheetFixture() timesheetFixture {
	employees := newMemEmployees(
		domain.Employee{ID: "emp-1", TenantID: tenantID, FirstName: "Jane", LastName: "Doe", Status: domain.EmployeeActive, ClientID: strPtr("client-1")},
		domain.Employee{ID: "emp-2", TenantID: tenantID, FirstName: "Rita", LastName: "Reviewer", Status: domain.EmployeeActive},
	)
	users := &memUsers{users: []domain.User{
		{ID: "user-jane", TenantID: tenantID, Role: domain.RoleEmployee, EmployeeID: strPtr("emp-1")},
		{ID: "user-rita", TenantID: tenantID, Role: domain.RoleReviewer, EmployeeID: strPtr("emp-2")},
		{ID: "user-boss", TenantID: tenantID, Role: domain.RoleManager},
	}}
	clients := newMemClients(
		domain.Client{ID: "client-1", TenantID: tenantID, Name: "Acme"},
		domain.Client{ID: "client-x", TenantID: "tenant-2", Name: "Elsewhere"},
	)
	repo := newMemTimesheets(employees)
	notifier := &recordingNotifier{}
	access := allowRoles(domain.RoleAdmin, domain.RoleManager, domain.RoleReviewer)
	now := fixedClock(time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC))
	return timesheetFixture{
		uc:       NewTimesheetUsecase(repo, employees, clients, users, access, notifier, nil, now),
		repo:     repo,
		notifier: notifier,
		access:   access,
	}
}

var reviewer = domain.Requester{TenantID: tenantID, UserID: "user-rita", Role: domain.RoleReviewer}

func (f timesheetFixture) submitted(t *testing.T, employeeID string) domain.Timesheet {
	t.Helper()
	ts, err := f.uc.Create(context.Background(), tenantID, TimesheetInput{
		EmployeeID: employeeID,
		WeekStart:  date("2024-03-11"),
		DailyHours: timepulse.DailyHours{8, 8, 8, 8, 8},
	})
	require.NoError(t, err)
	ts, err = f.uc.Submit(context.Background(), domain.Requester{TenantID: tenantID}, ts.ID)
	require.NoError(t, err)
	return ts
}

func TestTimesheetCreateNormalizesWeek(t *testing.T) {
	f := newTimesheetFixture()

	ts, err := f.uc.Create(context.Background(), tenantID, TimesheetInput{
		EmployeeID: "emp-1",
		WeekStart:  date("2024-03-13"),
		DailyHours: timepulse.DailyHours{8, 7.5, 8, 8, 6},
	})
	require.NoError(t, err)

	assert.Equal(t, date("2024-03-11"), ts.WeekStart)
	assert.Equal(t, domain.TimesheetDraft, ts.Status)
	assert.Equal(t, domain.SourceManual, ts.Source)
	assert.Equal(t, 37.5, ts.TotalHours)
	require.NotNil(t, ts.ClientID)
	assert.Equal(t, "client-1", *ts.ClientID)

	_, err = f.uc.Create(context.Background(), tenantID, TimesheetInput{
		EmployeeID: "emp-1",
		WeekStart:  date("2024-03-15"),
		DailyHours: timepulse.DailyHours{1},
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestTimesheetCreateValidatesHours(t *testing.T) {
	f := newTimesheetFixture()

	_, err := f.uc.Create(context.Background(), tenantID, TimesheetInput{
		EmployeeID: "emp-1",
		WeekStart:  date("2024-03-11"),
		DailyHours: timepulse.DailyHours{25},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.uc.Create(context.Background(), tenantID, TimesheetInput{
		EmployeeID: "nobody",
		WeekStart:  date("2024-03-11"),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTimesheetSubmitRequiresHours(t *testing.T) {
	f := newTimesheetFixture()

	ts, err := f.uc.Create(context.Background(), tenantID, TimesheetInput{EmployeeID: "emp-1", WeekStart: date("2024-03-11")})
	require.NoError(t, err)

	_, err = f.uc.Submit(context.Background(), domain.Requester{TenantID: tenantID}, ts.ID)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTimesheetSubmitNotifiesApprovers(t *testing.T) {
	f := newTimesheetFixture()
	ts := f.submitted(t, "emp-1")

	assert.Equal(t, domain.TimesheetSubmitted, ts.Status)
	require.NotNil(t, ts.SubmittedAt)

	var recipients []string
	for _, n := range f.notifier.sent {
		assert.Equal(t, domain.NotifyTimesheetSubmitted, n.Kind)
		recipients = append(recipients, n.UserID)
	}
	assert.ElementsMatch(t, []string{"user-rita", "user-boss"}, recipients)

	// reviewers do not get their own submissions
	f.notifier.sent = nil
	f.submitted(t, "emp-2")
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "user-boss", f.notifier.sent[0].UserID)
}

func TestTimesheetApprove(t *testing.T) {
	f := newTimesheetFixture()
	ts := f.submitted(t, "emp-1")
	f.notifier.sent = nil

	approved, err := f.uc.Approve(context.Background(), reviewer, ts.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.TimesheetApproved, approved.Status)
	require.NotNil(t, approved.ReviewerID)
	assert.Equal(t, "user-rita", *approved.ReviewerID)
	assert.Equal(t, "emp-1", f.access.subjects[0]["employeeId"])
	assert.Equal(t, []string{domain.NotifyTimesheetApproved}, f.notifier.kinds())
	assert.Equal(t, "user-jane", f.notifier.sent[0].UserID)

	_, err = f.uc.Approve(context.Background(), reviewer, ts.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTimesheetReviewRules(t *testing.T) {
	f := newTimesheetFixture()
	own := f.submitted(t, "emp-2")

	_, err := f.uc.Approve(context.Background(), reviewer, own.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	other := f.submitted(t, "emp-1")
	employee := domain.Requester{TenantID: tenantID, UserID: "user-jane", Role: domain.RoleEmployee}
	_, err = f.uc.Approve(context.Background(), employee, other.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.uc.Reject(context.Background(), reviewer, other.ID, "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	rejected, err := f.uc.Reject(context.Background(), reviewer, other.ID, "Friday is missing")
	require.NoError(t, err)
	assert.Equal(t, domain.TimesheetRejected, rejected.Status)
	assert.Equal(t, "Friday is missing", rejected.RejectionReason)
}

// staleTimesheets serves a snapshot read before another review landed.
type staleTimesheets struct {
	*memTimesheets
	snapshot domain.Timesheet
}

func (s staleTimesheets) Get(ctx context.Context, tenantID, id string) (domain.Timesheet, error) {
	return s.snapshot, nil
}

func TestTimesheetReviewOnStaleRead(t *testing.T) {
	f := newTimesheetFixture()
	ts := f.submitted(t, "emp-1")
	f.notifier.sent = nil

	manager := domain.Requester{TenantID: tenantID, UserID: "user-boss", Role: domain.RoleManager}
	_, err := f.uc.Approve(context.Background(), manager, ts.ID)
	require.NoError(t, err)

	late := *f.uc
	late.repo = staleTimesheets{memTimesheets: f.repo, snapshot: ts}
	_, err = late.Reject(context.Background(), reviewer, ts.ID, "wrong week")
	assert.ErrorIs(t, err, domain.ErrConflict)

	current, err := f.repo.Get(context.Background(), tenantID, ts.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TimesheetApproved, current.Status)
	assert.Equal(t, []string{domain.NotifyTimesheetApproved}, f.notifier.kinds())
}

func TestTimesheetClientMustBelongToTenant(t *testing.T) {
	f := newTimesheetFixture()

	_, err := f.uc.Create(context.Background(), tenantID, TimesheetInput{
		EmployeeID: "emp-1",
		ClientID:   strPtr("client-x"),
		WeekStart:  date("2024-03-11"),
		DailyHours: timepulse.DailyHours{8},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	ts, err := f.uc.Create(context.Background(), tenantID, TimesheetInput{
		EmployeeID: "emp-1",
		ClientID:   strPtr("client-1"),
		WeekStart:  date("2024-03-11"),
		DailyHours: timepulse.DailyHours{8},
	})
	require.NoError(t, err)

	_, err = f.uc.Update(context.Background(), tenantID, ts.ID, TimesheetUpdate{ClientID: strPtr("missing")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTimesheetEditWorkflow(t *testing.T) {
	f := newTimesheetFixture()
	ts := f.submitted(t, "emp-1")

	hours := timepulse.DailyHours{8, 8, 8, 8, 8, 4}
	_, err := f.uc.Update(context.Background(), tenantID, ts.ID, TimesheetUpdate{DailyHours: &hours})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	err = f.uc.Delete(context.Background(), tenantID, ts.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.uc.Reject(context.Background(), reviewer, ts.ID, "add saturday")
	require.NoError(t, err)

	updated, err := f.uc.Update(context.Background(), tenantID, ts.ID, TimesheetUpdate{DailyHours: &hours})
	require.NoError(t, err)
	assert.Equal(t, domain.TimesheetRejected, updated.Status)
	assert.Equal(t, 44.0, updated.TotalHours)

	resubmitted, err := f.uc.Submit(context.Background(), domain.Requester{TenantID: tenantID}, ts.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TimesheetSubmitted, resubmitted.Status)
	assert.Empty(t, resubmitted.RejectionReason)
}

func TestTimesheetDeleteDraft(t *testing.T) {
	f := newTimesheetFixture()
	ts, err := f.uc.Create(context.Background(), tenantID, TimesheetInput{EmployeeID: "emp-1", WeekStart: date("2024-03-11")})
	require.NoError(t, err)

	require.NoError(t, f.uc.Delete(context.Background(), tenantID, ts.ID))
	_, err = f.uc.Get(context.Background(), tenantID, ts.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTimesheetCreateFromExtraction(t *testing.T) {
	f := newTimesheetFixture()
	result := extract.Result{
		DailyHours: timepulse.DailyHours{8, 8, 8},
		TotalHours: 24,
		Confidence: 0.74,
		Strategy:   extract.StrategyCSV,
		Warnings:   []string{"stated total 25.00 does not match daily sum 24.00"},
		Valid:      true,
	}

	ts, err := f.uc.CreateFromExtraction(context.Background(), tenantID, "emp-1", date("2024-03-12"), result)
	require.NoError(t, err)

	assert.Equal(t, domain.SourceUpload, ts.Source)
	assert.Equal(t, domain.TimesheetDraft, ts.Status)
	assert.Equal(t, date("2024-03-11"), ts.WeekStart)
	require.NotNil(t, ts.Confidence)
	assert.Equal(t, 0.74, *ts.Confidence)
	assert.Contains(t, ts.Notes, "csv")
	assert.Contains(t, ts.Notes, "does not match")
}
