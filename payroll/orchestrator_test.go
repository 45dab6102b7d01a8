package payroll

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gzizouseif24/xero-automation/xero/v1"
)

type fakeCreator struct {
	mu    sync.Mutex
	calls []string // idempotency keys in call order
	fail  map[string]error
}

func (f *fakeCreator) Create(_ context.Context, payload *v1.TimesheetPayload, idempotencyKey string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, idempotencyKey)
	if err, ok := f.fail[payload.EmployeeID]; ok {
		return "", err
	}
	return "ts-" + payload.EmployeeID, nil
}

type fakePayloadStore struct {
	saved map[string]*v1.TimesheetPayload
}

func (f *fakePayloadStore) SavedPayload(_ context.Context, employeeID string) (*v1.TimesheetPayload, bool, error) {
	p, ok := f.saved[employeeID]
	return p, ok, nil
}

type fakeArtifacts struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (f *fakeArtifacts) WriteArtifact(_ context.Context, name string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.files == nil {
		f.files = map[string][]byte{}
	}
	f.files[name] = data
	return nil
}

func secondTimesheet() EmployeeTimesheet {
	return EmployeeTimesheet{
		EmployeeName:   "Patrick Kelly",
		EmployeeID:     "emp-1",
		Identity:       resolvedIdentity("emp-1", "Patrick Kelly"),
		PayPeriodStart: day(3),
		PayPeriodEnd:   day(9),
		Entries: []DailyEntry{
			{Date: day(3), RegionName: "North Sydney", RegionKnown: true, HourType: HourTypeRegular, Units: 8},
		},
	}
}

func TestIdempotencyKeyDeterministic(t *testing.T) {
	a := IdempotencyKey("emp-2", day(3), day(9))
	b := IdempotencyKey("emp-2", day(3), day(9))
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, IdempotencyKey("emp-1", day(3), day(9)))
	assert.NotEqual(t, a, IdempotencyKey("emp-2", day(10), day(16)))
}

func TestSubmitDryRun(t *testing.T) {
	client := &fakeCreator{}
	artifacts := &fakeArtifacts{}
	o := NewOrchestrator(client, testMappings())

	blocked := secondTimesheet()
	blocked.Blocked = true
	blocked.Identity.State = StateAmbiguous

	result, err := o.Submit(context.Background(), []EmployeeTimesheet{testTimesheet(), blocked}, SubmitOptions{
		DryRun:    true,
		RunID:     "run-1",
		Artifacts: artifacts,
	})
	require.NoError(t, err)

	// Dry runs never call the API, even for blocked timesheets.
	assert.Empty(t, client.calls)
	assert.True(t, result.Success)
	require.Len(t, result.Records, 2)
	for _, rec := range result.Records {
		assert.Equal(t, OutcomeValidated, rec.Outcome)
	}

	assert.Contains(t, artifacts.files, "Sarah_Connor_run-1.json")
	assert.Contains(t, artifacts.files, "Patrick_Kelly_run-1.json")
}

func TestSubmitRealMode(t *testing.T) {
	client := &fakeCreator{}
	o := NewOrchestrator(client, testMappings())

	result, err := o.Submit(context.Background(), []EmployeeTimesheet{testTimesheet(), secondTimesheet()}, SubmitOptions{})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Len(t, client.calls, 2)
	require.Len(t, result.Records, 2)
	// Records come back sorted by employee name.
	assert.Equal(t, "Patrick Kelly", result.Records[0].EmployeeName)
	assert.Equal(t, OutcomeCreated, result.Records[0].Outcome)
	assert.Equal(t, IdempotencyKey("emp-1", day(3), day(9)), result.Records[0].IdempotencyKey)

	// The Xero timesheet IDs come back on the records.
	assert.Equal(t, "ts-emp-1", result.Records[0].ExternalID)
	assert.Equal(t, "ts-emp-2", result.Records[1].ExternalID)
}

func TestSubmitRealModeSkipsBlocked(t *testing.T) {
	client := &fakeCreator{}
	o := NewOrchestrator(client, testMappings())

	blocked := secondTimesheet()
	blocked.Blocked = true

	result, err := o.Submit(context.Background(), []EmployeeTimesheet{blocked}, SubmitOptions{})
	require.NoError(t, err)

	assert.Empty(t, client.calls)
	assert.False(t, result.Success)
	require.Len(t, result.Records, 1)
	assert.Equal(t, OutcomeFailed, result.Records[0].Outcome)
	require.NotEmpty(t, result.Records[0].Errors)
	assert.Contains(t, result.Records[0].Errors[0], "not resolved")
}

func TestSubmitPartialFailure(t *testing.T) {
	client := &fakeCreator{fail: map[string]error{"emp-1": fmt.Errorf("validation failed upstream")}}
	o := NewOrchestrator(client, testMappings())

	result, err := o.Submit(context.Background(), []EmployeeTimesheet{testTimesheet(), secondTimesheet()}, SubmitOptions{})
	require.NoError(t, err)

	// One failure never stops the other submissions.
	assert.Len(t, client.calls, 2)
	assert.False(t, result.Success)
	require.Len(t, result.Failed(), 1)
	assert.Equal(t, "emp-1", result.Failed()[0].EmployeeID)
	assert.Empty(t, result.Failed()[0].ExternalID)
	require.Len(t, result.Created(), 1)
	assert.Equal(t, "emp-2", result.Created()[0].EmployeeID)
	assert.Equal(t, "ts-emp-2", result.Created()[0].ExternalID)
}

func TestSubmitMappingGapAbortsBeforeAnyCall(t *testing.T) {
	client := &fakeCreator{}
	maps := testMappings()
	delete(maps.EarningsRates, HourTypeRegular)
	o := NewOrchestrator(client, maps)

	_, err := o.Submit(context.Background(), []EmployeeTimesheet{testTimesheet()}, SubmitOptions{})
	require.Error(t, err)
	assert.Empty(t, client.calls)
}

func TestSubmitSavedPayloadPrecedence(t *testing.T) {
	saved := &v1.TimesheetPayload{
		EmployeeID: "emp-2",
		StartDate:  "2026-08-03",
		EndDate:    "2026-08-09",
		Status:     "Draft",
		TimesheetLines: []v1.TimesheetLine{
			{Date: "2026-08-03", EarningsRateID: "rate-reg", NumberOfUnits: 1.5},
		},
	}
	store := &fakePayloadStore{saved: map[string]*v1.TimesheetPayload{"emp-2": saved}}

	var submitted *v1.TimesheetPayload
	client := &captureCreator{onCreate: func(p *v1.TimesheetPayload) { submitted = p }}
	o := NewOrchestrator(client, testMappings())

	t.Run("Real mode submits the saved payload", func(t *testing.T) {
		result, err := o.Submit(context.Background(), []EmployeeTimesheet{testTimesheet()}, SubmitOptions{Payloads: store})
		require.NoError(t, err)
		assert.True(t, result.Success)
		require.NotNil(t, submitted)
		assert.Equal(t, saved, submitted)
	})

	t.Run("Dry run ignores saved payloads", func(t *testing.T) {
		artifacts := &fakeArtifacts{}
		_, err := o.Submit(context.Background(), []EmployeeTimesheet{testTimesheet()}, SubmitOptions{
			DryRun:    true,
			RunID:     "r",
			Payloads:  store,
			Artifacts: artifacts,
		})
		require.NoError(t, err)
		data := artifacts.files["Sarah_Connor_r.json"]
		require.NotEmpty(t, data)
		// The dry-run artifact is the freshly built payload, not the saved one.
		assert.NotContains(t, string(data), "1.5")
	})
}

type captureCreator struct {
	onCreate func(*v1.TimesheetPayload)
}

func (c *captureCreator) Create(_ context.Context, payload *v1.TimesheetPayload, _ string) (string, error) {
	c.onCreate(payload)
	return "ts-" + payload.EmployeeID, nil
}

func TestSubmitCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &fakeCreator{}
	o := NewOrchestrator(client, testMappings())

	result, err := o.Submit(ctx, []EmployeeTimesheet{testTimesheet(), secondTimesheet()}, SubmitOptions{Workers: 1})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, result.Success)
}

// cancellingCreator cancels the run's context from inside the first create
// call, as an external caller aborting mid-run would.
type cancellingCreator struct {
	fakeCreator
	cancel context.CancelFunc
}

func (c *cancellingCreator) Create(ctx context.Context, payload *v1.TimesheetPayload, idempotencyKey string) (string, error) {
	c.cancel()
	return c.fakeCreator.Create(ctx, payload, idempotencyKey)
}

func TestSubmitCancellationKeepsCompletedRecords(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &cancellingCreator{cancel: cancel}
	o := NewOrchestrator(client, testMappings())

	result, err := o.Submit(ctx, []EmployeeTimesheet{testTimesheet(), secondTimesheet()}, SubmitOptions{Workers: 1})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, result.Success)

	// The first employee was already submitted when the cancellation landed;
	// that creation is real and must still be reported.
	require.NotEmpty(t, result.Records)
	var sarah *SubmissionRecord
	for i := range result.Records {
		if result.Records[i].EmployeeID == "emp-2" {
			sarah = &result.Records[i]
		}
	}
	require.NotNil(t, sarah)
	assert.Equal(t, OutcomeCreated, sarah.Outcome)
	assert.Equal(t, "ts-emp-2", sarah.ExternalID)
}
