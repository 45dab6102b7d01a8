package payroll

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	v1 "github.com/gzizouseif24/xero-automation/xero/v1"
)

// TimesheetCreator is the slice of the payroll API the orchestrator needs.
type TimesheetCreator interface {
	Create(ctx context.Context, payload *v1.TimesheetPayload, idempotencyKey string) (string, error)
}

// PayloadStore hands back a previously saved payload for an employee, if one
// exists. Saved payloads take precedence over freshly built ones in real
// submissions only; dry runs always rebuild from scratch.
type PayloadStore interface {
	SavedPayload(ctx context.Context, employeeID string) (*v1.TimesheetPayload, bool, error)
}

// ArtifactWriter persists the per-employee debug artifact written on every
// run, dry or real.
type ArtifactWriter interface {
	WriteArtifact(ctx context.Context, name string, data []byte) error
}

// idempotencyNamespace is fixed so that the same employee/period pair always
// derives the same key, across runs and across processes.
var idempotencyNamespace = uuid.MustParse("9b1bb2f0-38c4-4a6a-9d54-6d8e5a1f0c27")

// IdempotencyKey derives the deterministic submission key for one employee
// and pay period.
func IdempotencyKey(employeeID string, start, end time.Time) string {
	seed := fmt.Sprintf("%s|%s|%s", employeeID, start.Format(time.DateOnly), end.Format(time.DateOnly))
	return uuid.NewSHA1(idempotencyNamespace, []byte(seed)).String()
}

// SubmitOptions configures one orchestrator run.
type SubmitOptions struct {
	// DryRun validates and writes artifacts without calling the API.
	DryRun bool
	// Workers bounds the number of concurrent submissions. Zero or negative
	// falls back to DefaultWorkers.
	Workers int
	// RunID tags this run's artifacts. Empty generates a fresh one.
	RunID string
	// Payloads is consulted for per-employee saved payloads in real mode.
	// May be nil.
	Payloads PayloadStore
	// Artifacts receives the per-employee payload dumps. May be nil.
	Artifacts ArtifactWriter
}

// DefaultWorkers bounds submission concurrency when the caller does not.
const DefaultWorkers = 4

// RunResult aggregates one orchestrator run. Success means every attempted
// employee reached Created (real mode) or Validated (dry run).
type RunResult struct {
	RunID   string             `json:"runId"`
	DryRun  bool               `json:"dryRun"`
	Records []SubmissionRecord `json:"records"`
	Success bool               `json:"success"`
}

// Created returns the records that ended in OutcomeCreated.
func (r RunResult) Created() []SubmissionRecord {
	return r.filter(OutcomeCreated)
}

// Failed returns the records that ended in OutcomeFailed.
func (r RunResult) Failed() []SubmissionRecord {
	return r.filter(OutcomeFailed)
}

func (r RunResult) filter(outcome Outcome) []SubmissionRecord {
	var out []SubmissionRecord
	for _, rec := range r.Records {
		if rec.Outcome == outcome {
			out = append(out, rec)
		}
	}
	return out
}

// Orchestrator drives the submission phase: payload build, structural
// validation, artifact write and, in real mode, the create call. Each
// employee is handled independently; one failure never stops the others.
// Failed submissions are reported, never retried here.
type Orchestrator struct {
	client   TimesheetCreator
	mappings Mappings
}

func NewOrchestrator(client TimesheetCreator, mappings Mappings) *Orchestrator {
	return &Orchestrator{client: client, mappings: mappings}
}

// Submit processes the given timesheets under the run options. Blocked
// timesheets are skipped in real mode and recorded as Failed without an API
// call. A mapping gap for any hour type present in the data aborts the run
// before any submission is attempted.
func (o *Orchestrator) Submit(ctx context.Context, timesheets []EmployeeTimesheet, opts SubmitOptions) (RunResult, error) {
	result := RunResult{RunID: opts.RunID, DryRun: opts.DryRun}
	if result.RunID == "" {
		result.RunID = uuid.NewString()
	}
	if err := o.mappings.CheckMappings(timesheets); err != nil {
		return result, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(timesheets) {
		workers = len(timesheets)
	}

	jobs := make(chan EmployeeTimesheet)
	records := make([]SubmissionRecord, 0, len(timesheets))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ts := range jobs {
				rec := o.submitOne(ctx, ts, opts, result.RunID)
				mu.Lock()
				records = append(records, rec)
				mu.Unlock()
			}
		}()
	}

feed:
	for _, ts := range timesheets {
		select {
		case jobs <- ts:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(records, func(i, j int) bool {
		return records[i].EmployeeName < records[j].EmployeeName
	})
	result.Records = records

	// Cancellation stops scheduling, but submissions already completed are
	// real and must still be reported.
	if err := ctx.Err(); err != nil {
		return result, err
	}

	result.Success = true
	for _, rec := range records {
		if rec.Outcome == OutcomeFailed {
			result.Success = false
			break
		}
	}
	return result, nil
}

func (o *Orchestrator) submitOne(ctx context.Context, ts EmployeeTimesheet, opts SubmitOptions, runID string) SubmissionRecord {
	rec := SubmissionRecord{
		EmployeeID:   ts.EmployeeID,
		EmployeeName: ts.EmployeeName,
		Outcome:      OutcomePending,
	}
	if ts.EmployeeID != "" {
		rec.IdempotencyKey = IdempotencyKey(ts.EmployeeID, ts.PayPeriodStart, ts.PayPeriodEnd)
	}

	if !opts.DryRun && ts.Blocked {
		rec.Outcome = OutcomeFailed
		rec.Errors = []string{fmt.Sprintf("employee %q is not resolved; skipped", ts.EmployeeName)}
		return rec
	}

	payload, err := o.loadOrBuild(ctx, ts, opts)
	if err != nil {
		rec.Outcome = OutcomeFailed
		rec.Errors = []string{err.Error()}
		return rec
	}

	if errs := ValidatePayload(payload); len(errs) > 0 {
		rec.Outcome = OutcomeFailed
		rec.Errors = errs
		return rec
	}

	o.writeArtifact(ctx, ts, payload, opts, runID)

	if opts.DryRun {
		rec.Outcome = OutcomeValidated
		return rec
	}

	externalID, err := o.client.Create(ctx, payload, rec.IdempotencyKey)
	if err != nil {
		rec.Outcome = OutcomeFailed
		rec.Errors = []string{err.Error()}
		return rec
	}
	rec.Outcome = OutcomeCreated
	rec.ExternalID = externalID
	return rec
}

// loadOrBuild prefers a saved payload in real mode; everything else builds
// fresh from the consolidated timesheet.
func (o *Orchestrator) loadOrBuild(ctx context.Context, ts EmployeeTimesheet, opts SubmitOptions) (*v1.TimesheetPayload, error) {
	if !opts.DryRun && opts.Payloads != nil && ts.EmployeeID != "" {
		saved, ok, err := opts.Payloads.SavedPayload(ctx, ts.EmployeeID)
		if err != nil {
			return nil, fmt.Errorf("load saved payload for %q: %w", ts.EmployeeName, err)
		}
		if ok {
			return saved, nil
		}
	}
	return BuildPayload(ts, o.mappings, opts.DryRun)
}

func (o *Orchestrator) writeArtifact(ctx context.Context, ts EmployeeTimesheet, payload *v1.TimesheetPayload, opts SubmitOptions, runID string) {
	if opts.Artifacts == nil {
		return
	}
	data, err := MarshalArtifact(payload)
	if err != nil {
		log.Printf("marshal artifact for %s failed: %v", ts.EmployeeName, err)
		return
	}
	name := ArtifactName(ts.EmployeeName, runID)
	if err := opts.Artifacts.WriteArtifact(ctx, name, data); err != nil {
		log.Printf("write artifact %s failed: %v", name, err)
	}
}

// ArtifactName builds the per-employee artifact file name for a run.
func ArtifactName(employeeName, runID string) string {
	return fmt.Sprintf("%s_%s.json", sanitizeFileName(employeeName), runID)
}

func sanitizeFileName(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		case r == ' ':
			out = append(out, '_')
		}
	}
	return string(out)
}
