package communication

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gzizouseif24/xero-automation/payroll"
)

func TestFormatRun(t *testing.T) {
	t.Run("Clean run", func(t *testing.T) {
		msg := FormatRun(payroll.RunResult{
			RunID:  "run-1",
			DryRun: true,
			Records: []payroll.SubmissionRecord{
				{EmployeeName: "Sarah Connor", Outcome: payroll.OutcomeValidated},
			},
			Success: true,
		})
		assert.Contains(t, msg, "run-1")
		assert.Contains(t, msg, "dry-run")
		assert.Contains(t, msg, "no failures")
	})

	t.Run("Run with failures lists them", func(t *testing.T) {
		msg := FormatRun(payroll.RunResult{
			RunID: "run-2",
			Records: []payroll.SubmissionRecord{
				{EmployeeName: "Sarah Connor", Outcome: payroll.OutcomeCreated},
				{EmployeeName: "Patrick Kelly", Outcome: payroll.OutcomeFailed, Errors: []string{"validation failed"}},
			},
		})
		assert.Contains(t, msg, "real")
		assert.Contains(t, msg, "1 created")
		assert.Contains(t, msg, "1 failed")
		assert.Contains(t, msg, "Patrick Kelly: validation failed")
	})
}
