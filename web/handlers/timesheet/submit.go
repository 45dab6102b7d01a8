package timesheet

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gzizouseif24/xero-automation/payroll"
	web "github.com/gzizouseif24/xero-automation/web/common"
)

// Submit consolidates and then drives the submission run. With dryRun set it
// validates payloads and writes artifacts without calling Xero; otherwise it
// creates draft timesheets for every resolved employee.
func (ep *Endpoint) Submit(c *gin.Context) {
	var params SubmitParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}
	if len(params.rawEntries()) == 0 {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse("no entries provided"))
		return
	}

	consolidated, err := ep.consolidate(c, params.ValidateParams)
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	ctx := c.Request.Context()
	mappings := ep.deps.Settings.PayrollMappings()
	mappings.PayrollCalendars = ep.payrollCalendars(ctx, consolidated.Timesheets)

	orch := payroll.NewOrchestrator(ep.deps.Xero.Timesheets, mappings)
	result, err := orch.Submit(ctx, consolidated.Timesheets, payroll.SubmitOptions{
		DryRun:    params.DryRun,
		Workers:   params.Workers,
		RunID:     uuid.NewString(),
		Payloads:  ep.deps.Store,
		Artifacts: ep.deps.Artifacts,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	if err := ep.deps.Store.RecordRun(ctx, result); err != nil {
		log.Printf("record run %s failed: %v", result.RunID, err)
	}
	if ep.deps.Notifier != nil {
		if err := ep.deps.Notifier.NotifyRun(result); err != nil {
			log.Printf("notify run %s failed: %v", result.RunID, err)
		}
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{
		"run":      result,
		"warnings": consolidated.Warnings,
	}))
}

// payrollCalendars looks up the calendar of each resolved employee. Lookup
// failures degrade to an empty ID; the payload is still valid without one.
func (ep *Endpoint) payrollCalendars(ctx context.Context, timesheets []payroll.EmployeeTimesheet) map[string]string {
	calendars := map[string]string{}
	for _, ts := range timesheets {
		if ts.EmployeeID == "" {
			continue
		}
		id, err := ep.deps.Xero.Employees.PayrollCalendarID(ctx, ts.EmployeeID)
		if err != nil {
			log.Printf("payroll calendar lookup for %s failed: %v", ts.EmployeeName, err)
			continue
		}
		calendars[ts.EmployeeID] = id
	}
	return calendars
}
