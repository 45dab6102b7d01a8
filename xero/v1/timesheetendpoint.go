package v1

import (
	"context"
	"encoding/json"
	"fmt"
)

type TimesheetEndpoint struct {
	transport *Transport
}

// Create posts one timesheet. The idempotency key is forwarded so a retried
// request with the same key is recognized by Xero as a duplicate and returns
// the originally created timesheet instead of creating a second record.
func (ep *TimesheetEndpoint) Create(ctx context.Context, payload *TimesheetPayload, idempotencyKey string) (string, error) {
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}

	resp, err := ep.transport.Post(ctx, "/payroll.xro/2.0/Timesheets", payload, headers)
	if err != nil {
		return "", err
	}

	var result struct {
		Timesheet *struct {
			TimesheetID string `json:"TimesheetID"`
		} `json:"Timesheet"`
		Timesheets []struct {
			TimesheetID string `json:"TimesheetID"`
		} `json:"Timesheets"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return "", fmt.Errorf("decode timesheet response: %w", err)
	}

	if result.Timesheet != nil && result.Timesheet.TimesheetID != "" {
		return result.Timesheet.TimesheetID, nil
	}
	if len(result.Timesheets) > 0 && result.Timesheets[0].TimesheetID != "" {
		return result.Timesheets[0].TimesheetID, nil
	}
	return "", fmt.Errorf("no timesheet ID returned")
}
