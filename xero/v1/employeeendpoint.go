package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

type EmployeeEndpoint struct {
	transport *Transport
}

const employeePageSize = 100

// List fetches every employee, walking Xero's paged responses.
func (ep *EmployeeEndpoint) List(ctx context.Context) ([]EmployeeDTO, error) {
	var all []EmployeeDTO

	for page := 1; ; page++ {
		resp, err := ep.transport.Get(ctx, "/payroll.xro/2.0/Employees", map[string]string{
			"page": strconv.Itoa(page),
		})
		if err != nil {
			return nil, err
		}

		var result struct {
			Employees []EmployeeDTO `json:"Employees"`
		}
		if err := json.Unmarshal(resp.Data, &result); err != nil {
			return nil, fmt.Errorf("decode employees page %d: %w", page, err)
		}

		all = append(all, result.Employees...)
		if len(result.Employees) < employeePageSize {
			break
		}
	}

	return all, nil
}

// PayrollCalendarID fetches the payroll calendar for one employee, used when
// the create payload needs a PayrollCalendarID.
func (ep *EmployeeEndpoint) PayrollCalendarID(ctx context.Context, employeeID string) (string, error) {
	resp, err := ep.transport.Get(ctx, fmt.Sprintf("/payroll.xro/2.0/Employees/%s", employeeID), nil)
	if err != nil {
		return "", err
	}

	var result struct {
		Employee  *EmployeeDTO  `json:"Employee"`
		Employees []EmployeeDTO `json:"Employees"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return "", fmt.Errorf("decode employee %s: %w", employeeID, err)
	}

	if result.Employee != nil {
		return result.Employee.PayrollCalendarID, nil
	}
	if len(result.Employees) > 0 {
		return result.Employees[0].PayrollCalendarID, nil
	}
	return "", fmt.Errorf("employee %s not found", employeeID)
}
