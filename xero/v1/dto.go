package v1

// TimesheetPayload is the Xero Payroll timesheet create payload. Built fresh
// each run and never mutated after build, except by explicit user edits
// applied before a real submission.
type TimesheetPayload struct {
	EmployeeID        string          `json:"EmployeeID"`
	PayrollCalendarID string          `json:"PayrollCalendarID,omitempty"`
	StartDate         string          `json:"StartDate"` // yyyy-MM-dd
	EndDate           string          `json:"EndDate"`   // yyyy-MM-dd
	Status            string          `json:"Status"`
	TimesheetLines    []TimesheetLine `json:"TimesheetLines"`
}

type TimesheetLine struct {
	Date           string   `json:"Date"` // yyyy-MM-dd
	EarningsRateID string   `json:"EarningsRateID"`
	NumberOfUnits  float64  `json:"NumberOfUnits"`
	TrackingItemID string   `json:"TrackingItemID,omitempty"`
	RatePerUnit    *float64 `json:"RatePerUnit,omitempty"`
}

type EmployeeDTO struct {
	EmployeeID        string `json:"EmployeeID"`
	FirstName         string `json:"FirstName"`
	LastName          string `json:"LastName"`
	Status            string `json:"Status,omitempty"`
	PayrollCalendarID string `json:"PayrollCalendarID,omitempty"`
}

func (e EmployeeDTO) FullName() string {
	if e.FirstName == "" {
		return e.LastName
	}
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

type TrackingCategoryDTO struct {
	Name               string              `json:"Name"`
	TrackingCategoryID string              `json:"TrackingCategoryID"`
	Options            []TrackingOptionDTO `json:"Options"`
}

type TrackingOptionDTO struct {
	Name             string `json:"Name"`
	TrackingOptionID string `json:"TrackingOptionID"`
}
