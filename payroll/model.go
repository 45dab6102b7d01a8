package payroll

import (
	"fmt"
	"time"
)

// HourType classifies a timesheet entry.
type HourType string

const (
	HourTypeRegular  HourType = "REGULAR"
	HourTypeOvertime HourType = "OVERTIME"
	HourTypeTravel   HourType = "TRAVEL"
	HourTypeHoliday  HourType = "HOLIDAY"
)

// hourTypeRank fixes the ordering of entries sharing a date. The order is
// significant for deterministic payload generation.
var hourTypeRank = map[HourType]int{
	HourTypeRegular:  0,
	HourTypeOvertime: 1,
	HourTypeTravel:   2,
	HourTypeHoliday:  3,
}

func (h HourType) Valid() bool {
	_, ok := hourTypeRank[h]
	return ok
}

// Source identifies which input table an entry came from. Merge priority is
// site > travel > overtime table.
type Source string

const (
	SourceSite          Source = "site"
	SourceTravel        Source = "travel"
	SourceOvertimeTable Source = "overtime_rate_table"
)

var sourcePriority = map[Source]int{
	SourceSite:          0,
	SourceTravel:        1,
	SourceOvertimeTable: 2,
}

// RawEntry is a single already-parsed spreadsheet row. Immutable once parsed.
type RawEntry struct {
	EmployeeName string
	RegionName   string
	Date         time.Time
	HourType     HourType
	Units        float64
	Source       Source
}

// ResolutionState tracks how a raw name matched against the Xero directory.
type ResolutionState string

const (
	StateResolved   ResolutionState = "Resolved"
	StateAmbiguous  ResolutionState = "Ambiguous"
	StateUnresolved ResolutionState = "Unresolved"
	// StateUnknown is a terminal classification for regions only. Unknown
	// regions flow through consolidation and are filtered at real submission.
	StateUnknown ResolutionState = "Unknown"
)

// Candidate is a scored directory match.
type Candidate struct {
	ExternalID  string  `json:"externalId"`
	DisplayName string  `json:"displayName"`
	Score       float64 `json:"score"`
}

// Identity is the resolution outcome for one raw employee or region name.
type Identity struct {
	RawName    string          `json:"rawName"`
	ResolvedID string          `json:"resolvedId,omitempty"`
	State      ResolutionState `json:"state"`
	Candidates []Candidate     `json:"candidates,omitempty"`
}

// Suggestion returns the top candidate, if any.
func (id Identity) Suggestion() *Candidate {
	if len(id.Candidates) == 0 {
		return nil
	}
	return &id.Candidates[0]
}

// UnknownRegion is the region name attached to entries whose region failed
// confident resolution.
const UnknownRegion = "Unknown"

// DailyEntry is one normalized per-day, per-hour-type record for an employee.
type DailyEntry struct {
	Date           time.Time `json:"date"`
	RegionName     string    `json:"regionName"`
	OriginalRegion string    `json:"originalRegion,omitempty"`
	RegionKnown    bool      `json:"regionKnown"`
	HourType       HourType  `json:"hourType"`
	Units          float64   `json:"units"`
	OvertimeRate   *float64  `json:"overtimeRate,omitempty"`
}

// EmployeeTimesheet aggregates all daily entries for one employee over a pay
// period. Owned by the consolidator during assembly, read-only afterwards.
type EmployeeTimesheet struct {
	EmployeeName   string       `json:"employeeName"`
	EmployeeID     string       `json:"employeeId,omitempty"`
	Identity       Identity     `json:"identity"`
	PayPeriodStart time.Time    `json:"payPeriodStart"`
	PayPeriodEnd   time.Time    `json:"payPeriodEnd"`
	Entries        []DailyEntry `json:"entries"`
	// Blocked marks timesheets whose employee identity is not Resolved.
	// Blocked timesheets are visible in dry runs but never build a payload
	// in real mode.
	Blocked bool `json:"blocked"`
}

// TotalUnits sums entry units, optionally restricted to one hour type.
func (ts EmployeeTimesheet) TotalUnits(hourType HourType) float64 {
	var total float64
	for _, e := range ts.Entries {
		if hourType == "" || e.HourType == hourType {
			total += e.Units
		}
	}
	return total
}

// UnknownRegions returns the distinct original names of regions that failed
// resolution on this timesheet.
func (ts EmployeeTimesheet) UnknownRegions() []string {
	seen := map[string]bool{}
	var names []string
	for _, e := range ts.Entries {
		if e.RegionKnown || e.OriginalRegion == "" {
			continue
		}
		if !seen[e.OriginalRegion] {
			seen[e.OriginalRegion] = true
			names = append(names, e.OriginalRegion)
		}
	}
	return names
}

// WarningKind is the non-fatal error taxonomy recorded during a run.
type WarningKind string

const (
	WarnMergeConflict WarningKind = "MergeConflict"
	WarnRegionUnknown WarningKind = "RegionUnknown"
	WarnInvalidEntry  WarningKind = "InvalidEntry"
)

// Warning is a recorded, non-fatal condition tied to one employee.
type Warning struct {
	Kind     WarningKind `json:"kind"`
	Employee string      `json:"employee"`
	Message  string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s (%s): %s", w.Kind, w.Employee, w.Message)
}

// Outcome is the terminal state of one employee's submission attempt.
type Outcome string

const (
	OutcomePending   Outcome = "Pending"
	OutcomeCreated   Outcome = "Created"
	OutcomeValidated Outcome = "Validated"
	OutcomeFailed    Outcome = "Failed"
)

// SubmissionRecord captures the result of one employee's pass through the
// submission orchestrator, keyed for idempotent replay.
type SubmissionRecord struct {
	EmployeeID     string   `json:"employeeId"`
	EmployeeName   string   `json:"employeeName"`
	IdempotencyKey string   `json:"idempotencyKey"`
	Outcome        Outcome  `json:"outcome"`
	// ExternalID is the timesheet ID Xero returned for a created submission.
	ExternalID string   `json:"externalId,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}
