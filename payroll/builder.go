package payroll

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	v1 "github.com/gzizouseif24/xero-automation/xero/v1"
)

// Mappings binds internal classifications to the external system's
// identifiers. It is part of the run's read-only configuration snapshot.
type Mappings struct {
	// EarningsRates maps an hour type to a Xero earnings rate ID.
	EarningsRates map[HourType]string
	// TrackingOptions maps a region display name to a Xero tracking option ID.
	TrackingOptions map[string]string
	// PayrollCalendars maps an employee ID to its payroll calendar ID.
	PayrollCalendars map[string]string
}

// earningsRateFor applies the holiday fallback: when no Holiday rate is
// mapped, holiday lines are paid at the Regular rate. Travel never falls
// back; a travel line without its own rate is a mapping error.
func (m Mappings) earningsRateFor(hourType HourType) (string, bool) {
	if id, ok := m.EarningsRates[hourType]; ok && id != "" {
		return id, true
	}
	if hourType == HourTypeHoliday {
		if id, ok := m.EarningsRates[HourTypeRegular]; ok && id != "" {
			return id, true
		}
	}
	return "", false
}

// CheckMappings verifies that every hour type present across the given
// timesheets has an earnings rate mapped. A missing mapping is a
// configuration failure and aborts the run before any submission call.
func (m Mappings) CheckMappings(timesheets []EmployeeTimesheet) error {
	seen := map[HourType]bool{}
	for _, ts := range timesheets {
		for _, e := range ts.Entries {
			seen[e.HourType] = true
		}
	}
	for hourType := range seen {
		if _, ok := m.earningsRateFor(hourType); !ok {
			return fmt.Errorf("no earnings rate mapped for hour type %s", hourType)
		}
	}
	return nil
}

// BuildPayload converts a consolidated timesheet into the external line-item
// structure. Dry-run builds include every entry, Unknown-region entries
// included, for complete inspection; real-mode builds exclude them. Repeated
// builds from an identical timesheet produce byte-identical payloads.
func BuildPayload(ts EmployeeTimesheet, maps Mappings, dryRun bool) (*v1.TimesheetPayload, error) {
	if !dryRun && ts.Blocked {
		return nil, fmt.Errorf("employee %q is not resolved; timesheet is blocked from real submission", ts.EmployeeName)
	}
	if ts.EmployeeID == "" && !dryRun {
		return nil, fmt.Errorf("employee %q has no external ID", ts.EmployeeName)
	}

	payload := &v1.TimesheetPayload{
		EmployeeID:        ts.EmployeeID,
		PayrollCalendarID: maps.PayrollCalendars[ts.EmployeeID],
		StartDate:         ts.PayPeriodStart.Format(time.DateOnly),
		EndDate:           ts.PayPeriodEnd.Format(time.DateOnly),
		Status:            "Draft",
	}

	type lineKey struct {
		date     string
		region   string
		hourType HourType
	}
	type lineAgg struct {
		units float64
		rate  *float64
	}
	agg := map[lineKey]*lineAgg{}
	var order []lineKey

	for _, entry := range ts.Entries {
		if !dryRun && !entry.RegionKnown {
			continue
		}
		key := lineKey{
			date:     entry.Date.Format(time.DateOnly),
			region:   entry.RegionName,
			hourType: entry.HourType,
		}
		if existing, ok := agg[key]; ok {
			existing.units += entry.Units
			continue
		}
		agg[key] = &lineAgg{units: entry.Units, rate: entry.OvertimeRate}
		order = append(order, key)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].date != order[j].date {
			return order[i].date < order[j].date
		}
		if order[i].hourType != order[j].hourType {
			return hourTypeRank[order[i].hourType] < hourTypeRank[order[j].hourType]
		}
		return order[i].region < order[j].region
	})

	lines := make([]v1.TimesheetLine, 0, len(order))
	for _, key := range order {
		a := agg[key]
		if a.units <= 0 {
			continue
		}
		rateID, ok := maps.earningsRateFor(key.hourType)
		if !ok {
			return nil, fmt.Errorf("no earnings rate mapped for hour type %s", key.hourType)
		}
		line := v1.TimesheetLine{
			Date:           key.date,
			EarningsRateID: rateID,
			NumberOfUnits:  round2(a.units),
			TrackingItemID: maps.TrackingOptions[key.region],
		}
		if key.hourType == HourTypeOvertime && a.rate != nil {
			line.RatePerUnit = a.rate
		}
		lines = append(lines, line)
	}
	payload.TimesheetLines = lines

	return payload, nil
}

// ValidatePayload runs the structural check over a payload and returns every
// violation found, each referencing the 1-based line index. An empty result
// means the payload is structurally valid.
func ValidatePayload(p *v1.TimesheetPayload) []string {
	var errs []string

	if p.EmployeeID == "" {
		errs = append(errs, "missing required field: EmployeeID")
	}
	for _, f := range []struct{ name, value string }{
		{"StartDate", p.StartDate},
		{"EndDate", p.EndDate},
	} {
		if f.value == "" {
			errs = append(errs, fmt.Sprintf("missing required field: %s", f.name))
		} else if _, err := time.Parse(time.DateOnly, f.value); err != nil {
			errs = append(errs, fmt.Sprintf("invalid date format for %s: %s", f.name, f.value))
		}
	}

	for i, line := range p.TimesheetLines {
		prefix := fmt.Sprintf("line %d: ", i+1)
		if line.Date == "" {
			errs = append(errs, prefix+"missing required field: Date")
		} else if _, err := time.Parse(time.DateOnly, line.Date); err != nil {
			errs = append(errs, prefix+"invalid date format: "+line.Date)
		}
		if line.EarningsRateID == "" {
			errs = append(errs, prefix+"missing required field: EarningsRateID")
		}
		if line.NumberOfUnits < 0 {
			errs = append(errs, prefix+"NumberOfUnits must be a non-negative number")
		}
	}

	return errs
}

// MarshalArtifact serializes a payload as the per-employee debug artifact.
// Struct field order makes the output deterministic for identical payloads.
func MarshalArtifact(p *v1.TimesheetPayload) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
