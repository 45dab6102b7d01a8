package payroll

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gzizouseif24/xero-automation/utils"
)

// RunRules is the read-only business-rule snapshot for one pipeline run.
// Mutating the underlying configuration takes effect only on the next run.
type RunRules struct {
	RegularCap   float64
	HolidayHours float64
	Resolver     ResolverOptions
	// OvertimeFlags holds the per-employee "overtime rate applies" flag,
	// keyed by directory display name (case-insensitive).
	OvertimeFlags map[string]bool
	// OvertimeRates holds per-employee custom overtime rates.
	OvertimeRates map[string]float64
}

func (r RunRules) overtimeOptions(employeeName string) (bool, *float64) {
	applies := false
	for name, flag := range r.OvertimeFlags {
		if strings.EqualFold(name, employeeName) {
			applies = flag
			break
		}
	}
	if !applies {
		return false, nil
	}
	for name, rate := range r.OvertimeRates {
		if strings.EqualFold(name, employeeName) {
			return true, utils.Ptr(rate)
		}
	}
	return true, nil
}

// ConsolidationResult is what validateAndConsolidate hands back to callers.
type ConsolidationResult struct {
	Timesheets          []EmployeeTimesheet  `json:"timesheets"`
	Warnings            []Warning            `json:"warnings,omitempty"`
	UnresolvedEmployees []string             `json:"unresolvedEmployees,omitempty"`
	AmbiguousEmployees  []Identity           `json:"ambiguousEmployees,omitempty"`
	UnknownRegions      []string             `json:"unknownRegions,omitempty"`
	Summary             ConsolidationSummary `json:"summary"`
}

// ValidateAndConsolidate runs the identity-resolution, normalization and
// consolidation stages over a batch of raw entries against a directory
// snapshot. It is pure computation: the directory is supplied, not fetched,
// and nothing here touches the network.
//
// Employees are independent of each other, so the per-employee work could be
// parallelized, but resolution and merging are cheap; only submission (see
// Orchestrator) is worth a worker pool.
func ValidateAndConsolidate(raw []RawEntry, dir Directory, period PayPeriod, rules RunRules) (*ConsolidationResult, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("no raw entries to consolidate")
	}

	resolver := NewResolver(dir, rules.Resolver)
	result := &ConsolidationResult{}

	// Reject structurally invalid rows up front so every DailyEntry
	// downstream satisfies units >= 0.
	valid := make([]RawEntry, 0, len(raw))
	for _, e := range raw {
		switch {
		case e.Units < 0:
			result.Warnings = append(result.Warnings, Warning{
				Kind:     WarnInvalidEntry,
				Employee: e.EmployeeName,
				Message:  fmt.Sprintf("dropped %s entry on %s: negative units %.2f", e.HourType, e.Date.Format(time.DateOnly), e.Units),
			})
		case !e.HourType.Valid():
			result.Warnings = append(result.Warnings, Warning{
				Kind:     WarnInvalidEntry,
				Employee: e.EmployeeName,
				Message:  fmt.Sprintf("dropped entry on %s: unknown hour type %q", e.Date.Format(time.DateOnly), e.HourType),
			})
		default:
			valid = append(valid, e)
		}
	}

	byEmployee := utils.GroupBy(valid, func(e RawEntry) string {
		return strings.TrimSpace(e.EmployeeName)
	})

	names := make([]string, 0, len(byEmployee))
	for name := range byEmployee {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, rawName := range names {
		entries := byEmployee[rawName]
		identity := resolver.ResolveEmployee(rawName)

		switch identity.State {
		case StateUnresolved:
			result.UnresolvedEmployees = append(result.UnresolvedEmployees, rawName)
		case StateAmbiguous:
			result.AmbiguousEmployees = append(result.AmbiguousEmployees, identity)
		}

		overtimeApplies, overtimeRate := rules.overtimeOptions(displayName(identity))
		if !overtimeApplies {
			// fall back to the raw sheet name for unresolved employees
			overtimeApplies, overtimeRate = rules.overtimeOptions(rawName)
		}
		opts := NormalizeOptions{
			RegularCap:      rules.RegularCap,
			HolidayHours:    rules.HolidayHours,
			OvertimeApplies: overtimeApplies,
			OvertimeRate:    overtimeRate,
		}

		bySource := utils.GroupBy(entries, func(e RawEntry) Source { return e.Source })
		perSource := make([]SourceEntries, 0, len(bySource))
		for source, sourceEntries := range bySource {
			perSource = append(perSource, SourceEntries{
				Source:  source,
				Entries: Normalize(sourceEntries, resolver, opts),
			})
		}

		ts, warnings := Consolidate(identity, perSource, period, rules.RegularCap)
		result.Timesheets = append(result.Timesheets, ts)
		result.Warnings = append(result.Warnings, warnings...)
	}

	result.Summary = Summarize(result.Timesheets)
	result.UnknownRegions = result.Summary.UnknownRegions
	return result, nil
}
