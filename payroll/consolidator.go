package payroll

import (
	"fmt"
	"sort"
	"time"
)

// SourceEntries is one source's normalized entries for a single employee.
type SourceEntries struct {
	Source  Source
	Entries []DailyEntry
}

// PayPeriod bounds one run. A zero Start is derived from the earliest entry;
// a zero End defaults to Start plus six days.
type PayPeriod struct {
	Start time.Time
	End   time.Time
}

func (p PayPeriod) withDefaults(entries []DailyEntry) PayPeriod {
	if p.Start.IsZero() && len(entries) > 0 {
		p.Start = entries[0].Date
		for _, e := range entries[1:] {
			if e.Date.Before(p.Start) {
				p.Start = e.Date
			}
		}
	}
	if p.End.IsZero() {
		p.End = p.Start.AddDate(0, 0, 6)
	}
	return p
}

// Consolidate merges normalized entries from the site, travel and overtime
// sources into one EmployeeTimesheet. Entries are keyed by (date, hour_type);
// when two sources claim the same key with conflicting non-zero units the
// higher-priority source (site > travel > overtime table) wins and the
// conflict is recorded as a warning, never summed.
//
// The regular-hours cap is re-applied over the merged entries: the cap bounds
// the employee's period total, so regular hours that pass each source's cap
// individually must not exceed it once unioned. Zero or negative regularCap
// means the default of 40.
//
// Unresolved employees still get a timesheet for diagnostic visibility, but
// it is flagged blocked and must not build a payload in real mode.
func Consolidate(identity Identity, perSource []SourceEntries, period PayPeriod, regularCap float64) (EmployeeTimesheet, []Warning) {
	ordered := make([]SourceEntries, len(perSource))
	copy(ordered, perSource)
	sort.SliceStable(ordered, func(i, j int) bool {
		return sourcePriority[ordered[i].Source] < sourcePriority[ordered[j].Source]
	})

	name := displayName(identity)

	var warnings []Warning
	type claim struct {
		source Source
		units  float64
		index  int
	}
	claims := map[dayKey]claim{}
	var merged []DailyEntry

	for _, src := range ordered {
		for _, entry := range src.Entries {
			key := dayKey{date: entry.Date.Format(time.DateOnly), hourType: entry.HourType}
			existing, taken := claims[key]
			if !taken {
				claims[key] = claim{source: src.Source, units: entry.Units, index: len(merged)}
				merged = append(merged, entry)
				continue
			}
			if existing.units == entry.Units {
				// Identical duplicate from a lower-priority source.
				continue
			}
			if existing.units != 0 && entry.Units != 0 {
				warnings = append(warnings, Warning{
					Kind:     WarnMergeConflict,
					Employee: name,
					Message: fmt.Sprintf("%s %s: %s claims %.2f units but %s already claims %.2f; keeping %s",
						key.date, entry.HourType, src.Source, entry.Units, existing.source, existing.units, existing.source),
				})
				continue
			}
			if existing.units == 0 && entry.Units != 0 {
				// A zero-unit placeholder never shadows real hours. The real
				// hours' source becomes the claimant for later conflicts.
				merged[existing.index] = entry
				claims[key] = claim{source: src.Source, units: entry.Units, index: existing.index}
			}
		}
	}

	sortEntries(merged)
	if regularCap <= 0 {
		regularCap = DefaultRegularCap
	}
	merged = capRegularHours(merged, regularCap)
	period = period.withDefaults(merged)

	ts := EmployeeTimesheet{
		EmployeeName:   name,
		EmployeeID:     identity.ResolvedID,
		Identity:       identity,
		PayPeriodStart: period.Start,
		PayPeriodEnd:   period.End,
		Entries:        merged,
		Blocked:        identity.State != StateResolved,
	}

	for _, region := range ts.UnknownRegions() {
		warnings = append(warnings, Warning{
			Kind:     WarnRegionUnknown,
			Employee: name,
			Message:  fmt.Sprintf("region %q not found in the payroll directory; entries kept but excluded from real submission", region),
		})
	}

	return ts, warnings
}

func displayName(identity Identity) string {
	if identity.State == StateResolved {
		if s := identity.Suggestion(); s != nil {
			return s.DisplayName
		}
	}
	return identity.RawName
}

// ConsolidationSummary is the run-level overview callers use to prompt the
// user before allowing a real submission.
type ConsolidationSummary struct {
	TotalEmployees   int                `json:"totalEmployees"`
	TotalEntries     int                `json:"totalEntries"`
	EntriesByRegion  map[string]int     `json:"entriesByRegion"`
	UnknownRegions   []string           `json:"unknownRegions"`
	BlockedEmployees int                `json:"blockedEmployees"`
	UnitsByHourType  map[string]float64 `json:"unitsByHourType"`
	PayPeriodEndDate string             `json:"payPeriodEndDate"`
}

// Summarize derives the run summary from a set of consolidated timesheets.
func Summarize(timesheets []EmployeeTimesheet) ConsolidationSummary {
	summary := ConsolidationSummary{
		EntriesByRegion: map[string]int{},
		UnitsByHourType: map[string]float64{},
	}
	unknown := map[string]bool{}

	for _, ts := range timesheets {
		summary.TotalEmployees++
		if ts.Blocked {
			summary.BlockedEmployees++
		}
		if !ts.PayPeriodEnd.IsZero() {
			summary.PayPeriodEndDate = ts.PayPeriodEnd.Format(time.DateOnly)
		}
		for _, e := range ts.Entries {
			summary.TotalEntries++
			summary.EntriesByRegion[e.RegionName]++
			summary.UnitsByHourType[string(e.HourType)] += e.Units
		}
		for _, region := range ts.UnknownRegions() {
			unknown[region] = true
		}
	}

	for region := range unknown {
		summary.UnknownRegions = append(summary.UnknownRegions, region)
	}
	sort.Strings(summary.UnknownRegions)
	return summary
}
