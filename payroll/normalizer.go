package payroll

import (
	"sort"
	"time"

	"github.com/gzizouseif24/xero-automation/utils"
)

// NormalizeOptions carries the per-run payroll rules, read-only for the
// duration of a run.
type NormalizeOptions struct {
	// RegularCap is the maximum regular hours countable per employee per pay
	// period. Zero means the default of 40.
	RegularCap float64
	// HolidayHours is the fixed unit value holiday entries normalize to.
	// Zero means the default of 8.
	HolidayHours float64
	// OvertimeApplies is the employee's "overtime rate applies" flag. When
	// false, overtime entries are dropped entirely.
	OvertimeApplies bool
	// OvertimeRate is the employee's custom overtime rate, if any.
	OvertimeRate *float64
}

const (
	DefaultRegularCap   = 40.0
	DefaultHolidayHours = 8.0
)

func (o NormalizeOptions) regularCap() float64 {
	if o.RegularCap <= 0 {
		return DefaultRegularCap
	}
	return o.RegularCap
}

func (o NormalizeOptions) holidayHours() float64 {
	if o.HolidayHours <= 0 {
		return DefaultHolidayHours
	}
	return o.HolidayHours
}

// dayKey groups on the calendar day, not the raw time.Time, so entries parsed
// in different locations still merge.
type dayKey struct {
	date     string // yyyy-MM-dd
	hourType HourType
}

// Normalize turns one employee's raw entries from a single source into
// per-day DailyEntry records with the payroll rules applied:
//
//   - entries are grouped and summed by (date, hour_type)
//   - holiday entries snap to the fixed holiday hours
//   - overtime entries are dropped unless the employee's overtime flag is set
//   - regular hours across the period are capped, reducing latest-date-first
//
// Travel entries keep their source units and never count toward the cap.
// The result is stably ordered by date then hour type.
func Normalize(entries []RawEntry, resolver *Resolver, opts NormalizeOptions) []DailyEntry {
	grouped := utils.GroupBy(entries, func(e RawEntry) dayKey {
		return dayKey{date: e.Date.Format(time.DateOnly), hourType: e.HourType}
	})

	var days []DailyEntry
	for key, group := range grouped {
		var units float64
		for _, e := range group {
			units += e.Units
		}

		switch key.hourType {
		case HourTypeHoliday:
			units = opts.holidayHours()
		case HourTypeOvertime:
			if !opts.OvertimeApplies {
				continue
			}
		}

		region := resolver.ResolveRegion(group[0].RegionName)
		entry := DailyEntry{
			Date:           group[0].Date,
			HourType:       key.hourType,
			Units:          units,
			OriginalRegion: group[0].RegionName,
			RegionKnown:    region.State == StateResolved,
		}
		if region.State == StateResolved {
			entry.RegionName = region.Suggestion().DisplayName
		} else {
			entry.RegionName = UnknownRegion
		}
		if key.hourType == HourTypeOvertime {
			entry.OvertimeRate = opts.OvertimeRate
		}
		days = append(days, entry)
	}

	sortEntries(days)
	return capRegularHours(days, opts.regularCap())
}

// capRegularHours reduces regular-hour entries until their sum is at most
// cap. Reduction is latest-date-first, matching the long-standing payroll
// practice of trimming the last working days of the period. Other hour types
// are never touched, and the removed amount is never converted to overtime.
func capRegularHours(entries []DailyEntry, cap float64) []DailyEntry {
	var total float64
	for _, e := range entries {
		if e.HourType == HourTypeRegular {
			total += e.Units
		}
	}
	if total <= cap {
		return entries
	}

	excess := total - cap

	// Walk regular entries newest-first.
	idx := make([]int, 0, len(entries))
	for i, e := range entries {
		if e.HourType == HourTypeRegular {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return entries[idx[a]].Date.After(entries[idx[b]].Date)
	})

	for _, i := range idx {
		if excess <= 0 {
			break
		}
		if entries[i].Units >= excess {
			entries[i].Units -= excess
			excess = 0
		} else {
			excess -= entries[i].Units
			entries[i].Units = 0
		}
	}

	// Entries reduced to zero are excluded, not emitted as zero-hour lines.
	return utils.Filter(entries, func(e DailyEntry) bool {
		return e.HourType != HourTypeRegular || e.Units > 0
	})
}

func sortEntries(entries []DailyEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return hourTypeRank[entries[i].HourType] < hourTypeRank[entries[j].HourType]
	})
}
