package payroll

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolvedIdentity(id, name string) Identity {
	return Identity{
		RawName:    name,
		ResolvedID: id,
		State:      StateResolved,
		Candidates: []Candidate{{ExternalID: id, DisplayName: name, Score: 1.0}},
	}
}

func TestConsolidateMergesDistinctKeys(t *testing.T) {
	identity := resolvedIdentity("emp-2", "Sarah Connor")
	perSource := []SourceEntries{
		{Source: SourceSite, Entries: []DailyEntry{
			{Date: day(3), RegionName: "Newcastle", RegionKnown: true, HourType: HourTypeRegular, Units: 8},
		}},
		{Source: SourceTravel, Entries: []DailyEntry{
			{Date: day(3), RegionName: "Newcastle", RegionKnown: true, HourType: HourTypeTravel, Units: 2},
		}},
	}

	ts, warnings := Consolidate(identity, perSource, PayPeriod{}, 0)
	assert.Empty(t, warnings)
	require.Len(t, ts.Entries, 2)
	assert.Equal(t, 10.0, ts.TotalUnits(""))
	assert.False(t, ts.Blocked)
	assert.Equal(t, "emp-2", ts.EmployeeID)
}

func TestConsolidateConflictKeepsHigherPriority(t *testing.T) {
	identity := resolvedIdentity("emp-2", "Sarah Connor")
	perSource := []SourceEntries{
		// Listed travel-first to prove ordering comes from source priority,
		// not input order.
		{Source: SourceTravel, Entries: []DailyEntry{
			{Date: day(3), RegionName: "Newcastle", RegionKnown: true, HourType: HourTypeRegular, Units: 5},
		}},
		{Source: SourceSite, Entries: []DailyEntry{
			{Date: day(3), RegionName: "Newcastle", RegionKnown: true, HourType: HourTypeRegular, Units: 12},
		}},
	}

	ts, warnings := Consolidate(identity, perSource, PayPeriod{}, 0)
	require.Len(t, ts.Entries, 1)
	assert.Equal(t, 12.0, ts.Entries[0].Units)

	require.Len(t, warnings, 1)
	assert.Equal(t, WarnMergeConflict, warnings[0].Kind)
	assert.Equal(t, "Sarah Connor", warnings[0].Employee)
	assert.Contains(t, warnings[0].Message, "site")
}

func TestConsolidateIdenticalDuplicateIsSilent(t *testing.T) {
	identity := resolvedIdentity("emp-2", "Sarah Connor")
	perSource := []SourceEntries{
		{Source: SourceSite, Entries: []DailyEntry{
			{Date: day(3), RegionName: "Newcastle", RegionKnown: true, HourType: HourTypeRegular, Units: 8},
		}},
		{Source: SourceTravel, Entries: []DailyEntry{
			{Date: day(3), RegionName: "Newcastle", RegionKnown: true, HourType: HourTypeRegular, Units: 8},
		}},
	}

	ts, warnings := Consolidate(identity, perSource, PayPeriod{}, 0)
	assert.Empty(t, warnings)
	require.Len(t, ts.Entries, 1)
	assert.Equal(t, 8.0, ts.Entries[0].Units)
}

func TestConsolidateZeroPlaceholderYieldsToRealHours(t *testing.T) {
	identity := resolvedIdentity("emp-2", "Sarah Connor")
	perSource := []SourceEntries{
		{Source: SourceSite, Entries: []DailyEntry{
			{Date: day(3), RegionName: "Newcastle", RegionKnown: true, HourType: HourTypeOvertime, Units: 0},
		}},
		{Source: SourceOvertimeTable, Entries: []DailyEntry{
			{Date: day(3), RegionName: "Newcastle", RegionKnown: true, HourType: HourTypeOvertime, Units: 3},
		}},
	}

	ts, warnings := Consolidate(identity, perSource, PayPeriod{}, 0)
	assert.Empty(t, warnings)
	require.Len(t, ts.Entries, 1)
	assert.Equal(t, 3.0, ts.Entries[0].Units)
}

func TestConsolidateCapsRegularAcrossSources(t *testing.T) {
	identity := resolvedIdentity("emp-2", "Sarah Connor")
	site := make([]DailyEntry, 0, 5)
	for d := 3; d <= 7; d++ {
		site = append(site, DailyEntry{Date: day(d), RegionName: "Newcastle", RegionKnown: true, HourType: HourTypeRegular, Units: 8})
	}
	perSource := []SourceEntries{
		{Source: SourceSite, Entries: site},
		// A second source contributing regular hours on a distinct day: each
		// source is under the cap on its own, the union is not.
		{Source: SourceTravel, Entries: []DailyEntry{
			{Date: day(8), RegionName: "Newcastle", RegionKnown: true, HourType: HourTypeRegular, Units: 10},
		}},
	}

	ts, warnings := Consolidate(identity, perSource, PayPeriod{}, 0)
	assert.Empty(t, warnings)
	assert.Equal(t, 40.0, ts.TotalUnits(HourTypeRegular))
	// Trimming is latest-date-first: the day-8 hours are all excess.
	require.Len(t, ts.Entries, 5)
	assert.Equal(t, day(7), ts.Entries[len(ts.Entries)-1].Date)
}

func TestConsolidatePlaceholderWinnerNamedInConflict(t *testing.T) {
	identity := resolvedIdentity("emp-2", "Sarah Connor")
	perSource := []SourceEntries{
		{Source: SourceSite, Entries: []DailyEntry{
			{Date: day(3), RegionName: "Newcastle", RegionKnown: true, HourType: HourTypeOvertime, Units: 0},
		}},
		{Source: SourceTravel, Entries: []DailyEntry{
			{Date: day(3), RegionName: "Newcastle", RegionKnown: true, HourType: HourTypeOvertime, Units: 5},
		}},
		{Source: SourceOvertimeTable, Entries: []DailyEntry{
			{Date: day(3), RegionName: "Newcastle", RegionKnown: true, HourType: HourTypeOvertime, Units: 7},
		}},
	}

	ts, warnings := Consolidate(identity, perSource, PayPeriod{}, 0)
	require.Len(t, ts.Entries, 1)
	assert.Equal(t, 5.0, ts.Entries[0].Units)

	// The travel hours replaced the site placeholder, so the conflict names
	// travel as the kept source, not site.
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnMergeConflict, warnings[0].Kind)
	assert.Contains(t, warnings[0].Message, "keeping travel")
}

func TestConsolidateBlocksUnresolvedIdentity(t *testing.T) {
	identity := Identity{RawName: "Mystery Person", State: StateUnresolved}
	perSource := []SourceEntries{
		{Source: SourceSite, Entries: []DailyEntry{
			{Date: day(3), RegionName: "Newcastle", RegionKnown: true, HourType: HourTypeRegular, Units: 8},
		}},
	}

	ts, _ := Consolidate(identity, perSource, PayPeriod{}, 0)
	assert.True(t, ts.Blocked)
	assert.Empty(t, ts.EmployeeID)
	assert.Equal(t, "Mystery Person", ts.EmployeeName)
	// The timesheet still carries entries for diagnostics.
	assert.Len(t, ts.Entries, 1)
}

func TestConsolidateWarnsOnUnknownRegions(t *testing.T) {
	identity := resolvedIdentity("emp-2", "Sarah Connor")
	perSource := []SourceEntries{
		{Source: SourceSite, Entries: []DailyEntry{
			{Date: day(3), RegionName: UnknownRegion, OriginalRegion: "Atlantis", RegionKnown: false, HourType: HourTypeRegular, Units: 8},
		}},
	}

	ts, warnings := Consolidate(identity, perSource, PayPeriod{}, 0)
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnRegionUnknown, warnings[0].Kind)
	assert.Contains(t, warnings[0].Message, "Atlantis")
	assert.Equal(t, []string{"Atlantis"}, ts.UnknownRegions())
}

func TestPayPeriodDefaults(t *testing.T) {
	identity := resolvedIdentity("emp-2", "Sarah Connor")
	perSource := []SourceEntries{
		{Source: SourceSite, Entries: []DailyEntry{
			{Date: day(5), RegionName: "Newcastle", RegionKnown: true, HourType: HourTypeRegular, Units: 8},
			{Date: day(3), RegionName: "Newcastle", RegionKnown: true, HourType: HourTypeRegular, Units: 8},
		}},
	}

	ts, _ := Consolidate(identity, perSource, PayPeriod{}, 0)
	assert.Equal(t, day(3), ts.PayPeriodStart)
	assert.Equal(t, day(9), ts.PayPeriodEnd)
}

func TestSummarize(t *testing.T) {
	timesheets := []EmployeeTimesheet{
		{
			EmployeeName: "Sarah Connor",
			PayPeriodEnd: day(9),
			Entries: []DailyEntry{
				{Date: day(3), RegionName: "Newcastle", RegionKnown: true, HourType: HourTypeRegular, Units: 8},
				{Date: day(4), RegionName: UnknownRegion, OriginalRegion: "Atlantis", HourType: HourTypeTravel, Units: 2},
			},
		},
		{
			EmployeeName: "Mystery Person",
			Blocked:      true,
			PayPeriodEnd: day(9),
			Entries: []DailyEntry{
				{Date: day(3), RegionName: "Newcastle", RegionKnown: true, HourType: HourTypeRegular, Units: 6},
			},
		},
	}

	summary := Summarize(timesheets)
	assert.Equal(t, 2, summary.TotalEmployees)
	assert.Equal(t, 3, summary.TotalEntries)
	assert.Equal(t, 1, summary.BlockedEmployees)
	assert.Equal(t, 2, summary.EntriesByRegion["Newcastle"])
	assert.Equal(t, []string{"Atlantis"}, summary.UnknownRegions)
	assert.Equal(t, 14.0, summary.UnitsByHourType[string(HourTypeRegular)])
	assert.Equal(t, "2026-08-09", summary.PayPeriodEndDate)
}
