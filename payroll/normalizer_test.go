package payroll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gzizouseif24/xero-automation/utils"
)

func day(d int) time.Time {
	return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeGroupsAndSums(t *testing.T) {
	r := NewResolver(testDirectory(), DefaultResolverOptions())
	entries := []RawEntry{
		{EmployeeName: "Sarah Connor", RegionName: "Newcastle", Date: day(3), HourType: HourTypeRegular, Units: 4, Source: SourceSite},
		{EmployeeName: "Sarah Connor", RegionName: "Newcastle", Date: day(3), HourType: HourTypeRegular, Units: 4, Source: SourceSite},
		{EmployeeName: "Sarah Connor", RegionName: "Newcastle", Date: day(4), HourType: HourTypeTravel, Units: 2, Source: SourceSite},
	}

	days := Normalize(entries, r, NormalizeOptions{})
	require.Len(t, days, 2)
	assert.Equal(t, 8.0, days[0].Units)
	assert.Equal(t, HourTypeRegular, days[0].HourType)
	assert.Equal(t, "Newcastle", days[0].RegionName)
	assert.True(t, days[0].RegionKnown)
	assert.Equal(t, HourTypeTravel, days[1].HourType)
}

func TestNormalizeHolidaySnapsToFixedHours(t *testing.T) {
	r := NewResolver(testDirectory(), DefaultResolverOptions())
	entries := []RawEntry{
		{EmployeeName: "Sarah Connor", RegionName: "Newcastle", Date: day(5), HourType: HourTypeHoliday, Units: 11, Source: SourceSite},
	}

	days := Normalize(entries, r, NormalizeOptions{})
	require.Len(t, days, 1)
	assert.Equal(t, DefaultHolidayHours, days[0].Units)

	days = Normalize(entries, r, NormalizeOptions{HolidayHours: 7.6})
	require.Len(t, days, 1)
	assert.Equal(t, 7.6, days[0].Units)
}

func TestNormalizeOvertimeFlag(t *testing.T) {
	r := NewResolver(testDirectory(), DefaultResolverOptions())
	entries := []RawEntry{
		{EmployeeName: "Sarah Connor", RegionName: "Newcastle", Date: day(5), HourType: HourTypeOvertime, Units: 3, Source: SourceOvertimeTable},
	}

	t.Run("Dropped without the flag", func(t *testing.T) {
		days := Normalize(entries, r, NormalizeOptions{})
		assert.Empty(t, days)
	})

	t.Run("Kept with the flag and rate attached", func(t *testing.T) {
		days := Normalize(entries, r, NormalizeOptions{OvertimeApplies: true, OvertimeRate: utils.Ptr(52.5)})
		require.Len(t, days, 1)
		assert.Equal(t, 3.0, days[0].Units)
		require.NotNil(t, days[0].OvertimeRate)
		assert.Equal(t, 52.5, *days[0].OvertimeRate)
	})
}

func TestNormalizeUnknownRegion(t *testing.T) {
	r := NewResolver(testDirectory(), DefaultResolverOptions())
	entries := []RawEntry{
		{EmployeeName: "Sarah Connor", RegionName: "Atlantis", Date: day(3), HourType: HourTypeRegular, Units: 8, Source: SourceSite},
	}

	days := Normalize(entries, r, NormalizeOptions{})
	require.Len(t, days, 1)
	assert.False(t, days[0].RegionKnown)
	assert.Equal(t, UnknownRegion, days[0].RegionName)
	assert.Equal(t, "Atlantis", days[0].OriginalRegion)
}

func TestCapRegularHours(t *testing.T) {
	r := NewResolver(testDirectory(), DefaultResolverOptions())

	t.Run("45 hours trim to 40 from the latest day", func(t *testing.T) {
		var entries []RawEntry
		for d := 3; d <= 7; d++ {
			entries = append(entries, RawEntry{
				EmployeeName: "Sarah Connor", RegionName: "Newcastle",
				Date: day(d), HourType: HourTypeRegular, Units: 9, Source: SourceSite,
			})
		}

		days := Normalize(entries, r, NormalizeOptions{})
		require.Len(t, days, 5)

		var total float64
		for _, e := range days {
			total += e.Units
		}
		assert.Equal(t, 40.0, total)
		// Only the final day loses hours.
		assert.Equal(t, 9.0, days[0].Units)
		assert.Equal(t, 4.0, days[4].Units)
	})

	t.Run("Days reduced to zero disappear", func(t *testing.T) {
		entries := []RawEntry{
			{EmployeeName: "Sarah Connor", RegionName: "Newcastle", Date: day(3), HourType: HourTypeRegular, Units: 40, Source: SourceSite},
			{EmployeeName: "Sarah Connor", RegionName: "Newcastle", Date: day(4), HourType: HourTypeRegular, Units: 6, Source: SourceSite},
		}

		days := Normalize(entries, r, NormalizeOptions{})
		require.Len(t, days, 1)
		assert.Equal(t, day(3), days[0].Date)
		assert.Equal(t, 40.0, days[0].Units)
	})

	t.Run("Travel and holiday hours never count toward the cap", func(t *testing.T) {
		entries := []RawEntry{
			{EmployeeName: "Sarah Connor", RegionName: "Newcastle", Date: day(3), HourType: HourTypeRegular, Units: 40, Source: SourceSite},
			{EmployeeName: "Sarah Connor", RegionName: "Newcastle", Date: day(4), HourType: HourTypeTravel, Units: 5, Source: SourceTravel},
			{EmployeeName: "Sarah Connor", RegionName: "Newcastle", Date: day(5), HourType: HourTypeHoliday, Units: 8, Source: SourceSite},
		}

		days := Normalize(entries, r, NormalizeOptions{})
		require.Len(t, days, 3)
		assert.Equal(t, 40.0, days[0].Units)
		assert.Equal(t, 5.0, days[1].Units)
		assert.Equal(t, 8.0, days[2].Units)
	})

	t.Run("Custom cap applies", func(t *testing.T) {
		entries := []RawEntry{
			{EmployeeName: "Sarah Connor", RegionName: "Newcastle", Date: day(3), HourType: HourTypeRegular, Units: 30, Source: SourceSite},
			{EmployeeName: "Sarah Connor", RegionName: "Newcastle", Date: day(4), HourType: HourTypeRegular, Units: 10, Source: SourceSite},
		}

		days := Normalize(entries, r, NormalizeOptions{RegularCap: 35})
		require.Len(t, days, 2)
		assert.Equal(t, 30.0, days[0].Units)
		assert.Equal(t, 5.0, days[1].Units)
	})
}
