package timesheet

import (
	"strings"

	"github.com/gzizouseif24/xero-automation/payroll"
	web "github.com/gzizouseif24/xero-automation/web/common"
)

type EntryDTO struct {
	Employee string        `json:"employee" binding:"required"`
	Region   string        `json:"region"`
	Date     *web.DateOnly `json:"date" binding:"required"`
	HourType string        `json:"hourType" binding:"required"`
	Units    float64       `json:"units"`
}

func (e EntryDTO) toRaw(source payroll.Source) payroll.RawEntry {
	return payroll.RawEntry{
		EmployeeName: e.Employee,
		RegionName:   e.Region,
		Date:         e.Date.Time,
		HourType:     payroll.HourType(strings.ToUpper(e.HourType)),
		Units:        e.Units,
		Source:       source,
	}
}

func fromRaw(e payroll.RawEntry) EntryDTO {
	return EntryDTO{
		Employee: e.EmployeeName,
		Region:   e.RegionName,
		Date:     &web.DateOnly{Time: e.Date},
		HourType: string(e.HourType),
		Units:    e.Units,
	}
}

// ValidateParams carries one run's input: the pay period plus the entries of
// each source table.
type ValidateParams struct {
	StartDate *web.DateOnly `json:"startDate"`
	EndDate   *web.DateOnly `json:"endDate"`
	Site      []EntryDTO    `json:"site"`
	Travel    []EntryDTO    `json:"travel"`
	Overtime  []EntryDTO    `json:"overtime"`
}

func (p ValidateParams) rawEntries() []payroll.RawEntry {
	entries := make([]payroll.RawEntry, 0, len(p.Site)+len(p.Travel)+len(p.Overtime))
	for _, e := range p.Site {
		entries = append(entries, e.toRaw(payroll.SourceSite))
	}
	for _, e := range p.Travel {
		entries = append(entries, e.toRaw(payroll.SourceTravel))
	}
	for _, e := range p.Overtime {
		entries = append(entries, e.toRaw(payroll.SourceOvertimeTable))
	}
	return entries
}

func (p ValidateParams) period() payroll.PayPeriod {
	var period payroll.PayPeriod
	if p.StartDate != nil {
		period.Start = p.StartDate.Time
	}
	if p.EndDate != nil {
		period.End = p.EndDate.Time
	}
	return period
}

type SubmitParams struct {
	ValidateParams
	DryRun  bool `json:"dryRun"`
	Workers int  `json:"workers"`
}

type MatchParams struct {
	RawName string `json:"rawName" binding:"required"`
	// XeroID confirms the match. Empty with Rejected set records a
	// rejection; the raw name then resolves to nothing until the decision
	// is deleted.
	XeroID   string `json:"xeroId"`
	Rejected bool   `json:"rejected"`
}

type UploadResponse struct {
	Site     []EntryDTO `json:"site,omitempty"`
	Travel   []EntryDTO `json:"travel,omitempty"`
	Overtime []EntryDTO `json:"overtime,omitempty"`
}
