package timesheet

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/gzizouseif24/xero-automation/config"
	"github.com/gzizouseif24/xero-automation/payroll"
	"github.com/gzizouseif24/xero-automation/store"
	"github.com/gzizouseif24/xero-automation/utils"
	v1 "github.com/gzizouseif24/xero-automation/xero/v1"
)

// Notifier receives the outcome of a finished submission run.
type Notifier interface {
	NotifyRun(result payroll.RunResult) error
}

// Deps is everything the timesheet endpoints need.
type Deps struct {
	Store     *store.Store
	Xero      *v1.XeroClient
	Settings  config.Settings
	Artifacts payroll.ArtifactWriter
	Notifier  Notifier
}

type Endpoint struct {
	deps Deps
}

func Register(r *gin.RouterGroup, deps Deps) {
	endpoint := &Endpoint{deps: deps}
	r.POST("/timesheets/upload", endpoint.Upload)
	r.POST("/timesheets/validate", endpoint.Validate)
	r.POST("/timesheets/submit", endpoint.Submit)

	r.GET("/mappings", endpoint.Mappings)
	r.GET("/directory", endpoint.Directory)

	r.GET("/matches", endpoint.ListMatches)
	r.POST("/matches", endpoint.SaveMatch)
	r.DELETE("/matches/:rawName", endpoint.DeleteMatch)

	r.GET("/runs/:runId", endpoint.RunRecords)
	r.GET("/runs/:runId/artifacts", endpoint.RunArtifacts)
}

// directory builds the resolver's snapshot from the live employee list and
// the region tracking options.
func (ep *Endpoint) directory(ctx context.Context) (payroll.Directory, error) {
	employees, err := ep.deps.Xero.Employees.List(ctx)
	if err != nil {
		return payroll.Directory{}, fmt.Errorf("list employees: %w", err)
	}

	regions, err := ep.deps.Xero.Tracking.RegionOptions(ctx)
	if err != nil {
		return payroll.Directory{}, fmt.Errorf("list region options: %w", err)
	}

	return payroll.Directory{
		Employees: utils.Map(employees, func(e v1.EmployeeDTO) payroll.DirectoryEntry {
			return payroll.DirectoryEntry{ID: e.EmployeeID, Name: e.FullName()}
		}),
		Regions: utils.Map(regions, func(o v1.TrackingOptionDTO) payroll.DirectoryEntry {
			return payroll.DirectoryEntry{ID: o.TrackingOptionID, Name: o.Name}
		}),
	}, nil
}
