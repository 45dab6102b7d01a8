package timesheet

import (
	"net/http"

	"github.com/gin-gonic/gin"

	web "github.com/gzizouseif24/xero-automation/web/common"
)

// Mappings returns the configured earnings-rate and tracking mappings
// alongside the live region options, so gaps are visible before a run.
func (ep *Endpoint) Mappings(c *gin.Context) {
	regionOptions, err := ep.deps.Xero.Tracking.RegionOptions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{
		"earningsRates":   ep.deps.Settings.Mappings.EarningsRates,
		"trackingOptions": ep.deps.Settings.Mappings.TrackingOptions,
		"regionOptions":   regionOptions,
	}))
}

// Directory returns the employee and region snapshot the resolver matches
// against.
func (ep *Endpoint) Directory(c *gin.Context) {
	dir, err := ep.directory(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(dir))
}
