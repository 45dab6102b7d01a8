package timesheet

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gzizouseif24/xero-automation/payroll"
	web "github.com/gzizouseif24/xero-automation/web/common"
)

// Validate runs the consolidation pipeline without touching Xero timesheets:
// it resolves names, applies the hour rules, merges the sources and returns
// the full diagnostic picture for review.
func (ep *Endpoint) Validate(c *gin.Context) {
	var params ValidateParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	if len(params.rawEntries()) == 0 {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse("no entries provided"))
		return
	}

	result, err := ep.consolidate(c, params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(result))
}

func (ep *Endpoint) consolidate(c *gin.Context, params ValidateParams) (*payroll.ConsolidationResult, error) {
	ctx := c.Request.Context()

	overrides, err := ep.deps.Store.Overrides(ctx)
	if err != nil {
		return nil, err
	}

	dir, err := ep.directory(ctx)
	if err != nil {
		return nil, err
	}

	rules := ep.deps.Settings.RunRules(overrides)
	return payroll.ValidateAndConsolidate(params.rawEntries(), dir, params.period(), rules)
}
