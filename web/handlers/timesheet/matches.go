package timesheet

import (
	"net/http"

	"github.com/gin-gonic/gin"

	web "github.com/gzizouseif24/xero-automation/web/common"
)

// SaveMatch records a match decision for a raw name: either a confirmed
// Xero employee ID or an explicit rejection. The decision applies from the
// next run onwards.
func (ep *Endpoint) SaveMatch(c *gin.Context) {
	var params MatchParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}
	if params.XeroID == "" && !params.Rejected {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse("either xeroId or rejected must be set"))
		return
	}

	if err := ep.deps.Store.SaveOverride(c.Request.Context(), params.RawName, params.XeroID); err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{}))
}

// DeleteMatch forgets a match decision, returning the name to fuzzy
// resolution.
func (ep *Endpoint) DeleteMatch(c *gin.Context) {
	rawName := c.Param("rawName")
	if err := ep.deps.Store.DeleteOverride(c.Request.Context(), rawName); err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{}))
}

// ListMatches returns every stored decision. An empty ID marks a rejection.
func (ep *Endpoint) ListMatches(c *gin.Context) {
	overrides, err := ep.deps.Store.Overrides(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(overrides))
}
