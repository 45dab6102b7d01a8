package timesheet

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	web "github.com/gzizouseif24/xero-automation/web/common"
)

// RunRecords returns the persisted ledger of one run.
func (ep *Endpoint) RunRecords(c *gin.Context) {
	runID := c.Param("runId")

	rows, err := ep.deps.Store.RunRecords(c.Request.Context(), runID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, web.NewSearchResponse(rows, int64(len(rows))))
}

// ArtifactLister enumerates persisted artifact names. Both the local and the
// S3 writers implement it.
type ArtifactLister interface {
	ListArtifacts(ctx context.Context) ([]string, error)
}

// RunArtifacts returns the payload artifact names written during one run.
func (ep *Endpoint) RunArtifacts(c *gin.Context) {
	lister, ok := ep.deps.Artifacts.(ArtifactLister)
	if !ok {
		c.JSON(http.StatusNotImplemented, web.NewErrorResponse("artifact listing is not supported by this backend"))
		return
	}

	runID := c.Param("runId")
	names, err := lister.ListArtifacts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, web.NewErrorResponse(err.Error()))
		return
	}

	matched := make([]string, 0, len(names))
	for _, name := range names {
		if strings.HasSuffix(name, "_"+runID+".json") {
			matched = append(matched, name)
		}
	}

	c.JSON(http.StatusOK, web.NewSearchResponse(matched, int64(len(matched))))
}
