package timesheet

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gzizouseif24/xero-automation/payroll"
	"github.com/gzizouseif24/xero-automation/utils"
	web "github.com/gzizouseif24/xero-automation/web/common"
)

// uploadLimit caps the multipart form size (10 MB).
const uploadLimit = 10 << 20

// Upload parses CSV hours sheets posted as the form fields "site", "travel"
// and "overtime" and returns the raw entries ready for /timesheets/validate.
// Nothing is persisted.
func (ep *Endpoint) Upload(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(uploadLimit); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(err.Error()))
		return
	}

	var resp UploadResponse
	fields := []struct {
		name   string
		source payroll.Source
		out    *[]EntryDTO
	}{
		{"site", payroll.SourceSite, &resp.Site},
		{"travel", payroll.SourceTravel, &resp.Travel},
		{"overtime", payroll.SourceOvertimeTable, &resp.Overtime},
	}

	parsed := 0
	for _, field := range fields {
		files := c.Request.MultipartForm.File[field.name]
		for _, file := range files {
			entries, err := parseUpload(file, field.source)
			if err != nil {
				c.JSON(http.StatusBadRequest, web.NewErrorResponse(fmt.Sprintf("%s: %v", file.Filename, err)))
				return
			}
			*field.out = append(*field.out, utils.Map(entries, fromRaw)...)
			parsed++
		}
	}

	if parsed == 0 {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse("no files uploaded; expected site, travel or overtime"))
		return
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(resp))
}

func parseUpload(file *multipart.FileHeader, source payroll.Source) ([]payroll.RawEntry, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return payroll.ParseEntriesCSV(source, f)
}
