package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

type TrackingEndpoint struct {
	transport *Transport
}

// Categories fetches all tracking categories with their options.
func (ep *TrackingEndpoint) Categories(ctx context.Context) ([]TrackingCategoryDTO, error) {
	resp, err := ep.transport.Get(ctx, "/api.xro/2.0/TrackingCategories", nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		TrackingCategories []TrackingCategoryDTO `json:"TrackingCategories"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return nil, fmt.Errorf("decode tracking categories: %w", err)
	}

	return result.TrackingCategories, nil
}

// RegionOptions returns the options of the region tracking category, the
// category payroll timesheet lines track against.
func (ep *TrackingEndpoint) RegionOptions(ctx context.Context) ([]TrackingOptionDTO, error) {
	categories, err := ep.Categories(ctx)
	if err != nil {
		return nil, err
	}

	for _, category := range categories {
		if strings.Contains(strings.ToLower(category.Name), "region") {
			return category.Options, nil
		}
	}
	return nil, nil
}
