// Package types defines the request and response DTOs for the API.
package types

import (
	"fmt"
)

// DefaultMapLevel is the baseline level used when a request does not select
// any map levels.
const DefaultMapLevel = "surface"

// MapRequestParams is the client-submitted parameter set for a map
// generation request. The normalized form of this struct is the fingerprint
// input; it deliberately carries no owner or fingerprint fields.
type MapRequestParams struct {
	VariableName   string   `json:"variableName"`
	Years          []string `json:"years"`
	Months         []string `json:"months"`
	Days           []string `json:"days"`
	Hours          []string `json:"hours"`
	AreaCovered    []string `json:"areaCovered"`
	MapTypes       []string `json:"mapTypes"`
	MapLevels      []string `json:"mapLevels,omitempty"`
	FileFormat     string   `json:"fileFormat,omitempty"`
	HighResolution bool     `json:"highResolution,omitempty"`
}

// Validate checks that the required selection fields are present.
func (p *MapRequestParams) Validate() error {
	if p == nil {
		return fmt.Errorf("request parameters are required")
	}
	if p.VariableName == "" {
		return fmt.Errorf("variableName is required")
	}
	for field, values := range map[string][]string{
		"years":       p.Years,
		"months":      p.Months,
		"days":        p.Days,
		"hours":       p.Hours,
		"areaCovered": p.AreaCovered,
		"mapTypes":    p.MapTypes,
	} {
		if len(values) == 0 {
			return fmt.Errorf("%s must not be empty", field)
		}
	}
	return nil
}

// Normalized returns a copy with optional fields defaulted. Array ordering is
// significant input and is never reordered.
func (p MapRequestParams) Normalized() MapRequestParams {
	if len(p.MapLevels) == 0 {
		p.MapLevels = []string{DefaultMapLevel}
	}
	return p
}

// SubmitResponse is returned when a request is accepted for processing.
type SubmitResponse struct {
	Fingerprint string   `json:"fingerprint"`
	Status      string   `json:"status"`
	Message     string   `json:"message"`
	CacheHit    bool     `json:"cache_hit"`
	Files       []string `json:"files,omitempty"`
}

// PaginationResponse carries pagination metadata for list responses.
type PaginationResponse struct {
	Total  int `json:"total"`
	Page   int `json:"page"`
	Offset int `json:"offset"`
}
