package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// RequestCreatedAtField is the database field name for the request creation timestamp
const RequestCreatedAtField = "created_at"

// RequestStatus represents the current state of a map request in the system
type RequestStatus int

// Request status constants
const (
	// RequestStatusEmpty indicates processing finished without usable artifacts
	RequestStatusEmpty RequestStatus = iota
	// RequestStatusGenerating indicates the request has been dispatched to a worker
	RequestStatusGenerating
	// RequestStatusCached indicates generated artifacts are available in the store
	RequestStatusCached
)

var requestStatusNames = []string{
	"EMPTY",
	"GENERATING",
	"CACHED",
}

// ParseRequestStatus converts a string representation of a request status to
// RequestStatus type
func ParseRequestStatus(str string) (RequestStatus, error) {
	for i, status := range requestStatusNames {
		if status == str {
			return RequestStatus(i), nil
		}
	}
	return RequestStatus(0), fmt.Errorf("invalid request status: %s", str)
}

func (s RequestStatus) String() string {
	if int(s) < 0 || int(s) >= len(requestStatusNames) {
		return "EMPTY"
	}
	return requestStatusNames[s]
}

// MarshalJSON implements the json.Marshaler interface for RequestStatus
func (s RequestStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for RequestStatus
func (s *RequestStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	status, err := ParseRequestStatus(str)
	if err != nil {
		return err
	}

	*s = status
	return nil
}

// MapRequest represents a map generation request. Requests are deduplicated by
// fingerprint: resubmitting identical parameters touches the existing record
// instead of creating a new one.
type MapRequest struct {
	gorm.Model
	Fingerprint    string        `json:"fingerprint" gorm:"not null;uniqueIndex"`
	Status         RequestStatus `json:"status" gorm:"index"`
	VariableName   string        `json:"variable_name" gorm:"not null;index"`
	Years          []string      `json:"years" gorm:"type:jsonb;serializer:json"`
	Months         []string      `json:"months" gorm:"type:jsonb;serializer:json"`
	Days           []string      `json:"days" gorm:"type:jsonb;serializer:json"`
	Hours          []string      `json:"hours" gorm:"type:jsonb;serializer:json"`
	AreaCovered    []string      `json:"area_covered" gorm:"type:jsonb;serializer:json"`
	MapTypes       []string      `json:"map_types" gorm:"type:jsonb;serializer:json"`
	MapLevels      []string      `json:"map_levels" gorm:"type:jsonb;serializer:json"`
	FileFormat     string        `json:"file_format"`
	HighResolution bool          `json:"high_resolution"`
	RepeatCount    int           `json:"repeat_count" gorm:"not null;default:1"`
	OwnerID        *uint         `json:"owner_id,omitempty" gorm:"index"`
	GeneratedID    *uint         `json:"generated_id,omitempty"`
	Generated      *GeneratedFileSet
	CreatedAt      time.Time `json:"created_at" gorm:"index"`
}
