package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

// RequestEventTypeENUMType request event type ENUM value type
type RequestEventTypeENUMType string

const (
	// RequestEventTypeCreated new request was created
	RequestEventTypeCreated RequestEventTypeENUMType = "REQUEST_CREATED"

	// RequestEventTypeUpdated request fields were changed
	RequestEventTypeUpdated RequestEventTypeENUMType = "REQUEST_UPDATED"

	// RequestEventTypeDeleted request was deleted
	RequestEventTypeDeleted RequestEventTypeENUMType = "REQUEST_DELETED"
)

// RequestEventAudit recording of changes made to the requests table
type RequestEventAudit struct {
	// ID audit entry ID
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required"`
	// EventType request event type
	EventType RequestEventTypeENUMType `json:"type" gorm:"column:type;not null" validate:"required,request_event_type"`
	// RequestID the request this event relates to
	RequestID string `json:"request_id" gorm:"column:request_id;not null;index" validate:"required,uuid_rfc4122"`
	// Metadata a metadata relating to the event
	Metadata datatypes.JSON `json:"metadata,omitempty" gorm:"column:metadata;default:null"`
	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at"`
}

// ParseMetadata parse the metadata based on the event type
func (a RequestEventAudit) ParseMetadata(validator *validator.Validate) (interface{}, error) {
	switch a.EventType {
	case RequestEventTypeCreated:
		fallthrough
	case RequestEventTypeUpdated:
		fallthrough
	case RequestEventTypeDeleted:
		var parsed RequestEventMetadata
		if err := json.Unmarshal(a.Metadata, &parsed); err != nil {
			return nil, fmt.Errorf("request event '%s' metadata parse failed [%w]", a.EventType, err)
		}
		return parsed, validator.Struct(&parsed)
	}
	return nil, nil
}

// RequestEventMetadata request event metadata
type RequestEventMetadata struct {
	// RequestID the request ID
	RequestID string `json:"request_id" validate:"required,uuid_rfc4122"`
	// RequestName name of the submitter of the request
	RequestName string `json:"request_name" validate:"required"`
	// Fields the fields changed by an update
	Fields []string `json:"fields,omitempty"`
}
