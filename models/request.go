package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Request a request submitted through the request board
type Request struct {
	// ID request ID
	ID string `json:"id" gorm:"column:id;primaryKey;unique" validate:"required,uuid_rfc4122"`

	// Name name of the submitter. Set at creation, never edited.
	Name string `json:"name" gorm:"column:name;not null" validate:"required"`

	// Subject request subject
	Subject string `json:"subject" gorm:"column:subject;not null" validate:"required"`

	// Message request message body
	Message string `json:"message" gorm:"column:message;type:text;not null" validate:"required"`

	// CreatedAt entry creation timestamp
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;index"`
}

// UnmarshalJSON decode a request row. Hosted tables may key rows with an integer identity
// column instead of a UUID; numeric IDs are kept in their decimal form.
func (r *Request) UnmarshalJSON(data []byte) error {
	type plainRequest Request
	parsed := struct {
		*plainRequest
		ID json.RawMessage `json:"id"`
	}{plainRequest: (*plainRequest)(r)}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return err
	}

	rawID := bytes.TrimSpace(parsed.ID)
	switch {
	case len(rawID) == 0 || bytes.Equal(rawID, []byte("null")):
		r.ID = ""
	case rawID[0] == '"':
		return json.Unmarshal(rawID, &r.ID)
	default:
		var numericID json.Number
		if err := json.Unmarshal(rawID, &numericID); err != nil {
			return fmt.Errorf("request id %s is neither a string nor a number [%w]", rawID, err)
		}
		r.ID = numericID.String()
	}
	return nil
}

// NewRequest parameters of a new request
type NewRequest struct {
	// Name name of the submitter
	Name string `json:"name" validate:"required"`
	// Subject request subject
	Subject string `json:"subject" validate:"required"`
	// Message request message body
	Message string `json:"message" validate:"required"`
}

// RequestPatch partial update of a request. Only the set fields are changed.
type RequestPatch struct {
	// Subject new request subject
	Subject *string `json:"subject,omitempty"`
	// Message new request message body
	Message *string `json:"message,omitempty"`
}

// Apply return a copy of the request with the patch fields merged in
func (p RequestPatch) Apply(r Request) Request {
	if p.Subject != nil {
		r.Subject = *p.Subject
	}
	if p.Message != nil {
		r.Message = *p.Message
	}
	return r
}

// Fields names of the columns touched by this patch
func (p RequestPatch) Fields() []string {
	fields := []string{}
	if p.Subject != nil {
		fields = append(fields, "subject")
	}
	if p.Message != nil {
		fields = append(fields, "message")
	}
	return fields
}

// Draft create form input not yet submitted
type Draft struct {
	// Name name of the submitter
	Name string `json:"name" form:"name" validate:"required"`
	// Subject request subject
	Subject string `json:"subject" form:"subject" validate:"required"`
	// Message request message body
	Message string `json:"message" form:"message" validate:"required"`
}

// Trimmed return a copy of the draft with surrounding whitespace removed from every field
func (d Draft) Trimmed() Draft {
	return Draft{
		Name:    strings.TrimSpace(d.Name),
		Subject: strings.TrimSpace(d.Subject),
		Message: strings.TrimSpace(d.Message),
	}
}

// ToNewRequest convert the draft into new request parameters
func (d Draft) ToNewRequest() NewRequest {
	return NewRequest{Name: d.Name, Subject: d.Subject, Message: d.Message}
}
