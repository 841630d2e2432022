package store

import (
	"context"
	"fmt"

	"github.com/alwitt/requestboard/db"
	"github.com/alwitt/requestboard/models"
	"github.com/go-playground/validator/v10"
)

// EventLog read access to the audit trail of a Record Store. Only Record Stores that keep
// one implement it.
type EventLog interface {
	/*
		ListEvents list the recorded events of a request, oldest first

			@param ctx context.Context - execution context
			@param requestID string - request ID
			@param eventTypes []models.RequestEventTypeENUMType - only these event types. All when empty.
			@returns the events
	*/
	ListEvents(
		ctx context.Context, requestID string, eventTypes []models.RequestEventTypeENUMType,
	) ([]models.RequestEventAudit, error)
}

/*
ListEvents list the recorded events of a request, oldest first

	@param ctx context.Context - execution context
	@param requestID string - request ID
	@param eventTypes []models.RequestEventTypeENUMType - only these event types. All when empty.
	@returns the events
*/
func (s *sqlRecordStore) ListEvents(
	ctx context.Context, requestID string, eventTypes []models.RequestEventTypeENUMType,
) ([]models.RequestEventAudit, error) {
	var entries []models.RequestEventAudit

	if dbErr := s.persistence.UseDatabase(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			entries, err = dbClient.ListRequestEvents(dbCtx, db.RequestEventQueryFilter{
				EventTypes: eventTypes, TargetRequestID: &requestID,
			})
			return err
		},
	); dbErr != nil {
		return nil, fmt.Errorf("failed to list events of request %s [%w]", requestID, dbErr)
	}

	// Every event must carry parsable request metadata
	for _, entry := range entries {
		if _, err := entry.ParseMetadata(s.validator); err != nil {
			return nil, fmt.Errorf("request event %s has invalid metadata [%w]", entry.ID, err)
		}
	}

	if entries == nil {
		entries = []models.RequestEventAudit{}
	}
	return entries, nil
}

// newEventValidator validator able to check request event entries
func newEventValidator() (*validator.Validate, error) {
	instance := validator.New()
	if err := models.RegisterWithValidator(instance); err != nil {
		return nil, fmt.Errorf("failed to install custom validation macros [%w]", err)
	}
	return instance, nil
}
