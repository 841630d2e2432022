// Package db - persistence layer
package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alwitt/requestboard/models"
	"github.com/oklog/ulid/v2"
	"gorm.io/datatypes"
)

// defineNewRequestEvent record a new request event
func (d *databaseImpl) defineNewRequestEvent(
	eventType models.RequestEventTypeENUMType,
	requestID string,
	metadata interface{},
) (models.RequestEventAudit, error) {
	newEntry := RequestEventAuditDBEntry{
		RequestEventAudit: models.RequestEventAudit{
			ID: ulid.Make().String(), EventType: eventType, RequestID: requestID,
		},
	}

	if metadata != nil {
		if err := d.validator.Struct(metadata); err != nil {
			return models.RequestEventAudit{}, fmt.Errorf(
				"new request event '%s' metadata entry is not valid [%w]", eventType, err,
			)
		}

		metadataStr, _ := json.Marshal(&metadata)
		newEntry.Metadata = datatypes.JSON(metadataStr)
	}

	if err := d.validator.Struct(&newEntry); err != nil {
		return models.RequestEventAudit{}, fmt.Errorf(
			"new request event '%s' entry is not valid [%w]", eventType, err,
		)
	}

	if tmp := d.db.Create(&newEntry); tmp.Error != nil {
		return models.RequestEventAudit{}, fmt.Errorf(
			"new request event '%s' insert failed [%w]", eventType, tmp.Error,
		)
	}

	return newEntry.RequestEventAudit, nil
}

/*
ListRequestEvents list captured request events

	@param ctx context.Context - execution context
	@param filters RequestEventQueryFilter - entry listing filter
	@return list of request events
*/
func (d *databaseImpl) ListRequestEvents(
	_ context.Context, filters RequestEventQueryFilter,
) ([]models.RequestEventAudit, error) {
	query := d.db.Model(&RequestEventAuditDBEntry{})

	if len(filters.EventTypes) > 0 {
		query = query.Where("type in ?", filters.EventTypes)
	}

	if filters.TargetRequestID != nil {
		query = query.Where("request_id = ?", *filters.TargetRequestID)
	}

	if filters.Limit != nil {
		query = query.Limit(*filters.Limit)
	}
	if filters.Offset != nil {
		query = query.Offset(*filters.Offset)
	}

	// ULIDs sort by creation time, which keeps events created within the same clock tick
	// in insertion order
	query = query.Order("id")

	var entries []RequestEventAuditDBEntry
	if tmp := query.Find(&entries); tmp.Error != nil {
		return nil, fmt.Errorf("failed to list captured request events [%w]", tmp.Error)
	}

	result := []models.RequestEventAudit{}
	for _, entry := range entries {
		result = append(result, entry.RequestEventAudit)
	}

	return result, nil
}
