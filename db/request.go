package db

import (
	"context"
	"fmt"
	"time"

	"github.com/alwitt/requestboard/models"
	"github.com/apex/log"
	"github.com/google/uuid"
)

/*
DefineNewRequest define new request

	@param ctx context.Context - execution context
	@param params models.NewRequest - new request parameters
	@param timestamp time.Time - request creation timestamp
	@returns request entry
*/
func (d *databaseImpl) DefineNewRequest(
	ctx context.Context, params models.NewRequest, timestamp time.Time,
) (models.Request, error) {
	newEntry := RequestDBEntry{
		Request: models.Request{
			ID:        uuid.NewString(),
			Name:      params.Name,
			Subject:   params.Subject,
			Message:   params.Message,
			CreatedAt: timestamp,
		},
	}

	if err := d.validator.Struct(&newEntry); err != nil {
		return models.Request{}, fmt.Errorf("new request from '%s' is not valid [%w]", params.Name, err)
	}

	if tmp := d.db.Create(&newEntry); tmp.Error != nil {
		return models.Request{}, fmt.Errorf(
			"new request from '%s' failed insert [%w]", params.Name, tmp.Error,
		)
	}

	// Record this event
	if _, err := d.defineNewRequestEvent(
		models.RequestEventTypeCreated,
		newEntry.ID,
		models.RequestEventMetadata{RequestID: newEntry.ID, RequestName: newEntry.Name},
	); err != nil {
		return models.Request{}, fmt.Errorf(
			"failed to log new request %s audit event [%w]", newEntry.ID, err,
		)
	}

	log.WithFields(d.GetLogTagsForContext(ctx)).
		WithField("request", newEntry.ID).
		Debug("Defined new request")

	return newEntry.Request, nil
}

// getRequestEntry find a request by ID
func (d *databaseImpl) getRequestEntry(requestID string) (RequestDBEntry, error) {
	var entry RequestDBEntry
	err := d.db.Where("id = ?", requestID).First(&entry).Error
	return entry, err
}

/*
GetRequest fetch a request by ID

	@param ctx context.Context - execution context
	@param requestID string - request ID
	@returns request entry
*/
func (d *databaseImpl) GetRequest(_ context.Context, requestID string) (models.Request, error) {
	entry, err := d.getRequestEntry(requestID)
	if err != nil {
		return models.Request{}, fmt.Errorf("failed to fetch request %s [%w]", requestID, err)
	}

	return entry.Request, nil
}

/*
ListRequests list all requests, newest first

	@param ctx context.Context - execution context
	@return list of requests
*/
func (d *databaseImpl) ListRequests(_ context.Context) ([]models.Request, error) {
	var entries []RequestDBEntry
	if tmp := d.db.Model(&RequestDBEntry{}).Order("created_at desc").Find(&entries); tmp.Error != nil {
		return nil, fmt.Errorf("failed to list requests [%w]", tmp.Error)
	}

	result := []models.Request{}
	for _, entry := range entries {
		result = append(result, entry.Request)
	}

	return result, nil
}

/*
UpdateRequest change the fields of a request

	@param ctx context.Context - execution context
	@param requestID string - request ID
	@param patch models.RequestPatch - the fields to change
	@returns the updated request entry
*/
func (d *databaseImpl) UpdateRequest(
	ctx context.Context, requestID string, patch models.RequestPatch,
) (models.Request, error) {
	entry, err := d.getRequestEntry(requestID)
	if err != nil {
		return models.Request{}, fmt.Errorf("failed to fetch request %s [%w]", requestID, err)
	}

	fields := patch.Fields()
	if len(fields) == 0 {
		// NOOP
		return entry.Request, nil
	}

	entry.Request = patch.Apply(entry.Request)
	if err := d.validator.Struct(&entry); err != nil {
		return models.Request{}, fmt.Errorf("updated request %s is not valid [%w]", requestID, err)
	}

	if tmp := d.db.Model(&entry).Select(fields).Updates(&entry); tmp.Error != nil {
		return models.Request{}, fmt.Errorf("failed to update request %s [%w]", requestID, tmp.Error)
	}

	// Record this event
	if _, err := d.defineNewRequestEvent(
		models.RequestEventTypeUpdated,
		entry.ID,
		models.RequestEventMetadata{RequestID: entry.ID, RequestName: entry.Name, Fields: fields},
	); err != nil {
		return models.Request{}, fmt.Errorf(
			"failed to log update request %s audit event [%w]", requestID, err,
		)
	}

	log.WithFields(d.GetLogTagsForContext(ctx)).
		WithField("request", requestID).
		WithField("fields", fields).
		Debug("Updated request")

	return entry.Request, nil
}

/*
DeleteRequest delete a request

	@param ctx context.Context - execution context
	@param requestID string - request ID
*/
func (d *databaseImpl) DeleteRequest(ctx context.Context, requestID string) error {
	entry, err := d.getRequestEntry(requestID)
	if err != nil {
		return fmt.Errorf("failed to fetch request %s [%w]", requestID, err)
	}

	if tmp := d.db.Delete(&entry); tmp.Error != nil {
		return fmt.Errorf("failed to delete request %s [%w]", requestID, tmp.Error)
	}

	// Record this event
	if _, err := d.defineNewRequestEvent(
		models.RequestEventTypeDeleted,
		entry.ID,
		models.RequestEventMetadata{RequestID: entry.ID, RequestName: entry.Name},
	); err != nil {
		return fmt.Errorf("failed to log delete request %s audit event [%w]", requestID, err)
	}

	log.WithFields(d.GetLogTagsForContext(ctx)).
		WithField("request", requestID).
		Debug("Deleted request")

	return nil
}
