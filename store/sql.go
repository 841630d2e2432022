package store

import (
	"context"
	"fmt"
	"time"

	"github.com/alwitt/goutils"
	"github.com/alwitt/requestboard/db"
	"github.com/alwitt/requestboard/models"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
)

// sqlRecordStore implements RecordStore on top of the SQL persistence layer
type sqlRecordStore struct {
	goutils.Component

	persistence db.Client
	validator   *validator.Validate

	// now source of server-assigned creation timestamps
	now func() time.Time
}

/*
NewSQLRecordStore define new Record Store backed by a SQL database

	@param persistence db.Client - persistence layer client
	@returns store instance
*/
func NewSQLRecordStore(persistence db.Client) (RecordStore, error) {
	if persistence == nil {
		return nil, fmt.Errorf("persistence client is required")
	}

	logTags := log.Fields{"module": "store", "component": "sql-record-store"}

	eventValidator, err := newEventValidator()
	if err != nil {
		return nil, err
	}

	instance := &sqlRecordStore{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		persistence: persistence,
		validator:   eventValidator,
		now:         func() time.Time { return time.Now().UTC() },
	}

	return instance, nil
}

/*
List fetch all requests, newest first

	@param ctx context.Context - execution context
	@returns the requests ordered by creation time descending
*/
func (s *sqlRecordStore) List(ctx context.Context) ([]models.Request, error) {
	var entries []models.Request

	if dbErr := s.persistence.UseDatabase(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			entries, err = dbClient.ListRequests(dbCtx)
			return err
		},
	); dbErr != nil {
		return nil, fmt.Errorf("failed to list requests [%w]", dbErr)
	}

	return entries, nil
}

/*
Create insert a new request

	@param ctx context.Context - execution context
	@param params models.NewRequest - new request parameters
	@returns the inserted rows, with server-assigned ID and creation timestamp
*/
func (s *sqlRecordStore) Create(
	ctx context.Context, params models.NewRequest,
) ([]models.Request, error) {
	var newEntry models.Request

	if dbErr := s.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			var err error
			newEntry, err = dbClient.DefineNewRequest(dbCtx, params, s.now())
			return err
		},
	); dbErr != nil {
		return nil, fmt.Errorf("failed to create request from '%s' [%w]", params.Name, dbErr)
	}

	return []models.Request{newEntry}, nil
}

/*
Update change fields of a request

	@param ctx context.Context - execution context
	@param requestID string - request ID
	@param patch models.RequestPatch - the fields to change
*/
func (s *sqlRecordStore) Update(
	ctx context.Context, requestID string, patch models.RequestPatch,
) error {
	if dbErr := s.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			_, err := dbClient.UpdateRequest(dbCtx, requestID, patch)
			return err
		},
	); dbErr != nil {
		return fmt.Errorf("failed to update request %s [%w]", requestID, dbErr)
	}

	return nil
}

/*
Delete delete a request

	@param ctx context.Context - execution context
	@param requestID string - request ID
*/
func (s *sqlRecordStore) Delete(ctx context.Context, requestID string) error {
	if dbErr := s.persistence.UseDatabaseInTransaction(
		ctx, func(dbCtx context.Context, dbClient db.Database) error {
			return dbClient.DeleteRequest(dbCtx, requestID)
		},
	); dbErr != nil {
		return fmt.Errorf("failed to delete request %s [%w]", requestID, dbErr)
	}

	return nil
}
