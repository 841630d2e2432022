package db

import (
	"context"
	"fmt"
	"time"

	"github.com/alwitt/goutils"
	"github.com/alwitt/requestboard/models"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// CommonListEntryQueryFilter common query filter when listing data entries
type CommonListEntryQueryFilter struct {
	Limit  *int
	Offset *int
}

// RequestEventQueryFilter request audit event query filter conditions
type RequestEventQueryFilter struct {
	CommonListEntryQueryFilter
	// EventTypes the specific event types to query for
	EventTypes []models.RequestEventTypeENUMType
	// TargetRequestID fetch only events related to this request
	TargetRequestID *string
}

// Database the database handle to interacting with the data base
type Database interface {
	// ------------------------------------------------------------------------------------
	// Request audit events

	/*
		ListRequestEvents list captured request events

			@param ctx context.Context - execution context
			@param filters RequestEventQueryFilter - entry listing filter
			@return list of request events
	*/
	ListRequestEvents(
		ctx context.Context, filters RequestEventQueryFilter,
	) ([]models.RequestEventAudit, error)

	// ------------------------------------------------------------------------------------
	// Requests

	/*
		DefineNewRequest define new request

			@param ctx context.Context - execution context
			@param params models.NewRequest - new request parameters
			@param timestamp time.Time - request creation timestamp
			@returns request entry
	*/
	DefineNewRequest(
		ctx context.Context, params models.NewRequest, timestamp time.Time,
	) (models.Request, error)

	/*
		GetRequest fetch a request by ID

			@param ctx context.Context - execution context
			@param requestID string - request ID
			@returns request entry
	*/
	GetRequest(ctx context.Context, requestID string) (models.Request, error)

	/*
		ListRequests list all requests, newest first

			@param ctx context.Context - execution context
			@return list of requests
	*/
	ListRequests(ctx context.Context) ([]models.Request, error)

	/*
		UpdateRequest change the fields of a request

			@param ctx context.Context - execution context
			@param requestID string - request ID
			@param patch models.RequestPatch - the fields to change
			@returns the updated request entry
	*/
	UpdateRequest(
		ctx context.Context, requestID string, patch models.RequestPatch,
	) (models.Request, error)

	/*
		DeleteRequest delete a request

			@param ctx context.Context - execution context
			@param requestID string - request ID
	*/
	DeleteRequest(ctx context.Context, requestID string) error
}

// databaseImpl implements Database
type databaseImpl struct {
	goutils.Component
	db        *gorm.DB
	validator *validator.Validate
}

// newDatabase define a new database client
func newDatabase(_ context.Context, sqlClient *gorm.DB) (Database, error) {
	logTags := log.Fields{"package": "requestboard", "module": "db", "component": "db-client"}

	instance := &databaseImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		db:        sqlClient,
		validator: validator.New(),
	}

	if err := models.RegisterWithValidator(instance.validator); err != nil {
		return nil, fmt.Errorf("failed to install custom validation macros [%w]", err)
	}

	return instance, nil
}
