// Package store - Record Store backends of the request board
package store

import (
	"context"

	"github.com/alwitt/requestboard/models"
)

// RecordStore the durable home of the requests table.
//
// Every operation either succeeds or returns an error; callers do not distinguish error kinds.
type RecordStore interface {
	/*
		List fetch all requests, newest first

			@param ctx context.Context - execution context
			@returns the requests ordered by creation time descending
	*/
	List(ctx context.Context) ([]models.Request, error)

	/*
		Create insert a new request

			@param ctx context.Context - execution context
			@param params models.NewRequest - new request parameters
			@returns the inserted rows, with server-assigned ID and creation timestamp
	*/
	Create(ctx context.Context, params models.NewRequest) ([]models.Request, error)

	/*
		Update change fields of a request

			@param ctx context.Context - execution context
			@param requestID string - request ID
			@param patch models.RequestPatch - the fields to change
	*/
	Update(ctx context.Context, requestID string, patch models.RequestPatch) error

	/*
		Delete delete a request

			@param ctx context.Context - execution context
			@param requestID string - request ID
	*/
	Delete(ctx context.Context, requestID string) error
}
