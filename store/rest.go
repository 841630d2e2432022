package store

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alwitt/goutils"
	"github.com/alwitt/requestboard/models"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
)

// RESTStoreParams hosted table Record Store parameters
type RESTStoreParams struct {
	// BaseURL project URL of the hosted database, e.g. https://<project>.supabase.co
	BaseURL string `validate:"required,url"`
	// APIKey API key sent with every call
	APIKey string `validate:"required"`
	// Table name of the hosted table
	Table string `validate:"required"`
	// Timeout per call timeout. Zero means no timeout.
	Timeout time.Duration
	// HTTPClient optional HTTP client to issue calls with
	HTTPClient *http.Client `validate:"-"`
}

// restRecordStore implements RecordStore against a PostgREST interface
type restRecordStore struct {
	goutils.Component

	client    *resty.Client
	tablePath string
}

/*
NewRESTRecordStore define new Record Store backed by a hosted table exposed through a
PostgREST interface (e.g. Supabase)

	@param params RESTStoreParams - store parameters
	@returns store instance
*/
func NewRESTRecordStore(params RESTStoreParams) (RecordStore, error) {
	if err := validator.New().Struct(&params); err != nil {
		return nil, fmt.Errorf("invalid REST record store parameters [%w]", err)
	}

	logTags := log.Fields{
		"module": "store", "component": "rest-record-store", "table": params.Table,
	}

	var client *resty.Client
	if params.HTTPClient != nil {
		client = resty.NewWithClient(params.HTTPClient)
	} else {
		client = resty.New()
	}
	client.
		SetBaseURL(strings.TrimRight(params.BaseURL, "/")).
		SetHeader("apikey", params.APIKey).
		SetAuthToken(params.APIKey).
		SetHeader("Accept", "application/json")
	if params.Timeout > 0 {
		client.SetTimeout(params.Timeout)
	}

	instance := &restRecordStore{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		client:    client,
		tablePath: fmt.Sprintf("/rest/v1/%s", params.Table),
	}

	return instance, nil
}

// checkResponse convert a failed call into an error
func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

/*
List fetch all requests, newest first

	@param ctx context.Context - execution context
	@returns the requests ordered by creation time descending
*/
func (s *restRecordStore) List(ctx context.Context) ([]models.Request, error) {
	entries := []models.Request{}

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("select", "*").
		SetQueryParam("order", "created_at.desc").
		SetResult(&entries).
		Get(s.tablePath)
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("failed to list requests [%w]", err)
	}

	return entries, nil
}

/*
Create insert a new request

	@param ctx context.Context - execution context
	@param params models.NewRequest - new request parameters
	@returns the inserted rows, with server-assigned ID and creation timestamp
*/
func (s *restRecordStore) Create(
	ctx context.Context, params models.NewRequest,
) ([]models.Request, error) {
	entries := []models.Request{}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParam("select", "*").
		SetBody([]models.NewRequest{params}).
		SetResult(&entries).
		Post(s.tablePath)
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("failed to create request from '%s' [%w]", params.Name, err)
	}

	log.WithFields(s.GetLogTagsForContext(ctx)).
		WithField("rows", len(entries)).
		Debug("Inserted request")

	return entries, nil
}

/*
Update change fields of a request

	@param ctx context.Context - execution context
	@param requestID string - request ID
	@param patch models.RequestPatch - the fields to change
*/
func (s *restRecordStore) Update(
	ctx context.Context, requestID string, patch models.RequestPatch,
) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("id", fmt.Sprintf("eq.%s", requestID)).
		SetBody(patch).
		Patch(s.tablePath)
	if err := checkResponse(resp, err); err != nil {
		return fmt.Errorf("failed to update request %s [%w]", requestID, err)
	}

	return nil
}

/*
Delete delete a request

	@param ctx context.Context - execution context
	@param requestID string - request ID
*/
func (s *restRecordStore) Delete(ctx context.Context, requestID string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("id", fmt.Sprintf("eq.%s", requestID)).
		Delete(s.tablePath)
	if err := checkResponse(resp, err); err != nil {
		return fmt.Errorf("failed to delete request %s [%w]", requestID, err)
	}

	return nil
}
