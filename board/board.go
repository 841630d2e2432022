// Package board - the request board component
package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alwitt/goutils"
	"github.com/alwitt/requestboard/models"
	"github.com/alwitt/requestboard/store"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
)

var (
	// ErrNoActiveEdit no request is being edited
	ErrNoActiveEdit = errors.New("no request is being edited")
	// ErrEditTargetMismatch a different request is being edited
	ErrEditTargetMismatch = errors.New("a different request is being edited")
	// ErrUnknownRequest request is not in the board
	ErrUnknownRequest = errors.New("request is not in the board")
)

// EditSession working copies of the request being edited
type EditSession struct {
	// RequestID the request being edited
	RequestID string `json:"request_id"`
	// Subject working copy of the subject
	Subject string `json:"subject"`
	// Message working copy of the message
	Message string `json:"message"`
}

// View point-in-time copy of the board state
type View struct {
	// Requests the cached requests, in display order
	Requests []models.Request `json:"requests"`
	// Draft the create form input
	Draft models.Draft `json:"draft"`
	// Edit the active edit session, nil when viewing
	Edit *EditSession `json:"edit,omitempty"`
	// Loading whether a refresh is in flight
	Loading bool `json:"loading"`
}

// Count number of cached requests
func (v View) Count() int {
	return len(v.Requests)
}

// IsEditing whether the request is the one being edited
func (v View) IsEditing(requestID string) bool {
	return v.Edit != nil && v.Edit.RequestID == requestID
}

// RequestBoard create form and list of requests, kept in sync with a Record Store.
//
// Update and delete are applied to the local cache before the Record Store confirms them,
// and reverted wholesale if the Record Store call fails. Failures are logged; the board
// stays usable after any of them.
type RequestBoard interface {
	/*
		Refresh replace the cached requests with the Record Store's current content

			@param ctx context.Context - execution context
	*/
	Refresh(ctx context.Context) error

	/*
		SetDraft replace the create form input

			@param draft models.Draft - the form input
	*/
	SetDraft(draft models.Draft)

	/*
		Submit create a request from the draft. The call is silently dropped unless every
		draft field is non-empty after trimming.

			@param ctx context.Context - execution context
	*/
	Submit(ctx context.Context) error

	/*
		Delete delete a request

			@param ctx context.Context - execution context
			@param requestID string - request ID
	*/
	Delete(ctx context.Context, requestID string) error

	/*
		StartEdit begin editing a request, discarding any other edit session

			@param ctx context.Context - execution context
			@param requestID string - request ID
	*/
	StartEdit(ctx context.Context, requestID string) error

	/*
		SetEditFields replace the working copies of the active edit session

			@param requestID string - the request being edited
			@param subject string - subject working copy
			@param message string - message working copy
	*/
	SetEditFields(requestID string, subject string, message string) error

	/*
		CancelEdit discard the active edit session
	*/
	CancelEdit()

	/*
		CancelEditOf discard the active edit session only if it targets the request

			@param requestID string - request ID
			@returns whether a session was discarded
	*/
	CancelEditOf(requestID string) bool

	/*
		SaveEdit write the active edit session to the Record Store. The session ends only if
		the Record Store accepts the change.

			@param ctx context.Context - execution context
	*/
	SaveEdit(ctx context.Context) error

	/*
		View fetch a copy of the board state

			@returns the board state
	*/
	View() View
}

// requestBoard implements RequestBoard
type requestBoard struct {
	goutils.Component

	records   store.RecordStore
	metrics   *Metrics
	validator *validator.Validate

	lock sync.Mutex
	// cache is never mutated in place; every change installs a new slice so a captured
	// snapshot stays valid for revert.
	cache         []models.Request
	draft         models.Draft
	edit          *EditSession
	inFlightLists int
}

/*
NewRequestBoard define a new request board and load its initial content

	@param ctx context.Context - execution context
	@param records store.RecordStore - the Record Store
	@param metrics *Metrics - operation metrics. Optional.
	@returns new board
*/
func NewRequestBoard(
	ctx context.Context, records store.RecordStore, metrics *Metrics,
) (RequestBoard, error) {
	if records == nil {
		return nil, fmt.Errorf("record store is required")
	}

	logTags := log.Fields{"module": "board", "component": "request-board"}

	instance := &requestBoard{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		records:   records,
		metrics:   metrics,
		validator: validator.New(),
		cache:     []models.Request{},
	}

	// Failure is already logged, and the board starts empty
	_ = instance.Refresh(ctx)

	return instance, nil
}

// ======================================================================================
// Read

func (b *requestBoard) Refresh(ctx context.Context) error {
	logTags := b.GetLogTagsForContext(ctx)

	b.lock.Lock()
	b.inFlightLists++
	b.lock.Unlock()

	startTime := time.Now()
	entries, err := b.records.List(ctx)
	b.metrics.observeCall(operationList, startTime, err)

	b.lock.Lock()
	defer b.lock.Unlock()
	b.inFlightLists--

	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Failed to list requests")
		return fmt.Errorf("failed to refresh requests [%w]", err)
	}

	b.cache = copyRequests(entries)

	log.WithFields(logTags).WithField("requests", len(b.cache)).Debug("Refreshed requests")
	return nil
}

// ======================================================================================
// Create

func (b *requestBoard) SetDraft(draft models.Draft) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.draft = draft
}

func (b *requestBoard) Submit(ctx context.Context) error {
	logTags := b.GetLogTagsForContext(ctx)

	b.lock.Lock()
	draft := b.draft.Trimmed()
	b.lock.Unlock()

	if err := b.validator.Struct(&draft); err != nil {
		log.WithFields(logTags).WithField("reason", err.Error()).Debug("Ignoring incomplete draft")
		b.metrics.observeSkipped(operationCreate)
		return nil
	}

	startTime := time.Now()
	created, err := b.records.Create(ctx, draft.ToNewRequest())
	b.metrics.observeCall(operationCreate, startTime, err)

	b.lock.Lock()
	defer b.lock.Unlock()

	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Failed to create request")
		return fmt.Errorf("failed to submit draft [%w]", err)
	}

	// New rows go to the end of the list, as returned, without re-sorting
	updated := copyRequests(b.cache)
	b.cache = append(updated, created...)
	b.draft = models.Draft{}

	log.WithFields(logTags).WithField("created", len(created)).Debug("Created request")
	return nil
}

// ======================================================================================
// Delete

func (b *requestBoard) Delete(ctx context.Context, requestID string) error {
	logTags := b.GetLogTagsForContext(ctx)
	logTags["request"] = requestID

	b.lock.Lock()
	snapshot := b.cache
	b.cache = removeRequest(b.cache, requestID)
	b.lock.Unlock()

	startTime := time.Now()
	err := b.records.Delete(ctx, requestID)
	b.metrics.observeCall(operationDelete, startTime, err)

	if err != nil {
		b.lock.Lock()
		b.cache = snapshot
		b.lock.Unlock()
		log.WithError(err).WithFields(logTags).Error("Failed to delete request, reverted")
		return fmt.Errorf("failed to delete request %s [%w]", requestID, err)
	}

	log.WithFields(logTags).Debug("Deleted request")
	return nil
}

// ======================================================================================
// Edit

func (b *requestBoard) StartEdit(ctx context.Context, requestID string) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	for _, entry := range b.cache {
		if entry.ID == requestID {
			b.edit = &EditSession{
				RequestID: entry.ID, Subject: entry.Subject, Message: entry.Message,
			}
			log.WithFields(b.GetLogTagsForContext(ctx)).
				WithField("request", requestID).
				Debug("Editing request")
			return nil
		}
	}

	return fmt.Errorf("can't edit request %s [%w]", requestID, ErrUnknownRequest)
}

func (b *requestBoard) SetEditFields(requestID string, subject string, message string) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.edit == nil {
		return ErrNoActiveEdit
	}
	if b.edit.RequestID != requestID {
		return fmt.Errorf(
			"can't change fields of request %s, editing %s [%w]",
			requestID,
			b.edit.RequestID,
			ErrEditTargetMismatch,
		)
	}

	b.edit.Subject = subject
	b.edit.Message = message
	return nil
}

func (b *requestBoard) CancelEdit() {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.edit = nil
}

func (b *requestBoard) CancelEditOf(requestID string) bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.edit == nil || b.edit.RequestID != requestID {
		return false
	}
	b.edit = nil
	return true
}

func (b *requestBoard) SaveEdit(ctx context.Context) error {
	logTags := b.GetLogTagsForContext(ctx)

	b.lock.Lock()
	if b.edit == nil {
		b.lock.Unlock()
		return ErrNoActiveEdit
	}
	requestID := b.edit.RequestID
	subject := strings.TrimSpace(b.edit.Subject)
	message := strings.TrimSpace(b.edit.Message)
	patch := models.RequestPatch{Subject: &subject, Message: &message}

	snapshot := b.cache
	b.cache = patchRequest(b.cache, requestID, patch)
	b.lock.Unlock()

	logTags["request"] = requestID

	startTime := time.Now()
	err := b.records.Update(ctx, requestID, patch)
	b.metrics.observeCall(operationUpdate, startTime, err)

	b.lock.Lock()
	defer b.lock.Unlock()

	if err != nil {
		// The edit session is kept so the user can retry or cancel
		b.cache = snapshot
		log.WithError(err).WithFields(logTags).Error("Failed to update request, reverted")
		return fmt.Errorf("failed to save request %s [%w]", requestID, err)
	}

	if b.edit != nil && b.edit.RequestID == requestID {
		b.edit = nil
	}

	log.WithFields(logTags).Debug("Updated request")
	return nil
}

// ======================================================================================
// Render

func (b *requestBoard) View() View {
	b.lock.Lock()
	defer b.lock.Unlock()

	result := View{
		Requests: copyRequests(b.cache),
		Draft:    b.draft,
		Loading:  b.inFlightLists > 0,
	}
	if b.edit != nil {
		session := *b.edit
		result.Edit = &session
	}
	return result
}

// ======================================================================================
// Cache helpers. None of them modify their input.

func copyRequests(entries []models.Request) []models.Request {
	result := make([]models.Request, len(entries))
	copy(result, entries)
	return result
}

func removeRequest(entries []models.Request, requestID string) []models.Request {
	result := make([]models.Request, 0, len(entries))
	for _, entry := range entries {
		if entry.ID != requestID {
			result = append(result, entry)
		}
	}
	return result
}

func patchRequest(
	entries []models.Request, requestID string, patch models.RequestPatch,
) []models.Request {
	result := make([]models.Request, 0, len(entries))
	for _, entry := range entries {
		if entry.ID == requestID {
			entry = patch.Apply(entry)
		}
		result = append(result, entry)
	}
	return result
}
