package board_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alwitt/requestboard/board"
	mockstore "github.com/alwitt/requestboard/mocks/store"
	"github.com/alwitt/requestboard/models"
	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func testRequest(name, subject, message string, createdAt time.Time) models.Request {
	return models.Request{
		ID: uuid.NewString(), Name: name, Subject: subject, Message: message, CreatedAt: createdAt,
	}
}

func sampleRequests() []models.Request {
	now := time.Now().UTC()
	return []models.Request{
		testRequest("Cat", "Third", "ccc", now),
		testRequest("Bob", "Second", "bbb", now.Add(-time.Minute)),
		testRequest("Ann", "First", "aaa", now.Add(-time.Minute*2)),
	}
}

// newLoadedBoard define a board whose initial refresh returns the given requests
func newLoadedBoard(
	t *testing.T, initial []models.Request,
) (board.RequestBoard, *mockstore.RecordStore) {
	mockStore := mockstore.NewRecordStore(t)
	mockStore.On("List", mock.Anything).Return(initial, nil).Once()

	uut, err := board.NewRequestBoard(context.Background(), mockStore, nil)
	assert.Nil(t, err)
	return uut, mockStore
}

func TestBoardInit(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	// Case 0: no record store
	{
		_, err := board.NewRequestBoard(utCtx, nil, nil)
		assert.Error(err)
	}

	// Case 1: initial load
	{
		initial := sampleRequests()
		uut, _ := newLoadedBoard(t, initial)
		view := uut.View()
		assert.Equal(initial, view.Requests)
		assert.Equal(3, view.Count())
		assert.False(view.Loading)
		assert.Nil(view.Edit)
	}

	// Case 2: initial load fails, board is still usable
	{
		mockStore := mockstore.NewRecordStore(t)
		mockStore.On("List", mock.Anything).Return(nil, errors.New("dummy error")).Once()
		uut, err := board.NewRequestBoard(utCtx, mockStore, nil)
		assert.Nil(err)
		assert.Empty(uut.View().Requests)

		initial := sampleRequests()
		mockStore.On("List", mock.Anything).Return(initial, nil).Once()
		assert.Nil(uut.Refresh(utCtx))
		assert.Equal(initial, uut.View().Requests)
	}
}

func TestBoardRefresh(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	initial := sampleRequests()
	uut, mockStore := newLoadedBoard(t, initial)

	// Case 0: refresh replaces the cache
	refreshed := sampleRequests()[:2]
	mockStore.On("List", mock.Anything).Return(refreshed, nil).Once()
	assert.Nil(uut.Refresh(utCtx))
	assert.Equal(refreshed, uut.View().Requests)

	// Case 1: failed refresh leaves the cache unchanged
	mockStore.On("List", mock.Anything).Return(nil, errors.New("dummy error")).Once()
	assert.Error(uut.Refresh(utCtx))
	assert.Equal(refreshed, uut.View().Requests)

	// Case 2: loading indicator while the call is in flight
	started := make(chan struct{})
	release := make(chan struct{})
	mockStore.On("List", mock.Anything).Run(func(args mock.Arguments) {
		close(started)
		<-release
	}).Return(initial, nil).Once()

	done := make(chan error, 1)
	go func() {
		done <- uut.Refresh(utCtx)
	}()
	<-started
	assert.True(uut.View().Loading)
	close(release)
	assert.Nil(<-done)
	assert.False(uut.View().Loading)
	assert.Equal(initial, uut.View().Requests)
}

func TestBoardSubmit(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	initial := sampleRequests()
	uut, mockStore := newLoadedBoard(t, initial)

	// Case 0: incomplete drafts never reach the record store
	for _, draft := range []models.Draft{
		{},
		{Name: "Ann", Subject: "Hi"},
		{Name: "Ann", Subject: "   ", Message: "Hello"},
		{Name: "\t\n", Subject: "Hi", Message: "Hello"},
	} {
		uut.SetDraft(draft)
		assert.Nil(uut.Submit(utCtx))
		view := uut.View()
		assert.Equal(initial, view.Requests)
		assert.Equal(draft, view.Draft)
	}

	// Case 1: create fails, draft is kept for retry
	draft := models.Draft{Name: "  Dan ", Subject: " Hey", Message: "Hello there  "}
	trimmed := models.NewRequest{Name: "Dan", Subject: "Hey", Message: "Hello there"}
	uut.SetDraft(draft)
	mockStore.On("Create", mock.Anything, trimmed).Return(nil, errors.New("dummy error")).Once()
	assert.Error(uut.Submit(utCtx))
	{
		view := uut.View()
		assert.Equal(initial, view.Requests)
		assert.Equal(draft, view.Draft)
	}

	// Case 2: create succeeds, the new request is appended and the draft cleared
	created := testRequest("Dan", "Hey", "Hello there", time.Now().UTC().Add(time.Hour))
	mockStore.On("Create", mock.Anything, trimmed).Return([]models.Request{created}, nil).Once()
	assert.Nil(uut.Submit(utCtx))
	{
		view := uut.View()
		assert.Len(view.Requests, len(initial)+1)
		assert.Equal(initial, view.Requests[:len(initial)])
		assert.Equal(created, view.Requests[len(initial)])
		assert.Equal(models.Draft{}, view.Draft)
	}
}

func TestBoardDelete(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	initial := sampleRequests()
	uut, mockStore := newLoadedBoard(t, initial)
	target := initial[1]

	// Case 0: delete fails, the cache is restored exactly
	started := make(chan struct{})
	release := make(chan struct{})
	mockStore.On("Delete", mock.Anything, target.ID).Run(func(args mock.Arguments) {
		close(started)
		<-release
	}).Return(errors.New("dummy error")).Once()

	done := make(chan error, 1)
	go func() {
		done <- uut.Delete(utCtx, target.ID)
	}()
	<-started
	// Removed before the record store answers
	{
		view := uut.View()
		assert.Len(view.Requests, 2)
		assert.Equal(initial[0], view.Requests[0])
		assert.Equal(initial[2], view.Requests[1])
	}
	close(release)
	assert.Error(<-done)
	assert.Equal(initial, uut.View().Requests)

	// Case 1: delete succeeds
	mockStore.On("Delete", mock.Anything, target.ID).Return(nil).Once()
	assert.Nil(uut.Delete(utCtx, target.ID))
	assert.Equal([]models.Request{initial[0], initial[2]}, uut.View().Requests)
}

func TestBoardEditCancel(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	initial := sampleRequests()
	uut, _ := newLoadedBoard(t, initial)

	// Case 0: unknown request
	assert.ErrorIs(uut.StartEdit(utCtx, uuid.NewString()), board.ErrUnknownRequest)
	assert.Nil(uut.View().Edit)

	// Case 1: no active session
	assert.ErrorIs(uut.SetEditFields(initial[0].ID, "a", "b"), board.ErrNoActiveEdit)
	assert.ErrorIs(uut.SaveEdit(utCtx), board.ErrNoActiveEdit)

	// Case 2: start edit seeds the working copies
	assert.Nil(uut.StartEdit(utCtx, initial[0].ID))
	{
		view := uut.View()
		assert.True(view.IsEditing(initial[0].ID))
		assert.Equal(initial[0].Subject, view.Edit.Subject)
		assert.Equal(initial[0].Message, view.Edit.Message)
	}

	// Case 3: working copies only change the session
	assert.Nil(uut.SetEditFields(initial[0].ID, "changed", "changed too"))
	assert.ErrorIs(uut.SetEditFields(initial[1].ID, "x", "y"), board.ErrEditTargetMismatch)
	{
		view := uut.View()
		assert.Equal("changed", view.Edit.Subject)
		assert.Equal(initial, view.Requests)
	}

	// Case 4: starting another edit discards the first
	assert.Nil(uut.StartEdit(utCtx, initial[1].ID))
	{
		view := uut.View()
		assert.False(view.IsEditing(initial[0].ID))
		assert.True(view.IsEditing(initial[1].ID))
		assert.Equal(initial[1].Subject, view.Edit.Subject)
	}

	// Case 5: cancelling another request's edit keeps the session
	assert.False(uut.CancelEditOf(initial[0].ID))
	assert.True(uut.View().IsEditing(initial[1].ID))

	// Case 6: cancel returns to viewing with the cache untouched
	assert.True(uut.CancelEditOf(initial[1].ID))
	{
		view := uut.View()
		assert.Nil(view.Edit)
		assert.Equal(initial, view.Requests)
	}
	assert.False(uut.CancelEditOf(initial[1].ID))

	// Case 7: unconditional cancel
	assert.Nil(uut.StartEdit(utCtx, initial[2].ID))
	uut.CancelEdit()
	{
		view := uut.View()
		assert.Nil(view.Edit)
		assert.Equal(initial, view.Requests)
	}
}

func TestBoardSaveEdit(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	initial := sampleRequests()
	uut, mockStore := newLoadedBoard(t, initial)
	target := initial[2]

	subject := "S"
	message := "M"
	expectedPatch := models.RequestPatch{Subject: &subject, Message: &message}

	assert.Nil(uut.StartEdit(utCtx, target.ID))
	assert.Nil(uut.SetEditFields(target.ID, "  S ", "M\n"))

	// Case 0: save fails, cache reverts and the session stays
	started := make(chan struct{})
	release := make(chan struct{})
	mockStore.On("Update", mock.Anything, target.ID, expectedPatch).Run(func(args mock.Arguments) {
		close(started)
		<-release
	}).Return(errors.New("dummy error")).Once()

	done := make(chan error, 1)
	go func() {
		done <- uut.SaveEdit(utCtx)
	}()
	<-started
	// Merged before the record store answers
	{
		view := uut.View()
		assert.Equal("S", view.Requests[2].Subject)
		assert.Equal("M", view.Requests[2].Message)
		assert.Equal(target.Name, view.Requests[2].Name)
	}
	close(release)
	assert.Error(<-done)
	{
		view := uut.View()
		assert.Equal(initial, view.Requests)
		assert.True(view.IsEditing(target.ID))
		assert.Equal("  S ", view.Edit.Subject)
		assert.Equal("M\n", view.Edit.Message)
	}

	// Case 1: retry succeeds
	mockStore.On("Update", mock.Anything, target.ID, expectedPatch).Return(nil).Once()
	assert.Nil(uut.SaveEdit(utCtx))
	{
		view := uut.View()
		assert.Nil(view.Edit)
		assert.Len(view.Requests, 3)
		assert.Equal(target.ID, view.Requests[2].ID)
		assert.Equal("S", view.Requests[2].Subject)
		assert.Equal("M", view.Requests[2].Message)
		assert.Equal(initial[0], view.Requests[0])
		assert.Equal(initial[1], view.Requests[1])
	}
}

func TestBoardEndToEnd(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	uut, mockStore := newLoadedBoard(t, []models.Request{})
	assert.Empty(uut.View().Requests)

	// Create
	created := testRequest("Ann", "Hi", "Hello", time.Now().UTC())
	mockStore.On(
		"Create", mock.Anything, models.NewRequest{Name: "Ann", Subject: "Hi", Message: "Hello"},
	).Return([]models.Request{created}, nil).Once()
	uut.SetDraft(models.Draft{Name: "Ann", Subject: "Hi", Message: "Hello"})
	assert.Nil(uut.Submit(utCtx))
	{
		view := uut.View()
		assert.Len(view.Requests, 1)
		assert.Equal(created, view.Requests[0])
	}

	// Edit the subject
	assert.Nil(uut.StartEdit(utCtx, created.ID))
	assert.Nil(uut.SetEditFields(created.ID, "Updated", "Hello"))
	subject := "Updated"
	message := "Hello"
	mockStore.On(
		"Update", mock.Anything, created.ID, models.RequestPatch{Subject: &subject, Message: &message},
	).Return(nil).Once()
	assert.Nil(uut.SaveEdit(utCtx))
	{
		view := uut.View()
		assert.Len(view.Requests, 1)
		assert.Equal("Updated", view.Requests[0].Subject)
		assert.Nil(view.Edit)
	}

	// Delete
	mockStore.On("Delete", mock.Anything, created.ID).Return(nil).Once()
	assert.Nil(uut.Delete(utCtx, created.ID))
	assert.Empty(uut.View().Requests)
}

func TestBoardRefreshDuringFailedCreate(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	initial := sampleRequests()
	uut, mockStore := newLoadedBoard(t, initial)

	draft := models.Draft{Name: "Dan", Subject: "Hey", Message: "Hello"}
	started := make(chan struct{})
	release := make(chan struct{})
	mockStore.On("Create", mock.Anything, draft.ToNewRequest()).Run(func(args mock.Arguments) {
		close(started)
		<-release
	}).Return(nil, errors.New("dummy error")).Once()

	uut.SetDraft(draft)
	done := make(chan error, 1)
	go func() {
		done <- uut.Submit(utCtx)
	}()
	<-started

	// Refresh completes while the create is still in flight
	refreshed := initial[:2]
	mockStore.On("List", mock.Anything).Return(refreshed, nil).Once()
	assert.Nil(uut.Refresh(utCtx))

	close(release)
	assert.Error(<-done)

	view := uut.View()
	assert.Equal(refreshed, view.Requests)
	for _, entry := range view.Requests {
		assert.NotEqual("Dan", entry.Name)
	}
	assert.Equal(draft, view.Draft)
}
