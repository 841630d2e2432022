package store_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alwitt/requestboard/models"
	"github.com/alwitt/requestboard/store"
	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// fakePostgREST in-memory stand-in for a hosted PostgREST table
type fakePostgREST struct {
	t      *testing.T
	apiKey string
	lock   sync.Mutex
	rows   []models.Request
	// failNext number of upcoming calls to fail with a 500
	failNext int
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.lock.Lock()
	defer f.lock.Unlock()

	assert.Equal(f.t, "/rest/v1/requests", r.URL.Path)
	if r.Header.Get("apikey") != f.apiKey || r.Header.Get("Authorization") != "Bearer "+f.apiKey {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid API key"}`))
		return
	}

	if f.failNext > 0 {
		f.failNext--
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"boom"}`))
		return
	}

	targetID := strings.TrimPrefix(r.URL.Query().Get("id"), "eq.")

	switch r.Method {
	case http.MethodGet:
		assert.Equal(f.t, "*", r.URL.Query().Get("select"))
		assert.Equal(f.t, "created_at.desc", r.URL.Query().Get("order"))
		// rows are kept newest first
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(f.rows)

	case http.MethodPost:
		assert.Equal(f.t, "return=representation", r.Header.Get("Prefer"))
		var params []models.NewRequest
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		inserted := []models.Request{}
		for _, p := range params {
			entry := models.Request{
				ID:        uuid.NewString(),
				Name:      p.Name,
				Subject:   p.Subject,
				Message:   p.Message,
				CreatedAt: time.Now().UTC(),
			}
			inserted = append(inserted, entry)
			f.rows = append([]models.Request{entry}, f.rows...)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(inserted)

	case http.MethodPatch:
		var patch models.RequestPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for idx, row := range f.rows {
			if row.ID == targetID {
				f.rows[idx] = patch.Apply(row)
			}
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		kept := []models.Request{}
		for _, row := range f.rows {
			if row.ID != targetID {
				kept = append(kept, row)
			}
		}
		f.rows = kept
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestRESTRecordStoreInit(t *testing.T) {
	assert := assert.New(t)

	// Case 0: missing parameters
	{
		_, err := store.NewRESTRecordStore(store.RESTStoreParams{})
		assert.Error(err)
	}

	// Case 1: bad URL
	{
		_, err := store.NewRESTRecordStore(store.RESTStoreParams{
			BaseURL: "not a url", APIKey: "key", Table: "requests",
		})
		assert.Error(err)
	}

	// Case 2: valid
	{
		_, err := store.NewRESTRecordStore(store.RESTStoreParams{
			BaseURL: "https://example.supabase.co", APIKey: "key", Table: "requests",
		})
		assert.Nil(err)
	}
}

func TestRESTRecordStoreCRUD(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	backend := &fakePostgREST{t: t, apiKey: uuid.NewString()}
	server := httptest.NewServer(backend)
	defer server.Close()

	uut, err := store.NewRESTRecordStore(store.RESTStoreParams{
		BaseURL: server.URL + "/",
		APIKey:  backend.apiKey,
		Table:   "requests",
		Timeout: time.Second * 5,
	})
	assert.Nil(err)

	// Case 0: empty table
	{
		entries, err := uut.List(utCtx)
		assert.Nil(err)
		assert.Empty(entries)
	}

	// Case 1: create
	created, err := uut.Create(utCtx, models.NewRequest{Name: "Ann", Subject: "Hi", Message: "Hello"})
	assert.Nil(err)
	assert.Len(created, 1)
	assert.NotEmpty(created[0].ID)
	assert.Equal("Ann", created[0].Name)
	assert.Equal("Hi", created[0].Subject)
	assert.Equal("Hello", created[0].Message)
	assert.False(created[0].CreatedAt.IsZero())

	// Case 2: list
	{
		entries, err := uut.List(utCtx)
		assert.Nil(err)
		assert.Len(entries, 1)
		assert.Equal(created[0].ID, entries[0].ID)
	}

	// Case 3: update only the subject
	{
		subject := "Updated"
		assert.Nil(uut.Update(utCtx, created[0].ID, models.RequestPatch{Subject: &subject}))
		entries, err := uut.List(utCtx)
		assert.Nil(err)
		assert.Equal("Updated", entries[0].Subject)
		assert.Equal("Hello", entries[0].Message)
	}

	// Case 4: server failures surface as errors
	{
		backend.lock.Lock()
		backend.failNext = 4
		backend.lock.Unlock()
		_, err := uut.List(utCtx)
		assert.Error(err)
		_, err = uut.Create(utCtx, models.NewRequest{Name: "Bob", Subject: "Yo", Message: "Howdy"})
		assert.Error(err)
		subject := "Again"
		assert.Error(uut.Update(utCtx, created[0].ID, models.RequestPatch{Subject: &subject}))
		assert.Error(uut.Delete(utCtx, created[0].ID))
	}

	// Case 5: delete
	{
		assert.Nil(uut.Delete(utCtx, created[0].ID))
		entries, err := uut.List(utCtx)
		assert.Nil(err)
		assert.Empty(entries)
	}

	// Case 6: wrong API key
	{
		badKey, err := store.NewRESTRecordStore(store.RESTStoreParams{
			BaseURL: server.URL, APIKey: "wrong", Table: "requests",
		})
		assert.Nil(err)
		_, err = badKey.List(utCtx)
		assert.Error(err)
	}
}

func TestRESTRecordStoreIntegerIDs(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtx := context.Background()

	// Hosted table keyed by an int8 identity column
	var queryLock sync.Mutex
	var lastQuery string
	readLastQuery := func() string {
		queryLock.Lock()
		defer queryLock.Unlock()
		return lastQuery
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queryLock.Lock()
		lastQuery = r.URL.Query().Get("id")
		queryLock.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`[
				{"id":8,"name":"Bob","subject":"Yo","message":"Howdy","created_at":"2024-05-01T10:05:00.5+00:00"},
				{"id":7,"name":"Ann","subject":"Hi","message":"Hello","created_at":"2024-05-01T10:00:00+00:00"}
			]`))
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(
				`[{"id":9,"name":"Cat","subject":"Hey","message":"Hullo","created_at":"2024-05-01T10:10:00+00:00"}]`,
			))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer server.Close()

	uut, err := store.NewRESTRecordStore(store.RESTStoreParams{
		BaseURL: server.URL, APIKey: "key", Table: "requests",
	})
	assert.Nil(err)

	entries, err := uut.List(utCtx)
	assert.Nil(err)
	assert.Len(entries, 2)
	assert.Equal("8", entries[0].ID)
	assert.Equal("7", entries[1].ID)
	assert.Equal("Ann", entries[1].Name)

	created, err := uut.Create(utCtx, models.NewRequest{Name: "Cat", Subject: "Hey", Message: "Hullo"})
	assert.Nil(err)
	assert.Len(created, 1)
	assert.Equal("9", created[0].ID)

	subject := "Updated"
	assert.Nil(uut.Update(utCtx, "7", models.RequestPatch{Subject: &subject}))
	assert.Equal("eq.7", readLastQuery())

	assert.Nil(uut.Delete(utCtx, "8"))
	assert.Equal("eq.8", readLastQuery())
}
