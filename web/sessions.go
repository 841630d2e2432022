package web

import (
	"context"
	"fmt"

	"github.com/alwitt/goutils"
	"github.com/alwitt/requestboard/board"
	"github.com/apex/log"
	lru "github.com/hashicorp/golang-lru/v2"
)

// BoardFactory define the board of a new browser session
type BoardFactory func(ctx context.Context) (board.RequestBoard, error)

// SessionBoards request boards of the active browser sessions. The least recently used
// board is dropped once the limit is reached.
type SessionBoards struct {
	goutils.Component
	boards  *lru.Cache[string, board.RequestBoard]
	factory BoardFactory
}

/*
NewSessionBoards define a new session board registry

	@param maxSessions int - number of boards to keep
	@param factory BoardFactory - board constructor
	@returns new registry
*/
func NewSessionBoards(maxSessions int, factory BoardFactory) (*SessionBoards, error) {
	if factory == nil {
		return nil, fmt.Errorf("board factory is required")
	}

	logTags := log.Fields{"module": "web", "component": "session-boards"}

	boards, err := lru.NewWithEvict(maxSessions, func(sessionID string, _ board.RequestBoard) {
		log.WithFields(logTags).WithField("session", sessionID).Debug("Dropped session board")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to define session board cache [%w]", err)
	}

	return &SessionBoards{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		boards:  boards,
		factory: factory,
	}, nil
}

/*
Get fetch the board of a session, defining one if the session has none

	@param ctx context.Context - execution context
	@param sessionID string - browser session ID
	@returns the session's board
*/
func (s *SessionBoards) Get(ctx context.Context, sessionID string) (board.RequestBoard, error) {
	if existing, ok := s.boards.Get(sessionID); ok {
		return existing, nil
	}

	instance, err := s.factory(ctx)
	if err != nil {
		log.WithError(err).WithFields(s.GetLogTagsForContext(ctx)).Error("Failed to define board")
		return nil, fmt.Errorf("failed to define board for session %s [%w]", sessionID, err)
	}

	// Another request of the same session may have won the race
	previous, ok, _ := s.boards.PeekOrAdd(sessionID, instance)
	if ok {
		return previous, nil
	}

	log.WithFields(s.GetLogTagsForContext(ctx)).WithField("session", sessionID).Debug("New session board")
	return instance, nil
}

// Len number of active session boards
func (s *SessionBoards) Len() int {
	return s.boards.Len()
}
