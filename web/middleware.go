package web

import (
	"net/http"

	"github.com/alwitt/requestboard/board"
	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
)

const (
	headerRequestID   = "X-Request-ID"
	sessionCookieName = "requestboard_session"
	boardContextKey   = "board"
)

// sessionMiddleware attach the browser session's board to the gin context
func sessionMiddleware(sessions *SessionBoards) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(sessionCookieName)
		if err == nil {
			if _, err = ulid.ParseStrict(sessionID); err != nil {
				sessionID = ""
			}
		}
		if sessionID == "" {
			sessionID = ulid.Make().String()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sessionCookieName, sessionID, 0, "/", "", false, true)
		}

		sessionBoard, err := sessions.Get(c.Request.Context(), sessionID)
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Set(boardContextKey, sessionBoard)
		c.Next()
	}
}

// sessionBoard fetch the board attached by sessionMiddleware
func sessionBoard(c *gin.Context) board.RequestBoard {
	return c.MustGet(boardContextKey).(board.RequestBoard)
}
