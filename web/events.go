package web

import (
	"net/http"

	"github.com/alwitt/goutils"
	"github.com/alwitt/requestboard/models"
	"github.com/alwitt/requestboard/store"
	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// eventListResponse response of the request events listing
type eventListResponse struct {
	goutils.RestAPIBaseResponse
	// Events the request events, oldest first
	Events []models.RequestEventAudit `json:"events"`
}

// eventHandlers read access to the request audit trail
type eventHandlers struct {
	goutils.RestAPIHandler
	events    store.EventLog
	validator *validator.Validate
}

func newEventHandlers(component goutils.Component, events store.EventLog) (eventHandlers, error) {
	validate := validator.New()
	if err := models.RegisterWithValidator(validate); err != nil {
		return eventHandlers{}, err
	}
	return eventHandlers{
		RestAPIHandler: goutils.RestAPIHandler{Component: component},
		events:         events,
		validator:      validate,
	}, nil
}

// listEvents GET /api/requests/:id/events, optionally filtered with repeated `type` query values
func (h eventHandlers) listEvents(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := c.Param("id")

	eventTypes := []models.RequestEventTypeENUMType{}
	for _, eventType := range c.QueryArray("type") {
		if err := h.validator.Var(eventType, "request_event_type"); err != nil {
			c.JSON(
				http.StatusBadRequest,
				h.GetStdRESTErrorMsg(ctx, http.StatusBadRequest, "unknown event type", eventType),
			)
			return
		}
		eventTypes = append(eventTypes, models.RequestEventTypeENUMType(eventType))
	}

	entries, err := h.events.ListEvents(ctx, requestID, eventTypes)
	if err != nil {
		log.WithError(err).WithFields(h.GetLogTagsForContext(ctx)).
			WithField("request", requestID).
			Error("Failed to list request events")
		c.JSON(
			http.StatusInternalServerError,
			h.GetStdRESTErrorMsg(
				ctx, http.StatusInternalServerError, "failed to list request events", err.Error(),
			),
		)
		return
	}

	c.JSON(http.StatusOK, eventListResponse{
		RestAPIBaseResponse: h.GetStdRESTSuccessMsg(ctx),
		Events:              entries,
	})
}
