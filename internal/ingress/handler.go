package ingress

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"aegis/internal/broker"
	"aegis/internal/logger"
	"aegis/pkg/errors"
	"aegis/pkg/metrics"
)

type Handler struct {
	producer broker.Producer
	topic    string
	logger   logger.Logger
}

func NewHandler(producer broker.Producer, topic string, log logger.Logger) *Handler {
	return &Handler{
		producer: producer,
		topic:    topic,
		logger:   log,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.POST("/upload_data", h.UploadData)
}

// UploadData godoc
// @Summary      Publish a batch of signal events
// @Description  Validates a list of signal events and publishes each one to the ingestion topic
// @Tags         ingress
// @Accept       json
// @Produce      json
// @Param        events  body      []EventRequest  true  "Signal events"
// @Success      200     {object}  PublishResponse
// @Failure      400     {object}  map[string]interface{}
// @Failure      500     {object}  map[string]interface{}
// @Router       /upload_data [post]
func (h *Handler) UploadData(c *gin.Context) {
	var events []EventRequest
	if err := c.ShouldBindJSON(&events); err != nil {
		metrics.IngressEventsTotal.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	if len(events) == 0 {
		metrics.IngressEventsTotal.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithDetail("reason", "empty event batch")))
		return
	}

	ctx := c.Request.Context()
	published := 0
	for _, event := range events {
		body, err := json.Marshal(event)
		if err != nil {
			h.logger.ErrorwCtx(ctx, "Failed to marshal event", "error", err, "user_id", event.UserID)
			metrics.IngressEventsTotal.WithLabelValues("failed").Inc()
			c.JSON(http.StatusInternalServerError, errors.ToErrorResponse(errors.ErrInternal.WithCause(err)))
			return
		}

		msg := broker.Message{
			Key:   []byte(event.UserID),
			Value: body,
		}
		if err := h.producer.Publish(ctx, h.topic, msg); err != nil {
			h.logger.ErrorwCtx(ctx, "Failed to publish event",
				"error", err,
				"user_id", event.UserID,
				"topic", h.topic,
				"published_so_far", published,
			)
			metrics.IngressEventsTotal.WithLabelValues("failed").Inc()
			c.JSON(http.StatusInternalServerError, errors.ToErrorResponse(errors.ErrServiceUnavailable.WithCause(err)))
			return
		}
		published++
		metrics.IngressEventsTotal.WithLabelValues("accepted").Inc()
	}

	c.JSON(http.StatusOK, PublishResponse{
		Status:            "success",
		MessagesPublished: published,
	})
}
