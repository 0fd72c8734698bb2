package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"tomotachi/backend/internal/events"
)

const keepAliveInterval = 25 * time.Second

// UpdateInput is a message posted by sender. Email addresses in Text are mentions.
type UpdateInput struct {
	Sender string `json:"sender" binding:"required,email" example:"john@example.com"`
	Text   string `json:"text" example:"Hello World! kate@example.com"`
}

// RecipientsResponse lists who receives an update.
type RecipientsResponse struct {
	Success    bool     `json:"success" example:"true"`
	Recipients []string `json:"recipients" example:"kate@example.com,lisa@example.com"`
}

// StreamQuery selects whose updates to stream.
type StreamQuery struct {
	Email string `form:"email" binding:"required,email"`
}

// GetUpdateRecipients godoc
// @Summary      Resolve update recipients
// @Description  Returns subscribers, friends and registered mentionees of sender, minus the identities that blocked sender.
// @Tags         updates
// @Accept       json
// @Produce      json
// @Param        input body UpdateInput true "Sender and text"
// @Success      200  {object}  RecipientsResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /getUpdateRecipients [post]
func (h *Handler) GetUpdateRecipients(c *gin.Context) {
	var input UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	recipients, err := h.social.ResolveRecipients(c.Request.Context(), input.Sender, input.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, RecipientsResponse{Success: true, Recipients: recipients})
}

// PostUpdate godoc
// @Summary      Post an update
// @Description  Resolves the recipients of the update and delivers it to their open streams and the event bus.
// @Tags         updates
// @Accept       json
// @Produce      json
// @Param        input body UpdateInput true "Sender and text"
// @Success      200  {object}  RecipientsResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /updates [post]
func (h *Handler) PostUpdate(c *gin.Context) {
	var input UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	recipients, err := h.social.ResolveRecipients(c.Request.Context(), input.Sender, input.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	h.publish(c, events.Update(input.Sender, input.Text, recipients))
	c.JSON(http.StatusOK, RecipientsResponse{Success: true, Recipients: recipients})
}

// StreamUpdates godoc
// @Summary      Stream events
// @Description  Server-sent events addressed to email: updates it receives and relationship changes that concern it.
// @Tags         updates
// @Produce      text/event-stream
// @Param        email query string true "Identity to stream for"
// @Success      200  {string}  string "event stream"
// @Failure      400  {object}  ErrorResponse
// @Router       /updates/stream [get]
func (h *Handler) StreamUpdates(c *gin.Context) {
	var query StreamQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondBindError(c, err)
		return
	}

	client := h.hub.Subscribe(query.Email)
	defer h.hub.Unsubscribe(query.Email, client)

	c.Header("Content-Type", sse.ContentType)
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	// Send headers now so clients see the stream open before the first event.
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-client:
			if !ok {
				return false
			}
			c.SSEvent("message", string(msg))
			return true
		case <-keepAlive.C:
			c.SSEvent("ping", "")
			return true
		case <-ctx.Done():
			return false
		}
	})
}
