package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tomotachi/backend/internal/events"
	"tomotachi/backend/internal/hub"
	"tomotachi/backend/internal/middleware"
)

// SocialService is the relationship engine as seen by the HTTP layer.
type SocialService interface {
	Register(ctx context.Context, email string) (bool, error)
	Connect(ctx context.Context, a, b string) (bool, error)
	Friends(ctx context.Context, email string) ([]string, error)
	CommonFriends(ctx context.Context, a, b string) ([]string, error)
	Subscribe(ctx context.Context, requestor, target string) (bool, error)
	Block(ctx context.Context, requestor, target string) (bool, error)
	ResolveRecipients(ctx context.Context, sender, text string) ([]string, error)
}

// Handler serves the /api/v1 routes.
type Handler struct {
	social    SocialService
	hub       *hub.Hub
	publisher events.Publisher
	logger    *zap.Logger
}

// New builds a Handler. Events go to publisher, which usually includes the hub;
// when publisher is nil they go to the hub only.
func New(social SocialService, h *hub.Hub, publisher events.Publisher, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = h
	}
	return &Handler{social: social, hub: h, publisher: publisher, logger: logger}
}

// RegisterRoutes mounts every endpoint on r.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/identities", h.RegisterIdentity)

	// Relationship routes
	r.POST("/connect", h.Connect)
	r.POST("/getFriendList", h.GetFriendList)
	r.POST("/getCommonFriendList", h.GetCommonFriendList)
	r.POST("/subscribe", h.Subscribe)
	r.POST("/block", h.Block)

	// Update routes
	r.POST("/getUpdateRecipients", h.GetUpdateRecipients)
	r.POST("/updates", h.PostUpdate)
	r.GET("/updates/stream", h.StreamUpdates)
}

// publish hands ev to the publisher. Failures are logged and never reach the client.
func (h *Handler) publish(c *gin.Context, ev events.Event) {
	ctx := context.WithoutCancel(c.Request.Context())
	if err := h.publisher.Publish(ctx, ev); err != nil {
		h.logger.Warn("event publish failed",
			zap.String("type", string(ev.Type)),
			zap.String("trace_id", middleware.GetTraceID(c)),
			zap.Error(err),
		)
	}
}
