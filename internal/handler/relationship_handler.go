package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tomotachi/backend/internal/events"
)

// region --- DTOs ---

// FriendsInput carries exactly two identities.
type FriendsInput struct {
	Friends []string `json:"friends" binding:"required,len=2,dive,required,email" example:"andy@example.com,john@example.com"`
}

// EmailInput names a single identity.
type EmailInput struct {
	Email string `json:"email" binding:"required,email" example:"andy@example.com"`
}

// EdgeInput is a directed request from requestor to target.
type EdgeInput struct {
	Requestor string `json:"requestor" binding:"required,email" example:"lisa@example.com"`
	Target    string `json:"target" binding:"required,email" example:"john@example.com"`
}

// ChangeResponse is returned by mutations. Changed is false when the edge already existed.
type ChangeResponse struct {
	Success bool `json:"success" example:"true"`
	Changed bool `json:"changed" example:"true"`
}

// FriendListResponse is a sorted list of identities.
type FriendListResponse struct {
	Success bool     `json:"success" example:"true"`
	Friends []string `json:"friends" example:"john@example.com"`
	Count   int      `json:"count" example:"1"`
}

// endregion

// Connect godoc
// @Summary      Connect two friends
// @Description  Makes both identities mutual friends, creating them if needed. Rejected when either side blocks the other.
// @Tags         friends
// @Accept       json
// @Produce      json
// @Param        input body FriendsInput true "The two identities"
// @Success      200  {object}  ChangeResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Blocked relationship"
// @Failure      503  {object}  ErrorResponse
// @Router       /connect [post]
func (h *Handler) Connect(c *gin.Context) {
	var input FriendsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	a, b := input.Friends[0], input.Friends[1]
	changed, err := h.social.Connect(c.Request.Context(), a, b)
	if err != nil {
		respondError(c, err)
		return
	}
	if changed {
		h.publish(c, events.Connected(a, b))
	}
	c.JSON(http.StatusOK, ChangeResponse{Success: true, Changed: changed})
}

// GetFriendList godoc
// @Summary      List friends
// @Tags         friends
// @Accept       json
// @Produce      json
// @Param        input body EmailInput true "Identity"
// @Success      200  {object}  FriendListResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /getFriendList [post]
func (h *Handler) GetFriendList(c *gin.Context) {
	var input EmailInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	friends, err := h.social.Friends(c.Request.Context(), input.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, FriendListResponse{Success: true, Friends: friends, Count: len(friends)})
}

// GetCommonFriendList godoc
// @Summary      List common friends
// @Description  Returns the friends shared by two distinct identities.
// @Tags         friends
// @Accept       json
// @Produce      json
// @Param        input body FriendsInput true "The two identities"
// @Success      200  {object}  FriendListResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /getCommonFriendList [post]
func (h *Handler) GetCommonFriendList(c *gin.Context) {
	var input FriendsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	common, err := h.social.CommonFriends(c.Request.Context(), input.Friends[0], input.Friends[1])
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, FriendListResponse{Success: true, Friends: common, Count: len(common)})
}

// Subscribe godoc
// @Summary      Subscribe to updates
// @Description  Adds requestor to target's subscribers. Both identities must be registered.
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        input body EdgeInput true "Requestor and target"
// @Success      200  {object}  ChangeResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /subscribe [post]
func (h *Handler) Subscribe(c *gin.Context) {
	var input EdgeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	changed, err := h.social.Subscribe(c.Request.Context(), input.Requestor, input.Target)
	if err != nil {
		respondError(c, err)
		return
	}
	if changed {
		h.publish(c, events.Subscribed(input.Requestor, input.Target))
	}
	c.JSON(http.StatusOK, ChangeResponse{Success: true, Changed: changed})
}

// Block godoc
// @Summary      Block an identity
// @Description  Adds requestor to target's blockers. Target's updates no longer reach requestor and the two cannot become friends. An existing friendship is kept.
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        input body EdgeInput true "Requestor and target"
// @Success      200  {object}  ChangeResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /block [post]
func (h *Handler) Block(c *gin.Context) {
	var input EdgeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	changed, err := h.social.Block(c.Request.Context(), input.Requestor, input.Target)
	if err != nil {
		respondError(c, err)
		return
	}
	if changed {
		h.publish(c, events.Blocked(input.Requestor, input.Target))
	}
	c.JSON(http.StatusOK, ChangeResponse{Success: true, Changed: changed})
}
