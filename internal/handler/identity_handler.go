package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterInput names the identity to create.
type RegisterInput struct {
	Email string `json:"email" binding:"required,email" example:"andy@example.com"`
}

// RegisterResponse reports whether the identity was new.
type RegisterResponse struct {
	Success bool `json:"success" example:"true"`
	Created bool `json:"created" example:"true"`
}

// RegisterIdentity godoc
// @Summary      Register an identity
// @Description  Creates the identity when it does not exist yet. Subscribing and blocking require both sides to be registered.
// @Tags         identities
// @Accept       json
// @Produce      json
// @Param        input body RegisterInput true "Identity"
// @Success      201  {object}  RegisterResponse "Created"
// @Success      200  {object}  RegisterResponse "Already registered"
// @Failure      400  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /identities [post]
func (h *Handler) RegisterIdentity(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	created, err := h.social.Register(c.Request.Context(), input.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, RegisterResponse{Success: true, Created: created})
}
