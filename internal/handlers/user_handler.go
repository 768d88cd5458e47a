package handlers

import (
	"net/http"

	"github.com/assetstore/backend/internal/apperror"
	"github.com/assetstore/backend/internal/middleware"
	"github.com/assetstore/backend/internal/pkg/logger"
	"github.com/assetstore/backend/internal/services"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *services.UserService
	log         *logger.Logger
}

func NewUserHandler(userService *services.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{userService: userService, log: log.With("handler", "UserHandler")}
}

// CreateUser registers the caller
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req services.UserInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, h.log, bindError(err))
		return
	}
	user, err := h.userService.CreateUser(c.Request.Context(), middleware.Subject(c), req)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// GetMe retrieves the caller's profile
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.userService.GetUserBySub(c.Request.Context(), middleware.Subject(c))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetUser retrieves a profile by UUID
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := uuidParam(c, "uuid")
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	user, err := h.userService.GetUserByUUID(c.Request.Context(), id)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateMe updates the caller's profile
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req services.UserInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, h.log, bindError(err))
		return
	}
	me, err := h.userService.GetUserBySub(c.Request.Context(), middleware.Subject(c))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	user, err := h.userService.UpdateUser(c.Request.Context(), me.UUID, req)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteMe deletes the caller and their assets
func (h *UserHandler) DeleteMe(c *gin.Context) {
	me, err := h.userService.GetUserBySub(c.Request.Context(), middleware.Subject(c))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	affected, err := h.userService.DeleteUser(c.Request.Context(), me.UUID)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"affected": affected})
}

// SetAvatar uploads the caller's avatar
func (h *UserHandler) SetAvatar(c *gin.Context) {
	avatar, err := formUpload(c, "avatar")
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	me, err := h.userService.GetUserBySub(c.Request.Context(), middleware.Subject(c))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	user, err := h.userService.SetAvatar(c.Request.Context(), me.UUID, avatar)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetMyRoles lists the caller's identity-provider roles
func (h *UserHandler) GetMyRoles(c *gin.Context) {
	roles, err := h.userService.UserRoles(c.Request.Context(), middleware.Subject(c))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, roles)
}

// BlockUser blocks a user at the identity provider (admin only)
func (h *UserHandler) BlockUser(c *gin.Context) {
	id, err := uuidParam(c, "uuid")
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	admin, err := h.userService.HasRole(c.Request.Context(), middleware.Subject(c), services.AdminRole)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	if !admin {
		RespondError(c, h.log, apperror.Forbidden("only administrators can block users"))
		return
	}
	if err := h.userService.BlockUser(c.Request.Context(), id); err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User blocked"})
}
