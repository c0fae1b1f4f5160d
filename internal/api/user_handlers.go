package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"personnel/internal/models"
	"personnel/internal/store"
)

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (s *Server) handleChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.NewPassword == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		return
	}
	username := sessionUsername(c)
	if err := s.Store.Authenticate(c.Request.Context(), username, req.OldPassword); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
		return
	}
	if err := s.Store.ChangePassword(c.Request.Context(), username, req.NewPassword); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.appendLog(c, username, "change_password", "")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListUsers(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	users, err := s.Store.ListUsers(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

type createUserRequest struct {
	Username    string             `json:"username"`
	Password    string             `json:"password"`
	Permissions models.Permissions `json:"permissions"`
}

func (s *Server) handleCreateUser(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		return
	}
	ctx := c.Request.Context()
	if err := s.Store.AddUser(ctx, req.Username, req.Password); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "user_exists"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := s.Store.SetPermissions(ctx, req.Username, req.Permissions); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.appendLog(c, sessionUsername(c), "add_user", req.Username)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleDeleteUser(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	username := c.Param("name")
	if err := s.Store.DeleteUser(c.Request.Context(), username); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.appendLog(c, sessionUsername(c), "delete_user", username)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleGetPermissions(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	perms, err := s.Store.Permissions(c.Request.Context(), c.Param("name"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"permissions": perms})
}

func (s *Server) handleSetPermissions(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	var perms models.Permissions
	if err := c.ShouldBindJSON(&perms); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		return
	}
	username := c.Param("name")
	if store.IsAdmin(username) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "admin_permissions_fixed"})
		return
	}
	if err := s.Store.SetPermissions(c.Request.Context(), username, perms); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.appendLog(c, sessionUsername(c), "set_permissions", username)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
