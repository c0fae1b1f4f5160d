package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"personnel/internal/assistant"
	"personnel/internal/auth"
	"personnel/internal/excel"
	"personnel/internal/middleware"
	"personnel/internal/models"
	"personnel/internal/store"
)

// Server wires handlers to the personnel store, importer and session manager.
type Server struct {
	Store     *store.PersonnelStore
	Importer  *excel.Importer
	Sessions  *auth.Manager
	Assistant *assistant.Client
}

// Config carries the dependencies for the HTTP surface.
type Config struct {
	Store     *store.PersonnelStore
	Sessions  *auth.Manager
	Assistant *assistant.Client
}

// NewRouter configures HTTP routes for the application.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), gin.Logger(), middleware.CORS())

	server := &Server{
		Store:     cfg.Store,
		Importer:  excel.NewImporter(cfg.Store),
		Sessions:  cfg.Sessions,
		Assistant: cfg.Assistant,
	}
	server.RegisterRoutes(r)
	return r
}

// RegisterRoutes attaches handlers to the gin engine.
func (s *Server) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", s.handleHealth)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", s.handleLogin)
		authGroup.POST("/logout", s.handleLogout)
	}

	secured := router.Group("/api/v1")
	secured.Use(middleware.RequireSession(s.Sessions))
	{
		secured.POST("/password", s.handleChangePassword)

		secured.GET("/users", s.handleListUsers)
		secured.POST("/users", s.handleCreateUser)
		secured.DELETE("/users/:name", s.handleDeleteUser)
		secured.GET("/users/:name/permissions", s.handleGetPermissions)
		secured.PUT("/users/:name/permissions", s.handleSetPermissions)

		secured.GET("/records/:type", s.handleListRecords)
		secured.POST("/records/:type/import", s.handleImport)
		secured.POST("/records/:type/export", s.handleExport)
		secured.POST("/search", s.handleSearch)

		secured.GET("/config/assessment-years", s.handleAssessmentYears)
		secured.POST("/maintenance/clear", s.handleClearDatabase)

		secured.GET("/logs", s.handleListLogs)
		secured.DELETE("/logs", s.handleClearLogs)

		secured.GET("/assistant/models", s.handleAssistantModels)
		secured.POST("/assistant/chat", s.handleAssistantChat)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		return
	}
	username := models.NormaliseUsername(req.Username)
	if err := s.Store.Authenticate(c.Request.Context(), username, req.Password); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
		return
	}
	perms, err := s.Store.Permissions(c.Request.Context(), username)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	session := s.Sessions.Issue(username)
	s.appendLog(c, username, "login", "")
	c.JSON(http.StatusOK, gin.H{
		"token":       session.Token,
		"username":    username,
		"is_admin":    store.IsAdmin(username),
		"permissions": perms,
		"expires_at":  session.ExpiresAt,
	})
}

func (s *Server) handleLogout(c *gin.Context) {
	token := c.GetHeader("Authorization")
	if len(token) > 7 && token[:7] == "Bearer " {
		token = token[7:]
	}
	if token != "" {
		s.Sessions.Revoke(token)
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// appendLog records an operation line; logging failures never fail the
// operation itself.
func (s *Server) appendLog(c *gin.Context, actor, action, details string) {
	if err := s.Store.AppendLog(c.Request.Context(), actor, action, details); err != nil {
		log.Printf("api: oplog append failed: %v", err)
	}
}

// sessionUsername returns the authenticated username, empty when absent.
func sessionUsername(c *gin.Context) string {
	if session := middleware.SessionFrom(c); session != nil {
		return session.Username
	}
	return ""
}

// requireAdmin aborts with 403 unless the session belongs to the
// administrator account.
func (s *Server) requireAdmin(c *gin.Context) bool {
	if !store.IsAdmin(sessionUsername(c)) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin_only"})
		return false
	}
	return true
}

// requireTableAccess aborts with 403 unless the session's user may touch the
// given record table.
func (s *Server) requireTableAccess(c *gin.Context, recordType models.RecordType) bool {
	perms, err := s.Store.Permissions(c.Request.Context(), sessionUsername(c))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return false
	}
	if !perms.Allows(recordType) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission_denied"})
		return false
	}
	return true
}

// recordTypeParam validates the :type path segment.
func recordTypeParam(c *gin.Context) (models.RecordType, bool) {
	recordType := models.RecordType(c.Param("type"))
	if !recordType.Valid() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown_record_type"})
		return "", false
	}
	return recordType, true
}
