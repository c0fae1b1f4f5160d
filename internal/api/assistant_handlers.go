package api

import (
	"encoding/csv"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"personnel/internal/assistant"
	"personnel/internal/models"
)

func (s *Server) handleAssistantModels(c *gin.Context) {
	if s.Assistant == nil {
		c.AbortWithStatusJSON(http.StatusNotImplemented, gin.H{"error": "assistant_disabled"})
		return
	}
	names, err := s.Assistant.Models(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": names})
}

type chatRequest struct {
	Question string               `json:"question"`
	Model    string               `json:"model"`
	Filters  models.SearchFilters `json:"filters"`
}

// handleAssistantChat answers a question grounded in the caller's current
// search results. The result set is serialised to CSV and shipped as the data
// context; the model never sees the database itself.
func (s *Server) handleAssistantChat(c *gin.Context) {
	if s.Assistant == nil {
		c.AbortWithStatusJSON(http.StatusNotImplemented, gin.H{"error": "assistant_disabled"})
		return
	}
	if !s.requireTableAccess(c, models.RecordBaseInfo) {
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Question == "" || req.Model == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		return
	}

	result, err := s.Store.Search(c.Request.Context(), req.Filters)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	dataContext, err := s.resultCSV(c, result)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	messages := []assistant.Message{
		assistant.SystemPrompt(dataContext),
		{Role: "user", Content: req.Question},
	}
	answer, err := s.Assistant.Chat(c.Request.Context(), req.Model, messages)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// resultCSV renders the four result tables as CSV sections in schema column
// order, internal ids excluded.
func (s *Server) resultCSV(c *gin.Context, result models.SearchResult) (string, error) {
	var b strings.Builder
	for _, recordType := range models.AllRecordTypes {
		records := result.Records(recordType)
		if len(records) == 0 {
			continue
		}
		columns, err := s.exportColumns(c, recordType)
		if err != nil {
			return "", err
		}
		b.WriteString("## " + recordType.DisplayName() + "\n")
		w := csv.NewWriter(&b)
		if err := w.Write(columns); err != nil {
			return "", err
		}
		row := make([]string, len(columns))
		for _, record := range records {
			for i, col := range columns {
				row[i] = record[col]
			}
			if err := w.Write(row); err != nil {
				return "", err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return "", err
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}
