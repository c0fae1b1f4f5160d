package api

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"personnel/internal/excel"
	"personnel/internal/models"
)

func (s *Server) handleListRecords(c *gin.Context) {
	recordType, ok := recordTypeParam(c)
	if !ok {
		return
	}
	if !s.requireTableAccess(c, recordType) {
		return
	}
	records, err := s.Store.AllData(c.Request.Context(), recordType.Table())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}

func (s *Server) handleSearch(c *gin.Context) {
	if !s.requireTableAccess(c, models.RecordBaseInfo) {
		return
	}
	var filters models.SearchFilters
	if err := c.ShouldBindJSON(&filters); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_filters"})
		return
	}
	result, err := s.Store.Search(c.Request.Context(), filters)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleExport re-runs the caller's search and streams one result table as a
// fresh workbook, internal id column dropped.
func (s *Server) handleExport(c *gin.Context) {
	recordType, ok := recordTypeParam(c)
	if !ok {
		return
	}
	if !s.requireTableAccess(c, recordType) {
		return
	}
	var filters models.SearchFilters
	if err := c.ShouldBindJSON(&filters); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_filters"})
		return
	}
	result, err := s.Store.Search(c.Request.Context(), filters)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	records := result.Records(recordType)
	if len(records) == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no_data_to_export"})
		return
	}

	columns, err := s.exportColumns(c, recordType)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filename := recordType.DisplayName() + ".xlsx"
	c.Header("Content-Disposition",
		fmt.Sprintf(`attachment; filename*=UTF-8''%s`, url.PathEscape(filename)))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := excel.WriteWorkbook(c.Writer, recordType.DisplayName(), columns, records); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.appendLog(c, sessionUsername(c), "export",
		fmt.Sprintf("%s: %d records", recordType.Table(), len(records)))
}

func (s *Server) exportColumns(c *gin.Context, recordType models.RecordType) ([]string, error) {
	all, err := s.Store.TableColumns(c.Request.Context(), recordType.Table())
	if err != nil {
		return nil, err
	}
	columns := make([]string, 0, len(all))
	for _, col := range all {
		if col == "id" {
			continue
		}
		columns = append(columns, col)
	}
	return columns, nil
}

func (s *Server) handleAssessmentYears(c *gin.Context) {
	years, err := s.Store.AssessmentYears(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"years": years})
}

func (s *Server) handleClearDatabase(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	if err := s.Store.ClearBusinessData(c.Request.Context()); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.appendLog(c, sessionUsername(c), "clear_database", "")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListLogs(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	entries, err := s.Store.Logs(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *Server) handleClearLogs(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	if err := s.Store.ClearLogs(c.Request.Context()); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
