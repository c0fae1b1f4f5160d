package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxImportSize = 50 * 1024 * 1024

// handleImport accepts a spreadsheet upload and runs the table importer.
// Business rejections (bad file, year mismatch, storage failure) come back as
// a failed result with a readable message rather than an opaque status.
func (s *Server) handleImport(c *gin.Context) {
	recordType, ok := recordTypeParam(c)
	if !ok {
		return
	}
	if !s.requireTableAccess(c, recordType) {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil || fileHeader == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "file_required"})
		return
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".xlsx" && ext != ".xls" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": fmt.Sprintf("unsupported file format %q, expected .xlsx or .xls", ext),
		})
		return
	}
	if fileHeader.Size > maxImportSize {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "file_too_large"})
		return
	}

	dstPath := filepath.Join(os.TempDir(), "import-"+uuid.NewString()+ext)
	if err := c.SaveUploadedFile(fileHeader, dstPath); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "save_failed"})
		return
	}
	defer os.Remove(dstPath)

	count, err := s.Importer.ImportFile(c.Request.Context(), dstPath, recordType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	s.appendLog(c, sessionUsername(c), "import",
		fmt.Sprintf("%s: %d records from %s", recordType.Table(), count, fileHeader.Filename))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("imported %d %s records", count, recordType.Table()),
		"count":   count,
	})
}
