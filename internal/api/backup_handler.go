package api

import (
	"fmt"
	"io"
	"log"
	"net/http"

	"alcyxob/fitness-tracker/internal/backup"
	"alcyxob/fitness-tracker/internal/service"

	"github.com/gin-gonic/gin"
)

// maxImportSize bounds uploaded backups.
const maxImportSize = 20 << 20

// BackupHandler serves export, import and cloud migration.
type BackupHandler struct {
	trackerService service.TrackerService
}

// NewBackupHandler creates a new BackupHandler.
func NewBackupHandler(trackerService service.TrackerService) *BackupHandler {
	return &BackupHandler{trackerService: trackerService}
}

// Export downloads the backup artifact. GET /api/v1/backup/export
func (h *BackupHandler) Export(c *gin.Context) {
	data, err := h.trackerService.Export()
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, backup.Filename))
	c.Data(http.StatusOK, "application/json", data)
}

// ExportToStorage uploads the artifact and returns a download link. POST /api/v1/backup/export/storage
func (h *BackupHandler) ExportToStorage(c *gin.Context) {
	link, err := h.trackerService.ExportToStorage(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

// Import applies an uploaded backup. The body is the artifact itself.
// POST /api/v1/backup/import?mode=replace|merge
func (h *BackupHandler) Import(c *gin.Context) {
	mode, err := backup.ParseMode(c.DefaultQuery("mode", string(backup.ModeMerge)))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportSize))
	if err != nil {
		log.Printf("WARN: Failed to read import body: %v", err)
		abortWithError(c, http.StatusBadRequest, "Could not read backup")
		return
	}
	if err := h.trackerService.Import(c.Request.Context(), data, mode); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": mode, "profiles": h.trackerService.ListProfiles()})
}

// Migrate copies local data into the signed-in user's cloud documents. POST /api/v1/sync/migrate
func (h *BackupHandler) Migrate(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from session")
		return
	}
	result, err := h.trackerService.MigrateToCloud(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": userID, "migrated": result})
}

// SyncStatus GET /api/v1/sync/status
func (h *BackupHandler) SyncStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.trackerService.SyncStatus())
}
