package api

import (
	"errors"
	"net/http"

	"pulseapp/pulse/internal/service"

	"github.com/gin-gonic/gin"
)

// SettingsHandler exposes data transfer and account deletion.
type SettingsHandler struct {
	transferService service.TransferService
	accountService  service.AccountService
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(transferService service.TransferService, accountService service.AccountService) *SettingsHandler {
	return &SettingsHandler{
		transferService: transferService,
		accountService:  accountService,
	}
}

// ImportCSV accepts a CSV upload as a multipart "file" field, falling
// back to the raw request body.
func (h *SettingsHandler) ImportCSV(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	reader := c.Request.Body
	if file, _, err := c.Request.FormFile("file"); err == nil {
		defer file.Close()
		reader = file
	}

	summary, err := h.transferService.ImportCSV(c.Request.Context(), userID, reader)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyImport), errors.Is(err, service.ErrInvalidInput):
			abortWithError(c, http.StatusBadRequest, "File is empty or not a recognized workout CSV")
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to import workouts")
		}
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ExportCSV streams the user's workout history as a CSV download.
func (h *SettingsHandler) ExportCSV(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="workouts.csv"`)
	if _, err := h.transferService.ExportCSV(c.Request.Context(), userID, c.Writer); err != nil {
		// Headers may already be written; nothing sensible to send.
		c.Status(http.StatusInternalServerError)
		return
	}
}

// ExportArchive stores the export in object storage and returns a
// temporary download link.
func (h *SettingsHandler) ExportArchive(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	archive, err := h.transferService.ExportToArchive(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to archive export")
		return
	}
	c.JSON(http.StatusOK, archive)
}

// DeleteAccount wipes every record owned by the user.
func (h *SettingsHandler) DeleteAccount(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	if err := h.accountService.DeleteAccount(c.Request.Context(), userID); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to delete account")
		return
	}
	c.Status(http.StatusNoContent)
}
