package handlers

import (
	"fmt"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/dimasprasetya/screening-api/internal/models"
	"github.com/dimasprasetya/screening-api/internal/repositories"
	"github.com/dimasprasetya/screening-api/internal/services"
)

type UploadHandler struct {
	uploadRepo     repositories.UploadRepository
	storageService services.StorageService
	ingestService  services.IngestionService
	maxFileSize    int64
}

func NewUploadHandler(
	uploadRepo repositories.UploadRepository,
	storageService services.StorageService,
	ingestService services.IngestionService,
	maxFileSize int64,
) *UploadHandler {
	return &UploadHandler{
		uploadRepo:     uploadRepo,
		storageService: storageService,
		ingestService:  ingestService,
		maxFileSize:    maxFileSize,
	}
}

// HandleUpload handles POST /upload. Both a 'cv' and a 'project_report'
// PDF are required; the pair is stored, recorded, and ingested into the
// candidate corpus under a fresh group id.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse multipart form",
		})
	}

	cvFile := firstFile(form, "cv")
	reportFile := firstFile(form, "project_report")
	if cvFile == nil || reportFile == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "both 'cv' and 'project_report' PDF files are required",
		})
	}

	for _, f := range []*multipart.FileHeader{cvFile, reportFile} {
		if f.Size > h.maxFileSize {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("file %s too large. Max size: %d bytes", f.Filename, h.maxFileSize),
			})
		}
	}

	cvFilename, cvPath, err := h.storageService.SaveFile(cvFile, string(models.KindCV))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to save CV file: %v", err),
		})
	}

	reportFilename, reportPath, err := h.storageService.SaveFile(reportFile, string(models.KindReport))
	if err != nil {
		h.storageService.DeleteFile(cvFilename)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to save project report file: %v", err),
		})
	}

	// simple auto-increment group id, like the corpus has always used
	count, err := h.uploadRepo.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to allocate group id",
		})
	}
	groupID := strconv.FormatInt(count+1, 10)

	upload := &models.Upload{
		ID:             uuid.New(),
		GroupID:        groupID,
		CVFilename:     cvFilename,
		CVPath:         cvPath,
		ReportFilename: reportFilename,
		ReportPath:     reportPath,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	if err := h.uploadRepo.Create(upload); err != nil {
		h.storageService.DeleteFile(cvFilename)
		h.storageService.DeleteFile(reportFilename)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to save upload record",
		})
	}

	result, err := h.ingestService.Ingest(c.Context(), groupID, cvPath, reportPath)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to ingest documents: %v", err),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(models.UploadResponse{
		ID:    groupID,
		Added: result.Added,
		IDs:   result.IDs,
	})
}

func firstFile(form *multipart.Form, field string) *multipart.FileHeader {
	if files, ok := form.File[field]; ok && len(files) > 0 {
		return files[0]
	}
	return nil
}
