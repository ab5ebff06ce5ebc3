package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/dimasprasetya/screening-api/internal/models"
	"github.com/dimasprasetya/screening-api/internal/services"
)

type EvaluationHandler struct {
	evalService services.EvaluationService
}

func NewEvaluationHandler(evalService services.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{
		evalService: evalService,
	}
}

// HandleEvaluate handles POST /evaluate. The response never waits for the
// scoring call; it acknowledges with status "processing".
func (h *EvaluationHandler) HandleEvaluate(c *fiber.Ctx) error {
	var req models.EvaluateRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	response, err := h.evalService.Submit(c.Context(), req.ID, req.JobTitle)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingParameter):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		case errors.Is(err, services.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to create evaluation job",
			})
		}
	}

	return c.Status(fiber.StatusAccepted).JSON(response)
}
