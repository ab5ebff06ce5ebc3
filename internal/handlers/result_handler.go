package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/dimasprasetya/screening-api/internal/services"
)

type ResultHandler struct {
	evalService services.EvaluationService
}

func NewResultHandler(evalService services.EvaluationService) *ResultHandler {
	return &ResultHandler{
		evalService: evalService,
	}
}

// HandleGetResult handles GET /result/:id.
func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id is required",
		})
	}

	response, err := h.evalService.Result(c.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch evaluation result",
		})
	}

	return c.JSON(response)
}
