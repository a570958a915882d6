package handlers

import (
	"Harina-Web-Backend/domain"
	"Harina-Web-Backend/internal/api/presenters"
	"Harina-Web-Backend/pkg/category"
	"Harina-Web-Backend/pkg/setting"

	"github.com/gofiber/fiber/v2"
)

type (
	SettingHandler interface {
		GetProcessingPrompt(c *fiber.Ctx) error
		UpdateProcessingPrompt(c *fiber.Ctx) error
		GetCategoryStyle(c *fiber.Ctx) error
	}

	settingHandler struct {
		settingService setting.SettingService
	}
)

func NewSettingHandler(settingService setting.SettingService) SettingHandler {
	return &settingHandler{settingService: settingService}
}

func (h *settingHandler) GetProcessingPrompt(c *fiber.Ctx) error {
	prompt, err := h.settingService.GetProcessingPrompt(c.Context())
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetPrompt, err)
	}

	return presenters.SuccessResponse(c, domain.ProcessingPromptResponse{Prompt: prompt}, fiber.StatusOK, domain.MessageSuccessGetPrompt)
}

func (h *settingHandler) UpdateProcessingPrompt(c *fiber.Ctx) error {
	req := new(domain.UpdateProcessingPromptRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	prompt, err := h.settingService.UpdateProcessingPrompt(c.Context(), req.Prompt)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedUpdatePrompt, err)
	}

	return presenters.SuccessResponse(c, domain.ProcessingPromptResponse{Prompt: prompt}, fiber.StatusOK, domain.MessageSuccessUpdatePrompt)
}

func (h *settingHandler) GetCategoryStyle(c *fiber.Ctx) error {
	label := c.Query("category")
	style := category.StyleFor(label)

	return presenters.SuccessResponse(c, fiber.Map{
		"category": label,
		"style":    style,
		"classes":  category.BadgeClasses(label),
	}, fiber.StatusOK, "category style retrieved successfully")
}
