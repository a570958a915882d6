package handlers

import (
	"Harina-Web-Backend/domain"
	"Harina-Web-Backend/internal/api/presenters"
	"Harina-Web-Backend/pkg/receiptitem"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	ReceiptItemHandler interface {
		UpdateReceiptItem(c *fiber.Ctx) error
		BulkUpdateReceiptItems(c *fiber.Ctx) error
	}

	receiptItemHandler struct {
		itemService receiptitem.ReceiptItemService
		validator   *validator.Validate
	}
)

func NewReceiptItemHandler(itemService receiptitem.ReceiptItemService, validator *validator.Validate) ReceiptItemHandler {
	return &receiptItemHandler{
		itemService: itemService,
		validator:   validator,
	}
}

func (h *receiptItemHandler) UpdateReceiptItem(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateReceiptItem, err)
	}

	req := new(domain.UpdateReceiptItemRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	res, err := h.itemService.UpdateItem(c.Context(), id, *req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrReceiptItemNotFound):
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedUpdateReceiptItem, err)
		case errors.Is(err, domain.ErrNoUpdatableFields):
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateReceiptItem, err)
		default:
			return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedUpdateReceiptItem, err)
		}
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateReceiptItem)
}

func (h *receiptItemHandler) BulkUpdateReceiptItems(c *fiber.Ctx) error {
	req := new(domain.BulkUpdateReceiptItemsRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBulkUpdateItems, err)
	}

	updated, err := h.itemService.BulkUpdateByReceiptIDs(c.Context(), *req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCategoryRequired), errors.Is(err, domain.ErrNoValidReceiptIDs):
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBulkUpdateItems, err)
		default:
			return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedBulkUpdateItems, err)
		}
	}

	return presenters.SuccessResponse(c, domain.BulkUpdateReceiptItemsResponse{UpdatedItems: updated}, fiber.StatusOK, domain.MessageSuccessBulkUpdateItems)
}
