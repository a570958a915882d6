package handlers

import (
	"Harina-Web-Backend/domain"
	"Harina-Web-Backend/internal/api/presenters"
	"Harina-Web-Backend/pkg/receipt"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	ReceiptHandler interface {
		ProcessReceipt(c *fiber.Ctx) error
		GetReceipts(c *fiber.Ctx) error
		GetReceiptDetails(c *fiber.Ctx) error
		DeleteReceipts(c *fiber.Ctx) error
		GetDuplicateGroups(c *fiber.Ctx) error
		ReprocessReceipt(c *fiber.Ctx) error
		ReprocessBatch(c *fiber.Ctx) error
	}

	receiptHandler struct {
		receiptService receipt.ReceiptService
		validator      *validator.Validate
	}
)

func NewReceiptHandler(receiptService receipt.ReceiptService, validator *validator.Validate) ReceiptHandler {
	return &receiptHandler{
		receiptService: receiptService,
		validator:      validator,
	}
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return uint(id), nil
}

func (h *receiptHandler) ProcessReceipt(c *fiber.Ctx) error {
	req := new(domain.ProcessReceiptRequest)

	file, err := c.FormFile("file")
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, domain.ErrImageRequired)
	}
	req.Image = file
	req.Model = c.FormValue("model")
	req.Uploader = c.FormValue("uploader")

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedProcessReceipt, err)
	}

	res, err := h.receiptService.ProcessReceipt(c.Context(), *req)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedProcessReceipt, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessProcessReceipt)
}

func (h *receiptHandler) GetReceipts(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit < 1 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.Query("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	includeStats := c.Query("stats") == "true"

	receipts, stats, err := h.receiptService.GetReceipts(c.Context(), limit, offset, includeStats)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetReceipts, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"receipts": receipts,
		"stats":    stats,
		"pagination": fiber.Map{
			"limit":    limit,
			"offset":   offset,
			"has_more": len(receipts) == limit,
		},
	}, fiber.StatusOK, domain.MessageSuccessGetReceipts)
}

func (h *receiptHandler) GetReceiptDetails(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetReceipt, err)
	}

	res, err := h.receiptService.GetReceiptByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrReceiptNotFound) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedGetReceipt, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetReceipt, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetReceipt)
}

func (h *receiptHandler) DeleteReceipts(c *fiber.Ctx) error {
	req := new(domain.DeleteReceiptsRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedDeleteReceipts, err)
	}

	deleted, err := h.receiptService.DeleteReceipts(c.Context(), req.IDs)
	if err != nil {
		if errors.Is(err, domain.ErrNoValidReceiptIDs) {
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedDeleteReceipts, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedDeleteReceipts, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{"deleted": deleted}, fiber.StatusOK, domain.MessageSuccessDeleteReceipts)
}

func (h *receiptHandler) GetDuplicateGroups(c *fiber.Ctx) error {
	groups, err := h.receiptService.GetDuplicateGroups(c.Context())
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetDuplicates, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{"groups": groups}, fiber.StatusOK, domain.MessageSuccessGetDuplicates)
}

func (h *receiptHandler) ReprocessReceipt(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedReprocessReceipt, err)
	}

	res, err := h.receiptService.Reprocess(c.Context(), id)
	if err != nil {
		var serviceErr *domain.ExtractionServiceError
		switch {
		case errors.Is(err, domain.ErrReceiptNotFound):
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedReprocessReceipt, err)
		case errors.Is(err, domain.ErrReceiptImageMissing):
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedReprocessReceipt, err)
		case errors.As(err, &serviceErr):
			return presenters.ErrorResponse(c, fiber.StatusBadGateway, domain.MessageFailedReprocessReceipt, err)
		default:
			return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedReprocessReceipt, err)
		}
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessReprocessReceipt)
}

func (h *receiptHandler) ReprocessBatch(c *fiber.Ctx) error {
	req := new(domain.ReprocessBatchRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedReprocessReceipts, err)
	}

	res := h.receiptService.ReprocessBatch(c.Context(), req.IDs)

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessReprocessReceipts)
}
