package receiptitem

import (
	"Harina-Web-Backend/domain"
	"Harina-Web-Backend/pkg/extraction"
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

type (
	ReceiptItemService interface {
		UpdateItem(ctx context.Context, id uint, req domain.UpdateReceiptItemRequest) (domain.ReceiptItemResponse, error)
		BulkUpdateByReceiptIDs(ctx context.Context, req domain.BulkUpdateReceiptItemsRequest) (int64, error)
	}

	receiptItemService struct {
		itemRepository ReceiptItemRepository
	}
)

func NewReceiptItemService(itemRepository ReceiptItemRepository) ReceiptItemService {
	return &receiptItemService{itemRepository: itemRepository}
}

// UpdateItem is a true partial patch: only supplied fields change. A
// category set to empty falls back to the uncategorized label so stored
// items never lose their category.
func (s *receiptItemService) UpdateItem(ctx context.Context, id uint, req domain.UpdateReceiptItemRequest) (domain.ReceiptItemResponse, error) {
	if req.Category == nil && req.Subcategory == nil {
		return domain.ReceiptItemResponse{}, domain.ErrNoUpdatableFields
	}

	if _, err := s.itemRepository.GetItemByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ReceiptItemResponse{}, domain.ErrReceiptItemNotFound
		}
		return domain.ReceiptItemResponse{}, err
	}

	fields := map[string]interface{}{}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			category = extraction.DefaultCategory
		}
		fields["category"] = category
	}
	if req.Subcategory != nil {
		fields["subcategory"] = strings.TrimSpace(*req.Subcategory)
	}

	if err := s.itemRepository.UpdateItemFields(ctx, id, fields); err != nil {
		return domain.ReceiptItemResponse{}, err
	}

	item, err := s.itemRepository.GetItemByID(ctx, id)
	if err != nil {
		return domain.ReceiptItemResponse{}, err
	}

	return domain.ReceiptItemResponse{
		ID:          item.ID,
		ReceiptID:   item.ReceiptID,
		Name:        item.Name,
		Category:    item.Category,
		Subcategory: item.Subcategory,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		TotalPrice:  item.TotalPrice,
	}, nil
}

// BulkUpdateByReceiptIDs is a full replace of category and subcategory:
// when no subcategory is supplied it is cleared, never merged with prior
// values. This asymmetry with UpdateItem is intentional.
func (s *receiptItemService) BulkUpdateByReceiptIDs(ctx context.Context, req domain.BulkUpdateReceiptItemsRequest) (int64, error) {
	category := strings.TrimSpace(req.Category)
	if category == "" {
		return 0, domain.ErrCategoryRequired
	}

	valid := make([]uint, 0, len(req.ReceiptIDs))
	for _, id := range req.ReceiptIDs {
		if id > 0 {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return 0, domain.ErrNoValidReceiptIDs
	}

	subcategory := ""
	if req.Subcategory != nil {
		subcategory = strings.TrimSpace(*req.Subcategory)
	}

	return s.itemRepository.BulkUpdateByReceiptIDs(ctx, valid, category, subcategory)
}
