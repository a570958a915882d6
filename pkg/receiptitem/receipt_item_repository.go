package receiptitem

import (
	"Harina-Web-Backend/entities"
	"context"

	"gorm.io/gorm"
)

type (
	ReceiptItemRepository interface {
		GetItemByID(ctx context.Context, id uint) (*entities.ReceiptItem, error)
		UpdateItemFields(ctx context.Context, id uint, fields map[string]interface{}) error
		// BulkUpdateByReceiptIDs sets category and subcategory on every
		// item under the given receipts in one statement and reports the
		// affected row count.
		BulkUpdateByReceiptIDs(ctx context.Context, receiptIDs []uint, category, subcategory string) (int64, error)
	}

	receiptItemRepository struct {
		db *gorm.DB
	}
)

func NewReceiptItemRepository(db *gorm.DB) ReceiptItemRepository {
	return &receiptItemRepository{db: db}
}

func (r *receiptItemRepository) GetItemByID(ctx context.Context, id uint) (*entities.ReceiptItem, error) {
	var item entities.ReceiptItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *receiptItemRepository) UpdateItemFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&entities.ReceiptItem{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *receiptItemRepository) BulkUpdateByReceiptIDs(ctx context.Context, receiptIDs []uint, category, subcategory string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entities.ReceiptItem{}).
		Where("receipt_id IN ?", receiptIDs).
		Updates(map[string]interface{}{
			"category":    category,
			"subcategory": subcategory,
		})
	return result.RowsAffected, result.Error
}
