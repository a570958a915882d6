package receipt

import (
	"Harina-Web-Backend/domain"
	"Harina-Web-Backend/entities"
	"context"

	"gorm.io/gorm"
)

type (
	ReceiptRepository interface {
		SaveReceiptWithItems(ctx context.Context, receipt *entities.Receipt) error
		OverwriteReceipt(ctx context.Context, receipt *entities.Receipt) error
		GetReceiptByID(ctx context.Context, id uint) (*entities.Receipt, error)
		GetReceipts(ctx context.Context, limit, offset int) ([]*entities.Receipt, error)
		// FindByStoreDateTime is the ingestion-time duplicate lookup: an
		// exact (store name, date, time) triple match, amount ignored.
		FindByStoreDateTime(ctx context.Context, storeName, transactionDate, transactionTime string) (*entities.Receipt, error)
		// GetDuplicateGroups is the review-time clustering by
		// (date, store, total amount). It is a different heuristic from
		// FindByStoreDateTime and the two must stay separate.
		GetDuplicateGroups(ctx context.Context) ([]domain.DuplicateGroup, error)
		DeleteReceiptsByIDs(ctx context.Context, ids []uint) (int64, error)
		GetStats(ctx context.Context) (domain.ReceiptStatsResponse, error)
	}

	receiptRepository struct {
		db *gorm.DB
	}
)

func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) SaveReceiptWithItems(ctx context.Context, receipt *entities.Receipt) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := receipt.Items
		receipt.Items = nil
		if err := tx.Create(receipt).Error; err != nil {
			return err
		}
		for _, item := range items {
			item.ReceiptID = receipt.ID
			if err := tx.Create(item).Error; err != nil {
				return err
			}
		}
		receipt.Items = items
		return nil
	})
}

func (r *receiptRepository) OverwriteReceipt(ctx context.Context, receipt *entities.Receipt) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := receipt.Items
		receipt.Items = nil
		if err := tx.Where("receipt_id = ?", receipt.ID).Delete(&entities.ReceiptItem{}).Error; err != nil {
			return err
		}
		if err := tx.Save(receipt).Error; err != nil {
			return err
		}
		for _, item := range items {
			item.ID = 0
			item.ReceiptID = receipt.ID
			if err := tx.Create(item).Error; err != nil {
				return err
			}
		}
		receipt.Items = items
		return nil
	})
}

func (r *receiptRepository) GetReceiptByID(ctx context.Context, id uint) (*entities.Receipt, error) {
	var receipt entities.Receipt
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("receipt_items.id") }).
		Where("id = ?", id).
		First(&receipt).Error; err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepository) GetReceipts(ctx context.Context, limit, offset int) ([]*entities.Receipt, error) {
	var receipts []*entities.Receipt
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("receipt_items.id") }).
		Order("processed_at desc").
		Limit(limit).
		Offset(offset).
		Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}

func (r *receiptRepository) FindByStoreDateTime(ctx context.Context, storeName, transactionDate, transactionTime string) (*entities.Receipt, error) {
	var receipt entities.Receipt
	if err := r.db.WithContext(ctx).
		Where("store_name = ? AND transaction_date = ? AND transaction_time = ?",
			storeName, transactionDate, transactionTime).
		First(&receipt).Error; err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepository) GetDuplicateGroups(ctx context.Context) ([]domain.DuplicateGroup, error) {
	type groupKey struct {
		TransactionDate string
		StoreName       string
		TotalAmount     float64
	}

	var keys []groupKey
	if err := r.db.WithContext(ctx).
		Model(&entities.Receipt{}).
		Select("transaction_date, store_name, total_amount").
		Group("transaction_date, store_name, total_amount").
		Having("COUNT(*) > 1").
		Order("transaction_date desc, store_name").
		Scan(&keys).Error; err != nil {
		return nil, err
	}

	groups := make([]domain.DuplicateGroup, 0, len(keys))
	for _, key := range keys {
		var receipts []*entities.Receipt
		if err := r.db.WithContext(ctx).
			Where("transaction_date = ? AND store_name = ? AND total_amount = ?",
				key.TransactionDate, key.StoreName, key.TotalAmount).
			Order("id").
			Find(&receipts).Error; err != nil {
			return nil, err
		}

		summaries := make([]domain.DuplicateReceiptSummary, 0, len(receipts))
		for _, rec := range receipts {
			summaries = append(summaries, domain.DuplicateReceiptSummary{
				ID:            rec.ID,
				Filename:      rec.Filename,
				Uploader:      rec.Uploader,
				TotalAmount:   rec.TotalAmount,
				ProcessedAt:   rec.ProcessedAt,
				PaymentMethod: rec.PaymentMethod,
			})
		}

		groups = append(groups, domain.DuplicateGroup{
			TransactionDate: key.TransactionDate,
			StoreName:       key.StoreName,
			TotalAmount:     key.TotalAmount,
			Receipts:        summaries,
		})
	}

	return groups, nil
}

func (r *receiptRepository) DeleteReceiptsByIDs(ctx context.Context, ids []uint) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("receipt_id IN ?", ids).Delete(&entities.ReceiptItem{}).Error; err != nil {
			return err
		}
		result := tx.Where("id IN ?", ids).Delete(&entities.Receipt{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	return deleted, err
}

func (r *receiptRepository) GetStats(ctx context.Context) (domain.ReceiptStatsResponse, error) {
	var stats domain.ReceiptStatsResponse

	if err := r.db.WithContext(ctx).Model(&entities.Receipt{}).
		Count(&stats.TotalReceipts).Error; err != nil {
		return stats, err
	}

	if err := r.db.WithContext(ctx).Model(&entities.Receipt{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&stats.TotalAmount).Error; err != nil {
		return stats, err
	}

	if err := r.db.WithContext(ctx).Model(&entities.ReceiptItem{}).
		Count(&stats.TotalItems).Error; err != nil {
		return stats, err
	}

	if err := r.db.WithContext(ctx).Model(&entities.Receipt{}).
		Select("uploader, COALESCE(SUM(total_amount), 0) as total_amount, COUNT(*) as count").
		Group("uploader").
		Scan(&stats.UploaderStats).Error; err != nil {
		return stats, err
	}

	return stats, nil
}
