package receipt

import (
	"Harina-Web-Backend/domain"
	"Harina-Web-Backend/entities"
	"Harina-Web-Backend/internal/utils"
	"Harina-Web-Backend/internal/utils/storage"
	"Harina-Web-Backend/pkg/extraction"
	"Harina-Web-Backend/pkg/setting"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

type (
	ReceiptService interface {
		ProcessReceipt(ctx context.Context, req domain.ProcessReceiptRequest) (domain.ProcessReceiptResponse, error)
		GetReceipts(ctx context.Context, limit, offset int, includeStats bool) ([]domain.ReceiptResponse, *domain.ReceiptStatsResponse, error)
		GetReceiptByID(ctx context.Context, id uint) (domain.ReceiptResponse, error)
		DeleteReceipts(ctx context.Context, ids []uint) (int64, error)
		GetDuplicateGroups(ctx context.Context) ([]domain.DuplicateGroup, error)
		Reprocess(ctx context.Context, id uint) (domain.ReprocessResponse, error)
		ReprocessBatch(ctx context.Context, ids []uint) domain.ReprocessBatchResponse
	}

	receiptService struct {
		receiptRepository ReceiptRepository
		harinaClient      extraction.HarinaClient
		settingService    setting.SettingService
		s3                storage.AwsS3
	}
)

func NewReceiptService(
	receiptRepository ReceiptRepository,
	harinaClient extraction.HarinaClient,
	settingService setting.SettingService,
	s3 storage.AwsS3,
) ReceiptService {
	return &receiptService{
		receiptRepository: receiptRepository,
		harinaClient:      harinaClient,
		settingService:    settingService,
		s3:                s3,
	}
}

// loadPrompt fetches the operator-configured extra instructions. A failure
// here is logged and treated as "no extra instructions", never fatal.
func (s *receiptService) loadPrompt(ctx context.Context) string {
	prompt, err := s.settingService.GetProcessingPrompt(ctx)
	if err != nil {
		log.Errorf("failed to load processing prompt: %v", err)
		return ""
	}
	return prompt
}

func (s *receiptService) ProcessReceipt(ctx context.Context, req domain.ProcessReceiptRequest) (domain.ProcessReceiptResponse, error) {
	if req.Image == nil {
		return domain.ProcessReceiptResponse{}, domain.ErrImageRequired
	}

	file, err := req.Image.Open()
	if err != nil {
		return domain.ProcessReceiptResponse{}, fmt.Errorf("%w: %v", domain.ErrSaveReceiptImage, err)
	}
	defer file.Close()

	imageBytes, err := io.ReadAll(file)
	if err != nil {
		return domain.ProcessReceiptResponse{}, fmt.Errorf("%w: %v", domain.ErrSaveReceiptImage, err)
	}

	// The image is stored before anything else so a failed extraction
	// never drops the upload.
	contentType := req.Image.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	objectKey, err := s.s3.UploadBytes(req.Image.Filename, imageBytes, contentType, "receipts")
	if err != nil {
		return domain.ProcessReceiptResponse{}, fmt.Errorf("%w: %v", domain.ErrSaveReceiptImage, err)
	}
	imagePath := s.s3.GetPublicLinkKey(objectKey)

	model := req.Model
	if model == "" {
		model = utils.GetConfig("HARINA_DEFAULT_MODEL")
	}
	if model == "" {
		model = extraction.DefaultModel
	}

	placeholder := false
	var result domain.ExtractionResult

	processed, err := s.harinaClient.Process(ctx, imageBytes, req.Image.Filename, model, s.loadPrompt(ctx))
	if err != nil {
		// Ingestion never blocks on upstream failure: persist a labeled
		// placeholder the user can review and correct.
		log.Errorf("extraction service failed for %s, persisting placeholder: %v", req.Image.Filename, err)
		placeholder = true
		result = extraction.Placeholder(req.Image.Filename, imagePath)
	} else {
		if processed.Model != "" {
			model = processed.Model
		}
		extracted, strategy, parseErr := extraction.Extract(processed.Data, req.Image.Filename, imagePath)
		if parseErr != nil {
			log.Errorf("both parse strategies failed for %s, persisting placeholder: %v", req.Image.Filename, parseErr)
			placeholder = true
			result = extraction.Placeholder(req.Image.Filename, imagePath)
		} else {
			if strategy == extraction.StrategyRegex {
				log.Warnf("structured parse failed for %s, regex fallback used", req.Image.Filename)
			}
			result = extracted
		}
	}

	result = extraction.Normalize(result, extraction.Meta{
		Uploader:  req.Uploader,
		ModelUsed: model,
		ImagePath: imagePath,
	})

	id, wasDuplicate, err := s.resolveOrCreate(ctx, result, placeholder)
	if err != nil {
		return domain.ProcessReceiptResponse{}, err
	}

	return domain.ProcessReceiptResponse{
		ID:           id,
		WasDuplicate: wasDuplicate,
		Placeholder:  placeholder,
		Receipt:      result,
	}, nil
}

// resolveOrCreate applies the ingestion-time duplicate heuristic: an exact
// (store, date, time) triple match reuses the existing receipt, anything
// else is persisted as new. Amount and item contents are deliberately
// ignored; see the duplicate-group query for the review-time clustering.
// Placeholder records skip the lookup so failed uploads never collapse
// into each other.
func (s *receiptService) resolveOrCreate(ctx context.Context, result domain.ExtractionResult, placeholder bool) (uint, bool, error) {
	if !placeholder {
		existing, err := s.receiptRepository.FindByStoreDateTime(
			ctx,
			strings.TrimSpace(result.StoreName),
			strings.TrimSpace(result.TransactionDate),
			strings.TrimSpace(result.TransactionTime),
		)
		if err == nil {
			return existing.ID, true, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, err
		}
	}

	record := resultToEntity(result, 0)
	if err := s.receiptRepository.SaveReceiptWithItems(ctx, record); err != nil {
		return 0, false, err
	}
	return record.ID, false, nil
}

func (s *receiptService) GetReceipts(ctx context.Context, limit, offset int, includeStats bool) ([]domain.ReceiptResponse, *domain.ReceiptStatsResponse, error) {
	receipts, err := s.receiptRepository.GetReceipts(ctx, limit, offset)
	if err != nil {
		return nil, nil, err
	}

	responses := make([]domain.ReceiptResponse, 0, len(receipts))
	for _, rec := range receipts {
		responses = append(responses, entityToResponse(rec))
	}

	var stats *domain.ReceiptStatsResponse
	if includeStats {
		collected, err := s.receiptRepository.GetStats(ctx)
		if err != nil {
			return nil, nil, err
		}
		stats = &collected
	}

	return responses, stats, nil
}

func (s *receiptService) GetReceiptByID(ctx context.Context, id uint) (domain.ReceiptResponse, error) {
	rec, err := s.receiptRepository.GetReceiptByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ReceiptResponse{}, domain.ErrReceiptNotFound
		}
		return domain.ReceiptResponse{}, err
	}
	return entityToResponse(rec), nil
}

func (s *receiptService) DeleteReceipts(ctx context.Context, ids []uint) (int64, error) {
	valid := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id > 0 {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return 0, domain.ErrNoValidReceiptIDs
	}
	return s.receiptRepository.DeleteReceiptsByIDs(ctx, valid)
}

func (s *receiptService) GetDuplicateGroups(ctx context.Context) ([]domain.DuplicateGroup, error) {
	return s.receiptRepository.GetDuplicateGroups(ctx)
}

func (s *receiptService) Reprocess(ctx context.Context, id uint) (domain.ReprocessResponse, error) {
	existing, err := s.receiptRepository.GetReceiptByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ReprocessResponse{}, domain.ErrReceiptNotFound
		}
		return domain.ReprocessResponse{}, err
	}

	if existing.ImagePath == "" {
		return domain.ReprocessResponse{}, domain.ErrReceiptImageMissing
	}

	objectKey := s.s3.GetObjectKeyFromLink(existing.ImagePath)
	if objectKey == "" {
		objectKey = existing.ImagePath
	}
	imageBytes, err := s.s3.GetFileBytes(objectKey)
	if err != nil {
		return domain.ReprocessResponse{}, fmt.Errorf("%w: %v", domain.ErrReadReceiptImage, err)
	}

	filename := existing.Filename
	if filename == "" {
		filename = fmt.Sprintf("receipt_%d.jpg", id)
	}

	model := existing.ModelUsed
	if model == "" {
		model = extraction.DefaultModel
	}

	processed, err := s.harinaClient.Process(ctx, imageBytes, filename, model, s.loadPrompt(ctx))
	if err != nil {
		return domain.ReprocessResponse{}, err
	}
	if processed.Model != "" {
		model = processed.Model
	}

	result, strategy, err := extraction.Extract(processed.Data, filename, existing.ImagePath)
	if err != nil {
		// Unlike ingestion there is no placeholder substitution here: a
		// parse failure fails the reprocess for this id.
		return domain.ReprocessResponse{}, err
	}
	if strategy == extraction.StrategyRegex {
		log.Warnf("structured parse failed while reprocessing receipt %d, regex fallback used", id)
	}

	result = extraction.Normalize(result, extraction.Meta{
		Uploader:  existing.Uploader,
		ModelUsed: model,
		ImagePath: existing.ImagePath,
	})

	record := resultToEntity(result, existing.ID)
	// reprocessing rewrites the row, the original creation time stays
	record.CreatedAt = existing.CreatedAt
	if err := s.receiptRepository.OverwriteReceipt(ctx, record); err != nil {
		return domain.ReprocessResponse{}, err
	}

	return domain.ReprocessResponse{
		Receipt:      entityToResponse(record),
		FallbackUsed: processed.FallbackUsed,
		KeyType:      processed.KeyType,
	}, nil
}

// ReprocessBatch runs the single-id flow sequentially per id; per-id
// failures are collected instead of aborting the batch.
func (s *receiptService) ReprocessBatch(ctx context.Context, ids []uint) domain.ReprocessBatchResponse {
	res := domain.ReprocessBatchResponse{
		Requested: len(ids),
		Failures:  []domain.ReprocessFailure{},
	}

	for _, id := range ids {
		if _, err := s.Reprocess(ctx, id); err != nil {
			res.Failed++
			res.Failures = append(res.Failures, domain.ReprocessFailure{
				ID:    id,
				Error: err.Error(),
			})
			continue
		}
		res.Succeeded++
	}

	return res
}

func resultToEntity(result domain.ExtractionResult, id uint) *entities.Receipt {
	items := make([]*entities.ReceiptItem, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, &entities.ReceiptItem{
			Name:        item.Name,
			Category:    item.Category,
			Subcategory: item.Subcategory,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		})
	}

	return &entities.Receipt{
		ID:              id,
		Filename:        result.Filename,
		StoreName:       result.StoreName,
		StoreAddress:    result.StoreAddress,
		StorePhone:      result.StorePhone,
		TransactionDate: result.TransactionDate,
		TransactionTime: result.TransactionTime,
		ReceiptNumber:   result.ReceiptNumber,
		Subtotal:        result.Subtotal,
		Tax:             result.Tax,
		TotalAmount:     result.TotalAmount,
		PaymentMethod:   result.PaymentMethod,
		Uploader:        result.Uploader,
		ModelUsed:       result.ModelUsed,
		ProcessedAt:     result.ProcessedAt,
		ImagePath:       result.ImagePath,
		Items:           items,
	}
}

func entityToResponse(rec *entities.Receipt) domain.ReceiptResponse {
	items := make([]domain.ReceiptItemResponse, 0, len(rec.Items))
	for _, item := range rec.Items {
		items = append(items, domain.ReceiptItemResponse{
			ID:          item.ID,
			ReceiptID:   item.ReceiptID,
			Name:        item.Name,
			Category:    item.Category,
			Subcategory: item.Subcategory,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		})
	}

	return domain.ReceiptResponse{
		ID:              rec.ID,
		Filename:        rec.Filename,
		StoreName:       rec.StoreName,
		StoreAddress:    rec.StoreAddress,
		StorePhone:      rec.StorePhone,
		TransactionDate: rec.TransactionDate,
		TransactionTime: rec.TransactionTime,
		ReceiptNumber:   rec.ReceiptNumber,
		Subtotal:        rec.Subtotal,
		Tax:             rec.Tax,
		TotalAmount:     rec.TotalAmount,
		PaymentMethod:   rec.PaymentMethod,
		Uploader:        rec.Uploader,
		ModelUsed:       rec.ModelUsed,
		ProcessedAt:     rec.ProcessedAt,
		ImagePath:       rec.ImagePath,
		Items:           items,
	}
}
