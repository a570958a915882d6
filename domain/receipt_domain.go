package domain

import (
	"errors"
	"fmt"
	"mime/multipart"
)

var (
	MessageSuccessProcessReceipt    = "receipt processed successfully"
	MessageSuccessGetReceipts       = "receipts retrieved successfully"
	MessageSuccessGetReceipt        = "receipt retrieved successfully"
	MessageSuccessDeleteReceipts    = "receipts deleted successfully"
	MessageSuccessGetDuplicates     = "duplicate receipt groups retrieved successfully"
	MessageSuccessReprocessReceipt  = "receipt reprocessed successfully"
	MessageSuccessReprocessReceipts = "batch reprocess finished"

	MessageFailedProcessReceipt    = "failed to process receipt"
	MessageFailedGetReceipts       = "failed to retrieve receipts"
	MessageFailedGetReceipt        = "failed to retrieve receipt"
	MessageFailedDeleteReceipts    = "failed to delete receipts"
	MessageFailedGetDuplicates     = "failed to retrieve duplicate receipt groups"
	MessageFailedReprocessReceipt  = "failed to reprocess receipt"
	MessageFailedReprocessReceipts = "failed to run batch reprocess"

	ErrReceiptNotFound      = errors.New("receipt not found")
	ErrReceiptImageMissing  = errors.New("receipt image is missing, cannot reprocess")
	ErrNoValidReceiptIDs    = errors.New("no valid receipt ids supplied")
	ErrExtractionFailed     = errors.New("failed to extract receipt fields")
	ErrImageRequired        = errors.New("receipt image is required")
	ErrReadReceiptImage     = errors.New("failed to read stored receipt image")
	ErrSaveReceiptImage     = errors.New("failed to store receipt image")
)

// ExtractionServiceError carries the upstream status and body of a failed
// call to the extraction service so callers can surface them.
type ExtractionServiceError struct {
	Status int
	Body   string
}

func (e *ExtractionServiceError) Error() string {
	return fmt.Sprintf("extraction service error: status %d: %s", e.Status, e.Body)
}

type (
	// ExtractionItem is one parsed line item before persistence.
	ExtractionItem struct {
		Name        string  `json:"name"`
		Category    string  `json:"category"`
		Subcategory string  `json:"subcategory"`
		Quantity    int     `json:"quantity"`
		UnitPrice   float64 `json:"unit_price"`
		TotalPrice  float64 `json:"total_price"`
	}

	// ExtractionResult is the normalized output of the field extractor,
	// the same shape as a receipt but without a persistence id.
	ExtractionResult struct {
		Filename        string           `json:"filename"`
		StoreName       string           `json:"store_name"`
		StoreAddress    string           `json:"store_address"`
		StorePhone      string           `json:"store_phone"`
		TransactionDate string           `json:"transaction_date"`
		TransactionTime string           `json:"transaction_time"`
		ReceiptNumber   string           `json:"receipt_number"`
		Subtotal        float64          `json:"subtotal"`
		Tax             float64          `json:"tax"`
		TotalAmount     float64          `json:"total_amount"`
		PaymentMethod   string           `json:"payment_method"`
		Items           []ExtractionItem `json:"items"`
		ProcessedAt     string           `json:"processed_at"`
		Uploader        string           `json:"uploader"`
		ModelUsed       string           `json:"model_used"`
		ImagePath       string           `json:"image_path,omitempty"`
	}

	ProcessReceiptRequest struct {
		Image    *multipart.FileHeader `json:"file" form:"file" validate:"required"`
		Model    string                `json:"model" form:"model"`
		Uploader string                `json:"uploader" form:"uploader"`
	}

	ProcessReceiptResponse struct {
		ID           uint             `json:"id"`
		WasDuplicate bool             `json:"was_duplicate"`
		Placeholder  bool             `json:"placeholder"`
		Receipt      ExtractionResult `json:"receipt"`
	}

	ReceiptItemResponse struct {
		ID          uint    `json:"id"`
		ReceiptID   uint    `json:"receipt_id"`
		Name        string  `json:"name"`
		Category    string  `json:"category"`
		Subcategory string  `json:"subcategory"`
		Quantity    int     `json:"quantity"`
		UnitPrice   float64 `json:"unit_price"`
		TotalPrice  float64 `json:"total_price"`
	}

	ReceiptResponse struct {
		ID              uint                  `json:"id"`
		Filename        string                `json:"filename"`
		StoreName       string                `json:"store_name"`
		StoreAddress    string                `json:"store_address"`
		StorePhone      string                `json:"store_phone"`
		TransactionDate string                `json:"transaction_date"`
		TransactionTime string                `json:"transaction_time"`
		ReceiptNumber   string                `json:"receipt_number"`
		Subtotal        float64               `json:"subtotal"`
		Tax             float64               `json:"tax"`
		TotalAmount     float64               `json:"total_amount"`
		PaymentMethod   string                `json:"payment_method"`
		Uploader        string                `json:"uploader"`
		ModelUsed       string                `json:"model_used"`
		ProcessedAt     string                `json:"processed_at"`
		ImagePath       string                `json:"image_path,omitempty"`
		Items           []ReceiptItemResponse `json:"items"`
	}

	UploaderStat struct {
		Uploader    string  `json:"uploader"`
		TotalAmount float64 `json:"total_amount"`
		Count       int64   `json:"receipt_count"`
	}

	ReceiptStatsResponse struct {
		TotalReceipts int64          `json:"total_receipts"`
		TotalAmount   float64        `json:"total_amount"`
		TotalItems    int64          `json:"total_items"`
		UploaderStats []UploaderStat `json:"uploader_stats"`
	}

	DeleteReceiptsRequest struct {
		IDs []uint `json:"ids" validate:"required,min=1,dive,min=1"`
	}

	DuplicateReceiptSummary struct {
		ID            uint    `json:"id"`
		Filename      string  `json:"filename"`
		Uploader      string  `json:"uploader"`
		TotalAmount   float64 `json:"total_amount"`
		ProcessedAt   string  `json:"processed_at"`
		PaymentMethod string  `json:"payment_method"`
	}

	DuplicateGroup struct {
		TransactionDate string                    `json:"transaction_date"`
		StoreName       string                    `json:"store_name"`
		TotalAmount     float64                   `json:"total_amount"`
		Receipts        []DuplicateReceiptSummary `json:"receipts"`
	}

	ReprocessResponse struct {
		Receipt      ReceiptResponse `json:"receipt"`
		FallbackUsed bool            `json:"fallback_used"`
		KeyType      string          `json:"key_type,omitempty"`
	}

	ReprocessBatchRequest struct {
		IDs []uint `json:"ids" validate:"required,min=1,dive,min=1"`
	}

	ReprocessFailure struct {
		ID    uint   `json:"id"`
		Error string `json:"error"`
	}

	ReprocessBatchResponse struct {
		Requested int                `json:"requested"`
		Succeeded int                `json:"succeeded"`
		Failed    int                `json:"failed"`
		Failures  []ReprocessFailure `json:"failures"`
	}
)
