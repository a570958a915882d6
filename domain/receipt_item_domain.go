package domain

import (
	"errors"
)

var (
	MessageSuccessUpdateReceiptItem = "receipt item updated successfully"
	MessageSuccessBulkUpdateItems   = "receipt items updated successfully"

	MessageFailedUpdateReceiptItem = "failed to update receipt item"
	MessageFailedBulkUpdateItems   = "failed to bulk update receipt items"

	ErrReceiptItemNotFound = errors.New("receipt item not found")
	ErrNoUpdatableFields   = errors.New("no updatable fields provided")
	ErrCategoryRequired    = errors.New("category must not be empty")
)

type (
	// UpdateReceiptItemRequest is a partial patch: nil pointers leave the
	// stored value untouched.
	UpdateReceiptItemRequest struct {
		Category    *string `json:"category"`
		Subcategory *string `json:"subcategory"`
	}

	BulkUpdateReceiptItemsRequest struct {
		ReceiptIDs  []uint  `json:"receipt_ids" validate:"required,min=1"`
		Category    string  `json:"category" validate:"required"`
		Subcategory *string `json:"subcategory"`
	}

	BulkUpdateReceiptItemsResponse struct {
		UpdatedItems int64 `json:"updated_items"`
	}
)
