package extraction

import (
	"testing"

	"Harina-Web-Backend/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_AttachesMeta(t *testing.T) {
	result := domain.ExtractionResult{
		Filename:  "r.jpg",
		StoreName: "Cafe A",
		Items: []domain.ExtractionItem{
			{Name: "Coffee", Category: "食品・飲料", Quantity: 1},
		},
	}

	normalized := Normalize(result, Meta{
		Uploader:  "alice",
		ModelUsed: "gemini/gemini-2.5-flash",
		ImagePath: "https://bucket.s3.ap-northeast-1.amazonaws.com/receipts/r.jpg",
	})

	assert.Equal(t, "alice", normalized.Uploader)
	assert.Equal(t, "gemini/gemini-2.5-flash", normalized.ModelUsed)
	assert.Equal(t, "https://bucket.s3.ap-northeast-1.amazonaws.com/receipts/r.jpg", normalized.ImagePath)
	assert.NotEmpty(t, normalized.ProcessedAt)
	assert.Equal(t, "Cafe A", normalized.StoreName)
}

func TestNormalize_RepairsItems(t *testing.T) {
	result := domain.ExtractionResult{
		Items: []domain.ExtractionItem{
			{Name: "Bread", Category: "", Quantity: 0},
			{Name: "Juice", Category: "食品・飲料", Quantity: -2},
		},
	}

	normalized := Normalize(result, Meta{})

	require.Len(t, normalized.Items, 2)
	assert.Equal(t, DefaultCategory, normalized.Items[0].Category)
	assert.Equal(t, 1, normalized.Items[0].Quantity)
	assert.Equal(t, "食品・飲料", normalized.Items[1].Category)
	assert.Equal(t, 1, normalized.Items[1].Quantity)
}

func TestNormalize_NilItemsBecomesEmptySlice(t *testing.T) {
	normalized := Normalize(domain.ExtractionResult{}, Meta{})

	assert.NotNil(t, normalized.Items)
	assert.Empty(t, normalized.Items)
}

func TestNormalize_ReapplyOnlyRefreshesProcessedAt(t *testing.T) {
	meta := Meta{Uploader: "bob", ModelUsed: "m", ImagePath: "/p"}
	once := Normalize(domain.ExtractionResult{
		StoreName: "Store",
		Items:     []domain.ExtractionItem{{Name: "A", Category: "c", Quantity: 3}},
	}, meta)
	twice := Normalize(once, meta)

	once.ProcessedAt = twice.ProcessedAt
	assert.Equal(t, once, twice)
}
