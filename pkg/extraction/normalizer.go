package extraction

import (
	"Harina-Web-Backend/domain"
)

// Meta is the caller-supplied metadata attached to an extraction result
// before persistence.
type Meta struct {
	Uploader  string
	ModelUsed string
	ImagePath string
}

// Normalize stamps the processing time and attaches caller metadata. It is
// pure and total; re-applying it only refreshes ProcessedAt, which is the
// intended "last processed at" semantics.
func Normalize(result domain.ExtractionResult, meta Meta) domain.ExtractionResult {
	result.ProcessedAt = nowISO()
	result.Uploader = meta.Uploader
	result.ModelUsed = meta.ModelUsed
	result.ImagePath = meta.ImagePath

	if result.Items == nil {
		result.Items = []domain.ExtractionItem{}
	}
	for i := range result.Items {
		if result.Items[i].Category == "" {
			result.Items[i].Category = DefaultCategory
		}
		if result.Items[i].Quantity <= 0 {
			result.Items[i].Quantity = 1
		}
	}

	return result
}
