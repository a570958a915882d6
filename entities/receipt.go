package entities

type Receipt struct {
	ID              uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Filename        string  `json:"filename"`
	StoreName       string  `json:"store_name"`
	StoreAddress    string  `json:"store_address"`
	StorePhone      string  `json:"store_phone"`
	TransactionDate string  `json:"transaction_date"`
	TransactionTime string  `json:"transaction_time"`
	ReceiptNumber   string  `json:"receipt_number"`
	Subtotal        float64 `gorm:"not null;default:0" json:"subtotal"`
	Tax             float64 `gorm:"not null;default:0" json:"tax"`
	TotalAmount     float64 `gorm:"not null;default:0" json:"total_amount"`
	PaymentMethod   string  `json:"payment_method"`
	Uploader        string  `json:"uploader"`
	ModelUsed       string  `json:"model_used"`
	ProcessedAt     string  `json:"processed_at"`
	ImagePath       string  `json:"image_path,omitempty"`

	Items []*ReceiptItem `gorm:"foreignKey:ReceiptID;constraint:OnDelete:CASCADE" json:"items"`
	Timestamp
}

type ReceiptItem struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	ReceiptID   uint    `gorm:"index;not null" json:"receipt_id"`
	Name        string  `json:"name"`
	Category    string  `gorm:"not null" json:"category"`
	Subcategory string  `json:"subcategory"`
	Quantity    int     `gorm:"not null;default:1" json:"quantity"`
	UnitPrice   float64 `gorm:"not null;default:0" json:"unit_price"`
	TotalPrice  float64 `gorm:"not null;default:0" json:"total_price"`

	Timestamp
}
