package extraction

import (
	"Harina-Web-Backend/domain"
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Strategy records which parsing path produced an extraction result.
type Strategy string

const (
	StrategyStructured Strategy = "structured"
	StrategyRegex      Strategy = "regex"
)

const (
	DefaultStoreName     = "Unknown Store"
	DefaultItemName      = "Unknown Item"
	DefaultCategory      = "その他"
	DefaultPaymentMethod = "Unknown"

	// PlaceholderStoreName labels receipts persisted when extraction
	// failed entirely so the user still gets a record to correct.
	PlaceholderStoreName = "解析失敗"
)

type (
	xmlStoreInfo struct {
		Name    string `xml:"n"`
		Address string `xml:"address"`
		Phone   string `xml:"phone"`
	}

	xmlTransactionInfo struct {
		Date          string `xml:"date"`
		Time          string `xml:"time"`
		ReceiptNumber string `xml:"receipt_number"`
	}

	xmlTotals struct {
		Subtotal string `xml:"subtotal"`
		Tax      string `xml:"tax"`
		Total    string `xml:"total"`
	}

	xmlPaymentInfo struct {
		Method string `xml:"method"`
	}

	xmlItem struct {
		Name        string `xml:"n"`
		Category    string `xml:"category"`
		Subcategory string `xml:"subcategory"`
		Quantity    string `xml:"quantity"`
		UnitPrice   string `xml:"unit_price"`
		TotalPrice  string `xml:"total_price"`
	}

	xmlReceipt struct {
		XMLName         xml.Name           `xml:"receipt"`
		StoreInfo       xmlStoreInfo       `xml:"store_info"`
		TransactionInfo xmlTransactionInfo `xml:"transaction_info"`
		Totals          xmlTotals          `xml:"totals"`
		PaymentInfo     xmlPaymentInfo     `xml:"payment_info"`
		Items           struct {
			Item []xmlItem `xml:"item"`
		} `xml:"items"`
	}
)

var (
	misclosedCategoryRe = regexp.MustCompile(`<category>([^<]*)</string>`)

	tagValueRes  = map[string]*regexp.Regexp{}
	itemBlockRe  = regexp.MustCompile(`(?s)<items>(.*?)</items>`)
	itemChunkRe  = regexp.MustCompile(`(?s)<item>(.*?)</item>`)
	leadingNumRe = regexp.MustCompile(`^-?\d+(?:\.\d+)?`)
	leadingIntRe = regexp.MustCompile(`^-?\d+`)
)

func init() {
	for _, tag := range []string{
		"n", "address", "phone", "date", "time", "receipt_number",
		"subtotal", "tax", "total", "method",
		"category", "subcategory", "quantity", "unit_price", "total_price",
	} {
		tagValueRes[tag] = regexp.MustCompile(fmt.Sprintf(`(?s)<%s>(.*?)</%s>`, tag, tag))
	}
}

// Extract parses the raw markup returned by the extraction service into a
// normalized receipt record. The structured strategy is tried first; when
// it cannot decode the markup, the regex strategy scans the raw text
// directly. It errors only when neither strategy can produce a skeleton.
func Extract(rawText, filename, imagePath string) (domain.ExtractionResult, Strategy, error) {
	result, err := parseStructured(rawText, filename, imagePath)
	if err == nil {
		return result, StrategyStructured, nil
	}

	if strings.TrimSpace(rawText) == "" {
		return domain.ExtractionResult{}, "", fmt.Errorf("%w: empty extraction payload", domain.ErrExtractionFailed)
	}

	return parseWithRegex(rawText, filename, imagePath), StrategyRegex, nil
}

// repairXML fixes the malformations the extraction service is known to
// emit: a mis-closed </string> where </category> was meant, and literal
// unescaped ampersands.
func repairXML(rawText string) string {
	cleaned := misclosedCategoryRe.ReplaceAllString(rawText, `<category>$1</category>`)
	cleaned = strings.ReplaceAll(cleaned, "</string>", "</category>")
	return strings.ReplaceAll(cleaned, "&", "&amp;")
}

func parseStructured(rawText, filename, imagePath string) (domain.ExtractionResult, error) {
	var parsed xmlReceipt
	if err := xml.Unmarshal([]byte(repairXML(rawText)), &parsed); err != nil {
		return domain.ExtractionResult{}, err
	}

	items := make([]domain.ExtractionItem, 0, len(parsed.Items.Item))
	for _, item := range parsed.Items.Item {
		items = append(items, domain.ExtractionItem{
			Name:        stringOr(item.Name, DefaultItemName),
			Category:    stringOr(item.Category, DefaultCategory),
			Subcategory: strings.TrimSpace(item.Subcategory),
			Quantity:    parseQuantity(item.Quantity),
			UnitPrice:   parseAmount(item.UnitPrice),
			TotalPrice:  parseAmount(item.TotalPrice),
		})
	}

	return domain.ExtractionResult{
		Filename:        filename,
		StoreName:       stringOr(parsed.StoreInfo.Name, DefaultStoreName),
		StoreAddress:    strings.TrimSpace(parsed.StoreInfo.Address),
		StorePhone:      strings.TrimSpace(parsed.StoreInfo.Phone),
		TransactionDate: stringOr(parsed.TransactionInfo.Date, todayISO()),
		TransactionTime: strings.TrimSpace(parsed.TransactionInfo.Time),
		ReceiptNumber:   strings.TrimSpace(parsed.TransactionInfo.ReceiptNumber),
		Subtotal:        parseAmount(parsed.Totals.Subtotal),
		Tax:             parseAmount(parsed.Totals.Tax),
		TotalAmount:     parseAmount(parsed.Totals.Total),
		PaymentMethod:   stringOr(parsed.PaymentInfo.Method, DefaultPaymentMethod),
		Items:           items,
		ProcessedAt:     nowISO(),
		ImagePath:       imagePath,
	}, nil
}

func parseWithRegex(rawText, filename, imagePath string) domain.ExtractionResult {
	return domain.ExtractionResult{
		Filename:        filename,
		StoreName:       stringOr(extractTag(rawText, "n"), DefaultStoreName),
		StoreAddress:    extractTag(rawText, "address"),
		StorePhone:      extractTag(rawText, "phone"),
		TransactionDate: stringOr(extractTag(rawText, "date"), todayISO()),
		TransactionTime: extractTag(rawText, "time"),
		ReceiptNumber:   extractTag(rawText, "receipt_number"),
		Subtotal:        parseAmount(extractTag(rawText, "subtotal")),
		Tax:             parseAmount(extractTag(rawText, "tax")),
		TotalAmount:     parseAmount(extractTag(rawText, "total")),
		PaymentMethod:   stringOr(extractTag(rawText, "method"), DefaultPaymentMethod),
		Items:           extractItems(rawText),
		ProcessedAt:     nowISO(),
		ImagePath:       imagePath,
	}
}

func extractTag(text, tag string) string {
	match := tagValueRes[tag].FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}

func extractItems(text string) []domain.ExtractionItem {
	block := itemBlockRe.FindStringSubmatch(text)
	if block == nil {
		return []domain.ExtractionItem{}
	}

	chunks := itemChunkRe.FindAllStringSubmatch(block[1], -1)
	items := make([]domain.ExtractionItem, 0, len(chunks))
	for _, chunk := range chunks {
		itemXML := chunk[1]
		items = append(items, domain.ExtractionItem{
			Name:        stringOr(extractTag(itemXML, "n"), DefaultItemName),
			Category:    stringOr(extractTag(itemXML, "category"), DefaultCategory),
			Subcategory: extractTag(itemXML, "subcategory"),
			Quantity:    parseQuantity(extractTag(itemXML, "quantity")),
			UnitPrice:   parseAmount(extractTag(itemXML, "unit_price")),
			TotalPrice:  parseAmount(extractTag(itemXML, "total_price")),
		})
	}
	return items
}

// Placeholder builds the clearly labeled substitute record persisted when
// extraction fails on the ingestion path.
func Placeholder(filename, imagePath string) domain.ExtractionResult {
	return domain.ExtractionResult{
		Filename:        filename,
		StoreName:       PlaceholderStoreName,
		TransactionDate: todayISO(),
		PaymentMethod:   DefaultPaymentMethod,
		Items:           []domain.ExtractionItem{},
		ProcessedAt:     nowISO(),
		ImagePath:       imagePath,
	}
}

func stringOr(value, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	return trimmed
}

// parseAmount mirrors the lenient number handling of the upstream data:
// a leading numeric prefix counts, anything else defaults to 0.
func parseAmount(value string) float64 {
	match := leadingNumRe.FindString(strings.TrimSpace(value))
	if match == "" {
		return 0
	}
	amount, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return amount
}

func parseQuantity(value string) int {
	match := leadingIntRe.FindString(strings.TrimSpace(value))
	if match == "" {
		return 1
	}
	quantity, err := strconv.Atoi(match)
	if err != nil || quantity == 0 {
		return 1
	}
	return quantity
}

func todayISO() string {
	return time.Now().Format("2006-01-02")
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
