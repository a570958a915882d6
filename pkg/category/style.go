package category

import (
	"strings"
	"sync"
)

// Style is the badge color token set for one category label.
type Style struct {
	Bg     string `json:"bg"`
	Text   string `json:"text"`
	Border string `json:"border"`
}

var FallbackStyle = Style{Bg: "bg-zinc-100", Text: "text-zinc-700", Border: "border-zinc-200"}

var paletteTokens = []Style{
	{Bg: "bg-matcha-50", Text: "text-matcha-700", Border: "border-matcha-200"},
	{Bg: "bg-teal-50", Text: "text-teal-700", Border: "border-teal-200"},
	{Bg: "bg-sakura-50", Text: "text-sakura-700", Border: "border-sakura-200"},
	{Bg: "bg-indigo-50", Text: "text-indigo-700", Border: "border-indigo-200"},
	{Bg: "bg-amber-50", Text: "text-amber-700", Border: "border-amber-200"},
	{Bg: "bg-sky-50", Text: "text-sky-700", Border: "border-sky-200"},
	{Bg: "bg-rose-50", Text: "text-rose-700", Border: "border-rose-200"},
	{Bg: "bg-purple-50", Text: "text-purple-700", Border: "border-purple-200"},
	{Bg: "bg-lime-50", Text: "text-lime-700", Border: "border-lime-200"},
	{Bg: "bg-emerald-50", Text: "text-emerald-700", Border: "border-emerald-200"},
	{Bg: "bg-cyan-50", Text: "text-cyan-700", Border: "border-cyan-200"},
	{Bg: "bg-blue-50", Text: "text-blue-700", Border: "border-blue-200"},
	{Bg: "bg-fuchsia-50", Text: "text-fuchsia-700", Border: "border-fuchsia-200"},
	{Bg: "bg-orange-50", Text: "text-orange-700", Border: "border-orange-200"},
	{Bg: "bg-stone-50", Text: "text-stone-700", Border: "border-stone-200"},
	{Bg: "bg-slate-50", Text: "text-slate-700", Border: "border-slate-200"},
	{Bg: "bg-rose-100", Text: "text-rose-700", Border: "border-rose-300"},
	{Bg: "bg-indigo-100", Text: "text-indigo-800", Border: "border-indigo-300"},
	{Bg: "bg-emerald-100", Text: "text-emerald-800", Border: "border-emerald-300"},
	{Bg: "bg-amber-100", Text: "text-amber-800", Border: "border-amber-300"},
}

// Known labels keep fixed palette slots so related categories stay
// visually grouped; anything else gets a stable hashed slot.
var categoryPriorities = map[string]int{
	"食品・飲料":          0,
	"外食":             14,
	"レストラン":          14,
	"カフェ":            14,
	"ファストフード":        14,
	"テイクアウト・デリバリー":   14,
	"テイクアウト":         14,
	"デリバリー":          14,
	"日用品・雑貨":         1,
	"医薬品・健康":         2,
	"衣類・ファッション":      3,
	"家電・電子機器":        4,
	"書籍・メディア":        5,
	"光熱費":            6,
	"通信・サービス":        7,
	"交通":             8,
	"開発・個人プロジェクト":    9,
	"割引":             10,
	"その他":            11,
	"エンタメ":           12,
	"娯楽":             12,
	"教育":             13,
	"学習":             13,
	"医療":             2,
	"ヘルスケア":          2,
	"ギフト":            11,
	"ギフト・プレゼント":      11,
	"ペット用品":          11,
	"園芸用品":           11,
	"ファッション":         3,
	"光熱費・公共料金":       6,
	"通信":             7,
	"インターネット":        7,
	"電話・携帯":          7,
	"ソフトウェア":         9,
	"学習・イベント参加費":     9,
	"値引き":            10,
	"クーポン":           10,
	"ポイント利用":         10,
	"公共交通機関":         8,
	"タクシー・ライドシェア":    8,
	"ガソリン":           8,
	"エネルギー":          6,
	"家賃":             6,
	"住居":             6,
	"生活用品":           1,
	"食料品":            0,
	"食品":             0,
	"駐車場":            8,
}

// Hashed assignments are memoized per process: populated lazily, never
// evicted, reset only on restart.
var (
	assignMu            sync.Mutex
	computedAssignments = map[string]int{}
)

// hashCategory is a djb2-style string hash; it must stay stable because
// palette slots of unknown categories derive from it.
func hashCategory(category string) uint32 {
	var hash uint32
	for _, r := range category {
		hash = hash*33 + uint32(r)
	}
	return hash
}

// PaletteIndex maps a category label to a stable palette slot.
func PaletteIndex(category string) int {
	if priority, ok := categoryPriorities[category]; ok {
		return priority % len(paletteTokens)
	}

	assignMu.Lock()
	defer assignMu.Unlock()

	if index, ok := computedAssignments[category]; ok {
		return index
	}

	index := int(hashCategory(category) % uint32(len(paletteTokens)))
	computedAssignments[category] = index
	return index
}

// StyleFor returns the badge tokens for a category label; blank labels
// get the neutral fallback style.
func StyleFor(category string) Style {
	trimmed := strings.TrimSpace(category)
	if trimmed == "" {
		return FallbackStyle
	}
	return paletteTokens[PaletteIndex(trimmed)]
}

// BadgeClasses renders the style as one class attribute value.
func BadgeClasses(category string) string {
	style := StyleFor(category)
	return strings.Join([]string{style.Bg, style.Text, "border", style.Border}, " ")
}
