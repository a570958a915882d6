package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaletteIndex_PriorityLabels(t *testing.T) {
	tests := []struct {
		category string
		want     int
	}{
		{"食品・飲料", 0},
		{"食料品", 0},
		{"外食", 14},
		{"カフェ", 14},
		{"日用品・雑貨", 1},
		{"その他", 11},
		{"交通", 8},
		{"ガソリン", 8},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PaletteIndex(tt.category), "PaletteIndex(%q)", tt.category)
	}
}

func TestPaletteIndex_UnknownLabelIsStable(t *testing.T) {
	first := PaletteIndex("手作り市")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, PaletteIndex("手作り市"))
	}
	assert.GreaterOrEqual(t, first, 0)
	assert.Less(t, first, len(paletteTokens))
}

func TestPaletteIndex_MatchesHash(t *testing.T) {
	label := "並行輸入品"
	want := int(hashCategory(label) % uint32(len(paletteTokens)))
	assert.Equal(t, want, PaletteIndex(label))
}

func TestStyleFor(t *testing.T) {
	assert.Equal(t, paletteTokens[0], StyleFor("食品・飲料"))
	assert.Equal(t, paletteTokens[0], StyleFor("  食品・飲料  "))
	assert.Equal(t, FallbackStyle, StyleFor(""))
	assert.Equal(t, FallbackStyle, StyleFor("   "))
}

func TestBadgeClasses(t *testing.T) {
	assert.Equal(t, "bg-matcha-50 text-matcha-700 border border-matcha-200", BadgeClasses("食品・飲料"))
	assert.Equal(t, "bg-zinc-100 text-zinc-700 border border-zinc-200", BadgeClasses(""))
}
