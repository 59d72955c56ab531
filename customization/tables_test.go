package customization

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePaperColor(t *testing.T) {
	assert.Equal(t, "#9FAF8A", ResolvePaperColor(State{}), "unselected paper uses hemp")
	assert.Equal(t, "#9FAF8A", ResolvePaperColor(State{PaperType: PaperHemp}))
	assert.Equal(t, "#F5F5F0", ResolvePaperColor(State{PaperType: PaperRice}))
	assert.Equal(t, "#9FAF8A", ResolvePaperColor(State{PaperType: "silk"}))
	assert.Equal(t, "#112233", ResolvePaperColor(State{PaperType: PaperColored, PaperColorHex: "#112233"}))
}

func TestResolveFilterColor(t *testing.T) {
	assert.Equal(t, "#CBD5F5", ResolveFilterColor(State{}))
	assert.Equal(t, "#A5F3FC", ResolveFilterColor(State{FilterType: FilterGlass}))
	assert.Equal(t, "#ff0000", ResolveFilterColor(State{FilterType: FilterGlass, FilterColorHex: "#ff0000"}))
}

func TestMaterialTablesVaryByType(t *testing.T) {
	seen := map[float64]bool{}
	for _, p := range PaperTypes {
		seen[PaperRoughness(p)] = true
		assert.Greater(t, PaperRoughness(p), 0.0)
		assert.Greater(t, PaperMetalness(p), 0.0)
	}
	assert.Greater(t, len(seen), 3)

	assert.Equal(t, DefaultPaperRoughness, PaperRoughness(""))
	assert.Equal(t, DefaultPaperMetalness, PaperMetalness(""))
	assert.Equal(t, 0.85, PaperOpacity(PaperRice))
	assert.Equal(t, 1.0, PaperOpacity(PaperHemp))

	assert.Equal(t, 0.6, FilterMetalness(FilterGlass))
	assert.Equal(t, 0.18, FilterMetalness(FilterFolded))
	assert.Equal(t, FilterMetalness(FilterFolded), FilterMetalness(""))
	metals := map[float64]FilterType{}
	for _, f := range FilterTypes {
		metals[FilterMetalness(f)] = f
	}
	assert.Len(t, metals, len(FilterTypes))
	assert.Equal(t, 0.7, FilterOpacity(FilterGlass))
	assert.Less(t, FilterRoughness(true), FilterRoughness(false))
}

func TestSizeScaleAndRepeat(t *testing.T) {
	assert.Equal(t, 1.0, SizeScale(""))
	assert.Equal(t, 1.25, SizeScale(Size109))
	assert.Equal(t, 1.0, VRepeat(0.3))
	assert.Equal(t, 3.0, VRepeat(2.64))
}

func TestPaperOrDefault(t *testing.T) {
	assert.Equal(t, PaperHemp, PaperOrDefault(""))
	assert.Equal(t, PaperBamboo, PaperOrDefault(PaperBamboo))
}
