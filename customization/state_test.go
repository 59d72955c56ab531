package customization

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateJSONNullsMeanUnselected(t *testing.T) {
	var s State
	err := json.Unmarshal([]byte(`{"paperType":null,"filterType":"glass","paperTextureUrl":null,"coneSize":"98mm"}`), &s)
	require.NoError(t, err)

	assert.Equal(t, PaperType(""), s.PaperType)
	assert.Equal(t, FilterGlass, s.FilterType)
	assert.Equal(t, Size98, s.ConeSize)
	assert.Empty(t, s.PaperTextureURL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		state State
		err   error
	}{
		{"empty", State{}, nil},
		{"full", State{PaperType: PaperRice, PaperColorHex: "#112233", FilterType: FilterSpiral, FilterColorHex: "abc", ConeSize: Size109, LotSize: LotStarter}, nil},
		{"bad paper", State{PaperType: "silk"}, ErrUnknownEnum},
		{"bad filter", State{FilterType: "carbon"}, ErrUnknownEnum},
		{"bad size", State{ConeSize: "12mm"}, ErrUnknownEnum},
		{"bad lot", State{LotSize: "pallet"}, ErrUnknownEnum},
		{"bad paper color", State{PaperColorHex: "#12345"}, ErrInvalidColor},
		{"bad filter color", State{FilterColorHex: "#zzzzzz"}, ErrInvalidColor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.state.Validate()
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestDiff(t *testing.T) {
	prev := State{PaperType: PaperHemp, FilterTextureURL: "https://x/a.png", ConeSize: Size84}

	assert.Equal(t, Change(0), prev.Diff(prev))

	next := prev
	next.FilterTextureURL = "https://x/b.png"
	c := next.Diff(prev)
	assert.True(t, c.Has(FilterTextureChanged))
	assert.False(t, c.Has(PaperChanged|PaperTextureChanged|SizeChanged))

	next.PaperColorHex = "#000"
	next.ConeSize = Size109
	next.LotSize = LotBusiness
	c = next.Diff(prev)
	assert.True(t, c.Has(PaperChanged))
	assert.True(t, c.Has(SizeChanged))
	assert.True(t, c.Has(LotChanged))
}

func TestSharedTexture(t *testing.T) {
	assert.False(t, State{}.SharedTexture())
	assert.False(t, State{PaperTextureURL: "a", FilterTextureURL: "b"}.SharedTexture())
	assert.True(t, State{PaperTextureURL: "a", FilterTextureURL: "a"}.SharedTexture())
}

func TestLotTier(t *testing.T) {
	tier, ok := LotWholesale.Tier()
	require.True(t, ok)
	assert.Equal(t, 100000, tier.Quantity)

	_, ok = LotSize("").Tier()
	assert.False(t, ok)
}
