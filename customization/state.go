// Package customization describes the cone a customer is building: the
// selections the build wizard collects and the lookup tables that turn
// those selections into colors and material parameters.
package customization

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidColor = errors.New("invalid hex color")
	ErrUnknownEnum  = errors.New("unknown option")
)

type PaperType string

const (
	PaperUnbleached PaperType = "unbleached"
	PaperHemp       PaperType = "hemp"
	PaperBleached   PaperType = "bleached"
	PaperColored    PaperType = "colored"
	PaperRice       PaperType = "rice"
	PaperBamboo     PaperType = "bamboo"
)

// PaperTypes lists every paper in wizard order.
var PaperTypes = []PaperType{PaperUnbleached, PaperHemp, PaperBleached, PaperColored, PaperRice, PaperBamboo}

type FilterType string

const (
	FilterFolded  FilterType = "folded"
	FilterSpiral  FilterType = "spiral"
	FilterCeramic FilterType = "ceramic"
	FilterGlass   FilterType = "glass"
)

var FilterTypes = []FilterType{FilterFolded, FilterSpiral, FilterCeramic, FilterGlass}

type ConeSize string

const (
	Size70  ConeSize = "70mm"
	Size84  ConeSize = "84mm"
	Size98  ConeSize = "98mm"
	Size109 ConeSize = "109mm"
)

var ConeSizes = []ConeSize{Size70, Size84, Size98, Size109}

// Valid reports whether p is a known paper. The empty value means "not
// selected yet" and is not valid.
func (p PaperType) Valid() bool {
	_, ok := paperColors[p]
	return ok
}

func (f FilterType) Valid() bool {
	_, ok := filterColors[f]
	return ok
}

func (s ConeSize) Valid() bool {
	_, ok := sizeScales[s]
	return ok
}

// State is the in-progress configuration owned by the wizard. Every field is
// optional; an empty enum means the customer has not chosen yet.
type State struct {
	PaperType        PaperType  `json:"paperType,omitempty"`
	PaperColorHex    string     `json:"paperColorHex,omitempty"`
	PaperTextureURL  string     `json:"paperTextureUrl,omitempty"`
	FilterType       FilterType `json:"filterType,omitempty"`
	FilterColorHex   string     `json:"filterColorHex,omitempty"`
	FilterTextureURL string     `json:"filterTextureUrl,omitempty"`
	ConeSize         ConeSize   `json:"coneSize,omitempty"`
	LotSize          LotSize    `json:"lotSize,omitempty"`
}

// Validate rejects values the wizard could never have produced. Presenters
// do not call it: they fall back to defaults for anything unrecognised.
func (s State) Validate() error {
	if s.PaperType != "" && !s.PaperType.Valid() {
		return fmt.Errorf("paper type %q: %w", s.PaperType, ErrUnknownEnum)
	}
	if s.FilterType != "" && !s.FilterType.Valid() {
		return fmt.Errorf("filter type %q: %w", s.FilterType, ErrUnknownEnum)
	}
	if s.ConeSize != "" && !s.ConeSize.Valid() {
		return fmt.Errorf("cone size %q: %w", s.ConeSize, ErrUnknownEnum)
	}
	if s.LotSize != "" && !s.LotSize.Valid() {
		return fmt.Errorf("lot size %q: %w", s.LotSize, ErrUnknownEnum)
	}
	if s.PaperColorHex != "" && !validHex(s.PaperColorHex) {
		return fmt.Errorf("paper color %q: %w", s.PaperColorHex, ErrInvalidColor)
	}
	if s.FilterColorHex != "" && !validHex(s.FilterColorHex) {
		return fmt.Errorf("filter color %q: %w", s.FilterColorHex, ErrInvalidColor)
	}
	return nil
}

func validHex(x string) bool {
	x = strings.TrimPrefix(x, "#")
	if len(x) != 3 && len(x) != 6 {
		return false
	}
	for _, c := range x {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// Change is a bitmask of the fields that differ between two states.
type Change uint8

const (
	PaperChanged Change = 1 << iota
	PaperTextureChanged
	FilterChanged
	FilterTextureChanged
	SizeChanged
	LotChanged
)

// Has reports whether any of the bits in c are set.
func (c Change) Has(bits Change) bool {
	return c&bits != 0
}

// Diff compares s to prev.
func (s State) Diff(prev State) Change {
	var c Change
	if s.PaperType != prev.PaperType || s.PaperColorHex != prev.PaperColorHex {
		c |= PaperChanged
	}
	if s.PaperTextureURL != prev.PaperTextureURL {
		c |= PaperTextureChanged
	}
	if s.FilterType != prev.FilterType || s.FilterColorHex != prev.FilterColorHex {
		c |= FilterChanged
	}
	if s.FilterTextureURL != prev.FilterTextureURL {
		c |= FilterTextureChanged
	}
	if s.ConeSize != prev.ConeSize {
		c |= SizeChanged
	}
	if s.LotSize != prev.LotSize {
		c |= LotChanged
	}
	return c
}

// SharedTexture reports whether paper and filter point at the same image.
func (s State) SharedTexture() bool {
	return s.PaperTextureURL != "" && s.PaperTextureURL == s.FilterTextureURL
}
