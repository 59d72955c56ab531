package customization

import "math"

// Defaults used when nothing is selected or the value is unrecognised.
const (
	DefaultPaper           = PaperHemp
	DefaultFilter          = FilterFolded
	DefaultPaperRoughness  = 0.85
	DefaultPaperMetalness  = 0.03
	DefaultFilterMetalness = 0.18
)

var paperColors = map[PaperType]string{
	PaperUnbleached: "#8B6F47",
	PaperHemp:       "#9FAF8A",
	PaperBleached:   "#F9FAFB",
	PaperColored:    "#F97316",
	PaperRice:       "#F5F5F0",
	PaperBamboo:     "#D4C4A8",
}

var filterColors = map[FilterType]string{
	FilterFolded:  "#CBD5F5",
	FilterSpiral:  "#0EA5E9",
	FilterCeramic: "#F9FAFB",
	FilterGlass:   "#A5F3FC",
}

var paperRoughness = map[PaperType]float64{
	PaperUnbleached: 0.9,
	PaperHemp:       0.85,
	PaperBleached:   0.7,
	PaperColored:    0.72,
	PaperRice:       0.6,
	PaperBamboo:     0.88,
}

var paperMetalness = map[PaperType]float64{
	PaperRice:       0.08,
	PaperBleached:   0.05,
	PaperColored:    0.04,
	PaperHemp:       0.03,
	PaperUnbleached: 0.02,
	PaperBamboo:     0.02,
}

var filterMetalness = map[FilterType]float64{
	FilterFolded:  0.18,
	FilterSpiral:  0.24,
	FilterCeramic: 0.08,
	FilterGlass:   0.6,
}

var sizeScales = map[ConeSize]float64{
	Size70:  0.8,
	Size84:  0.95,
	Size98:  1.1,
	Size109: 1.25,
}

// PaperOrDefault returns p, or hemp when p is empty or unknown.
func PaperOrDefault(p PaperType) PaperType {
	if p.Valid() {
		return p
	}
	return DefaultPaper
}

// ResolvePaperColor returns the override, else the table entry for the
// selected paper, else hemp's entry.
func ResolvePaperColor(s State) string {
	if s.PaperColorHex != "" {
		return s.PaperColorHex
	}
	return paperColors[PaperOrDefault(s.PaperType)]
}

// ResolveFilterColor returns the override, else the table entry, else the
// folded filter's entry.
func ResolveFilterColor(s State) string {
	if s.FilterColorHex != "" {
		return s.FilterColorHex
	}
	if c, ok := filterColors[s.FilterType]; ok {
		return c
	}
	return filterColors[DefaultFilter]
}

func PaperRoughness(p PaperType) float64 {
	if r, ok := paperRoughness[p]; ok {
		return r
	}
	return DefaultPaperRoughness
}

func PaperMetalness(p PaperType) float64 {
	if m, ok := paperMetalness[p]; ok {
		return m
	}
	return DefaultPaperMetalness
}

// PaperOpacity is below one only for rice paper, which reads as translucent.
func PaperOpacity(p PaperType) float64 {
	if p == PaperRice {
		return 0.85
	}
	return 1
}

// FilterRoughness is lower when an image is printed on the filter.
func FilterRoughness(textured bool) float64 {
	if textured {
		return 0.45
	}
	return 0.6
}

// FilterMetalness falls back to the folded filter's entry.
func FilterMetalness(f FilterType) float64 {
	if m, ok := filterMetalness[f]; ok {
		return m
	}
	return DefaultFilterMetalness
}

func FilterOpacity(f FilterType) float64 {
	if f == FilterGlass {
		return 0.7
	}
	return 1
}

// SizeScale is the geometry multiplier for a cone length; 1 when unset.
func SizeScale(s ConeSize) float64 {
	if v, ok := sizeScales[s]; ok {
		return v
	}
	return 1
}

// VRepeat is the tiling heuristic shared by every presenter: one tile per
// unit of length, never fewer than one.
func VRepeat(length float64) float64 {
	return math.Max(1, math.Round(length))
}
