package preview

import "github.com/solfactory/cone-renderer/texture"

// Slot owns the texture clone bound to one mesh. The base it clones from is
// shared and never disposed here.
type Slot struct {
	base     *texture.Resource
	repeatU  float64
	repeatV  float64
	clone    *texture.Resource
	created  int
	disposed int
}

// Sync makes the slot's map a clone of base tiled repeatU×repeatV. When
// base or the repeat factors change, the old clone is disposed before the
// new one replaces it. A nil base leaves the mesh with no map.
func (s *Slot) Sync(base *texture.Resource, repeatU, repeatV float64) *texture.Resource {
	if base == s.base && repeatU == s.repeatU && repeatV == s.repeatV {
		return s.clone
	}
	s.drop()
	s.base, s.repeatU, s.repeatV = base, repeatU, repeatV
	if base != nil {
		s.clone = base.Clone()
		s.clone.SetRepeat(repeatU, repeatV)
		s.created++
	}
	return s.clone
}

// Release disposes the current clone.
func (s *Slot) Release() {
	s.drop()
	s.base = nil
}

func (s *Slot) drop() {
	if s.clone != nil {
		s.clone.Dispose()
		s.disposed++
		s.clone = nil
	}
}

// Map is the clone currently bound to the mesh.
func (s *Slot) Map() *texture.Resource { return s.clone }

func (s *Slot) Created() int { return s.created }

func (s *Slot) Disposed() int { return s.disposed }
