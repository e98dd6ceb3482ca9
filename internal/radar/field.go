package radar

import "fmt"

// Field is a quality raster attached to a scan or parameter. It shares the
// ray/bin dimensions of its host and is identified by its how/task attribute.
type Field struct {
	Attrs Attributes `json:"attrs"`
	Rays  int        `json:"rays"`
	Bins  int        `json:"bins"`
	Data  []float64  `json:"data"`
}

// NewField creates a zero-filled field tagged with task, gain and offset.
func NewField(task string, rays, bins int, gain, offset float64) *Field {
	return &Field{
		Attrs: Attributes{
			AttrTask:   task,
			AttrGain:   gain,
			AttrOffset: offset,
		},
		Rays: rays,
		Bins: bins,
		Data: make([]float64, rays*bins),
	}
}

// Task returns the how/task identifier.
func (f *Field) Task() string {
	s, _ := f.Attrs.String(AttrTask)
	return s
}

// Gain returns what/gain, defaulting to 1.
func (f *Field) Gain() float64 { return f.Attrs.FloatOr(AttrGain, 1) }

// Offset returns what/offset, defaulting to 0.
func (f *Field) Offset() float64 { return f.Attrs.FloatOr(AttrOffset, 0) }

// Raw returns the stored value at (ray, bin).
func (f *Field) Raw(ray, bin int) float64 {
	return f.Data[ray*f.Bins+bin]
}

// SetRaw stores a raw value at (ray, bin).
func (f *Field) SetRaw(ray, bin int, v float64) {
	f.Data[ray*f.Bins+bin] = v
}

// Value returns the converted value raw*gain+offset at (ray, bin).
func (f *Field) Value(ray, bin int) float64 {
	return f.Raw(ray, bin)*f.Gain() + f.Offset()
}

// SetValue stores a converted value, encoding it with the field's gain and offset.
func (f *Field) SetValue(ray, bin int, v float64) {
	f.SetRaw(ray, bin, (v-f.Offset())/f.Gain())
}

// Clone returns a deep copy.
func (f *Field) Clone() *Field {
	c := *f
	c.Attrs = f.Attrs.Clone()
	c.Data = append([]float64(nil), f.Data...)
	return &c
}

// FieldSet is an ordered collection of quality fields with at most one field
// per task.
type FieldSet []*Field

// Find returns the field with the given task, or nil.
func (s FieldSet) Find(task string) *Field {
	for _, f := range s {
		if f.Task() == task {
			return f
		}
	}
	return nil
}

// Put inserts f, replacing any existing field with the same task in place.
func (s *FieldSet) Put(f *Field) {
	task := f.Task()
	for i, existing := range *s {
		if existing.Task() == task {
			(*s)[i] = f
			return
		}
	}
	*s = append(*s, f)
}

// Remove deletes the field with the given task and reports whether it existed.
func (s *FieldSet) Remove(task string) bool {
	for i, existing := range *s {
		if existing.Task() == task {
			*s = append((*s)[:i], (*s)[i+1:]...)
			return true
		}
	}
	return false
}

func checkDims(what string, rays, bins, wantRays, wantBins int) error {
	if rays != wantRays || bins != wantBins {
		return fmt.Errorf("%s dimensions %dx%d do not match scan %dx%d", what, rays, bins, wantRays, wantBins)
	}
	return nil
}
