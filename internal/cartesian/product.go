// Package cartesian models composite output rasters.
package cartesian

import (
	"fmt"

	"github.com/couchcryptid/radar-composite/internal/radar"
)

// Parameter is one quantity of a Cartesian product.
type Parameter struct {
	Quantity      string           `json:"quantity"`
	Gain          float64          `json:"gain"`
	Offset        float64          `json:"offset"`
	Nodata        float64          `json:"nodata"`
	Undetect      float64          `json:"undetect"`
	XSize         int              `json:"xsize"`
	YSize         int              `json:"ysize"`
	Data          []float64        `json:"data"`
	Attrs         radar.Attributes `json:"attrs,omitempty"`
	QualityFields []*Field         `json:"quality_fields,omitempty"`
}

// NewParameter creates a parameter filled with nodata.
func NewParameter(quantity string, xsize, ysize int, gain, offset, nodata, undetect float64) *Parameter {
	p := &Parameter{
		Quantity: quantity,
		Gain:     gain,
		Offset:   offset,
		Nodata:   nodata,
		Undetect: undetect,
		XSize:    xsize,
		YSize:    ysize,
		Data:     make([]float64, xsize*ysize),
		Attrs:    radar.Attributes{},
	}
	for i := range p.Data {
		p.Data[i] = nodata
	}
	return p
}

// Raw returns the stored value at (x, y).
func (p *Parameter) Raw(x, y int) float64 { return p.Data[y*p.XSize+x] }

// SetRaw stores a raw value at (x, y).
func (p *Parameter) SetRaw(x, y int, v float64) { p.Data[y*p.XSize+x] = v }

// Classify returns the value type of a raw value.
func (p *Parameter) Classify(raw float64) radar.ValueType {
	switch raw {
	case p.Nodata:
		return radar.Nodata
	case p.Undetect:
		return radar.Undetect
	default:
		return radar.Data
	}
}

// Value returns the value type and converted value at (x, y).
func (p *Parameter) Value(x, y int) (radar.ValueType, float64) {
	raw := p.Raw(x, y)
	return p.Classify(raw), raw*p.Gain + p.Offset
}

// SetValue encodes a converted value at (x, y).
func (p *Parameter) SetValue(x, y int, v float64) {
	p.SetRaw(x, y, (v-p.Offset)/p.Gain)
}

// Clone returns a deep copy.
func (p *Parameter) Clone() *Parameter {
	c := *p
	c.Data = append([]float64(nil), p.Data...)
	c.Attrs = p.Attrs.Clone()
	c.QualityFields = make([]*Field, len(p.QualityFields))
	for i, f := range p.QualityFields {
		c.QualityFields[i] = f.Clone()
	}
	return &c
}

// Field is a Cartesian quality field identified by how/task.
type Field struct {
	Attrs radar.Attributes `json:"attrs"`
	XSize int              `json:"xsize"`
	YSize int              `json:"ysize"`
	Data  []float64        `json:"data"`
}

// NewField creates a zero-filled field.
func NewField(task string, xsize, ysize int, gain, offset float64) *Field {
	return &Field{
		Attrs: radar.Attributes{
			radar.AttrTask:   task,
			radar.AttrGain:   gain,
			radar.AttrOffset: offset,
		},
		XSize: xsize,
		YSize: ysize,
		Data:  make([]float64, xsize*ysize),
	}
}

// Task returns the how/task identifier.
func (f *Field) Task() string {
	s, _ := f.Attrs.String(radar.AttrTask)
	return s
}

// Gain returns what/gain, defaulting to 1.
func (f *Field) Gain() float64 { return f.Attrs.FloatOr(radar.AttrGain, 1) }

// Offset returns what/offset, defaulting to 0.
func (f *Field) Offset() float64 { return f.Attrs.FloatOr(radar.AttrOffset, 0) }

// Raw returns the stored value at (x, y).
func (f *Field) Raw(x, y int) float64 { return f.Data[y*f.XSize+x] }

// SetRaw stores a raw value at (x, y).
func (f *Field) SetRaw(x, y int, v float64) { f.Data[y*f.XSize+x] = v }

// Value returns the converted value at (x, y).
func (f *Field) Value(x, y int) float64 { return f.Raw(x, y)*f.Gain() + f.Offset() }

// SetValue encodes a converted value at (x, y).
func (f *Field) SetValue(x, y int, v float64) { f.SetRaw(x, y, (v-f.Offset())/f.Gain()) }

// Clone returns a deep copy.
func (f *Field) Clone() *Field {
	c := *f
	c.Attrs = f.Attrs.Clone()
	c.Data = append([]float64(nil), f.Data...)
	return &c
}

// Product is a composite raster with one or more parameters.
type Product struct {
	Source      string           `json:"source"`
	Date        string           `json:"date"`
	Time        string           `json:"time"`
	ProductType string           `json:"product"`
	AreaID      string           `json:"area_id"`
	Projection  string           `json:"projection"`
	XSize       int              `json:"xsize"`
	YSize       int              `json:"ysize"`
	XScale      float64          `json:"xscale"`
	YScale      float64          `json:"yscale"`
	LLX         float64          `json:"llx"`
	LLY         float64          `json:"lly"`
	URX         float64          `json:"urx"`
	URY         float64          `json:"ury"`
	Params      []*Parameter     `json:"params"`
	Default     string           `json:"default_parameter"`
	Attrs       radar.Attributes `json:"attrs,omitempty"`

	// QualityFields are product level fields shared by all parameters.
	QualityFields []*Field `json:"quality_fields,omitempty"`
}

// AddParameter attaches p. The first parameter becomes the default.
func (p *Product) AddParameter(param *Parameter) error {
	if param.XSize != p.XSize || param.YSize != p.YSize {
		return fmt.Errorf("parameter %s size %dx%d does not match product %dx%d",
			param.Quantity, param.XSize, param.YSize, p.XSize, p.YSize)
	}
	for i, existing := range p.Params {
		if existing.Quantity == param.Quantity {
			p.Params[i] = param
			return nil
		}
	}
	p.Params = append(p.Params, param)
	if p.Default == "" {
		p.Default = param.Quantity
	}
	return nil
}

// Parameter returns the parameter for quantity, or nil.
func (p *Product) Parameter(quantity string) *Parameter {
	for _, param := range p.Params {
		if param.Quantity == quantity {
			return param
		}
	}
	return nil
}

// DefaultParameter returns the default parameter, or nil.
func (p *Product) DefaultParameter() *Parameter { return p.Parameter(p.Default) }

// FindQualityField looks up a field by task on the parameter for quantity and
// then on the product.
func (p *Product) FindQualityField(quantity, task string) *Field {
	if param := p.Parameter(quantity); param != nil {
		for _, f := range param.QualityFields {
			if f.Task() == task {
				return f
			}
		}
	}
	for _, f := range p.QualityFields {
		if f.Task() == task {
			return f
		}
	}
	return nil
}

// PutQualityField attaches f at product level, replacing a field with the same task.
func (p *Product) PutQualityField(f *Field) {
	task := f.Task()
	for i, existing := range p.QualityFields {
		if existing.Task() == task {
			p.QualityFields[i] = f
			return
		}
	}
	p.QualityFields = append(p.QualityFields, f)
}
