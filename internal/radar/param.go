package radar

// ValueType classifies a raw value.
type ValueType int

const (
	// Nodata marks a location that was not scanned.
	Nodata ValueType = iota
	// Undetect marks a scanned location where nothing was detected.
	Undetect
	// Data marks a measured value.
	Data
)

func (v ValueType) String() string {
	switch v {
	case Undetect:
		return "UNDETECT"
	case Data:
		return "DATA"
	default:
		return "NODATA"
	}
}

// Param is one measured quantity of a scan, e.g. DBZH or TH.
type Param struct {
	Quantity      string     `json:"quantity"`
	Gain          float64    `json:"gain"`
	Offset        float64    `json:"offset"`
	Nodata        float64    `json:"nodata"`
	Undetect      float64    `json:"undetect"`
	Rays          int        `json:"rays"`
	Bins          int        `json:"bins"`
	Data          []float64  `json:"data"`
	QualityFields FieldSet   `json:"quality_fields,omitempty"`
	Attrs         Attributes `json:"attrs,omitempty"`
}

// NewParam creates a parameter filled with the nodata value.
func NewParam(quantity string, rays, bins int, gain, offset, nodata, undetect float64) *Param {
	p := &Param{
		Quantity: quantity,
		Gain:     gain,
		Offset:   offset,
		Nodata:   nodata,
		Undetect: undetect,
		Rays:     rays,
		Bins:     bins,
		Data:     make([]float64, rays*bins),
		Attrs:    Attributes{},
	}
	for i := range p.Data {
		p.Data[i] = nodata
	}
	return p
}

// Raw returns the stored value at (ray, bin).
func (p *Param) Raw(ray, bin int) float64 {
	return p.Data[ray*p.Bins+bin]
}

// SetRaw stores a raw value at (ray, bin).
func (p *Param) SetRaw(ray, bin int, v float64) {
	p.Data[ray*p.Bins+bin] = v
}

// Classify returns the value type of a raw value.
func (p *Param) Classify(raw float64) ValueType {
	switch raw {
	case p.Nodata:
		return Nodata
	case p.Undetect:
		return Undetect
	default:
		return Data
	}
}

// Value returns the value type and converted value at (ray, bin). The
// converted value is only meaningful for Data.
func (p *Param) Value(ray, bin int) (ValueType, float64) {
	raw := p.Raw(ray, bin)
	return p.Classify(raw), raw*p.Gain + p.Offset
}

// SetValue encodes a converted value at (ray, bin).
func (p *Param) SetValue(ray, bin int, v float64) {
	p.SetRaw(ray, bin, (v-p.Offset)/p.Gain)
}

// Clone returns a deep copy including quality fields.
func (p *Param) Clone() *Param {
	c := *p
	c.Data = append([]float64(nil), p.Data...)
	c.Attrs = p.Attrs.Clone()
	c.QualityFields = make(FieldSet, len(p.QualityFields))
	for i, f := range p.QualityFields {
		c.QualityFields[i] = f.Clone()
	}
	return &c
}
