package composite

import (
	"errors"
	"fmt"
	"math"

	"github.com/couchcryptid/radar-composite/internal/cartesian"
	"github.com/couchcryptid/radar-composite/internal/geo"
	"github.com/couchcryptid/radar-composite/internal/radar"
	"gonum.org/v1/gonum/floats"
)

// Quality field tasks computed by the engine itself.
const (
	DistanceTask = "se.smhi.composite.distance.radar"
	HeightTask   = "se.smhi.composite.height.radar"
)

// Encodings of the computed quality fields.
const (
	DistanceGain = 2000.0
	HeightGain   = 100.0
)

// Output sentinels.
const (
	DefaultNodata   = 255.0
	DefaultUndetect = 0.0
)

var (
	// ErrInvalidState is returned when an operation does not fit the engine's state.
	ErrInvalidState = errors.New("composite engine: invalid state")
	// ErrAlreadyGenerated is returned by a second call to Generate.
	ErrAlreadyGenerated = errors.New("composite engine: already generated")
	// ErrNoDateTime is returned when there are no contributors and no date/time was set.
	ErrNoDateTime = errors.New("composite engine: no contributors and no date/time")
	// ErrNoParameters is returned when Generate is called without any parameter.
	ErrNoParameters = errors.New("composite engine: no parameters configured")
)

type state int

const (
	configured state = iota
	populated
	generated
)

// Engine builds one Cartesian composite from polar contributors. It moves
// from configured to populated on the first Add and to generated on
// Generate; configuration is rejected once populated and Generate runs once.
type Engine struct {
	state state

	product       Product
	method        SelectionMethod
	interpolation Interpolation
	height        float64
	elangle       float64
	rng           float64
	params        []Parameter
	qiField       string
	qiMode        QIMode
	algorithm     Algorithm
	date          string
	time          string

	contributors []radar.Object
}

// NewEngine returns an engine configured for a 1000 m PCAPPI selected by
// nearest radar.
func NewEngine() *Engine {
	return &Engine{
		product: PCAPPI,
		method:  NearestRadar,
		height:  1000,
		rng:     200000,
	}
}

func (e *Engine) configurable() error {
	if e.state != configured {
		return fmt.Errorf("%w: configuration after objects were added", ErrInvalidState)
	}
	return nil
}

// SetProduct sets the product type.
func (e *Engine) SetProduct(p Product) error {
	if err := e.configurable(); err != nil {
		return err
	}
	e.product = p
	return nil
}

// Product returns the configured product type.
func (e *Engine) Product() Product { return e.product }

// SetSelectionMethod sets how contributors are chosen per cell.
func (e *Engine) SetSelectionMethod(m SelectionMethod) error {
	if err := e.configurable(); err != nil {
		return err
	}
	e.method = m
	return nil
}

// SetInterpolation sets how values are sampled around the resolved bin.
func (e *Engine) SetInterpolation(i Interpolation) error {
	if err := e.configurable(); err != nil {
		return err
	}
	e.interpolation = i
	return nil
}

// SetHeight sets the CAPPI, PCAPPI and PMAX height in meters above sea level.
func (e *Engine) SetHeight(h float64) error {
	if err := e.configurable(); err != nil {
		return err
	}
	e.height = h
	return nil
}

// Height returns the configured height.
func (e *Engine) Height() float64 { return e.height }

// SetElevationAngle sets the PPI elevation in radians.
func (e *Engine) SetElevationAngle(a float64) error {
	if err := e.configurable(); err != nil {
		return err
	}
	e.elangle = a
	return nil
}

// ElevationAngle returns the configured PPI elevation in radians.
func (e *Engine) ElevationAngle() float64 { return e.elangle }

// SetRange sets the PMAX column-maximum range in meters.
func (e *Engine) SetRange(r float64) error {
	if err := e.configurable(); err != nil {
		return err
	}
	e.rng = r
	return nil
}

// Range returns the configured PMAX range.
func (e *Engine) Range() float64 { return e.rng }

// AddParameter adds an output quantity. A quantity can be added once.
func (e *Engine) AddParameter(quantity string, gain, offset float64) error {
	if err := e.configurable(); err != nil {
		return err
	}
	if quantity == "" {
		return errors.New("composite engine: empty quantity")
	}
	if gain == 0 {
		return fmt.Errorf("composite engine: zero gain for %s", quantity)
	}
	for _, p := range e.params {
		if p.Quantity == quantity {
			return fmt.Errorf("composite engine: duplicate parameter %s", quantity)
		}
	}
	e.params = append(e.params, Parameter{Quantity: quantity, Gain: gain, Offset: offset})
	return nil
}

// Parameters returns the configured output quantities.
func (e *Engine) Parameters() []Parameter { return e.params }

// SetQITotal enables the combined quality field under the given task name.
func (e *Engine) SetQITotal(task string, mode QIMode) error {
	if err := e.configurable(); err != nil {
		return err
	}
	e.qiField, e.qiMode = task, mode
	return nil
}

// SetAlgorithm installs an algorithm that overrides the selection method.
func (e *Engine) SetAlgorithm(a Algorithm) error {
	if err := e.configurable(); err != nil {
		return err
	}
	e.algorithm = a
	return nil
}

// SetDateTime sets the nominal date (YYYYMMDD) and time (HHMMSS) of the result.
func (e *Engine) SetDateTime(date, tm string) error {
	if err := e.configurable(); err != nil {
		return err
	}
	e.date, e.time = date, tm
	return nil
}

// Add appends a contributor. Order is preserved and breaks ties.
func (e *Engine) Add(obj radar.Object) error {
	if e.state == generated {
		return fmt.Errorf("%w: add after generate", ErrInvalidState)
	}
	if !obj.IsPolar() {
		return fmt.Errorf("composite engine: cannot add %s object", obj.Kind)
	}
	e.contributors = append(e.contributors, obj)
	e.state = populated
	return nil
}

// Contributors returns the number of added objects.
func (e *Engine) Contributors() int { return len(e.contributors) }

// qualityOutput is one requested quality field in the result.
type qualityOutput struct {
	task  string
	field *cartesian.Field
}

// Generate renders the composite over area. qualityFields names the quality
// fields to carry into the product.
func (e *Engine) Generate(area *geo.Area, qualityFields []string) (*cartesian.Product, error) {
	if e.state == generated {
		return nil, ErrAlreadyGenerated
	}
	if len(e.params) == 0 {
		return nil, ErrNoParameters
	}
	if err := area.Validate(); err != nil {
		return nil, err
	}
	date, tm := e.date, e.time
	if date == "" || tm == "" {
		if len(e.contributors) == 0 {
			return nil, ErrNoDateTime
		}
		date, tm = e.contributors[len(e.contributors)-1].DateTime()
	}
	e.state = generated

	prod := &cartesian.Product{
		Source:      area.ID,
		Date:        date,
		Time:        tm,
		ProductType: e.product.String(),
		AreaID:      area.ID,
		Projection:  area.Projection.Definition,
		XSize:       area.XSize,
		YSize:       area.YSize,
		XScale:      area.XScale,
		YScale:      area.YScale,
		LLX:         area.Extent.LLX,
		LLY:         area.Extent.LLY,
		URX:         area.Extent.URX,
		URY:         area.Extent.URY,
		Attrs:       e.productAttrs(),
	}
	outputs := make([]*cartesian.Parameter, len(e.params))
	for i, p := range e.params {
		outputs[i] = cartesian.NewParameter(p.Quantity, area.XSize, area.YSize, p.Gain, p.Offset, DefaultNodata, DefaultUndetect)
		if err := prod.AddParameter(outputs[i]); err != nil {
			return nil, err
		}
	}

	contributors := make([]*contributor, len(e.contributors))
	for i, obj := range e.contributors {
		contributors[i] = newContributor(i, obj)
	}

	quality := e.qualityOutputs(area, qualityFields, contributors)
	var qi *cartesian.Field
	if e.qiField != "" {
		qi = cartesian.NewField(e.qiField, area.XSize, area.YSize, 1, 0)
	}

	locs := make([]location, len(contributors))
	covered := make([]bool, len(contributors))
	samples := make([]Sample, 0, len(contributors))

	for y := range area.YSize {
		for x := range area.XSize {
			px, py := area.CellCenter(x, y)
			lon, lat, err := area.Projection.Inverse(px, py)
			if err != nil || math.IsNaN(lon) || math.IsNaN(lat) {
				continue
			}
			for i, c := range contributors {
				locs[i], covered[i] = c.locate(e, lon, lat)
			}

			for pi, out := range outputs {
				samples = samples[:0]
				for i, c := range contributors {
					if !covered[i] {
						continue
					}
					s := c.sample(&locs[i], out.Quantity, e.interpolation)
					if s.Type != radar.Nodata {
						samples = append(samples, s)
					}
				}
				sel, vt, v := e.choose(samples)
				switch vt {
				case radar.Data:
					out.SetValue(x, y, v)
				case radar.Undetect:
					out.SetRaw(x, y, out.Undetect)
				}
				if pi == 0 && sel != nil {
					writeQuality(quality, qi, e.qiMode, *sel, x, y)
				}
			}
		}
	}

	for _, q := range quality {
		prod.PutQualityField(q.field)
	}
	if qi != nil {
		prod.PutQualityField(qi)
	}
	return prod, nil
}

// choose applies the algorithm or selection method to the covered samples.
func (e *Engine) choose(samples []Sample) (*Sample, radar.ValueType, float64) {
	if len(samples) == 0 {
		return nil, radar.Nodata, 0
	}
	if e.algorithm != nil {
		if i := e.algorithm.Choose(samples); i >= 0 && i < len(samples) {
			return &samples[i], samples[i].Type, samples[i].Value
		}
	}

	switch e.method {
	case HeightAboveSealevel:
		return pick(samples, func(s Sample) float64 { return s.Height })
	case First:
		for i := range samples {
			if samples[i].Type == radar.Data {
				return &samples[i], radar.Data, samples[i].Value
			}
		}
		return &samples[0], samples[0].Type, samples[0].Value
	case MinValue, MaxValue:
		best := -1
		for i, s := range samples {
			if s.Type != radar.Data {
				continue
			}
			if best < 0 ||
				(e.method == MinValue && s.Value < samples[best].Value) ||
				(e.method == MaxValue && s.Value > samples[best].Value) {
				best = i
			}
		}
		if best < 0 {
			return &samples[0], samples[0].Type, samples[0].Value
		}
		return &samples[best], radar.Data, samples[best].Value
	case AvgValue:
		values := make([]float64, 0, len(samples))
		nearest := -1
		for i, s := range samples {
			if s.Type != radar.Data {
				continue
			}
			values = append(values, s.Value)
			if nearest < 0 || s.Distance < samples[nearest].Distance {
				nearest = i
			}
		}
		if nearest < 0 {
			return &samples[0], samples[0].Type, samples[0].Value
		}
		return &samples[nearest], radar.Data, floats.Sum(values) / float64(len(values))
	default:
		if e.product.heightBased() {
			return pick(samples, func(s Sample) float64 { return s.Range })
		}
		return pick(samples, func(s Sample) float64 { return s.Distance })
	}
}

// pick returns the sample with the smallest metric; the earliest wins ties.
func pick(samples []Sample, metric func(Sample) float64) (*Sample, radar.ValueType, float64) {
	best := 0
	bestM := metric(samples[0])
	for i := 1; i < len(samples); i++ {
		if m := metric(samples[i]); m < bestM {
			best, bestM = i, m
		}
	}
	return &samples[best], samples[best].Type, samples[best].Value
}

func (e *Engine) qualityOutputs(area *geo.Area, names []string, contributors []*contributor) []qualityOutput {
	out := make([]qualityOutput, 0, len(names))
	seen := map[string]bool{}
	for _, task := range names {
		if task == "" || seen[task] || task == e.qiField {
			continue
		}
		seen[task] = true
		gain, offset := 1.0, 0.0
		switch task {
		case DistanceTask:
			gain = DistanceGain
		case HeightTask:
			gain = HeightGain
		default:
			gain, offset = sourceEncoding(task, e.params[0].Quantity, contributors)
		}
		out = append(out, qualityOutput{task: task, field: cartesian.NewField(task, area.XSize, area.YSize, gain, offset)})
	}
	return out
}

// sourceEncoding returns the gain and offset of the first contributor field
// carrying task.
func sourceEncoding(task, quantity string, contributors []*contributor) (float64, float64) {
	for _, c := range contributors {
		for _, s := range c.scans {
			if f := s.QualityFieldFor(quantity, task); f != nil {
				return f.Gain(), f.Offset()
			}
		}
	}
	return 1, 0
}

func writeQuality(quality []qualityOutput, qi *cartesian.Field, mode QIMode, s Sample, x, y int) {
	var qis []float64
	for _, q := range quality {
		switch q.task {
		case DistanceTask:
			q.field.SetValue(x, y, s.Distance)
		case HeightTask:
			q.field.SetValue(x, y, s.Height)
		default:
			if v, ok := s.Quality(q.task); ok {
				q.field.SetValue(x, y, v)
				qis = append(qis, v)
			}
		}
	}
	if qi == nil || len(qis) == 0 {
		return
	}
	if mode == QIMinimum {
		qi.SetValue(x, y, floats.Min(qis))
	} else {
		qi.SetValue(x, y, floats.Prod(qis))
	}
}

func (e *Engine) productAttrs() radar.Attributes {
	attrs := radar.Attributes{
		"how/camethod":      e.method.String(),
		"how/interpolation": e.interpolation.String(),
		"what/product":      e.product.String(),
	}
	switch e.product {
	case PPI:
		attrs["what/prodpar"] = e.elangle * 180 / math.Pi
	case CAPPI, PCAPPI:
		attrs["what/prodpar"] = e.height
	case PMAX:
		attrs["what/prodpar"] = fmt.Sprintf("%g,%g", e.height, e.rng)
	}
	if e.algorithm != nil {
		attrs["how/algorithm"] = e.algorithm.Name()
	}
	return attrs
}
