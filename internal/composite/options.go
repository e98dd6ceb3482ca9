package composite

import (
	"fmt"
	"strings"
)

// Product is the kind of Cartesian product to generate.
type Product int

const (
	PPI Product = iota
	CAPPI
	PCAPPI
	PMAX
	MAX
)

var productNames = map[Product]string{
	PPI:    "PPI",
	CAPPI:  "CAPPI",
	PCAPPI: "PCAPPI",
	PMAX:   "PMAX",
	MAX:    "MAX",
}

func (p Product) String() string { return productNames[p] }

// ParseProduct accepts ppi, cappi, pcappi, pmax or max in any case.
func ParseProduct(s string) (Product, error) {
	for p, name := range productNames {
		if strings.EqualFold(s, name) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown product %q", s)
}

// heightBased reports whether the product samples a constant altitude.
func (p Product) heightBased() bool { return p == CAPPI || p == PCAPPI }

// SelectionMethod decides which contributor represents a cell.
type SelectionMethod int

const (
	NearestRadar SelectionMethod = iota
	HeightAboveSealevel
	First
	MinValue
	MaxValue
	AvgValue
)

var methodNames = map[SelectionMethod]string{
	NearestRadar:        "NEAREST_RADAR",
	HeightAboveSealevel: "HEIGHT_ABOVE_SEALEVEL",
	First:               "FIRST",
	MinValue:            "MIN_VALUE",
	MaxValue:            "MAX_VALUE",
	AvgValue:            "AVG_VALUE",
}

func (m SelectionMethod) String() string { return methodNames[m] }

// ParseSelectionMethod accepts the upper case method names.
func ParseSelectionMethod(s string) (SelectionMethod, error) {
	for m, name := range methodNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown selection method %q", s)
}

// Interpolation decides how a value is sampled around the resolved polar location.
type Interpolation int

const (
	NearestValue Interpolation = iota
	LinearHeight
	LinearRange
	LinearAzimuth
	LinearRangeAndAzimuth
	Linear3D
	QuadraticHeight
	Quadratic3D
)

var interpolationNames = map[Interpolation]string{
	NearestValue:          "NEAREST_VALUE",
	LinearHeight:          "LINEAR_HEIGHT",
	LinearRange:           "LINEAR_RANGE",
	LinearAzimuth:         "LINEAR_AZIMUTH",
	LinearRangeAndAzimuth: "LINEAR_RANGE_AND_AZIMUTH",
	Linear3D:              "LINEAR_3D",
	QuadraticHeight:       "QUADRATIC_HEIGHT",
	Quadratic3D:           "QUADRATIC_3D",
}

func (i Interpolation) String() string { return interpolationNames[i] }

// ParseInterpolation accepts the upper case interpolation names.
func ParseInterpolation(s string) (Interpolation, error) {
	for i, name := range interpolationNames {
		if strings.EqualFold(s, name) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown interpolation method %q", s)
}

func (i Interpolation) inRange() bool {
	return i == LinearRange || i == LinearRangeAndAzimuth || i == Linear3D || i == Quadratic3D
}

func (i Interpolation) inAzimuth() bool {
	return i == LinearAzimuth || i == LinearRangeAndAzimuth || i == Linear3D || i == Quadratic3D
}

func (i Interpolation) inHeight() bool {
	return i == LinearHeight || i == Linear3D || i == QuadraticHeight || i == Quadratic3D
}

func (i Interpolation) quadratic() bool {
	return i == QuadraticHeight || i == Quadratic3D
}

// QIMode combines quality fields into the QI-total field.
type QIMode int

const (
	QIMultiplicative QIMode = iota
	QIMinimum
)

func (m QIMode) String() string {
	if m == QIMinimum {
		return "minimum"
	}
	return "multiplicative"
}

// ParseQIMode accepts multiplicative or minimum.
func ParseQIMode(s string) (QIMode, error) {
	switch strings.ToLower(s) {
	case "multiplicative", "":
		return QIMultiplicative, nil
	case "minimum":
		return QIMinimum, nil
	}
	return 0, fmt.Errorf("unknown QI-total mode %q", s)
}

// Parameter is one output quantity with its encoding.
type Parameter struct {
	Quantity string
	Gain     float64
	Offset   float64
}
