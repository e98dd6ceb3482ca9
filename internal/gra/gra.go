// Package gra applies the gauge radar adjustment, a range dependent bias
// correction derived from rain gauge climatology.
package gra

import (
	"errors"
	"fmt"
	"math"

	"github.com/couchcryptid/radar-composite/internal/cartesian"
	"github.com/couchcryptid/radar-composite/internal/composite"
	"github.com/couchcryptid/radar-composite/internal/radar"
)

// CorrectedSuffix is appended to the quantity of the corrected parameter.
const CorrectedSuffix = "_CORR"

var (
	// ErrNoDistanceField is returned when the product lacks the distance quality field.
	ErrNoDistanceField = errors.New("gra: distance quality field missing")
	// ErrNoParameter is returned when the quantity to correct is missing.
	ErrNoParameter = errors.New("gra: parameter missing")
	// ErrInvalidZR is returned for Z-R coefficients that are not positive and finite.
	ErrInvalidZR = errors.New("gra: invalid Z-R relation")
)

// Coefficients of the quadratic bias model in dB, with distance in km.
type Coefficients struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
}

// Climatology is used when no fitted coefficients are available.
var Climatology = Coefficients{A: 0.323868, B: -0.001078, C: 0.000018}

// Valid reports whether every coefficient is a finite number.
func (c Coefficients) Valid() bool {
	for _, v := range []float64{c.A, c.B, c.C} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ZR is the reflectivity to rain rate relation Z = A*R^B.
type ZR struct {
	A float64
	B float64
}

// Validate reports ErrInvalidZR unless both coefficients are positive and finite.
func (zr ZR) Validate() error {
	for _, v := range []float64{zr.A, zr.B} {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: A=%g b=%g", ErrInvalidZR, zr.A, zr.B)
		}
	}
	return nil
}

// DefaultZR is the Marshall-Palmer relation.
var DefaultZR = ZR{A: 200, B: 1.6}

// Thresholds bound the correction exponent.
type Thresholds struct {
	Low  float64
	High float64
}

// DefaultThresholds limits the correction to -2.5 .. +20 dB.
var DefaultThresholds = Thresholds{Low: -0.25, High: 2.0}

// Corrector applies one set of coefficients.
type Corrector struct {
	Coefficients Coefficients
	ZR           ZR
	Thresholds   Thresholds
}

// NewCorrector returns a corrector with the default Z-R relation and thresholds.
func NewCorrector(c Coefficients) Corrector {
	return Corrector{Coefficients: c, ZR: DefaultZR, Thresholds: DefaultThresholds}
}

// Factor returns the clamped correction exponent at a ground distance in meters.
func (c Corrector) Factor(distance float64) float64 {
	d := distance / 1000
	f := (c.Coefficients.A + c.Coefficients.B*d + c.Coefficients.C*d*d) / 10
	return math.Min(c.Thresholds.High, math.Max(c.Thresholds.Low, f))
}

// TaskArgs describes the correction in the how/task_args attribute.
func (c Corrector) TaskArgs() string {
	return fmt.Sprintf("GRA: A=%f, B=%f, C=%f, low_db=%f, high_db=%f",
		c.Coefficients.A, c.Coefficients.B, c.Coefficients.C, c.Thresholds.Low, c.Thresholds.High)
}

// isReflectivity reports whether quantity is in dBZ and must be corrected
// through the Z-R relation.
func isReflectivity(quantity string) bool {
	switch quantity {
	case "DBZH", "DBZV", "TH", "TV":
		return true
	}
	return false
}

// correctValue adjusts one converted value with exponent f.
func (c Corrector) correctValue(quantity string, v, f float64) float64 {
	if !isReflectivity(quantity) {
		return v * math.Pow(10, f)
	}
	z := math.Pow(10, v/10)
	r := math.Pow(z/c.ZR.A, 1/c.ZR.B) * math.Pow(10, f)
	return 10 * math.Log10(c.ZR.A*math.Pow(r, c.ZR.B))
}

// Correct returns a copy of param named <quantity>_CORR with every DATA cell
// adjusted for its distance. Nodata and undetect cells are copied unchanged.
func (c Corrector) Correct(distance *cartesian.Field, param *cartesian.Parameter) (*cartesian.Parameter, error) {
	if distance.XSize != param.XSize || distance.YSize != param.YSize {
		return nil, fmt.Errorf("gra: distance field %dx%d does not match %s %dx%d",
			distance.XSize, distance.YSize, param.Quantity, param.XSize, param.YSize)
	}
	if isReflectivity(param.Quantity) {
		if err := c.ZR.Validate(); err != nil {
			return nil, err
		}
	}
	out := param.Clone()
	out.Quantity = param.Quantity + CorrectedSuffix
	out.QualityFields = nil
	out.Attrs[radar.AttrTaskArgs] = c.TaskArgs()

	for y := range param.YSize {
		for x := range param.XSize {
			vt, v := param.Value(x, y)
			if vt != radar.Data {
				continue
			}
			f := c.Factor(distance.Value(x, y))
			cv := c.correctValue(param.Quantity, v, f)
			if math.IsNaN(cv) || math.IsInf(cv, 0) {
				return nil, fmt.Errorf("gra: correction of %s at %d,%d is not finite", param.Quantity, x, y)
			}
			out.SetValue(x, y, cv)
		}
	}
	return out, nil
}

// Apply corrects quantity in prod using the composite distance field and
// returns the corrected parameter. prod is not modified.
func (c Corrector) Apply(prod *cartesian.Product, quantity string) (*cartesian.Parameter, error) {
	param := prod.Parameter(quantity)
	if param == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoParameter, quantity)
	}
	distance := prod.FindQualityField(quantity, composite.DistanceTask)
	if distance == nil {
		return nil, ErrNoDistanceField
	}
	return c.Correct(distance, param)
}
