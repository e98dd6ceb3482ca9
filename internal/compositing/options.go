package compositing

import (
	"github.com/couchcryptid/radar-composite/internal/composite"
	"github.com/couchcryptid/radar-composite/internal/gra"
	"github.com/couchcryptid/radar-composite/internal/quality"
)

// Options describe one composite.
type Options struct {
	// Inputs are file paths or object store UUIDs, in priority order.
	Inputs []string

	Quantity string
	Gain     float64
	Offset   float64
	// RestrictQuantity loads only Quantity from each input.
	RestrictQuantity bool

	Product       composite.Product
	Prodpar       string
	Height        float64
	Elangle       float64 // radians
	Range         float64
	Method        composite.SelectionMethod
	Interpolation composite.Interpolation
	QITotalField  string
	QIMode        composite.QIMode

	// AreaID names a registered area. Empty selects a best fit in PCSID.
	AreaID string
	PCSID  string
	XScale float64
	YScale float64

	Detectors     []string
	Reprocess     bool
	QCMode        quality.Mode
	IgnoreMalfunc bool

	// Date (YYYYMMDD) and Time (HHMMSS) override the contributors' nominal time.
	Date string
	Time string

	ApplyCTFilter bool
	ApplyGRA      bool
	ZR            gra.ZR
	ApplyGapFill  bool

	// DumpDir receives the quality controlled inputs when set.
	DumpDir string
}

// DefaultOptions returns a 1000 m PCAPPI of DBZH on a 2 km best fit gmaps grid.
func DefaultOptions() Options {
	return Options{
		Quantity: "DBZH",
		Gain:     0.4,
		Offset:   -30,
		Product:  composite.PCAPPI,
		Height:   1000,
		Range:    200000,
		Method:   composite.NearestRadar,
		PCSID:    "gmaps",
		XScale:   2000,
		YScale:   2000,
		QCMode:   quality.Analyze,
		ZR:       gra.DefaultZR,
	}
}
