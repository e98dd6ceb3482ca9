package filter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/radar-composite/internal/cartesian"
	"github.com/couchcryptid/radar-composite/internal/container"
	"github.com/couchcryptid/radar-composite/internal/radar"
)

// CTFilterTask is the quality field recording cells removed by the cloud type filter.
const CTFilterTask = "se.smhi.quality.ctfilter"

// CloudTypeQuantity is the parameter holding cloud type classes in a cloud type product.
const CloudTypeQuantity = "CT"

// Cloud type classes 1 to 4 are cloud free land, sea, snow and ice.
const (
	firstCloudFree = 1
	lastCloudFree  = 4
)

// CloudTypeProvider returns a cloud type raster on the grid of prod. ok is
// false when none is available for the product's time.
type CloudTypeProvider interface {
	CloudType(ctx context.Context, prod *cartesian.Product) (ct *cartesian.Parameter, ok bool, err error)
}

// CTFilter sets DATA cells of quantity to undetect where the cloud type is
// cloud free and attaches a field marking the filtered cells with 1. It
// returns the number of filtered cells.
func CTFilter(prod *cartesian.Product, quantity string, ct *cartesian.Parameter) (int, error) {
	p := prod.Parameter(quantity)
	if p == nil {
		return 0, fmt.Errorf("ct filter: parameter %s missing", quantity)
	}
	if ct.XSize != p.XSize || ct.YSize != p.YSize {
		return 0, fmt.Errorf("ct filter: cloud type grid %dx%d does not match %dx%d",
			ct.XSize, ct.YSize, p.XSize, p.YSize)
	}

	mark := cartesian.NewField(CTFilterTask, p.XSize, p.YSize, 1, 0)
	filtered := 0
	for y := range p.YSize {
		for x := range p.XSize {
			if vt, _ := p.Value(x, y); vt != radar.Data {
				continue
			}
			vt, class := ct.Value(x, y)
			if vt != radar.Data || class < firstCloudFree || class > lastCloudFree {
				continue
			}
			p.SetRaw(x, y, p.Undetect)
			mark.SetRaw(x, y, 1)
			filtered++
		}
	}
	putField(p, mark)
	return filtered, nil
}

func putField(p *cartesian.Parameter, f *cartesian.Field) {
	for i, existing := range p.QualityFields {
		if existing.Task() == f.Task() {
			p.QualityFields[i] = f
			return
		}
	}
	p.QualityFields = append(p.QualityFields, f)
}

// DirCloudTypes reads cloud type products named ct_<date>_<time>.rcf from Dir.
type DirCloudTypes struct {
	Dir string
}

// CloudType opens the cloud type product matching prod's date and time.
func (d DirCloudTypes) CloudType(_ context.Context, prod *cartesian.Product) (*cartesian.Parameter, bool, error) {
	path := filepath.Join(d.Dir, fmt.Sprintf("ct_%s_%s%s", prod.Date, prod.Time, container.Extension))
	c, err := container.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cloud type %s: %w", path, err)
	}
	if c.Product == nil {
		return nil, false, fmt.Errorf("cloud type %s is a %s container", path, c.Kind)
	}
	ct := c.Product.Parameter(CloudTypeQuantity)
	if ct == nil {
		return nil, false, nil
	}
	return ct, true, nil
}
