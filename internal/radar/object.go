package radar

import "fmt"

// Kind tags the variant held by an Object.
type Kind int

const (
	KindOther Kind = iota
	KindScan
	KindVolume
)

func (k Kind) String() string {
	switch k {
	case KindScan:
		return "SCAN"
	case KindVolume:
		return "PVOL"
	default:
		return "OTHER"
	}
}

// Object is a loaded radar object. Exactly one of Scan and Volume is set for
// KindScan and KindVolume; KindOther carries neither.
type Object struct {
	Kind   Kind
	Scan   *Scan
	Volume *Volume
}

// ScanObject wraps a scan.
func ScanObject(s *Scan) Object { return Object{Kind: KindScan, Scan: s} }

// VolumeObject wraps a volume.
func VolumeObject(v *Volume) Object { return Object{Kind: KindVolume, Volume: v} }

// Validate checks every scan of a polar object. Volumes must not hold nil scans.
func (o Object) Validate() error {
	if !o.IsPolar() {
		return fmt.Errorf("object of kind %s carries no polar data", o.Kind)
	}
	if o.Kind == KindScan {
		return o.Scan.Validate()
	}
	for i, s := range o.Volume.Scans {
		if s == nil {
			return fmt.Errorf("volume %q scan %d is nil", o.Volume.Source, i)
		}
		if err := s.Validate(); err != nil {
			return fmt.Errorf("volume %q scan %d: %w", o.Volume.Source, i, err)
		}
	}
	return nil
}

// IsPolar reports whether the object is a scan or a volume.
func (o Object) IsPolar() bool {
	return (o.Kind == KindScan && o.Scan != nil) || (o.Kind == KindVolume && o.Volume != nil)
}

// Source returns the object's source string.
func (o Object) Source() string {
	switch o.Kind {
	case KindScan:
		return o.Scan.Source
	case KindVolume:
		return o.Volume.Source
	default:
		return ""
	}
}

// DateTime returns the nominal date (YYYYMMDD) and time (HHMMSS).
func (o Object) DateTime() (date, tm string) {
	switch o.Kind {
	case KindScan:
		return o.Scan.Date, o.Scan.Time
	case KindVolume:
		return o.Volume.Date, o.Volume.Time
	default:
		return "", ""
	}
}

// Site returns the site longitude, latitude (degrees) and height (m).
func (o Object) Site() (lon, lat, height float64) {
	switch o.Kind {
	case KindScan:
		return o.Scan.Lon, o.Scan.Lat, o.Scan.Height
	case KindVolume:
		return o.Volume.Lon, o.Volume.Lat, o.Volume.Height
	default:
		return 0, 0, 0
	}
}

// Scans returns the scans of a volume or the single scan of a scan object.
func (o Object) Scans() []*Scan {
	switch o.Kind {
	case KindScan:
		return []*Scan{o.Scan}
	case KindVolume:
		return o.Volume.Scans
	default:
		return nil
	}
}

// Attrs returns the top-level attribute bag.
func (o Object) Attrs() Attributes {
	switch o.Kind {
	case KindScan:
		return o.Scan.Attrs
	case KindVolume:
		return o.Volume.Attrs
	default:
		return nil
	}
}

// MaxRange returns the largest slant range of any scan.
func (o Object) MaxRange() float64 {
	var m float64
	for _, s := range o.Scans() {
		m = max(m, s.MaxRange())
	}
	return m
}

// Node returns the node identifier derived from the source.
func (o Object) Node() string {
	return ParseSource(o.Source()).Node()
}

// Clone returns a deep copy.
func (o Object) Clone() Object {
	switch o.Kind {
	case KindScan:
		return ScanObject(o.Scan.Clone())
	case KindVolume:
		return VolumeObject(o.Volume.Clone())
	default:
		return o
	}
}
