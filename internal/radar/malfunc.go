package radar

import "strings"

// IsTruthy reports whether s is one of the accepted true spellings.
func IsTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1":
		return true
	}
	return false
}

func isMalfunc(a Attributes) bool {
	v, ok := a.String(AttrMalfunc)
	return ok && IsTruthy(v)
}

// Malfunctioning reports whether the object as a whole is flagged.
func (o Object) Malfunctioning() bool {
	switch o.Kind {
	case KindScan:
		return o.Scan.Malfunctioning()
	case KindVolume:
		return o.Volume.Malfunctioning()
	default:
		return false
	}
}

// PruneMalfunctioning removes flagged scans from a volume, highest index first,
// and returns how many were removed. It is a no-op for other kinds.
func (o Object) PruneMalfunctioning() int {
	if o.Kind != KindVolume {
		return 0
	}
	removed := 0
	scans := o.Volume.Scans
	for i := len(scans) - 1; i >= 0; i-- {
		if scans[i].Malfunctioning() {
			scans = append(scans[:i], scans[i+1:]...)
			removed++
		}
	}
	o.Volume.Scans = scans
	return removed
}
