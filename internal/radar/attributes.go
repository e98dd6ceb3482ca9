package radar

import (
	"fmt"
	"maps"
	"strconv"
)

// Attribute names shared across the module.
const (
	AttrTask     = "how/task"
	AttrTaskArgs = "how/task_args"
	AttrGain     = "what/gain"
	AttrOffset   = "what/offset"
	AttrMalfunc  = "how/malfunc"
	AttrNodes    = "how/nodes"
)

// Attributes is a bag of ODIM style metadata keyed by "group/name".
// Values are strings, float64 or int64.
type Attributes map[string]any

// Clone returns a shallow copy.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return Attributes{}
	}
	return maps.Clone(a)
}

// String returns the attribute formatted as a string and whether it exists.
func (a Attributes) String(key string) (string, bool) {
	v, ok := a[key]
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return fmt.Sprint(t), true
	}
}

// Float returns the attribute as a float64. Numeric strings are parsed.
func (a Attributes) Float(key string) (float64, bool) {
	v, ok := a[key]
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// FloatOr returns the attribute as a float64, or def when missing or not numeric.
func (a Attributes) FloatOr(key string, def float64) float64 {
	if f, ok := a.Float(key); ok {
		return f
	}
	return def
}
