// Package profile holds named composite option sets. Profiles are read from a
// TOML, YAML or JSON file under a top level "profiles" table and applied over
// compositing defaults by both the job service and the command line tool.
package profile

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/couchcryptid/radar-composite/internal/composite"
	"github.com/couchcryptid/radar-composite/internal/compositing"
	"github.com/couchcryptid/radar-composite/internal/quality"
)

// ErrUnknownProfile is returned by Set.Lookup for names that were not loaded.
var ErrUnknownProfile = errors.New("unknown profile")

// Profile overrides compositing options. Unset fields keep the value they are
// applied over. Angles are in degrees.
type Profile struct {
	Quantity      string   `mapstructure:"quantity" json:"quantity,omitempty"`
	Gain          *float64 `mapstructure:"gain" json:"gain,omitempty"`
	Offset        *float64 `mapstructure:"offset" json:"offset,omitempty"`
	Product       string   `mapstructure:"product" json:"product,omitempty"`
	Prodpar       string   `mapstructure:"prodpar" json:"prodpar,omitempty"`
	Height        *float64 `mapstructure:"height" json:"height,omitempty"`
	Elangle       *float64 `mapstructure:"elangle" json:"elangle,omitempty"`
	Range         *float64 `mapstructure:"range" json:"range,omitempty"`
	Method        string   `mapstructure:"method" json:"method,omitempty"`
	Interpolation string   `mapstructure:"interpolation" json:"interpolation,omitempty"`
	QITotalField  string   `mapstructure:"qitotal_field" json:"qitotal_field,omitempty"`
	QIMode        string   `mapstructure:"qitotal_mode" json:"qitotal_mode,omitempty"`

	Area   string   `mapstructure:"area" json:"area,omitempty"`
	PCS    string   `mapstructure:"pcs" json:"pcs,omitempty"`
	XScale *float64 `mapstructure:"xscale" json:"xscale,omitempty"`
	YScale *float64 `mapstructure:"yscale" json:"yscale,omitempty"`

	Detectors        []string `mapstructure:"detectors" json:"detectors,omitempty"`
	QCMode           string   `mapstructure:"qc_mode" json:"qc_mode,omitempty"`
	Reprocess        *bool    `mapstructure:"reprocess" json:"reprocess,omitempty"`
	IgnoreMalfunc    *bool    `mapstructure:"ignore_malfunc" json:"ignore_malfunc,omitempty"`
	RestrictQuantity *bool    `mapstructure:"restrict_quantity" json:"restrict_quantity,omitempty"`

	CTFilter *bool    `mapstructure:"ctfilter" json:"ctfilter,omitempty"`
	GRA      *bool    `mapstructure:"gra" json:"gra,omitempty"`
	ZRA      *float64 `mapstructure:"zr_a" json:"zr_a,omitempty"`
	ZRB      *float64 `mapstructure:"zr_b" json:"zr_b,omitempty"`
	GapFill  *bool    `mapstructure:"gapfill" json:"gapfill,omitempty"`
}

// Apply writes the set fields of p into opts. Enumerated values are parsed
// first so that a bad profile leaves opts untouched.
func (p Profile) Apply(opts *compositing.Options) error {
	out := *opts

	if p.Product != "" {
		v, err := composite.ParseProduct(p.Product)
		if err != nil {
			return err
		}
		out.Product = v
	}
	if p.Method != "" {
		v, err := composite.ParseSelectionMethod(p.Method)
		if err != nil {
			return err
		}
		out.Method = v
	}
	if p.Interpolation != "" {
		v, err := composite.ParseInterpolation(p.Interpolation)
		if err != nil {
			return err
		}
		out.Interpolation = v
	}
	if p.QIMode != "" {
		v, err := composite.ParseQIMode(p.QIMode)
		if err != nil {
			return err
		}
		out.QIMode = v
	}
	if p.QCMode != "" {
		v, err := quality.ParseMode(p.QCMode)
		if err != nil {
			return err
		}
		out.QCMode = v
	}

	setString(&out.Quantity, p.Quantity)
	setString(&out.Prodpar, p.Prodpar)
	setString(&out.QITotalField, p.QITotalField)
	setString(&out.AreaID, p.Area)
	setString(&out.PCSID, p.PCS)
	setFloat(&out.Gain, p.Gain)
	setFloat(&out.Offset, p.Offset)
	setFloat(&out.Height, p.Height)
	setFloat(&out.Range, p.Range)
	setFloat(&out.XScale, p.XScale)
	setFloat(&out.YScale, p.YScale)
	setFloat(&out.ZR.A, p.ZRA)
	setFloat(&out.ZR.B, p.ZRB)
	if p.ZRA != nil || p.ZRB != nil {
		if err := out.ZR.Validate(); err != nil {
			return err
		}
	}
	if p.Elangle != nil {
		out.Elangle = *p.Elangle * math.Pi / 180
	}
	if len(p.Detectors) > 0 {
		out.Detectors = append([]string(nil), p.Detectors...)
	}
	setBool(&out.Reprocess, p.Reprocess)
	setBool(&out.IgnoreMalfunc, p.IgnoreMalfunc)
	setBool(&out.RestrictQuantity, p.RestrictQuantity)
	setBool(&out.ApplyCTFilter, p.CTFilter)
	setBool(&out.ApplyGRA, p.GRA)
	setBool(&out.ApplyGapFill, p.GapFill)

	*opts = out
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// Set is a collection of named profiles. Names are case insensitive.
type Set struct {
	profiles map[string]Profile
}

// NewSet builds a Set from in-memory profiles.
func NewSet(profiles map[string]Profile) *Set {
	s := &Set{profiles: make(map[string]Profile, len(profiles))}
	for name, p := range profiles {
		s.profiles[strings.ToLower(name)] = p
	}
	return s
}

// Load reads the "profiles" table of the file at path. The format follows
// the file extension.
func Load(path string) (*Set, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read profiles %s: %w", path, err)
	}
	var profiles map[string]Profile
	if err := v.UnmarshalKey("profiles", &profiles); err != nil {
		return nil, fmt.Errorf("decode profiles %s: %w", path, err)
	}
	return NewSet(profiles), nil
}

// Lookup returns the named profile.
func (s *Set) Lookup(name string) (Profile, error) {
	if s == nil {
		return Profile{}, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
	}
	p, ok := s.profiles[strings.ToLower(name)]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
	}
	return p, nil
}

// Names lists the loaded profiles in sorted order.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.profiles))
	for n := range s.profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
