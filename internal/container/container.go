// Package container reads and writes the radar container format: a
// zstd-compressed JSON envelope holding one polar scan, one polar volume or
// one composite product.
package container

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/radar-composite/internal/cartesian"
	"github.com/couchcryptid/radar-composite/internal/radar"
	"github.com/klauspost/compress/zstd"
)

// Format identifies the envelope version.
const Format = "rcf/1"

// Extension is the conventional file suffix.
const Extension = ".rcf"

// Envelope kinds.
const (
	KindScan      = "SCAN"
	KindVolume    = "PVOL"
	KindComposite = "COMP"
)

// ErrFormat is returned for data that is not a container of a known version.
var ErrFormat = errors.New("not a radar container")

type envelope struct {
	Format    string             `json:"format"`
	Kind      string             `json:"kind"`
	Scan      *radar.Scan        `json:"scan,omitempty"`
	Volume    *radar.Volume      `json:"volume,omitempty"`
	Composite *cartesian.Product `json:"composite,omitempty"`
}

// Contents is a decoded container. Object is set for polar content and
// Product for composites; Kind carries the envelope kind verbatim.
type Contents struct {
	Kind    string
	Object  radar.Object
	Product *cartesian.Product
}

// EncodeObject writes a polar object.
func EncodeObject(w io.Writer, obj radar.Object) error {
	env := envelope{Format: Format}
	switch obj.Kind {
	case radar.KindScan:
		env.Kind, env.Scan = KindScan, obj.Scan
	case radar.KindVolume:
		env.Kind, env.Volume = KindVolume, obj.Volume
	default:
		return fmt.Errorf("encode: unsupported object kind %s", obj.Kind)
	}
	return encode(w, env)
}

// EncodeProduct writes a composite product.
func EncodeProduct(w io.Writer, p *cartesian.Product) error {
	return encode(w, envelope{Format: Format, Kind: KindComposite, Composite: p})
}

func encode(w io.Writer, env envelope) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	if err := json.NewEncoder(zw).Encode(env); err != nil {
		zw.Close() //nolint:errcheck // already failing
		return fmt.Errorf("encode %s: %w", env.Kind, err)
	}
	return zw.Close()
}

// Decode reads a container of any kind.
func Decode(r io.Reader) (Contents, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return Contents{}, fmt.Errorf("create zstd reader: %w", err)
	}
	defer zr.Close()

	var env envelope
	if err := json.NewDecoder(zr).Decode(&env); err != nil {
		return Contents{}, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if env.Format != Format {
		return Contents{}, fmt.Errorf("%w: format %q", ErrFormat, env.Format)
	}

	c := Contents{Kind: env.Kind}
	switch {
	case env.Kind == KindScan && env.Scan != nil:
		c.Object = radar.ScanObject(env.Scan)
	case env.Kind == KindVolume && env.Volume != nil:
		c.Object = radar.VolumeObject(env.Volume)
	case env.Kind == KindComposite && env.Composite != nil:
		c.Object = radar.Object{Kind: radar.KindOther}
		c.Product = env.Composite
	default:
		c.Object = radar.Object{Kind: radar.KindOther}
	}
	return c, nil
}

// WriteObjectFile writes a polar object to path.
func WriteObjectFile(path string, obj radar.Object) error {
	return writeFile(path, func(w io.Writer) error { return EncodeObject(w, obj) })
}

// WriteProductFile writes a composite product to path.
func WriteProductFile(path string, p *cartesian.Product) error {
	return writeFile(path, func(w io.Writer) error { return EncodeProduct(w, p) })
}

func writeFile(path string, enc func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := enc(f); err != nil {
		f.Close() //nolint:errcheck // already failing
		return err
	}
	return f.Close()
}

// ReadFile decodes the container at path.
func ReadFile(path string) (Contents, error) {
	f, err := os.Open(path)
	if err != nil {
		return Contents{}, err
	}
	defer f.Close()
	return Decode(f)
}
