package compositing

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/couchcryptid/radar-composite/internal/container"
	"github.com/couchcryptid/radar-composite/internal/radar"
)

// dumpName builds <kind>_<node>_<date>_<time>_<uuid>.rcf so that repeated
// versions of the same object do not collide.
func dumpName(obj radar.Object) string {
	date, tm := obj.DateTime()
	if date == "" {
		date = "19700101"
	}
	if tm == "" {
		tm = "000000"
	}
	return fmt.Sprintf("%s_%s_%s_%s_%s%s",
		strings.ToLower(obj.Kind.String()), safeElem(obj.Node()), safeElem(date), safeElem(tm),
		uuid.NewString(), container.Extension)
}

// safeElem replaces path separators so that input metadata cannot move the
// dump out of its directory.
func safeElem(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == filepath.Separator || r == 0 {
			return '_'
		}
		return r
	}, s)
}

// dump writes each object into dir. Failures are logged.
func (g *Generator) dump(dir string, objects []radar.Object) {
	for _, obj := range objects {
		path := filepath.Join(dir, dumpName(obj))
		if err := container.WriteObjectFile(path, obj); err != nil {
			g.deps.Logger.Warn("failed to dump input", "path", path, "error", err)
			continue
		}
		g.deps.Logger.Debug("dumped input", "path", path)
	}
}
