package job_test

import (
	"errors"
	"testing"

	"github.com/couchcryptid/radar-composite/internal/composite"
	"github.com/couchcryptid/radar-composite/internal/compositing"
	"github.com/couchcryptid/radar-composite/internal/job"
	"github.com/couchcryptid/radar-composite/internal/profile"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	r, err := job.Decode([]byte(`{"inputs":["a.rcf"],"product":"PPI","elangle":0.5,"detectors":["se.smhi.detector.speckle"]}`))
	require.NoError(t, err)
	_, err = uuid.Parse(r.ID)
	assert.NoError(t, err, "missing id is generated")
	assert.Equal(t, "PPI", r.Product)
	assert.Equal(t, []string{"se.smhi.detector.speckle"}, r.Detectors)

	r, err = job.Decode([]byte(`{"id":"j1","date":"20240501","time":"120000","area":"swegmaps_2000"}`))
	require.NoError(t, err, "date and time label an empty composite")
	assert.Equal(t, "j1", r.ID)

	_, err = job.Decode([]byte(`{"id":"j2"}`))
	assert.True(t, errors.Is(err, job.ErrNoInputs))

	_, err = job.Decode([]byte(`[`))
	assert.Error(t, err)
}

func TestRequest_Options_Layering(t *testing.T) {
	profiles := profile.NewSet(map[string]profile.Profile{
		"base": {Product: "CAPPI", Method: "MAX_VALUE", Area: "nrd2km"},
	})
	r, err := job.Decode([]byte(`{"id":"j","inputs":["x","y"],"profile":"base","method":"FIRST","date":"20240501","time":"121500"}`))
	require.NoError(t, err)

	opts, err := r.Options(compositing.DefaultOptions(), profiles)
	require.NoError(t, err)
	assert.Equal(t, composite.CAPPI, opts.Product, "from profile")
	assert.Equal(t, composite.First, opts.Method, "request wins over profile")
	assert.Equal(t, "nrd2km", opts.AreaID)
	assert.Equal(t, "DBZH", opts.Quantity, "from defaults")
	assert.Equal(t, []string{"x", "y"}, opts.Inputs)
	assert.Equal(t, "121500", opts.Time)

	r.ProfileName = "missing"
	_, err = r.Options(compositing.DefaultOptions(), profiles)
	assert.True(t, errors.Is(err, profile.ErrUnknownProfile))
}

func TestRequest_FileName(t *testing.T) {
	assert.Equal(t, "j1.rcf", job.Request{ID: "j1"}.FileName())
	assert.Equal(t, "out.rcf", job.Request{ID: "j1", Output: "/etc/out.rcf"}.FileName())
}
