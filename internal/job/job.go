// Package job defines the messages exchanged with the composite job service:
// a Request read from the source topic and a Completion written to the sink.
package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/radar-composite/internal/compositing"
	"github.com/couchcryptid/radar-composite/internal/profile"
)

// ErrNoInputs is returned for requests that name neither inputs nor a date/time.
var ErrNoInputs = errors.New("job has no inputs and no date/time")

// Raw is an unprocessed message from the source topic.
type Raw struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Request asks for one composite. Option fields are layered over the named
// profile, which is layered over the service defaults.
type Request struct {
	ID          string   `json:"id"`
	Inputs      []string `json:"inputs"`
	ProfileName string   `json:"profile,omitempty"`
	// Output is the product file name relative to the output directory.
	Output string `json:"output,omitempty"`
	Date   string `json:"date,omitempty"`
	Time   string `json:"time,omitempty"`

	profile.Profile
}

// Decode parses a request. A missing id is filled with a random UUID.
func Decode(data []byte) (Request, error) {
	var r Request
	if err := json.Unmarshal(data, &r); err != nil {
		return Request{}, fmt.Errorf("decode job request: %w", err)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if len(r.Inputs) == 0 && (r.Date == "" || r.Time == "") {
		return Request{}, fmt.Errorf("job %s: %w", r.ID, ErrNoInputs)
	}
	return r, nil
}

// Options resolves the compositing options for r starting from base.
func (r Request) Options(base compositing.Options, profiles *profile.Set) (compositing.Options, error) {
	opts := base
	if r.ProfileName != "" {
		p, err := profiles.Lookup(r.ProfileName)
		if err != nil {
			return compositing.Options{}, err
		}
		if err := p.Apply(&opts); err != nil {
			return compositing.Options{}, fmt.Errorf("profile %s: %w", r.ProfileName, err)
		}
	}
	if err := r.Profile.Apply(&opts); err != nil {
		return compositing.Options{}, fmt.Errorf("job %s: %w", r.ID, err)
	}
	opts.Inputs = append([]string(nil), r.Inputs...)
	opts.Date = r.Date
	opts.Time = r.Time
	return opts, nil
}

// FileName is the product file name for r. Directory components of Output
// are dropped.
func (r Request) FileName() string {
	if r.Output != "" {
		return filepath.Base(r.Output)
	}
	return r.ID + ".rcf"
}

// Completion reports a finished job.
type Completion struct {
	JobID        string    `json:"job_id"`
	Path         string    `json:"path"`
	Source       string    `json:"source"`
	Product      string    `json:"product"`
	Area         string    `json:"area"`
	Date         string    `json:"date"`
	Time         string    `json:"time"`
	Nodes        string    `json:"nodes"`
	Contributors int       `json:"contributors"`
	GRA          string    `json:"gra,omitempty"`
	Malfunc      bool      `json:"all_files_malfunc,omitempty"`
	ProcessedAt  time.Time `json:"processed_at"`
}
