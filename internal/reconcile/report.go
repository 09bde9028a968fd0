package reconcile

import (
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/spf13/afero"

	"folder-albums/internal/album"
)

var fs = afero.NewOsFs()

// SetFs replaces the filesystem the run report is written to.
func SetFs(f afero.Fs) {
	fs = f
}

// Failure is an album that could not be reconciled.
type Failure struct {
	Album string `json:"album"`
	Error string `json:"error"`
}

// Report records what a run changed.
type Report struct {
	Started     time.Time `json:"started"`
	Finished    time.Time `json:"finished"`
	Created     []string  `json:"created"`
	Updated     []string  `json:"updated"`
	Deleted     []string  `json:"deleted"`
	Failed      []Failure `json:"failed"`
	AssetsAdded int       `json:"assetsAdded"`
	// Aborted is set when the run stopped before changing anything, e.g.
	// because album creation was not confirmed.
	Aborted bool `json:"aborted,omitempty"`
}

// NewReport starts an empty report.
func NewReport() *Report {
	return &Report{Started: time.Now()}
}

// Fail records a failed album. Errors that name their album, like
// configuration conflicts, may pass an empty name.
func (r *Report) Fail(name string, err error) {
	var confErr *album.ConfigurationError
	if name == "" && errors.As(err, &confErr) {
		name = confErr.Album
	}
	r.Failed = append(r.Failed, Failure{Album: name, Error: err.Error()})
}

// Merge adds the results of another run, e.g. the one for the next API key.
func (r *Report) Merge(other *Report) {
	r.Created = append(r.Created, other.Created...)
	r.Updated = append(r.Updated, other.Updated...)
	r.Deleted = append(r.Deleted, other.Deleted...)
	r.Failed = append(r.Failed, other.Failed...)
	r.AssetsAdded += other.AssetsAdded
	r.Aborted = r.Aborted || other.Aborted
	if other.Finished.After(r.Finished) {
		r.Finished = other.Finished
	}
}

// Save writes the report as JSON.
func (r *Report) Save(reportPath string) error {
	out := *r
	out.Created = sortedCopy(r.Created)
	out.Updated = sortedCopy(r.Updated)
	out.Deleted = sortedCopy(r.Deleted)
	out.Failed = append([]Failure(nil), r.Failed...)
	sort.SliceStable(out.Failed, func(i, j int) bool { return out.Failed[i].Album < out.Failed[j].Album })

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return afero.WriteFile(fs, reportPath, data, 0644)
}

// LoadReport reads a report written by Save.
func LoadReport(reportPath string) (*Report, error) {
	data, err := afero.ReadFile(fs, reportPath)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func sortedCopy(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	sort.Strings(out)
	return out
}
