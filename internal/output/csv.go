// Package output handles run persistence: the append-only master CSV and
// the periodic JSON backup snapshot.
package output

import (
	"os"
	"sync"

	"github.com/rotisserie/eris"
)

// Header is the fixed 25-column master CSV header.
const Header = "name,email,website,industry,business_type,location," +
	"current_social_presence_score,instagram_presence,tiktok_presence," +
	"youtube_shorts_presence,facebook_presence,linkedin_presence," +
	"last_post_estimate,follower_count_estimate,content_frequency_score," +
	"visual_content_suitability,target_demographic_alignment," +
	"competition_saturation_level,estimated_monthly_revenue," +
	"marketing_budget_indicators,pain_points,opportunity_score," +
	"contact_likelihood,ideal_content_strategy,projected_roi_potential"

// CSVWriter appends accepted batch text to the master file. Batch text is
// already comma-formatted by the model and is written verbatim; schema
// validation is deferred to the segmentation pass.
type CSVWriter struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

// NewCSVWriter creates (or truncates) the master file and writes the header
// row once.
func NewCSVWriter(path string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, eris.Wrap(err, "output: create master csv")
	}
	if _, err := f.WriteString(Header + "\n"); err != nil {
		_ = f.Close()
		return nil, eris.Wrap(err, "output: write csv header")
	}
	return &CSVWriter{f: f, path: path}, nil
}

// Append writes one batch's filtered text as-is, followed by a newline.
func (w *CSVWriter) Append(text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.f.WriteString(text + "\n"); err != nil {
		return eris.Wrap(err, "output: append batch")
	}
	return nil
}

// Path returns the master file path.
func (w *CSVWriter) Path() string {
	return w.path
}

// Close flushes and closes the master file.
func (w *CSVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.f.Close(); err != nil {
		return eris.Wrap(err, "output: close master csv")
	}
	return nil
}
