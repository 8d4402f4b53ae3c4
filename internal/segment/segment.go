// Package segment post-processes the master CSV: validates and cleans rows,
// classifies each lead into an adoption-level bucket, and writes the
// per-bucket files plus the master rewrite.
package segment

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

// adoptionColumn is the extra column appended by segmentation.
const adoptionColumn = "adoption_level"

// Options names the segmentation output files. XLSXFile is optional.
type Options struct {
	NonAdoptersFile      string
	ModerateAdoptersFile string
	HighVolumeFile       string
	XLSXFile             string
}

// Segmenter runs the segmentation pass.
type Segmenter struct {
	opts Options
}

// New creates a Segmenter.
func New(opts Options) *Segmenter {
	return &Segmenter{opts: opts}
}

// Run segments the master CSV at csvPath. Any failure abandons the whole
// pass; the master file is only rewritten as the final step, so the
// generation-phase output stays intact on error.
func (s *Segmenter) Run(csvPath string) error {
	header, rows, err := loadCSV(csvPath)
	if err != nil {
		return err
	}
	zap.L().Info("segment: loaded master csv",
		zap.String("path", csvPath),
		zap.Int("records", len(rows)),
	)

	initial := len(rows)
	rows = cleanRows(rows)
	zap.L().Info("segment: cleaned records",
		zap.Int("kept", len(rows)),
		zap.Int("dropped", initial-len(rows)),
	)

	// Classify and split into buckets.
	buckets := map[string][]Row{}
	for _, row := range rows {
		level := Classify(row)
		row = append(row[:numColumns:numColumns], level)
		buckets[level] = append(buckets[level], row)
	}
	for _, level := range []string{LevelNonAdopter, LevelModerate, LevelHighVolume} {
		zap.L().Info("segment: bucket classified",
			zap.String("level", level),
			zap.Int("records", len(buckets[level])),
		)
	}

	outHeader := append(header[:numColumns:numColumns], adoptionColumn)

	// Bucket files, each sorted descending by its priority columns.
	sortRows(buckets[LevelNonAdopter], colOpportunityScore, colContactLikelihood)
	sortRows(buckets[LevelModerate], colOpportunityScore, colVisualSuitability)
	sortRows(buckets[LevelHighVolume], colOpportunityScore, -1)

	for _, out := range []struct {
		path string
		rows []Row
	}{
		{s.opts.NonAdoptersFile, buckets[LevelNonAdopter]},
		{s.opts.ModerateAdoptersFile, buckets[LevelModerate]},
		{s.opts.HighVolumeFile, buckets[LevelHighVolume]},
	} {
		if err := writeCSV(out.path, outHeader, out.rows); err != nil {
			return err
		}
	}

	if s.opts.XLSXFile != "" {
		if err := writeWorkbook(s.opts.XLSXFile, outHeader, buckets); err != nil {
			return err
		}
	}

	// Master rewrite is last: everything above must have succeeded.
	all := make([]Row, 0, len(rows))
	all = append(all, buckets[LevelNonAdopter]...)
	all = append(all, buckets[LevelModerate]...)
	all = append(all, buckets[LevelHighVolume]...)
	if err := writeCSV(csvPath, outHeader, all); err != nil {
		return err
	}

	logQualityMetrics(all, initial)
	return nil
}

// loadCSV reads the master file, falling back to Latin-1 when the bytes are
// not valid UTF-8, and drops rows that don't carry the full column set.
func loadCSV(path string) ([]string, []Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "segment: read master csv")
	}

	if !utf8.Valid(data) {
		zap.L().Warn("segment: master csv is not utf-8, decoding as latin-1")
		data, err = io.ReadAll(charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(data)))
		if err != nil {
			return nil, nil, eris.Wrap(err, "segment: decode latin-1")
		}
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, eris.Wrap(err, "segment: parse master csv")
	}
	if len(records) == 0 {
		return nil, nil, eris.New("segment: master csv is empty")
	}

	header := records[0]
	if len(header) < numColumns {
		return nil, nil, eris.Errorf("segment: master header has %d columns, want %d", len(header), numColumns)
	}

	var rows []Row
	short := 0
	for _, rec := range records[1:] {
		if len(rec) < numColumns {
			short++
			continue
		}
		rows = append(rows, Row(rec[:numColumns]))
	}
	if short > 0 {
		zap.L().Warn("segment: dropped short rows", zap.Int("count", short))
	}
	return header, rows, nil
}

// cleanRows drops rows missing required fields, rows with invalid emails,
// and repeated emails (first occurrence wins).
func cleanRows(rows []Row) []Row {
	seen := make(map[string]struct{}, len(rows))
	kept := rows[:0]
	var missing, invalid, duplicate int

	for _, row := range rows {
		name := strings.TrimSpace(row[colName])
		email := strings.TrimSpace(row[colEmail])
		social := strings.TrimSpace(row[colSocialPresence])
		if name == "" || email == "" || social == "" {
			missing++
			continue
		}
		if !ValidEmail(email) {
			invalid++
			continue
		}
		key := strings.ToLower(email)
		if _, dup := seen[key]; dup {
			duplicate++
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, row)
	}

	if missing+invalid+duplicate > 0 {
		zap.L().Info("segment: rows dropped during cleaning",
			zap.Int("missing_required", missing),
			zap.Int("invalid_email", invalid),
			zap.Int("duplicate_email", duplicate),
		)
	}
	return kept
}

// sortRows orders rows descending by the primary column, breaking ties with
// the secondary column (pass -1 for none).
func sortRows(rows []Row, primary, secondary int) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := parseScore(rows[i][primary]), parseScore(rows[j][primary])
		if a != b {
			return a > b
		}
		if secondary < 0 {
			return false
		}
		return parseScore(rows[i][secondary]) > parseScore(rows[j][secondary])
	})
}

// writeCSV writes header+rows to a temp file and renames it into place.
func writeCSV(path string, header []string, rows []Row) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrap(err, "segment: create temp file")
	}

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return eris.Wrap(err, "segment: write header")
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
			return eris.Wrap(err, "segment: write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return eris.Wrap(err, "segment: flush csv")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return eris.Wrap(err, "segment: close temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return eris.Wrapf(err, "segment: rename %s into place", path)
	}

	zap.L().Info("segment: wrote file",
		zap.String("path", path),
		zap.Int("records", len(rows)),
	)
	return nil
}

func logQualityMetrics(rows []Row, initial int) {
	if len(rows) == 0 {
		return
	}
	var totalOpp float64
	for _, row := range rows {
		totalOpp += parseScore(row[colOpportunityScore])
	}
	validRate := 0.0
	if initial > 0 {
		validRate = float64(len(rows)) / float64(initial) * 100
	}
	zap.L().Info("segment: quality metrics",
		zap.Float64("avg_opportunity_score", totalOpp/float64(len(rows))),
		zap.Float64("valid_record_rate_pct", validRate),
	)
}
