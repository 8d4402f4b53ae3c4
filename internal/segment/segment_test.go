package segment

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/output"
)

func writeMaster(t *testing.T, dir string, rows []Row) string {
	t.Helper()
	path := filepath.Join(dir, "master.csv")

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	require.NoError(t, w.Write(strings.Split(output.Header, ",")))
	for _, row := range rows {
		require.NoError(t, w.Write(row))
	}
	w.Flush()
	require.NoError(t, w.Error())
	return path
}

func fullRow(name, email, social, instagram, tiktok, youtube, freq, followers, opportunity string) Row {
	row := make(Row, numColumns)
	for i := range row {
		row[i] = "x"
	}
	row[colName] = name
	row[colEmail] = email
	row[colWebsite] = "https://www." + strings.ToLower(strings.ReplaceAll(name, " ", "")) + ".com"
	row[colSocialPresence] = social
	row[colInstagram] = instagram
	row[colTikTok] = tiktok
	row[colYouTubeShorts] = youtube
	row[colContentFrequency] = freq
	row[colFollowerCount] = followers
	row[colOpportunityScore] = opportunity
	row[colContactLikelihood] = "5"
	row[colVisualSuitability] = "5"
	return row
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func testOptions(dir string) Options {
	return Options{
		NonAdoptersFile:      filepath.Join(dir, "non_adopters.csv"),
		ModerateAdoptersFile: filepath.Join(dir, "moderate.csv"),
		HighVolumeFile:       filepath.Join(dir, "high_volume.csv"),
	}
}

func TestSegmenter_BucketsAndMasterRewrite(t *testing.T) {
	dir := t.TempDir()
	master := writeMaster(t, dir, []Row{
		fullRow("Quiet Plumbing", "info@quietplumbing.com", "2", "none", "none", "none", "1", "500", "75"),
		fullRow("Busy Bakery", "hello@busybakery.com", "8", "strong", "strong", "moderate", "9", "50k", "80"),
		fullRow("Middling Studio", "studio@middling.com", "5", "moderate", "minimal", "none", "4", "2k", "65"),
	})

	opts := testOptions(dir)
	require.NoError(t, New(opts).Run(master))

	non := readCSV(t, opts.NonAdoptersFile)
	require.Len(t, non, 2)
	assert.Equal(t, "Quiet Plumbing", non[1][colName])
	assert.Equal(t, LevelNonAdopter, non[1][numColumns])

	high := readCSV(t, opts.HighVolumeFile)
	require.Len(t, high, 2)
	assert.Equal(t, "Busy Bakery", high[1][colName])

	mod := readCSV(t, opts.ModerateAdoptersFile)
	require.Len(t, mod, 2)
	assert.Equal(t, "Middling Studio", mod[1][colName])

	// Master is rewritten with the adoption_level column appended.
	rewritten := readCSV(t, master)
	require.Len(t, rewritten, 4)
	assert.Equal(t, adoptionColumn, rewritten[0][numColumns])
	for _, rec := range rewritten[1:] {
		assert.Len(t, rec, numColumns+1)
	}
}

func TestSegmenter_CleansInvalidRows(t *testing.T) {
	dir := t.TempDir()

	missingName := fullRow("", "x@y.com", "2", "none", "none", "none", "1", "500", "75")
	badEmail := fullRow("Bad Email Co", "not-an-email", "2", "none", "none", "none", "1", "500", "75")
	dupA := fullRow("First Co", "same@addr.com", "2", "none", "none", "none", "1", "500", "90")
	dupB := fullRow("Second Co", "SAME@ADDR.COM", "2", "none", "none", "none", "1", "500", "10")

	master := writeMaster(t, dir, []Row{missingName, badEmail, dupA, dupB})

	opts := testOptions(dir)
	require.NoError(t, New(opts).Run(master))

	// Only the first occurrence of the duplicated email survives.
	rewritten := readCSV(t, master)
	require.Len(t, rewritten, 2)
	assert.Equal(t, "First Co", rewritten[1][colName])
}

func TestSegmenter_SortsByOpportunityDescending(t *testing.T) {
	dir := t.TempDir()
	master := writeMaster(t, dir, []Row{
		fullRow("Low Opp", "low@a.com", "2", "none", "none", "none", "1", "500", "40"),
		fullRow("High Opp", "high@b.com", "2", "none", "none", "none", "1", "500", "90"),
		fullRow("Mid Opp", "mid@c.com", "2", "none", "none", "none", "1", "500", "70"),
	})

	opts := testOptions(dir)
	require.NoError(t, New(opts).Run(master))

	non := readCSV(t, opts.NonAdoptersFile)
	require.Len(t, non, 4)
	assert.Equal(t, "High Opp", non[1][colName])
	assert.Equal(t, "Mid Opp", non[2][colName])
	assert.Equal(t, "Low Opp", non[3][colName])
}

func TestSegmenter_ContactLikelihoodBreaksTies(t *testing.T) {
	eager := fullRow("Eager Co", "eager@a.com", "2", "none", "none", "none", "1", "500", "70")
	eager[colContactLikelihood] = "9"
	shy := fullRow("Shy Co", "shy@b.com", "2", "none", "none", "none", "1", "500", "70")
	shy[colContactLikelihood] = "2"

	dir := t.TempDir()
	master := writeMaster(t, dir, []Row{shy, eager})

	opts := testOptions(dir)
	require.NoError(t, New(opts).Run(master))

	non := readCSV(t, opts.NonAdoptersFile)
	require.Len(t, non, 3)
	assert.Equal(t, "Eager Co", non[1][colName])
}

func TestSegmenter_EmptyFileFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	err := New(testOptions(dir)).Run(path)
	assert.Error(t, err)
}

func TestSegmenter_ShortHeaderFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "short.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,email,website\n"), 0o644))

	err := New(testOptions(dir)).Run(path)
	assert.Error(t, err)
}

func TestSegmenter_Latin1Fallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "latin1.csv")

	row := fullRow("Caf\xe9 Latte", "cafe@latte.com", "2", "none", "none", "none", "1", "500", "75")
	var b strings.Builder
	b.WriteString(output.Header + "\n")
	b.WriteString(strings.Join(row, ",") + "\n")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	opts := testOptions(dir)
	require.NoError(t, New(opts).Run(path))

	non := readCSV(t, opts.NonAdoptersFile)
	require.Len(t, non, 2)
	assert.Equal(t, "Café Latte", non[1][colName])
}

func TestSegmenter_WorkbookExport(t *testing.T) {
	dir := t.TempDir()
	master := writeMaster(t, dir, []Row{
		fullRow("Quiet Plumbing", "info@quietplumbing.com", "2", "none", "none", "none", "1", "500", "75"),
	})

	opts := testOptions(dir)
	opts.XLSXFile = filepath.Join(dir, "leads.xlsx")
	require.NoError(t, New(opts).Run(master))

	info, err := os.Stat(opts.XLSXFile)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
