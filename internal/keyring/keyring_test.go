package keyring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrefix = "AIzaSy"

func validKey(suffix string) string {
	return testPrefix + "0123456789abcd" + suffix
}

func newTestRotator(t *testing.T, keys []string, maxUsage, maxErrors int) *Rotator {
	t.Helper()
	r, err := New(keys, maxUsage, maxErrors)
	require.NoError(t, err)
	r.chance = 0 // no random rotation in tests
	return r
}

func TestLoad_ValidatesAndDedups(t *testing.T) {
	keys := Load(Source{
		Single: validKey("A"),
		List:   validKey("B") + ", " + validKey("A") + " ,short, other-prefix-0123456789",
		Numbered: []string{
			validKey("C"),
			"your_api_key_here",
			"",
		},
		Prefix: testPrefix,
	})

	assert.Equal(t, []string{validKey("A"), validKey("B"), validKey("C")}, keys)
}

func TestLoad_Empty(t *testing.T) {
	assert.Empty(t, Load(Source{Prefix: testPrefix}))
	assert.Empty(t, Load(Source{Single: "your_api_key_here", Prefix: testPrefix}))
}

func TestNew_NoCredentials(t *testing.T) {
	_, err := New(nil, 150, 5)
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestRotator_SingleKeyNeverRotates(t *testing.T) {
	r := newTestRotator(t, []string{validKey("A")}, 2, 2)

	for range 10 {
		assert.Equal(t, validKey("A"), r.Rotate())
		r.RecordUsage()
		r.RecordError()
	}
	assert.Equal(t, validKey("A"), r.Current())
}

func TestRotator_UsageCapRotates(t *testing.T) {
	r := newTestRotator(t, []string{validKey("A"), validKey("B")}, 3, 5)

	for range 3 {
		assert.Equal(t, validKey("A"), r.Rotate())
		r.RecordUsage()
	}

	// Fourth call sees usage == cap and advances.
	assert.Equal(t, validKey("B"), r.Rotate())
	assert.Equal(t, validKey("B"), r.Current())
}

func TestRotator_ErrorCapRotatesImmediately(t *testing.T) {
	r := newTestRotator(t, []string{validKey("A"), validKey("B")}, 150, 2)

	r.RecordError()
	assert.Equal(t, validKey("A"), r.Current())

	r.RecordError()
	assert.Equal(t, validKey("B"), r.Current())
}

func TestRotator_SkipsExhaustedCredentials(t *testing.T) {
	r := newTestRotator(t, []string{validKey("A"), validKey("B"), validKey("C")}, 1, 1)

	// Burn B's error budget, then exhaust A's usage. Rotation must land on
	// C, never on B.
	r.creds[1].errors = 1
	r.RecordUsage()

	assert.Equal(t, validKey("C"), r.Rotate())
}

func TestRotator_Stats(t *testing.T) {
	r := newTestRotator(t, []string{validKey("A"), validKey("B")}, 150, 5)

	r.RecordUsage()
	r.RecordUsage()
	r.RecordError()

	s := r.Stats()
	assert.Equal(t, 2, s.TotalKeys)
	assert.Equal(t, 2, s.TotalRequests)
	assert.Equal(t, 1, s.TotalErrors)
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "AIzaSy01...", redact("AIzaSy0123456789"))
	assert.Equal(t, "short...", redact("short"))
}
