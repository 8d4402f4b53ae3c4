// Package keyring manages the pool of API credentials used for generation
// requests: format validation at load time, usage/error accounting, and
// rotation of the active credential.
package keyring

import (
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrNoCredentials is returned when no valid credential survives loading.
// Callers treat it as a fatal startup error.
var ErrNoCredentials = eris.New("keyring: no valid credentials")

// placeholder values that ship in example env files and must never be
// accepted as real keys.
const placeholderKey = "your_api_key_here"

const minKeyLength = 20

// rotateChance is the fixed probability of rotating even when no cap is
// reached, to spread load across the pool.
const rotateChance = 0.05

// Source describes where credentials come from. Any of the fields may be
// empty; the union of all of them forms the candidate pool.
type Source struct {
	Single   string   // one key
	List     string   // comma-separated keys
	Numbered []string // numbered entries (key_1 .. key_10)

	// Prefix is the required key prefix for the active provider
	// (e.g. "AIzaSy" for Gemini, "sk-ant-" for Anthropic).
	Prefix string
}

// Load expands a Source into a validated, de-duplicated key list.
// Rejected keys are logged by prefix only.
func Load(src Source) []string {
	var candidates []string
	if k := strings.TrimSpace(src.Single); k != "" {
		candidates = append(candidates, k)
	}
	for _, k := range strings.Split(src.List, ",") {
		if k = strings.TrimSpace(k); k != "" {
			candidates = append(candidates, k)
		}
	}
	for _, k := range src.Numbered {
		if k = strings.TrimSpace(k); k != "" {
			candidates = append(candidates, k)
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	var valid []string
	for _, k := range candidates {
		if k == placeholderKey {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if len(k) < minKeyLength || !strings.HasPrefix(k, src.Prefix) {
			zap.L().Warn("keyring: invalid key format, skipping",
				zap.String("key_prefix", redact(k)),
			)
			continue
		}
		valid = append(valid, k)
	}
	return valid
}

// redact returns at most the first 8 characters of a key for log output.
func redact(k string) string {
	if len(k) > 8 {
		return k[:8] + "..."
	}
	return k + "..."
}

type credential struct {
	key    string
	usage  int
	errors int
}

// Stats is a point-in-time snapshot of pool health.
type Stats struct {
	TotalKeys     int
	ActiveIndex   int
	TotalRequests int
	TotalErrors   int
}

// Rotator owns the credential pool and selects the active key. All methods
// are safe for concurrent use; acceptance of the at-most-once usage/error
// accounting depends on the internal mutex.
type Rotator struct {
	mu        sync.Mutex
	creds     []*credential
	active    int
	maxUsage  int
	maxErrors int

	// chance overrides the random-rotation probability; tests set it to 0
	// for determinism.
	chance float64
}

// New builds a Rotator over the given keys. Returns ErrNoCredentials when
// the pool is empty.
func New(keys []string, maxUsage, maxErrors int) (*Rotator, error) {
	if len(keys) == 0 {
		return nil, ErrNoCredentials
	}
	creds := make([]*credential, len(keys))
	for i, k := range keys {
		creds[i] = &credential{key: k}
	}
	return &Rotator{
		creds:     creds,
		maxUsage:  maxUsage,
		maxErrors: maxErrors,
		chance:    rotateChance,
	}, nil
}

// Current returns the active credential's key.
func (r *Rotator) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.creds[r.active].key
}

// Rotate advances the active credential when the current one has hit its
// usage or error cap, or with a small fixed probability for load spreading.
// Otherwise the current key is returned unchanged. A single-entry pool
// always returns its only key.
func (r *Rotator) Rotate() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.creds) == 1 {
		return r.creds[0].key
	}

	cur := r.creds[r.active]
	if cur.usage >= r.maxUsage || cur.errors >= r.maxErrors || rand.Float64() < r.chance {
		r.rotateLocked(cur.usage, cur.errors)
	}
	return r.creds[r.active].key
}

// rotateLocked scans forward circularly for the next credential whose error
// count is below the cap. If none qualifies the active index is unchanged.
// Caller must hold r.mu.
func (r *Rotator) rotateLocked(usage, errors int) {
	old := r.active
	for range r.creds {
		r.active = (r.active + 1) % len(r.creds)
		if r.creds[r.active].errors < r.maxErrors {
			break
		}
	}
	if old != r.active {
		zap.L().Info("keyring: rotated credential",
			zap.Int("usage", usage),
			zap.Int("errors", errors),
		)
	}
}

// RecordUsage increments the active credential's usage counter.
func (r *Rotator) RecordUsage() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creds[r.active].usage++
}

// RecordError increments the active credential's error counter and rotates
// once the error cap is reached.
func (r *Rotator) RecordError() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.creds[r.active]
	cur.errors++
	if cur.errors >= r.maxErrors && len(r.creds) > 1 {
		zap.L().Warn("keyring: credential hit error cap, rotating",
			zap.Int("errors", cur.errors),
		)
		r.rotateLocked(cur.usage, cur.errors)
	}
}

// Stats returns a snapshot of pool counters for summary logging.
func (r *Rotator) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Stats{
		TotalKeys:   len(r.creds),
		ActiveIndex: r.active,
	}
	for _, c := range r.creds {
		s.TotalRequests += c.usage
		s.TotalErrors += c.errors
	}
	return s
}
