// Package dedup owns the generation-run state: the three identity-key sets
// (email, business name, website domain) used for duplicate suppression,
// and the run counters. The key sets only ever grow for the lifetime of a
// run.
package dedup

import (
	"strings"
	"sync"

	"go.uber.org/zap"
)

// minFields is the smallest number of comma-separated fields a line must
// have to yield an identity key (name, email, website).
const minFields = 3

// Stats is a snapshot of run counters.
type Stats struct {
	CompletedBatches    int `json:"completed_batches"`
	FailedBatches       int `json:"failed_batches"`
	TotalLeads          int `json:"total_leads"`
	DuplicatesPrevented int `json:"duplicates_prevented"`
	UniqueEmails        int `json:"unique_emails"`
}

// State tracks accepted identity keys and run statistics. It is shared by
// all batches in flight; every mutation happens under one mutex so that a
// membership check and the matching insert are a single atomic step.
// Concurrent batches producing the same identity can never both be
// accepted; which one wins is decided by completion order.
type State struct {
	mu sync.Mutex

	emails  map[string]struct{}
	names   map[string]struct{}
	domains map[string]struct{}

	// insertion-ordered logs backing RecentKeys for the prompt builder
	emailLog []string
	nameLog  []string

	completed  int
	failed     int
	totalLeads int
	duplicates int
}

// NewState returns an empty State.
func NewState() *State {
	return &State{
		emails:  make(map[string]struct{}),
		names:   make(map[string]struct{}),
		domains: make(map[string]struct{}),
	}
}

// Filter parses raw batch text and drops every line whose identity collides
// with a previously accepted key. It returns the newline-joined kept lines
// and the number of duplicates dropped. Malformed lines are logged and
// skipped without counting as duplicates. Filter never fails.
func (s *State) Filter(raw string) (string, int) {
	if strings.TrimSpace(raw) == "" {
		return "", 0
	}

	var kept []string
	duplicates := 0

	s.mu.Lock()
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "name,") {
			continue
		}

		// Plain comma split; quoted commas are not handled. The model is
		// instructed not to emit them and the segmenter re-validates later.
		parts := strings.Split(line, ",")
		if len(parts) < minFields {
			zap.L().Warn("dedup: malformed line dropped",
				zap.String("line", truncate(line, 50)),
			)
			continue
		}

		name := strings.ToLower(strings.TrimSpace(parts[0]))
		email := strings.ToLower(strings.TrimSpace(parts[1]))
		domain := ExtractDomain(strings.TrimSpace(parts[2]))

		if s.seenLocked(name, email, domain) {
			duplicates++
			continue
		}

		s.emails[email] = struct{}{}
		s.emailLog = append(s.emailLog, email)
		s.names[name] = struct{}{}
		s.nameLog = append(s.nameLog, name)
		if domain != "" {
			s.domains[domain] = struct{}{}
		}

		kept = append(kept, line)
	}
	s.duplicates += duplicates
	s.mu.Unlock()

	if duplicates > 0 {
		zap.L().Info("dedup: duplicates filtered from batch",
			zap.Int("count", duplicates),
		)
	}

	return strings.Join(kept, "\n"), duplicates
}

// seenLocked reports whether any of the three identity components is
// already registered. Caller must hold s.mu.
func (s *State) seenLocked(name, email, domain string) bool {
	if _, ok := s.emails[email]; ok {
		return true
	}
	if _, ok := s.names[name]; ok {
		return true
	}
	if domain != "" {
		if _, ok := s.domains[domain]; ok {
			return true
		}
	}
	return false
}

// RecentKeys returns up to n most recently accepted emails and names,
// oldest first.
func (s *State) RecentKeys(n int) (emails, names []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tail(s.emailLog, n), tail(s.nameLog, n)
}

// RecordCompleted marks one batch as completed with the given accepted lead
// count.
func (s *State) RecordCompleted(leads int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed++
	s.totalLeads += leads
}

// RecordFailed marks one batch as failed.
func (s *State) RecordFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed++
}

// Stats returns a snapshot of the run counters.
func (s *State) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		CompletedBatches:    s.completed,
		FailedBatches:       s.failed,
		TotalLeads:          s.totalLeads,
		DuplicatesPrevented: s.duplicates,
		UniqueEmails:        len(s.emails),
	}
}

// ExtractDomain normalizes a website URL to its bare domain: lowercased,
// protocol and "www." stripped, cut before the first path or query
// separator. It is idempotent.
func ExtractDomain(url string) string {
	d := strings.ToLower(strings.TrimSpace(url))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexAny(d, "/?"); i >= 0 {
		d = d[:i]
	}
	return d
}

func tail(s []string, n int) []string {
	if n <= 0 || len(s) == 0 {
		return nil
	}
	if len(s) > n {
		s = s[len(s)-n:]
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
