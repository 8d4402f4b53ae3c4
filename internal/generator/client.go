package generator

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
)

// Client is the remote text-generation call. Implementations hold the fixed
// sampling parameters; the orchestrator only supplies the credential and the
// prompt.
type Client interface {
	GenerateText(ctx context.Context, apiKey, prompt string) (string, error)
}

// StubClient is a deterministic offline generator. It emits well-formed
// 25-column CSV rows with unique identities, cycling through the three
// adoption profiles so segmentation has something to bucket. Used by
// --offline mode and tests.
type StubClient struct {
	LeadsPerBatch int

	calls atomic.Int64
}

// stubProfiles are (social, presence, content_freq, followers, opportunity)
// shapes matching the three adoption levels.
var stubProfiles = []struct {
	social    int
	presence  string
	lastPost  string
	followers string
	freq      int
	opp       int
}{
	{2, "none", "never", "500", 1, 75},
	{5, "moderate", "1-3mo", "2k", 4, 65},
	{8, "strong", "recent", "50k", 9, 80},
}

// GenerateText returns LeadsPerBatch synthetic rows. Identities are derived
// from a process-global call counter, so every call yields fresh leads.
func (s *StubClient) GenerateText(_ context.Context, _ string, _ string) (string, error) {
	call := s.calls.Add(1)
	n := s.LeadsPerBatch
	if n <= 0 {
		n = 15
	}

	var b strings.Builder
	for i := 0; i < n; i++ {
		seq := (call-1)*int64(n) + int64(i) + 1
		p := stubProfiles[seq%int64(len(stubProfiles))]
		fmt.Fprintf(&b,
			"Stub Ventures %d,contact%d@stubventures%d.com,https://www.stubventures%d.com,"+
				"local services,service,Austin TX,%d,%s,%s,%s,%s,%s,%s,%s,%d,7,6,4,"+
				"$5K-25K,minimal,inconsistent posting,%d,6,short-form before/after clips,high\n",
			seq, seq, seq, seq,
			p.social, p.presence, p.presence, p.presence, p.presence, p.presence,
			p.lastPost, p.followers, p.freq, p.opp,
		)
	}
	return b.String(), nil
}
