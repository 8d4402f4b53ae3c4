package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuild_LeadCountAndFormat(t *testing.T) {
	p := Build(1, 15, RecentKeys{})

	assert.Contains(t, p, "Generate exactly 15 high-quality prospects")
	assert.Contains(t, p, "name,email,website,industry")
	assert.Contains(t, p, "Batch #1 - Focus on:")
}

func TestBuild_IndustryRoundRobin(t *testing.T) {
	n := Industries()
	assert.Equal(t, 8, n)

	// Same position in the rotation yields the same focus line.
	for batch := range n {
		a := Build(batch, 15, RecentKeys{})
		b := Build(batch+n, 15, RecentKeys{})
		assert.Equal(t, focusLine(a), focusLine(b), "batch %d", batch)
	}

	// Consecutive batches get distinct focus industries.
	seen := make(map[string]struct{})
	for batch := range n {
		seen[focusLine(Build(batch, 15, RecentKeys{}))] = struct{}{}
	}
	assert.Len(t, seen, n)
}

func TestBuild_NoRecentKeys(t *testing.T) {
	p := Build(1, 15, RecentKeys{})

	assert.Contains(t, p, "Recently generated emails: None yet")
	assert.Contains(t, p, "Recently generated names: None yet")
}

func TestBuild_RecentKeysEmbedded(t *testing.T) {
	p := Build(1, 15, RecentKeys{
		Emails: []string{"a@x.com", "b@y.com"},
		Names:  []string{"acme", "globex"},
	})

	assert.Contains(t, p, "Recently generated emails: a@x.com, b@y.com")
	assert.Contains(t, p, "Recently generated names: acme, globex")
}

func TestBuild_RecentKeysCapped(t *testing.T) {
	emails := make([]string, MaxRecentKeys+10)
	for i := range emails {
		emails[i] = fmt.Sprintf("lead%d@example.com", i)
	}

	p := Build(1, 15, RecentKeys{Emails: emails})

	// Only the newest MaxRecentKeys survive; the oldest is dropped.
	assert.NotContains(t, p, "lead0@example.com,")
	assert.Contains(t, p, emails[len(emails)-1])
	assert.Contains(t, p, emails[len(emails)-MaxRecentKeys])
}

func focusLine(p string) string {
	for _, line := range strings.Split(p, "\n") {
		if strings.Contains(line, "Focus on:") {
			return line[strings.Index(line, "Focus on:"):]
		}
	}
	return ""
}
