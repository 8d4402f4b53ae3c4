package segment

import (
	"regexp"
	"strconv"
	"strings"
)

// Adoption levels. Exactly one is assigned per lead.
const (
	LevelNonAdopter = "non_adopter"
	LevelModerate   = "moderate_adopter"
	LevelHighVolume = "high_volume_poor_results"
)

// Master CSV column indexes (25 columns).
const (
	colName = iota
	colEmail
	colWebsite
	colIndustry
	colBusinessType
	colLocation
	colSocialPresence
	colInstagram
	colTikTok
	colYouTubeShorts
	colFacebook
	colLinkedIn
	colLastPost
	colFollowerCount
	colContentFrequency
	colVisualSuitability
	colDemographicAlignment
	colCompetitionSaturation
	colMonthlyRevenue
	colBudgetIndicators
	colPainPoints
	colOpportunityScore
	colContactLikelihood
	colContentStrategy
	colROIPotential

	numColumns
)

// Row is one master CSV record.
type Row []string

// Classify assigns the adoption level for a row. Rules are evaluated in
// order; any parse failure falls back to zero values.
func Classify(row Row) string {
	social := parseScore(row[colSocialPresence])
	contentFreq := parseScore(row[colContentFrequency])
	opportunity := parseScore(row[colOpportunityScore])
	followers := ParseFollowerCount(row[colFollowerCount])

	// Short-form platforms only; Facebook/LinkedIn presence does not count
	// toward adoption.
	avgPlatform := (presenceScore(row[colInstagram]) +
		presenceScore(row[colTikTok]) +
		presenceScore(row[colYouTubeShorts])) / 3

	switch {
	case social <= 3 && avgPlatform <= 0.5 && contentFreq <= 3 && followers < 1000:
		return LevelNonAdopter
	case social >= 4 && avgPlatform >= 1.5 && contentFreq >= 6 && followers >= 1000 && opportunity >= 60:
		return LevelHighVolume
	default:
		return LevelModerate
	}
}

// parseScore coerces a numeric field, returning 0 on failure.
func parseScore(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// presenceScore maps a platform-presence category to its numeric weight.
// Unknown values score 0.
func presenceScore(s string) float64 {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minimal":
		return 1
	case "moderate":
		return 2
	case "strong":
		return 3
	default:
		return 0
	}
}

var (
	followersK   = regexp.MustCompile(`([\d.]+)k`)
	followersM   = regexp.MustCompile(`([\d.]+)m`)
	followersNum = regexp.MustCompile(`[\d.]+`)
)

// ParseFollowerCount parses a free-text follower estimate ("500", "2.5k",
// "1m", "10k-50k"). Returns 0 when no number can be extracted.
func ParseFollowerCount(s string) float64 {
	s = strings.ToLower(strings.TrimSpace(s))

	if strings.Contains(s, "k") {
		if m := followersK.FindStringSubmatch(s); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return v * 1e3
			}
		}
	}
	if strings.Contains(s, "m") {
		if m := followersM.FindStringSubmatch(s); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return v * 1e6
			}
		}
	}
	if m := followersNum.FindString(s); m != "" {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			return v
		}
	}
	return 0
}

// emailPattern is a deliberately loose RFC-lite check; anything it rejects
// is unusable for outreach anyway.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// ValidEmail reports whether the address passes the RFC-lite pattern.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
