// Package prompt assembles generation request payloads. Build is a pure
// function: the only batch-dependent part is the round-robin industry focus
// and the negative examples carried in from the dedup state.
package prompt

import (
	"fmt"
	"strings"
)

const basePrompt = `Act as a professional digital marketing researcher specializing in identifying underutilized social media opportunities.

Find businesses/creators who are PERFECT candidates for short-form content marketing with these characteristics:
1. Have established businesses/services with clear monetization
2. Severely underutilizing or completely missing from key social platforms
3. Operate in industries where short-form content performs exceptionally well
4. Show signs of traditional marketing but haven't embraced social media

For each prospect, provide data in this EXACT CSV format:
name,email,website,industry,business_type,location,current_social_presence_score,instagram_presence,tiktok_presence,youtube_shorts_presence,facebook_presence,linkedin_presence,last_post_estimate,follower_count_estimate,content_frequency_score,visual_content_suitability,target_demographic_alignment,competition_saturation_level,estimated_monthly_revenue,marketing_budget_indicators,pain_points,opportunity_score,contact_likelihood,ideal_content_strategy,projected_roi_potential

Field definitions:
- email: valid business email format (firstname@company.com, info@company.com, etc.)
- current_social_presence_score: 1-10 (1=non-existent, 10=fully optimized)
- platform_presence fields: "none", "minimal", "moderate", "strong"
- last_post_estimate: "never", "6mo+", "1-3mo", "recent"
- follower_count_estimate: actual numbers or ranges
- content_frequency_score: 1-10 (posting consistency)
- visual_content_suitability: 1-10 (how visual their business is)
- target_demographic_alignment: 1-10 (match with social media users)
- competition_saturation_level: 1-10 (1=blue ocean, 10=oversaturated)
- estimated_monthly_revenue: revenue brackets ($1K-5K, $5K-25K, $25K-100K, $100K+)
- marketing_budget_indicators: "none", "minimal", "moderate", "high"
- pain_points: specific marketing challenges (max 100 chars)
- opportunity_score: 1-100 (overall lead quality)
- contact_likelihood: 1-10 (how likely they are to respond)
- ideal_content_strategy: brief strategy recommendation
- projected_roi_potential: "low", "medium", "high", "exceptional"

Generate exactly %d high-quality prospects with realistic, researched-sounding data and valid email addresses.
`

// industries is the round-robin focus rotation. Selection is deterministic:
// batchNum mod len(industries).
var industries = []string{
	"local service businesses (salons, fitness studios, restaurants)",
	"e-commerce brands and online retailers",
	"B2B professional services (consultants, agencies)",
	"health and wellness practitioners",
	"home improvement and contractors",
	"creative services and freelancers",
	"educational content creators and coaches",
	"food and beverage businesses",
}

// MaxRecentKeys caps how many recently accepted emails/names are embedded as
// negative examples.
const MaxRecentKeys = 20

// RecentKeys carries the most recently accepted identity keys, newest last.
type RecentKeys struct {
	Emails []string
	Names  []string
}

// Build produces the full prompt for one batch.
func Build(batchNum, leadsPerBatch int, recent RecentKeys) string {
	var b strings.Builder

	fmt.Fprintf(&b, basePrompt, leadsPerBatch)

	focus := industries[batchNum%len(industries)]
	fmt.Fprintf(&b, `
Batch #%d - Focus on: %s

Look for businesses that:
- Have been in business 1-5 years (established but not social-savvy)
- Show traditional marketing attempts (websites, Google Ads, print)
- Have customer-facing products/services perfect for visual content
- Are in growth phase but struggling with digital marketing
- Have identifiable contact information

Make entries realistic and specific - avoid generic descriptions.
`, batchNum, focus)

	fmt.Fprintf(&b, `
CRITICAL DUPLICATE PREVENTION:
- Ensure each business name is unique and realistic
- Use varied email formats: info@, contact@, hello@, firstname@company.com
- Create diverse website domains - avoid similar company names
- Vary locations across different cities/states
- Use different industry subcategories within the focus area
- Make each entry genuinely distinct

ALREADY GENERATED BUSINESSES TO AVOID:
Recently generated emails: %s
Recently generated names: %s

Generate completely NEW and UNIQUE businesses not similar to any above.
`, joinRecent(recent.Emails), joinRecent(recent.Names))

	return b.String()
}

func joinRecent(keys []string) string {
	if len(keys) == 0 {
		return "None yet"
	}
	if len(keys) > MaxRecentKeys {
		keys = keys[len(keys)-MaxRecentKeys:]
	}
	return strings.Join(keys, ", ")
}

// Industries returns the number of entries in the focus rotation.
// Exposed for tests that assert the round-robin period.
func Industries() int {
	return len(industries)
}
