package governance

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"genesis/internal/agents"
)

// Generator responses follow the documented minimal contract: three labeled
// fields for proposals, a single yes/no token for votes. Parsing happens once
// here; enforcement never interprets free text.
var (
	ruleRe     = regexp.MustCompile(`(?is)RULE:\s*(.+?)(?:EFFECT:|$)`)
	effectRe   = regexp.MustCompile(`(?is)EFFECT:\s*(.+?)(?:CATEGORY:|$)`)
	categoryRe = regexp.MustCompile(`(?i)CATEGORY:\s*(\w+)`)

	percentRe   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	thresholdRe = regexp.MustCompile(`(?i)wealth\s*(?:>|above|over)\s*(\d+(?:\.\d+)?)`)
	floorRe     = regexp.MustCompile(`(?i)(?:minimum|floor)\s*(?:of\s*)?(\d+(?:\.\d+)?)`)
	topRe       = regexp.MustCompile(`(?i)top\s*(\d+(?:\.\d+)?)\s*%`)
	multRe      = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*[x×]`)
)

// Default effect parameters, used when the effect text carries no explicit
// number for a slot.
const (
	defaultTaxRate        = 0.10
	defaultWelfareFloor   = 20.0
	defaultTopFraction    = 0.25
	defaultVoteMultiplier = 2.0
)

// ParseProposal compiles a raw generator response into a Rule with a typed
// effect descriptor. Responses missing the effect or category fail with
// ErrMalformedProposal and the rule never enters voting. An unrecognized
// category token degrades to "other", which is recorded but mechanically
// inert.
func ParseProposal(response string, proposer agents.AgentID, generation int) (*Rule, error) {
	descMatch := ruleRe.FindStringSubmatch(response)
	effectMatch := effectRe.FindStringSubmatch(response)
	categoryMatch := categoryRe.FindStringSubmatch(response)

	if effectMatch == nil || strings.TrimSpace(effectMatch[1]) == "" {
		return nil, fmt.Errorf("%w: missing effect", ErrMalformedProposal)
	}
	if categoryMatch == nil {
		return nil, fmt.Errorf("%w: missing category", ErrMalformedProposal)
	}

	description := "unspecified"
	if descMatch != nil && strings.TrimSpace(descMatch[1]) != "" {
		description = strings.TrimSpace(descMatch[1])
	}
	effectText := strings.TrimSpace(effectMatch[1])
	category := normalizeCategory(categoryMatch[1])

	return &Rule{
		ID:                 newRuleID(),
		ProposerID:         proposer,
		Description:        description,
		EffectText:         effectText,
		Effect:             compileEffect(category, effectText),
		State:              StateProposed,
		GenerationProposed: generation,
		GenerationEnacted:  -1,
	}, nil
}

func normalizeCategory(token string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(token)))
	for _, known := range Categories {
		if c == known {
			return c
		}
	}
	return CategoryOther
}

// compileEffect extracts typed parameters from the effect text for the four
// mechanical categories. This is the only place free text is interpreted;
// enforcement is a total function over the resulting variant.
func compileEffect(category Category, effectText string) Effect {
	e := Effect{Category: category}

	switch category {
	case CategoryTaxation:
		e.Taxation = &TaxationEffect{
			Rate:      extractFraction(percentRe, effectText, defaultTaxRate),
			Threshold: extractNumber(thresholdRe, effectText, 0),
		}
	case CategoryMeritocracy:
		e.Meritocracy = &MeritocracyEffect{
			TopFraction: extractFraction(topRe, effectText, defaultTopFraction),
		}
	case CategoryWelfare:
		e.Welfare = &WelfareEffect{
			Floor: extractNumber(floorRe, effectText, defaultWelfareFloor),
		}
	case CategoryOligarchy:
		e.Oligarchy = &OligarchyEffect{
			TopFraction: extractFraction(topRe, effectText, defaultTopFraction),
			Multiplier:  extractNumber(multRe, effectText, defaultVoteMultiplier),
		}
	}

	return e
}

func extractNumber(re *regexp.Regexp, text string, fallback float64) float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return fallback
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return fallback
	}
	return v
}

// extractFraction reads a percentage and returns it as a fraction in (0, 1].
func extractFraction(re *regexp.Regexp, text string, fallback float64) float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return fallback
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v <= 0 || v > 100 {
		return fallback
	}
	return v / 100
}

// ParseVote interprets a vote response. ok is false when the response is
// unparseable; the caller counts that as a deterministic "no" (abstention),
// never retried mid-vote.
func ParseVote(response string) (yes, ok bool) {
	upper := strings.ToUpper(response)
	switch {
	case strings.Contains(upper, "YES"):
		return true, true
	case strings.Contains(upper, "NO"):
		return false, true
	}
	return false, false
}
