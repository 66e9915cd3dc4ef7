package rcacore

import (
	"regexp"
	"strings"
)

// routePattern is one row of a compiled (regex, tag, weight) table, matched
// against incident text at boot-compiled cost instead of ad-hoc substring
// checks.
type routePattern struct {
	re     *regexp.Regexp
	tag    string
	weight float64
}

func compilePattern(expr, tag string, weight float64) routePattern {
	return routePattern{re: regexp.MustCompile("(?i)" + expr), tag: tag, weight: weight}
}

var intentPatterns = []routePattern{
	compilePattern(`\bnot tracking\b|\bno tracking\b|\bcan'?t (find|locate)\b|\bwhere is\b|\bmissing (location|update)s?\b`, string(IntentTrackingIssue), 0.9),
	compilePattern(`\bcallbacks? fail|\bwebhook|\bnot receiving updates\b|\bstopped updating\b`, string(IntentTrackingIssue), 0.8),
	compilePattern(`\bcreate (a )?load\b|\bnew load\b|\badd (a )?shipment\b`, string(IntentLoadCreation), 0.9),
	compilePattern(`\bduplicate load\b|\bwrong data\b|\bincorrect (shipper|carrier|location)\b|\bdata (quality|mismatch)\b`, string(IntentDataQuality), 0.85),
	compilePattern(`\binvoice\b|\bbilling\b|\bcharge\b|\bpayment\b`, string(IntentBilling), 0.9),
	compilePattern(`\bload\b.*\bnot tracking\b|\btracking\b.*\bload\b`, string(IntentTrackingIssue), 0.7),
}

var domainPatterns = []routePattern{
	compilePattern(`\bocean\b|\bvessel\b|\bcontainer\b|\bport of\b`, string(DomainOcean), 0.9),
	compilePattern(`\bdrayage\b|\bchassis\b|\brail ramp\b`, string(DomainDrayage), 0.85),
	compilePattern(`\bair\b|\bawb\b|\bflight\b`, string(DomainAir), 0.85),
	compilePattern(`\btruck\b|\bover.?the.?road\b|\bground\b|\b(tl|ltl)\b`, string(DomainOverTheRoad), 0.8),
}

// knownDomains is used to validate explicit mode hints.
var knownDomains = map[string]Domain{
	"ground": DomainOverTheRoad, "otr": DomainOverTheRoad, "truck": DomainOverTheRoad,
	"ocean": DomainOcean, "drayage": DomainDrayage, "air": DomainAir,
}

// Route classifies an incident against the intent and domain pattern tables.
// It never consults external systems.
func Route(incident Incident, highRoute, medRoute float64) RoutingDecision {
	text := incident.Description

	intent, intentConf, intentMatches := bestMatch(text, intentPatterns, string(IntentUnknown))
	domain, domainConf, domainMatches := bestMatch(text, domainPatterns, string(DomainUnknown))

	if hint := strings.ToLower(strings.TrimSpace(incident.ModeHint)); hint != "" {
		if d, ok := knownDomains[hint]; ok {
			domain = string(d)
			domainConf = 1.0
			domainMatches = append(domainMatches, "mode_hint:"+hint)
		}
	}

	confidence := (intentConf + domainConf) / 2

	decision := RoutingDecision{
		Intent:          Intent(intent),
		Domain:          Domain(domain),
		SkillID:         intent + ":" + domain,
		Confidence:      confidence,
		MatchedPatterns: append(intentMatches, domainMatches...),
	}
	decision.ShouldAutoRoute = confidence >= highRoute
	decision.NeedsHumanReview = confidence < medRoute
	return decision
}

func bestMatch(text string, table []routePattern, fallback string) (tag string, weight float64, matched []string) {
	bestTag := fallback
	bestWeight := 0.0
	var matches []string

	for _, p := range table {
		if loc := p.re.FindString(text); loc != "" {
			matches = append(matches, p.tag+":"+loc)
			if p.weight > bestWeight {
				bestWeight = p.weight
				bestTag = p.tag
			}
		}
	}
	if bestWeight == 0 {
		return fallback, 0, matches
	}
	return bestTag, bestWeight, matches
}

// SupportedIntents is the set of intents this core actually implements end
// to end. Routing to anything else short-circuits to an "unsupported"
// verdict.
var SupportedIntents = map[Intent]bool{
	IntentTrackingIssue: true,
}
