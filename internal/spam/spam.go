// Package spam flags contact submissions that look like automated
// solicitation. It holds no state between calls.
package spam

import (
	"fmt"
	"regexp"
)

// DefaultMaxLinks is the number of links a message may contain before it is
// treated as spam.
const DefaultMaxLinks = 3

var linkPattern = regexp.MustCompile(`(?i)https?://`)

// Rule is one named pattern checked against every text field.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

// Verdict is the outcome of a check. Reason is empty when Spam is false.
type Verdict struct {
	Spam   bool
	Reason string
}

// Classifier applies pattern rules and a link-count limit.
type Classifier struct {
	rules    []Rule
	maxLinks int
}

// New creates a Classifier. maxLinks <= 0 disables the link check.
func New(rules []Rule, maxLinks int) *Classifier {
	return &Classifier{rules: rules, maxLinks: maxLinks}
}

// Default returns a Classifier with the built-in vocabulary rules.
func Default() *Classifier {
	return New(DefaultRules(), DefaultMaxLinks)
}

// DefaultRules is the solicitation vocabulary seen in inbound form spam.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "pharma", Pattern: regexp.MustCompile(`(?i)\b(viagra|cialis|levitra|xanax|tramadol)\b`)},
		{Name: "gambling", Pattern: regexp.MustCompile(`(?i)\b(casino|poker|jackpot|lottery|slot\s*machines?)\b`)},
		{Name: "crypto", Pattern: regexp.MustCompile(`(?i)\b(crypto|bitcoin|forex)\s+(investment|trading|opportunity|profits?)\b`)},
		{Name: "ranking-sales", Pattern: regexp.MustCompile(`(?i)\b(guaranteed\s+(first|1st|top)\s+page|buy\s+(backlinks|links|traffic))\b`)},
		{Name: "followers", Pattern: regexp.MustCompile(`(?i)\bbuy\s+(cheap\s+)?(followers|likes|reviews|subscribers)\b`)},
		{Name: "easy-money", Pattern: regexp.MustCompile(`(?i)\b(make|earn)\s+\$?\d[\d,]*\s+(a|per)\s+(day|week)\b`)},
		{Name: "loans", Pattern: regexp.MustCompile(`(?i)\b(payday\s+loans?|loan\s+offer|instant\s+approval)\b`)},
		{Name: "bait", Pattern: regexp.MustCompile(`(?i)\b(click\s+here\s+now|act\s+now|limited\s+time\s+offer|100%\s+free)\b`)},
	}
}

// Check inspects the sender fields and message body.
func (c *Classifier) Check(name, email, message string) Verdict {
	for _, r := range c.rules {
		for _, field := range [...]struct{ label, value string }{
			{"name", name},
			{"email", email},
			{"message", message},
		} {
			if r.Pattern.MatchString(field.value) {
				return Verdict{Spam: true, Reason: fmt.Sprintf("%s matched rule %s", field.label, r.Name)}
			}
		}
	}

	if c.maxLinks > 0 {
		if n := len(linkPattern.FindAllStringIndex(message, -1)); n > c.maxLinks {
			return Verdict{Spam: true, Reason: fmt.Sprintf("message contains %d links", n)}
		}
	}
	return Verdict{}
}
