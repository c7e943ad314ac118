package classify

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Rule maps any of its substrings to a category for one media kind.
type Rule struct {
	Category   Category
	Media      Media
	Substrings []string
}

func (r Rule) matches(lowerName string) bool {
	for _, s := range r.Substrings {
		if s != "" && strings.Contains(lowerName, s) {
			return true
		}
	}
	return false
}

// DefaultRules returns the built-in rule table. Order matters.
func DefaultRules() []Rule {
	return []Rule{
		{Category: Soldier, Media: MediaImage, Substrings: []string{"soldier", "enemy"}},
		{Category: Tree, Media: MediaImage, Substrings: []string{"dipterocarp", "banyan", "coconut", "palm", "tree"}},
		{Category: Foliage, Media: MediaImage, Substrings: []string{"fern", "elephant", "grass"}},
		{Category: Skybox, Media: MediaImage, Substrings: []string{"skybox"}},
		{Category: Texture, Media: MediaImage, Substrings: []string{"floor", "ground"}},
		{Category: UI, Media: MediaImage, Substrings: []string{"first-person", "ui"}},
		{Category: AmbientAudio, Media: MediaAudio, Substrings: []string{"jungle", "ambient"}},
		{Category: ImpactAudio, Media: MediaAudio, Substrings: []string{"gunshot", "shot", "death", "impact", "explosion"}},
	}
}

// Classifier evaluates an immutable, ordered rule table.
type Classifier struct {
	rules []Rule
}

// New builds a classifier from rules. Substrings are lower-cased; rules with
// unknown categories or media are rejected.
func New(rules []Rule) (*Classifier, error) {
	if len(rules) == 0 {
		return nil, errors.New("classifier requires at least one rule")
	}
	copied := make([]Rule, 0, len(rules))
	for i, rule := range rules {
		if _, err := Parse(string(rule.Category)); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		if rule.Media != MediaImage && rule.Media != MediaAudio {
			return nil, fmt.Errorf("rule %d: unknown media %q", i, rule.Media)
		}
		subs := make([]string, 0, len(rule.Substrings))
		for _, s := range rule.Substrings {
			s = strings.ToLower(strings.TrimSpace(s))
			if s != "" {
				subs = append(subs, s)
			}
		}
		if len(subs) == 0 {
			return nil, fmt.Errorf("rule %d (%s): no substrings", i, rule.Category)
		}
		copied = append(copied, Rule{Category: rule.Category, Media: rule.Media, Substrings: subs})
	}
	return &Classifier{rules: copied}, nil
}

// Default returns a classifier over DefaultRules.
func Default() *Classifier {
	c, err := New(DefaultRules())
	if err != nil {
		panic(err)
	}
	return c
}

// Classify returns the category of the first rule matching filename.
func (c *Classifier) Classify(filename string) Category {
	category, _ := c.Explain(filename)
	return category
}

// Explain returns the category together with the index of the matching rule,
// or -1 when the name fell through to Misc.
func (c *Classifier) Explain(filename string) (Category, int) {
	if c == nil {
		c = Default()
	}
	name := strings.ToLower(filepath.Base(strings.TrimSpace(filename)))
	media := MediaOf(name)
	for i, rule := range c.rules {
		if rule.Media != media {
			continue
		}
		if rule.matches(name) {
			return rule.Category, i
		}
	}
	return Misc, -1
}

// Rules returns a copy of the rule table.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, rule := range c.rules {
		out[i] = Rule{Category: rule.Category, Media: rule.Media, Substrings: append([]string(nil), rule.Substrings...)}
	}
	return out
}

var defaultClassifier = Default()

// Classify classifies filename with the built-in table.
func Classify(filename string) Category {
	return defaultClassifier.Classify(filename)
}
