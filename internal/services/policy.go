package services

import (
	_ "embed"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/travel-companion-backend/internal/domain/alerts"
	"github.com/yungbote/travel-companion-backend/internal/domain/documents"
)

//go:embed policy.yaml
var policyYAML []byte

// Policy holds the static alert priorities, document rules and keyword lists.
type Policy struct {
	Alerts         map[string]string   `yaml:"alerts"`
	Classification []ClassifyRule      `yaml:"classification"`
	Tags           map[string][]string `yaml:"tags"`
	Weather        struct {
		Severe   []string `yaml:"severe"`
		Advisory []string `yaml:"advisory"`
	} `yaml:"weather"`
	News struct {
		MaxArticles int      `yaml:"max_articles"`
		Keywords    []string `yaml:"keywords"`
	} `yaml:"news"`
	Documents struct {
		PassportKeyword  string `yaml:"passport_keyword"`
		ExpiryWindowDays int    `yaml:"expiry_window_days"`
	} `yaml:"documents"`

	priorities map[string]int
}

type ClassifyRule struct {
	Type     string   `yaml:"type"`
	Keywords []string `yaml:"keywords"`
}

const callerPriority = "caller"

// LoadPolicy parses the embedded policy.
func LoadPolicy() (*Policy, error) {
	return ParsePolicy(policyYAML)
}

func ParsePolicy(raw []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}
	p.priorities = make(map[string]int, len(p.Alerts))
	for t, v := range p.Alerts {
		if !alerts.IsKnownType(t) {
			return nil, fmt.Errorf("policy: unknown alert type %q", t)
		}
		if v == callerPriority {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < alerts.MinPriority || n > alerts.MaxPriority {
			return nil, fmt.Errorf("policy: alert %q priority %q out of range", t, v)
		}
		p.priorities[t] = n
	}
	for _, t := range alerts.Types {
		if _, ok := p.Alerts[t]; !ok {
			return nil, fmt.Errorf("policy: alert type %q missing", t)
		}
	}
	for _, r := range p.Classification {
		if !documents.IsKnownType(r.Type) {
			return nil, fmt.Errorf("policy: unknown document type %q", r.Type)
		}
	}
	if p.News.MaxArticles <= 0 {
		p.News.MaxArticles = 3
	}
	if p.Documents.ExpiryWindowDays <= 0 {
		p.Documents.ExpiryWindowDays = 180
	}
	if p.Documents.PassportKeyword == "" {
		p.Documents.PassportKeyword = "passport"
	}
	return &p, nil
}

// MustLoadPolicy panics when the embedded policy is malformed.
func MustLoadPolicy() *Policy {
	p, err := LoadPolicy()
	if err != nil {
		panic(err)
	}
	return p
}

// Priority returns the fixed priority of alertType, or the clamped caller
// value when the type defers to the caller.
func (p *Policy) Priority(alertType string, requested int) (int, error) {
	v, ok := p.Alerts[alertType]
	if !ok {
		return 0, fmt.Errorf("unknown alert type %q", alertType)
	}
	if v == callerPriority {
		return ClampPriority(requested), nil
	}
	return p.priorities[alertType], nil
}

func ClampPriority(n int) int {
	if n < alerts.MinPriority {
		return alerts.MinPriority
	}
	if n > alerts.MaxPriority {
		return alerts.MaxPriority
	}
	return n
}

// Classify maps a filename to a document type by ordered substring rules.
func (p *Policy) Classify(filename string) string {
	name := strings.ToLower(filename)
	for _, r := range p.Classification {
		for _, kw := range r.Keywords {
			if strings.Contains(name, kw) {
				return r.Type
			}
		}
	}
	return documents.TypeOther
}

// TagsFor returns every tag whose keywords match filename, sorted.
func (p *Policy) TagsFor(filename string) []string {
	name := strings.ToLower(filename)
	out := make([]string, 0, 2)
	for tag, kws := range p.Tags {
		if containsAny(name, kws) {
			out = append(out, tag)
		}
	}
	sort.Strings(out)
	return out
}

// WeatherAlertType returns the alert type raised by a forecast description, if any.
func (p *Policy) WeatherAlertType(description string) (string, bool) {
	d := strings.ToLower(description)
	if containsAny(d, p.Weather.Severe) {
		return alerts.TypeSevereWeather, true
	}
	if containsAny(d, p.Weather.Advisory) {
		return alerts.TypeWeatherAdvisory, true
	}
	return "", false
}

// MatchesNewsKeyword reports whether title or description mention an advisory keyword.
func (p *Policy) MatchesNewsKeyword(title, description string) bool {
	return containsAny(strings.ToLower(title+" "+description), p.News.Keywords)
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
