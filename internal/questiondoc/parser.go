package questiondoc

import (
	"sort"
	"strings"
	"time"
)

// DefaultQuota is the number of questions kept per test.
const DefaultQuota = 25

type Config struct {
	// Quota caps the number of selected questions; zero or less keeps all.
	Quota int
	// Rand drives sampling. A time-seeded source is used when nil.
	Rand Intner
	// Strict also rejects questions with empty text and questions whose
	// serialized line would not parse back to the same question.
	Strict bool
}

func DefaultConfig() Config {
	return Config{Quota: DefaultQuota}
}

type Parser struct {
	cfg Config
}

func New(cfg Config) *Parser {
	if cfg.Rand == nil {
		cfg.Rand = NewRand(time.Now().UnixNano())
	}
	return &Parser{cfg: cfg}
}

// Outcome is the full result of processing one document.
type Outcome struct {
	Accepted []ParsedQuestion `json:"accepted"`
	Skipped  []Skip           `json:"skipped"`
	Selected []ParsedQuestion `json:"selected"`
	Text     string           `json:"questions_text"`
}

// Parse runs format detection, tokenization and validation over raw text.
func (p *Parser) Parse(raw string) Result {
	units, skips := scan(raw)
	res := p.Collect(units)
	res.Skipped = mergeSkips(skips, res.Skipped)
	return res
}

// Collect validates units that were produced outside the text grammar.
func (p *Parser) Collect(units []Unit) Result {
	res := Result{
		Accepted: make([]ParsedQuestion, 0, len(units)),
		Skipped:  make([]Skip, 0),
	}
	for _, u := range units {
		q, err := validate(u, p.cfg.Strict)
		if err != nil {
			res.Skipped = append(res.Skipped, newSkip(u.Line, strings.TrimSpace(u.Text), err))
			continue
		}
		res.Accepted = append(res.Accepted, q)
	}
	return res
}

// Finish samples and serializes an already parsed result.
func (p *Parser) Finish(res Result) Outcome {
	selected := Sample(res.Accepted, p.cfg.Quota, p.cfg.Rand)
	return Outcome{
		Accepted: res.Accepted,
		Skipped:  res.Skipped,
		Selected: selected,
		Text:     Serialize(selected),
	}
}

func (p *Parser) Process(raw string) Outcome {
	return p.Finish(p.Parse(raw))
}

// Normalize returns the newline-joined payload for raw. It never fails; an
// empty string means nothing in the document was usable.
func (p *Parser) Normalize(raw string) string {
	return p.Process(raw).Text
}

// Parse parses raw with default, non-strict settings.
func Parse(raw string) Result {
	return New(Config{}).Parse(raw)
}

func Normalize(raw string, cfg Config) string {
	return New(cfg).Normalize(raw)
}

func mergeSkips(a, b []Skip) []Skip {
	out := make([]Skip, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}
