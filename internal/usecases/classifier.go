package usecases

import (
	"regexp"
	"strings"
)

// Outcome is the classification of one model reply or user message.
type Outcome int

const (
	// Answered means the reply carries real content and the charge stands.
	Answered Outcome = iota
	// NeedsClarification means the reply asks the user for the equipment
	// model before it can answer. The charge is refunded.
	NeedsClarification
	// NotFound means the reply admits the knowledge base had nothing. The
	// charge is refunded.
	NotFound
	// Degenerate means the reply is empty, truncated, or too thin to count
	// as an answer. The charge is refunded.
	Degenerate
)

// Refundable reports whether the outcome returns the user's credit.
func (o Outcome) Refundable() bool {
	return o != Answered
}

func (o Outcome) String() string {
	switch o {
	case Answered:
		return "answered"
	case NeedsClarification:
		return "needs_clarification"
	case NotFound:
		return "not_found"
	case Degenerate:
		return "degenerate"
	default:
		return "unknown"
	}
}

// Classifier inspects user messages and model replies. Implementations are
// swappable so the rules can evolve without touching the turn pipeline.
type Classifier interface {
	ClassifyReply(reply string) Outcome
	IsGreetingOnly(msg string) bool
	IsCatalogIntent(msg string) bool
	IsTechnicalWithoutModel(msg string) bool
	IsModelOnly(msg string) bool
}

// RuleClassifier is the pattern-based Classifier used in production. The
// vocabulary targets Brazilian Portuguese elevator maintenance chats.
type RuleClassifier struct{}

func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

var greetings = map[string]bool{
	"oi": true, "ola": true, "olá": true,
	"bom dia": true, "boa tarde": true, "boa noite": true,
	"opa": true, "e ai": true, "e aí": true,
}

var (
	catalogIntentRe = regexp.MustCompile(`(?i)(quais\s+modelos\s+tem|lista\s+de\s+modelos|modelos\s+dispon[ií]veis|tem\s+quais\s+modelos)`)

	technicalHintRe = regexp.MustCompile(`(?i)\b(falha|erro|defeito|problema|n[aã]o\s+fecha|n[aã]o\s+abre|n[aã]o\s+parte|porta|trinco|intertrav)\b`)

	modelHintRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b[a-z]{1,5}\s?-?\s?\d{1,5}[a-z]?\b`),
		regexp.MustCompile(`(?i)\b(gen\s?\d|g\d)\b`),
		regexp.MustCompile(`(?i)\b(lcb[i12]|rcb\d|tcbc|gscb|gecb|gdcb|mcp\d{2,4}|atc|cvf|ovf\d{1,3})\b`),
		regexp.MustCompile(`(?i)\b[a-z]{3}\d{4,}[a-z]*\b`),
		regexp.MustCompile(`(?i)\b(otismatic|miconic|mag|mrl|mrds|ledo)\b`),
		regexp.MustCompile(`(?i)\b(do\s?2000|xo\s?508)\b`),
	}

	asksForModelRe = regexp.MustCompile(`(?i)\b(modelo exato|qual\s+[eé]\s+o\s+modelo|me\s+confirme.*modelo|me\s+informe\s+o\s+modelo|preciso\s+do\s+modelo)\b`)

	notFoundRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)n[aã]o\s+encontrei\s+informa[cç][õo]es\s+relevantes`),
		regexp.MustCompile(`(?i)n[aã]o\s+encontrei\s+na\s+base\s+de\s+conhecimento`),
		regexp.MustCompile(`(?i)sem\s+dados\s+suficientes`),
		regexp.MustCompile(`(?i)n[aã]o\s+foi\s+poss[ií]vel\s+localizar`),
	}

	truncatedRe = regexp.MustCompile(`(?i)\belev\.?$`)
	ellipsisRe  = regexp.MustCompile(`\.\.\.$`)

	modelOnlyRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bgen\s?\d\b`),
		regexp.MustCompile(`(?i)\barca\b`),
		regexp.MustCompile(`\b\d{3,5}\b`),
		regexp.MustCompile(`(?i)^[a-z0-9\s\-/\.]{1,25}$`),
	}
)

// ClassifyReply decides whether a model reply earns its charge.
func (c *RuleClassifier) ClassifyReply(reply string) Outcome {
	trimmed := strings.TrimSpace(reply)
	if trimmed == "" {
		return Degenerate
	}
	for _, re := range notFoundRes {
		if re.MatchString(trimmed) {
			return NotFound
		}
	}
	if asksForModelRe.MatchString(trimmed) {
		return NeedsClarification
	}
	if truncatedRe.MatchString(trimmed) || ellipsisRe.MatchString(trimmed) {
		return Degenerate
	}
	if len(strings.Fields(trimmed)) < 6 {
		return Degenerate
	}
	return Answered
}

// IsGreetingOnly matches a bare salutation with no question attached.
func (c *RuleClassifier) IsGreetingOnly(msg string) bool {
	norm := strings.ToLower(strings.TrimSpace(msg))
	norm = strings.TrimRight(norm, "!?. ")
	return greetings[norm]
}

// IsCatalogIntent matches a request for the list of supported models.
func (c *RuleClassifier) IsCatalogIntent(msg string) bool {
	return catalogIntentRe.MatchString(msg)
}

// IsTechnicalWithoutModel matches a fault description that names no
// equipment model. Those get a clarifying question before any charge.
func (c *RuleClassifier) IsTechnicalWithoutModel(msg string) bool {
	if !technicalHintRe.MatchString(msg) {
		return false
	}
	for _, re := range modelHintRes {
		if re.MatchString(msg) {
			return false
		}
	}
	return true
}

// IsModelOnly matches a short reply that is just an equipment identifier,
// sent in answer to a clarifying question.
func (c *RuleClassifier) IsModelOnly(msg string) bool {
	trimmed := strings.TrimSpace(msg)
	if len(trimmed) > 60 || strings.Contains(trimmed, "?") {
		return false
	}
	if len(strings.Fields(trimmed)) > 6 {
		return false
	}
	for _, re := range modelOnlyRes {
		if re.MatchString(trimmed) {
			return true
		}
	}
	return false
}
