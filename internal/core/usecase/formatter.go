package usecase

import (
	"regexp"
	"sort"
	"strings"
)

var (
	leakedMarkerRe   = regexp.MustCompile(`(?i)\[(?:block|source|context)\s+\d+\]`)
	answerLabelRe    = regexp.MustCompile(`(?i)^answer\s*:\s*`)
	horizontalWSRe   = regexp.MustCompile(`[ \t\f\v]+`)
	blankLinesRe     = regexp.MustCompile(`\n{3,}`)
	sectionTagRe     = regexp.MustCompile(`(?i)\[section:\s*([^\]\n]+?)\s*\]`)
	basedOnSectionRe = regexp.MustCompile(`(?i)based on the \[([^\]\n]+?)\] section`)
)

// FormattedResponse is the cleaned model output plus its classification.
type FormattedResponse struct {
	CleanText  string   `json:"clean_text"`
	Citations  []string `json:"citations"`
	IsFallback bool     `json:"is_fallback"`
}

// ResponseFormatter post-processes raw model text. Format is pure and
// idempotent: formatting CleanText again yields the same response.
type ResponseFormatter struct {
	refusal string
}

func NewResponseFormatter(cfg Config) *ResponseFormatter {
	cfg = cfg.normalize()
	return &ResponseFormatter{refusal: foldForMatch(normalizeWhitespace(cfg.RefusalPhrase))}
}

func (f *ResponseFormatter) Format(raw string) FormattedResponse {
	clean := cleanText(raw)
	return FormattedResponse{
		CleanText:  clean,
		Citations:  extractCitations(clean),
		IsFallback: f.isFallback(clean),
	}
}

func (f *ResponseFormatter) isFallback(clean string) bool {
	if clean == "" {
		return true
	}
	return strings.Contains(foldForMatch(clean), f.refusal)
}

// typographicQuotes folds curly apostrophes and quotes to ASCII.
var typographicQuotes = strings.NewReplacer("\u2018", "'", "\u2019", "'", "\u201c", `"`, "\u201d", `"`)

func foldForMatch(s string) string {
	return strings.ToLower(typographicQuotes.Replace(s))
}

func cleanText(raw string) string {
	text := raw
	for i := 0; i < 8; i++ {
		next := normalizeWhitespace(answerLabelRe.ReplaceAllString(leakedMarkerRe.ReplaceAllString(text, ""), ""))
		if next == text {
			break
		}
		text = next
	}
	return text
}

func normalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(horizontalWSRe.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// extractCitations collects section tags in first-seen order, dropping
// case-insensitive duplicates.
func extractCitations(text string) []string {
	type hit struct {
		pos   int
		label string
	}
	var hits []hit
	for _, re := range []*regexp.Regexp{sectionTagRe, basedOnSectionRe} {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			hits = append(hits, hit{pos: m[0], label: text[m[2]:m[3]]})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	citations := make([]string, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		label := strings.Join(strings.Fields(h.label), " ")
		if len(label) > len("section:") && strings.EqualFold(label[:len("section:")], "section:") {
			label = strings.TrimSpace(label[len("section:"):])
		}
		key := strings.ToLower(label)
		if label == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		citations = append(citations, label)
	}
	return citations
}
