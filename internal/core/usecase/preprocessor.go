package usecase

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/course-assistant/internal/core/domain"
)

// QueryPreprocessor validates and normalises raw user text. It holds no
// mutable state and is safe for concurrent use.
type QueryPreprocessor struct {
	minLength int
	maxLength int
	deny      []*regexp.Regexp
}

func NewQueryPreprocessor(cfg Config) (*QueryPreprocessor, error) {
	cfg = cfg.normalize()

	deny := make([]*regexp.Regexp, 0, len(cfg.DenyPatterns))
	for _, pattern := range cfg.DenyPatterns {
		if strings.TrimSpace(pattern) == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("compile deny pattern %q: %w", pattern, err)
		}
		deny = append(deny, re)
	}

	return &QueryPreprocessor{
		minLength: cfg.MinQueryLength,
		maxLength: cfg.MaxQueryLength,
		deny:      deny,
	}, nil
}

// Preprocess trims, collapses whitespace and lower-cases raw. It fails with
// domain.ErrInvalidQuery when the result is out of bounds or matches the
// denylist.
func (p *QueryPreprocessor) Preprocess(raw string) (string, error) {
	query := strings.Join(strings.Fields(raw), " ")

	length := utf8.RuneCountInString(query)
	if length < p.minLength {
		return "", invalidQuery(fmt.Sprintf("query is too short (minimum %d characters)", p.minLength))
	}
	if length > p.maxLength {
		return "", invalidQuery(fmt.Sprintf("query is too long (maximum %d characters)", p.maxLength))
	}

	query = strings.ToLower(query)
	for _, re := range p.deny {
		if re.MatchString(query) {
			return "", invalidQuery("query contains disallowed content")
		}
	}
	return query, nil
}

func invalidQuery(reason string) error {
	return domain.WrapError(domain.ErrInvalidQuery, "preprocess", errors.New(reason))
}
