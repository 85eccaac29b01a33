package recommend

import (
	"strings"

	"github.com/avilacode/bloomtrack-backend/internal/domain"
)

// ContentMatcher selects remedial content for one weak topic. Swapping the
// implementation (keyword match today, embedding match later) must not touch
// the engine.
type ContentMatcher interface {
	MatchModules(topicTitle string, level domain.BloomLevel, candidates []*domain.Module, max int) []string
	MatchQuizzes(topicTitle string, level domain.BloomLevel, candidates []*domain.Quiz, max int) []string
}

// KeywordMatcher matches candidates whose bloom level equals the weak level
// and whose title shares at least one whitespace-separated keyword with the
// topic title. Comparison is lowercase substring containment.
type KeywordMatcher struct{}

func NewKeywordMatcher() *KeywordMatcher { return &KeywordMatcher{} }

func (m *KeywordMatcher) MatchModules(topicTitle string, level domain.BloomLevel, candidates []*domain.Module, max int) []string {
	keywords := keywordsOf(topicTitle)
	var out []string
	for _, mod := range candidates {
		if len(out) >= max {
			break
		}
		if mod.BloomLevel != level {
			continue
		}
		if titleMatches(mod.Title, keywords) {
			out = append(out, mod.ID)
		}
	}
	return out
}

func (m *KeywordMatcher) MatchQuizzes(topicTitle string, level domain.BloomLevel, candidates []*domain.Quiz, max int) []string {
	keywords := keywordsOf(topicTitle)
	var out []string
	for _, q := range candidates {
		if len(out) >= max {
			break
		}
		if q.BloomLevel != level {
			continue
		}
		if titleMatches(q.TopicTitle, keywords) {
			out = append(out, q.ID)
		}
	}
	return out
}

func keywordsOf(topicTitle string) []string {
	return strings.Fields(strings.ToLower(topicTitle))
}

func titleMatches(title string, keywords []string) bool {
	lower := strings.ToLower(title)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
