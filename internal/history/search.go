package history

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// SearchResult pairs a matched message with its fuzzy score.
type SearchResult struct {
	Message Message
	Score   int
}

// Search fuzzy-matches query against the most recent searchWindow
// messages and returns results ordered best-first. An empty query
// returns nil.
func (s *Store) Search(query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	msgs, err := s.Recent("", searchWindow)
	if err != nil {
		return nil, err
	}

	contents := make([]string, len(msgs))
	for i, m := range msgs {
		contents[i] = m.Content
	}

	matches := fuzzy.Find(query, contents)
	if len(matches) > limit {
		matches = matches[:limit]
	}

	results := make([]SearchResult, 0, len(matches))
	for _, match := range matches {
		results = append(results, SearchResult{
			Message: msgs[match.Index],
			Score:   match.Score,
		})
	}
	return results, nil
}

// searchWindow caps how many messages a single search scans.
const searchWindow = 1000
