package domain

import "strings"

// Profile is the single buyer-side configuration: keyword filters plus the
// free-text strategic narrative handed to the model as context. Exactly one
// profile exists; it is overwritten in place, never deleted.
type Profile struct {
	PositiveKeywords string
	NegativeKeywords string
	Regions          string
	Strategy         string
}

// Keywords splits the comma-separated positive keyword list into trimmed,
// non-empty terms used for relevance matching.
func (p Profile) Keywords() []string {
	parts := strings.Split(p.PositiveKeywords, ",")
	keywords := make([]string, 0, len(parts))
	for _, part := range parts {
		if k := strings.TrimSpace(part); k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}
