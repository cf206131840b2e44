package catalog

import "math"

// Paper is a ranked search or feed result returned by the catalog service.
type Paper struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Abstract   string   `json:"abstract"`
	URL        string   `json:"url,omitempty"`
	Similarity *float64 `json:"similarity,omitempty"`
}

// HasSimilarity reports whether the service attached a relevance score.
func (p Paper) HasSimilarity() bool {
	return p.Similarity != nil && !math.IsNaN(*p.Similarity)
}

// MatchPercent rounds the similarity score to the nearest whole percent.
// 0.916 becomes 92, 0.914 becomes 91.
func (p Paper) MatchPercent() int {
	if !p.HasSimilarity() {
		return 0
	}
	return int(math.Round(*p.Similarity * 100))
}

// InteractionType is the verb recorded by the interactions endpoint.
type InteractionType string

const (
	InteractionStar   InteractionType = "star"
	InteractionUnstar InteractionType = "unstar"
)

// Interaction is the event body posted to /api/v1/interactions.
type Interaction struct {
	UserID  string          `json:"user_id"`
	PaperID string          `json:"paper_id"`
	Type    InteractionType `json:"interaction_type"`
}
