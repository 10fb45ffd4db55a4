// Package knowledge ranks reference material against a free-text fault query.
package knowledge

// SourceType identifies where an entry came from.
type SourceType string

const (
	SourceLocalText    SourceType = "local_text"
	SourceStoredCase   SourceType = "stored_case"
	SourceExternalLink SourceType = "external_link"
)

// Entry is one unit of reference text eligible for retrieval.
type Entry struct {
	Category   string     `json:"category"`
	SourceType SourceType `json:"source_type"`
	Content    string     `json:"content"`
	OriginID   string     `json:"origin_id"`
	Title      string     `json:"title,omitempty"`
}

// Result is a scored, deduplicated retrieval hit.
type Result struct {
	Title      string     `json:"title"`
	Category   string     `json:"category"`
	Snippet    string     `json:"snippet"`
	Score      float64    `json:"score"`
	Costs      []string   `json:"extracted_costs,omitempty"`
	Tools      []string   `json:"extracted_tools,omitempty"`
	Links      []string   `json:"extracted_links,omitempty"`
	SourceType SourceType `json:"source_type"`
	OriginID   string     `json:"origin_id"`
}
