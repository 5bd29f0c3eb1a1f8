package models

// ValidationError describes one invalid field of a request
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ItemResult reports the outcome of one element of a batch operation
type ItemResult struct {
	ID      string            `json:"_id"`
	Line    int               `json:"line,omitempty"`
	Status  ArticleStatus     `json:"status,omitempty"`
	Success bool              `json:"success"`
	Error   string            `json:"error,omitempty"`
	Details []ValidationError `json:"details,omitempty"`
}

// BatchResult aggregates per-item outcomes; elements are applied independently
type BatchResult struct {
	Message   string       `json:"message"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Results   []ItemResult `json:"results"`
}

// Add records one outcome and keeps the totals in step
func (b *BatchResult) Add(r ItemResult) {
	if r.Success {
		b.Succeeded++
	} else {
		b.Failed++
	}
	b.Results = append(b.Results, r)
}

// ImportFormats lists the accepted bulk import formats
var ImportFormats = map[string]bool{
	"csv":    true,
	"ndjson": true,
}

// StatusCounts maps each status to its number of articles
type StatusCounts map[ArticleStatus]int
