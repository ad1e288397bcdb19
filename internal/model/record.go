package model

// Record is the on-disk shape of an accepted item. Field names are stable.
type Record struct {
	Source                *string    `json:"source"` // Provenance tag when known, otherwise the model's excerpt
	Question              string     `json:"question"`
	Solution              string     `json:"solution"`
	Hints                 []string   `json:"hints"`
	Difficulty            Difficulty `json:"difficulty"`
	Domain                *Domain    `json:"domain"`
	Timestamp             string     `json:"timestamp"`
	DifficultyDescription string     `json:"difficulty_description"`
	Model                 string     `json:"model"`
	BoxedSolution         *string    `json:"boxed_solution"`
	Validated             *bool      `json:"validated"`
	Excerpt               string     `json:"excerpt,omitempty"`
}

// NewRecord builds the persisted form of an accepted item
func NewRecord(item AcceptedItem) Record {
	rec := Record{
		Source:                item.Source,
		Question:              item.Question,
		Solution:              item.Solution,
		Hints:                 item.Hints,
		Difficulty:            item.Difficulty,
		Domain:                item.Domain,
		Timestamp:             item.Timestamp,
		DifficultyDescription: item.Difficulty.Description(),
		Model:                 item.Model,
		BoxedSolution:         item.BoxedAnswer,
		Validated:             item.Verified,
	}

	if item.Provenance != nil {
		rec.Source = item.Provenance
		if item.Source != nil {
			rec.Excerpt = *item.Source
		}
	}

	return rec
}

// Provenance returns the record's provenance tag and its collection, if the
// source field carries one
func (r Record) Provenance() (tag string, collection string, ok bool) {
	if r.Source == nil {
		return "", "", false
	}
	collection, ok = CollectionFromProvenance(*r.Source)
	if !ok {
		return "", "", false
	}
	return *r.Source, collection, true
}
