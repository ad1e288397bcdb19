package model

import (
	"fmt"
	"strings"
)

// PassageUnit is the text a generation run works from, tagged with where it came from
type PassageUnit struct {
	Text       string `json:"text"`
	Identifier string `json:"identifier"` // Provenance tag, e.g. "calculus_pages_10-12"
}

// Provenance separators used in passage identifiers.
// "_page_" is kept so records from single-page runs resume correctly.
const (
	PagesSeparator = "_pages_"
	PageSeparator  = "_page_"
)

// WorkUnit is a contiguous page group of one collection
type WorkUnit struct {
	Collection string `json:"collection"`
	StartPage  int    `json:"start_page"`
	EndPage    int    `json:"end_page"`
}

// ID returns the provenance tag for the unit
func (u WorkUnit) ID() string {
	return fmt.Sprintf("%s%s%d-%d", u.Collection, PagesSeparator, u.StartPage, u.EndPage)
}

// CollectionFromProvenance returns the collection a provenance tag points at.
// The separator is appended last, so the collection ends at its last
// occurrence. The second return value is false when the tag carries no known
// separator.
func CollectionFromProvenance(tag string) (string, bool) {
	cut := -1
	for _, sep := range []string{PagesSeparator, PageSeparator} {
		if idx := strings.LastIndex(tag, sep); idx > cut {
			cut = idx
		}
	}
	if cut <= 0 {
		return "", false
	}
	return tag[:cut], true
}

// CandidateItem is an unverified question/solution pair pulled out of model output
type CandidateItem struct {
	Question string  `json:"question"`
	Solution string  `json:"solution"`
	Source   *string `json:"source,omitempty"` // Verbatim excerpt the model claims supports the question
}

// AcceptedItem is a candidate that passed verification (if requested) and enrichment
type AcceptedItem struct {
	CandidateItem

	Hints       []string   `json:"hints,omitempty"`
	Domain      *Domain    `json:"domain,omitempty"`
	Difficulty  Difficulty `json:"difficulty"`
	Verified    *bool      `json:"verified,omitempty"` // nil when verification was skipped
	Provenance  *string    `json:"provenance,omitempty"`
	BoxedAnswer *string    `json:"boxed_answer,omitempty"`
	Model       string     `json:"model"`
	Timestamp   string     `json:"timestamp"`
}

// VerificationOutcome is the result of one re-solve attempt. It is logged, never stored.
type VerificationOutcome struct {
	Accepted bool
	Evidence string
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// UnitStats counts what one work unit produced at each stage
type UnitStats struct {
	Parsed    int `json:"parsed"`
	Verified  int `json:"verified"`
	Accepted  int `json:"accepted"`
	Persisted int `json:"persisted"`
}

// Add accumulates other into s
func (s *UnitStats) Add(other UnitStats) {
	s.Parsed += other.Parsed
	s.Verified += other.Verified
	s.Accepted += other.Accepted
	s.Persisted += other.Persisted
}
