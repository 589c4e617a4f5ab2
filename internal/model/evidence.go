package model

// EvidenceSpan anchors a claim or requirement to its location in the source
// document. Populated by upstream parsing; carried through untouched so every
// finding stays traceable.
type EvidenceSpan struct {
	DocID       string    `json:"doc_id,omitempty"`
	Page        int       `json:"page,omitempty"`
	LineStart   int       `json:"line_start,omitempty"`
	LineEnd     int       `json:"line_end,omitempty"`
	BBox        []float64 `json:"bbox,omitempty"` // x0, y0, x1, y1 in page coordinates
	TextSnippet string    `json:"text_snippet,omitempty"`
}

// Empty reports whether the span carries no location information at all.
func (e EvidenceSpan) Empty() bool {
	return e.DocID == "" && e.Page == 0 && e.LineStart == 0 && e.LineEnd == 0 &&
		len(e.BBox) == 0 && e.TextSnippet == ""
}
