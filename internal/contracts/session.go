package contracts

import "time"

// Controls are the user selections carried from one step to the next
type Controls struct {
	LOBs        []LOB          `json:"lobs,omitempty"`
	Types       []string       `json:"types,omitempty"`
	OfferCounts map[string]int `json:"offer_counts,omitempty"`
}

// Session is the server-held state for one uploaded dataset
type Session struct {
	ID        string    `json:"id"`
	FileName  string    `json:"file_name"`
	CreatedAt time.Time `json:"created_at"`

	Raw     *Table `json:"raw"`
	RawRows int    `json:"raw_rows"`
	RawCols int    `json:"raw_cols"`

	Steps    map[Step]*Table `json:"steps"`
	Status   map[Step]bool   `json:"status"`
	Controls Controls        `json:"controls"`

	OutputPath string `json:"output_path,omitempty"`
}

// NewSession creates a session around a freshly uploaded table
func NewSession(id, fileName string, raw *Table, now time.Time) *Session {
	return &Session{
		ID:        id,
		FileName:  fileName,
		CreatedAt: now,
		Raw:       raw,
		RawRows:   raw.Len(),
		RawCols:   len(raw.Columns),
		Steps:     make(map[Step]*Table),
		Status:    make(map[Step]bool),
	}
}

// Done reports whether a step's completion flag is set
func (s *Session) Done(step Step) bool {
	return s.Status[step]
}

// Clone returns a deep copy so callers never share mutable tables
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Raw = s.Raw.Clone()
	out.Steps = make(map[Step]*Table, len(s.Steps))
	for k, v := range s.Steps {
		out.Steps[k] = v.Clone()
	}
	out.Status = make(map[Step]bool, len(s.Status))
	for k, v := range s.Status {
		out.Status[k] = v
	}
	out.Controls.LOBs = append([]LOB(nil), s.Controls.LOBs...)
	out.Controls.Types = append([]string(nil), s.Controls.Types...)
	if s.Controls.OfferCounts != nil {
		out.Controls.OfferCounts = make(map[string]int, len(s.Controls.OfferCounts))
		for k, v := range s.Controls.OfferCounts {
			out.Controls.OfferCounts[k] = v
		}
	}
	return &out
}
