// Package session holds the per-browser UI state and drives the
// search -> detail -> recap flow against it.
package session

import "github.com/Corphon/SeriesMoodRecap/internal/models"

// Panels. Exactly one drives the page at a time.
const (
	PanelEmpty   = "empty"
	PanelResults = "results"
	PanelDetail  = "detail"
)

// State is the UI state of one session.
type State struct {
	Query      string               `json:"query"`
	Candidates models.CandidateList `json:"candidates"`
	Selected   *models.SeriesDetail `json:"selected,omitempty"`
	Recap      string               `json:"recap,omitempty"`
	Loading    bool                 `json:"loading"`
	Error      string               `json:"error,omitempty"`

	// Generation increments on every Search and Select; results carrying an
	// older generation are dropped.
	Generation uint64 `json:"generation"`

	// View mirrors Panel() in snapshots handed out to callers.
	View string `json:"panel"`
}

// Panel reports which panel is visible: a selection supersedes the list.
func (s State) Panel() string {
	switch {
	case s.Selected != nil:
		return PanelDetail
	case len(s.Candidates) > 0:
		return PanelResults
	default:
		return PanelEmpty
	}
}

// snapshot returns a deep copy safe to hand outside the lock.
func (s State) snapshot() State {
	out := s
	if s.Candidates != nil {
		out.Candidates = make(models.CandidateList, len(s.Candidates))
		copy(out.Candidates, s.Candidates)
	}
	if s.Selected != nil {
		selected := *s.Selected
		out.Selected = &selected
	}
	out.View = s.Panel()
	return out
}

// offers reports whether id can be selected: it must be one of the current
// candidates or the series already on display.
func (s State) offers(id string) bool {
	if s.Selected != nil && s.Selected.ID == id {
		return true
	}
	for _, c := range s.Candidates {
		if c.ID == id {
			return true
		}
	}
	return false
}

// clearResults drops everything downstream of the query.
func (s *State) clearResults() {
	s.Candidates = nil
	s.Selected = nil
	s.Recap = ""
	s.Error = ""
}
