package building

import (
	"regexp"
	"strings"

	"github.com/KlotzJesse/solar-potential/pkg/types/solar"
)

// MapResource is an externally owned visual resource (a map overlay handle)
// associated with an entry.  The registry never creates, draws, or destroys
// the underlying visual; it only instructs the owner to detach it when the
// entry is removed or cleared.  Owners must treat Detach as idempotent.
type MapResource interface {
	// Detach removes the resource's association with the display surface.
	// Detaching an already-detached resource is a no-op.
	Detach()
}

// BuildingEntry is one selected building and its associated selection state.
//
// ID and Insights are immutable after creation; everything else is mutated
// in place through Registry operations.  The registry owns the entry
// objects but not the visual resources referenced by Boundary and Panels.
type BuildingEntry struct {
	ID          string                  `json:"id"`
	Insights    *solar.BuildingInsights `json:"insights"`
	ConfigIndex int                     `json:"configIndex"`
	Location    solar.LatLng            `json:"location"`
	Address     string                  `json:"address"`
	Nickname    string                  `json:"nickname"`
	Boundary    MapResource             `json:"-"`
	Panels      []MapResource           `json:"-"`
	IsActive    bool                    `json:"isActive"`
}

// Config returns the currently selected panel configuration.  The index is
// not validated; a stale ConfigIndex panics at the point of use, which is
// the documented caller-contract behavior.
func (e *BuildingEntry) Config() solar.SolarPanelConfig {
	return e.Insights.SolarPotential.SolarPanelConfigs[e.ConfigIndex]
}

// detachVisuals instructs the owning collaborator to hide the entry's
// boundary and every panel overlay.  References are dropped afterwards so a
// removed entry cannot re-issue detach instructions.
func (e *BuildingEntry) detachVisuals() {
	if e.Boundary != nil {
		e.Boundary.Detach()
		e.Boundary = nil
	}
	for _, p := range e.Panels {
		if p != nil {
			p.Detach()
		}
	}
	e.Panels = nil
}

// houseNumberPattern matches a numeric street token with an optional single
// trailing letter, e.g. "14" or "14a".
var houseNumberPattern = regexp.MustCompile(`^\d+[A-Za-z]?$`)

// DeriveNickname produces a default display label from a free-text address:
// the text before the first comma is trimmed and scanned for a numeric
// token ("14", "14a"); if one is found the label is "Building {token}",
// otherwise the generic "Building".
func DeriveNickname(address string) string {
	street := address
	if i := strings.Index(street, ","); i >= 0 {
		street = street[:i]
	}
	for _, token := range strings.Fields(strings.TrimSpace(street)) {
		if houseNumberPattern.MatchString(token) {
			return "Building " + token
		}
	}
	return "Building"
}
