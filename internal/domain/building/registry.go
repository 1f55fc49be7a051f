// Package building implements the multi-building selection and aggregation
// engine: a user-curated collection of building entries, each carrying a
// provider-produced solar-potential dataset, with proximity deduplication
// and combined metrics across the active subset.
//
// The registry is a single-threaded, synchronous data structure with no
// internal locking; callers invoking it from concurrent tasks must
// serialize access themselves (the application layer does so).
package building

import (
	"fmt"
	"math"
	"time"

	"github.com/KlotzJesse/solar-potential/pkg/types/solar"
)

// DefaultDcToAcDerate is the conversion factor from direct-current yield
// estimates to expected alternating-current output.
const DefaultDcToAcDerate = 0.85

// DefaultPanelCapacityRatio is the scale factor applied when the chosen
// panel wattage equals the dataset's default panel wattage.
const DefaultPanelCapacityRatio = 1.0

// ProximityThresholdDegrees is the reference deduplication radius in
// planar degrees, ≈11 m. Small enough that earth curvature is negligible.
const ProximityThresholdDegrees = 0.0001

// panelAreaMeters2 is a fixed per-panel area approximation used for the
// aggregated TotalAreaMeters2 figure. It is deliberately not derived from
// the per-building panel dimensions available in the insights dataset.
const panelAreaMeters2 = 2.0

// ChangeFunc is the observer signature invoked after every mutation that
// alters membership or any field of a live entry.  It receives the full
// current ordered entry sequence, not a diff.  A single callback suffices
// today; switch to explicit observer registration if more are ever needed.
type ChangeFunc func(entries []*BuildingEntry)

// Registry owns the collection of selected building entries. Entries are
// kept in insertion order for all queries and scans.
type Registry struct {
	entries  map[string]*BuildingEntry
	order    []string
	onChange ChangeFunc

	// now is the identity clock; overridable in tests.
	now func() time.Time
}

// NewRegistry constructs an empty registry.  onChange may be nil, in which
// case mutations proceed without notification.
func NewRegistry(onChange ChangeFunc) *Registry {
	return &Registry{
		entries:  make(map[string]*BuildingEntry),
		onChange: onChange,
		now:      time.Now,
	}
}

// notify fires the change callback with a freshly allocated snapshot so
// observers cannot alias internal state.
func (r *Registry) notify() {
	if r.onChange == nil {
		return
	}
	r.onChange(r.All())
}

// Add inserts a new entry for the given insights dataset and returns its
// identifier.  The id combines the location fixed to 6 decimal digits with
// the current timestamp, so repeated clicks at the same place at different
// times yield distinct ids.  When nickname is empty one is derived from
// the address.  The entry starts active, with configIndex selecting the
// smallest installation when the caller passes 0.  Never fails.
func (r *Registry) Add(insights *solar.BuildingInsights, location solar.LatLng, address string, configIndex int, nickname string) string {
	id := fmt.Sprintf("%s@%d", location.Key(), r.now().UnixMilli())
	if nickname == "" {
		nickname = DeriveNickname(address)
	}
	entry := &BuildingEntry{
		ID:          id,
		Insights:    insights,
		ConfigIndex: configIndex,
		Location:    location,
		Address:     address,
		Nickname:    nickname,
		IsActive:    true,
	}
	r.entries[id] = entry
	r.order = append(r.order, id)
	r.notify()
	return id
}

// Remove detaches the entry's visual resources, deletes it, and fires a
// notification.  Returns false without side effects when id is absent;
// this is not an error condition.
func (r *Registry) Remove(id string) bool {
	entry, ok := r.entries[id]
	if !ok {
		return false
	}
	entry.detachVisuals()
	delete(r.entries, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.notify()
	return true
}

// UpdateConfig selects a different panel configuration for an entry.  The
// index is stored without validation per the engine's caller contract.
func (r *Registry) UpdateConfig(id string, configIndex int) bool {
	entry, ok := r.entries[id]
	if !ok {
		return false
	}
	entry.ConfigIndex = configIndex
	r.notify()
	return true
}

// UpdateNickname replaces an entry's display label.
func (r *Registry) UpdateNickname(id, nickname string) bool {
	entry, ok := r.entries[id]
	if !ok {
		return false
	}
	entry.Nickname = nickname
	r.notify()
	return true
}

// ToggleActive flips whether the entry participates in aggregation.
func (r *Registry) ToggleActive(id string) bool {
	entry, ok := r.entries[id]
	if !ok {
		return false
	}
	entry.IsActive = !entry.IsActive
	r.notify()
	return true
}

// SetPanels attaches externally created panel overlays to an entry.  Any
// previously attached panels are replaced without being detached; the
// caller must detach the old handles first or the owning collaborator
// leaks them.  Visual attachment is not observable state, so no change
// notification is fired.
func (r *Registry) SetPanels(id string, panels []MapResource) bool {
	entry, ok := r.entries[id]
	if !ok {
		return false
	}
	entry.Panels = panels
	return true
}

// SetBoundary attaches an externally created boundary overlay to an entry.
// Same replacement and notification contract as SetPanels.
func (r *Registry) SetBoundary(id string, boundary MapResource) bool {
	entry, ok := r.entries[id]
	if !ok {
		return false
	}
	entry.Boundary = boundary
	return true
}

// Get returns the entry with the given id, or nil when absent.
func (r *Registry) Get(id string) *BuildingEntry {
	return r.entries[id]
}

// All returns every live entry in insertion order.
func (r *Registry) All() []*BuildingEntry {
	out := make([]*BuildingEntry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id])
	}
	return out
}

// Active returns the entries participating in aggregation, in insertion
// order.
func (r *Registry) Active() []*BuildingEntry {
	out := make([]*BuildingEntry, 0, len(r.order))
	for _, id := range r.order {
		if e := r.entries[id]; e.IsActive {
			out = append(out, e)
		}
	}
	return out
}

// ProximityMatch returns the id of the first entry (in insertion order)
// whose planar Euclidean distance in degrees to location is strictly less
// than threshold, or "" when none match.  The flat-earth approximation is
// intentional and only adequate for small thresholds; it is not corrected
// for latitude, so thresholds are not uniform in real distance across
// latitudes.
func (r *Registry) ProximityMatch(location solar.LatLng, threshold float64) string {
	for _, id := range r.order {
		e := r.entries[id]
		dLat := e.Location.Latitude - location.Latitude
		dLng := e.Location.Longitude - location.Longitude
		if math.Sqrt(dLat*dLat+dLng*dLng) < threshold {
			return id
		}
	}
	return ""
}

// AggregatedResult is the combination of metrics across all active entries.
type AggregatedResult struct {
	TotalPanels                int     `json:"totalPanels"`
	TotalYearlyEnergyAcKwh     float64 `json:"totalYearlyEnergyAcKwh"`
	TotalMaxArrayPanels        int     `json:"totalMaxArrayPanels"`
	TotalMaxArrayAreaMeters2   float64 `json:"totalMaxArrayAreaMeters2"`
	TotalRoofAreaMeters2       float64 `json:"totalRoofAreaMeters2"`
	TotalCarbonOffsetKgPerYear float64 `json:"totalCarbonOffsetKgPerYear"`

	// TotalAreaMeters2 assumes a fixed 2 m² per installed panel rather than
	// the dataset's panel dimensions.
	TotalAreaMeters2 float64 `json:"totalAreaMeters2"`

	AveragePanelCapacityWatts float64 `json:"averagePanelCapacityWatts"`

	// Buildings is the active entry sequence the totals were computed over,
	// for downstream per-entry breakdowns.
	Buildings []*BuildingEntry `json:"buildings"`
}

// Aggregate computes combined metrics over the active entries.  The panel
// count of each entry's selected configuration is scaled by
// panelCapacityRatio and truncated; DC yields are scaled by the ratio and
// dcToAcDerate.  With zero active entries every summed field is 0 and
// Buildings is empty.
//
// Each entry's ConfigIndex must be a valid index into its configuration
// list; a stale index panics here, at the point of use.
func (r *Registry) Aggregate(panelCapacityRatio, dcToAcDerate float64) AggregatedResult {
	active := r.Active()
	result := AggregatedResult{Buildings: active}

	var capacitySum float64
	for _, e := range active {
		cfg := e.Config()
		pot := e.Insights.SolarPotential

		yearlyAc := cfg.YearlyEnergyDcKwh * panelCapacityRatio * dcToAcDerate

		result.TotalPanels += int(math.Floor(float64(cfg.PanelsCount) * panelCapacityRatio))
		result.TotalYearlyEnergyAcKwh += yearlyAc
		result.TotalMaxArrayPanels += pot.MaxArrayPanelsCount
		result.TotalMaxArrayAreaMeters2 += pot.MaxArrayAreaMeters2
		result.TotalRoofAreaMeters2 += pot.WholeRoofStats.AreaMeters2
		result.TotalCarbonOffsetKgPerYear += yearlyAc * pot.CarbonOffsetFactorKgPerMwh / 1000
		capacitySum += pot.PanelCapacityWatts
	}

	result.TotalAreaMeters2 = float64(result.TotalPanels) * panelAreaMeters2
	if len(active) > 0 {
		result.AveragePanelCapacityWatts = capacitySum / float64(len(active))
	}
	return result
}

// Clear detaches every entry's visual resources, empties the collection,
// and fires one notification.
func (r *Registry) Clear() {
	for _, id := range r.order {
		r.entries[id].detachVisuals()
	}
	r.entries = make(map[string]*BuildingEntry)
	r.order = nil
	r.notify()
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	return len(r.order)
}
