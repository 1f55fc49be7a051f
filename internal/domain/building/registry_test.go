package building

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KlotzJesse/solar-potential/pkg/types/solar"
)

// fakeOverlay records detach instructions so tests can assert the lifecycle
// contract without a real map collaborator.
type fakeOverlay struct {
	detached int
}

func (f *fakeOverlay) Detach() { f.detached++ }

func testInsights(configs []solar.SolarPanelConfig, capacityWatts float64) *solar.BuildingInsights {
	return &solar.BuildingInsights{
		SolarPotential: solar.SolarPotential{
			MaxArrayPanelsCount:        200,
			MaxArrayAreaMeters2:        400,
			PanelCapacityWatts:         capacityWatts,
			CarbonOffsetFactorKgPerMwh: 428,
			WholeRoofStats:             solar.SizeAndSunshineStats{AreaMeters2: 600},
			SolarPanelConfigs:          configs,
		},
	}
}

// stepClock makes every Add observe a later timestamp, as repeated clicks
// at the same place would.
func stepClock(r *Registry) {
	t := time.UnixMilli(1700000000000)
	r.now = func() time.Time {
		t = t.Add(time.Millisecond)
		return t
	}
}

func TestAddAssignsUniqueIDs(t *testing.T) {
	r := NewRegistry(nil)
	stepClock(r)

	loc := solar.LatLng{Latitude: 48.137154, Longitude: 11.576124}
	insights := testInsights([]solar.SolarPanelConfig{{PanelsCount: 4, YearlyEnergyDcKwh: 1600}}, 400)

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		id := r.Add(insights, loc, "Marienplatz 1, München", 0, "")
		assert.False(t, seen[id], "id %q returned twice", id)
		seen[id] = true
	}
	assert.Equal(t, 10, r.Len())
}

func TestAddDefaults(t *testing.T) {
	r := NewRegistry(nil)
	stepClock(r)

	insights := testInsights([]solar.SolarPanelConfig{{PanelsCount: 4, YearlyEnergyDcKwh: 1600}}, 400)
	id := r.Add(insights, solar.LatLng{Latitude: 48.1, Longitude: 11.5}, "Marienplatz 8, München", 0, "")

	entry := r.Get(id)
	require.NotNil(t, entry)
	assert.True(t, entry.IsActive)
	assert.Equal(t, 0, entry.ConfigIndex)
	assert.Equal(t, "Building 8", entry.Nickname)
	assert.Nil(t, entry.Boundary)
	assert.Empty(t, entry.Panels)
}

func TestAddExplicitNicknameWins(t *testing.T) {
	r := NewRegistry(nil)
	stepClock(r)

	insights := testInsights([]solar.SolarPanelConfig{{PanelsCount: 4, YearlyEnergyDcKwh: 1600}}, 400)
	id := r.Add(insights, solar.LatLng{}, "Marienplatz 8, München", 0, "Home")
	assert.Equal(t, "Home", r.Get(id).Nickname)
}

func TestRemove(t *testing.T) {
	r := NewRegistry(nil)
	stepClock(r)

	insights := testInsights([]solar.SolarPanelConfig{{PanelsCount: 4, YearlyEnergyDcKwh: 1600}}, 400)
	id := r.Add(insights, solar.LatLng{Latitude: 1, Longitude: 2}, "", 0, "")

	boundary := &fakeOverlay{}
	panels := []MapResource{&fakeOverlay{}, &fakeOverlay{}}
	require.True(t, r.SetBoundary(id, boundary))
	require.True(t, r.SetPanels(id, panels))

	assert.True(t, r.Remove(id))
	assert.Equal(t, 0, r.Len())
	assert.Nil(t, r.Get(id))

	assert.Equal(t, 1, boundary.detached)
	for _, p := range panels {
		assert.Equal(t, 1, p.(*fakeOverlay).detached)
	}

	// Absent id: no error, no side effects.
	assert.False(t, r.Remove(id))
	assert.False(t, r.Remove("missing"))
	assert.Equal(t, 0, r.Len())
}

func TestRemoveLeavesOthersUntouched(t *testing.T) {
	r := NewRegistry(nil)
	stepClock(r)

	insights := testInsights([]solar.SolarPanelConfig{{PanelsCount: 4, YearlyEnergyDcKwh: 1600}}, 400)
	a := r.Add(insights, solar.LatLng{Latitude: 1}, "", 0, "")
	b := r.Add(insights, solar.LatLng{Latitude: 2}, "", 0, "")
	c := r.Add(insights, solar.LatLng{Latitude: 3}, "", 0, "")

	require.True(t, r.Remove(b))
	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, a, all[0].ID)
	assert.Equal(t, c, all[1].ID)
}

func TestUpdateOperations(t *testing.T) {
	r := NewRegistry(nil)
	stepClock(r)

	insights := testInsights([]solar.SolarPanelConfig{
		{PanelsCount: 4, YearlyEnergyDcKwh: 1600},
		{PanelsCount: 8, YearlyEnergyDcKwh: 3100},
	}, 400)
	id := r.Add(insights, solar.LatLng{}, "", 0, "")

	assert.True(t, r.UpdateConfig(id, 1))
	assert.Equal(t, 1, r.Get(id).ConfigIndex)

	assert.True(t, r.UpdateNickname(id, "Garage"))
	assert.Equal(t, "Garage", r.Get(id).Nickname)

	assert.False(t, r.UpdateConfig("missing", 1))
	assert.False(t, r.UpdateNickname("missing", "x"))
}

func TestToggleActiveIsItsOwnInverse(t *testing.T) {
	r := NewRegistry(nil)
	stepClock(r)

	insights := testInsights([]solar.SolarPanelConfig{{PanelsCount: 4, YearlyEnergyDcKwh: 1600}}, 400)
	id := r.Add(insights, solar.LatLng{}, "", 0, "")

	require.True(t, r.ToggleActive(id))
	assert.False(t, r.Get(id).IsActive)
	require.True(t, r.ToggleActive(id))
	assert.True(t, r.Get(id).IsActive)

	assert.False(t, r.ToggleActive("missing"))
}

func TestOrderingIsInsertionOrder(t *testing.T) {
	r := NewRegistry(nil)
	stepClock(r)

	insights := testInsights([]solar.SolarPanelConfig{{PanelsCount: 4, YearlyEnergyDcKwh: 1600}}, 400)
	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, r.Add(insights, solar.LatLng{Latitude: float64(i)}, "", 0, ""))
	}

	all := r.All()
	require.Len(t, all, 5)
	for i, e := range all {
		assert.Equal(t, ids[i], e.ID)
	}

	r.ToggleActive(ids[2])
	active := r.Active()
	require.Len(t, active, 4)
	assert.Equal(t, []string{ids[0], ids[1], ids[3], ids[4]},
		[]string{active[0].ID, active[1].ID, active[2].ID, active[3].ID})
}

func TestProximityMatch(t *testing.T) {
	r := NewRegistry(nil)
	stepClock(r)

	insights := testInsights([]solar.SolarPanelConfig{{PanelsCount: 4, YearlyEnergyDcKwh: 1600}}, 400)
	id := r.Add(insights, solar.LatLng{Latitude: 48.137154, Longitude: 11.576124}, "", 0, "")

	// Within threshold: a few metres away.
	near := solar.LatLng{Latitude: 48.137158, Longitude: 11.576129}
	assert.Equal(t, id, r.ProximityMatch(near, ProximityThresholdDegrees))

	// Several degrees away against a 0.0001° threshold.
	far := solar.LatLng{Latitude: 52.520008, Longitude: 13.404954}
	assert.Equal(t, "", r.ProximityMatch(far, ProximityThresholdDegrees))

}

func TestProximityMatchThresholdIsExclusive(t *testing.T) {
	r := NewRegistry(nil)
	stepClock(r)

	insights := testInsights([]solar.SolarPanelConfig{{PanelsCount: 4, YearlyEnergyDcKwh: 1600}}, 400)
	r.Add(insights, solar.LatLng{Latitude: 1.0, Longitude: 2.0}, "", 0, "")

	// Exactly at threshold distance is not a match (strictly less than).
	// 0.25 is exactly representable, so the distance comes out bit-exact.
	onEdge := solar.LatLng{Latitude: 1.25, Longitude: 2.0}
	assert.Equal(t, "", r.ProximityMatch(onEdge, 0.25))
	assert.NotEqual(t, "", r.ProximityMatch(onEdge, 0.2500001))
}

func TestProximityMatchFirstInsertedWins(t *testing.T) {
	r := NewRegistry(nil)
	stepClock(r)

	insights := testInsights([]solar.SolarPanelConfig{{PanelsCount: 4, YearlyEnergyDcKwh: 1600}}, 400)
	first := r.Add(insights, solar.LatLng{Latitude: 48.10000, Longitude: 11.50000}, "", 0, "")
	r.Add(insights, solar.LatLng{Latitude: 48.10001, Longitude: 11.50001}, "", 0, "")

	probe := solar.LatLng{Latitude: 48.100005, Longitude: 11.500005}
	assert.Equal(t, first, r.ProximityMatch(probe, 0.001))
}

func TestAggregateEmpty(t *testing.T) {
	r := NewRegistry(nil)

	result := r.Aggregate(DefaultPanelCapacityRatio, DefaultDcToAcDerate)
	assert.Zero(t, result.TotalPanels)
	assert.Zero(t, result.TotalYearlyEnergyAcKwh)
	assert.Zero(t, result.TotalMaxArrayPanels)
	assert.Zero(t, result.TotalMaxArrayAreaMeters2)
	assert.Zero(t, result.TotalRoofAreaMeters2)
	assert.Zero(t, result.TotalCarbonOffsetKgPerYear)
	assert.Zero(t, result.TotalAreaMeters2)
	assert.Zero(t, result.AveragePanelCapacityWatts)
	assert.Empty(t, result.Buildings)
}

func TestAggregateSingleEntry(t *testing.T) {
	r := NewRegistry(nil)
	stepClock(r)

	insights := testInsights([]solar.SolarPanelConfig{{PanelsCount: 50, YearlyEnergyDcKwh: 20000}}, 400)
	r.Add(insights, solar.LatLng{}, "", 0, "")

	result := r.Aggregate(1.0, 0.85)
	assert.Equal(t, 50, result.TotalPanels)
	assert.InDelta(t, 17000, result.TotalYearlyEnergyAcKwh, 1e-9)
	assert.Equal(t, 200, result.TotalMaxArrayPanels)
	assert.InDelta(t, 400, result.TotalMaxArrayAreaMeters2, 1e-9)
	assert.InDelta(t, 600, result.TotalRoofAreaMeters2, 1e-9)
	assert.InDelta(t, 17000*428/1000.0, result.TotalCarbonOffsetKgPerYear, 1e-9)
	assert.InDelta(t, 100, result.TotalAreaMeters2, 1e-9)
	assert.InDelta(t, 400, result.AveragePanelCapacityWatts, 1e-9)
	assert.Len(t, result.Buildings, 1)
}

func TestAggregateLinearInCapacityRatio(t *testing.T) {
	r := NewRegistry(nil)
	stepClock(r)

	insights := testInsights([]solar.SolarPanelConfig{{PanelsCount: 50, YearlyEnergyDcKwh: 20000}}, 400)
	r.Add(insights, solar.LatLng{}, "", 0, "")

	base := r.Aggregate(1.0, 0.85)
	doubled := r.Aggregate(2.0, 0.85)

	assert.Equal(t, 100, doubled.TotalPanels)
	assert.InDelta(t, 2*base.TotalYearlyEnergyAcKwh, doubled.TotalYearlyEnergyAcKwh, 1e-9)
	assert.InDelta(t, 34000, doubled.TotalYearlyEnergyAcKwh, 1e-9)
}

func TestAggregateTruncatesScaledPanelCounts(t *testing.T) {
	r := NewRegistry(nil)
	stepClock(r)

	insights := testInsights([]solar.SolarPanelConfig{{PanelsCount: 5, YearlyEnergyDcKwh: 2000}}, 400)
	r.Add(insights, solar.LatLng{}, "", 0, "")

	result := r.Aggregate(1.5, 0.85)
	assert.Equal(t, 7, result.TotalPanels)
}

func TestAggregateTwoEntries(t *testing.T) {
	r := NewRegistry(nil)
	stepClock(r)

	a := testInsights([]solar.SolarPanelConfig{{PanelsCount: 50, YearlyEnergyDcKwh: 20000}}, 400)
	b := testInsights([]solar.SolarPanelConfig{{PanelsCount: 75, YearlyEnergyDcKwh: 30000}}, 450)
	r.Add(a, solar.LatLng{Latitude: 1}, "", 0, "")
	r.Add(b, solar.LatLng{Latitude: 2}, "", 0, "")

	result := r.Aggregate(1.0, 0.85)
	assert.Equal(t, 125, result.TotalPanels)
	assert.InDelta(t, 42500, result.TotalYearlyEnergyAcKwh, 1e-9)
	assert.InDelta(t, 425, result.AveragePanelCapacityWatts, 1e-9)
}

func TestAggregateSkipsInactiveEntries(t *testing.T) {
	r := NewRegistry(nil)
	stepClock(r)

	a := testInsights([]solar.SolarPanelConfig{{PanelsCount: 50, YearlyEnergyDcKwh: 20000}}, 400)
	b := testInsights([]solar.SolarPanelConfig{{PanelsCount: 75, YearlyEnergyDcKwh: 30000}}, 450)
	r.Add(a, solar.LatLng{Latitude: 1}, "", 0, "")
	idB := r.Add(b, solar.LatLng{Latitude: 2}, "", 0, "")

	require.True(t, r.ToggleActive(idB))

	result := r.Aggregate(1.0, 0.85)
	assert.Equal(t, 50, result.TotalPanels)
	assert.InDelta(t, 17000, result.TotalYearlyEnergyAcKwh, 1e-9)
	assert.Len(t, result.Buildings, 1)
	assert.InDelta(t, 400, result.AveragePanelCapacityWatts, 1e-9)
}

func TestAggregateUsesSelectedConfig(t *testing.T) {
	r := NewRegistry(nil)
	stepClock(r)

	insights := testInsights([]solar.SolarPanelConfig{
		{PanelsCount: 10, YearlyEnergyDcKwh: 4000},
		{PanelsCount: 20, YearlyEnergyDcKwh: 7800},
	}, 400)
	id := r.Add(insights, solar.LatLng{}, "", 0, "")
	require.True(t, r.UpdateConfig(id, 1))

	result := r.Aggregate(1.0, 0.85)
	assert.Equal(t, 20, result.TotalPanels)
	assert.InDelta(t, 7800*0.85, result.TotalYearlyEnergyAcKwh, 1e-9)
}

func TestClear(t *testing.T) {
	r := NewRegistry(nil)
	stepClock(r)

	insights := testInsights([]solar.SolarPanelConfig{{PanelsCount: 4, YearlyEnergyDcKwh: 1600}}, 400)
	var overlays []*fakeOverlay
	for i := 0; i < 3; i++ {
		id := r.Add(insights, solar.LatLng{Latitude: float64(i)}, "", 0, "")
		b := &fakeOverlay{}
		p := &fakeOverlay{}
		overlays = append(overlays, b, p)
		r.SetBoundary(id, b)
		r.SetPanels(id, []MapResource{p})
	}

	r.Clear()
	assert.Empty(t, r.All())
	assert.Equal(t, 0, r.Len())
	for _, o := range overlays {
		assert.Equal(t, 1, o.detached)
	}
}

func TestChangeNotifications(t *testing.T) {
	var calls int
	var lastSnapshot []*BuildingEntry
	r := NewRegistry(func(entries []*BuildingEntry) {
		calls++
		lastSnapshot = entries
	})
	stepClock(r)

	insights := testInsights([]solar.SolarPanelConfig{
		{PanelsCount: 4, YearlyEnergyDcKwh: 1600},
		{PanelsCount: 8, YearlyEnergyDcKwh: 3100},
	}, 400)

	id := r.Add(insights, solar.LatLng{}, "", 0, "")
	assert.Equal(t, 1, calls)
	require.Len(t, lastSnapshot, 1)

	r.UpdateConfig(id, 1)
	assert.Equal(t, 2, calls)

	r.UpdateNickname(id, "Shed")
	assert.Equal(t, 3, calls)

	r.ToggleActive(id)
	assert.Equal(t, 4, calls)

	// Visual attachment is not observable state.
	r.SetBoundary(id, &fakeOverlay{})
	r.SetPanels(id, []MapResource{&fakeOverlay{}})
	assert.Equal(t, 4, calls)

	// Pure queries never notify.
	r.Get(id)
	r.All()
	r.Active()
	r.ProximityMatch(solar.LatLng{}, ProximityThresholdDegrees)
	r.Aggregate(DefaultPanelCapacityRatio, DefaultDcToAcDerate)
	assert.Equal(t, 4, calls)

	r.Remove(id)
	assert.Equal(t, 5, calls)
	assert.Empty(t, lastSnapshot)

	// Failed mutations on absent ids do not notify.
	r.Remove(id)
	r.UpdateConfig(id, 0)
	r.UpdateNickname(id, "x")
	r.ToggleActive(id)
	assert.Equal(t, 5, calls)

	r.Clear()
	assert.Equal(t, 6, calls)
}

func TestNotificationSnapshotIsDecoupled(t *testing.T) {
	var snapshots [][]*BuildingEntry
	r := NewRegistry(func(entries []*BuildingEntry) {
		snapshots = append(snapshots, entries)
	})
	stepClock(r)

	insights := testInsights([]solar.SolarPanelConfig{{PanelsCount: 4, YearlyEnergyDcKwh: 1600}}, 400)
	r.Add(insights, solar.LatLng{Latitude: 1}, "", 0, "")
	r.Add(insights, solar.LatLng{Latitude: 2}, "", 0, "")

	require.Len(t, snapshots, 2)
	assert.Len(t, snapshots[0], 1)
	assert.Len(t, snapshots[1], 2)
}

func TestMembershipAccounting(t *testing.T) {
	r := NewRegistry(nil)
	stepClock(r)

	insights := testInsights([]solar.SolarPanelConfig{{PanelsCount: 4, YearlyEnergyDcKwh: 1600}}, 400)
	var ids []string
	for i := 0; i < 6; i++ {
		ids = append(ids, r.Add(insights, solar.LatLng{Latitude: float64(i)}, "", 0, ""))
	}
	assert.Equal(t, 6, r.Len())

	r.Remove(ids[0])
	r.Remove(ids[3])
	assert.Equal(t, 4, r.Len())
	assert.Len(t, r.All(), 4)

	r.Clear()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.All())
}
