// Package selection provides the application-level service for building
// selection and aggregation.  It is the serializing caller the engine's
// concurrency contract requires: handlers and CLI commands may invoke it
// from concurrent goroutines, and it funnels every registry operation
// through one mutex.
package selection

import (
	"context"
	"sync"

	"github.com/KlotzJesse/solar-potential/internal/domain/building"
	"github.com/KlotzJesse/solar-potential/internal/infrastructure/cache"
	"github.com/KlotzJesse/solar-potential/internal/infrastructure/geocoding"
	"github.com/KlotzJesse/solar-potential/internal/infrastructure/monitoring/logging"
	monprom "github.com/KlotzJesse/solar-potential/internal/infrastructure/monitoring/prometheus"
	"github.com/KlotzJesse/solar-potential/internal/infrastructure/solarapi"
	"github.com/KlotzJesse/solar-potential/pkg/errors"
	"github.com/KlotzJesse/solar-potential/pkg/types/solar"
)

// Service defines the building-selection application operations.
type Service interface {
	AddBuilding(ctx context.Context, input *AddInput) (*AddResult, error)
	AddByAddress(ctx context.Context, query string) (*AddResult, error)
	ListBuildings(ctx context.Context) []*Building
	GetBuilding(ctx context.Context, id string) (*Building, error)
	MatchLocation(ctx context.Context, latitude, longitude float64) (*Building, error)
	RemoveBuilding(ctx context.Context, id string) error
	SetConfig(ctx context.Context, id string, configIndex int) (*Building, error)
	SetNickname(ctx context.Context, id, nickname string) (*Building, error)
	ToggleActive(ctx context.Context, id string) (*Building, error)
	Summary(ctx context.Context, input *SummaryInput) (*SummaryResult, error)
	ClearAll(ctx context.Context)
}

// AddInput contains input for selecting a building by map location.
type AddInput struct {
	Latitude  float64
	Longitude float64
	Nickname  string
}

// AddResult is the outcome of a selection attempt.  AlreadySelected is true
// when the location deduplicated onto an existing entry.
type AddResult struct {
	Building        *Building `json:"building"`
	AlreadySelected bool      `json:"alreadySelected"`
}

// SummaryInput contains input for the aggregated summary.
type SummaryInput struct {
	// PanelCapacityWatts is the wattage of the panel model chosen by the
	// user; 0 means "use the dataset defaults" (ratio 1.0).
	PanelCapacityWatts float64

	// DcToAcDerate overrides the configured derate when positive.
	DcToAcDerate float64
}

// Building is the application-level DTO for one selected building.
type Building struct {
	ID                string       `json:"id"`
	Nickname          string       `json:"nickname"`
	Address           string       `json:"address"`
	Location          solar.LatLng `json:"location"`
	ConfigIndex       int          `json:"configIndex"`
	ConfigCount       int          `json:"configCount"`
	PanelsCount       int          `json:"panelsCount"`
	YearlyEnergyDcKwh float64      `json:"yearlyEnergyDcKwh"`
	MaxArrayPanels    int          `json:"maxArrayPanels"`
	IsActive          bool         `json:"isActive"`
}

// SummaryResult is the combined-metrics DTO across the active selection.
type SummaryResult struct {
	PanelCapacityRatio         float64     `json:"panelCapacityRatio"`
	DcToAcDerate               float64     `json:"dcToAcDerate"`
	TotalPanels                int         `json:"totalPanels"`
	TotalYearlyEnergyAcKwh     float64     `json:"totalYearlyEnergyAcKwh"`
	TotalMaxArrayPanels        int         `json:"totalMaxArrayPanels"`
	TotalMaxArrayAreaMeters2   float64     `json:"totalMaxArrayAreaMeters2"`
	TotalRoofAreaMeters2       float64     `json:"totalRoofAreaMeters2"`
	TotalCarbonOffsetKgPerYear float64     `json:"totalCarbonOffsetKgPerYear"`
	TotalAreaMeters2           float64     `json:"totalAreaMeters2"`
	AveragePanelCapacityWatts  float64     `json:"averagePanelCapacityWatts"`
	Buildings                  []*Building `json:"buildings"`
}

// Config carries the tunables the service applies around the engine.
type Config struct {
	ProximityThresholdDegrees float64
	DcToAcDerate              float64
	DefaultPanelCapacityWatts float64
}

type serviceImpl struct {
	mu sync.Mutex

	registry *building.Registry
	geocoder geocoding.Client
	provider solarapi.Client
	insights cache.InsightsCache
	cfg      Config
	logger   logging.Logger
	metrics  *monprom.Metrics
}

// NewService creates the building-selection application service.
// metrics may be nil.
func NewService(
	registry *building.Registry,
	geocoder geocoding.Client,
	provider solarapi.Client,
	insights cache.InsightsCache,
	cfg Config,
	logger logging.Logger,
	metrics *monprom.Metrics,
) Service {
	if cfg.ProximityThresholdDegrees == 0 {
		cfg.ProximityThresholdDegrees = building.ProximityThresholdDegrees
	}
	if cfg.DcToAcDerate == 0 {
		cfg.DcToAcDerate = building.DefaultDcToAcDerate
	}
	return &serviceImpl{
		registry: registry,
		geocoder: geocoder,
		provider: provider,
		insights: insights,
		cfg:      cfg,
		logger:   logger.Named("selection"),
		metrics:  metrics,
	}
}

func (s *serviceImpl) AddBuilding(ctx context.Context, input *AddInput) (*AddResult, error) {
	location := solar.LatLng{Latitude: input.Latitude, Longitude: input.Longitude}
	return s.selectLocation(ctx, location, "", input.Nickname)
}

func (s *serviceImpl) AddByAddress(ctx context.Context, query string) (*AddResult, error) {
	if query == "" {
		return nil, errors.InvalidParam("address query must not be empty")
	}
	result, err := s.geocoder.Geocode(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.selectLocation(ctx, result.Location, result.Address, "")
}

// selectLocation runs the shared selection flow: dedupe by proximity, then
// resolve address and insights outside the lock, then insert.  The dedupe
// scan and the insert take the lock separately; the window in between can
// at worst produce a second entry for the same roof, matching the engine's
// own last-writer semantics for repeated clicks.
func (s *serviceImpl) selectLocation(ctx context.Context, location solar.LatLng, address, nickname string) (*AddResult, error) {
	s.mu.Lock()
	existing := s.registry.ProximityMatch(location, s.cfg.ProximityThresholdDegrees)
	if existing != "" {
		dto := toDTO(s.registry.Get(existing))
		s.mu.Unlock()
		s.logger.Debug("location matched existing entry",
			logging.String("id", existing), logging.String("location", location.Key()))
		return &AddResult{Building: dto, AlreadySelected: true}, nil
	}
	s.mu.Unlock()

	if address == "" {
		resolved, err := s.geocoder.ReverseGeocode(ctx, location)
		if err != nil {
			return nil, err
		}
		address = resolved
	}

	insights, err := s.lookupInsights(ctx, location)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	id := s.registry.Add(insights, location, address, 0, nickname)
	dto := toDTO(s.registry.Get(id))
	s.mu.Unlock()

	s.countMutation("add")
	s.logger.Info("building selected",
		logging.String("id", id),
		logging.String("address", address),
		logging.Int("configs", insights.ConfigCount()),
	)
	return &AddResult{Building: dto}, nil
}

// lookupInsights consults the cache before the provider.  Cache failures
// degrade to provider calls; they never fail the selection.
func (s *serviceImpl) lookupInsights(ctx context.Context, location solar.LatLng) (*solar.BuildingInsights, error) {
	if s.insights != nil {
		cached, ok, err := s.insights.Get(ctx, location)
		if err != nil {
			s.logger.Warn("insights cache read failed", logging.Err(err))
		} else if ok {
			if s.metrics != nil {
				s.metrics.CacheHitsTotal.Inc()
			}
			return cached, nil
		} else if s.metrics != nil {
			s.metrics.CacheMissesTotal.Inc()
		}
	}

	insights, err := s.provider.FindClosestBuilding(ctx, location)
	if err != nil {
		return nil, err
	}

	if s.insights != nil {
		if err := s.insights.Set(ctx, location, insights); err != nil {
			s.logger.Warn("insights cache write failed", logging.Err(err))
		}
	}
	return insights, nil
}

func (s *serviceImpl) ListBuildings(_ context.Context) []*Building {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.registry.All()
	out := make([]*Building, len(entries))
	for i, e := range entries {
		out[i] = toDTO(e)
	}
	return out
}

func (s *serviceImpl) GetBuilding(_ context.Context, id string) (*Building, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.registry.Get(id)
	if entry == nil {
		return nil, errors.New(errors.ErrCodeBuildingNotFound, "building not found").WithDetail("id=" + id)
	}
	return toDTO(entry), nil
}

// MatchLocation reports which selected building, if any, covers the given
// map location under the proximity threshold.
func (s *serviceImpl) MatchLocation(_ context.Context, latitude, longitude float64) (*Building, error) {
	location := solar.LatLng{Latitude: latitude, Longitude: longitude}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.registry.ProximityMatch(location, s.cfg.ProximityThresholdDegrees)
	if id == "" {
		return nil, errors.New(errors.ErrCodeBuildingNotFound, "no selected building near location").
			WithDetail("location=" + location.Key())
	}
	return toDTO(s.registry.Get(id)), nil
}

func (s *serviceImpl) RemoveBuilding(_ context.Context, id string) error {
	s.mu.Lock()
	removed := s.registry.Remove(id)
	s.mu.Unlock()
	if !removed {
		return errors.New(errors.ErrCodeBuildingNotFound, "building not found").WithDetail("id=" + id)
	}
	s.countMutation("remove")
	return nil
}

func (s *serviceImpl) SetConfig(_ context.Context, id string, configIndex int) (*Building, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.registry.Get(id)
	if entry == nil {
		return nil, errors.New(errors.ErrCodeBuildingNotFound, "building not found").WithDetail("id=" + id)
	}
	// The engine stores the index unvalidated; the boundary check lives
	// here so API callers cannot arm a panic in Aggregate.
	if configIndex < 0 || configIndex >= entry.Insights.ConfigCount() {
		return nil, errors.New(errors.ErrCodeBuildingConfigRange, "panel configuration index out of range")
	}
	s.registry.UpdateConfig(id, configIndex)
	s.countMutation("update_config")
	return toDTO(entry), nil
}

func (s *serviceImpl) SetNickname(_ context.Context, id, nickname string) (*Building, error) {
	if nickname == "" {
		return nil, errors.InvalidParam("nickname must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.registry.UpdateNickname(id, nickname) {
		return nil, errors.New(errors.ErrCodeBuildingNotFound, "building not found").WithDetail("id=" + id)
	}
	s.countMutation("update_nickname")
	return toDTO(s.registry.Get(id)), nil
}

func (s *serviceImpl) ToggleActive(_ context.Context, id string) (*Building, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.registry.ToggleActive(id) {
		return nil, errors.New(errors.ErrCodeBuildingNotFound, "building not found").WithDetail("id=" + id)
	}
	s.countMutation("toggle_active")
	return toDTO(s.registry.Get(id)), nil
}

func (s *serviceImpl) Summary(_ context.Context, input *SummaryInput) (*SummaryResult, error) {
	if input == nil {
		input = &SummaryInput{}
	}
	derate := s.cfg.DcToAcDerate
	if input.DcToAcDerate > 0 {
		derate = input.DcToAcDerate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The capacity ratio scales the dataset's default panel wattage to the
	// user's chosen model, using the mean default across active entries.
	ratio := building.DefaultPanelCapacityRatio
	if input.PanelCapacityWatts > 0 {
		probe := s.registry.Aggregate(building.DefaultPanelCapacityRatio, derate)
		if probe.AveragePanelCapacityWatts > 0 {
			ratio = input.PanelCapacityWatts / probe.AveragePanelCapacityWatts
		}
	}

	result := s.registry.Aggregate(ratio, derate)
	if s.metrics != nil {
		s.metrics.AggregationsTotal.Inc()
	}

	buildings := make([]*Building, len(result.Buildings))
	for i, e := range result.Buildings {
		buildings[i] = toDTO(e)
	}
	return &SummaryResult{
		PanelCapacityRatio:         ratio,
		DcToAcDerate:               derate,
		TotalPanels:                result.TotalPanels,
		TotalYearlyEnergyAcKwh:     result.TotalYearlyEnergyAcKwh,
		TotalMaxArrayPanels:        result.TotalMaxArrayPanels,
		TotalMaxArrayAreaMeters2:   result.TotalMaxArrayAreaMeters2,
		TotalRoofAreaMeters2:       result.TotalRoofAreaMeters2,
		TotalCarbonOffsetKgPerYear: result.TotalCarbonOffsetKgPerYear,
		TotalAreaMeters2:           result.TotalAreaMeters2,
		AveragePanelCapacityWatts:  result.AveragePanelCapacityWatts,
		Buildings:                  buildings,
	}, nil
}

func (s *serviceImpl) ClearAll(_ context.Context) {
	s.mu.Lock()
	s.registry.Clear()
	s.mu.Unlock()
	s.countMutation("clear")
}

func (s *serviceImpl) countMutation(op string) {
	if s.metrics != nil {
		s.metrics.RegistryMutationsTotal.WithLabelValues(op).Inc()
	}
}

func toDTO(e *building.BuildingEntry) *Building {
	if e == nil {
		return nil
	}
	dto := &Building{
		ID:             e.ID,
		Nickname:       e.Nickname,
		Address:        e.Address,
		Location:       e.Location,
		ConfigIndex:    e.ConfigIndex,
		ConfigCount:    e.Insights.ConfigCount(),
		MaxArrayPanels: e.Insights.SolarPotential.MaxArrayPanelsCount,
		IsActive:       e.IsActive,
	}
	if e.ConfigIndex >= 0 && e.ConfigIndex < e.Insights.ConfigCount() {
		cfg := e.Config()
		dto.PanelsCount = cfg.PanelsCount
		dto.YearlyEnergyDcKwh = cfg.YearlyEnergyDcKwh
	}
	return dto
}
