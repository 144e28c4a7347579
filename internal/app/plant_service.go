package app

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/example/plantcare/internal/apperr"
	"github.com/example/plantcare/internal/core/caldate"
	"github.com/example/plantcare/internal/core/factor"
	"github.com/example/plantcare/internal/core/run"
	"github.com/example/plantcare/internal/logger"
	"github.com/example/plantcare/internal/ports/primary"
	"github.com/example/plantcare/internal/ports/secondary"
)

var typeIDUnsafe = regexp.MustCompile(`[^A-Z0-9]+`)

// PlantServiceImpl implements the PlantService interface.
type PlantServiceImpl struct {
	plants    secondary.PlantRepository
	lookups   secondary.LookupRepository
	scheduler RecomputeScheduler
	clock     Clock
	log       *logger.Logger
}

// NewPlantService creates a new PlantService with injected dependencies.
func NewPlantService(stores Stores, scheduler RecomputeScheduler, clock Clock, log *logger.Logger) *PlantServiceImpl {
	return &PlantServiceImpl{
		plants:    stores.Plants,
		lookups:   stores.Lookups,
		scheduler: scheduler,
		clock:     clock,
		log:       log,
	}
}

// CreatePlant registers a plant and schedules its first recompute.
func (s *PlantServiceImpl) CreatePlant(ctx context.Context, req primary.CreatePlantRequest) (*primary.Plant, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Validation("plant name is required")
	}

	acquired := s.clock.Today()
	if req.AcquisitionDate != "" {
		d, err := caldate.Parse(req.AcquisitionDate)
		if err != nil {
			return nil, apperr.Validation("acquisition_date must be YYYY-MM-DD")
		}
		if d.After(acquired) {
			return nil, apperr.Validation("acquisition_date %s is in the future", req.AcquisitionDate)
		}
		acquired = d
	}

	if req.PlantTypeID != "" {
		if err := s.requireType(ctx, req.PlantTypeID); err != nil {
			return nil, err
		}
	}

	record := &secondary.PlantRecord{
		ID:              s.clock.NewID(),
		Name:            name,
		PlantTypeID:     req.PlantTypeID,
		AcquisitionDate: caldate.Format(acquired),
		IsActive:        true,
	}
	if err := s.plants.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create plant: %w", err)
	}
	s.log.Info("plant created", "plant_id", record.ID, "plant_type_id", record.PlantTypeID)

	s.scheduleRecompute(ctx, record.ID)
	return recordToPlant(record), nil
}

func (s *PlantServiceImpl) requireType(ctx context.Context, typeID string) error {
	types, err := s.lookups.ListPlantTypes(ctx, false)
	if err != nil {
		return fmt.Errorf("failed to load plant types: %w", err)
	}
	for _, t := range types {
		if t.ID == typeID {
			return nil
		}
	}
	return apperr.NotFound("plant type %s not found", typeID)
}

// GetPlant retrieves a plant by ID.
func (s *PlantServiceImpl) GetPlant(ctx context.Context, plantID string) (*primary.Plant, error) {
	record, err := s.plants.GetByID(ctx, plantID)
	if err != nil {
		return nil, err
	}
	return recordToPlant(record), nil
}

// ListPlants lists plants, active ones only unless includeInactive is set.
func (s *PlantServiceImpl) ListPlants(ctx context.Context, includeInactive bool) ([]*primary.Plant, error) {
	records, err := s.plants.List(ctx, secondary.PlantFilters{ActiveOnly: !includeInactive})
	if err != nil {
		return nil, fmt.Errorf("failed to list plants: %w", err)
	}
	out := make([]*primary.Plant, 0, len(records))
	for _, r := range records {
		out = append(out, recordToPlant(r))
	}
	return out, nil
}

// SetPlantActive activates or deactivates a plant. A deactivated plant's
// derived state is retired by the next batch run.
func (s *PlantServiceImpl) SetPlantActive(ctx context.Context, plantID string, active bool) error {
	if err := s.plants.SetActive(ctx, plantID, active); err != nil {
		return err
	}
	s.log.Info("plant active flag changed", "plant_id", plantID, "active", active)
	if active {
		s.scheduleRecompute(ctx, plantID)
	}
	return nil
}

func (s *PlantServiceImpl) scheduleRecompute(ctx context.Context, plantID string) {
	err := s.scheduler.Schedule(ctx, primary.RecomputeRequest{
		PlantID:      plantID,
		ActivityKind: factor.ActivityWatering,
		Trigger:      run.TriggerUserAction,
	})
	if err != nil {
		s.log.Warn("failed to schedule recompute", "plant_id", plantID, "error", err)
	}
}

// CreatePlantType registers a plant type. Its ID is derived from the name.
func (s *PlantServiceImpl) CreatePlantType(ctx context.Context, req primary.CreatePlantTypeRequest) (*primary.PlantType, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Validation("plant type name is required")
	}
	if req.WateringIntervalDays < 1 {
		return nil, apperr.Validation("watering interval must be at least 1 day")
	}

	id := PlantTypeID(name)
	types, err := s.lookups.ListPlantTypes(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load plant types: %w", err)
	}
	for _, t := range types {
		if t.ID == id {
			return nil, apperr.Newf(apperr.KindConflict, "plant type %s already exists", id)
		}
	}

	record := &secondary.PlantTypeRecord{
		ID:                   id,
		Name:                 name,
		WateringIntervalDays: req.WateringIntervalDays,
		IsActive:             true,
	}
	if err := s.lookups.CreatePlantType(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create plant type: %w", err)
	}
	return &primary.PlantType{ID: record.ID, Name: record.Name, WateringIntervalDays: record.WateringIntervalDays}, nil
}

// ListPlantTypes lists active plant types.
func (s *PlantServiceImpl) ListPlantTypes(ctx context.Context) ([]*primary.PlantType, error) {
	records, err := s.lookups.ListPlantTypes(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list plant types: %w", err)
	}
	out := make([]*primary.PlantType, 0, len(records))
	for _, r := range records {
		out = append(out, &primary.PlantType{ID: r.ID, Name: r.Name, WateringIntervalDays: r.WateringIntervalDays})
	}
	return out, nil
}

// PlantTypeID derives a plant type ID such as TYPE-SNAKE-PLANT from a name.
func PlantTypeID(name string) string {
	slug := typeIDUnsafe.ReplaceAllString(strings.ToUpper(name), "-")
	return "TYPE-" + strings.Trim(slug, "-")
}

func recordToPlant(r *secondary.PlantRecord) *primary.Plant {
	return &primary.Plant{
		ID:              r.ID,
		Name:            r.Name,
		PlantTypeID:     r.PlantTypeID,
		AcquisitionDate: r.AcquisitionDate,
		IsActive:        r.IsActive,
	}
}
