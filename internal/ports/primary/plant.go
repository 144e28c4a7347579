package primary

import "context"

// PlantService defines the primary port for managing plants and plant types.
type PlantService interface {
	// CreatePlant registers a plant.
	CreatePlant(ctx context.Context, req CreatePlantRequest) (*Plant, error)

	// GetPlant retrieves a plant by ID.
	GetPlant(ctx context.Context, plantID string) (*Plant, error)

	// ListPlants lists plants.
	ListPlants(ctx context.Context, includeInactive bool) ([]*Plant, error)

	// SetPlantActive activates or deactivates a plant.
	SetPlantActive(ctx context.Context, plantID string, active bool) error

	// CreatePlantType registers a plant type with its default watering interval.
	CreatePlantType(ctx context.Context, req CreatePlantTypeRequest) (*PlantType, error)

	// ListPlantTypes lists active plant types.
	ListPlantTypes(ctx context.Context) ([]*PlantType, error)
}

// CreatePlantRequest contains parameters for registering a plant.
type CreatePlantRequest struct {
	Name            string
	PlantTypeID     string
	AcquisitionDate string // defaults to today
}

// Plant is a tracked plant.
type Plant struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	PlantTypeID     string `json:"plant_type_id,omitempty"`
	AcquisitionDate string `json:"acquisition_date"`
	IsActive        bool   `json:"is_active"`
}

// CreatePlantTypeRequest contains parameters for registering a plant type.
type CreatePlantTypeRequest struct {
	Name                 string
	WateringIntervalDays int
}

// PlantType is a plant type.
type PlantType struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	WateringIntervalDays int    `json:"watering_interval_days"`
}
