// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle output formatting but delegate
// business logic to services.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/plantcare/internal/ports/primary"
)

const rule = "────────────────────────────────────────────────────────────────"

// PlantAdapter translates CLI operations to PlantService calls.
type PlantAdapter struct {
	service primary.PlantService
	out     io.Writer
}

// NewPlantAdapter creates a new PlantAdapter with the given service.
func NewPlantAdapter(service primary.PlantService, out io.Writer) *PlantAdapter {
	return &PlantAdapter{
		service: service,
		out:     out,
	}
}

// Add registers a plant.
func (a *PlantAdapter) Add(ctx context.Context, name, plantTypeID, acquired string) error {
	plant, err := a.service.CreatePlant(ctx, primary.CreatePlantRequest{
		Name:            name,
		PlantTypeID:     plantTypeID,
		AcquisitionDate: acquired,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Added plant %s: %s\n", plant.ID, plant.Name)
	if plant.PlantTypeID == "" {
		fmt.Fprintln(a.out, "  No plant type set, so no watering schedule will be derived")
	}
	return nil
}

// List lists plants.
func (a *PlantAdapter) List(ctx context.Context, includeInactive bool) error {
	plants, err := a.service.ListPlants(ctx, includeInactive)
	if err != nil {
		return fmt.Errorf("failed to list plants: %w", err)
	}

	if len(plants) == 0 {
		fmt.Fprintln(a.out, "No plants found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-38s %-20s %-12s %-8s %s\n", "ID", "TYPE", "ACQUIRED", "ACTIVE", "NAME")
	fmt.Fprintln(a.out, rule)
	for _, p := range plants {
		typeID := p.PlantTypeID
		if typeID == "" {
			typeID = "-"
		}
		fmt.Fprintf(a.out, "%-38s %-20s %-12s %-8t %s\n", p.ID, typeID, p.AcquisitionDate, p.IsActive, p.Name)
	}
	fmt.Fprintln(a.out)

	return nil
}

// SetActive activates or deactivates a plant.
func (a *PlantAdapter) SetActive(ctx context.Context, plantID string, active bool) error {
	if err := a.service.SetPlantActive(ctx, plantID, active); err != nil {
		return err
	}
	verb := "Deactivated"
	if active {
		verb = "Activated"
	}
	fmt.Fprintf(a.out, "✓ %s plant %s\n", verb, plantID)
	return nil
}

// AddType registers a plant type.
func (a *PlantAdapter) AddType(ctx context.Context, name string, intervalDays int) error {
	pt, err := a.service.CreatePlantType(ctx, primary.CreatePlantTypeRequest{
		Name:                 name,
		WateringIntervalDays: intervalDays,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Added plant type %s: %s (water every %d days)\n", pt.ID, pt.Name, pt.WateringIntervalDays)
	return nil
}

// ListTypes lists active plant types.
func (a *PlantAdapter) ListTypes(ctx context.Context) error {
	types, err := a.service.ListPlantTypes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list plant types: %w", err)
	}

	if len(types) == 0 {
		fmt.Fprintln(a.out, "No plant types found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-24s %-10s %s\n", "ID", "INTERVAL", "NAME")
	fmt.Fprintln(a.out, rule)
	for _, pt := range types {
		fmt.Fprintf(a.out, "%-24s %-10s %s\n", pt.ID, fmt.Sprintf("%dd", pt.WateringIntervalDays), pt.Name)
	}
	fmt.Fprintln(a.out)

	return nil
}
