package app

import (
	"context"
	"fmt"

	"github.com/example/plantcare/internal/apperr"
	"github.com/example/plantcare/internal/core/caldate"
	"github.com/example/plantcare/internal/ports/primary"
	"github.com/example/plantcare/internal/ports/secondary"
)

// QueryServiceImpl implements the QueryService interface.
type QueryServiceImpl struct {
	stores Stores
}

// NewQueryService creates a new QueryService with injected dependencies.
func NewQueryService(stores Stores) *QueryServiceImpl {
	return &QueryServiceImpl{stores: stores}
}

// GetPlantStatus returns a plant's current status with its active factors.
func (s *QueryServiceImpl) GetPlantStatus(ctx context.Context, plantID string) (*primary.PlantStatus, error) {
	plant, err := s.stores.Plants.GetByID(ctx, plantID)
	if err != nil {
		return nil, err
	}

	statuses, err := s.statuses(ctx, plantID, map[string]string{plant.ID: plant.Name})
	if err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return nil, apperr.NotFound("no status computed for plant %s yet", plantID)
	}
	return statuses[0], nil
}

// ListStatuses returns the current status of every plant that has one.
func (s *QueryServiceImpl) ListStatuses(ctx context.Context) ([]*primary.PlantStatus, error) {
	names, err := s.plantNames(ctx)
	if err != nil {
		return nil, err
	}
	return s.statuses(ctx, "", names)
}

func (s *QueryServiceImpl) statuses(ctx context.Context, plantID string, names map[string]string) ([]*primary.PlantStatus, error) {
	current, err := s.stores.Statuses.ListCurrent(ctx, secondary.StatusFilters{PlantID: plantID})
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	factors, err := s.stores.Factors.ListActive(ctx, secondary.FactorFilters{PlantID: plantID})
	if err != nil {
		return nil, fmt.Errorf("failed to list factors: %w", err)
	}
	contribs, err := s.stores.Contributions.ListActive(ctx, secondary.ContributionFilters{PlantID: plantID})
	if err != nil {
		return nil, fmt.Errorf("failed to list contributions: %w", err)
	}

	byFactor := make(map[string]*secondary.ActiveContributionRecord, len(contribs))
	for _, c := range contribs {
		byFactor[c.PlantID+"|"+c.FactorCode] = c
	}
	details := make(map[string][]*primary.FactorDetail)
	for _, f := range factors {
		d := &primary.FactorDetail{
			FactorCode: f.FactorCode,
			FactorDate: f.FactorDate,
			Confidence: f.Confidence,
		}
		if c, ok := byFactor[f.PlantID+"|"+f.FactorCode]; ok {
			d.Severity = c.Severity
			d.DaysOverdue = c.DaysOverdue
		}
		details[f.PlantID] = append(details[f.PlantID], d)
	}

	out := make([]*primary.PlantStatus, 0, len(current))
	for _, st := range current {
		out = append(out, &primary.PlantStatus{
			PlantID:            st.PlantID,
			PlantName:          names[st.PlantID],
			Status:             st.StatusCode,
			CalculatedSeverity: st.CalculatedSeverity,
			EffectiveSeverity:  st.EffectiveSeverity,
			Confidence:         st.Confidence,
			OverrideReason:     st.OverrideReason,
			ValidFrom:          st.ValidFrom,
			Factors:            details[st.PlantID],
		})
	}
	return out, nil
}

// StatusHistory returns a plant's status windows, newest first.
func (s *QueryServiceImpl) StatusHistory(ctx context.Context, plantID string, limit int) ([]*primary.StatusWindow, error) {
	if _, err := s.stores.Plants.GetByID(ctx, plantID); err != nil {
		return nil, err
	}
	records, err := s.stores.Statuses.History(ctx, plantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load status history: %w", err)
	}
	out := make([]*primary.StatusWindow, 0, len(records))
	for _, r := range records {
		out = append(out, &primary.StatusWindow{
			Status:             r.StatusCode,
			CalculatedSeverity: r.CalculatedSeverity,
			EffectiveSeverity:  r.EffectiveSeverity,
			OverrideReason:     r.OverrideReason,
			ValidFrom:          r.ValidFrom,
			ValidTo:            r.ValidTo,
			RunID:              r.RunID,
		})
	}
	return out, nil
}

// ListSchedule returns open schedule items, soonest first.
func (s *QueryServiceImpl) ListSchedule(ctx context.Context, filters primary.ScheduleFilters) ([]*primary.ScheduleItem, error) {
	if filters.Before != "" {
		if _, err := caldate.Parse(filters.Before); err != nil {
			return nil, apperr.Validation("before must be YYYY-MM-DD")
		}
	}
	records, err := s.stores.Schedule.ListOpen(ctx, secondary.ScheduleFilters{
		PlantID: filters.PlantID,
		Before:  filters.Before,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule: %w", err)
	}
	names, err := s.plantNames(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*primary.ScheduleItem, 0, len(records))
	for _, r := range records {
		out = append(out, &primary.ScheduleItem{
			ID:         r.ID,
			PlantID:    r.PlantID,
			PlantName:  names[r.PlantID],
			FactorCode: r.FactorCode,
			Date:       r.ScheduleDate,
			Label:      r.Label,
			Severity:   r.Severity,
		})
	}
	return out, nil
}

func (s *QueryServiceImpl) plantNames(ctx context.Context) (map[string]string, error) {
	plants, err := s.stores.Plants.List(ctx, secondary.PlantFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list plants: %w", err)
	}
	names := make(map[string]string, len(plants))
	for _, p := range plants {
		names[p.ID] = p.Name
	}
	return names, nil
}
