package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/plantcare/internal/ports/secondary"
)

// ActivityRepository implements secondary.ActivityRepository with SQLite.
type ActivityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a new SQLite activity repository.
func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create appends an activity event.
func (r *ActivityRepository) Create(ctx context.Context, a *secondary.ActivityRecord) error {
	var quantity sql.NullFloat64
	if a.Quantity != nil {
		quantity = sql.NullFloat64{Float64: *a.Quantity, Valid: true}
	}

	_, err := conn(ctx, r.db).ExecContext(ctx,
		"INSERT INTO activity_history (id, plant_id, activity_kind, activity_date, quantity, unit, notes, result, actor_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		a.ID, a.PlantID, a.ActivityKind, a.ActivityDate, quantity,
		nullString(a.Unit), nullString(a.Notes), nullString(a.Result), nullString(a.ActorID),
	)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

// List retrieves activity events matching the given filters, oldest first.
func (r *ActivityRepository) List(ctx context.Context, filters secondary.ActivityFilters) ([]*secondary.ActivityRecord, error) {
	query := "SELECT id, plant_id, activity_kind, activity_date, quantity, unit, notes, result, actor_id, created_at FROM activity_history WHERE 1=1"
	args := []any{}

	if filters.PlantID != "" {
		query += " AND plant_id = ?"
		args = append(args, filters.PlantID)
	}
	if filters.ActivityKind != "" {
		query += " AND activity_kind = ?"
		args = append(args, filters.ActivityKind)
	}

	query += " ORDER BY activity_date, created_at, id"

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []*secondary.ActivityRecord
	for rows.Next() {
		var (
			a                            secondary.ActivityRecord
			quantity                     sql.NullFloat64
			unit, notes, result, actorID sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.PlantID, &a.ActivityKind, &a.ActivityDate, &quantity, &unit, &notes, &result, &actorID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		if quantity.Valid {
			q := quantity.Float64
			a.Quantity = &q
		}
		a.Unit = unit.String
		a.Notes = notes.String
		a.Result = result.String
		a.ActorID = actorID.String
		activities = append(activities, &a)
	}
	return activities, rows.Err()
}
