// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
//
// Dates are YYYY-MM-DD strings and instants RFC3339 strings, as stored.
package secondary

import "context"

// Transactor runs a unit of work atomically. Repositories called with the
// context passed to fn take part in the transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PlantRepository defines the secondary port for plant persistence.
type PlantRepository interface {
	// Create persists a new plant.
	Create(ctx context.Context, plant *PlantRecord) error

	// GetByID retrieves a plant by its ID.
	GetByID(ctx context.Context, id string) (*PlantRecord, error)

	// List retrieves plants matching the given filters.
	List(ctx context.Context, filters PlantFilters) ([]*PlantRecord, error)

	// SetActive activates or deactivates a plant.
	SetActive(ctx context.Context, id string, active bool) error
}

// PlantRecord represents a plant as stored in persistence.
type PlantRecord struct {
	ID              string
	Name            string
	PlantTypeID     string // empty when the plant has no type
	AcquisitionDate string
	IsActive        bool
	CreatedAt       string
}

// PlantFilters contains filter options for querying plants.
type PlantFilters struct {
	ID         string
	ActiveOnly bool
}

// LookupRepository defines the secondary port for the reference tables the
// pipeline joins against.
type LookupRepository interface {
	// CreatePlantType persists a new plant type.
	CreatePlantType(ctx context.Context, pt *PlantTypeRecord) error

	// ListPlantTypes retrieves plant types. Inactive types are excluded unless
	// includeInactive is set.
	ListPlantTypes(ctx context.Context, includeInactive bool) ([]*PlantTypeRecord, error)

	// FactorWeights returns factor code -> status weight.
	FactorWeights(ctx context.Context) (map[string]float64, error)

	// FactorCategories returns factor code -> category label.
	FactorCategories(ctx context.Context) (map[string]string, error)
}

// PlantTypeRecord represents a plant type as stored in persistence.
type PlantTypeRecord struct {
	ID                   string
	Name                 string
	WateringIntervalDays int
	IsActive             bool
}

// ActivityRepository defines the secondary port for the append-only activity history.
type ActivityRepository interface {
	// Create appends an activity event.
	Create(ctx context.Context, activity *ActivityRecord) error

	// List retrieves activity events matching the given filters, oldest first.
	List(ctx context.Context, filters ActivityFilters) ([]*ActivityRecord, error)
}

// ActivityRecord represents an activity event as stored in persistence.
type ActivityRecord struct {
	ID           string
	PlantID      string
	ActivityKind string
	ActivityDate string
	Quantity     *float64
	Unit         string
	Notes        string
	Result       string
	ActorID      string
	CreatedAt    string
}

// ActivityFilters contains filter options for querying activity events.
type ActivityFilters struct {
	PlantID      string
	ActivityKind string
}

// FactorRepository defines the secondary port for factor history and the
// active factor set.
type FactorRepository interface {
	// AppendHistory inserts history rows. History is never updated.
	AppendHistory(ctx context.Context, records []*FactorRecord) error

	// InsertActive inserts active rows, skipping any key that already has an
	// active row. Returns the number of rows inserted.
	InsertActive(ctx context.Context, records []*ActiveFactorRecord) (int, error)

	// PatchActive updates the value of an active row by ID.
	PatchActive(ctx context.Context, record *ActiveFactorRecord) error

	// RetireActive deactivates active rows by ID.
	RetireActive(ctx context.Context, ids []string, retiredAt string) error

	// ListActive retrieves active rows matching the given filters.
	ListActive(ctx context.Context, filters FactorFilters) ([]*ActiveFactorRecord, error)

	// ListHistory retrieves history rows matching the given filters, newest first.
	ListHistory(ctx context.Context, filters FactorFilters) ([]*FactorRecord, error)
}

// FactorRecord represents a factor history row.
type FactorRecord struct {
	ID         string
	PlantID    string
	FactorCode string
	FactorDate string
	Confidence float64
	Source     string
	RunID      string
	CreatedAt  string
}

// ActiveFactorRecord represents an active factor row.
type ActiveFactorRecord struct {
	ID         string
	PlantID    string
	FactorCode string
	FactorDate string
	Confidence float64
	HistoryID  string
	RunID      string
	UpdatedAt  string
}

// FactorFilters contains filter options for querying factors.
type FactorFilters struct {
	PlantID    string
	FactorCode string
	Limit      int
}

// ContributionRepository defines the secondary port for contribution history
// and the active contribution set.
type ContributionRepository interface {
	AppendHistory(ctx context.Context, records []*ContributionRecord) error
	InsertActive(ctx context.Context, records []*ActiveContributionRecord) (int, error)
	PatchActive(ctx context.Context, record *ActiveContributionRecord) error
	RetireActive(ctx context.Context, ids []string, retiredAt string) error
	ListActive(ctx context.Context, filters ContributionFilters) ([]*ActiveContributionRecord, error)
}

// ContributionRecord represents a contribution history row.
type ContributionRecord struct {
	ID            string
	PlantFactorID string
	PlantID       string
	FactorCode    string
	Severity      int
	DaysOverdue   *int
	RunID         string
	CreatedAt     string
}

// ActiveContributionRecord represents an active contribution row.
type ActiveContributionRecord struct {
	ID            string
	PlantFactorID string
	PlantID       string
	FactorCode    string
	Severity      int
	DaysOverdue   *int
	HistoryID     string
	RunID         string
	UpdatedAt     string
}

// ContributionFilters contains filter options for querying contributions.
type ContributionFilters struct {
	PlantID    string
	FactorCode string
}

// StatusRepository defines the secondary port for status validity windows.
type StatusRepository interface {
	// ListCurrent retrieves the current window of each plant matching the filters.
	ListCurrent(ctx context.Context, filters StatusFilters) ([]*StatusRecord, error)

	// Supersede marks the plant's current window not-current as of validTo.
	Supersede(ctx context.Context, plantID, validTo string) error

	// Insert persists a new current window.
	Insert(ctx context.Context, record *StatusRecord) error

	// History retrieves every window of a plant, newest first.
	History(ctx context.Context, plantID string, limit int) ([]*StatusRecord, error)
}

// StatusRecord represents a status window as stored in persistence.
type StatusRecord struct {
	ID                 string
	PlantID            string
	StatusCode         string
	CalculatedSeverity int
	EffectiveSeverity  int
	Confidence         float64
	OverrideReason     string
	ValidFrom          string
	ValidTo            string
	IsCurrent          bool
	RunID              string
	CalculatedAt       string
}

// StatusFilters contains filter options for querying statuses.
type StatusFilters struct {
	PlantID string
}

// ScheduleRepository defines the secondary port for schedule items.
type ScheduleRepository interface {
	// ListOpen retrieves items that have not been closed.
	ListOpen(ctx context.Context, filters ScheduleFilters) ([]*ScheduleRecord, error)

	// Insert persists new open items, first closing as of endDate any item
	// still open for the same plant and factor code. Returns how many were
	// closed that way.
	Insert(ctx context.Context, records []*ScheduleRecord, endDate string) (int, error)

	// UpdateSeverity changes the severity of an open item in place.
	UpdateSeverity(ctx context.Context, id string, severity int, runID string) error

	// Close ends open items as of endDate.
	Close(ctx context.Context, ids []string, endDate string) error
}

// ScheduleRecord represents a schedule item as stored in persistence.
type ScheduleRecord struct {
	ID            string
	PlantID       string
	PlantFactorID string
	FactorCode    string
	ScheduleDate  string
	Label         string
	Severity      int
	RunID         string
	EndDate       string
	UpdatedAt     string
}

// ScheduleFilters contains filter options for querying schedule items.
type ScheduleFilters struct {
	PlantID string
	// Before limits results to items dated on or before this date.
	Before string
}

// AlertRepository defines the secondary port for alert persistence.
type AlertRepository interface {
	// Create persists a new alert. Returns false when a non-resolved alert of
	// the same plant and type already exists.
	Create(ctx context.Context, alert *AlertRecord) (bool, error)

	// GetByID retrieves an alert by its ID.
	GetByID(ctx context.Context, id string) (*AlertRecord, error)

	// List retrieves alerts matching the given filters.
	List(ctx context.Context, filters AlertFilters) ([]*AlertRecord, error)

	// UpdateSeverity changes the bucket and message of an open alert.
	UpdateSeverity(ctx context.Context, id, severity, message, runID string) error

	// Resolve closes an alert.
	Resolve(ctx context.Context, id, reason, resolvedAt string) error

	// MarkSnoozed records a snooze.
	MarkSnoozed(ctx context.Context, id string, days int, snoozeUntil string) error

	// MarkDismissed records a dismissal until suppressUntil.
	MarkDismissed(ctx context.Context, id, dismissedAt, suppressUntil string) error
}

// AlertRecord represents an alert as stored in persistence.
type AlertRecord struct {
	ID            string
	PlantID       string
	AlertType     string
	Category      string
	Severity      string
	Title         string
	Message       string
	TargetDate    string
	DueDate       string
	IsActive      bool
	IsSnoozed     bool
	SnoozeDays    int
	SnoozeUntil   string
	IsDismissed   bool
	DismissedAt   string
	DismissType   string
	SuppressUntil string
	ResolvedAt    string
	ResolveReason string
	RunID         string
	CreatedAt     string
	UpdatedAt     string
}

// AlertFilters contains filter options for querying alerts.
type AlertFilters struct {
	PlantID   string
	AlertType string
	OpenOnly  bool
	Limit     int
}

// RunRepository defines the secondary port for the pipeline run journal.
type RunRepository interface {
	// Start records a run as started.
	Start(ctx context.Context, run *RunRecord) error

	// Finish records the outcome of a run.
	Finish(ctx context.Context, run *RunRecord) error

	// List retrieves the most recent runs.
	List(ctx context.Context, limit int) ([]*RunRecord, error)
}

// RunRecord represents a pipeline run as stored in persistence.
type RunRecord struct {
	ID         string
	Trigger    string
	PlantID    string
	StartedAt  string
	FinishedAt string
	Started    int
	Completed  int
	Errors     int
	Error      string
}
