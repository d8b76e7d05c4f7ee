package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicroot/platform/internal/complaint/domain"
	"github.com/civicroot/platform/internal/shared/errors"
	"github.com/civicroot/platform/internal/shared/types"
)

// PostgresRepository provides database operations for complaints
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new complaint repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Save inserts a new complaint
func (r *PostgresRepository) Save(ctx context.Context, c *domain.Complaint) error {
	var lat, lng *float64
	if c.Location != nil {
		lat, lng = &c.Location.Lat, &c.Location.Lng
	}

	query := `
		INSERT INTO complaints.complaints (
			id, reporter_id, society_id, org_id,
			category, subcategory, description, media, lat, lng,
			status, priority, assigned_to, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15
		)`

	_, err := r.pool.Exec(ctx, query,
		c.ID, c.ReporterID, c.SocietyID, c.OrgID,
		c.Category, c.Subcategory, c.Description, c.Media, lat, lng,
		c.Status, c.Priority, c.AssignedTo, c.CreatedAt, c.UpdatedAt,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("complaint already exists")
		}
		return errors.Wrap(err, "failed to save complaint")
	}

	return nil
}

// FindByID retrieves a complaint by ID
func (r *PostgresRepository) FindByID(ctx context.Context, id types.ID) (*domain.Complaint, error) {
	query := `
		SELECT id, reporter_id, society_id, org_id,
			category, subcategory, description, media, lat, lng,
			status, priority, assigned_to, created_at, updated_at
		FROM complaints.complaints
		WHERE id = $1`

	c, err := scanComplaint(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("complaint", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get complaint")
	}

	return c, nil
}

// Update rewrites the mutable fields of a complaint
func (r *PostgresRepository) Update(ctx context.Context, c *domain.Complaint) error {
	query := `
		UPDATE complaints.complaints SET
			org_id = $2, status = $3, priority = $4, assigned_to = $5,
			updated_at = $6
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		c.ID, c.OrgID, c.Status, c.Priority, c.AssignedTo, c.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update complaint")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("complaint", c.ID.String())
	}

	return nil
}

// List lists complaints newest first, capped at MaxListLimit
func (r *PostgresRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Complaint, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.ID != nil {
		conditions = append(conditions, fmt.Sprintf("id = $%d", argNum))
		args = append(args, *filter.ID)
		argNum++
	}

	if filter.SocietyID != nil {
		conditions = append(conditions, fmt.Sprintf("society_id = $%d", argNum))
		args = append(args, *filter.SocietyID)
		argNum++
	}

	if filter.OrgID != nil {
		conditions = append(conditions, fmt.Sprintf("org_id = $%d", argNum))
		args = append(args, *filter.OrgID)
		argNum++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, *filter.Status)
		argNum++
	}

	if filter.AssignedTo != nil {
		conditions = append(conditions, fmt.Sprintf("assigned_to = $%d", argNum))
		args = append(args, *filter.AssignedTo)
		argNum++
	}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argNum))
		args = append(args, filter.Category)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	limit := domain.MaxListLimit
	if filter.Limit > 0 && filter.Limit < limit {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT id, reporter_id, society_id, org_id,
			category, subcategory, description, media, lat, lng,
			status, priority, assigned_to, created_at, updated_at
		FROM complaints.complaints
		%s
		ORDER BY created_at DESC
		LIMIT $%d`, whereClause, argNum)

	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list complaints")
	}
	defer rows.Close()

	var complaints []domain.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan complaint")
		}
		complaints = append(complaints, *c)
	}

	return complaints, nil
}

func scanComplaint(row pgx.Row) (*domain.Complaint, error) {
	c := &domain.Complaint{}
	var lat, lng *float64

	err := row.Scan(
		&c.ID, &c.ReporterID, &c.SocietyID, &c.OrgID,
		&c.Category, &c.Subcategory, &c.Description, &c.Media, &lat, &lng,
		&c.Status, &c.Priority, &c.AssignedTo, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lat != nil && lng != nil {
		c.Location = &types.Point{Lat: *lat, Lng: *lng}
	}

	return c, nil
}

// PostgresEventLog is the append-only audit trail backed by Postgres.
// Rows are never updated or deleted.
type PostgresEventLog struct {
	pool *pgxpool.Pool
}

// NewPostgresEventLog creates a new event log
func NewPostgresEventLog(pool *pgxpool.Pool) *PostgresEventLog {
	return &PostgresEventLog{pool: pool}
}

// Append writes one audit event
func (l *PostgresEventLog) Append(ctx context.Context, event domain.ComplaintEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return errors.Wrap(err, "failed to encode event payload")
	}

	query := `
		INSERT INTO complaints.complaint_events (id, complaint_id, type, actor_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = l.pool.Exec(ctx, query,
		event.ID, event.ComplaintID, event.Type, event.ActorID, payload, event.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to append event")
	}

	return nil
}

// ListFor returns events for a complaint ascending by creation time
func (l *PostgresEventLog) ListFor(ctx context.Context, complaintID types.ID) ([]domain.ComplaintEvent, error) {
	query := `
		SELECT id, complaint_id, type, actor_id, payload, created_at
		FROM complaints.complaint_events
		WHERE complaint_id = $1
		ORDER BY created_at ASC`

	rows, err := l.pool.Query(ctx, query, complaintID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list events")
	}
	defer rows.Close()

	var events []domain.ComplaintEvent
	for rows.Next() {
		var event domain.ComplaintEvent
		var payload []byte
		if err := rows.Scan(&event.ID, &event.ComplaintID, &event.Type, &event.ActorID, &payload, &event.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan event")
		}
		event.Payload = decodePayload(event.Type, payload)
		events = append(events, event)
	}

	return events, nil
}

// decodePayload restores the typed payload for a stored event. Unknown
// types fall back to a generic map.
func decodePayload(eventType domain.EventType, raw []byte) any {
	if len(raw) == 0 {
		return nil
	}

	var target any
	switch eventType {
	case domain.EventCreated:
		target = &domain.CreatedPayload{}
	case domain.EventStatusChanged:
		target = &domain.StatusChangedPayload{}
	case domain.EventAssigned:
		target = &domain.AssignedPayload{}
	case domain.EventComment:
		target = &domain.CommentPayload{}
	default:
		m := map[string]any{}
		target = &m
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return nil
	}
	return target
}

// PostgresProgressLedger stores field-work updates, append-only
type PostgresProgressLedger struct {
	pool *pgxpool.Pool
}

// NewPostgresProgressLedger creates a new progress ledger
func NewPostgresProgressLedger(pool *pgxpool.Pool) *PostgresProgressLedger {
	return &PostgresProgressLedger{pool: pool}
}

// Append writes one progress update
func (l *PostgresProgressLedger) Append(ctx context.Context, update *domain.ProgressUpdate) error {
	query := `
		INSERT INTO complaints.progress_updates (
			id, complaint_id, date, description, photos,
			updated_by, updated_by_name, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := l.pool.Exec(ctx, query,
		update.ID, update.ComplaintID, update.Date, update.Description, update.Photos,
		update.UpdatedBy, update.UpdatedByName, update.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to append progress update")
	}

	return nil
}

// ListFor returns progress updates in append order
func (l *PostgresProgressLedger) ListFor(ctx context.Context, complaintID types.ID) ([]domain.ProgressUpdate, error) {
	query := `
		SELECT id, complaint_id, date, description, photos,
			updated_by, updated_by_name, created_at
		FROM complaints.progress_updates
		WHERE complaint_id = $1
		ORDER BY created_at ASC`

	rows, err := l.pool.Query(ctx, query, complaintID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list progress updates")
	}
	defer rows.Close()

	var updates []domain.ProgressUpdate
	for rows.Next() {
		var update domain.ProgressUpdate
		err := rows.Scan(
			&update.ID, &update.ComplaintID, &update.Date, &update.Description, &update.Photos,
			&update.UpdatedBy, &update.UpdatedByName, &update.CreatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan progress update")
		}
		updates = append(updates, update)
	}

	return updates, nil
}
