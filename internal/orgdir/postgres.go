package orgdir

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicroot/platform/internal/shared/errors"
	"github.com/civicroot/platform/internal/shared/types"
)

// PostgresDirectory provides database operations for organizations
type PostgresDirectory struct {
	pool *pgxpool.Pool
}

// NewPostgresDirectory creates a new organization directory backed by Postgres
func NewPostgresDirectory(pool *pgxpool.Pool) *PostgresDirectory {
	return &PostgresDirectory{pool: pool}
}

// Create inserts a new organization
func (d *PostgresDirectory) Create(ctx context.Context, org *Org) error {
	jurisdiction, err := marshalJurisdiction(org.Jurisdiction)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO directory.orgs (id, name, type, categories, jurisdiction, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = d.pool.Exec(ctx, query,
		org.ID, org.Name, org.Type, org.Categories, jurisdiction, org.IsVerified,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("organization already exists")
		}
		return errors.Wrap(err, "failed to create organization")
	}

	return nil
}

// Get retrieves an organization by ID
func (d *PostgresDirectory) Get(ctx context.Context, id types.ID) (*Org, error) {
	query := `
		SELECT id, name, type, categories, jurisdiction, is_verified, created_at, updated_at
		FROM directory.orgs
		WHERE id = $1`

	org, err := scanOrg(d.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("organization", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get organization")
	}

	return org, nil
}

// Update updates an organization
func (d *PostgresDirectory) Update(ctx context.Context, org *Org) error {
	jurisdiction, err := marshalJurisdiction(org.Jurisdiction)
	if err != nil {
		return err
	}

	query := `
		UPDATE directory.orgs SET
			name = $2, categories = $3, jurisdiction = $4, is_verified = $5,
			updated_at = NOW()
		WHERE id = $1`

	result, err := d.pool.Exec(ctx, query,
		org.ID, org.Name, org.Categories, jurisdiction, org.IsVerified,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update organization")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("organization", org.ID.String())
	}

	return nil
}

// List lists organizations with optional filters
func (d *PostgresDirectory) List(ctx context.Context, filter ListOrgsFilter) ([]Org, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argNum))
		args = append(args, *filter.Type)
		argNum++
	}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(categories)", argNum))
		args = append(args, filter.Category)
		argNum++
	}

	if filter.Verified != nil {
		conditions = append(conditions, fmt.Sprintf("is_verified = $%d", argNum))
		args = append(args, *filter.Verified)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM directory.orgs %s", whereClause)
	var total int
	if err := d.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count organizations")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT id, name, type, categories, jurisdiction, is_verified, created_at, updated_at
		FROM directory.orgs
		%s
		ORDER BY name
		LIMIT $%d OFFSET $%d`, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list organizations")
	}
	defer rows.Close()

	var orgs []Org
	for rows.Next() {
		org, err := scanOrg(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan organization")
		}
		orgs = append(orgs, *org)
	}

	return orgs, total, nil
}

// FindCandidates returns verified organizations serving the category
func (d *PostgresDirectory) FindCandidates(ctx context.Context, category string) ([]Org, error) {
	query := `
		SELECT id, name, type, categories, jurisdiction, is_verified, created_at, updated_at
		FROM directory.orgs
		WHERE is_verified = TRUE AND $1 = ANY(categories)
		ORDER BY name`

	rows, err := d.pool.Query(ctx, query, category)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find candidate organizations")
	}
	defer rows.Close()

	var orgs []Org
	for rows.Next() {
		org, err := scanOrg(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan organization")
		}
		orgs = append(orgs, *org)
	}

	return orgs, nil
}

func scanOrg(row pgx.Row) (*Org, error) {
	org := &Org{}
	var jurisdiction []byte

	err := row.Scan(
		&org.ID, &org.Name, &org.Type, &org.Categories, &jurisdiction, &org.IsVerified,
		&org.CreatedAt, &org.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(jurisdiction) > 0 {
		var mp types.MultiPolygon
		if err := json.Unmarshal(jurisdiction, &mp); err != nil {
			return nil, fmt.Errorf("invalid jurisdiction geometry: %w", err)
		}
		org.Jurisdiction = &mp
	}

	return org, nil
}

func marshalJurisdiction(mp *types.MultiPolygon) ([]byte, error) {
	if mp == nil {
		return nil, nil
	}
	data, err := json.Marshal(mp)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode jurisdiction")
	}
	return data, nil
}
