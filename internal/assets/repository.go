package assets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrAssetNotFound indicates a missing fixed asset.
var ErrAssetNotFound = errors.New("assets: fixed asset not found")

// Repository abstracts fixed asset persistence.
type Repository interface {
	List(ctx context.Context) ([]FixedAsset, error)
	Get(ctx context.Context, id uuid.UUID) (FixedAsset, error)
	Create(ctx context.Context, asset FixedAsset) (FixedAsset, error)
	// ApplyDepreciation adds the charge to accumulated depreciation and
	// advances the last depreciation date.
	ApplyDepreciation(ctx context.Context, id uuid.UUID, amount decimal.Decimal, chargedAt time.Time) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed asset register.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const assetColumns = `id, name, cost, useful_life_years, accumulated_depreciation,
acquisition_date, last_depreciation_date, created_at, updated_at`

func (r *repository) List(ctx context.Context) ([]FixedAsset, error) {
	rows, err := r.db.Query(ctx, `SELECT `+assetColumns+` FROM fixed_assets ORDER BY acquisition_date, name`)
	if err != nil {
		return nil, fmt.Errorf("assets: list: %w", err)
	}
	defer rows.Close()

	var result []FixedAsset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("assets: list: %w", err)
	}
	return result, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (FixedAsset, error) {
	row := r.db.QueryRow(ctx, `SELECT `+assetColumns+` FROM fixed_assets WHERE id=$1`, id)
	asset, err := scanAsset(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FixedAsset{}, ErrAssetNotFound
		}
		return FixedAsset{}, err
	}
	return asset, nil
}

func (r *repository) Create(ctx context.Context, asset FixedAsset) (FixedAsset, error) {
	if asset.ID == uuid.Nil {
		asset.ID = uuid.New()
	}
	row := r.db.QueryRow(ctx, `INSERT INTO fixed_assets
(id, name, cost, useful_life_years, accumulated_depreciation, acquisition_date, last_depreciation_date)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING `+assetColumns,
		asset.ID, asset.Name, asset.Cost, asset.UsefulLifeYears,
		asset.AccumulatedDepreciation, asset.AcquisitionDate, asset.LastDepreciationDate)
	created, err := scanAsset(row)
	if err != nil {
		return FixedAsset{}, fmt.Errorf("assets: create %q: %w", asset.Name, err)
	}
	return created, nil
}

func (r *repository) ApplyDepreciation(ctx context.Context, id uuid.UUID, amount decimal.Decimal, chargedAt time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE fixed_assets
SET accumulated_depreciation = accumulated_depreciation + $2,
    last_depreciation_date = $3,
    updated_at = now()
WHERE id=$1`, id, amount, chargedAt)
	if err != nil {
		return fmt.Errorf("assets: apply depreciation %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAssetNotFound
	}
	return nil
}

func scanAsset(row pgx.Row) (FixedAsset, error) {
	var asset FixedAsset
	err := row.Scan(
		&asset.ID,
		&asset.Name,
		&asset.Cost,
		&asset.UsefulLifeYears,
		&asset.AccumulatedDepreciation,
		&asset.AcquisitionDate,
		&asset.LastDepreciationDate,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	)
	if err != nil {
		return FixedAsset{}, err
	}
	return asset, nil
}
