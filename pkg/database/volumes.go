package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"warranty-analytics/pkg/models"
)

const DefaultVolumeTable = "purchase_volumes"

// VolumeStore persists the manually entered monthly purchase volumes, one row per (month, product).
type VolumeStore struct {
	db     *DB
	table  string
	logger *zap.Logger
}

// NewVolumeStore binds a store to table.
func NewVolumeStore(db *DB, table string, logger *zap.Logger) (*VolumeStore, error) {
	if err := checkIdent(table); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VolumeStore{db: db, table: table, logger: logger}, nil
}

func (s *VolumeStore) createSQL() string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			month_key CHAR(7) NOT NULL,
			product VARCHAR(64) NOT NULL,
			purchase_count INTEGER NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (month_key, product)
		)`, s.table)
}

func (s *VolumeStore) upsertSQL() string {
	if s.db.Dialect == Postgres {
		return fmt.Sprintf(`
		INSERT INTO %s (month_key, product, purchase_count) VALUES ($1, $2, $3)
		ON CONFLICT (month_key, product)
		DO UPDATE SET purchase_count = EXCLUDED.purchase_count, updated_at = CURRENT_TIMESTAMP`, s.table)
	}
	return fmt.Sprintf(`
		INSERT INTO %s (month_key, product, purchase_count) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE purchase_count = VALUES(purchase_count), updated_at = CURRENT_TIMESTAMP`, s.table)
}

// EnsureSchema creates the volume table when missing.
func (s *VolumeStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.createSQL()); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	return nil
}

// UpsertVolume validates v and writes it, replacing any count stored for the same month and product.
func (s *VolumeStore) UpsertVolume(ctx context.Context, v models.PurchaseVolume) error {
	if err := v.Validate(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.upsertSQL(), v.YearMonth, v.Product, v.PurchaseCount); err != nil {
		return fmt.Errorf("upsert %s/%s: %w", v.YearMonth, v.Product, err)
	}
	s.logger.Debug("purchase volume saved",
		zap.String("month", v.YearMonth),
		zap.String("product", v.Product),
		zap.Int("count", v.PurchaseCount))
	return nil
}

// ImportVolumes validates every entry first, then writes them all in one transaction.
func (s *VolumeStore) ImportVolumes(ctx context.Context, volumes []models.PurchaseVolume) error {
	for _, v := range volumes {
		if err := v.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	q := s.upsertSQL()
	for _, v := range volumes {
		if _, err := tx.ExecContext(ctx, q, v.YearMonth, v.Product, v.PurchaseCount); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("import %s/%s: %w", v.YearMonth, v.Product, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Info("purchase volumes imported", zap.Int("rows", len(volumes)))
	return nil
}

// ListVolumes returns every stored volume ordered by month then product.
func (s *VolumeStore) ListVolumes(ctx context.Context) ([]models.PurchaseVolume, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT month_key, product, purchase_count FROM %s ORDER BY month_key, product`, s.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PurchaseVolume
	for rows.Next() {
		var v models.PurchaseVolume
		if err := rows.Scan(&v.YearMonth, &v.Product, &v.PurchaseCount); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteVolume removes the entry for one month and product. Deleting a missing entry is not an error.
func (s *VolumeStore) DeleteVolume(ctx context.Context, yearMonth, product string) error {
	q := s.db.Dialect.bind(fmt.Sprintf(`DELETE FROM %s WHERE month_key = ? AND product = ?`, s.table))
	if _, err := s.db.ExecContext(ctx, q, yearMonth, product); err != nil {
		return fmt.Errorf("delete %s/%s: %w", yearMonth, product, err)
	}
	return nil
}
