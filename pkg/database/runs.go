package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"warranty-analytics/pkg/calculator"
	"warranty-analytics/pkg/models"
)

// RunStore keeps a history of computed cohort tables so past snapshots can be compared.
type RunStore struct {
	db     *DB
	logger *zap.Logger
}

func NewRunStore(db *DB, logger *zap.Logger) *RunStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunStore{db: db, logger: logger}
}

// EnsureSchema creates the run tables when missing.
func (s *RunStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS cohort_runs (
			id CHAR(36) PRIMARY KEY,
			product VARCHAR(64) NOT NULL,
			claim_type VARCHAR(16) NOT NULL,
			start_month CHAR(7) NOT NULL,
			end_month CHAR(7) NOT NULL,
			as_of TIMESTAMP NOT NULL,
			total_records INTEGER NOT NULL,
			valid_records INTEGER NOT NULL,
			excluded_records INTEGER NOT NULL,
			counted_claims INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("create cohort_runs: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS cohort_points (
			run_id CHAR(36) NOT NULL,
			cohort_month CHAR(7) NOT NULL,
			months_since INTEGER NOT NULL,
			claim_count INTEGER NOT NULL,
			purchase_volume INTEGER NOT NULL,
			survival_rate DOUBLE PRECISION NOT NULL,
			claim_rate DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, cohort_month, months_since),
			FOREIGN KEY (run_id) REFERENCES cohort_runs(id) ON DELETE CASCADE
		)`)
	if err != nil {
		return fmt.Errorf("create cohort_points: %w", err)
	}
	return nil
}

// SaveCohortRun stores one computed cohort table and returns its run id.
func (s *RunStore) SaveCohortRun(ctx context.Context, req models.CohortRequest, res calculator.CohortResult) (string, error) {
	runID := uuid.New()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}

	_, err = tx.ExecContext(ctx, s.db.Dialect.bind(`
		INSERT INTO cohort_runs (
			id, product, claim_type, start_month, end_month, as_of,
			total_records, valid_records, excluded_records, counted_claims
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		runID.String(),
		req.Product,
		string(req.ClaimType),
		req.StartMonth,
		req.EndMonth,
		req.Now.UTC(),
		res.Quality.Total,
		res.Quality.Valid,
		res.Quality.Excluded,
		res.Counted,
	)
	if err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("insert cohort run: %w", err)
	}

	insertPoint := s.db.Dialect.bind(`
		INSERT INTO cohort_points (
			run_id, cohort_month, months_since, claim_count, purchase_volume, survival_rate, claim_rate
		) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for _, p := range res.Points {
		_, err = tx.ExecContext(ctx, insertPoint,
			runID.String(),
			p.CohortMonth,
			p.MonthsSincePurchase,
			p.ClaimCount,
			p.PurchaseVolume,
			p.SurvivalRate,
			p.ClaimRate,
		)
		if err != nil {
			_ = tx.Rollback()
			return "", fmt.Errorf("insert cohort point %s+%d: %w", p.CohortMonth, p.MonthsSincePurchase, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	s.logger.Info("cohort run stored",
		zap.String("run_id", runID.String()),
		zap.Int("points", len(res.Points)))
	return runID.String(), nil
}
