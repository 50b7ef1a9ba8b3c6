package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deppfellow/calculator-api/internal/model"
	"github.com/deppfellow/calculator-api/internal/sqlerr"
)

const calculationsTable = "calculations"

const calculationColumns = `id, user_id, num1, num2, operation, operation_symbol, result, calculation, created_at`

// CalculationRepository stores successful calculations in Postgres.
type CalculationRepository struct {
	pool *pgxpool.Pool
}

// NewCalculationRepository builds a repository over an open pool.
func NewCalculationRepository(pool *pgxpool.Pool) *CalculationRepository {
	return &CalculationRepository{pool: pool}
}

func scanCalculation(row pgx.Row) (*model.Calculation, error) {
	var (
		c  model.Calculation
		id uuid.UUID
	)
	err := row.Scan(
		&id,
		&c.UserID,
		&c.Num1,
		&c.Num2,
		&c.Operation,
		&c.OperationSymbol,
		&c.Result,
		&c.Calculation,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.ID = id.String()
	return &c, nil
}

// Append inserts a record and returns it with its generated id and timestamp.
func (r *CalculationRepository) Append(ctx context.Context, c *model.Calculation) (*model.Calculation, error) {
	stmt := `
		INSERT INTO calculations (id, user_id, num1, num2, operation, operation_symbol, result, calculation)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + calculationColumns

	row := r.pool.QueryRow(ctx, stmt,
		uuid.New(),
		c.UserID,
		c.Num1,
		c.Num2,
		c.Operation,
		c.OperationSymbol,
		c.Result,
		c.Calculation,
	)

	stored, err := scanCalculation(row)
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}
	return stored, nil
}

// QueryByOwner lists an owner's calculations, newest first.
func (r *CalculationRepository) QueryByOwner(ctx context.Context, owner string, limit int) ([]model.Calculation, error) {
	stmt := `
		SELECT ` + calculationColumns + `
		FROM calculations
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, stmt, owner, limit)
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}
	defer rows.Close()

	calculations := make([]model.Calculation, 0, limit)
	for rows.Next() {
		c, err := scanCalculation(rows)
		if err != nil {
			return nil, sqlerr.HandleError(err)
		}
		calculations = append(calculations, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, sqlerr.HandleError(err)
	}

	return calculations, nil
}

// DeleteByID removes one of the owner's calculations.
// A missing or foreign record yields a 404 "Calculation not found".
func (r *CalculationRepository) DeleteByID(ctx context.Context, owner string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM calculations WHERE id = $1 AND user_id = $2`, id, owner)
	if err != nil {
		return sqlerr.HandleError(err)
	}
	if tag.RowsAffected() == 0 {
		return sqlerr.HandleError(fmt.Errorf("%s%s: %w", sqlerr.TablePrefix, calculationsTable, pgx.ErrNoRows))
	}
	return nil
}

// DeleteByOwner removes the owner's whole history and reports how many rows went.
func (r *CalculationRepository) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM calculations WHERE user_id = $1`, owner)
	if err != nil {
		return 0, sqlerr.HandleError(err)
	}
	return tag.RowsAffected(), nil
}

// StatsByOwner aggregates totals per operation plus the latest record.
func (r *CalculationRepository) StatsByOwner(ctx context.Context, owner string) (*model.CalculationStats, error) {
	stats := &model.CalculationStats{Operations: map[string]int64{}}

	rows, err := r.pool.Query(ctx, `
		SELECT operation, COUNT(*)
		FROM calculations
		WHERE user_id = $1
		GROUP BY operation`, owner)
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			operation string
			count     int64
		)
		if err := rows.Scan(&operation, &count); err != nil {
			return nil, sqlerr.HandleError(err)
		}
		stats.Operations[operation] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, sqlerr.HandleError(err)
	}

	if stats.Total == 0 {
		return stats, nil
	}

	last, err := scanCalculation(r.pool.QueryRow(ctx, `
		SELECT `+calculationColumns+`
		FROM calculations
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, owner))
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}
	stats.LastCalculation = last

	return stats, nil
}
