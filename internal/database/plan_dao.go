package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

// PlanDAO provides database access for travel plans. Plans are append-only:
// Save always inserts, never updates, and a newer plan supersedes an older
// one by its generated_at timestamp.
type PlanDAO struct {
	db *DB
}

// NewPlanDAO creates a new PlanDAO instance.
func NewPlanDAO(db *DB) *PlanDAO {
	return &PlanDAO{db: db}
}

// Save inserts a plan. Inserting an existing plan ID is a defect and fails.
func (dao *PlanDAO) Save(ctx context.Context, plan *types.Plan) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to marshal plan", err)
	}

	_, err = dao.db.ExecContext(ctx, `
		INSERT INTO travel_plans (id, destination, days, travelers, payload, generated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		plan.ID.String(),
		plan.Destination,
		plan.Days,
		plan.Travelers,
		string(payload),
		plan.GeneratedAt.UnixNano(),
	)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to insert plan", err)
	}
	return nil
}

// GetByID retrieves a plan by ID, nil when not found.
func (dao *PlanDAO) GetByID(ctx context.Context, id types.ID) (*types.Plan, error) {
	var payload string
	err := dao.db.QueryRowContext(ctx,
		`SELECT payload FROM travel_plans WHERE id = ?`, id.String()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to get plan", err)
	}
	return unmarshalPlan(payload)
}

// Latest returns the most recent plan for a destination, nil when none exists.
func (dao *PlanDAO) Latest(ctx context.Context, destination string) (*types.Plan, error) {
	var payload string
	err := dao.db.QueryRowContext(ctx, `
		SELECT payload FROM travel_plans
		WHERE destination = ?
		ORDER BY generated_at DESC LIMIT 1`, destination).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to get latest plan", err)
	}
	return unmarshalPlan(payload)
}

// ListByDestination returns up to limit plans for a destination, newest first.
func (dao *PlanDAO) ListByDestination(ctx context.Context, destination string, limit int) ([]*types.Plan, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := dao.db.QueryContext(ctx, `
		SELECT payload FROM travel_plans
		WHERE destination = ?
		ORDER BY generated_at DESC LIMIT ?`, destination, limit)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to list plans", err)
	}
	defer rows.Close()

	plans := make([]*types.Plan, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan plan", err)
		}
		plan, err := unmarshalPlan(payload)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "plan iteration failed", err)
	}
	return plans, nil
}

func unmarshalPlan(payload string) (*types.Plan, error) {
	var plan types.Plan
	if err := json.Unmarshal([]byte(payload), &plan); err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to unmarshal plan", err)
	}
	return &plan, nil
}
