package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/NgocTanHoang/TRAVEL-PLANNER/internal/types"
)

// AnalyticsDAO provides database access for analytics results.
type AnalyticsDAO struct {
	db *DB
}

// NewAnalyticsDAO creates a new AnalyticsDAO instance.
func NewAnalyticsDAO(db *DB) *AnalyticsDAO {
	return &AnalyticsDAO{db: db}
}

// Save inserts an analytics result. The referenced plan must already exist;
// the foreign key rejects orphaned rows.
func (dao *AnalyticsDAO) Save(ctx context.Context, result *types.AnalyticsResult) error {
	insights, err := json.Marshal(result.Insights)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to marshal insights", err)
	}

	_, err = dao.db.ExecContext(ctx, `
		INSERT INTO analytics_results (
			id, plan_id, diversity_score, budget_utilization,
			places_analyzed, insights, generated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.ID.String(),
		result.PlanID.String(),
		result.DiversityScore,
		result.BudgetUtilization,
		result.PlacesAnalyzed,
		string(insights),
		result.GeneratedAt.UnixNano(),
	)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to insert analytics result", err)
	}
	return nil
}

// GetByPlanID retrieves the analytics result for a plan, nil when none exists.
func (dao *AnalyticsDAO) GetByPlanID(ctx context.Context, planID types.ID) (*types.AnalyticsResult, error) {
	var result types.AnalyticsResult
	var id, plan, insights string
	var generatedAt int64

	err := dao.db.QueryRowContext(ctx, `
		SELECT id, plan_id, diversity_score, budget_utilization,
		       places_analyzed, insights, generated_at
		FROM analytics_results WHERE plan_id = ?
		ORDER BY generated_at DESC LIMIT 1`, planID.String()).Scan(
		&id, &plan,
		&result.DiversityScore, &result.BudgetUtilization,
		&result.PlacesAnalyzed, &insights, &generatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to get analytics result", err)
	}

	result.ID = types.ID(id)
	result.PlanID = types.ID(plan)
	result.GeneratedAt = time.Unix(0, generatedAt)
	if insights != "" {
		if err := json.Unmarshal([]byte(insights), &result.Insights); err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to unmarshal insights", err)
		}
	}
	return &result, nil
}
