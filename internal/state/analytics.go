package state

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tokenherd/engine/internal/types"
)

// EngineSummary represents high-level engine statistics
type EngineSummary struct {
	Mint            string  `json:"mint"`
	LatestScore     float64 `json:"latest_score"`
	LatestRiskLevel string  `json:"latest_risk_level"`
	LatestDirective string  `json:"latest_directive"`
	TotalCycles     int     `json:"total_cycles"`
	LastUpdated     string  `json:"last_updated"`
}

// DirectiveMetrics represents aggregated decision data across all cycles
type DirectiveMetrics struct {
	TotalCycles      int     `json:"total_cycles"`
	BuyCycles        int     `json:"buy_cycles"`
	SellCycles       int     `json:"sell_cycles"`
	HoldCycles       int     `json:"hold_cycles"`
	PauseCycles      int     `json:"pause_cycles"`
	ExitCycles       int     `json:"exit_cycles"`
	AvgScore         float64 `json:"avg_score"`
	AvgEventCount    float64 `json:"avg_event_count"`
	AvgDurationMs    float64 `json:"avg_duration_ms"`
}

// GetRecentCycles retrieves recent cycle snapshots with pagination
func GetRecentCycles(limit int) ([]types.CycleSnapshot, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	if limit <= 0 || limit > 100 {
		limit = 10 // Default limit
	}

	query := `
		SELECT
			snapshot_id, cycle_number, cycle_id, mint, snapshot_timestamp, strategy_params_id,
			survivability_score, score_components, signal_reports,
			risk_level, directive_action, directive_percentage, directive_reason,
			dispatch_outcomes, event_count, duration_ms
		FROM cycle_snapshots
		ORDER BY snapshot_timestamp DESC
		LIMIT $1
	`

	rows, err := DB.Query(query, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to query recent cycles")
		return nil, fmt.Errorf("failed to query recent cycles: %w", err)
	}
	defer rows.Close()

	var cycles []types.CycleSnapshot
	for rows.Next() {
		cycle, err := scanCycleRow(rows)
		if err != nil {
			log.Error().Err(err).Msg("Failed to scan cycle row")
			continue // Skip this row and continue with others
		}
		cycles = append(cycles, cycle)
	}

	if err := rows.Err(); err != nil {
		log.Error().Err(err).Msg("Error occurred during row iteration")
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	log.Info().Int("count", len(cycles)).Int("limit", limit).Msg("Retrieved recent cycles")
	return cycles, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanCycleRow reads one cycle_snapshots row, decoding the JSONB columns.
func scanCycleRow(row rowScanner) (types.CycleSnapshot, error) {
	var cycle types.CycleSnapshot
	var componentsJSON, reportsJSON, outcomesJSON []byte
	var riskLevel, directiveAction string
	var directiveReason sql.NullString

	err := row.Scan(
		&cycle.SnapshotID, &cycle.CycleNumber, &cycle.CycleID, &cycle.Mint, &cycle.Timestamp, &cycle.ParamsID,
		&cycle.Score, &componentsJSON, &reportsJSON,
		&riskLevel, &directiveAction, &cycle.Directive.Percentage, &directiveReason,
		&outcomesJSON, &cycle.EventCount, &cycle.DurationMs,
	)
	if err != nil {
		return types.CycleSnapshot{}, err
	}

	cycle.RiskLevel = types.RiskLevel(riskLevel)
	cycle.Directive.Action = types.DirectiveAction(directiveAction)
	if directiveReason.Valid {
		cycle.Directive.Reason = directiveReason.String
	}

	if len(componentsJSON) > 0 {
		if err := json.Unmarshal(componentsJSON, &cycle.Components); err != nil {
			return types.CycleSnapshot{}, fmt.Errorf("failed to unmarshal score components: %w", err)
		}
	}
	if len(reportsJSON) > 0 {
		if err := json.Unmarshal(reportsJSON, &cycle.Reports); err != nil {
			return types.CycleSnapshot{}, fmt.Errorf("failed to unmarshal signal reports: %w", err)
		}
	}
	if len(outcomesJSON) > 0 {
		if err := json.Unmarshal(outcomesJSON, &cycle.Outcomes); err != nil {
			return types.CycleSnapshot{}, fmt.Errorf("failed to unmarshal dispatch outcomes: %w", err)
		}
	}

	return cycle, nil
}

// GetCycleByID retrieves a specific cycle by its snapshot ID
func GetCycleByID(snapshotID int64) (*types.CycleSnapshot, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT
			snapshot_id, cycle_number, cycle_id, mint, snapshot_timestamp, strategy_params_id,
			survivability_score, score_components, signal_reports,
			risk_level, directive_action, directive_percentage, directive_reason,
			dispatch_outcomes, event_count, duration_ms
		FROM cycle_snapshots
		WHERE snapshot_id = $1
	`

	cycle, err := scanCycleRow(DB.QueryRow(query, snapshotID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("cycle with ID %d not found", snapshotID)
		}
		log.Error().Err(err).Int64("snapshot_id", snapshotID).Msg("Failed to query cycle by ID")
		return nil, fmt.Errorf("failed to query cycle by ID: %w", err)
	}

	log.Info().Int64("snapshot_id", snapshotID).Int("cycle_number", cycle.CycleNumber).Msg("Retrieved cycle by ID")
	return &cycle, nil
}

// GetEngineSummary retrieves high-level engine statistics
func GetEngineSummary() (*EngineSummary, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	summary := &EngineSummary{}

	// Latest score, risk level, and directive from the most recent cycle
	query := `
		SELECT
			mint,
			survivability_score,
			risk_level,
			directive_action,
			snapshot_timestamp
		FROM cycle_snapshots
		ORDER BY snapshot_timestamp DESC
		LIMIT 1
	`

	var lastUpdated sql.NullString
	err := DB.QueryRow(query).Scan(&summary.Mint, &summary.LatestScore, &summary.LatestRiskLevel, &summary.LatestDirective, &lastUpdated)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get latest cycle values: %w", err)
	}

	if lastUpdated.Valid {
		summary.LastUpdated = lastUpdated.String
	}

	// Get total cycle count
	err = DB.QueryRow("SELECT COUNT(*) FROM cycle_snapshots").Scan(&summary.TotalCycles)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get total cycle count")
	}

	log.Info().Float64("latestScore", summary.LatestScore).Int("totalCycles", summary.TotalCycles).Msg("Retrieved engine summary")
	return summary, nil
}

// GetDirectiveMetrics retrieves aggregated decision metrics
func GetDirectiveMetrics() (*DirectiveMetrics, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	metrics := &DirectiveMetrics{}

	query := `
		SELECT
			COUNT(*) as total_cycles,
			COUNT(CASE WHEN directive_action = 'BUY' THEN 1 END) as buy_cycles,
			COUNT(CASE WHEN directive_action = 'SELL' THEN 1 END) as sell_cycles,
			COUNT(CASE WHEN directive_action = 'HOLD' THEN 1 END) as hold_cycles,
			COUNT(CASE WHEN directive_action = 'PAUSE' THEN 1 END) as pause_cycles,
			COUNT(CASE WHEN directive_action = 'EXIT' THEN 1 END) as exit_cycles,
			COALESCE(AVG(survivability_score), 0) as avg_score,
			COALESCE(AVG(event_count), 0) as avg_event_count,
			COALESCE(AVG(duration_ms), 0) as avg_duration_ms
		FROM cycle_snapshots
	`

	err := DB.QueryRow(query).Scan(
		&metrics.TotalCycles,
		&metrics.BuyCycles,
		&metrics.SellCycles,
		&metrics.HoldCycles,
		&metrics.PauseCycles,
		&metrics.ExitCycles,
		&metrics.AvgScore,
		&metrics.AvgEventCount,
		&metrics.AvgDurationMs,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get directive metrics: %w", err)
	}

	log.Info().
		Int("totalCycles", metrics.TotalCycles).
		Float64("avgScore", metrics.AvgScore).
		Msg("Retrieved directive metrics")

	return metrics, nil
}
