// ./internal/state/snapshot_store.go
package state

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tokenherd/engine/internal/types"
)

// SaveCycleSnapshot saves a complete decision cycle snapshot to the database.
func SaveCycleSnapshot(snapshot types.CycleSnapshot) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	// Marshal all JSONB fields
	componentsJSON, err := json.Marshal(snapshot.Components)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal score_components: %w", err)
	}

	reportsJSON, err := json.Marshal(snapshot.Reports)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal signal_reports: %w", err)
	}

	outcomesJSON, err := json.Marshal(snapshot.Outcomes)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal dispatch_outcomes: %w", err)
	}

	query := `
		INSERT INTO cycle_snapshots (
			cycle_number, cycle_id, mint, snapshot_timestamp, strategy_params_id,
			survivability_score, score_components, signal_reports,
			risk_level, directive_action, directive_percentage, directive_reason,
			dispatch_outcomes, event_count, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING snapshot_id;
	`

	var snapshotID int64
	err = DB.QueryRow(
		query,
		snapshot.CycleNumber, snapshot.CycleID, snapshot.Mint, snapshot.Timestamp, snapshot.ParamsID,
		snapshot.Score, componentsJSON, reportsJSON,
		string(snapshot.RiskLevel), string(snapshot.Directive.Action), snapshot.Directive.Percentage, snapshot.Directive.Reason,
		outcomesJSON, snapshot.EventCount, snapshot.DurationMs,
	).Scan(&snapshotID)

	if err != nil {
		return 0, fmt.Errorf("failed to save cycle snapshot: %w", err)
	}

	log.Info().
		Int64("snapshot_id", snapshotID).
		Int("cycle_number", snapshot.CycleNumber).
		Float64("score", snapshot.Score).
		Str("directive", string(snapshot.Directive.Action)).
		Msg("Cycle snapshot saved to database")

	return snapshotID, nil
}
