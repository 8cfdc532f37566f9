/*

This file manages the persistent decision-cycle counter.

Every decision cycle gets a monotonically increasing number that survives
engine restarts, so snapshots from different runs of the process stay in one
sequence. The single-row table backing it is created by EnsureSchema.

*/

package state

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

// GetCurrentCycleNumber reads the last assigned decision-cycle number.
func GetCurrentCycleNumber() (int, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	var currentCycle int
	err := DB.QueryRow(`SELECT current_cycle FROM cycle_counter WHERE id = 1;`).Scan(&currentCycle)
	if err != nil {
		if err == sql.ErrNoRows {
			// EnsureSchema seeds the row; a missing row means it never ran.
			log.Warn().Msg("Cycle counter row missing, treating as cycle 0")
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read cycle counter: %w", err)
	}

	return currentCycle, nil
}

// IncrementCycleNumber advances the counter and returns the number the next
// decision cycle should carry.
func IncrementCycleNumber() (int, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	updateQuery := `
		UPDATE cycle_counter
		SET current_cycle = current_cycle + 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
		RETURNING current_cycle;`

	var newCycle int
	if err := DB.QueryRow(updateQuery).Scan(&newCycle); err != nil {
		return 0, fmt.Errorf("failed to advance cycle counter: %w", err)
	}

	log.Debug().Int("cycleNumber", newCycle).Msg("Assigned decision cycle number")
	return newCycle, nil
}

// ResetCycleNumber rewinds or fast-forwards the counter. Maintenance use
// only; snapshot numbering restarts from the given value.
func ResetCycleNumber(cycleNumber int) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	if cycleNumber < 0 {
		return fmt.Errorf("cycle number cannot be negative: %d", cycleNumber)
	}

	updateQuery := `
		UPDATE cycle_counter
		SET current_cycle = $1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1;`

	result, err := DB.Exec(updateQuery, cycleNumber)
	if err != nil {
		return fmt.Errorf("failed to reset cycle counter to %d: %w", cycleNumber, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("cycle counter row missing, run schema setup first")
	}

	log.Warn().Int("cycleNumber", cycleNumber).Msg("Decision cycle counter reset")
	return nil
}
