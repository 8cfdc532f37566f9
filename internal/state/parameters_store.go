// ./internal/state/parameters_store.go
package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tokenherd/engine/internal/types"
)

// SaveStrategyParameters saves a new version of strategy parameters.
// The parameter block is stored as a single JSONB document so new fields never
// require a migration; the metadata columns carry versioning and activation.
func SaveStrategyParameters(params types.StrategyParameters, configName string, version int, makeActive bool) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal strategy parameters: %w", err)
	}

	tx, err := DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p) // Re-panic after rollback
		} else if err != nil {
			tx.Rollback() // Rollback if error occurred
		}
	}()

	if makeActive {
		stmtDeactivate := `UPDATE strategy_parameters SET is_active = FALSE WHERE config_name = $1 AND is_active = TRUE;`
		_, err = tx.Exec(stmtDeactivate, configName)
		if err != nil {
			return 0, fmt.Errorf("failed to deactivate existing active parameters for %s: %w", configName, err)
		}
	}

	stmt := `
        INSERT INTO strategy_parameters (
            version, config_name, is_active, activated_at, created_at, params
        ) VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING params_id;`

	var paramsID int64
	currentTime := time.Now()
	err = tx.QueryRow(
		stmt,
		version, configName, makeActive, currentTime, currentTime, paramsJSON,
	).Scan(&paramsID)

	if err != nil {
		return 0, fmt.Errorf("failed to insert strategy parameters: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info().
		Int("version", version).
		Str("config", configName).
		Int64("params_id", paramsID).
		Bool("active", makeActive).
		Msg("Saved strategy parameters")
	return paramsID, nil
}

// LoadActiveStrategyParameters loads the currently active strategy parameters.
func LoadActiveStrategyParameters(configName string) (*types.StrategyParameters, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
        SELECT params
        FROM strategy_parameters
        WHERE config_name = $1 AND is_active = TRUE
        ORDER BY activated_at DESC
        LIMIT 1;`

	var paramsJSON []byte
	row := DB.QueryRow(query, configName)
	err := row.Scan(&paramsJSON)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no active strategy parameters found for config '%s'", configName)
		}
		return nil, fmt.Errorf("failed to scan active strategy parameters for config '%s': %w", configName, err)
	}

	p := &types.StrategyParameters{}
	if err := json.Unmarshal(paramsJSON, p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal active strategy parameters for config '%s': %w", configName, err)
	}

	log.Info().Str("config", configName).Msg("Loaded active strategy parameters")
	return p, nil
}

// LoadLatestStrategyParameters loads the most recently activated strategy parameters for a given config name.
func LoadLatestStrategyParameters(configName string) (*types.StrategyParameters, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
        SELECT params
        FROM strategy_parameters
        WHERE config_name = $1
        ORDER BY activated_at DESC, created_at DESC
        LIMIT 1;`

	var paramsJSON []byte
	row := DB.QueryRow(query, configName)
	err := row.Scan(&paramsJSON)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no strategy parameters found for config '%s'", configName)
		}
		return nil, fmt.Errorf("failed to scan latest strategy parameters for config '%s': %w", configName, err)
	}

	p := &types.StrategyParameters{}
	if err := json.Unmarshal(paramsJSON, p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal latest strategy parameters for config '%s': %w", configName, err)
	}

	log.Info().Str("config", configName).Msg("Loaded latest strategy parameters (by activation/creation time)")
	return p, nil
}

// GetActiveStrategyParametersID returns the params_id of the currently active strategy parameters
func GetActiveStrategyParametersID(configName string) (*int64, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
        SELECT params_id
        FROM strategy_parameters
        WHERE config_name = $1 AND is_active = TRUE
        ORDER BY activated_at DESC
        LIMIT 1;`

	var paramsID int64
	row := DB.QueryRow(query, configName)
	err := row.Scan(&paramsID)

	if err != nil {
		if err == sql.ErrNoRows {
			// No active parameters found - this is valid, return nil
			log.Debug().Str("config", configName).Msg("No active strategy parameters found")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active strategy parameters ID for config '%s': %w", configName, err)
	}

	log.Debug().
		Str("config", configName).
		Int64("params_id", paramsID).
		Msg("Retrieved active strategy parameters ID")

	return &paramsID, nil
}
