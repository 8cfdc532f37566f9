/*

This file is used to fetch behavioral transfer events from the data provider.

Events are the sole input of a decision cycle, so every record is validated
before it reaches the analyzers; one corrupt amount silently skewing a score
is worse than a cycle running on fewer events.

*/

package datafetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tokenherd/engine/internal/logger"
	"github.com/tokenherd/engine/internal/types"
)

var eventsLogger = logger.GetForComponent("event_retriever")

var ErrInvalidEventData = errors.New("invalid event data received")
var ErrProviderConfiguration = errors.New("provider configuration error")
var ErrProviderUnavailable = errors.New("data provider unavailable")

const (
	maxRetries     = 3
	requestTimeout = 30 * time.Second
	maxBodyBytes   = 8 << 20
)

// EventFetcher pulls a token's recent transfer events over HTTP.
type EventFetcher struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewEventFetcher builds a fetcher against the provider's REST API.
func NewEventFetcher(baseURL, apiKey string) (*EventFetcher, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base URL cannot be empty", ErrProviderConfiguration)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key cannot be empty", ErrProviderConfiguration)
	}

	return &EventFetcher{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: requestTimeout},
	}, nil
}

// providerEvent is the provider's wire shape for one transfer.
type providerEvent struct {
	Wallet             string  `json:"wallet"`
	Counterparty       string  `json:"counterparty"`
	Amount             float64 `json:"amount"`
	Timestamp          int64   `json:"timestamp"` // Unix seconds
	Type               string  `json:"type"`
	PriceChangePercent float64 `json:"price_change_percent"`
	IsFreshWallet      bool    `json:"is_fresh_wallet"`
	IsKnownBurner      bool    `json:"is_known_burner"`
	Signature          string  `json:"signature"`
}

type providerResponse struct {
	Events []providerEvent `json:"events"`
}

// FetchTransferEvents returns the provider's current event window for mint.
// An empty slice is a legitimate answer: a quiet token has no events, and the
// caller degrades to a neutral HOLD cycle.
func (f *EventFetcher) FetchTransferEvents(ctx context.Context, mint string) ([]types.TransferEvent, error) {
	if mint == "" {
		return nil, fmt.Errorf("%w: mint cannot be empty", ErrProviderConfiguration)
	}

	url := fmt.Sprintf("%s/v1/tokens/%s/transfers", f.baseURL, mint)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		events, err := f.fetchOnce(ctx, url, mint)
		if err == nil {
			return events, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		eventsLogger.Warn().
			Int("attempt", attempt).
			Int("maxRetries", maxRetries).
			Err(err).
			Msg("Transfer event fetch failed, retrying")

		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}

	return nil, errors.Join(ErrProviderUnavailable, lastErr)
}

func (f *EventFetcher) fetchOnce(ctx context.Context, url, mint string) ([]types.TransferEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+f.apiKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(body))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var decoded providerResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	events := make([]types.TransferEvent, 0, len(decoded.Events))
	dropped := 0
	for _, pe := range decoded.Events {
		ev, err := convertProviderEvent(pe)
		if err != nil {
			// Drop the corrupt record, keep the cycle alive on the rest.
			dropped++
			eventsLogger.Warn().
				Str("signature", pe.Signature).
				Err(err).
				Msg("Dropping invalid transfer event")
			continue
		}
		events = append(events, ev)
	}

	eventsLogger.Info().
		Str("mint", mint).
		Int("eventCount", len(events)).
		Int("dropped", dropped).
		Msg("Transfer events fetched")

	return events, nil
}

// convertProviderEvent validates one wire record and maps it to the internal
// event type.
func convertProviderEvent(pe providerEvent) (types.TransferEvent, error) {
	if pe.Wallet == "" {
		return types.TransferEvent{}, fmt.Errorf("%w: empty wallet", ErrInvalidEventData)
	}
	if pe.Amount <= 0 {
		return types.TransferEvent{}, fmt.Errorf("%w: amount must be positive, got %f", ErrInvalidEventData, pe.Amount)
	}
	if pe.Timestamp <= 0 {
		return types.TransferEvent{}, fmt.Errorf("%w: invalid timestamp %d", ErrInvalidEventData, pe.Timestamp)
	}

	var evType types.TransferType
	switch pe.Type {
	case string(types.TransferBuy):
		evType = types.TransferBuy
	case string(types.TransferSell):
		evType = types.TransferSell
	default:
		return types.TransferEvent{}, fmt.Errorf("%w: unknown type %q", ErrInvalidEventData, pe.Type)
	}

	return types.TransferEvent{
		Wallet:             pe.Wallet,
		Counterparty:       pe.Counterparty,
		Amount:             pe.Amount,
		Timestamp:          time.Unix(pe.Timestamp, 0).UTC(),
		Type:               evType,
		PriceChangePercent: pe.PriceChangePercent,
		IsFreshWallet:      pe.IsFreshWallet,
		IsKnownBurner:      pe.IsKnownBurner,
		Signature:          pe.Signature,
	}, nil
}
