/*

This file contains the live HTTP trader. It submits trades to the trade API and
treats everything past the HTTP boundary as opaque: quoting, routing, signing
details, and broadcast all belong to the service behind it.

*/

package trader

import (
	"bytes"
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

// Error definitions for zero-tolerance error handling
var (
	ErrInvalidTradeRequest = errors.New("invalid trade request")
	ErrTradeAPIUnavailable = errors.New("trade API unavailable")
	ErrTradeRejected       = errors.New("trade rejected by API")
)

var traderLogger = logger.GetForComponent("trader")

const (
	dispatchTimeout = 30 * time.Second
	dispatchPath    = "/v1/trades"
)

// LiveTrader submits trades over HTTP.
type LiveTrader struct {
	baseURL string
	client  *http.Client
}

// NewLiveTrader builds a trader against the given API base URL.
func NewLiveTrader(baseURL string) (*LiveTrader, error) {
	if baseURL == "" {
		return nil, errors.New("trade API base URL cannot be empty")
	}

	return &LiveTrader{
		baseURL: baseURL,
		client:  &http.Client{Timeout: dispatchTimeout},
	}, nil
}

// dispatchPayload is the wire shape of one trade submission.
type dispatchPayload struct {
	Mint       string `json:"mint"`
	Side       string `json:"side"`
	AmountBase string `json:"amount_base"` // Base units as a decimal string
	Wallet     string `json:"wallet"`
	SigningKey string `json:"signing_key"`
}

// dispatchResponse is the wire shape of the API's answer.
type dispatchResponse struct {
	Success   bool   `json:"success"`
	Signature string `json:"signature,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Dispatch submits one trade and returns the API's verdict. Network and
// decoding failures come back as errors; a clean rejection comes back as a
// TradeResult with Success=false.
func (t *LiveTrader) Dispatch(ctx context.Context, req types.TradeRequest, signingKey string) (types.TradeResult, error) {
	if err := validateTradeRequest(req, signingKey); err != nil {
		return types.TradeResult{}, errors.Join(ErrInvalidTradeRequest, err)
	}

	payload := dispatchPayload{
		Mint:       req.Mint,
		Side:       string(req.Side),
		AmountBase: req.AmountBase.String(),
		Wallet:     req.WalletAddress,
		SigningKey: signingKey,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return types.TradeResult{}, fmt.Errorf("failed to encode trade payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+dispatchPath, bytes.NewReader(body))
	if err != nil {
		return types.TradeResult{}, fmt.Errorf("failed to build trade request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	traderLogger.Debug().
		Str("mint", req.Mint).
		Str("side", string(req.Side)).
		Str("wallet", req.WalletAddress).
		Float64("amountTokens", req.AmountTokens).
		Msg("Submitting trade")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return types.TradeResult{}, errors.Join(ErrTradeAPIUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return types.TradeResult{}, fmt.Errorf("failed to read trade response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		traderLogger.Warn().
			Int("status", resp.StatusCode).
			Str("wallet", req.WalletAddress).
			Msg("Trade API returned non-OK status")
		return types.TradeResult{}, fmt.Errorf("%w: status %d: %s", ErrTradeRejected, resp.StatusCode, string(raw))
	}

	var decoded dispatchResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return types.TradeResult{}, fmt.Errorf("failed to decode trade response: %w", err)
	}

	result := types.TradeResult{
		Success:   decoded.Success,
		Signature: decoded.Signature,
		Error:     decoded.Error,
	}

	traderLogger.Info().
		Str("mint", req.Mint).
		Str("side", string(req.Side)).
		Str("wallet", req.WalletAddress).
		Bool("success", result.Success).
		Str("signature", result.Signature).
		Msg("Trade dispatched")

	return result, nil
}

func (t *LiveTrader) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

// validateTradeRequest checks the request before anything leaves the process.
func validateTradeRequest(req types.TradeRequest, signingKey string) error {
	if req.Mint == "" {
		return errors.New("mint cannot be empty")
	}
	if req.Side != types.TransferBuy && req.Side != types.TransferSell {
		return fmt.Errorf("unknown trade side %q", req.Side)
	}
	if req.WalletAddress == "" {
		return errors.New("wallet address cannot be empty")
	}
	if signingKey == "" {
		return errors.New("signing key cannot be empty")
	}
	if req.AmountBase.IsNil() || !req.AmountBase.IsPositive() {
		return errors.New("base amount must be positive")
	}
	return nil
}
