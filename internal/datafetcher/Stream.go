/*

This file is used to subscribe to the provider's live transfer stream.

The stream is a lower-latency complement to FetchTransferEvents: decoded
events are pushed to a buffered channel the engine drains between cycles.
The listener owns its connection and reconnects with linear backoff; losing
the stream never fails a decision cycle, it only removes the early signal.

*/

package datafetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tokenherd/engine/internal/logger"
	"github.com/tokenherd/engine/internal/types"
)

var streamLogger = logger.GetForComponent("event_stream")

var ErrStreamConfiguration = errors.New("stream configuration error")

const (
	streamBufferSize   = 256
	reconnectBaseDelay = 2 * time.Second
	reconnectMaxDelay  = 30 * time.Second
	readDeadline       = 90 * time.Second
)

// StreamListener maintains a websocket subscription to one mint's transfers.
type StreamListener struct {
	wsURL  string
	apiKey string
	mint   string
	events chan types.TransferEvent
}

// NewStreamListener builds a listener for mint. Call Run to start it.
func NewStreamListener(wsURL, apiKey, mint string) (*StreamListener, error) {
	if wsURL == "" {
		return nil, fmt.Errorf("%w: websocket URL cannot be empty", ErrStreamConfiguration)
	}
	if mint == "" {
		return nil, fmt.Errorf("%w: mint cannot be empty", ErrStreamConfiguration)
	}

	return &StreamListener{
		wsURL:  wsURL,
		apiKey: apiKey,
		mint:   mint,
		events: make(chan types.TransferEvent, streamBufferSize),
	}, nil
}

// Events returns the channel live transfers are delivered on. When the
// buffer is full the oldest unread event is dropped in favor of the new one.
func (l *StreamListener) Events() <-chan types.TransferEvent {
	return l.events
}

// Run connects and pumps events until ctx is cancelled, reconnecting on any
// connection loss. It always returns ctx.Err().
func (l *StreamListener) Run(ctx context.Context) error {
	delay := reconnectBaseDelay
	for {
		if err := l.connectAndRead(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			streamLogger.Warn().
				Err(err).
				Dur("reconnectIn", delay).
				Msg("Stream connection lost, will reconnect")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay += reconnectBaseDelay
		if delay > reconnectMaxDelay {
			delay = reconnectMaxDelay
		}
	}
}

func (l *StreamListener) connectAndRead(ctx context.Context) error {
	header := http.Header{}
	if l.apiKey != "" {
		header.Set("Authorization", "Bearer "+l.apiKey)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, l.wsURL, header)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	defer conn.Close()

	sub := map[string]string{"action": "subscribe", "mint": l.mint}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe failed: %w", err)
	}

	streamLogger.Info().
		Str("mint", l.mint).
		Msg("Stream connected and subscribed")

	// Close the socket when ctx ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
			return fmt.Errorf("set read deadline failed: %w", err)
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read failed: %w", err)
		}

		var pe providerEvent
		if err := json.Unmarshal(raw, &pe); err != nil {
			streamLogger.Warn().Err(err).Msg("Dropping undecodable stream message")
			continue
		}

		ev, err := convertProviderEvent(pe)
		if err != nil {
			streamLogger.Warn().
				Str("signature", pe.Signature).
				Err(err).
				Msg("Dropping invalid stream event")
			continue
		}

		l.deliver(ev)
	}
}

// deliver pushes ev without ever blocking the read loop.
func (l *StreamListener) deliver(ev types.TransferEvent) {
	for {
		select {
		case l.events <- ev:
			return
		default:
		}
		select {
		case <-l.events:
			streamLogger.Debug().Msg("Stream buffer full, dropping oldest event")
		default:
		}
	}
}
