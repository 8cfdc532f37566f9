/*

This file merges the live transfer stream into the polled event window.

The decision loop consumes one TransferSource. MergedSource decorates the
HTTP fetcher with a StreamListener: buffered stream events are drained on
every fetch, deduplicated against the polled window by chain signature, and
returned in timestamp order. When the poll fails but the stream delivered
events since the last cycle, those events stand in for the window so a
provider REST outage does not blank an otherwise live token.

*/

package datafetcher

import (
	"context"
	"errors"
	"sort"

	"github.com/tokenherd/engine/internal/logger"
	"github.com/tokenherd/engine/internal/types"
)

var mergedLogger = logger.GetForComponent("event_merger")

// Error definitions for zero-tolerance error handling
var ErrMergedSourceConfiguration = errors.New("merged source configuration error")

// TransferSource supplies a window of transfer events for one mint.
type TransferSource interface {
	FetchTransferEvents(ctx context.Context, mint string) ([]types.TransferEvent, error)
}

// MergedSource combines a polling TransferSource with a live stream.
type MergedSource struct {
	base   TransferSource
	stream *StreamListener
}

// NewMergedSource decorates base with stream. The caller is responsible for
// running the stream (see StreamListener.Run).
func NewMergedSource(base TransferSource, stream *StreamListener) (*MergedSource, error) {
	if base == nil {
		return nil, errors.New("merged source requires a base transfer source")
	}
	if stream == nil {
		return nil, ErrMergedSourceConfiguration
	}

	return &MergedSource{base: base, stream: stream}, nil
}

// FetchTransferEvents returns the polled window merged with every stream
// event buffered since the previous call, deduplicated by signature and
// sorted by timestamp. A poll failure is only fatal when the stream buffer
// is also empty.
func (m *MergedSource) FetchTransferEvents(ctx context.Context, mint string) ([]types.TransferEvent, error) {
	streamed := m.drainStream()

	polled, err := m.base.FetchTransferEvents(ctx, mint)
	if err != nil {
		if len(streamed) == 0 {
			return nil, err
		}
		mergedLogger.Warn().
			Err(err).
			Int("streamedEvents", len(streamed)).
			Msg("Poll failed, continuing on streamed events alone")
		return sortByTimestamp(streamed), nil
	}

	merged := mergeBySignature(polled, streamed)
	if added := len(merged) - len(polled); added > 0 {
		mergedLogger.Debug().
			Int("polledEvents", len(polled)).
			Int("streamAdded", added).
			Msg("Merged stream events into polled window")
	}

	return sortByTimestamp(merged), nil
}

// drainStream takes every buffered event without blocking.
func (m *MergedSource) drainStream() []types.TransferEvent {
	var drained []types.TransferEvent
	for {
		select {
		case ev := <-m.stream.Events():
			drained = append(drained, ev)
		default:
			return drained
		}
	}
}

// mergeBySignature appends streamed events that the polled window does not
// already carry. Events with an empty signature cannot be matched and are
// always kept.
func mergeBySignature(polled, streamed []types.TransferEvent) []types.TransferEvent {
	seen := make(map[string]bool, len(polled))
	for _, ev := range polled {
		if ev.Signature != "" {
			seen[ev.Signature] = true
		}
	}

	merged := polled
	for _, ev := range streamed {
		if ev.Signature != "" && seen[ev.Signature] {
			continue
		}
		merged = append(merged, ev)
	}

	return merged
}

func sortByTimestamp(events []types.TransferEvent) []types.TransferEvent {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events
}
