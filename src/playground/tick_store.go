package playground

import (
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/fxreplay/fxreplay/src/playground/models"
)

type tickFeed struct {
	instrument models.Instrument
	ticks      []*models.Tick
	cursor     int // index of the next unconsumed tick
}

// TickStore holds the per-symbol, time-ordered replay data. Each symbol keeps
// a consumption cursor so a tick is never fed to the engine twice; cursors
// are only reset when the clock is moved explicitly via SetLocalDate.
type TickStore struct {
	feeds       map[string]*tickFeed
	symbolOrder []string // registration order, used to break timestamp ties deterministically
}

func NewTickStore(instruments ...models.Instrument) (*TickStore, error) {
	store := &TickStore{
		feeds: make(map[string]*tickFeed),
	}

	for _, instrument := range instruments {
		if err := store.RegisterInstrument(instrument); err != nil {
			return nil, err
		}
	}

	return store, nil
}

func (s *TickStore) RegisterInstrument(instrument models.Instrument) error {
	if err := instrument.Validate(); err != nil {
		return err
	}

	if _, found := s.feeds[instrument.Symbol]; found {
		return fmt.Errorf("instrument %s already registered", instrument.Symbol)
	}

	s.feeds[instrument.Symbol] = &tickFeed{instrument: instrument}
	s.symbolOrder = append(s.symbolOrder, instrument.Symbol)
	return nil
}

func (s *TickStore) Instrument(symbol string) (models.Instrument, error) {
	feed, found := s.feeds[symbol]
	if !found {
		return models.Instrument{}, fmt.Errorf("%w: %s", models.ErrSymbolNotFound, symbol)
	}

	return feed.instrument, nil
}

func (s *TickStore) Instruments() []models.Instrument {
	out := make([]models.Instrument, 0, len(s.symbolOrder))
	for _, symbol := range s.symbolOrder {
		out = append(out, s.feeds[symbol].instrument)
	}

	return out
}

// RegisterTicks merges new ticks into the symbol's not-yet-consumed tail and
// re-sorts it by timestamp ascending. Ticks sharing a timestamp keep their
// merge order. Already-consumed ticks are never reordered or replayed.
func (s *TickStore) RegisterTicks(symbol string, ticks []*models.Tick) error {
	feed, found := s.feeds[symbol]
	if !found {
		return fmt.Errorf("%w: %s", models.ErrSymbolNotFound, symbol)
	}

	for _, tick := range ticks {
		if tick.Symbol != symbol {
			return fmt.Errorf("tick symbol %s does not match %s", tick.Symbol, symbol)
		}
	}

	tail := make([]*models.Tick, 0, len(feed.ticks)-feed.cursor+len(ticks))
	tail = append(tail, feed.ticks[feed.cursor:]...)
	tail = append(tail, ticks...)

	sort.SliceStable(tail, func(i, j int) bool {
		return tail[i].Timestamp.Before(tail[j].Timestamp)
	})

	feed.ticks = append(feed.ticks[:feed.cursor], tail...)
	return nil
}

// ConsumeUpTo advances every symbol's cursor over all unconsumed ticks with
// timestamp <= target and returns those with prev < timestamp, merged across
// symbols into one globally timestamp-ascending sequence. Ticks at or before
// prev are skipped (consumed without delivery) so a late registration can
// never push the engine backward in time.
func (s *TickStore) ConsumeUpTo(prev, target time.Time) []*models.Tick {
	var out []*models.Tick

	for _, symbol := range s.symbolOrder {
		feed := s.feeds[symbol]

		for feed.cursor < len(feed.ticks) {
			tick := feed.ticks[feed.cursor]
			if tick.Timestamp.After(target) {
				break
			}

			feed.cursor++

			if !tick.Timestamp.After(prev) {
				log.Debugf("ConsumeUpTo [%s]: skipping stale tick at %v", symbol, tick.Timestamp)
				continue
			}

			out = append(out, tick)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	return out
}

// ConsumeNext returns up to count next unconsumed ticks per symbol, in
// per-symbol order. Unlike ConsumeUpTo the result is deliberately not
// re-sorted across symbols.
func (s *TickStore) ConsumeNext(count int) []*models.Tick {
	var out []*models.Tick

	for _, symbol := range s.symbolOrder {
		feed := s.feeds[symbol]

		for taken := 0; taken < count && feed.cursor < len(feed.ticks); taken++ {
			out = append(out, feed.ticks[feed.cursor])
			feed.cursor++
		}
	}

	return out
}

// ResetCursors marks every tick as unconsumed again.
func (s *TickStore) ResetCursors() {
	for _, feed := range s.feeds {
		feed.cursor = 0
	}
}

// RemainingTicks reports how many registered ticks have not been consumed yet.
func (s *TickStore) RemainingTicks() int {
	total := 0
	for _, feed := range s.feeds {
		total += len(feed.ticks) - feed.cursor
	}

	return total
}
