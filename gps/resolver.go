package gps

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Fix sources.
const (
	SourceFix      = "fix"
	SourceFallback = "fallback"
)

// tailWindow bounds how far back resolution looks in the log.
const tailWindow = 200

// Fix is a resolved position.
type Fix struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp string  `json:"timestamp"`
	Source    string  `json:"source"`
}

// Resolver turns the latest usable log record into a position, falling back
// to a fixed coordinate when the log has none.
type Resolver struct {
	store       *Store
	wait        time.Duration
	fallbackLat float64
	fallbackLon float64
}

// NewResolver returns a Resolver over store. wait gives the collaborator a
// chance to deliver a fresh report before the log is read.
func NewResolver(store *Store, wait time.Duration, fallbackLat, fallbackLon float64) *Resolver {
	return &Resolver{
		store:       store,
		wait:        wait,
		fallbackLat: fallbackLat,
		fallbackLon: fallbackLon,
	}
}

// Resolve scans the most recent records newest-first for the first sentence
// that yields a usable position. A (0,0) position is a cold receiver, not a
// fix, and is skipped. Resolution never fails: with nothing usable the
// fallback coordinate is returned with Source set accordingly.
func (r *Resolver) Resolve(ctx context.Context) (Fix, error) {
	if r.wait > 0 {
		select {
		case <-time.After(r.wait):
		case <-ctx.Done():
			return Fix{}, ctx.Err()
		}
	}

	records, err := r.store.Tail(tailWindow)
	if err != nil {
		log.Warn().Err(err).Msg("could not read gps log")
	}
	for i := len(records) - 1; i >= 0; i-- {
		lat, lon, ok := ParseSentence(records[i].Sentence)
		if !ok || (lat == 0 && lon == 0) {
			continue
		}
		return Fix{
			Latitude:  lat,
			Longitude: lon,
			Timestamp: records[i].Timestamp,
			Source:    SourceFix,
		}, nil
	}

	log.Info().
		Float64("latitude", r.fallbackLat).
		Float64("longitude", r.fallbackLon).
		Msg("no usable gps record, using fallback coordinate")
	return Fix{
		Latitude:  r.fallbackLat,
		Longitude: r.fallbackLon,
		Timestamp: time.Now().Format(timestampLayout),
		Source:    SourceFallback,
	}, nil
}
