// Package observability holds process-wide counters sampled by the
// telemetry worker.
package observability

import "sync/atomic"

// GameStats aggregates orchestration counters. All methods are safe for
// concurrent use.
type GameStats struct {
	turnsPlayed        atomic.Int64
	generationsStarted atomic.Int64
	generationRetries  atomic.Int64
	generationFailures atomic.Int64
	commandsDropped    atomic.Int64
}

func (s *GameStats) TurnPlayed()        { s.turnsPlayed.Add(1) }
func (s *GameStats) GenerationStarted() { s.generationsStarted.Add(1) }
func (s *GameStats) GenerationRetried() { s.generationRetries.Add(1) }
func (s *GameStats) GenerationFailed()  { s.generationFailures.Add(1) }
func (s *GameStats) CommandDropped()    { s.commandsDropped.Add(1) }

// Snapshot returns a point-in-time copy of every counter.
func (s *GameStats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		TurnsPlayed:        s.turnsPlayed.Load(),
		GenerationsStarted: s.generationsStarted.Load(),
		GenerationRetries:  s.generationRetries.Load(),
		GenerationFailures: s.generationFailures.Load(),
		CommandsDropped:    s.commandsDropped.Load(),
	}
}

type StatsSnapshot struct {
	TurnsPlayed        int64
	GenerationsStarted int64
	GenerationRetries  int64
	GenerationFailures int64
	CommandsDropped    int64
}
