package service

import (
	"time"

	"github.com/okian/starsync/internal/domain/model"
	"github.com/okian/starsync/pkg/logger"
)

// Report summarizes one run.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []model.Outcome

	counts map[model.Entity]map[model.Kind]int
}

func newReport(runID string, started time.Time) *Report {
	return &Report{
		RunID:     runID,
		StartedAt: started,
		counts: map[model.Entity]map[model.Kind]int{
			model.EntityPlanet:    {},
			model.EntityCharacter: {},
		},
	}
}

func (r *Report) add(o model.Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	if r.counts[o.Entity] == nil {
		r.counts[o.Entity] = map[model.Kind]int{}
	}
	r.counts[o.Entity][o.Kind]++
}

// Count returns how many outcomes of kind were recorded for entity.
func (r *Report) Count(entity model.Entity, kind model.Kind) int {
	return r.counts[entity][kind]
}

// Failed returns the number of failed upserts across all entities.
func (r *Report) Failed() int {
	return r.Count(model.EntityPlanet, model.KindFailed) + r.Count(model.EntityCharacter, model.KindFailed)
}

// Duration is zero until the run finishes.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Stats returns the counters keyed "<entity>_<kind>".
func (r *Report) Stats() map[string]int {
	stats := make(map[string]int)
	for entity, kinds := range r.counts {
		for _, kind := range []model.Kind{model.KindCreated, model.KindExisting, model.KindFailed, model.KindSkipped} {
			stats[string(entity)+"_"+string(kind)] = kinds[kind]
		}
	}
	return stats
}

func (r *Report) fields() []logger.Field {
	return []logger.Field{
		logger.Int("planetsCreated", r.Count(model.EntityPlanet, model.KindCreated)),
		logger.Int("planetsExisting", r.Count(model.EntityPlanet, model.KindExisting)),
		logger.Int("planetsFailed", r.Count(model.EntityPlanet, model.KindFailed)),
		logger.Int("charactersCreated", r.Count(model.EntityCharacter, model.KindCreated)),
		logger.Int("charactersExisting", r.Count(model.EntityCharacter, model.KindExisting)),
		logger.Int("charactersFailed", r.Count(model.EntityCharacter, model.KindFailed)),
		logger.Int("charactersSkipped", r.Count(model.EntityCharacter, model.KindSkipped)),
		logger.Any("duration", r.Duration().String()),
	}
}
