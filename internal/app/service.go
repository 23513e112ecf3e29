// Package service drives one synchronization run: it reads the whole catalog
// from the source, then upserts every homeworld and the characters born there
// into the destination.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/okian/starsync/internal/domain/model"
	"github.com/okian/starsync/pkg/logger"
	"github.com/okian/starsync/pkg/metrics"
)

// Source is the part of the catalog client the driver needs.
type Source interface {
	ListCharacters(ctx context.Context) ([]model.Character, error)
	ListHomeworlds(ctx context.Context) (*model.Homeworlds, error)
	FetchPortrait(ctx context.Context, characterID string) ([]byte, bool)
}

// Destination is the part of the repository client the driver needs.
type Destination interface {
	FindPlanet(ctx context.Context, name string) (int64, bool, error)
	FindCharacter(ctx context.Context, name string) (int64, bool, error)
	CreatePlanet(ctx context.Context, p model.Planet) (int64, error)
	CreateCharacter(ctx context.Context, ch model.Character, portrait []byte, planetID int64) (int64, error)
}

// Service runs synchronization passes from a Source into a Destination.
type Service struct {
	src Source
	dst Destination

	runID string
	now   func() time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(s *Service) {
		if id != "" {
			s.runID = id
		}
	}
}

// WithClock sets the time source used for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service. Every log line it writes carries the run ID.
func New(src Source, dst Destination, opts ...Option) *Service {
	s := &Service{
		src:   src,
		dst:   dst,
		runID: uuid.NewString(),
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("sync")
	}
	s.logger = s.logger.With(logger.String("run_id", s.runID))

	return s
}

// RunID returns the identifier attached to this service's logs and reports.
func (s *Service) RunID() string { return s.runID }

// Run performs one full pass. Source errors and context cancellation abort the
// run and are returned; destination failures are recorded in the report and
// the pass continues.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	report := newReport(s.runID, s.now())
	s.logger.Info(ctx, "sync started")

	characters, err := s.src.ListCharacters(ctx)
	if err != nil {
		s.logger.Error(ctx, "failed to list characters", logger.Error(err))
		return nil, err
	}

	homeworlds, err := s.src.ListHomeworlds(ctx)
	if err != nil {
		s.logger.Error(ctx, "failed to list homeworlds", logger.Error(err))
		return nil, err
	}

	s.logger.Info(ctx, "catalog fetched",
		logger.Int("characters", len(characters)),
		logger.Int("homeworlds", homeworlds.Len()),
	)

	residents := make(map[string][]model.Character, homeworlds.Len())
	for _, ch := range characters {
		residents[ch.HomeworldID] = append(residents[ch.HomeworldID], ch)
	}

	for _, planet := range homeworlds.All() {
		if err := ctx.Err(); err != nil {
			return s.abort(ctx, report, err)
		}

		planetOutcome := s.upsertPlanet(ctx, planet)
		s.record(report, planetOutcome)

		for _, ch := range residents[planet.ID] {
			if !planetOutcome.OK() {
				s.skip(ctx, report, ch, ErrPlanetUnavailable)
				continue
			}
			if err := ctx.Err(); err != nil {
				return s.abort(ctx, report, err)
			}
			s.record(report, s.upsertCharacter(ctx, ch, planetOutcome.DestinationID))
		}
	}

	for _, ch := range characters {
		if _, ok := homeworlds.Get(ch.HomeworldID); !ok {
			s.skip(ctx, report, ch, ErrHomeworldMissing)
		}
	}

	report.FinishedAt = s.now()
	s.logger.Info(ctx, "sync finished", report.fields()...)
	return report, nil
}

func (s *Service) upsertPlanet(ctx context.Context, p model.Planet) model.Outcome {
	out := model.Outcome{Entity: model.EntityPlanet, Name: p.Name, RemoteID: p.ID}

	id, found, err := s.dst.FindPlanet(ctx, p.Name)
	if err != nil {
		return s.failed(ctx, out, err)
	}
	if found {
		s.logger.Info(ctx, "planet exists",
			logger.String("planet", p.Name),
			logger.Int64("destinationID", id),
		)
		out.Kind, out.DestinationID = model.KindExisting, id
		return out
	}

	id, err = s.dst.CreatePlanet(ctx, p.Normalized())
	if err != nil {
		return s.failed(ctx, out, err)
	}

	s.logger.Info(ctx, "planet created",
		logger.String("planet", p.Name),
		logger.Int64("destinationID", id),
	)
	out.Kind, out.DestinationID = model.KindCreated, id
	return out
}

func (s *Service) upsertCharacter(ctx context.Context, ch model.Character, planetID int64) model.Outcome {
	out := model.Outcome{Entity: model.EntityCharacter, Name: ch.Name, RemoteID: ch.ID}

	id, found, err := s.dst.FindCharacter(ctx, ch.Name)
	if err != nil {
		return s.failed(ctx, out, err)
	}
	if found {
		s.logger.Info(ctx, "character exists",
			logger.String("character", ch.Name),
			logger.Int64("destinationID", id),
		)
		out.Kind, out.DestinationID = model.KindExisting, id
		return out
	}

	portrait, ok := s.src.FetchPortrait(ctx, ch.ID)
	if !ok {
		metrics.RecordPortraitMissing()
	}

	id, err = s.dst.CreateCharacter(ctx, ch, portrait, planetID)
	if err != nil {
		return s.failed(ctx, out, err)
	}

	s.logger.Info(ctx, "character created",
		logger.String("character", ch.Name),
		logger.Int64("destinationID", id),
		logger.Int64("planetID", planetID),
		logger.Any("portrait", ok),
	)
	out.Kind, out.DestinationID = model.KindCreated, id
	return out
}

func (s *Service) failed(ctx context.Context, out model.Outcome, err error) model.Outcome {
	s.logger.Error(ctx, "upsert failed",
		logger.String("entity", string(out.Entity)),
		logger.String("name", out.Name),
		logger.Error(err),
	)
	out.Kind, out.Err = model.KindFailed, err
	return out
}

func (s *Service) skip(ctx context.Context, report *Report, ch model.Character, reason error) {
	s.logger.Warn(ctx, "character skipped",
		logger.String("character", ch.Name),
		logger.String("homeworldID", ch.HomeworldID),
		logger.Error(reason),
	)
	s.record(report, model.Outcome{
		Kind:     model.KindSkipped,
		Entity:   model.EntityCharacter,
		Name:     ch.Name,
		RemoteID: ch.ID,
		Err:      reason,
	})
}

func (s *Service) record(report *Report, out model.Outcome) {
	report.add(out)
	metrics.RecordEntity(string(out.Entity), string(out.Kind))
}

func (s *Service) abort(ctx context.Context, report *Report, err error) (*Report, error) {
	report.FinishedAt = s.now()
	s.logger.Warn(ctx, "sync interrupted", append(report.fields(), logger.Error(err))...)
	return report, err
}
