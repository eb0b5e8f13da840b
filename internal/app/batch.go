package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"georecords/internal/domain"
)

type BatchService struct {
	src     domain.Source
	svc     *ValidationService
	metrics domain.Metrics
	workers int

	mu      sync.Mutex
	entropy *rand.Rand
}

func NewBatchService(src domain.Source, svc *ValidationService, m domain.Metrics, workers int) *BatchService {
	if workers <= 0 {
		workers = 1
	}
	return &BatchService{
		src:     src,
		svc:     svc,
		metrics: m,
		workers: workers,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *BatchService) newRunID(t time.Time) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), b.entropy).String()
}

// Run validates every named document with at most `workers` in flight.
// Entries keep the order of names. A read or decode failure marks only its
// own entry; the returned error is non-nil only when ctx ends the run early.
func (b *BatchService) Run(ctx context.Context, level domain.Level, names []string) (domain.BatchReport, error) {
	started := time.Now()
	rep := domain.BatchReport{
		RunID:   b.newRunID(started),
		Started: started.UTC(),
		Entries: make([]domain.Report, len(names)),
	}
	log.Info().Str("run_id", rep.RunID).Int("documents", len(names)).Int("workers", b.workers).Msg("batch starting")

	sem := semaphore.NewWeighted(int64(b.workers))
	var wg sync.WaitGroup
	var runErr error

	for i, name := range names {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			runErr = err
			for j := i; j < len(names); j++ {
				rep.Entries[j] = domain.Report{Source: names[j], Level: level.String(), Outcome: domain.OutcomeError, Error: err.Error()}
			}
			break
		}

		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			defer sem.Release(1)
			rep.Entries[i] = b.one(ctx, level, name)
		}(i, name)
	}
	wg.Wait()

	for _, e := range rep.Entries {
		switch e.Outcome {
		case domain.OutcomeOK:
			rep.OK++
		case domain.OutcomeInvalid:
			rep.Invalid++
		default:
			rep.Errored++
		}
		b.metrics.ObserveBatchEntry(e.Outcome)
	}
	rep.Finished = time.Now().UTC()

	log.Info().
		Str("run_id", rep.RunID).
		Int("ok", rep.OK).
		Int("invalid", rep.Invalid).
		Int("errored", rep.Errored).
		Dur("duration", rep.Finished.Sub(rep.Started)).
		Msg("batch completed")
	return rep, runErr
}

func (b *BatchService) one(ctx context.Context, level domain.Level, name string) domain.Report {
	body, err := b.src.Read(ctx, name)
	if err != nil {
		log.Warn().Str("source", name).Err(err).Msg("read failed")
		return domain.Report{Source: name, Level: level.String(), Outcome: domain.OutcomeError, Error: err.Error()}
	}
	// errors are already folded into the report
	rep, _ := b.svc.ValidateDocument(ctx, domain.Document{Name: name, Body: body}, level, false)
	return rep
}
