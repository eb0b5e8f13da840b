package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"georecords/internal/domain"
	"georecords/internal/schema"
)

type ValidationService struct {
	validator *schema.Validator
	decoder   domain.Decoder
	metrics   domain.Metrics
}

func NewValidationService(v *schema.Validator, d domain.Decoder, m domain.Metrics) *ValidationService {
	return &ValidationService{validator: v, decoder: d, metrics: m}
}

// ValidateDocument decodes doc and validates it at level. A top-level array is
// validated as a list of records; list forces that even for other shapes.
//
// Schema mismatches are not errors here: they come back in Report.Mismatch with
// Outcome "invalid". The error return is reserved for decode failures,
// cancellation and unknown levels.
func (s *ValidationService) ValidateDocument(ctx context.Context, doc domain.Document, level domain.Level, list bool) (domain.Report, error) {
	rep := domain.Report{Source: doc.Name, Level: level.String()}
	if err := ctx.Err(); err != nil {
		rep.Outcome, rep.Error = domain.OutcomeError, err.Error()
		return rep, err
	}

	start := time.Now()
	format := doc.Format
	if format == "" {
		format = s.decoder.FormatOf(doc.Name)
	}

	tree, err := s.decoder.Decode(format, doc.Body)
	if err != nil {
		err = fmt.Errorf("decode %s: %w", doc.Name, err)
		s.metrics.ObserveValidation(level, domain.OutcomeError, time.Since(start))
		log.Warn().Str("source", doc.Name).Str("format", format).Err(err).Msg("document not decodable")
		rep.Outcome, rep.Error = domain.OutcomeError, err.Error()
		return rep, err
	}

	if _, isList := tree.([]any); isList {
		list = true
	}
	rep.List = list
	var res schema.Result[[]domain.Record]
	if list {
		res = s.validator.CheckList(level, tree)
	} else {
		one := s.validator.Check(level, tree)
		if rec, ok := one.Value(); ok {
			res = schema.Ok([]domain.Record{rec})
		} else {
			res = schema.Err[[]domain.Record](one.Err())
		}
	}
	dur := time.Since(start)

	if sm := res.Mismatch(); sm != nil {
		s.metrics.ObserveValidation(level, domain.OutcomeInvalid, dur)
		s.metrics.ObserveFailures(level, sm.Failures)
		log.Info().
			Str("source", doc.Name).
			Str("level", level.String()).
			Int("failures", len(sm.Failures)).
			Str("first", sm.Path()).
			Msg("schema mismatch")
		rep.Outcome, rep.Mismatch = domain.OutcomeInvalid, sm
		return rep, nil
	}
	if err := res.Err(); err != nil {
		s.metrics.ObserveValidation(level, domain.OutcomeError, dur)
		rep.Outcome, rep.Error = domain.OutcomeError, err.Error()
		return rep, err
	}

	recs, _ := res.Value()
	s.metrics.ObserveValidation(level, domain.OutcomeOK, dur)
	log.Debug().
		Str("source", doc.Name).
		Str("level", level.String()).
		Int("records", len(recs)).
		Dur("duration", dur).
		Msg("document valid")
	rep.Outcome, rep.Records = domain.OutcomeOK, recs
	return rep, nil
}
