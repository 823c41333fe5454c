package birthweight

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ehr/centile/internal/platform/artifact"
	"github.com/ehr/centile/internal/platform/plot"
	"github.com/ehr/centile/internal/platform/tabular"
)

// TableLoader reads named tables. *tabular.Loader satisfies it.
type TableLoader interface {
	Load(ctx context.Context, names ...string) ([]*tabular.Table, error)
}

// Chart is a composed chart together with the measurement it highlights.
type Chart struct {
	Measurement SelectedMeasurement
	Reference   *ReferenceCurveSet
	Figure      *plot.Figure
}

type Service struct {
	loader   TableLoader
	tables   Tables
	cols     Columns
	composer *plot.Composer
	encoder  *artifact.Encoder
	logger   zerolog.Logger
}

func NewService(loader TableLoader, tables Tables, cols Columns, composer *plot.Composer, encoder *artifact.Encoder, logger zerolog.Logger) *Service {
	return &Service{
		loader:   loader,
		tables:   tables,
		cols:     cols,
		composer: composer,
		encoder:  encoder,
		logger:   logger.With().Str("component", "birthweight").Logger(),
	}
}

// DeliveryMode returns the encoder's delivery mode.
func (s *Service) DeliveryMode() artifact.Mode {
	return s.encoder.Mode()
}

// Compose reads the patient and centile tables, selects the latest valid
// measurement and composes its chart.
func (s *Service) Compose(ctx context.Context) (*Chart, error) {
	tables, err := s.loader.Load(ctx, s.tables.Patient, s.tables.Male, s.tables.Female)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	patients, male, female := tables[0], tables[1], tables[2]

	valid := FilterRows(patients.Records, s.cols)
	row, err := SelectLatest(valid)
	if err != nil {
		s.logger.Warn().Int("rows", len(patients.Records)).Msg("no valid patient rows")
		return nil, err
	}

	rec, err := ParseRecord(row, s.cols)
	if err != nil {
		s.logger.Warn().Err(err).Int("row", row.Row).Msg("invalid patient row")
		return nil, err
	}

	m, err := Measure(rec)
	if err != nil {
		s.logger.Warn().Int("row", rec.Row).Str("sex", rec.Sex).Msg("unsupported category")
		return nil, err
	}

	refTable := female
	if m.Category == Male {
		refTable = male
	}
	ref, err := NewReferenceCurveSet(refTable, s.cols.Axis)
	if err != nil {
		return nil, err
	}

	fig, err := s.composer.Compose(BuildPlot(m, ref))
	if err != nil {
		return nil, fmt.Errorf("compose chart: %w", err)
	}

	s.logger.Debug().
		Int("row", m.Row).
		Str("category", string(m.Category)).
		Int("percentiles", len(ref.Percentiles)).
		Float64("weeks", m.GestationalAgeWeeks).
		Float64("grams", m.BirthweightGrams).
		Msg("chart composed")

	return &Chart{Measurement: m, Reference: ref, Figure: fig}, nil
}

// Generate composes the chart and delivers it in the configured mode.
func (s *Service) Generate(ctx context.Context) (*artifact.Artifact, error) {
	ch, err := s.Compose(ctx)
	if err != nil {
		return nil, err
	}

	art, err := s.encoder.Encode(ctx, ch.Figure)
	if err != nil {
		s.logger.Error().Err(err).Str("delivery", string(s.encoder.Mode())).Msg("chart delivery failed")
		return nil, err
	}

	s.logger.Info().
		Int("row", ch.Measurement.Row).
		Str("category", string(ch.Measurement.Category)).
		Int("percentiles", len(ch.Reference.Percentiles)).
		Str("delivery", string(art.Mode)).
		Int64("bytes", art.Size).
		Msg("plot generated")
	return art, nil
}
