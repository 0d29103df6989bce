package services

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/uwcoe/persondir/modules/person/domain/aggregates/person"
	"github.com/uwcoe/persondir/modules/person/infrastructure/edw"
	"github.com/uwcoe/persondir/pkg/metrics"
)

// edwNameWeight is the precedence the warehouse carries for name writes.
// Manual edits and higher-trust feeds use larger weights and win over it.
const edwNameWeight = 1

// WarehouseRoster is the slice of the warehouse datasource the import job
// reads from.
type WarehouseRoster interface {
	CollegePositions(ctx context.Context) ([]map[string]string, error)
	PersonByPersonID(ctx context.Context, personID string) (map[string]string, error)
}

// ImportService reconciles the local person cache against the warehouse
// roster. Per-row failures are logged and counted, never fatal for the
// batch; only a failed roster fetch aborts a run.
type ImportService struct {
	roster     WarehouseRoster
	repo       person.Repository
	parser     edw.Parser
	log        *logrus.Logger
	metrics    *metrics.ImportMetrics
	matchField person.MatchField
}

type ImportOption func(*ImportService)

// WithMatchField switches the key rows are matched on. The default is the
// immutable warehouse person key; net-id matching exists for deployments
// whose cache predates person keys.
func WithMatchField(field person.MatchField) ImportOption {
	return func(s *ImportService) { s.matchField = field }
}

func NewImportService(
	roster WarehouseRoster,
	repo person.Repository,
	log *logrus.Logger,
	m *metrics.ImportMetrics,
	opts ...ImportOption,
) *ImportService {
	s := &ImportService{
		roster:     roster,
		repo:       repo,
		log:        log,
		metrics:    m,
		matchField: person.MatchByPersonID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one reconciliation pass over the current college roster.
func (s *ImportService) Run(ctx context.Context) error {
	rows, err := s.roster.CollegePositions(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch college roster")
	}

	var saved, failed, skipped int
	for _, row := range rows {
		data := s.ParseRow(row)
		key := data.MatchValue(s.matchField)
		if key == "" {
			skipped++
			s.metrics.Rows.WithLabelValues(metrics.RowSkipped).Inc()
			s.log.WithField("row", row).Warn("skipping roster row without match key")
			continue
		}
		if err := s.importOne(ctx, key, data); err != nil {
			failed++
			s.metrics.Rows.WithLabelValues(metrics.RowFailed).Inc()
			s.log.WithError(err).WithField("key", key).Error("roster row failed")
			continue
		}
		saved++
		s.metrics.Rows.WithLabelValues(metrics.RowSaved).Inc()
	}

	s.log.WithFields(logrus.Fields{
		"saved":   saved,
		"failed":  failed,
		"skipped": skipped,
	}).Info("person import finished")
	return nil
}

// ImportByPersonID pulls a single person from the warehouse on demand and
// reconciles them into the cache. It returns the person's net-id, or ""
// when the warehouse has no such person.
func (s *ImportService) ImportByPersonID(ctx context.Context, personID string) (string, error) {
	row, err := s.roster.PersonByPersonID(ctx, personID)
	if err != nil {
		return "", errors.Wrap(err, "fetch warehouse person")
	}
	if row == nil {
		s.log.WithField("person_id", personID).Info("person not in warehouse")
		return "", nil
	}

	data := s.ParseRow(row)
	key := data.MatchValue(person.MatchByPersonID)
	if key == "" {
		return "", nil
	}
	p, err := s.repo.FindOrCreate(ctx, person.MatchByPersonID, key)
	if err != nil {
		return "", err
	}
	p.Merge(data)
	if err := s.repo.Save(ctx, p); err != nil {
		return "", err
	}
	return p.NetID(), nil
}

func (s *ImportService) importOne(ctx context.Context, key string, data person.ParsedPerson) error {
	p, err := s.repo.FindOrCreate(ctx, s.matchField, key)
	if err != nil {
		return err
	}
	p.Merge(data)
	return s.repo.Save(ctx, p)
}

// ParseRow normalizes one warehouse row into merge input. Name columns are
// proper-cased; when the split legal-name columns are both blank the
// combined "Last, First" column is split instead.
func (s *ImportService) ParseRow(row map[string]string) person.ParsedPerson {
	first := s.parser.Name(row["LegalFirstName"])
	last := s.parser.Name(row["LegalLastName"])
	if first == nil && last == nil {
		first, last = s.parser.LastFirst(row["LegalName"])
	}
	return person.ParsedPerson{
		PersonID:   s.parser.String(row["PersonKey"]),
		NetID:      s.parser.String(row["UWNetID"]),
		Firstname:  first,
		Lastname:   last,
		LegalName:  s.parser.String(row["LegalName"]),
		StudentNo:  s.parser.Integer(row["StudentId"]),
		EmployeeID: s.parser.Integer(row["EmployeeID"]),
		Email:      s.parser.String(row["Email"]),
		NameWeight: edwNameWeight,
	}
}
