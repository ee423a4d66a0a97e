package contatos

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/agendabr/agenda/internal/observability/metrics"
	"github.com/agendabr/agenda/pkg/logging"
)

// Service owns the register/edit/lookup/delete operations over Contato
// records. Validation failures come back as a message list, never as an
// error; only storage failures populate the error return.
type Service struct {
	repo    Repository
	metrics *metrics.ContatoMetrics
	logger  *logging.Logger
}

// NewService creates a contato service.
func NewService(repo Repository, m *metrics.ContatoMetrics, logger *logging.Logger) *Service {
	if repo == nil {
		panic("contatos: repository cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:    repo,
		metrics: m,
		logger:  logger,
	}
}

// ListItem is the listing projection of a Contato. MinhaData carries the
// display-formatted string, never written back to the store.
type ListItem struct {
	ID        string
	Nome      string
	Sobrenome string
	Email     string
	Telefone  string
	MinhaData string
	CriadoEm  time.Time
}

// Register normalizes and validates a submission, persisting a new record
// only when no rule is violated.
func (s *Service) Register(ctx context.Context, sub Submission) (*Contato, []string, error) {
	fields := Normalize(sub)
	if errs := fields.Validate(); len(errs) > 0 {
		s.metrics.ObserveValidationFailure("register")
		s.metrics.ObserveOperation("register", "invalid")
		return nil, errs, nil
	}

	c, err := s.repo.Create(ctx, fields)
	if err != nil {
		s.metrics.ObserveOperation("register", "error")
		return nil, nil, err
	}

	s.metrics.ObserveOperation("register", "created")
	s.logger.Info("contato registered", "id", c.ID, "nome", c.Nome)
	return c, nil, nil
}

// Edit fully replaces the editable fields of the record matching id. A
// malformed id is a silent no-op: no validation runs, no store call is made
// and the caller sees the same outcome as "not found".
func (s *Service) Edit(ctx context.Context, id string, sub Submission) (*Contato, []string, error) {
	if !wellFormedID(id) {
		return nil, nil, nil
	}

	fields := Normalize(sub)
	if errs := fields.Validate(); len(errs) > 0 {
		s.metrics.ObserveValidationFailure("edit")
		s.metrics.ObserveOperation("edit", "invalid")
		return nil, errs, nil
	}

	c, err := s.repo.Replace(ctx, id, fields)
	if err != nil {
		s.metrics.ObserveOperation("edit", "error")
		return nil, nil, err
	}
	if c == nil {
		return nil, nil, nil
	}

	s.metrics.ObserveOperation("edit", "updated")
	s.logger.Info("contato edited", "id", c.ID)
	return c, nil, nil
}

// FindByID returns the record or nil. Malformed ids never reach the store.
func (s *Service) FindByID(ctx context.Context, id string) (*Contato, error) {
	if !wellFormedID(id) {
		return nil, nil
	}
	return s.repo.Get(ctx, id)
}

// List returns every record, most recently created first, with minhadata
// already display-formatted.
func (s *Service) List(ctx context.Context) ([]ListItem, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]ListItem, 0, len(records))
	for _, c := range records {
		items = append(items, ListItem{
			ID:        c.ID,
			Nome:      c.Nome,
			Sobrenome: c.Sobrenome,
			Email:     c.Email,
			Telefone:  c.Telefone,
			MinhaData: FormatDisplay(c.MinhaData),
			CriadoEm:  c.CriadoEm,
		})
	}
	return items, nil
}

// DeleteByID removes and returns the record, or nil when the id is malformed
// or nothing matched.
func (s *Service) DeleteByID(ctx context.Context, id string) (*Contato, error) {
	if !wellFormedID(id) {
		return nil, nil
	}

	c, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.metrics.ObserveOperation("delete", "error")
		return nil, err
	}
	if c == nil {
		return nil, nil
	}

	s.metrics.ObserveOperation("delete", "deleted")
	s.logger.Info("contato deleted", "id", c.ID)
	return c, nil
}

func wellFormedID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
