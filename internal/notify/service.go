package notify

import (
	"context"
	"fmt"

	"github.com/agendabr/agenda/internal/contatos"
	"github.com/agendabr/agenda/pkg/logging"
)

// Service emails the operator about newly registered appointments.
type Service struct {
	email  EmailSender
	to     string
	logger *logging.Logger
}

// NewService creates a notification service. Returns nil when no sender or
// destination is configured, so callers can treat notifications as optional.
func NewService(email EmailSender, to string, logger *logging.Logger) *Service {
	if email == nil || to == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:  email,
		to:     to,
		logger: logger,
	}
}

// NotifyNovoContato sends the new-appointment email. Failures are reported to
// the caller but never block the registration flow.
func (s *Service) NotifyNovoContato(ctx context.Context, c *contatos.Contato) error {
	if s == nil || c == nil {
		return nil
	}

	contato := c.Email
	if contato == "" {
		contato = c.Telefone
	}

	msg := EmailMessage{
		To:      s.to,
		Subject: fmt.Sprintf("Novo horário agendado: %s", c.Nome),
		Body: fmt.Sprintf(
			"Um novo horário foi registrado na agenda.\n\nNome: %s %s\nContato: %s\nData e hora: %s\n",
			c.Nome, c.Sobrenome, contato, c.MinhaData.Format("02/01/2006 15:04"),
		),
	}

	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("failed to send new contato notification", "error", err, "contato_id", c.ID)
		return err
	}

	s.logger.Info("new contato notification sent", "contato_id", c.ID, "to", s.to)
	return nil
}
