package contatos

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agendabr/agenda/internal/session"
	"github.com/agendabr/agenda/internal/view"
	"github.com/agendabr/agenda/pkg/logging"
)

const (
	msgRegistered = "Horario registrado com sucesso."
	msgEdited     = "Horario editado com sucesso."
	msgDeleted    = "Horario apagado com sucesso."
)

// Notifier is told about successful registrations. May be nil.
type Notifier interface {
	NotifyNovoContato(ctx context.Context, c *Contato) error
}

// Handler adapts HTTP form submissions to the contato service. Validation
// failures and not-found outcomes are user-facing pages, never 5xx; storage
// failures collapse into the generic 404 page.
type Handler struct {
	service  *Service
	flash    *session.Store
	views    *view.Renderer
	notifier Notifier
	logger   *logging.Logger
}

// NewHandler creates a contatos handler.
func NewHandler(service *Service, flash *session.Store, views *view.Renderer, notifier Notifier, logger *logging.Logger) *Handler {
	if service == nil {
		panic("contatos: service cannot be nil")
	}
	if flash == nil {
		panic("contatos: flash store cannot be nil")
	}
	if views == nil {
		panic("contatos: renderer cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service:  service,
		flash:    flash,
		views:    views,
		notifier: notifier,
		logger:   logger,
	}
}

// formView feeds the contato form template. MinhaData is pre-formatted for
// the datetime-local input.
type formView struct {
	ID        string
	Nome      string
	Sobrenome string
	Email     string
	Telefone  string
	MinhaData string
}

// Index handles GET / and lists every contato, newest first.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	sid := h.flash.SessionID(w, r)

	items, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list contatos", "error", err)
		h.views.NotFound(w)
		return
	}

	h.views.Render(w, http.StatusOK, "index.html", view.PageData{
		Contatos: items,
		Errors:   h.popFlash(r.Context(), sid, session.CategoryErrors),
		Success:  h.popFlash(r.Context(), sid, session.CategorySuccess),
	})
}

// New handles GET /contato and renders the empty form.
func (h *Handler) New(w http.ResponseWriter, r *http.Request) {
	sid := h.flash.SessionID(w, r)

	h.views.Render(w, http.StatusOK, "contato.html", view.PageData{
		Errors:  h.popFlash(r.Context(), sid, session.CategoryErrors),
		Success: h.popFlash(r.Context(), sid, session.CategorySuccess),
	})
}

// Create handles POST /contato/register.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	sid := h.flash.SessionID(w, r)

	if err := r.ParseForm(); err != nil {
		h.views.NotFound(w)
		return
	}

	c, errs, err := h.service.Register(r.Context(), submissionFromForm(r.PostForm))
	if err != nil {
		h.logger.Error("failed to register contato", "error", err)
		h.views.NotFound(w)
		return
	}
	if len(errs) > 0 {
		h.addFlash(r.Context(), sid, session.CategoryErrors, errs...)
		h.redirectBack(w, r, "/contato")
		return
	}

	h.addFlash(r.Context(), sid, session.CategorySuccess, msgRegistered)
	h.notifyAsync(c)
	http.Redirect(w, r, "/contato/index/"+c.ID, http.StatusSeeOther)
}

// Show handles GET /contato/index/{id} and renders the edit form.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	sid := h.flash.SessionID(w, r)

	id := chi.URLParam(r, "id")
	if id == "" {
		h.views.NotFound(w)
		return
	}

	c, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to load contato", "error", err, "id", id)
		h.views.NotFound(w)
		return
	}
	if c == nil {
		h.views.NotFound(w)
		return
	}

	h.views.Render(w, http.StatusOK, "contato.html", view.PageData{
		Contato: formView{
			ID:        c.ID,
			Nome:      c.Nome,
			Sobrenome: c.Sobrenome,
			Email:     c.Email,
			Telefone:  c.Telefone,
			MinhaData: FormatInput(c.MinhaData),
		},
		Errors:  h.popFlash(r.Context(), sid, session.CategoryErrors),
		Success: h.popFlash(r.Context(), sid, session.CategorySuccess),
	})
}

// Update handles POST /contato/edit/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	sid := h.flash.SessionID(w, r)

	id := chi.URLParam(r, "id")
	if id == "" {
		h.views.NotFound(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.views.NotFound(w)
		return
	}

	c, errs, err := h.service.Edit(r.Context(), id, submissionFromForm(r.PostForm))
	if err != nil {
		h.logger.Error("failed to edit contato", "error", err, "id", id)
		h.views.NotFound(w)
		return
	}
	if len(errs) > 0 {
		h.addFlash(r.Context(), sid, session.CategoryErrors, errs...)
		h.redirectBack(w, r, "/contato/index/"+id)
		return
	}
	if c == nil {
		h.views.NotFound(w)
		return
	}

	h.addFlash(r.Context(), sid, session.CategorySuccess, msgEdited)
	http.Redirect(w, r, "/contato/index/"+c.ID, http.StatusSeeOther)
}

// Delete handles GET /contato/delete/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	sid := h.flash.SessionID(w, r)

	id := chi.URLParam(r, "id")
	if id == "" {
		h.views.NotFound(w)
		return
	}

	c, err := h.service.DeleteByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to delete contato", "error", err, "id", id)
		h.views.NotFound(w)
		return
	}
	if c == nil {
		h.views.NotFound(w)
		return
	}

	h.addFlash(r.Context(), sid, session.CategorySuccess, msgDeleted)
	h.redirectBack(w, r, "/")
}

func (h *Handler) addFlash(ctx context.Context, sid, category string, messages ...string) {
	if err := h.flash.AddFlash(ctx, sid, category, messages...); err != nil {
		h.logger.Error("failed to store flash messages", "error", err, "category", category)
	}
}

func (h *Handler) popFlash(ctx context.Context, sid, category string) []string {
	messages, err := h.flash.PopFlash(ctx, sid, category)
	if err != nil {
		h.logger.Error("failed to pop flash messages", "error", err, "category", category)
		return nil
	}
	return messages
}

func (h *Handler) notifyAsync(c *Contato) {
	if h.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.notifier.NotifyNovoContato(ctx, c)
	}()
}

func (h *Handler) redirectBack(w http.ResponseWriter, r *http.Request, fallback string) {
	target := r.Referer()
	if target == "" {
		target = fallback
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func submissionFromForm(form url.Values) Submission {
	sub := make(Submission, len(form))
	for key := range form {
		sub[key] = form.Get(key)
	}
	return sub
}
