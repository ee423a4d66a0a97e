package contatos

import (
	"net/mail"
	"strings"
	"time"
)

const (
	// inputLayout matches the datetime-local form input and the edit form
	// pre-population; displayLayout is what listings show.
	inputLayout   = "2006-01-02T15:04"
	displayLayout = "02/01/2006 15:04"
)

var inputLayouts = []string{
	inputLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// Contato is one persisted contact/appointment record.
type Contato struct {
	ID        string    `json:"id"`
	Nome      string    `json:"nome"`
	Sobrenome string    `json:"sobrenome"`
	Email     string    `json:"email"`
	Telefone  string    `json:"telefone"`
	MinhaData time.Time `json:"minhadata"`
	CriadoEm  time.Time `json:"criadoEm"`
}

// Submission is a raw form payload before normalization. Values are untyped
// because submissions arrive from form decoding and may carry junk.
type Submission map[string]any

// Fields is the canonical editable field set of a Contato. A zero MinhaData
// means the submitted value was missing or unparseable.
type Fields struct {
	Nome      string
	Sobrenome string
	Email     string
	Telefone  string
	MinhaData time.Time
}

// Normalize coerces a raw submission into the canonical field set. Any value
// other than minhadata that is not a string becomes the empty string; keys
// outside the canonical set are dropped.
func Normalize(sub Submission) Fields {
	f := Fields{
		Nome:      stringField(sub, "nome"),
		Sobrenome: stringField(sub, "sobrenome"),
		Email:     stringField(sub, "email"),
		Telefone:  stringField(sub, "telefone"),
	}

	switch v := sub["minhadata"].(type) {
	case string:
		if parsed, ok := ParseDate(v); ok {
			f.MinhaData = parsed
		}
	case time.Time:
		f.MinhaData = v
	}

	return f
}

func stringField(sub Submission, key string) string {
	if s, ok := sub[key].(string); ok {
		return s
	}
	return ""
}

// Submission converts normalized fields back into submission form, e.g. to
// re-display a rejected form.
func (f Fields) Submission() Submission {
	sub := Submission{
		"nome":      f.Nome,
		"sobrenome": f.Sobrenome,
		"email":     f.Email,
		"telefone":  f.Telefone,
	}
	if !f.MinhaData.IsZero() {
		sub["minhadata"] = f.MinhaData
	}
	return sub
}

// Validate evaluates every rule against the normalized fields and returns all
// violations in a fixed order. An empty slice means the submission is valid.
func (f Fields) Validate() []string {
	var errs []string

	if f.Email != "" && !validEmail(f.Email) {
		errs = append(errs, "E-mail inválido")
	}
	if f.Nome == "" {
		errs = append(errs, "Nome é um campo obrigatório.")
	}
	if f.Email == "" && f.Telefone == "" {
		errs = append(errs, "Pelo menos um contato precisa ser enviado: e-mail ou telefone.")
	}
	if f.MinhaData.IsZero() {
		errs = append(errs, "Data e hora é um campo obrigatório.")
	}

	return errs
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// ParseDate parses a submitted date/time string. It accepts the
// datetime-local wire format with and without seconds, plus RFC3339.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDisplay renders a scheduled date for listings.
func FormatDisplay(t time.Time) string {
	return t.Format(displayLayout)
}

// FormatInput renders a scheduled date for the edit form's datetime-local input.
func FormatInput(t time.Time) string {
	return t.Format(inputLayout)
}
