package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/gulfdigital/backend/internal/model"
)

// Template names accepted by SendTemplatedEmail.
const (
	TemplateConfirmation = "contact-confirmation"
	TemplateAdminAlert   = "contact-admin-alert"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

// Templates renders the HTML and plain-text parts of each named email.
type Templates struct {
	html map[string]*htmltemplate.Template
	text map[string]*texttemplate.Template
}

// LoadTemplates parses the embedded templates.
func LoadTemplates() (*Templates, error) {
	t := &Templates{
		html: make(map[string]*htmltemplate.Template),
		text: make(map[string]*texttemplate.Template),
	}
	for _, name := range []string{TemplateConfirmation, TemplateAdminAlert} {
		h, err := htmltemplate.ParseFS(templateFS, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s html: %w", name, err)
		}
		x, err := texttemplate.ParseFS(templateFS, "templates/"+name+".txt")
		if err != nil {
			return nil, fmt.Errorf("parse %s text: %w", name, err)
		}
		t.html[name], t.text[name] = h, x
	}
	return t, nil
}

// Render executes both parts of the named template.
func (t *Templates) Render(name string, data any) (html, text string, err error) {
	h, ok := t.html[name]
	if !ok {
		return "", "", fmt.Errorf("unknown email template %q", name)
	}
	var hb, tb bytes.Buffer
	if err := h.Execute(&hb, data); err != nil {
		return "", "", fmt.Errorf("render %s html: %w", name, err)
	}
	if err := t.text[name].Execute(&tb, data); err != nil {
		return "", "", fmt.Errorf("render %s text: %w", name, err)
	}
	return hb.String(), strings.TrimSpace(tb.String()) + "\n", nil
}

// Detail is one optional labelled field shown in the admin alert.
type Detail struct {
	Label string
	Value string
}

// SubmissionView is the data passed to both contact templates.
type SubmissionView struct {
	SiteName  string
	ID        string
	Schema    model.Schema
	Name      string
	Email     string
	Subject   string
	Message   string
	Details   []Detail
	CreatedAt string
}

// NewSubmissionView flattens sub for templating. Details lists only the
// optional fields that are set, in a fixed order.
func NewSubmissionView(sub *model.Submission, siteName string) SubmissionView {
	v := SubmissionView{
		SiteName:  siteName,
		ID:        sub.ID,
		Schema:    sub.Schema,
		Name:      sub.Name,
		Email:     sub.Email,
		Subject:   model.Deref(sub.Subject),
		Message:   sub.Message,
		CreatedAt: sub.CreatedAt.UTC().Format(time.RFC1123),
	}
	for _, d := range []struct {
		label string
		value *string
	}{
		{"Subject", sub.Subject},
		{"Company", sub.Company},
		{"Phone", sub.Phone},
		{"Website", sub.Website},
		{"Service", sub.Service},
		{"Budget", sub.Budget},
		{"Timeline", sub.Timeline},
		{"Location", sub.Location},
		{"Quoted price", sub.Price},
		{"Page", sub.PageURL},
		{"IP address", sub.IPAddress},
	} {
		if d.value != nil {
			v.Details = append(v.Details, Detail{Label: d.label, Value: *d.value})
		}
	}
	return v
}
