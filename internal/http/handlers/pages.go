package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/belvedhair/booking-widget/internal/salonapi"
	"github.com/belvedhair/booking-widget/pkg/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageHandler serves the server-rendered pages: the booking widget itself,
// the admin panel and the two legal pages.
type PageHandler struct {
	widget      *template.Template
	admin       *template.Template
	impressum   *template.Template
	datenschutz *template.Template
	salonName   string
	barbers     []salonapi.Barber
	logger      *logging.Logger
}

func NewPageHandler(salonName string, barbers []salonapi.Barber, logger *logging.Logger) (*PageHandler, error) {
	if logger == nil {
		logger = logging.Default()
	}
	h := &PageHandler{salonName: salonName, barbers: barbers, logger: logger}
	for _, p := range []struct {
		dst  **template.Template
		name string
	}{
		{&h.widget, "widget.html"},
		{&h.admin, "admin.html"},
		{&h.impressum, "impressum.html"},
		{&h.datenschutz, "datenschutz.html"},
	} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+p.name)
		if err != nil {
			return nil, err
		}
		*p.dst = t
	}
	return h, nil
}

type pageData struct {
	SalonName string
	Barbers   []salonapi.Barber
}

func (h *PageHandler) render(w http.ResponseWriter, t *template.Template) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := pageData{SalonName: h.salonName, Barbers: h.barbers}
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		h.logger.Error("page render failed", "error", err)
	}
}

// Widget serves GET /.
func (h *PageHandler) Widget(w http.ResponseWriter, r *http.Request) {
	h.render(w, h.widget)
}

// Admin serves GET /admin.
func (h *PageHandler) Admin(w http.ResponseWriter, r *http.Request) {
	h.render(w, h.admin)
}

// Impressum serves GET /impressum.
func (h *PageHandler) Impressum(w http.ResponseWriter, r *http.Request) {
	h.render(w, h.impressum)
}

// Datenschutz serves GET /datenschutz.
func (h *PageHandler) Datenschutz(w http.ResponseWriter, r *http.Request) {
	h.render(w, h.datenschutz)
}
