package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	appLog "craftcal/internal/log"
	"craftcal/internal/metrics"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed content/about.md
var aboutMarkdown []byte

// mdRenderer escapes raw HTML in the markdown source (WithUnsafe is not set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// Tab names double as the page template names.
const (
	TabAbout    = "about"
	TabCalendar = "calendar"
	TabSubmit   = "submit"
)

type tab struct {
	Name   string
	Label  string
	Href   string
	Active bool
}

var tabOrder = []tab{
	{Name: TabAbout, Label: "About", Href: "/about"},
	{Name: TabCalendar, Label: "Calendar", Href: "/calendar"},
	{Name: TabSubmit, Label: "Submit an Event", Href: "/submit-event"},
}

// tabsFor returns the nav tabs with the current one highlighted.
func tabsFor(active string) []tab {
	out := make([]tab, len(tabOrder))
	for i, t := range tabOrder {
		t.Active = t.Name == active
		out[i] = t
	}
	return out
}

// pageData is what the shared layout renders. Body is page specific.
type pageData struct {
	Title     string
	Tabs      []tab
	CSRFField template.HTML
	Refresh   *refresh
	Body      any
}

// refresh renders a <meta http-equiv="refresh">.
type refresh struct {
	Seconds int
	URL     string
}

type pages struct {
	sets  map[string]*template.Template
	about template.HTML
}

func loadPages() (*pages, error) {
	p := &pages{sets: make(map[string]*template.Template)}
	for _, name := range []string{TabAbout, TabCalendar, TabSubmit} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("web: parse %s template: %w", name, err)
		}
		p.sets[name] = t
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert(aboutMarkdown, &buf); err != nil {
		return nil, fmt.Errorf("web: render about page: %w", err)
	}
	p.about = template.HTML(buf.String())
	return p, nil
}

// render executes a page into a buffer first so template errors never
// leave a half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page, title string, body any, rf *refresh) {
	t, ok := s.pages.sets[page]
	if !ok {
		appLog.Error("unknown page template", fmt.Errorf("page %q", page))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	data := pageData{
		Title:     title,
		Tabs:      tabsFor(page),
		CSRFField: csrf.TemplateField(r),
		Refresh:   rf,
		Body:      body,
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		appLog.Error("template render failed", err, "page", page)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	metrics.PageViews.WithLabelValues(page).Inc()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		appLog.Error("failed to write page", err, "page", page)
	}
}

func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, TabAbout, "About", s.pages.about, nil)
}
