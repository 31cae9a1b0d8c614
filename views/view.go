// Package views renders the html pages of the app.
package views

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/gorilla/csrf"

	"warbler/domain"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the stylesheets and images served under /static/.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

const (
	// LayoutDir is where the templates live inside the embedded file system.
	LayoutDir = "templates/"
	// TemplateExt is the extension every template file has.
	TemplateExt = ".gohtml"
	// Layout is the name of the template every page is rendered into.
	Layout = "layout"
)

// Alert levels, matching the css classes of the layout.
const (
	AlertLvlError   = "danger"
	AlertLvlWarning = "warning"
	AlertLvlInfo    = "info"
	AlertLvlSuccess = "success"
)

// Alert is a message shown above the page content. Alerts stored in the session
// are shown once, on the next page that is rendered.
type Alert struct {
	Level   string
	Message string
}

// Data is everything a page is rendered with. Yield holds the page specific data.
type Data struct {
	Alerts    []Alert
	User      *domain.User
	CSRFField template.HTML
	Errors    map[string]string
	Form      interface{}
	Yield     interface{}
}

// AlertError adds an error alert with the given message.
func (d *Data) AlertError(msg string) {
	d.Alerts = append(d.Alerts, Alert{Level: AlertLvlError, Message: msg})
}

// View is a page template parsed together with the layout and the partials.
type View struct {
	Template *template.Template
}

// NewView parses the layout, the partials and the named page templates.
// It panics if a template can't be parsed, which only happens at startup.
func NewView(files ...string) *View {
	files = append([]string{Layout, "partials"}, files...)
	for i, f := range files {
		files[i] = LayoutDir + f + TemplateExt
	}
	t := template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, files...))
	return &View{Template: t}
}

var funcs = template.FuncMap{
	"formatTime": formatTime,
	"liked": func(liked map[int]bool, id int) bool {
		return liked[id]
	},
}

func formatTime(t time.Time) string {
	return t.Format("02 January 2006")
}

// Render renders the view with a 200 status.
func (v *View) Render(w http.ResponseWriter, r *http.Request, data *Data) error {
	return v.RenderStatus(w, r, http.StatusOK, data)
}

// RenderStatus renders the view into a buffer first, so a failing template
// doesn't leave a half written page behind.
func (v *View) RenderStatus(w http.ResponseWriter, r *http.Request, status int, data *Data) error {
	if data == nil {
		data = &Data{}
	}
	data.CSRFField = csrf.TemplateField(r)
	var buf bytes.Buffer
	if err := v.Template.ExecuteTemplate(&buf, Layout, data); err != nil {
		http.Error(w, "Something went wrong.", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := io.Copy(w, &buf)
	return err
}
