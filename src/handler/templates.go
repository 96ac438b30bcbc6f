package handler

import (
	"embed"
	"html/template"
	"net/url"

	"github.com/pondermatic/strategy11-challenge/src/domain"
	"github.com/pondermatic/strategy11-challenge/src/service"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// LoadTemplates parses the embedded page templates
func LoadTemplates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.tmpl"))
}

type sortLink struct {
	Label     string
	URL       string
	Sorted    bool
	Direction domain.SortDirection
}

// tablePage is the data rendered by the admin and shortcode templates
type tablePage struct {
	Lang       string
	PageTitle  string
	RefreshURL string
	View       service.TableView
	Links      []sortLink
	Notices    []template.HTML
}

func newTablePage(path, lang, title string, view service.TableView) tablePage {
	page := tablePage{
		Lang:      lang,
		PageTitle: title,
		View:      view,
	}

	for _, col := range view.Columns {
		page.Links = append(page.Links, sortLink{
			Label:     col.Label,
			URL:       sortURL(path, domain.SortSpec{Column: col.Key, Direction: col.Next}),
			Sorted:    col.Sorted,
			Direction: col.Direction,
		})
	}

	// FormatNotice output is already escaped
	for _, notice := range view.Notices {
		page.Notices = append(page.Notices, template.HTML(notice))
	}
	return page
}

// addNotice appends a plain-text notice
func (p *tablePage) addNotice(msg string) {
	p.Notices = append(p.Notices, template.HTML(template.HTMLEscapeString(msg)))
}

func sortURL(path string, spec domain.SortSpec) string {
	q := url.Values{}
	q.Set("orderby", string(spec.Column))
	q.Set("order", string(spec.Direction))
	return path + "?" + q.Encode()
}

// cleanURL rebuilds path keeping only the sort parameters
func cleanURL(path string, query url.Values) string {
	q := url.Values{}
	for _, key := range []string{"orderby", "order"} {
		if v := query.Get(key); v != "" {
			q.Set(key, v)
		}
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
