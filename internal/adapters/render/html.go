package render

import (
	"html/template"
	"io"

	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

var (
	quoteTemplate = template.Must(template.New("quote").Parse(
		`<figure><blockquote>“{{.Text}}”</blockquote><figcaption>— {{.Category}}</figcaption></figure>`,
	))

	emptyTemplate = template.Must(template.New("empty").Parse(`{{.}}`))
)

// HTML renders a quote as an escaped figure fragment. The empty state is the
// plain empty message.
type HTML struct{}

var _ ports.Renderer = HTML{}

// Render writes quote, or the empty state when quote is nil.
func (HTML) Render(w io.Writer, quote *domain.Quote) error {
	if quote == nil {
		return emptyTemplate.Execute(w, domain.EmptyMessage)
	}

	return quoteTemplate.Execute(w, quote)
}
