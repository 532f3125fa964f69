package view

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"codecraft/internal/catalog"
)

const DefaultStyle = "github-dark"

// Highlighter renders code as class-annotated HTML. The stylesheet for the
// classes comes from CSS.
type Highlighter struct {
	cat       *catalog.Catalog
	style     *chroma.Style
	formatter *html.Formatter
}

func NewHighlighter(cat *catalog.Catalog, styleName string) *Highlighter {
	if cat == nil {
		cat = catalog.Default()
	}
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	return &Highlighter{
		cat:       cat,
		style:     style,
		formatter: html.New(html.WithClasses(true), html.TabWidth(4)),
	}
}

// Highlight picks a lexer from the language label. Unknown labels are
// rendered as plain text.
func (h *Highlighter) Highlight(code, language string) (string, error) {
	lexer := lexerFor(h.cat.LexerFor(language))
	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := h.formatter.Format(&b, h.style, it); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (h *Highlighter) CSS() (string, error) {
	var b strings.Builder
	if err := h.formatter.WriteCSS(&b, h.style); err != nil {
		return "", err
	}
	return b.String(), nil
}

func lexerFor(alias string) chroma.Lexer {
	lexer := lexers.Get(alias)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}
