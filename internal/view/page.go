// Package view renders the single page form. Components live in page.templ;
// page_templ.go is generated from it with `templ generate`.
package view

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	"codecraft/internal/orchestrator"
	"codecraft/internal/refactor"
)

//go:generate go run github.com/a-h/templ/cmd/templ@v0.2.476 generate

// Tab selects the output pane content.
type Tab string

const (
	TabCode        Tab = "code"
	TabExplanation Tab = "explanation"
)

// ParseTab maps anything other than "explanation" to the code tab.
func ParseTab(s string) Tab {
	if strings.EqualFold(strings.TrimSpace(s), string(TabExplanation)) {
		return TabExplanation
	}
	return TabCode
}

// PageData is everything one render of the page needs.
type PageData struct {
	State     orchestrator.Snapshot
	Tab       Tab
	Languages []string

	// Current form values.
	Code     string
	Language string
	Focus    refactor.Focus

	// HighlightedCode is the pre-rendered HTML of State.Result.ImprovedCode.
	HighlightedCode string
	HighlightCSS    string
}

const (
	emptyHint   = `Select options and click "Improve Code" to see the magic happen.`
	submitLabel = "Improve Code"
	busyLabel   = "Processing..."
)

// unsafeHTML writes trusted markup (chroma output, inline assets) unescaped.
func unsafeHTML(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}
