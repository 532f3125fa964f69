package view

import (
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codecraft/internal/catalog"
	"codecraft/internal/orchestrator"
	"codecraft/internal/refactor"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, c.Render(context.Background(), &b))
	return b.String()
}

func basePage() PageData {
	cat := catalog.Default()
	return PageData{
		Tab:       TabCode,
		Languages: cat.Labels(),
		Code:      "var x = 1",
		Language:  cat.DefaultLanguage,
		Focus:     refactor.FocusReadability,
	}
}

func TestParseTab(t *testing.T) {
	assert.Equal(t, TabExplanation, ParseTab("Explanation"))
	assert.Equal(t, TabCode, ParseTab(""))
	assert.Equal(t, TabCode, ParseTab("bogus"))
}

func TestPageIdle(t *testing.T) {
	out := render(t, Page(basePage()))

	assert.Contains(t, out, `<textarea name="code"`)
	assert.Contains(t, out, "var x = 1")
	assert.Contains(t, out, `<option value="JavaScript" selected>`)
	assert.Contains(t, out, `<option value="Modernization (ES6+)">`)
	assert.Contains(t, out, `<option value="Readability" selected>`)
	assert.Contains(t, out, "Improve Code")
	assert.Contains(t, out, "to see the magic happen")
	assert.NotContains(t, out, `role="alert"`)
	assert.NotContains(t, out, `id="copy"`)
	assert.Contains(t, out, `data-version="0"`)
}

func TestPageLoadingDisablesSubmit(t *testing.T) {
	d := basePage()
	d.State = orchestrator.Snapshot{Loading: true, Version: 3}
	out := render(t, Page(d))

	assert.Contains(t, out, `class="primary" disabled>`)
	assert.Contains(t, out, busyLabel)
	assert.Contains(t, out, `class="loading"`)
	assert.Contains(t, out, `data-version="3"`)
}

func TestPageErrorBannerEscapes(t *testing.T) {
	d := basePage()
	d.State = orchestrator.Snapshot{Error: "Bad <key>"}
	out := render(t, Page(d))

	assert.Contains(t, out, `role="alert"`)
	assert.Contains(t, out, "Bad &lt;key&gt;")
	assert.Contains(t, out, `action="/dismiss"`)
}

func TestOutputPaneTabs(t *testing.T) {
	d := basePage()
	d.State = orchestrator.Snapshot{Result: &refactor.Result{
		ImprovedCode: `const x = "<1>";`,
		Explanation:  "Used const.",
		KeyChanges:   []string{"var to const", "quotes"},
	}}

	code := render(t, OutputPane(d))
	assert.Contains(t, code, `id="copy"`)
	assert.Contains(t, code, `&lt;1&gt;`)
	assert.NotContains(t, code, "Key Changes")

	d.Tab = TabExplanation
	expl := render(t, OutputPane(d))
	assert.NotContains(t, expl, `id="copy"`)
	assert.Contains(t, expl, "Used const.")
	first := strings.Index(expl, "var to const")
	second := strings.Index(expl, "quotes")
	assert.True(t, first >= 0 && second > first, "key changes keep their order")
	assert.Contains(t, expl, `href="/?tab=explanation" class="active"`)
}

func TestOutputPaneUsesHighlightedCode(t *testing.T) {
	d := basePage()
	d.State = orchestrator.Snapshot{Result: &refactor.Result{ImprovedCode: "x"}}
	d.HighlightedCode = `<pre class="chroma">HL</pre>`
	assert.Contains(t, render(t, OutputPane(d)), `<pre class="chroma">HL</pre>`)
}

func TestHighlighter(t *testing.T) {
	h := NewHighlighter(nil, DefaultStyle)

	out, err := h.Highlight("const a = \"<b>\";", "JavaScript")
	require.NoError(t, err)
	assert.Contains(t, out, `class="chroma"`)
	assert.Contains(t, out, "const")
	assert.Contains(t, out, "&lt;b&gt;")

	plain, err := h.Highlight("just <text>", "NoSuchLanguage")
	require.NoError(t, err)
	assert.Contains(t, plain, "just &lt;text&gt;")

	css, err := h.CSS()
	require.NoError(t, err)
	assert.Contains(t, css, ".chroma")
}
