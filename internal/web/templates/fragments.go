// Package templates holds the HTMX fragments returned by the web handlers.
//
// fragments.templ is the source of truth. This file renders the same markup
// through templ's runtime helpers.
//
// TODO: delete this file once fragments_templ.go is generated with
// `templ generate` and checked in.
package templates

import (
	"context"
	"io"

	"github.com/JonMunkholm/merger/internal/core"
	"github.com/a-h/templ"
)

// htmlWriter collects the first write error so fragments can be written
// without checking every call.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (hw *htmlWriter) raw(s string) {
	if hw.err == nil {
		_, hw.err = io.WriteString(hw.w, s)
	}
}

func (hw *htmlWriter) text(s string) {
	hw.raw(templ.EscapeString(s))
}

// ErrorAlert renders a user message as an alert box.
func ErrorAlert(msg core.UserMessage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<div class="alert alert-error" role="alert"><p class="alert-message">`)
		hw.text(msg.Message)
		hw.raw(`</p>`)
		if msg.Action != "" {
			hw.raw(`<p class="alert-action">`)
			hw.text(msg.Action)
			hw.raw(`</p>`)
		}
		hw.raw(`<p class="alert-code">Code: `)
		hw.text(msg.Code)
		hw.raw(`</p></div>`)
		return hw.err
	})
}

// PreviewTable renders a preview as an HTML table. Missing values show as
// empty cells.
func PreviewTable(p *core.Preview) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<div class="preview"><p class="preview-caption">`)
		hw.text(p.Name)
		hw.raw(" ")
		hw.text(previewCaption(p))
		hw.raw(`</p><table><thead><tr>`)
		for _, c := range p.Columns {
			hw.raw(`<th>`)
			hw.text(c)
			hw.raw(`</th>`)
		}
		hw.raw(`</tr></thead><tbody>`)
		for _, row := range p.Rows {
			hw.raw(`<tr>`)
			for _, v := range row {
				hw.raw(`<td>`)
				hw.text(v)
				hw.raw(`</td>`)
			}
			hw.raw(`</tr>`)
		}
		hw.raw(`</tbody></table></div>`)
		return hw.err
	})
}

// SessionSummary renders the step log, the remaining sources and the
// working table's shape.
func SessionSummary(snap *core.Snapshot) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<section class="session" id="`)
		hw.text("session-" + snap.SessionID)
		hw.raw(`">`)

		if len(snap.Steps) == 0 {
			hw.raw(`<p class="status">No merge yet. Choose a primary and a secondary file to begin.</p>`)
		} else {
			hw.raw(`<ol class="steps">`)
			for _, step := range snap.Steps {
				hw.raw(`<li>`)
				hw.text(step.Message())
				hw.raw(` <span class="mode">`)
				hw.text(step.Mode.Label())
				hw.raw(`</span></li>`)
			}
			hw.raw(`</ol><p class="status">`)
			hw.text(workingShape(snap))
			hw.raw(`</p>`)
		}

		hw.raw(`<ul class="sources">`)
		for _, src := range snap.Sources {
			hw.raw(`<li class="`)
			hw.text(sourceClass(snap, src.ID))
			hw.raw(`" data-source-id="`)
			hw.text(src.ID)
			hw.raw(`">`)
			hw.text(src.Label)
			hw.raw(` <span class="rows">`)
			hw.text(rowCount(src.Rows))
			hw.raw(`</span></li>`)
		}
		hw.raw(`</ul></section>`)
		return hw.err
	})
}
