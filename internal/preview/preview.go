// Package preview renders a page document to standalone HTML for the editor
// preview pane.
package preview

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"pagebuilder/internal/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// DeviceWidths is the viewport width in pixels used per preview device.
var DeviceWidths = map[string]int{
	"desktop": 1200,
	"tablet":  768,
	"mobile":  375,
}

// Options controls one render.
type Options struct {
	Title  string
	Device string
}

// Renderer turns documents into HTML. It is safe for concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	tmpl   *template.Template
}

func New() (*Renderer, error) {
	tmpl, err := template.New("preview").ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse preview templates: %w", err)
	}
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
		policy: bluemonday.UGCPolicy(),
		tmpl:   tmpl,
	}, nil
}

type blockView struct {
	ID    string
	Type  domain.BlockType
	Props domain.Props
	// Markdown is the sanitized rendering of a text block's content.
	Markdown template.HTML
}

type pageView struct {
	Title  string
	Device string
	Width  int
	Blocks []template.HTML
}

// Render writes the document as a complete HTML page. Blocks render in
// array order; a type without a template renders as a labelled placeholder.
func (r *Renderer) Render(w io.Writer, doc domain.PageContent, opts Options) error {
	device := opts.Device
	width, ok := DeviceWidths[device]
	if !ok {
		device, width = "desktop", DeviceWidths["desktop"]
	}

	page := pageView{Title: opts.Title, Device: device, Width: width}
	for _, b := range doc.Blocks {
		html, err := r.RenderBlock(b)
		if err != nil {
			return err
		}
		page.Blocks = append(page.Blocks, html)
	}
	if err := r.tmpl.ExecuteTemplate(w, "page", page); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

func (r *Renderer) RenderString(doc domain.PageContent, opts Options) (string, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, doc, opts); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderBlock renders one block fragment.
func (r *Renderer) RenderBlock(b domain.Block) (template.HTML, error) {
	view := blockView{ID: b.ID, Type: b.Type, Props: b.Props}
	if b.Type == domain.BlockTypeText {
		md, err := r.markdown(b.Props.String("content"))
		if err != nil {
			return "", err
		}
		view.Markdown = md
	}

	name := "block-" + string(b.Type)
	if r.tmpl.Lookup(name) == nil {
		name = "block-unknown"
	}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, view); err != nil {
		return "", fmt.Errorf("render block %s: %w", b.ID, err)
	}
	// the fragment was produced by html/template and is already escaped
	return template.HTML(buf.String()), nil
}

func (r *Renderer) markdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes())), nil
}
