// Package markup turns a view scene into markup: a standalone SVG snapshot
// and an embeddable HTML artifact that drives a live view over a websocket.
package markup

import (
	"fmt"
	"html"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/r3d91ll/attngraph/pkg/layout"
	"github.com/r3d91ll/attngraph/pkg/view"
)

const (
	// SVGVersion is the SVG specification version used.
	SVGVersion = "1.1"

	// SVGNamespace is the XML namespace for SVG.
	SVGNamespace = "http://www.w3.org/2000/svg"
)

// SVGConfig specifies options for SVG output.
type SVGConfig struct {
	// XMLHeader writes the <?xml?> prolog, for standalone files.
	XMLHeader bool

	// Background is the canvas colour. Empty means transparent.
	Background string

	// FontFamily is used for labels.
	FontFamily string
}

// DefaultSVGConfig returns the options used for .svg files.
func DefaultSVGConfig() *SVGConfig {
	return &SVGConfig{
		XMLHeader:  true,
		Background: "#fafafa",
		FontFamily: "sans-serif",
	}
}

// SVGBuilder writes a scene as SVG.
type SVGBuilder struct {
	config *SVGConfig
	scene  *view.Scene
	geo    *layout.Geometry
}

// NewSVGBuilder creates a builder. If config is nil, DefaultSVGConfig is
// used.
func NewSVGBuilder(scene *view.Scene, geo *layout.Geometry, config *SVGConfig) *SVGBuilder {
	if config == nil {
		config = DefaultSVGConfig()
	}
	return &SVGBuilder{config: config, scene: scene, geo: geo}
}

// Build renders the complete SVG document.
func (b *SVGBuilder) Build() string {
	var sb strings.Builder
	if b.config.XMLHeader {
		sb.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	}
	fmt.Fprintf(&sb, "<svg id=\"%s-svg\" version=\"%s\" xmlns=\"%s\" width=\"%s\" height=\"%s\" viewBox=\"0 0 %s %s\">\n",
		b.scene.ID, SVGVersion, SVGNamespace,
		num(b.scene.Width), num(b.scene.Height), num(b.scene.Width), num(b.scene.Height))
	sb.WriteString("<style>\n")
	sb.WriteString(Stylesheet(b.scene.ID, b.geo, b.config.FontFamily))
	sb.WriteString("</style>\n")
	if b.config.Background != "" {
		fmt.Fprintf(&sb, "<rect width=\"100%%\" height=\"100%%\" fill=\"%s\"/>\n", b.config.Background)
	}
	b.writeBody(&sb)
	sb.WriteString("</svg>\n")
	return sb.String()
}

// BuildBody renders only the group elements, for inlining into an existing
// <svg>.
func (b *SVGBuilder) BuildBody() string {
	var sb strings.Builder
	b.writeBody(&sb)
	return sb.String()
}

// WriteTo writes the SVG document to w.
func (b *SVGBuilder) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, b.Build())
	return int64(n), err
}

func (b *SVGBuilder) writeBody(sb *strings.Builder) {
	for _, layer := range b.scene.Layers {
		if !SVGGroup(layer.Group) {
			continue
		}
		fmt.Fprintf(sb, "<g data-group=\"%s\">", layer.Group)
		for _, el := range layer.Elements {
			writeElement(sb, b.scene.ID, el)
		}
		sb.WriteString("</g>\n")
	}
}

// SVGGroup reports whether group g is drawn inside the SVG canvas.
func SVGGroup(g string) bool {
	switch g {
	case view.GroupControls, view.GroupDropdown:
		return false
	}
	return true
}

func writeElement(sb *strings.Builder, id string, el view.Element) {
	if el.Tag == "tooltip" {
		writeTooltip(sb, id, el)
		return
	}
	fmt.Fprintf(sb, "<%s id=\"%s-%s\"", el.Tag, id, el.Key)
	for _, k := range sortedKeys(el.Attrs) {
		v := el.Attrs[k]
		if k == "class" {
			v = scopedClass(id, v)
		}
		fmt.Fprintf(sb, " %s=\"%s\"", k, html.EscapeString(v))
	}
	if el.Text == "" {
		sb.WriteString("/>")
		return
	}
	fmt.Fprintf(sb, ">%s</%s>", html.EscapeString(el.Text), el.Tag)
}

// writeTooltip draws the tooltip text lines. The backing box is sized by
// the client from the rendered text, so snapshots show text only.
func writeTooltip(sb *strings.Builder, id string, el view.Element) {
	x, y, anchor := el.Attrs["x"], el.Attrs["y"], el.Attrs["text-anchor"]
	fmt.Fprintf(sb, "<text id=\"%s-tt1\" class=\"%s\" x=\"%s\" y=\"%s\" text-anchor=\"%s\" font-size=\"11\" fill=\"#333\">%s</text>",
		id, scopedClass(id, "tt"), x, y, anchor, html.EscapeString(el.Text))
	if line2, ok := el.Attrs["line2"]; ok {
		y0, _ := strconv.ParseFloat(y, 64)
		fmt.Fprintf(sb, "<text id=\"%s-tt2\" class=\"%s\" x=\"%s\" y=\"%s\" text-anchor=\"%s\" font-size=\"10\" fill=\"#888\">%s</text>",
			id, scopedClass(id, "tt"), x, num(y0+13), anchor, html.EscapeString(line2))
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// scopedClass prefixes a scene class with the instance id so several views
// can share a document.
func scopedClass(id, class string) string {
	return id + "-" + class
}
