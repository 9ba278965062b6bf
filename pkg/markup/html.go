package markup

import (
	"encoding/json"
	"html/template"
	"io"
	"sync"

	"github.com/r3d91ll/attngraph/pkg/errors"
	"github.com/r3d91ll/attngraph/pkg/layout"
	"github.com/r3d91ll/attngraph/pkg/view"
)

// SliderAreaHeight is the height of the control strip above the canvas.
const SliderAreaHeight = 80

// PageOptions configures an HTML artifact.
type PageOptions struct {
	// Title is the document title. Empty omits the <html> shell so the
	// artifact can be embedded in another page.
	Title string

	// WebSocketURL is the live session endpoint. When empty the artifact is
	// a static snapshot: it paints the scene, disables its controls and
	// says so in a caption.
	WebSocketURL string

	// ViewportHeight is the height of the scrolling canvas in pixels.
	ViewportHeight float64
}

type pageLayer struct {
	Index int
	Left  float64
	Width float64
}

type pageData struct {
	ID             string
	Title          string
	Width          float64
	Height         float64
	ViewportHeight float64
	SliderAreaH    int
	NameBlockX     float64
	NameBlockWidth float64
	Layers         []pageLayer
	Groups         []string
	Snapshot       bool
	Style          template.CSS
	Config         template.JS
}

type clientConfig struct {
	ID     string     `json:"id"`
	WS     string     `json:"ws,omitempty"`
	Layers int        `json:"layers"`
	Boot   view.Patch `json:"boot"`
}

// ScenePatch returns the patch that draws sc onto an empty canvas.
func ScenePatch(sc *view.Scene) view.Patch {
	var p view.Patch
	for _, layer := range sc.Layers {
		for i := range layer.Elements {
			el := layer.Elements[i]
			p.Ops = append(p.Ops, view.Op{Op: view.OpAdd, Key: el.Key, Group: layer.Group, El: &el})
		}
	}
	return p
}

var (
	pageOnce sync.Once
	pageTmpl *template.Template
)

func pageTemplate() *template.Template {
	pageOnce.Do(func() {
		pageTmpl = template.Must(template.New("page").Parse(tmplPage))
		template.Must(pageTmpl.New("client").Parse(tmplClient))
	})
	return pageTmpl
}

// WritePage writes the HTML artifact for sc. The canvas starts empty and is
// painted by the client from the embedded scene patch.
func WritePage(w io.Writer, sc *view.Scene, geo *layout.Geometry, opts PageOptions) error {
	if sc == nil || geo == nil {
		return errors.Internal("cannot write page without a scene and geometry")
	}
	if opts.ViewportHeight <= 0 {
		opts.ViewportHeight = view.DefaultSettings().ViewportHeight
	}

	cfg := clientConfig{ID: sc.ID, WS: opts.WebSocketURL, Layers: geo.L, Boot: ScenePatch(sc)}
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, errors.CategoryInternal, "failed to encode client config")
	}

	data := pageData{
		ID:             sc.ID,
		Title:          opts.Title,
		Width:          sc.Width,
		Height:         sc.Height,
		ViewportHeight: opts.ViewportHeight,
		SliderAreaH:    SliderAreaHeight,
		NameBlockX:     geo.NameBlockX,
		NameBlockWidth: geo.NameBlockWidth,
		Snapshot:       opts.WebSocketURL == "",
		Style:          template.CSS(Stylesheet(sc.ID, geo, "")),
		Config:         template.JS(cfgJSON),
	}
	for l := 0; l < geo.L; l++ {
		data.Layers = append(data.Layers, pageLayer{Index: l, Left: geo.SliderLeft(l), Width: geo.SliderGroupWidth})
	}
	for _, layer := range sc.Layers {
		if SVGGroup(layer.Group) {
			data.Groups = append(data.Groups, layer.Group)
		}
	}

	if err := pageTemplate().ExecuteTemplate(w, "page", data); err != nil {
		return errors.IOWrap(err, errors.ErrIOWriteFailed, "failed to write page")
	}
	return nil
}

const tmplPage = `{{if .Title}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
</head>
<body>
{{end}}<div id="{{.ID}}-wrapper" style="width:{{.Width}}px; font-family:sans-serif;">
  <div style="position:relative; height:{{.SliderAreaH}}px; overflow:visible;">
    <div style="position:absolute; left:{{.NameBlockX}}px; top:0px; width:{{.NameBlockWidth}}px; z-index:10;">
      <div style="position:relative;">
        <input id="{{.ID}}-ctl-search" type="text" placeholder="Search reaction..." autocomplete="off"
               style="width:100%; box-sizing:border-box; padding:3px 24px 3px 8px; font-size:11px; border:1px solid #bbb; border-radius:4px; font-family:monospace; outline:none;">
        <span id="{{.ID}}-ctl-search-clear"
              style="position:absolute; right:6px; top:50%; transform:translateY(-50%); cursor:pointer; font-size:14px; color:#999; display:none; user-select:none; line-height:1;">&times;</span>
        <div id="{{.ID}}-dd"
             style="position:absolute; left:0; right:0; top:100%; max-height:180px; overflow-y:auto; background:#fff; border:1px solid #bbb; border-top:none; border-radius:0 0 4px 4px; display:none; box-shadow:0 3px 8px rgba(0,0,0,0.15); z-index:20;"></div>
      </div>
    </div>
    <div style="position:absolute; left:{{.NameBlockX}}px; top:24px; width:{{.NameBlockWidth}}px; font-size:11px; color:#555; background:#f5f5f5; border:1px solid #ddd; border-radius:4px; padding:4px 8px; box-sizing:border-box;">
      <div style="display:flex; align-items:center; gap:4px;">
        <span style="font-weight:bold; min-width:50px;">Batch:</span>
        <input id="{{.ID}}-ctl-batch" type="range" min="0" max="0" value="0" style="flex:1; height:14px; cursor:pointer;">
        <span id="{{.ID}}-ctl-bval" style="min-width:20px; text-align:right; font-weight:bold;">0</span>
      </div>
    </div>
{{- range .Layers}}
    <div style="position:absolute; left:{{.Left}}px; top:6px; width:{{.Width}}px; font-size:10px; color:#555; background:#f5f5f5; border:1px solid #ddd; border-radius:4px; padding:3px 6px; box-sizing:border-box;">
      <div style="font-weight:bold; text-align:center; margin-bottom:2px; color:#333;">Layer {{.Index}}</div>
      <div style="display:flex; align-items:center; gap:2px;">
        <span style="min-width:14px;">H:</span>
        <input id="{{$.ID}}-ctl-head-{{.Index}}" type="range" min="0" max="0" value="0" data-layer="{{.Index}}" style="flex:1; height:12px; cursor:pointer;">
        <span id="{{$.ID}}-ctl-hval-{{.Index}}" style="min-width:18px; text-align:right;">0</span>
      </div>
      <div style="display:flex; align-items:center; gap:2px;">
        <span style="min-width:14px;">T:</span>
        <input id="{{$.ID}}-ctl-thresh-{{.Index}}" type="range" min="0" max="1000" value="0" data-layer="{{.Index}}" style="flex:1; height:12px; cursor:pointer;">
        <span id="{{$.ID}}-ctl-tval-{{.Index}}" style="min-width:50px; text-align:right; font-size:9px;"></span>
      </div>
    </div>
{{- end}}
  </div>
{{- if .Snapshot}}
  <div id="{{.ID}}-snapshot" style="font-size:10px; color:#888; padding:2px 0;">Static snapshot. Open it through attngraph serve for live controls.</div>
{{- end}}
  <div id="{{.ID}}-scroll" style="width:{{.Width}}px; height:{{.ViewportHeight}}px; overflow-y:auto; border:1px solid #ccc; border-radius:0 0 6px 6px; background:#fafafa;">
    <svg id="{{.ID}}-svg" width="{{.Width}}" height="{{.Height}}" xmlns="http://www.w3.org/2000/svg">
      <style>{{.Style}}</style>
{{- range .Groups}}
      <g data-group="{{.}}"></g>
{{- end}}
    </svg>
  </div>
</div>
<script>
{{template "client" .}}
</script>
{{if .Title}}</body>
</html>
{{end}}`
