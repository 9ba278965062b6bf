package markup

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/r3d91ll/attngraph/pkg/layout"
)

// fixed class rules; %[1]s is the instance id.
var ruleTemplates = []string{
	".%[1]s-hl { fill:none; stroke:#ff69b4; stroke-width:2; pointer-events:none; rx:2; ry:2; }",
	".%[1]s-conn { stroke:#ff69b4; pointer-events:none; }",
	".%[1]s-tl { stroke:#aaa; pointer-events:none; }",
	".%[1]s-tt { pointer-events:none; }",
	".%[1]s-vl { pointer-events:none; font-size:9px; fill:#c0458a; font-weight:bold; }",
	".%[1]s-nbg { fill:#1a1a1a; rx:1; ry:1; }",
	".%[1]s-nred { fill:#cc2222; rx:1; ry:1; pointer-events:none; }",
	".%[1]s-nbar { fill:transparent; stroke:none; cursor:pointer; rx:1; ry:1; }",
	".%[1]s-nbar:hover { stroke:#ffcc00; stroke-width:1.2; }",
	".%[1]s-guide { stroke:#aaa; stroke-width:0.5; stroke-dasharray:2,2; pointer-events:none; }",
	".%[1]s-rowband { fill:#d0d0d0; opacity:0.35; pointer-events:none; }",
	".%[1]s-pinband { fill:#ffe066; opacity:0.38; pointer-events:none; }",
}

// Stylesheet returns the CSS rules for instance id. Node column classes
// are generated for every column of geo.
func Stylesheet(id string, geo *layout.Geometry, fontFamily string) string {
	var sb strings.Builder
	cols := 0
	font := 5.0
	if geo != nil {
		cols = len(geo.ColX)
		font = geo.FontSize()
	}
	for c := 0; c < cols; c++ {
		col := layout.Color(c)
		fmt.Fprintf(&sb, ".%s-ncol%d { fill:%s; stroke:%s; stroke-width:0.3; cursor:pointer; }\n", id, c, col.Fill, col.Stroke)
		fmt.Fprintf(&sb, ".%s-ncol%d:hover { fill:%s; }\n", id, c, col.Hover)
	}
	for _, rule := range ruleTemplates {
		fmt.Fprintf(&sb, rule+"\n", id)
	}
	fmt.Fprintf(&sb, ".%s-ntxt { fill:#fff; font-size:%spx; font-family:monospace; pointer-events:none; }\n", id, num(font))
	if fontFamily != "" {
		fmt.Fprintf(&sb, "#%s-svg { font-family:%s; }\n", id, fontFamily)
	}
	return sb.String()
}

func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e4)/1e4, 'f', -1, 64)
}
