package export

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/san-kum/springz/internal/springz"
)

// Style controls SVG output.
type Style struct {
	Width, Height int
	Background    string
	NodeFill      string
	LockedFill    string
	Stroke        string
	Labels        bool
}

func DefaultStyle() Style {
	return Style{
		Width:      800,
		Height:     600,
		Background: "#0a0a0a",
		NodeFill:   "#00ccff",
		LockedFill: "#ff4444",
		Stroke:     "#444466",
		Labels:     true,
	}
}

// LayoutToSVG draws connections as lines and nodes as circles, scaled to
// fit the canvas with 10% padding. Inactive connections are dashed.
func LayoutToSVG(nodes []*springz.Node, conns []*springz.Connection, style Style) string {
	if len(nodes) == 0 {
		return ""
	}

	// Find bounds
	minX, maxX := nodes[0].X-nodes[0].Radius, nodes[0].X+nodes[0].Radius
	minY, maxY := nodes[0].Y-nodes[0].Radius, nodes[0].Y+nodes[0].Radius
	for _, n := range nodes {
		minX = math.Min(minX, n.X-n.Radius)
		maxX = math.Max(maxX, n.X+n.Radius)
		minY = math.Min(minY, n.Y-n.Radius)
		maxY = math.Max(maxY, n.Y+n.Radius)
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	// Uniform scale keeps circles round.
	scale := math.Min(float64(style.Width)/rangeX, float64(style.Height)/rangeY)
	px := func(x float64) float64 { return (x - minX) * scale }
	py := func(y float64) float64 { return float64(style.Height) - (y-minY)*scale }

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<g stroke="%s" stroke-width="1.5">
`, style.Width, style.Height, style.Width, style.Height, style.Background, style.Stroke))

	for _, c := range conns {
		dash := ""
		if !c.Active {
			dash = ` stroke-dasharray="4 3"`
		}
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"%s/>
`, px(c.Node1().X), py(c.Node1().Y), px(c.Node2().X), py(c.Node2().Y), dash))
	}
	sb.WriteString("</g>\n<g>\n")

	for _, n := range nodes {
		fill := style.NodeFill
		if n.Locked {
			fill = style.LockedFill
		}
		r := math.Max(n.Radius*scale, 2)
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, px(n.X), py(n.Y), r, fill))
		if style.Labels {
			sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" fill="#cccccc" font-size="10" font-family="monospace">%s</text>
`, px(n.X)+r+2, py(n.Y)+3, html.EscapeString(n.Label())))
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}
