package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/SyafiqSamsolnizam/DFR-of-Fagopyrum/internal/identity"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
	"gonum.org/v1/plot/vg/vgsvg"
)

// The color scale is pinned to the biologically interesting high-identity
// range; values below scaleMin render with the same color as scaleMin.
const (
	scaleMin = 60
	scaleMax = 100
)

const (
	figWidth  = 10 * vg.Inch
	figHeight = 8 * vg.Inch
	barWidth  = 1.2 * vg.Inch
)

// matrixGrid adapts a matrix to plotter.GridXYZ. Rows are flipped so the
// first identifier draws at the top, and values are clamped into the fixed
// color scale.
type matrixGrid struct {
	vals [][]float64
}

func (g matrixGrid) Dims() (int, int) { n := len(g.vals); return n, n }
func (g matrixGrid) X(c int) float64  { return float64(c) }
func (g matrixGrid) Y(r int) float64  { return float64(r) }

func (g matrixGrid) Z(c, r int) float64 {
	v := g.vals[len(g.vals)-1-r][c]
	if v < scaleMin {
		return scaleMin
	}
	if v > scaleMax {
		return scaleMax
	}
	return v
}

// labelTicks places one tick per cell center, labelled with the identifier.
type labelTicks []string

func (lt labelTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	for i, s := range lt {
		v := float64(i)
		if v < min || v > max {
			continue
		}
		ticks = append(ticks, plot.Tick{Value: v, Label: s})
	}
	return ticks
}

func reversed(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[len(ss)-1-i] = s
	}
	return out
}

// WriteHeatmap renders the annotated identity heatmap to path. The image
// format follows the file extension; pdf, svg and png are supported.
func WriteHeatmap(path string, m *identity.Matrix) error {
	n := len(m.Order)
	if n == 0 {
		return fmt.Errorf("report: empty matrix")
	}

	cm := moreland.SmoothBlueRed()
	cm.SetMin(scaleMin)
	cm.SetMax(scaleMax)

	p := plot.New()
	hm := plotter.NewHeatMap(matrixGrid{vals: m.Values}, cm.Palette(255))
	hm.Min = scaleMin
	hm.Max = scaleMax
	p.Add(hm)

	p.X.Tick.Marker = labelTicks(m.Order)
	p.Y.Tick.Marker = labelTicks(reversed(m.Order))
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.YAlign = text.YCenter
	p.X.Tick.Length = 0
	p.Y.Tick.Length = 0
	p.X.Padding = 0
	p.Y.Padding = 0

	labels, err := cellLabels(m)
	if err != nil {
		return err
	}
	p.Add(labels)

	bar := plot.New()
	cb := &plotter.ColorBar{ColorMap: cm}
	cb.Vertical = true
	bar.Add(cb)
	bar.HideX()
	bar.Y.Label.Text = "Identity Percentage"

	return save(path, p, bar)
}

// cellLabels annotates every cell with its value to one decimal place,
// centered on the cell.
func cellLabels(m *identity.Matrix) (*plotter.Labels, error) {
	n := len(m.Order)
	xyl := plotter.XYLabels{
		XYs:    make(plotter.XYs, 0, n*n),
		Labels: make([]string, 0, n*n),
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			xyl.XYs = append(xyl.XYs, plotter.XY{X: float64(j), Y: float64(n - 1 - i)})
			xyl.Labels = append(xyl.Labels, fmt.Sprintf("%.1f", m.Values[i][j]))
		}
	}
	labels, err := plotter.NewLabels(xyl)
	if err != nil {
		return nil, err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = text.XCenter
		labels.TextStyle[i].YAlign = text.YCenter
	}
	return labels, nil
}

// supportedFormat reports whether format (a file extension without the dot)
// names a renderable image type.
func supportedFormat(format string) bool {
	switch format {
	case "png", "pdf", "svg":
		return true
	}
	return false
}

// save draws the heatmap and its color bar side by side on a canvas chosen
// by the path's extension.
func save(path string, p, bar *plot.Plot) error {
	render := func(dc draw.Canvas) {
		main := draw.Crop(dc, 0, -barWidth, 0, 0)
		side := draw.Crop(dc, figWidth-barWidth, 0, 0, 0)
		p.Draw(main)
		bar.Draw(side)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !supportedFormat(strings.TrimPrefix(ext, ".")) {
		return fmt.Errorf("report: unsupported image format %q", filepath.Ext(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch ext {
	case ".png":
		c := vgimg.NewWith(vgimg.UseWH(figWidth, figHeight), vgimg.UseDPI(300))
		render(draw.New(c))
		png := vgimg.PngCanvas{Canvas: c}
		if _, err := png.WriteTo(f); err != nil {
			return err
		}
	case ".pdf":
		c := vgpdf.New(figWidth, figHeight)
		render(draw.New(c))
		if _, err := c.WriteTo(f); err != nil {
			return err
		}
	case ".svg":
		c := vgsvg.New(figWidth, figHeight)
		render(draw.New(c))
		if _, err := c.WriteTo(f); err != nil {
			return err
		}
	}
	return nil
}
