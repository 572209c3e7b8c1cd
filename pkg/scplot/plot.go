// Package scplot renders 2-D embedding and feature-expression plots for
// single-cell datasets.
package scplot

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"scTools/pkg/scdata"
)

// Options controls persisted image geometry.
type Options struct {
	Embedding string
	Width     int
	Height    int
}

func (o Options) withDefaults() Options {
	if o.Embedding == "" {
		o.Embedding = "umap"
	}
	if o.Width == 0 {
		o.Width = 1024
	}
	if o.Height == 0 {
		o.Height = 768
	}
	return o
}

var zeroColor = drawing.Color{R: 0xd0, G: 0xd0, B: 0xd0, A: 0xff}

func scatterStyle(c drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    3,
		DotColor:    c,
	}
}

// DimPlot builds an embedding scatter with one series per category of the
// grouping column.
func DimPlot(ds *scdata.Dataset, embedding, group string, width, height int) (*chart.Chart, error) {
	xy, ok := ds.Embeddings[embedding]
	if !ok {
		return nil, fmt.Errorf("dataset %s has no %q embedding", ds.Project, embedding)
	}
	categories, ok := ds.Meta[group]
	if !ok {
		return nil, fmt.Errorf("dataset %s has no %q metadata column", ds.Project, group)
	}

	var order []string
	points := make(map[string][2][]float64)
	for j, category := range categories {
		p, seen := points[category]
		if !seen {
			order = append(order, category)
		}
		p[0] = append(p[0], xy[j][0])
		p[1] = append(p[1], xy[j][1])
		points[category] = p
	}

	var series []chart.Series
	for i, category := range order {
		p := points[category]
		series = append(series, chart.ContinuousSeries{
			Name:    category,
			Style:   scatterStyle(chart.GetDefaultColor(i)),
			XValues: p[0],
			YValues: p[1],
		})
	}

	graph := &chart.Chart{
		Title:  group,
		Width:  width,
		Height: height,
		XAxis:  chart.XAxis{Style: chart.Hidden()},
		YAxis:  chart.YAxis{Style: chart.Hidden()},
		Series: series,
	}
	return graph, nil
}

// FeaturePlot builds an embedding scatter with cells split into a grey
// zero-expression series and a colored expressing series.
func FeaturePlot(ds *scdata.Dataset, embedding, feature string, width, height int) (*chart.Chart, error) {
	xy, ok := ds.Embeddings[embedding]
	if !ok {
		return nil, fmt.Errorf("dataset %s has no %q embedding", ds.Project, embedding)
	}
	values, ok := ds.FetchFeature(feature)
	if !ok {
		return nil, fmt.Errorf("dataset %s has no feature %q", ds.Project, feature)
	}

	var zero, expr [2][]float64
	for j, v := range values {
		if v > 0 {
			expr[0] = append(expr[0], xy[j][0])
			expr[1] = append(expr[1], xy[j][1])
		} else {
			zero[0] = append(zero[0], xy[j][0])
			zero[1] = append(zero[1], xy[j][1])
		}
	}

	var series []chart.Series
	if len(zero[0]) > 0 {
		series = append(series, chart.ContinuousSeries{
			Name:    "absent",
			Style:   scatterStyle(zeroColor),
			XValues: zero[0],
			YValues: zero[1],
		})
	}
	if len(expr[0]) > 0 {
		series = append(series, chart.ContinuousSeries{
			Name:    feature,
			Style:   scatterStyle(chart.GetDefaultColor(0)),
			XValues: expr[0],
			YValues: expr[1],
		})
	}

	graph := &chart.Chart{
		Title:  feature,
		Width:  width,
		Height: height,
		XAxis:  chart.XAxis{Style: chart.Hidden()},
		YAxis:  chart.YAxis{Style: chart.Hidden()},
		Series: series,
	}
	return graph, nil
}

// ShowAll renders one embedding plot per grouping column and one expression
// plot per feature as PNG bytes to w. Empty lists are silent no-ops.
func ShowAll(ds *scdata.Dataset, groups, features []string, w io.Writer, opt Options) error {
	opt = opt.withDefaults()
	for _, group := range groups {
		graph, err := DimPlot(ds, opt.Embedding, group, opt.Width, opt.Height)
		if err != nil {
			return err
		}
		if err := graph.Render(chart.PNG, w); err != nil {
			return err
		}
	}
	for _, feature := range features {
		graph, err := FeaturePlot(ds, opt.Embedding, feature, opt.Width, opt.Height)
		if err != nil {
			return err
		}
		if err := graph.Render(chart.PNG, w); err != nil {
			return err
		}
	}
	return nil
}

// SaveAll writes UMAP_<group>.png and FeaturePlot_<feature>.png files into
// dir, creating it if absent. Existing files are overwritten.
func SaveAll(ds *scdata.Dataset, dir string, groups, features []string, opt Options) error {
	if len(groups) == 0 && len(features) == 0 {
		return nil
	}
	opt = opt.withDefaults()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	for _, group := range groups {
		graph, err := DimPlot(ds, opt.Embedding, group, opt.Width, opt.Height)
		if err != nil {
			return err
		}
		if err := writePNG(graph, filepath.Join(dir, fmt.Sprintf("UMAP_%s.png", group))); err != nil {
			return err
		}
	}
	for _, feature := range features {
		graph, err := FeaturePlot(ds, opt.Embedding, feature, opt.Width, opt.Height)
		if err != nil {
			return err
		}
		if err := writePNG(graph, filepath.Join(dir, fmt.Sprintf("FeaturePlot_%s.png", feature))); err != nil {
			return err
		}
	}
	return nil
}

func writePNG(graph *chart.Chart, path string) error {
	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := buffer.WriteTo(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
