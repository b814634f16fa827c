package preview

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/pedigree/pkg/errors"
	"github.com/matzehuels/pedigree/pkg/pedigree"
	"github.com/matzehuels/pedigree/pkg/pedigree/markup"
)

// Options configures preview rendering.
type Options struct {
	// Detailed starts every person label with the graph node id ("#3").
	Detailed bool
}

// Editor node markers for non-person nodes.
const (
	flagRelationship = "rel"
	flagChildHub     = "chhub"
)

func nodeName(id int) string { return "n" + strconv.Itoa(id) }

// ToDOT converts a pedigree document to Graphviz DOT.
func ToDOT(d *pedigree.Document, opts Options) (string, error) {
	if d == nil || d.Nodes == nil {
		return "", errors.New(errors.ErrCodeMalformedDocument, "document has no node list")
	}

	for i, n := range d.Nodes {
		if !n.HasID() {
			return "", errors.New(errors.ErrCodeMalformedDocument, "node %d has no integer id", i)
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [style=filled, fillcolor=white, fontsize=14];\n")
	buf.WriteString("  edge [arrowhead=none];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	for _, n := range d.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", nodeName(n.ID), strings.Join(fmtAttrs(n, opts), ", "))
	}

	buf.WriteString("\n")
	for _, n := range d.Nodes {
		for _, to := range n.Targets() {
			fmt.Fprintf(&buf, "  %q -> %q;\n", nodeName(n.ID), nodeName(to))
		}
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func fmtAttrs(n pedigree.Node, opts Options) []string {
	attrs := []string{fmt.Sprintf("id=%q", "node-"+strconv.Itoa(n.ID))}
	if n.Flag(flagRelationship) || n.Flag(flagChildHub) {
		return append(attrs, "shape=point", `label=""`)
	}

	attrs = append(attrs, "shape="+shapeFor(n.Properties), fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed)))
	return attrs
}

func shapeFor(p pedigree.Properties) string {
	switch g, _ := p["gender"].(string); strings.ToUpper(g) {
	case "M":
		return "box"
	case "F":
		return "ellipse"
	default:
		return "diamond"
	}
}

// fmtLabel puts the linked id on the last line, where annotate expects it.
func fmtLabel(n pedigree.Node, detailed bool) string {
	var lines []string
	if detailed {
		lines = append(lines, "#"+strconv.Itoa(n.ID))
	}
	if name := n.Properties.DisplayName(); name != "" {
		lines = append(lines, name)
	}
	if id, ok := n.Properties.LinkedID(); ok && strings.TrimSpace(id) != "" {
		lines = append(lines, id)
	}
	return strings.Join(lines, "\n")
}

// Render lays out the document with Graphviz and returns an annotated SVG.
func Render(ctx context.Context, d *pedigree.Document, opts Options) (string, error) {
	dot, err := ToDOT(d, opts)
	if err != nil {
		return "", err
	}

	svg, err := renderSVG(ctx, dot)
	if err != nil {
		return "", err
	}
	return annotate(svg, links(d))
}

func renderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// links maps DOT node names to the linked patient ids of person nodes.
func links(d *pedigree.Document) map[string]string {
	out := make(map[string]string)
	for _, n := range d.Nodes {
		if id, ok := n.Properties.LinkedID(); ok && strings.TrimSpace(id) != "" {
			out[nodeName(n.ID)] = id
		}
	}
	return out
}

// annotate marks the Graphviz node groups of linked people. Graphviz writes
// each node as <g class="node"><title>name</title>...<text>line</text></g>.
func annotate(svg []byte, linked map[string]string) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(svg); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "read graphviz output")
	}
	if doc.Root() == nil {
		return "", errors.New(errors.ErrCodeInternal, "graphviz output has no root element")
	}

	for _, g := range doc.Root().FindElements("//g[@class='node']") {
		title := g.SelectElement("title")
		if title == nil {
			continue
		}
		id, ok := linked[strings.TrimSpace(title.Text())]
		if !ok {
			continue
		}

		g.CreateAttr(markup.RegionAttr, id)
		if texts := g.SelectElements("text"); len(texts) > 0 {
			last := texts[len(texts)-1]
			class := strings.TrimSpace(last.SelectAttrValue("class", "") + " " + markup.LinkMarkerClass)
			last.CreateAttr("class", class)
		}
	}

	out, err := doc.WriteToString()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "write preview")
	}
	return out, nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg element with one whose
// viewBox starts at the origin and whose size matches it.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
