// Package preview draws a simple SVG for a pedigree document that has no
// image of its own.
//
// The layout is left to Graphviz: people become boxes (male), ellipses
// (female) or diamonds (unknown), relationship and child-hub nodes become
// points, and outgoing edges become undirected lines. The result carries the
// same annotation vocabulary as editor-produced images: every linked person's
// node group gets a data-patient-id attribute and its id label the
// pedigree-patient-link class, so [markup.ApplyCurrentViewerStyle] and
// [markup.RemoveLink] work on previews too.
//
// [markup.ApplyCurrentViewerStyle]: github.com/matzehuels/pedigree/pkg/pedigree/markup
// [markup.RemoveLink]: github.com/matzehuels/pedigree/pkg/pedigree/markup
package preview
