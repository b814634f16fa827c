package pedigree

import (
	"github.com/matzehuels/pedigree/pkg/errors"
	"github.com/matzehuels/pedigree/pkg/pedigree/markup"
)

// Pedigree owns one pedigree document and its rendered image and keeps the two
// consistent when patient links are removed.
//
// A Pedigree is not safe for concurrent mutation. Callers that share one
// across goroutines must serialize access themselves.
type Pedigree struct {
	doc   *Document
	image string
}

// New builds a pedigree from a document and its SVG image. The document is
// copied, so later changes to d do not reach the pedigree. An empty image is
// allowed.
//
// New fails with ErrCodeInvalidPedigree when d is nil or has no nodes.
func New(d *Document, image string) (*Pedigree, error) {
	if d == nil || len(d.Nodes) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidPedigree, "pedigree has no nodes")
	}
	return &Pedigree{doc: d.Clone(), image: image}, nil
}

// Document returns a snapshot of the pedigree document. Changes to the
// snapshot do not affect the pedigree.
func (p *Pedigree) Document() *Document {
	return p.doc.Clone()
}

// NodeCount returns the number of document nodes.
func (p *Pedigree) NodeCount() int {
	return len(p.doc.Nodes)
}

// Image returns the SVG image with the regions of viewerID highlighted.
// The stored image is not modified.
func (p *Pedigree) Image(viewerID string) (string, error) {
	return markup.ApplyCurrentViewerStyle(p.image, viewerID)
}

// RawImage returns the stored SVG image without any viewer highlight.
func (p *Pedigree) RawImage() string {
	return p.image
}

// ExtractIDs returns the non-blank patient ids linked from the pedigree.
func (p *Pedigree) ExtractIDs() ([]string, error) {
	return ExtractLinkedIDs(p.doc)
}

// ExtractLinkedProperties returns copies of the non-empty node property bags.
func (p *Pedigree) ExtractLinkedProperties() ([]Properties, error) {
	bags, err := ExtractLinkedProperties(p.doc)
	if err != nil {
		return nil, err
	}
	out := make([]Properties, len(bags))
	for i, b := range bags {
		out[i] = b.Clone()
	}
	return out, nil
}

// RemoveLink removes every link to patientID from the image and then from the
// document, returning the number of document nodes unlinked.
//
// The two steps are not atomic. If the image step fails the document is left
// as it was; if the document step fails the image change is kept.
func (p *Pedigree) RemoveLink(patientID string) (int, error) {
	image, err := markup.RemoveLink(p.image, patientID)
	if err != nil {
		return 0, err
	}
	p.image = image

	return RemoveLink(p.doc, patientID)
}
