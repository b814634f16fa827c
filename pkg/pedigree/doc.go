// Package pedigree provides the family-tree data model and the patient links
// stored in it.
//
// A pedigree is a JSON graph document produced by the pedigree editor paired
// with an SVG image rendered from it. Nodes of the graph may link to patient
// records through the [PatientLinkKey] property. This package reads those links
// and removes them, keeping the document and the image in step.
//
// # Document Format
//
// Only the node list under "GG" is interpreted; every other field is preserved:
//
//	{
//	  "GG": [
//	    {"id": 0, "prop": {"phenotipsId": "P0000001", "fName": "Ann"}, "outedges": [{"to": 2}]},
//	    {"id": 1, "prop": {}},
//	    {"id": 2}
//	  ],
//	  "ranks": [1, 1, 2],
//	  "probandNodeID": 0
//	}
//
// # Core Types
//
//   - [Document], [Node], [Properties]: the graph and its property bags
//   - [Pedigree]: sole owner of one document and one image
//
// # Link Operations
//
// [ExtractLinkedProperties] and [ExtractLinkedIDs] read links in node order.
// [RemoveLink] severs every link to one patient, comparing ids without regard
// to case. [Pedigree.RemoveLink] applies the same removal to the image through
// package [markup].
//
// # Errors
//
// Structural problems surface as coded errors from pkg/errors:
//
//   - ErrCodeMalformedDocument: node list missing or of the wrong shape
//   - ErrCodeInvalidPedigree: building a [Pedigree] from an empty document
//   - ErrCodeMalformedMarkup: an image that is not well-formed XML
//
// Removing a link that does not exist is not an error.
//
// [markup]: github.com/matzehuels/pedigree/pkg/pedigree/markup
package pedigree
