package pedigree

import (
	"strings"

	"github.com/matzehuels/pedigree/pkg/errors"
)

// ExtractLinkedProperties returns the property bags of every node that has a
// non-empty bag, in node order. The bags are the document's own maps, so
// changes made through them are visible in d.
//
// A document without a node list fails with ErrCodeMalformedDocument.
func ExtractLinkedProperties(d *Document) ([]Properties, error) {
	if d == nil || d.Nodes == nil {
		return nil, errors.New(errors.ErrCodeMalformedDocument, "pedigree has no node list")
	}

	out := make([]Properties, 0, len(d.Nodes))
	for _, n := range d.Nodes {
		if len(n.Properties) == 0 {
			continue
		}
		out = append(out, n.Properties)
	}
	return out, nil
}

// ExtractLinkedIDs returns the patient ids linked from the document, in node
// order. Absent and blank ids are skipped. Ids are neither deduplicated nor
// case-normalized.
func ExtractLinkedIDs(d *Document) ([]string, error) {
	bags, err := ExtractLinkedProperties(d)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(bags))
	for _, p := range bags {
		id, ok := p.LinkedID()
		if !ok || strings.TrimSpace(id) == "" {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// RemoveLink unlinks every node whose patient id equals patientID, ignoring
// case. Only the link property is deleted; nodes and their other properties
// stay. It returns the number of nodes unlinked, zero when nothing matched.
func RemoveLink(d *Document, patientID string) (int, error) {
	bags, err := ExtractLinkedProperties(d)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, p := range bags {
		if p.IsLinkedTo(patientID) {
			p.Unlink()
			removed++
		}
	}
	return removed, nil
}
