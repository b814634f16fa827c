package markup

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/matzehuels/pedigree/pkg/errors"
)

// Markup vocabulary shared with the renderer.
const (
	// RegionAttr carries the linked patient id on the element that draws a node.
	RegionAttr = "data-patient-id"

	// LinkMarkerClass marks elements inside a region that show or link to the
	// patient record (labels, anchors).
	LinkMarkerClass = "pedigree-patient-link"

	// CurrentPatientClass highlights the region of the patient being viewed.
	CurrentPatientClass = "current-patient"

	classAttr = "class"
)

// ApplyCurrentViewerStyle highlights the regions linked to patientID and
// clears the highlight from every other element. A blank patientID, an empty
// markup or an id with no region returns svg unchanged. Applying the style
// again with the same id yields the same markup.
func ApplyCurrentViewerStyle(svg, patientID string) (string, error) {
	if strings.TrimSpace(patientID) == "" || svg == "" {
		return svg, nil
	}

	doc, err := parse(svg)
	if err != nil {
		return "", err
	}

	regions := findRegions(doc.Root(), patientID)
	if len(regions) == 0 {
		return svg, nil
	}

	matched := make(map[*etree.Element]bool, len(regions))
	for _, r := range regions {
		matched[r] = true
	}

	changed := false
	walk(doc.Root(), func(el *etree.Element) {
		if matched[el] {
			changed = addClass(el, CurrentPatientClass) || changed
		} else {
			changed = removeClass(el, CurrentPatientClass) || changed
		}
	})
	if !changed {
		return svg, nil
	}
	return serialize(doc)
}

// RemoveLink strips the patient link from every region linked to patientID:
// the region attribute and the highlight class are removed, and link markers
// inside the region are deleted. Other regions are untouched. No matching
// region returns svg unchanged.
func RemoveLink(svg, patientID string) (string, error) {
	if strings.TrimSpace(patientID) == "" || svg == "" {
		return svg, nil
	}

	doc, err := parse(svg)
	if err != nil {
		return "", err
	}

	regions := findRegions(doc.Root(), patientID)
	if len(regions) == 0 {
		return svg, nil
	}

	for _, r := range regions {
		r.RemoveAttr(RegionAttr)
		removeClass(r, CurrentPatientClass)

		var markers []*etree.Element
		for _, child := range r.ChildElements() {
			walk(child, func(el *etree.Element) {
				if hasClass(el, LinkMarkerClass) {
					markers = append(markers, el)
				}
			})
		}
		for _, m := range markers {
			if p := m.Parent(); p != nil {
				p.RemoveChild(m)
			}
		}
	}
	return serialize(doc)
}

// LinkedIDs returns the non-blank patient ids of all regions in document order.
func LinkedIDs(svg string) ([]string, error) {
	if svg == "" {
		return nil, nil
	}

	doc, err := parse(svg)
	if err != nil {
		return nil, err
	}

	var ids []string
	walk(doc.Root(), func(el *etree.Element) {
		if id := el.SelectAttrValue(RegionAttr, ""); strings.TrimSpace(id) != "" {
			ids = append(ids, id)
		}
	})
	return ids, nil
}

// =============================================================================
// DOM helpers
// =============================================================================

func parse(svg string) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.PreserveCData = true
	if err := doc.ReadFromString(svg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedMarkup, err, "parse pedigree image")
	}
	if doc.Root() == nil {
		return nil, errors.New(errors.ErrCodeMalformedMarkup, "pedigree image has no root element")
	}
	return doc, nil
}

func serialize(doc *etree.Document) (string, error) {
	s, err := doc.WriteToString()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "write pedigree image")
	}
	return s, nil
}

// findRegions returns the elements whose region id matches patientID,
// ignoring case, in document order.
func findRegions(root *etree.Element, patientID string) []*etree.Element {
	var out []*etree.Element
	walk(root, func(el *etree.Element) {
		if a := el.SelectAttr(RegionAttr); a != nil && strings.EqualFold(a.Value, patientID) {
			out = append(out, el)
		}
	})
	return out
}

// walk visits el and its descendants depth-first in document order.
func walk(el *etree.Element, fn func(*etree.Element)) {
	if el == nil {
		return
	}
	fn(el)
	for _, child := range el.ChildElements() {
		walk(child, fn)
	}
}

func hasClass(el *etree.Element, class string) bool {
	for _, c := range strings.Fields(el.SelectAttrValue(classAttr, "")) {
		if c == class {
			return true
		}
	}
	return false
}

// addClass adds class to el and reports whether the attribute changed.
func addClass(el *etree.Element, class string) bool {
	if hasClass(el, class) {
		return false
	}
	classes := strings.Fields(el.SelectAttrValue(classAttr, ""))
	el.CreateAttr(classAttr, strings.Join(append(classes, class), " "))
	return true
}

// removeClass removes class from el and reports whether the attribute changed.
// An attribute left empty is dropped.
func removeClass(el *etree.Element, class string) bool {
	if !hasClass(el, class) {
		return false
	}
	var kept []string
	for _, c := range strings.Fields(el.SelectAttrValue(classAttr, "")) {
		if c != class {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		el.RemoveAttr(classAttr)
	} else {
		el.CreateAttr(classAttr, strings.Join(kept, " "))
	}
	return true
}
