// Package markup patches patient links in a rendered pedigree image.
//
// The image is an SVG document treated as opaque except for its annotation
// regions. A region is any element carrying a [RegionAttr] attribute whose
// value is the id of the linked patient record, the same value a pedigree node
// holds under its patient link property:
//
//	<g class="node" data-patient-id="P0000001">
//	  <circle r="20"/>
//	  <text class="pedigree-patient-link">P0000001</text>
//	</g>
//
// Regions are located by id value, never by position, so the image and the
// pedigree document can be edited independently of node order.
//
// # Operations
//
// [ApplyCurrentViewerStyle] marks the regions of one patient with
// [CurrentPatientClass] so a viewer sees their own node highlighted.
// [RemoveLink] severs the link of one patient from the image. Both parse the
// SVG into a DOM, edit it, and return a new string; input strings are never
// modified and an operation that matches nothing returns its input as is.
//
// Ids are compared case-insensitively, the same rule the pedigree document
// uses when unlinking, so both halves of a pedigree always agree on which
// nodes a patient id refers to.
package markup
