package pedigree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/pedigree/pkg/errors"
)

// PatientLinkKey is the property under which a node stores the id of the
// patient record it is linked to.
const PatientLinkKey = "phenotipsId"

// Serialized field names.
const (
	keyNodes    = "GG"
	keyID       = "id"
	keyProps    = "prop"
	keyOutEdges = "outedges"
)

// Property names written by the pedigree editor that the display helpers read.
const (
	propFirstName  = "fName"
	propLastName   = "lName"
	propExternalID = "externalID"
)

// =============================================================================
// Document - Pedigree Graph Serialization
// =============================================================================

// Document is a pedigree graph as produced by the pedigree editor.
//
// Only the node list is interpreted. Every other top-level field (ranks,
// orderings, positions, proband id, ...) is carried through decode and encode
// untouched, so a document survives a round trip byte-for-byte in content.
type Document struct {
	Nodes []Node

	extra map[string]json.RawMessage
}

// Node is one person or relationship node of the pedigree graph.
//
// Outgoing edges stay in their serialized form; [Node.Targets] decodes them.
type Node struct {
	ID         int
	Properties Properties

	hasID bool
	extra map[string]json.RawMessage
}

// edge is the serialized form of one outgoing edge.
type edge struct {
	To int `json:"to"`
}

// NewDocument builds a document from nodes. Node ids are written on encode.
func NewDocument(nodes ...Node) *Document {
	if nodes == nil {
		nodes = []Node{}
	}
	for i := range nodes {
		nodes[i].hasID = true
	}
	return &Document{Nodes: nodes}
}

// NewNode builds a node with the given id, property bag and outgoing edges.
func NewNode(id int, props Properties, targets ...int) Node {
	n := Node{ID: id, Properties: props, hasID: true}
	if len(targets) > 0 {
		edges := make([]edge, len(targets))
		for i, t := range targets {
			edges[i] = edge{To: t}
		}
		data, _ := json.Marshal(edges)
		n.extra = map[string]json.RawMessage{keyOutEdges: data}
	}
	return n
}

// HasID reports whether the node carries an integer id.
func (n Node) HasID() bool { return n.hasID }

// Targets returns the ids of the nodes this node has outgoing edges to.
// Entries that are not edge objects are skipped.
func (n Node) Targets() []int {
	data, ok := n.extra[keyOutEdges]
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	var out []int
	for _, item := range items {
		var e edge
		if err := json.Unmarshal(item, &e); err != nil {
			continue
		}
		out = append(out, e.To)
	}
	return out
}

// Flag reports whether the node carries a top-level boolean field set to
// true, such as the editor's "rel" (relationship) or "chhub" (child hub)
// markers.
func (n Node) Flag(key string) bool {
	data, ok := n.extra[key]
	if !ok {
		return false
	}
	var v bool
	return json.Unmarshal(data, &v) == nil && v
}

// ParseDocument decodes a JSON pedigree document.
// It fails with ErrCodeMalformedDocument when the node list is missing, is not
// an array, or contains something other than node objects.
func ParseDocument(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		if errors.GetCode(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeMalformedDocument, err, "decode pedigree")
	}
	return &d, nil
}

// ReadDocument decodes a JSON pedigree document from r. It does not close r.
func ReadDocument(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pedigree: %w", err)
	}
	return ParseDocument(data)
}

// WriteDocument encodes d as indented JSON to w.
func WriteDocument(d *Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return errors.New(errors.ErrCodeMalformedDocument, "pedigree is not a JSON object")
	}

	nodesRaw, ok := raw[keyNodes]
	if !ok {
		return errors.New(errors.ErrCodeMalformedDocument, "pedigree has no %q node list", keyNodes)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(nodesRaw, &items); err != nil || items == nil {
		return errors.New(errors.ErrCodeMalformedDocument, "pedigree %q is not an array", keyNodes)
	}

	nodes := make([]Node, len(items))
	for i, item := range items {
		if err := nodes[i].UnmarshalJSON(item); err != nil {
			return errors.Wrap(errors.ErrCodeMalformedDocument, err, "node %d", i)
		}
	}

	delete(raw, keyNodes)
	d.Nodes = nodes
	d.extra = raw
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d *Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.extra)+1)
	for k, v := range d.extra {
		out[k] = v
	}
	nodes := d.Nodes
	if nodes == nil {
		nodes = []Node{}
	}
	out[keyNodes] = nodes
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return fmt.Errorf("node is not a JSON object")
	}

	// A non-integer id stays in extra; link operations never read it.
	if v, ok := raw[keyID]; ok {
		if err := json.Unmarshal(v, &n.ID); err == nil {
			n.hasID = true
			delete(raw, keyID)
		} else {
			n.ID = 0
		}
	}

	if v, ok := raw[keyProps]; ok {
		props, err := decodeProperties(v)
		if err != nil {
			return err
		}
		n.Properties = props
		delete(raw, keyProps)
	}

	if len(raw) > 0 {
		n.extra = raw
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n Node) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(n.extra)+2)
	for k, v := range n.extra {
		out[k] = v
	}
	if n.hasID {
		out[keyID] = n.ID
	}
	if n.Properties != nil {
		out[keyProps] = n.Properties
	}
	return json.Marshal(out)
}

// decodeProperties decodes a property bag, keeping numbers as json.Number so
// large ids and exact values survive re-encoding.
func decodeProperties(data json.RawMessage) (Properties, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var props map[string]any
	if err := dec.Decode(&props); err != nil {
		return nil, fmt.Errorf("node %q is not an object", keyProps)
	}
	return props, nil
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{extra: cloneRaw(d.extra)}
	if d.Nodes != nil {
		out.Nodes = make([]Node, len(d.Nodes))
		for i, n := range d.Nodes {
			out.Nodes[i] = n.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	out := n
	out.Properties = n.Properties.Clone()
	out.extra = cloneRaw(n.extra)
	return out
}

func cloneRaw(m map[string]json.RawMessage) map[string]json.RawMessage {
	if m == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		out[k] = bytes.Clone(v)
	}
	return out
}

// =============================================================================
// Properties - Node Property Bag
// =============================================================================

// Properties is the property bag of a node. Values are JSON-decoded
// (string, json.Number, bool, []any, map[string]any or nil).
type Properties map[string]any

// LinkedID returns the linked patient id and whether the link key is present.
// Non-string values are formatted with %v. The id may be blank.
func (p Properties) LinkedID() (string, bool) {
	v, ok := p[PatientLinkKey]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

// IsLinkedTo reports whether the bag links to patientID, ignoring case.
func (p Properties) IsLinkedTo(patientID string) bool {
	id, ok := p.LinkedID()
	return ok && strings.EqualFold(id, patientID)
}

// Unlink removes the patient link, leaving every other property in place.
func (p Properties) Unlink() {
	delete(p, PatientLinkKey)
}

// DisplayName returns "first last" when either name is set, otherwise the
// external id, otherwise an empty string.
func (p Properties) DisplayName() string {
	first := p.stringValue(propFirstName)
	last := p.stringValue(propLastName)
	if name := strings.TrimSpace(first + " " + last); name != "" {
		return name
	}
	return p.stringValue(propExternalID)
}

func (p Properties) stringValue(key string) string {
	if s, ok := p[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// Clone returns a deep copy of the bag. A nil bag stays nil.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = cloneValue(vv)
		}
		return m
	case Properties:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, vv := range t {
			s[i] = cloneValue(vv)
		}
		return s
	default:
		return v
	}
}
