// Package ingest builds a yamltree.Tree from YAML source text.
//
// It rides on gopkg.in/yaml.v3 for lexing but deliberately does not let
// it follow aliases: anchors, aliases, merge keys, explicit tags, and
// quoting styles are carried into the tree as markers, so that
// yamltree's own resolver and emitter see exactly what the source said.
package ingest

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/flier/yamltree/pkg/yamltree"
)

// Parse builds a tree from src. A single document becomes the root
// directly; multiple documents become a stream of docs.
func Parse(src []byte) (*yamltree.Tree, error) {
	dec := yaml.NewDecoder(bytes.NewReader(src))

	var docs []*yaml.Node

	for {
		var n yaml.Node

		err := dec.Decode(&n)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, err
		}

		docs = append(docs, &n)
	}

	t := yamltree.New()

	switch len(docs) {
	case 0:

	case 1:
		if err := buildDoc(t, t.RootID(), docs[0]); err != nil {
			return nil, err
		}

	default:
		t.ToStream(t.RootID())

		for _, doc := range docs {
			d := t.AppendChild(t.RootID())
			t.ToDoc(d)

			if err := buildDoc(t, d, doc); err != nil {
				return nil, err
			}
		}
	}

	return t, nil
}

// ParseString is Parse over a string.
func ParseString(src string) (*yamltree.Tree, error) {
	return Parse([]byte(src))
}

// ErrNotDocument is returned when yaml.v3 hands back something other
// than a document node at the top level.
var ErrNotDocument = errors.New("ingest: top-level yaml node is not a document")

func buildDoc(t *yamltree.Tree, id yamltree.NodeID, doc *yaml.Node) error {
	if doc.Kind != yaml.DocumentNode {
		return ErrNotDocument
	}

	if len(doc.Content) == 0 {
		return nil
	}

	return buildValue(t, id, doc.Content[0])
}

// buildValue shapes node id from y, which sits in value position (a root,
// a doc body, or a sequence element).
func buildValue(t *yamltree.Tree, id yamltree.NodeID, y *yaml.Node) error {
	switch y.Kind {
	case yaml.AliasNode:
		t.SetValRef(id, []byte(y.Value))
		return nil

	case yaml.ScalarNode:
		t.ToVal(id, scalarText(y))
		applyValProps(t, id, y)
		return nil

	case yaml.MappingNode:
		t.ToMap(id)
		applyValProps(t, id, y)
		return buildMapPairs(t, id, y)

	case yaml.SequenceNode:
		t.ToSeq(id)
		applyValProps(t, id, y)
		return buildSeqElems(t, id, y)
	}

	return nil
}

func buildMapPairs(t *yamltree.Tree, id yamltree.NodeID, y *yaml.Node) error {
	for i := 0; i+1 < len(y.Content); i += 2 {
		k, v := y.Content[i], y.Content[i+1]

		child := t.AppendChild(id)

		if err := buildKeyed(t, child, k, v); err != nil {
			return err
		}
	}

	return nil
}

func buildSeqElems(t *yamltree.Tree, id yamltree.NodeID, y *yaml.Node) error {
	for _, elem := range y.Content {
		child := t.AppendChild(id)

		if err := buildValue(t, child, elem); err != nil {
			return err
		}
	}

	return nil
}

// buildKeyed shapes a fresh map child from its key and value nodes.
func buildKeyed(t *yamltree.Tree, id yamltree.NodeID, k, v *yaml.Node) error {
	key := keyText(k)

	switch v.Kind {
	case yaml.AliasNode:
		t.ToKeyVal(id, key, nil)
		t.SetValRef(id, []byte(v.Value))

	case yaml.ScalarNode:
		t.ToKeyVal(id, key, scalarText(v))
		applyValProps(t, id, v)

	case yaml.MappingNode:
		t.ToMapKeyed(id, key)
		applyValProps(t, id, v)

		if err := buildMapPairs(t, id, v); err != nil {
			return err
		}

	case yaml.SequenceNode:
		t.ToSeqKeyed(id, key)
		applyValProps(t, id, v)

		if err := buildSeqElems(t, id, v); err != nil {
			return err
		}
	}

	applyKeyProps(t, id, k)

	return nil
}

// keyText returns the key bytes for shaping; alias keys shape with an
// empty key first and get their ref marker from applyKeyProps.
func keyText(k *yaml.Node) []byte {
	if k.Kind == yaml.AliasNode {
		return nil
	}

	return scalarText(k)
}

// scalarText maps a yaml.v3 scalar to the tree's text convention: null
// stays nil, the empty string stays present-but-empty.
func scalarText(y *yaml.Node) []byte {
	if y.Tag == "!!null" && y.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle) == 0 {
		return nil
	}

	if y.Value == "" {
		return []byte{}
	}

	return []byte(y.Value)
}

func applyKeyProps(t *yamltree.Tree, id yamltree.NodeID, k *yaml.Node) {
	if k.Kind == yaml.AliasNode {
		t.SetKeyRef(id, []byte(k.Value))
		return
	}

	if k.Anchor != "" {
		t.SetKeyAnchor(id, []byte(k.Anchor))
	}

	if k.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle) != 0 {
		t.SetKeyQuoted(id)
	}

	if k.Style&yaml.TaggedStyle != 0 {
		t.SetKeyTag(id, []byte(yamltree.NormalizeTag(k.Tag)))
	}
}

func applyValProps(t *yamltree.Tree, id yamltree.NodeID, v *yaml.Node) {
	if v.Anchor != "" {
		t.SetValAnchor(id, []byte(v.Anchor))
	}

	if v.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle) != 0 {
		t.SetValQuoted(id)
	}

	if v.Style&yaml.TaggedStyle != 0 {
		t.SetValTag(id, []byte(yamltree.NormalizeTag(v.Tag)))
	}
}
