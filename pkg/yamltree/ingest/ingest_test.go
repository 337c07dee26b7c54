package ingest_test

import (
	"bytes"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/flier/yamltree/pkg/yamltree"
	"github.com/flier/yamltree/pkg/yamltree/emit"
	"github.com/flier/yamltree/pkg/yamltree/ingest"
)

func TestParse(t *testing.T) {
	Convey("Given a plain document", t, func() {
		tr, err := ingest.ParseString("name: arena\nports:\n- 8080\n- 9090\n")
		So(err, ShouldBeNil)

		Convey("Then the tree mirrors the document", func() {
			root := tr.RootID()
			So(tr.IsMap(root), ShouldBeTrue)
			So(tr.NumChildren(root), ShouldEqual, 2)

			name, ok := tr.FindChild(root, "name")
			So(ok, ShouldBeTrue)
			So(string(tr.Val(name)), ShouldEqual, "arena")

			ports, ok := tr.FindChild(root, "ports")
			So(ok, ShouldBeTrue)
			So(tr.IsSeq(ports), ShouldBeTrue)
			So(tr.NumChildren(ports), ShouldEqual, 2)
			So(string(tr.Val(tr.Child(ports, 0))), ShouldEqual, "8080")
		})
	})

	Convey("Given anchors and aliases", t, func() {
		tr, err := ingest.ParseString("a: &A 42\nb: *A\n")
		So(err, ShouldBeNil)

		Convey("Then the markers are preserved, not followed", func() {
			a, _ := tr.FindChild(tr.RootID(), "a")
			So(tr.HasValAnchor(a), ShouldBeTrue)
			So(string(tr.ValAnchor(a)), ShouldEqual, "A")

			b, _ := tr.FindChild(tr.RootID(), "b")
			So(tr.IsValRef(b), ShouldBeTrue)
			So(string(tr.ValRef(b)), ShouldEqual, "A")
		})

		Convey("Then the tree's own resolver finishes the job", func() {
			So(tr.Resolve(), ShouldBeNil)

			b, _ := tr.FindChild(tr.RootID(), "b")
			So(string(tr.Val(b)), ShouldEqual, "42")
		})
	})

	Convey("Given a merge key document", t, func() {
		src := `CENTER: &CENTER
  x: 1
  y: 2
BIG: &BIG
  r: 10
small:
  <<: [*CENTER, *BIG]
  label: "hi"
`

		tr, err := ingest.ParseString(src)
		So(err, ShouldBeNil)

		So(tr.Resolve(), ShouldBeNil)

		Convey("Then the merge injects the referenced entries", func() {
			small, ok := tr.FindChild(tr.RootID(), "small")
			So(ok, ShouldBeTrue)

			var keys []string
			for c := tr.FirstChild(small); !c.IsNone(); c = tr.NextSibling(c) {
				keys = append(keys, string(tr.Key(c)))
			}

			So(keys, ShouldResemble, []string{"x", "y", "r", "label"})
		})
	})

	Convey("Given quoting styles", t, func() {
		tr, err := ingest.ParseString("a: \"42\"\nb: 42\n")
		So(err, ShouldBeNil)

		a, _ := tr.FindChild(tr.RootID(), "a")
		So(tr.IsValQuoted(a), ShouldBeTrue)

		b, _ := tr.FindChild(tr.RootID(), "b")
		So(tr.IsValQuoted(b), ShouldBeFalse)
	})

	Convey("Given a multi-document stream", t, func() {
		tr, err := ingest.ParseString("---\na: 1\n---\n- 2\n")
		So(err, ShouldBeNil)

		Convey("Then the root is a stream of docs", func() {
			root := tr.RootID()
			So(tr.IsStream(root), ShouldBeTrue)
			So(tr.NumChildren(root), ShouldEqual, 2)

			d1 := tr.FirstChild(root)
			So(tr.IsDoc(d1), ShouldBeTrue)
			So(tr.IsMap(d1), ShouldBeTrue)

			d2 := tr.NextSibling(d1)
			So(tr.IsDoc(d2), ShouldBeTrue)
			So(tr.IsSeq(d2), ShouldBeTrue)
		})
	})

	Convey("Given an empty input", t, func() {
		tr, err := ingest.Parse(nil)
		So(err, ShouldBeNil)
		So(tr.Kind(tr.RootID()), ShouldEqual, yamltree.NOTYPE)
	})
}

// equalTrees compares two subtrees structurally: kinds (modulo style
// flags), key and value text, and children pairwise.
func equalTrees(a, b *yamltree.Tree, x, y yamltree.NodeID) bool {
	if a.Kind(x).Structural() != b.Kind(y).Structural() {
		return false
	}

	if !bytes.Equal(a.Key(x), b.Key(y)) || !bytes.Equal(a.Val(x), b.Val(y)) {
		return false
	}

	cx, cy := a.FirstChild(x), b.FirstChild(y)
	for !cx.IsNone() && !cy.IsNone() {
		if !equalTrees(a, b, cx, cy) {
			return false
		}

		cx, cy = a.NextSibling(cx), b.NextSibling(cy)
	}

	return cx.IsNone() && cy.IsNone()
}

func TestRoundTrip(t *testing.T) {
	Convey("Given documents that cover the emitter's shapes", t, func() {
		for _, src := range []string{
			"server:\n  host: localhost\n  ports:\n  - 8080\n  - 9090\n  opts:\n    retry: true\n",
			"banner: |\n  line1\n  line2\nfooter: done\n",
			"empty: {}\nnone: []\n",
			"- alpha\n- beta\n- sub:\n    k: v\n",
			"quoted: 'a: b'\n",
		} {
			tr, err := ingest.ParseString(src)
			So(err, ShouldBeNil)

			out, err := emit.YAMLBytes(tr, tr.RootID())
			So(err, ShouldBeNil)

			back, err := ingest.Parse(out)
			So(err, ShouldBeNil)

			Convey("Then re-parsing the emitted text yields an equal tree: "+src[:12], func() {
				So(equalTrees(tr, back, tr.RootID(), back.RootID()), ShouldBeTrue)
			})
		}
	})
}
