package emit_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/flier/yamltree/pkg/xerrors"
	"github.com/flier/yamltree/pkg/yamltree"
	"github.com/flier/yamltree/pkg/yamltree/emit"
)

func yamlOf(tr *yamltree.Tree) string {
	out, err := emit.YAMLBytes(tr, tr.RootID())
	So(err, ShouldBeNil)

	return string(out)
}

func mapWith(pairs ...[2]string) *yamltree.Tree {
	tr := yamltree.New()
	tr.ToMap(tr.RootID())

	for _, kv := range pairs {
		c := tr.AppendChild(tr.RootID())
		tr.ToKeyVal(c, []byte(kv[0]), []byte(kv[1]))
	}

	return tr
}

func TestYAMLBlocks(t *testing.T) {
	Convey("Given scalars with embedded newlines", t, func() {
		Convey("A root scalar with one trailing newline uses a plain literal block", func() {
			tr := yamltree.New()
			tr.ToVal(tr.RootID(), []byte("line1\nline2\n"))

			So(yamlOf(tr), ShouldEqual, "|\n  line1\n  line2\n")
		})

		Convey("No trailing newline strips with |-", func() {
			tr := yamltree.New()
			tr.ToVal(tr.RootID(), []byte("line1\nline2"))

			So(yamlOf(tr), ShouldEqual, "|-\n  line1\n  line2\n")
		})

		Convey("Two trailing newlines keep with |+", func() {
			tr := yamltree.New()
			tr.ToVal(tr.RootID(), []byte("line1\n\n"))

			So(yamlOf(tr), ShouldEqual, "|+\n  line1\n\n")
		})

		Convey("A map value block indents past its key", func() {
			tr := mapWith([2]string{"banner", "line1\nline2\n"})

			So(yamlOf(tr), ShouldEqual, "banner: |\n  line1\n  line2\n")
		})
	})
}

func TestYAMLQuoting(t *testing.T) {
	Convey("Given scalars exercising the quoting rules", t, func() {
		Convey("Structural punctuation forces single quotes", func() {
			tr := mapWith([2]string{"k", "a: b"})

			So(yamlOf(tr), ShouldEqual, "k: 'a: b'\n")
		})

		Convey("A lone single quote flips to double quotes", func() {
			tr := mapWith([2]string{"k", "it's"})

			So(yamlOf(tr), ShouldEqual, "k: \"it's\"\n")
		})

		Convey("A lone double quote stays single-quoted", func() {
			tr := mapWith([2]string{"k", `he said "hi"`})

			So(yamlOf(tr), ShouldEqual, "k: 'he said \"hi\"'\n")
		})

		Convey("Both quote kinds double the single quotes", func() {
			tr := mapWith([2]string{"k", `it's "x"`})

			So(yamlOf(tr), ShouldEqual, "k: 'it''s \"x\"'\n")
		})

		Convey("Numerics stay bare", func() {
			tr := mapWith([2]string{"k", "42"})

			So(yamlOf(tr), ShouldEqual, "k: 42\n")
		})

		Convey("A quoted-in-source numeric stays quoted", func() {
			tr := mapWith([2]string{"k", "42"})
			tr.SetValQuoted(tr.FirstChild(tr.RootID()))

			So(yamlOf(tr), ShouldEqual, "k: '42'\n")
		})

		Convey("Alias-like leading characters are quoted", func() {
			tr := mapWith([2]string{"k", "*name"})

			So(yamlOf(tr), ShouldEqual, "k: '*name'\n")
		})

		Convey("A null value emits ~, an empty string emits ''", func() {
			tr := yamltree.New()
			tr.ToMap(tr.RootID())

			a := tr.AppendChild(tr.RootID())
			tr.ToKeyVal(a, []byte("a"), nil)

			b := tr.AppendChild(tr.RootID())
			tr.ToKeyVal(b, []byte("b"), []byte{})

			So(yamlOf(tr), ShouldEqual, "a: ~\nb: ''\n")
		})
	})
}

func TestYAMLStructure(t *testing.T) {
	Convey("Given containers of each shape", t, func() {
		Convey("Nested maps indent two spaces per level", func() {
			tr := yamltree.New()
			root := tr.RootID()
			tr.ToMap(root)

			outer := tr.AppendChild(root)
			tr.ToMapKeyed(outer, []byte("outer"))

			kv := tr.AppendChild(outer)
			tr.ToKeyVal(kv, []byte("inner"), []byte("1"))

			So(yamlOf(tr), ShouldEqual, "outer:\n  inner: 1\n")
		})

		Convey("A sequence of scalars dashes each element", func() {
			tr := yamltree.New()
			tr.ToSeq(tr.RootID())

			for _, v := range []string{"a", "b"} {
				e := tr.AppendChild(tr.RootID())
				tr.ToVal(e, []byte(v))
			}

			So(yamlOf(tr), ShouldEqual, "- a\n- b\n")
		})

		Convey("A sequence of maps inlines the first entry", func() {
			tr := yamltree.New()
			tr.ToSeq(tr.RootID())

			e := tr.AppendChild(tr.RootID())
			tr.ToMap(e)

			x := tr.AppendChild(e)
			tr.ToKeyVal(x, []byte("x"), []byte("1"))

			y := tr.AppendChild(e)
			tr.ToKeyVal(y, []byte("y"), []byte("2"))

			So(yamlOf(tr), ShouldEqual, "- x: 1\n  y: 2\n")
		})

		Convey("Empty containers use flow markers", func() {
			tr := yamltree.New()
			root := tr.RootID()
			tr.ToMap(root)

			m := tr.AppendChild(root)
			tr.ToMapKeyed(m, []byte("m"))

			s := tr.AppendChild(root)
			tr.ToSeqKeyed(s, []byte("s"))

			So(yamlOf(tr), ShouldEqual, "m: {}\ns: []\n")
		})

		Convey("A stream separates documents with ---", func() {
			tr := yamltree.New()
			tr.ToVal(tr.RootID(), []byte("solo"))
			tr.SetRootAsStream()

			d2 := tr.AppendChild(tr.RootID())
			tr.ToDoc(d2)
			tr.ToMap(d2)

			kv := tr.AppendChild(d2)
			tr.ToKeyVal(kv, []byte("k"), []byte("v"))

			So(yamlOf(tr), ShouldEqual, "--- solo\n---\nk: v\n")
		})

		Convey("Anchors and refs emit their markers when unresolved", func() {
			tr := yamltree.New()
			root := tr.RootID()
			tr.ToMap(root)

			a := tr.AppendChild(root)
			tr.ToKeyVal(a, []byte("a"), []byte("42"))
			tr.SetValAnchor(a, []byte("A"))

			b := tr.AppendChild(root)
			tr.ToKeyVal(b, []byte("b"), nil)
			tr.SetValRef(b, []byte("A"))

			So(yamlOf(tr), ShouldEqual, "a: &A 42\nb: *A\n")
		})
	})
}

func TestJSON(t *testing.T) {
	Convey("Given plain trees", t, func() {
		Convey("Maps and sequences emit flow syntax", func() {
			tr := yamltree.New()
			root := tr.RootID()
			tr.ToMap(root)

			a := tr.AppendChild(root)
			tr.ToKeyVal(a, []byte("a"), []byte("1"))

			b := tr.AppendChild(root)
			tr.ToSeqKeyed(b, []byte("b"))

			for _, v := range []string{"true", "x"} {
				e := tr.AppendChild(b)
				tr.ToVal(e, []byte(v))
			}

			out, err := emit.JSONBytes(tr, tr.RootID())
			So(err, ShouldBeNil)
			So(string(out), ShouldEqual, `{"a": 1,"b": [true,"x"]}`)
		})

		Convey("Quoted scalars stay strings, keys are always strings", func() {
			tr := yamltree.New()
			root := tr.RootID()
			tr.ToMap(root)

			a := tr.AppendChild(root)
			tr.ToKeyVal(a, []byte("7"), []byte("42"))
			tr.SetValQuoted(a)

			n := tr.AppendChild(root)
			tr.ToKeyVal(n, []byte("n"), nil)

			out, err := emit.JSONBytes(tr, tr.RootID())
			So(err, ShouldBeNil)
			So(string(out), ShouldEqual, `{"7": "42","n": null}`)
		})

		Convey("String escapes are applied", func() {
			tr := yamltree.New()
			tr.ToMap(tr.RootID())

			a := tr.AppendChild(tr.RootID())
			tr.ToKeyVal(a, []byte("a"), []byte("say \"hi\"\n"))

			out, err := emit.JSONBytes(tr, tr.RootID())
			So(err, ShouldBeNil)
			So(string(out), ShouldEqual, `{"a": "say \"hi\"\n"}`)
		})
	})

	Convey("Given trees outside the JSON subset", t, func() {
		Convey("A stream is rejected", func() {
			tr := yamltree.New()
			tr.ToVal(tr.RootID(), []byte("x"))
			tr.SetRootAsStream()

			_, err := emit.JSONBytes(tr, tr.RootID())
			So(err, ShouldNotBeNil)

			f, ok := xerrors.AsA[yamltree.Fault](err)
			So(ok, ShouldBeTrue)
			So(f.Kind, ShouldEqual, yamltree.JSONFeatureUnsupported)
		})

		Convey("An anchor is rejected", func() {
			tr := mapWith([2]string{"a", "1"})
			tr.SetValAnchor(tr.FirstChild(tr.RootID()), []byte("A"))

			_, err := emit.JSONBytes(tr, tr.RootID())
			So(err, ShouldNotBeNil)

			f, ok := xerrors.AsA[yamltree.Fault](err)
			So(ok, ShouldBeTrue)
			So(f.Kind, ShouldEqual, yamltree.JSONFeatureUnsupported)
		})

		Convey("A tag is rejected", func() {
			tr := mapWith([2]string{"a", "1"})
			tr.SetValTag(tr.FirstChild(tr.RootID()), []byte("!!int"))

			_, err := emit.JSONBytes(tr, tr.RootID())
			So(err, ShouldNotBeNil)
		})
	})
}

func TestWriters(t *testing.T) {
	Convey("Given a fixed writer that is too small", t, func() {
		tr := mapWith([2]string{"key", "value"})

		buf := make([]byte, 4)
		w := emit.NewFixedWriter(buf)

		Convey("When truncation is an error", func() {
			_, err := emit.Emit(emit.YAML, tr, tr.RootID(), w, true)

			So(err, ShouldNotBeNil)

			ex, ok := xerrors.AsA[*emit.ExcessError](err)
			So(ok, ShouldBeTrue)
			So(ex.Needed, ShouldBeGreaterThan, ex.Cap)
		})

		Convey("When truncation is tolerated", func() {
			view, err := emit.Emit(emit.YAML, tr, tr.RootID(), w, false)

			So(err, ShouldBeNil)
			So(view.Len(), ShouldEqual, 4)
			So(string(w.Bytes()), ShouldEqual, "key:")
		})
	})

	Convey("Given a large enough fixed writer", t, func() {
		tr := mapWith([2]string{"key", "value"})

		buf := make([]byte, 64)
		w := emit.NewFixedWriter(buf)

		view, err := emit.Emit(emit.YAML, tr, tr.RootID(), w, true)

		So(err, ShouldBeNil)
		So(string(w.Bytes()), ShouldEqual, "key: value\n")
		So(view.Len(), ShouldEqual, len("key: value\n"))
	})

	Convey("Given an unknown emit type", t, func() {
		tr := mapWith([2]string{"a", "1"})

		var w emit.GrowWriter
		_, err := emit.Emit(emit.Type(99), tr, tr.RootID(), &w, true)

		So(err, ShouldNotBeNil)

		f, ok := xerrors.AsA[yamltree.Fault](err)
		So(ok, ShouldBeTrue)
		So(f.Kind, ShouldEqual, yamltree.UnknownEmitType)
	})
}
