// Copyright 2024 The Beacon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package beacon

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Coercion errors returned by Value accessors. A Value always supports
// text rendering; anything beyond that is best-effort.
var (
	ErrUnsupported = errors.New("beacon: structured form unsupported")
	ErrNotANumber  = errors.New("beacon: value is not a number")
)

// TreeKind identifies the variant held by a Tree.
type TreeKind int

const (
	NullKind TreeKind = iota
	BoolKind
	NumberKind
	StringKind
	SequenceKind
	MappingKind
)

// Tree is the structured form of a captured value: a closed recursive
// variant over null, bool, number, string, sequence and mapping.
// The zero Tree is null.
type Tree struct {
	kind    TreeKind
	packed  uint64 // bool or the bits of the number
	integer bool   // NumberKind only: packed holds an int64, not float bits
	str     string
	seq     []Tree
	kv      []TreeField
}

// TreeField is one entry of a mapping Tree.
type TreeField struct {
	Key   string
	Value Tree
}

func OfNull() Tree { return Tree{kind: NullKind} }

func OfBool(v bool) Tree {
	var b uint64
	if v {
		b = 1
	}
	return Tree{kind: BoolKind, packed: b}
}

func OfInt64(v int64) Tree {
	return Tree{kind: NumberKind, packed: uint64(v), integer: true}
}

func OfFloat64(v float64) Tree {
	return Tree{kind: NumberKind, packed: math.Float64bits(v)}
}

func OfString(v string) Tree { return Tree{kind: StringKind, str: v} }

func OfSequence(items ...Tree) Tree { return Tree{kind: SequenceKind, seq: items} }

func OfMapping(fields ...TreeField) Tree { return Tree{kind: MappingKind, kv: fields} }

// Kind returns the variant this Tree holds.
func (t Tree) Kind() TreeKind { return t.kind }

// IsInteger reports whether a NumberKind tree was captured from an
// integer rather than a float.
func (t Tree) IsInteger() bool { return t.kind == NumberKind && t.integer }

func (t Tree) AsBool() bool {
	t.checkKind(BoolKind)
	return t.packed != 0
}

func (t Tree) AsInt64() int64 {
	t.checkKind(NumberKind)
	if t.integer {
		return int64(t.packed)
	}
	return int64(math.Float64frombits(t.packed))
}

func (t Tree) AsFloat64() float64 {
	t.checkKind(NumberKind)
	if t.integer {
		return float64(int64(t.packed))
	}
	return math.Float64frombits(t.packed)
}

func (t Tree) AsString() string {
	t.checkKind(StringKind)
	return t.str
}

func (t Tree) AsSequence() []Tree {
	t.checkKind(SequenceKind)
	return t.seq
}

func (t Tree) AsMapping() []TreeField {
	t.checkKind(MappingKind)
	return t.kv
}

func (t Tree) checkKind(want TreeKind) {
	if t.kind != want {
		panic(fmt.Sprintf("beacon: bad tree access: have %d, want %d", t.kind, want))
	}
}

// String renders the tree as text. Top-level strings render bare;
// strings nested inside sequences and mappings are quoted.
func (t Tree) String() string {
	var b strings.Builder
	t.writeTo(&b, false)
	return b.String()
}

func (t Tree) writeTo(b *strings.Builder, nested bool) {
	switch t.kind {
	case NullKind:
		b.WriteString("null")
	case BoolKind:
		b.WriteString(strconv.FormatBool(t.packed != 0))
	case NumberKind:
		if t.integer {
			b.WriteString(strconv.FormatInt(int64(t.packed), 10))
		} else {
			b.WriteString(strconv.FormatFloat(math.Float64frombits(t.packed), 'g', -1, 64))
		}
	case StringKind:
		if nested {
			b.WriteString(strconv.Quote(t.str))
		} else {
			b.WriteString(t.str)
		}
	case SequenceKind:
		b.WriteByte('[')
		for i, item := range t.seq {
			if i > 0 {
				b.WriteString(", ")
			}
			item.writeTo(b, true)
		}
		b.WriteByte(']')
	case MappingKind:
		b.WriteByte('{')
		for i, f := range t.kv {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Key)
			b.WriteString(": ")
			f.Value.writeTo(b, true)
		}
		b.WriteByte('}')
	}
}

type valueKind int

const (
	textKind valueKind = iota
	treeKind
	errorKind
)

// Value is an immutable container for one property value. It remembers
// how the value was captured (plain text, structured tree, or an error
// with its cause chain) and can be inspected any number of times through
// any of its accessors. Text rendering always succeeds; the structured
// and numeric forms are available only when the capture strategy
// supports them.
type Value struct {
	kind  valueKind
	text  string   // textKind
	tree  Tree     // treeKind
	chain []string // errorKind, outermost error first
}

// TextValue captures a value as opaque text. The result supports only
// text rendering; AsTree returns ErrUnsupported.
func TextValue(s string) Value { return Value{kind: textKind, text: s} }

// TreeValue captures an already-built structured tree.
func TreeValue(t Tree) Value { return Value{kind: treeKind, tree: t} }

func StringValue(s string) Value  { return TreeValue(OfString(s)) }
func IntValue(v int64) Value      { return TreeValue(OfInt64(v)) }
func Float64Value(v float64) Value { return TreeValue(OfFloat64(v)) }
func BoolValue(v bool) Value      { return TreeValue(OfBool(v)) }

// ErrValue captures an error and its unwrapped cause chain.
func ErrValue(err error) Value {
	var chain []string
	for ; err != nil; err = errors.Unwrap(err) {
		chain = append(chain, err.Error())
	}
	if len(chain) == 0 {
		chain = []string{"<nil>"}
	}
	return Value{kind: errorKind, chain: chain}
}

// ValueOf captures an arbitrary Go value in its structured form where
// possible, falling back to text capture for anything it cannot model.
func ValueOf(v interface{}) Value {
	switch v := v.(type) {
	case nil:
		return TreeValue(OfNull())
	case Value:
		return v
	case Tree:
		return TreeValue(v)
	case error:
		return ErrValue(v)
	case bool:
		return BoolValue(v)
	case string:
		return StringValue(v)
	case int:
		return IntValue(int64(v))
	case int8:
		return IntValue(int64(v))
	case int16:
		return IntValue(int64(v))
	case int32:
		return IntValue(int64(v))
	case int64:
		return IntValue(v)
	case uint:
		return IntValue(int64(v))
	case uint8:
		return IntValue(int64(v))
	case uint16:
		return IntValue(int64(v))
	case uint32:
		return IntValue(int64(v))
	case uint64:
		return IntValue(int64(v))
	case float32:
		return Float64Value(float64(v))
	case float64:
		return Float64Value(v)
	}
	return TreeValue(treeOf(reflect.ValueOf(v)))
}

func treeOf(rv reflect.Value) Tree {
	switch rv.Kind() {
	case reflect.Bool:
		return OfBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return OfInt64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return OfInt64(int64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return OfFloat64(rv.Float())
	case reflect.String:
		return OfString(rv.String())
	case reflect.Slice, reflect.Array:
		items := make([]Tree, rv.Len())
		for i := range items {
			items[i] = treeOf(rv.Index(i))
		}
		return OfSequence(items...)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		fields := make([]TreeField, len(keys))
		for i, k := range keys {
			fields[i] = TreeField{Key: k, Value: treeOf(rv.MapIndex(reflect.ValueOf(k)))}
		}
		return OfMapping(fields...)
	case reflect.Struct:
		rt := rv.Type()
		var fields []TreeField
		for i := 0; i < rt.NumField(); i++ {
			if !rt.Field(i).IsExported() {
				continue
			}
			fields = append(fields, TreeField{Key: rt.Field(i).Name, Value: treeOf(rv.Field(i))})
		}
		return OfMapping(fields...)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return OfNull()
		}
		return treeOf(rv.Elem())
	}
	return OfString(fmt.Sprint(rv.Interface()))
}

// String renders the value as text. This is the universal fallback and
// never fails, whatever the capture strategy was.
func (v Value) String() string {
	switch v.kind {
	case treeKind:
		return v.tree.String()
	case errorKind:
		return strings.Join(v.chain, ": ")
	default:
		return v.text
	}
}

// AsTree returns the structured form of the value. Text-only captures
// have no structured form and return ErrUnsupported. Error captures
// surface their cause chain as a sequence of strings.
func (v Value) AsTree() (Tree, error) {
	switch v.kind {
	case treeKind:
		return v.tree, nil
	case errorKind:
		items := make([]Tree, len(v.chain))
		for i, c := range v.chain {
			items[i] = OfString(c)
		}
		return OfSequence(items...), nil
	default:
		return Tree{}, ErrUnsupported
	}
}

// AsNumber coerces the value to a float64. Structured numbers convert
// directly; textual captures and string trees are parsed. Everything
// else returns ErrNotANumber.
func (v Value) AsNumber() (float64, error) {
	switch v.kind {
	case treeKind:
		switch v.tree.kind {
		case NumberKind:
			return v.tree.AsFloat64(), nil
		case StringKind:
			return parseNumber(v.tree.str)
		}
		return 0, ErrNotANumber
	case errorKind:
		return 0, ErrNotANumber
	default:
		return parseNumber(v.text)
	}
}

func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrNotANumber
	}
	return f, nil
}

// ErrorChain returns the captured cause descriptions, outermost first,
// if the value was captured from an error.
func (v Value) ErrorChain() ([]string, bool) {
	if v.kind != errorKind {
		return nil, false
	}
	return v.chain, true
}
