package record

import (
	"fmt"

	"github.com/hupe1980/quantgo/codec"
)

// SerializationError indicates a record that cannot be decoded into the
// expected entity: a missing or mismatched record kind, or a field that is
// missing or of the wrong value kind. The failure is scoped to the single
// record being loaded; no other in-memory state is affected.
type SerializationError struct {
	Kind   string
	Field  string
	Reason string
}

func (e *SerializationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("record %q: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("record %q field %q: %s", e.Kind, e.Field, e.Reason)
}

// ValueKind discriminates the closed set of field value kinds.
type ValueKind uint8

const (
	KindInvalid ValueKind = iota
	KindFloat
	KindInt
	KindBool
	KindFloatSlice
	KindIntSlice
)

// String returns the string representation of the ValueKind.
func (k ValueKind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindFloatSlice:
		return "floats"
	case KindIntSlice:
		return "ints"
	default:
		return "invalid"
	}
}

func kindFromString(s string) ValueKind {
	switch s {
	case "float":
		return KindFloat
	case "int":
		return KindInt
	case "bool":
		return KindBool
	case "floats":
		return KindFloatSlice
	case "ints":
		return KindIntSlice
	default:
		return KindInvalid
	}
}

// value is one field payload. Exactly one member is meaningful, selected by
// kind.
type value struct {
	kind ValueKind
	f    float64
	i    int64
	b    bool
	fs   []float64
	is   []int64
}

// Field is one named entry of a record.
type Field struct {
	Name string
	val  value
}

// Kind returns the field's value kind.
func (f Field) Kind() ValueKind { return f.val.kind }

// Record is an ordered mapping of field names to primitive-or-array values,
// tagged with a record kind identifying the producing entity.
type Record struct {
	kind   string
	fields []Field
	index  map[string]int
}

// New creates an empty record with the given kind tag.
func New(kind string) *Record {
	return &Record{kind: kind, index: make(map[string]int)}
}

// Kind returns the record kind tag.
func (r *Record) Kind() string { return r.kind }

// Retag replaces the record kind tag.
func (r *Record) Retag(kind string) { r.kind = kind }

// ExpectKind fails with a SerializationError when the record kind does not
// match the expected entity.
func (r *Record) ExpectKind(kind string) error {
	if r.kind == "" {
		return &SerializationError{Kind: kind, Reason: "missing record kind"}
	}
	if r.kind != kind {
		return &SerializationError{Kind: kind, Reason: fmt.Sprintf("unexpected record kind %q", r.kind)}
	}
	return nil
}

// Has reports whether the record carries the named field.
func (r *Record) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// KindOf returns the value kind of the named field, or KindInvalid when the
// field is absent.
func (r *Record) KindOf(name string) ValueKind {
	i, ok := r.index[name]
	if !ok {
		return KindInvalid
	}
	return r.fields[i].val.kind
}

// Names returns the field names in insertion order.
func (r *Record) Names() []string {
	out := make([]string, len(r.fields))
	for i, f := range r.fields {
		out[i] = f.Name
	}
	return out
}

// Len returns the number of fields.
func (r *Record) Len() int { return len(r.fields) }

func (r *Record) set(name string, v value) {
	if i, ok := r.index[name]; ok {
		r.fields[i].val = v
		return
	}
	r.index[name] = len(r.fields)
	r.fields = append(r.fields, Field{Name: name, val: v})
}

// SetFloat sets a float field.
func (r *Record) SetFloat(name string, v float64) {
	r.set(name, value{kind: KindFloat, f: v})
}

// SetInt sets an integer field.
func (r *Record) SetInt(name string, v int64) {
	r.set(name, value{kind: KindInt, i: v})
}

// SetBool sets a boolean field.
func (r *Record) SetBool(name string, v bool) {
	r.set(name, value{kind: KindBool, b: v})
}

// SetFloats sets a float-array field. The slice is copied.
func (r *Record) SetFloats(name string, v []float64) {
	fs := make([]float64, len(v))
	copy(fs, v)
	r.set(name, value{kind: KindFloatSlice, fs: fs})
}

// SetInts sets an integer-array field. The slice is copied.
func (r *Record) SetInts(name string, v []int64) {
	is := make([]int64, len(v))
	copy(is, v)
	r.set(name, value{kind: KindIntSlice, is: is})
}

func (r *Record) get(name string, want ValueKind) (value, error) {
	i, ok := r.index[name]
	if !ok {
		return value{}, &SerializationError{Kind: r.kind, Field: name, Reason: "missing field"}
	}
	v := r.fields[i].val
	if v.kind != want {
		return value{}, &SerializationError{
			Kind: r.kind, Field: name,
			Reason: fmt.Sprintf("expected %s, got %s", want, v.kind),
		}
	}
	return v, nil
}

// Float returns the named float field.
func (r *Record) Float(name string) (float64, error) {
	v, err := r.get(name, KindFloat)
	if err != nil {
		return 0, err
	}
	return v.f, nil
}

// Int returns the named integer field.
func (r *Record) Int(name string) (int64, error) {
	v, err := r.get(name, KindInt)
	if err != nil {
		return 0, err
	}
	return v.i, nil
}

// Bool returns the named boolean field.
func (r *Record) Bool(name string) (bool, error) {
	v, err := r.get(name, KindBool)
	if err != nil {
		return false, err
	}
	return v.b, nil
}

// Floats returns a copy of the named float-array field.
func (r *Record) Floats(name string) ([]float64, error) {
	v, err := r.get(name, KindFloatSlice)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(v.fs))
	copy(out, v.fs)
	return out, nil
}

// Ints returns a copy of the named integer-array field.
func (r *Record) Ints(name string) ([]int64, error) {
	v, err := r.get(name, KindIntSlice)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(v.is))
	copy(out, v.is)
	return out, nil
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	out := New(r.kind)
	for _, f := range r.fields {
		v := f.val
		if v.fs != nil {
			fs := make([]float64, len(v.fs))
			copy(fs, v.fs)
			v.fs = fs
		}
		if v.is != nil {
			is := make([]int64, len(v.is))
			copy(is, v.is)
			v.is = is
		}
		out.set(f.Name, v)
	}
	return out
}

// Equal reports value equality of kind tag, field order, names and values.
func (r *Record) Equal(other *Record) bool {
	if r.kind != other.kind || len(r.fields) != len(other.fields) {
		return false
	}
	for i, f := range r.fields {
		g := other.fields[i]
		if f.Name != g.Name || f.val.kind != g.val.kind {
			return false
		}
		switch f.val.kind {
		case KindFloat:
			if f.val.f != g.val.f {
				return false
			}
		case KindInt:
			if f.val.i != g.val.i {
				return false
			}
		case KindBool:
			if f.val.b != g.val.b {
				return false
			}
		case KindFloatSlice:
			if len(f.val.fs) != len(g.val.fs) {
				return false
			}
			for j := range f.val.fs {
				if f.val.fs[j] != g.val.fs[j] {
					return false
				}
			}
		case KindIntSlice:
			if len(f.val.is) != len(g.val.is) {
				return false
			}
			for j := range f.val.is {
				if f.val.is[j] != g.val.is[j] {
					return false
				}
			}
		}
	}
	return true
}

// fieldDTO is the wire shape of one field. Exactly one value member is set,
// matching the kind string.
type fieldDTO struct {
	Name string    `json:"name"`
	Kind string    `json:"kind"`
	F    *float64  `json:"f,omitempty"`
	I    *int64    `json:"i,omitempty"`
	B    *bool     `json:"b,omitempty"`
	FS   []float64 `json:"fs,omitempty"`
	IS   []int64   `json:"is,omitempty"`
}

// recordDTO is the wire shape of a record. Fields are a JSON array, not an
// object, so field order survives the round trip.
type recordDTO struct {
	Kind   string     `json:"kind"`
	Fields []fieldDTO `json:"fields"`
}

// Encode serializes the record through the given codec. A nil codec uses
// codec.Default.
func (r *Record) Encode(c codec.Codec) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}

	dto := recordDTO{Kind: r.kind, Fields: make([]fieldDTO, 0, len(r.fields))}
	for _, f := range r.fields {
		fd := fieldDTO{Name: f.Name, Kind: f.val.kind.String()}
		switch f.val.kind {
		case KindFloat:
			v := f.val.f
			fd.F = &v
		case KindInt:
			v := f.val.i
			fd.I = &v
		case KindBool:
			v := f.val.b
			fd.B = &v
		case KindFloatSlice:
			fd.FS = f.val.fs
			if fd.FS == nil {
				fd.FS = []float64{}
			}
		case KindIntSlice:
			fd.IS = f.val.is
			if fd.IS == nil {
				fd.IS = []int64{}
			}
		default:
			return nil, &SerializationError{Kind: r.kind, Field: f.Name, Reason: "invalid value kind"}
		}
		dto.Fields = append(dto.Fields, fd)
	}

	return c.Marshal(dto)
}

// Decode deserializes a record previously produced by Encode. A nil codec
// uses codec.Default.
func Decode(data []byte, c codec.Codec) (*Record, error) {
	if c == nil {
		c = codec.Default
	}

	var dto recordDTO
	if err := c.Unmarshal(data, &dto); err != nil {
		return nil, &SerializationError{Reason: fmt.Sprintf("undecodable record: %v", err)}
	}
	if dto.Kind == "" {
		return nil, &SerializationError{Reason: "missing record kind"}
	}

	r := New(dto.Kind)
	for _, fd := range dto.Fields {
		if fd.Name == "" {
			return nil, &SerializationError{Kind: dto.Kind, Reason: "field without name"}
		}
		if r.Has(fd.Name) {
			return nil, &SerializationError{Kind: dto.Kind, Field: fd.Name, Reason: "duplicate field"}
		}
		switch kindFromString(fd.Kind) {
		case KindFloat:
			if fd.F == nil {
				return nil, &SerializationError{Kind: dto.Kind, Field: fd.Name, Reason: "missing float value"}
			}
			r.SetFloat(fd.Name, *fd.F)
		case KindInt:
			if fd.I == nil {
				return nil, &SerializationError{Kind: dto.Kind, Field: fd.Name, Reason: "missing int value"}
			}
			r.SetInt(fd.Name, *fd.I)
		case KindBool:
			if fd.B == nil {
				return nil, &SerializationError{Kind: dto.Kind, Field: fd.Name, Reason: "missing bool value"}
			}
			r.SetBool(fd.Name, *fd.B)
		case KindFloatSlice:
			r.SetFloats(fd.Name, fd.FS)
		case KindIntSlice:
			r.SetInts(fd.Name, fd.IS)
		default:
			return nil, &SerializationError{
				Kind: dto.Kind, Field: fd.Name,
				Reason: fmt.Sprintf("unknown value kind %q", fd.Kind),
			}
		}
	}
	return r, nil
}
