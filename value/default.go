package value

import (
	"fmt"
	"sort"

	"github.com/hamba/avro/v2"
	"github.com/wippyai/avro-xform/errors"
	"github.com/wippyai/avro-xform/schema"
)

// SetDefault stores a schema default into w. Defaults are expressed the
// way the schema library decodes them: unions take the first branch,
// enums a symbol, bytes and fixed a string or byte slice.
func SetDefault(w Writer, d any) error {
	s := schema.Deref(w.Schema())
	switch schema.KindOf(s) {
	case schema.KindNull:
		return w.SetNull()
	case schema.KindBoolean:
		b, ok := d.(bool)
		if !ok {
			return badDefault(s, d)
		}
		return w.SetBoolean(b)
	case schema.KindInt:
		n, ok := AsInt32(d)
		if !ok {
			return badDefault(s, d)
		}
		return w.SetInt(n)
	case schema.KindLong:
		n, ok := AsInt64(d)
		if !ok {
			return badDefault(s, d)
		}
		return w.SetLong(n)
	case schema.KindFloat:
		f, ok := AsFloat64(d)
		if !ok {
			return badDefault(s, d)
		}
		return w.SetFloat(float32(f))
	case schema.KindDouble:
		f, ok := AsFloat64(d)
		if !ok {
			return badDefault(s, d)
		}
		return w.SetDouble(f)
	case schema.KindBytes:
		b, ok := AsBytes(d)
		if !ok {
			return badDefault(s, d)
		}
		return w.SetBytes(b)
	case schema.KindFixed:
		b, ok := AsBytes(d)
		if !ok {
			return badDefault(s, d)
		}
		return w.SetFixed(b)
	case schema.KindString:
		str, ok := d.(string)
		if !ok {
			return badDefault(s, d)
		}
		return w.SetString(str)
	case schema.KindEnum:
		sym, ok := d.(string)
		if !ok {
			return badDefault(s, d)
		}
		i, ok := schema.SymbolIndex(s.(*avro.EnumSchema), sym)
		if !ok {
			return badDefault(s, d)
		}
		return w.SetEnum(i)
	case schema.KindArray:
		items, ok := d.([]any)
		if !ok {
			return badDefault(s, d)
		}
		for _, item := range items {
			iw, err := w.Append()
			if err != nil {
				return err
			}
			if err := SetDefault(iw, item); err != nil {
				return err
			}
		}
		return nil
	case schema.KindMap:
		m, ok := d.(map[string]any)
		if !ok {
			return badDefault(s, d)
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			ew, _, err := w.Add(k)
			if err != nil {
				return err
			}
			if err := SetDefault(ew, m[k]); err != nil {
				return err
			}
		}
		return nil
	case schema.KindRecord:
		m, ok := d.(map[string]any)
		if !ok {
			return badDefault(s, d)
		}
		for i, f := range s.(*avro.RecordSchema).Fields() {
			fw, err := w.Field(i)
			if err != nil {
				return err
			}
			if fw == nil {
				continue
			}
			if fd, ok := m[f.Name()]; ok {
				err = SetDefault(fw, fd)
			} else if f.HasDefault() {
				err = SetDefault(fw, f.Default())
			} else {
				err = errors.FieldMissing(errors.PhaseBuild, []string{f.Name()}, f.Name())
			}
			if err != nil {
				return err
			}
		}
		return nil
	case schema.KindUnion:
		bw, err := w.SetBranch(0)
		if err != nil {
			return err
		}
		return SetDefault(bw, d)
	}
	return errors.Internal(errors.PhaseBuild, "no default handler for %s", schema.KindOf(s))
}

func badDefault(s avro.Schema, d any) error {
	return errors.New(errors.PhaseBuild, errors.KindTypeMismatch).
		Input(fmt.Sprintf("%T", d)).
		Schema(schema.TypeName(s)).
		Detail("unusable default").
		Build()
}
