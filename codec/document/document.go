package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
	mp "github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/avro-xform/errors"
)

// Format is a document encoding understood by Decode and Encode.
type Format uint8

const (
	FormatJSON Format = iota
	FormatYAML
	FormatCBOR
	FormatMsgpack
)

var formatNames = [...]string{
	FormatJSON:    "json",
	FormatYAML:    "yaml",
	FormatCBOR:    "cbor",
	FormatMsgpack: "msgpack",
}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("format(%d)", f)
}

// Binary reports whether documents of this format are not text.
func (f Format) Binary() bool {
	return f == FormatCBOR || f == FormatMsgpack
}

// ParseFormat maps a format name (case-insensitive, "yml" and "mp" accepted)
// to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "cbor":
		return FormatCBOR, nil
	case "msgpack", "mp":
		return FormatMsgpack, nil
	}
	return 0, errors.New(errors.PhaseParse, errors.KindUnsupported).
		Input(name).
		Detail("unknown document format").
		Build()
}

var cborDec = func() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}()

// Decode reads one document into a Go tree of map[string]any, []any and
// scalars. JSON numbers are kept as json.Number so 64-bit integers
// survive intact.
func Decode(f Format, data []byte) (any, error) {
	var (
		v   any
		err error
	)
	switch f {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err = dec.Decode(&v); err == nil {
			if _, trail := dec.Token(); trail != io.EOF {
				err = fmt.Errorf("trailing data after document")
			}
		}
	case FormatYAML:
		err = yaml.Unmarshal(data, &v)
	case FormatCBOR:
		err = cborDec.Unmarshal(data, &v)
	case FormatMsgpack:
		err = mp.Unmarshal(data, &v)
	default:
		return nil, errors.Unsupported(errors.PhaseParse, "document format "+f.String())
	}
	if err != nil {
		return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, "decode "+f.String()+" document")
	}
	return Normalize(v)
}

// Encode writes a Go tree as one document. JSON output is indented.
func Encode(f Format, v any) ([]byte, error) {
	var (
		out []byte
		err error
	)
	switch f {
	case FormatJSON:
		out, err = json.MarshalIndent(v, "", "  ")
		if err == nil {
			out = append(out, '\n')
		}
	case FormatYAML:
		out, err = yaml.Marshal(v)
	case FormatCBOR:
		out, err = cbor.Marshal(v)
	case FormatMsgpack:
		out, err = mp.Marshal(v)
	default:
		return nil, errors.Unsupported(errors.PhaseEmit, "document format "+f.String())
	}
	if err != nil {
		return nil, errors.Wrap(errors.PhaseEmit, errors.KindInvalidData, err, "encode "+f.String()+" document")
	}
	return out, nil
}

// Normalize rewrites maps with non-string keys, as produced by YAML and
// MessagePack decoders, into map[string]any. Keys must be strings or
// integers.
func Normalize(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			n, err := Normalize(item)
			if err != nil {
				return nil, errors.WithPath(err, []string{k})
			}
			t[k] = n
		}
		return t, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			key, err := keyString(k)
			if err != nil {
				return nil, err
			}
			n, err := Normalize(item)
			if err != nil {
				return nil, errors.WithPath(err, []string{key})
			}
			out[key] = n
		}
		return out, nil
	case []any:
		for i, item := range t {
			n, err := Normalize(item)
			if err != nil {
				return nil, err
			}
			t[i] = n
		}
		return t, nil
	}
	return v, nil
}

func keyString(k any) (string, error) {
	switch t := k.(type) {
	case string:
		return t, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(t), nil
	}
	return "", errors.New(errors.PhaseParse, errors.KindTypeMismatch).
		Input(fmt.Sprintf("%T", k)).
		Schema("string").
		Detail("map key must be a string").
		Build()
}
