package strictkeys

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Unmarshalers returns the full set of json/v2 unmarshalers allowing decoding
// into:
//   - any/interface{} -> objects as D, arrays as A
//   - *D              -> direct ordered object decoding
//   - *A              -> direct array decoding
//
// Values decoded through json.Unmarshal carry no key positions; use
// DecodeJSON when positions matter.
func Unmarshalers() *json.Unmarshalers {
	return json.JoinUnmarshalers(
		unmarshalValue(), // *any (objects, arrays)
		unmarshalDocument(),
		unmarshalCollection(),
	)
}

// unmarshalValue wraps JSON objects as D rather than map[string]any and JSON
// arrays as A so callers can distinguish them from []any. Primitive values are
// left to the default logic by returning json.SkipFunc.
func unmarshalValue() *json.Unmarshalers {
	return json.UnmarshalFromFunc(func(dec *jsontext.Decoder, v *any) error {
		switch dec.PeekKind() {
		case '{', '[':
			val, err := (&jsonDecoder{dec: dec}).decodeValue()
			if err != nil {
				return err
			}
			*v = val
			return nil
		default:
			return json.SkipFunc
		}
	})
}

func unmarshalDocument() *json.Unmarshalers {
	return json.UnmarshalFromFunc(func(dec *jsontext.Decoder, v *D) error {
		if dec.PeekKind() != '{' {
			return json.SkipFunc
		}
		val, err := (&jsonDecoder{dec: dec}).decodeObject()
		if err != nil {
			return err
		}
		*v = val
		return nil
	})
}

func unmarshalCollection() *json.Unmarshalers {
	return json.UnmarshalFromFunc(func(dec *jsontext.Decoder, v *A) error {
		if dec.PeekKind() != '[' {
			return json.SkipFunc
		}
		arr, err := (&jsonDecoder{dec: dec}).decodeArray()
		if err != nil {
			return err
		}
		*v = arr
		return nil
	})
}

// DecodeJSON decodes a stream of one or more JSON values into documents. Key
// order and key positions are preserved. Duplicate object names are rejected
// by the underlying jsontext decoder.
func DecodeJSON(data []byte) ([]any, error) {
	d := &jsonDecoder{
		dec:   jsontext.NewDecoder(bytes.NewReader(data)),
		lines: newLineIndex(data),
	}
	var docs []any
	for {
		if d.dec.PeekKind() == 0 { // end of input or syntax error
			_, err := d.dec.ReadToken()
			if errors.Is(err, io.EOF) {
				break
			}
			if err == nil {
				err = errors.New("unexpected token")
			}
			return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
		v, err := d.decodeValue()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
		docs = append(docs, v)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no JSON value", ErrInvalidDocument)
	}
	return docs, nil
}

type jsonDecoder struct {
	dec   *jsontext.Decoder
	lines *lineIndex // nil when positions are not tracked
}

func (d *jsonDecoder) decodeValue() (any, error) {
	switch d.dec.PeekKind() {
	case '{':
		return d.decodeObject()
	case '[':
		return d.decodeArray()
	default:
		var v any
		if err := json.UnmarshalDecode(d.dec, &v); err != nil {
			return nil, fmt.Errorf("read value: %w", err)
		}
		return v, nil
	}
}

// decodeObject decodes a JSON object into D. Empty objects ({}) produce an
// empty, non-nil D.
func (d *jsonDecoder) decodeObject() (D, error) {
	if _, err := d.dec.ReadToken(); err != nil { // '{'
		return nil, fmt.Errorf("read object open: %w", err)
	}
	res := D{}
	for d.dec.PeekKind() != '}' {
		start := d.dec.InputOffset()
		tok, err := d.dec.ReadToken()
		if err != nil {
			return nil, fmt.Errorf("read object key: %w", err)
		}
		key := tok.String()
		pos := d.keyPosition(start, d.dec.InputOffset())
		val, err := d.decodeValue()
		if err != nil {
			return nil, fmt.Errorf("read object value for key %q: %w", key, err)
		}
		res = append(res, E{Key: key, Value: val, Pos: pos})
	}
	if _, err := d.dec.ReadToken(); err != nil { // '}'
		return nil, fmt.Errorf("read object close: %w", err)
	}
	return res, nil
}

// decodeArray decodes a JSON array into A.
func (d *jsonDecoder) decodeArray() (A, error) {
	if _, err := d.dec.ReadToken(); err != nil { // '['
		return nil, fmt.Errorf("read array open: %w", err)
	}
	arr := A{}
	for d.dec.PeekKind() != ']' {
		elem, err := d.decodeValue()
		if err != nil {
			return nil, fmt.Errorf("read array element %d: %w", len(arr), err)
		}
		arr = append(arr, elem)
	}
	if _, err := d.dec.ReadToken(); err != nil { // ']'
		return nil, fmt.Errorf("read array close: %w", err)
	}
	return arr, nil
}

// keyPosition locates the opening quote of an object name read between the
// start and end offsets. Only whitespace and a separating comma can precede
// it.
func (d *jsonDecoder) keyPosition(start, end int64) Position {
	if d.lines == nil || start < 0 || end > int64(len(d.lines.data)) || start > end {
		return Position{}
	}
	i := bytes.IndexByte(d.lines.data[start:end], '"')
	if i < 0 {
		return Position{}
	}
	return d.lines.position(int(start) + i)
}

type lineIndex struct {
	data   []byte
	starts []int
}

func newLineIndex(data []byte) *lineIndex {
	starts := []int{0}
	for i, b := range data {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{data: data, starts: starts}
}

func (l *lineIndex) position(off int) Position {
	line, found := slices.BinarySearch(l.starts, off)
	if !found {
		line--
	}
	return Position{Line: line + 1, Column: off - l.starts[line] + 1}
}
