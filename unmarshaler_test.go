package strictkeys

import (
	"testing"

	json "github.com/go-json-experiment/json"
	"github.com/stretchr/testify/require"
)

func unmarshal(t *testing.T, src string) any {
	t.Helper()
	var out any
	err := json.Unmarshal([]byte(src), &out, json.WithUnmarshalers(Unmarshalers()))
	require.NoError(t, err)
	return out
}

func assertD(t *testing.T, v any) D {
	t.Helper()
	d, ok := v.(D)
	require.True(t, ok, "expected D, got %T", v)
	return d
}

func assertA(t *testing.T, v any) A {
	t.Helper()
	a, ok := v.(A)
	require.True(t, ok, "expected A, got %T", v)
	return a
}

func TestUnmarshalers(t *testing.T) {
	t.Run("empty object -> empty D", func(t *testing.T) {
		d := assertD(t, unmarshal(t, `{}`))
		require.Len(t, d, 0)
	})

	t.Run("empty array -> empty A", func(t *testing.T) {
		a := assertA(t, unmarshal(t, `[]`))
		require.Len(t, a, 0)
	})

	t.Run("regular object ordering preserved", func(t *testing.T) {
		d := assertD(t, unmarshal(t, `{"b":1,"a":2}`))
		require.Equal(t, D{{Key: "b", Value: float64(1)}, {Key: "a", Value: float64(2)}}, d)
	})

	t.Run("nested array wraps objects", func(t *testing.T) {
		a := assertA(t, unmarshal(t, `[1,{"x":2}]`))
		require.Len(t, a, 2)
		require.Equal(t, float64(1), a[0])
		d := assertD(t, a[1])
		require.Equal(t, "x", d[0].Key)
	})

	t.Run("primitive value bypassed (SkipFunc)", func(t *testing.T) {
		v := unmarshal(t, `123`)
		require.Equal(t, float64(123), v)
	})

	t.Run("decode into *D", func(t *testing.T) {
		var d D
		err := json.Unmarshal([]byte(`{"z":{"y":true}}`), &d, json.WithUnmarshalers(Unmarshalers()))
		require.NoError(t, err)
		require.Equal(t, []string{"z"}, d.Keys())
		require.Equal(t, D{{Key: "y", Value: true}}, d[0].Value)
	})

	t.Run("decode into *A", func(t *testing.T) {
		var a A
		err := json.Unmarshal([]byte(`[{"a":1}]`), &a, json.WithUnmarshalers(Unmarshalers()))
		require.NoError(t, err)
		require.Equal(t, A{D{{Key: "a", Value: float64(1)}}}, a)
	})
}

func TestDecodeJSON(t *testing.T) {
	t.Run("single object keeps order and positions", func(t *testing.T) {
		docs, err := DecodeJSON([]byte("{\n  \"server\": {\n    \"port\": 1,\n    \"host\": \"x\"\n  }\n}"))
		require.NoError(t, err)
		require.Len(t, docs, 1)

		root := assertD(t, docs[0])
		require.Equal(t, Position{Line: 2, Column: 3}, root[0].Pos)

		server := assertD(t, root[0].Value)
		require.Equal(t, []string{"port", "host"}, server.Keys())
		require.Equal(t, Position{Line: 3, Column: 5}, server[0].Pos)
		require.Equal(t, Position{Line: 4, Column: 5}, server[1].Pos)
	})

	t.Run("position after comma on same line", func(t *testing.T) {
		docs, err := DecodeJSON([]byte(`{"a":1, "b":2}`))
		require.NoError(t, err)
		root := assertD(t, docs[0])
		require.Equal(t, Position{Line: 1, Column: 2}, root[0].Pos)
		require.Equal(t, Position{Line: 1, Column: 9}, root[1].Pos)
	})

	t.Run("stream of values yields one document each", func(t *testing.T) {
		docs, err := DecodeJSON([]byte("{\"a\":1}\n{\"b\":2}\n"))
		require.NoError(t, err)
		require.Len(t, docs, 2)
		require.Equal(t, []string{"b"}, assertD(t, docs[1]).Keys())
	})

	t.Run("empty input is invalid", func(t *testing.T) {
		_, err := DecodeJSON([]byte("  \n"))
		require.ErrorIs(t, err, ErrInvalidDocument)
	})

	t.Run("syntax error is invalid document", func(t *testing.T) {
		_, err := DecodeJSON([]byte(`{"a":`))
		require.ErrorIs(t, err, ErrInvalidDocument)
	})

	t.Run("trailing garbage is invalid document", func(t *testing.T) {
		_, err := DecodeJSON([]byte(`{"a":1} }`))
		require.ErrorIs(t, err, ErrInvalidDocument)
	})

	t.Run("duplicate names are rejected", func(t *testing.T) {
		_, err := DecodeJSON([]byte(`{"a":1,"a":2}`))
		require.ErrorIs(t, err, ErrInvalidDocument)
	})
}
