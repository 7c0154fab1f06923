package strictkeys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfer(t *testing.T) {
	t.Run("one rule per mapping path with sequences collapsed", func(t *testing.T) {
		docs, err := DecodeYAML([]byte(`
server:
  host: x
  port: 1
servers:
  - name: a
  - name: b
    weight: 2
`))
		require.NoError(t, err)

		rs, err := Infer(Warn, docs...)
		require.NoError(t, err)
		rules := rs.Rules()
		require.Len(t, rules, 3)
		assert.Equal(t, "$", rules[0].String())
		assert.Equal(t, []string{"server", "servers"}, rules[0].Allowed())
		assert.Equal(t, "$.server", rules[1].String())
		assert.Equal(t, "$.servers", rules[2].String())
		assert.Equal(t, []string{"name", "weight"}, rules[2].Allowed())
		assert.Equal(t, Warn, rules[2].Mode())
	})

	t.Run("inferred rules accept their source", func(t *testing.T) {
		docs, err := DecodeJSON([]byte(`{"a.b":{"*":1,"x?":{"[*]":true}},"list":[{"k":1}]}`))
		require.NoError(t, err)

		rs, err := Infer(Strict, docs...)
		require.NoError(t, err)
		assert.Empty(t, Check(rs, docs[0]))
	})

	t.Run("inferred rules reject new keys", func(t *testing.T) {
		rs, err := Infer(Strict, D{{Key: "*", Value: 1}})
		require.NoError(t, err)
		vs := Check(rs, D{{Key: "other", Value: 1}})
		require.Len(t, vs, 1)
		assert.Equal(t, "other", vs[0].Key)
	})

	t.Run("unions keys across documents", func(t *testing.T) {
		rs, err := Infer(Strict, D{{Key: "a", Value: 1}}, D{{Key: "b", Value: 2}})
		require.NoError(t, err)
		require.Equal(t, 1, rs.Len())
		assert.Equal(t, []string{"a", "b"}, rs.Rules()[0].Allowed())
	})

	t.Run("no mappings yields empty rule set", func(t *testing.T) {
		rs, err := Infer(Strict, A{1, 2})
		require.NoError(t, err)
		assert.Zero(t, rs.Len())
	})
}

func TestMarshalRules(t *testing.T) {
	rs, err := NewRuleSet(
		newRule(t, "", Strict, "server"),
		newRule(t, "servers[*].tls", Warn, "cert", "x-*").WithDescription("tls block"),
		newRule(t, "db_*", Strict),
	)
	require.NoError(t, err)
	dotted, err := PatternFromSegments([]string{"a.b", "[*]"})
	require.NoError(t, err)
	listed, err := NewPathRule(dotted, []string{"1"}, Strict)
	require.NoError(t, err)
	rs, err = NewRuleSet(append(rs.Rules(), listed)...)
	require.NoError(t, err)

	for _, format := range []string{"yaml", "json"} {
		t.Run(format+" round trip", func(t *testing.T) {
			data, err := MarshalRules(rs, format)
			require.NoError(t, err)

			decode := DecodeYAML
			if format == "json" {
				decode = DecodeJSON
			}
			back, err := LoadRules(data, Format{Name: format, Decode: decode})
			require.NoError(t, err, string(data))

			want, got := rs.Rules(), back.Rules()
			require.Len(t, got, len(want))
			for i := range want {
				assert.Equal(t, want[i].Pattern().canonical(), got[i].Pattern().canonical())
				assert.Equal(t, want[i].Allowed(), got[i].Allowed())
				assert.Equal(t, want[i].Mode(), got[i].Mode())
				assert.Equal(t, want[i].Description(), got[i].Description())
			}
		})
	}

	t.Run("yaml uses dotted paths when possible", func(t *testing.T) {
		data, err := MarshalRules(rs, "yaml")
		require.NoError(t, err)
		assert.Contains(t, string(data), "servers[*].tls")
		assert.Contains(t, string(data), "- a.b")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := MarshalRules(rs, "toml")
		require.ErrorIs(t, err, ErrUnknownFormat)
	})
}
