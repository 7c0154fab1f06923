package strictkeys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadYAML(t *testing.T, src string) (*RuleSet, error) {
	t.Helper()
	f := Format{Name: "yaml", Decode: DecodeYAML}
	return LoadRules([]byte(src), f)
}

func TestLoadRules(t *testing.T) {
	t.Run("mapping document", func(t *testing.T) {
		rs, err := loadYAML(t, `
mode: warn
rules:
  - path: server
    allowed: [host, port]
    mode: strict
    description: listener
  - path: [a.b, c]
    allowed: []
`)
		require.NoError(t, err)
		rules := rs.Rules()
		require.Len(t, rules, 2)
		assert.Equal(t, "$.server", rules[0].String())
		assert.Equal(t, Strict, rules[0].Mode())
		assert.Equal(t, "listener", rules[0].Description())
		assert.Equal(t, []string{"host", "port"}, rules[0].Allowed())
		assert.Equal(t, `$["a.b"].c`, rules[1].String())
		assert.Equal(t, Warn, rules[1].Mode(), "document mode is the default")
	})

	t.Run("bare sequence document defaults to strict", func(t *testing.T) {
		rs, err := loadYAML(t, "- path: server\n  allowed: [host]\n")
		require.NoError(t, err)
		require.Equal(t, 1, rs.Len())
		assert.Equal(t, Strict, rs.Rules()[0].Mode())
	})

	t.Run("json document", func(t *testing.T) {
		rs, err := LoadRules([]byte(`{"rules":[{"path":"","allowed":["server"]}]}`), Format{Name: "json", Decode: DecodeJSON})
		require.NoError(t, err)
		assert.Equal(t, "$", rs.Rules()[0].String())
	})

	t.Run("duplicate path fails", func(t *testing.T) {
		_, err := loadYAML(t, "rules:\n  - {path: a, allowed: []}\n  - {path: $.a, allowed: [x]}\n")
		require.ErrorIs(t, err, ErrInvalidRuleSet)
		assert.Contains(t, err.Error(), "duplicate")
	})

	t.Run("non string allowed entry fails", func(t *testing.T) {
		_, err := loadYAML(t, "rules:\n  - {path: a, allowed: [host, 8080]}\n")
		require.ErrorIs(t, err, ErrInvalidRuleSet)
		assert.Contains(t, err.Error(), "not a string")
	})

	t.Run("unknown keys in rules document fail", func(t *testing.T) {
		_, err := loadYAML(t, "rules:\n  - path: a\n    alowed: [x]\n    allowed: []\nextra: 1\n")
		require.ErrorIs(t, err, ErrInvalidRuleSet)
		assert.Contains(t, err.Error(), `unknown key "alowed"`)
		assert.Contains(t, err.Error(), `unknown key "extra"`)
		assert.Contains(t, err.Error(), "3:5")
	})

	t.Run("unknown keys in bare sequence fail", func(t *testing.T) {
		_, err := loadYAML(t, "- path: a\n  allowed: []\n  severity: warn\n")
		require.ErrorIs(t, err, ErrInvalidRuleSet)
		assert.Contains(t, err.Error(), `unknown key "severity"`)
	})

	t.Run("all problems are reported", func(t *testing.T) {
		_, err := loadYAML(t, `
rules:
  - allowed: []
  - path: b
  - path: c
    allowed: x
  - path: d
    allowed: []
    mode: loud
  - 42
`)
		require.ErrorIs(t, err, ErrInvalidRuleSet)
		msg := err.Error()
		assert.Contains(t, msg, "rule 0: missing path")
		assert.Contains(t, msg, "rule 1: $.b: missing allowed")
		assert.Contains(t, msg, "rule 2: $.c: allowed must be a list")
		assert.Contains(t, msg, `rule 3: $.d: unknown mode "loud"`)
		assert.Contains(t, msg, "rule 4: must be a mapping")
	})

	t.Run("malformed source fails", func(t *testing.T) {
		_, err := loadYAML(t, "rules: [\n")
		require.ErrorIs(t, err, ErrInvalidRuleSet)
		require.ErrorIs(t, err, ErrInvalidDocument)
	})

	t.Run("empty and scalar documents fail", func(t *testing.T) {
		for _, src := range []string{"", "~\n", "just text\n", "a: 1\n---\nb: 2\n"} {
			_, err := loadYAML(t, src)
			require.ErrorIs(t, err, ErrInvalidRuleSet, "source %q", src)
		}
	})

	t.Run("missing rules key fails", func(t *testing.T) {
		_, err := loadYAML(t, "mode: strict\n")
		require.ErrorIs(t, err, ErrInvalidRuleSet)
		assert.Contains(t, err.Error(), "missing rules")
	})

	t.Run("bad path fails", func(t *testing.T) {
		for _, src := range []string{
			"- {path: a..b, allowed: []}\n",
			"- {path: 1, allowed: []}\n",
			"- {path: [a, 2], allowed: []}\n",
		} {
			_, err := loadYAML(t, src)
			require.ErrorIs(t, err, ErrInvalidRuleSet, "source %q", src)
		}
	})
}

func TestLoadRulesFile(t *testing.T) {
	reg, err := NewRegistry(Stdlib())
	require.NoError(t, err)

	t.Run("format chosen by extension", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "rules.json")
		require.NoError(t, os.WriteFile(p, []byte(`[{"path":"a","allowed":["b"]}]`), 0o600))

		rs, err := LoadRulesFile(p, reg)
		require.NoError(t, err)
		assert.Equal(t, 1, rs.Len())
	})

	t.Run("errors name the file", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "rules.yml")
		require.NoError(t, os.WriteFile(p, []byte("- {path: a}\n"), 0o600))

		_, err := LoadRulesFile(p, reg)
		require.ErrorIs(t, err, ErrInvalidRuleSet)
		assert.Contains(t, err.Error(), p)
	})

	t.Run("unknown extension", func(t *testing.T) {
		_, err := LoadRulesFile("rules.ini", reg)
		require.ErrorIs(t, err, ErrUnknownFormat)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRulesFile(filepath.Join(t.TempDir(), "nope.yaml"), reg)
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}
