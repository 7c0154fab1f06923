package strictkeys

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStdlib(t *testing.T) {
	t.Run("registers json and yaml", func(t *testing.T) {
		r, err := NewRegistry(Stdlib())
		require.NoError(t, err)
		require.Equal(t, []string{"json", "yaml"}, r.Names())
	})

	t.Run("registering twice fails", func(t *testing.T) {
		_, err := NewRegistry(Stdlib(), JSONFormat)
		require.Error(t, err)
	})

	t.Run("json and yaml decode the same document alike", func(t *testing.T) {
		r, err := NewRegistry(Stdlib())
		require.NoError(t, err)

		jsonFormat, err := r.Lookup("json")
		require.NoError(t, err)
		yamlFormat, err := r.Lookup("yaml")
		require.NoError(t, err)

		fromJSON, err := jsonFormat.Decode([]byte(`{"server":{"host":"x","tags":["a",{"k":"v"}]}}`))
		require.NoError(t, err)
		fromYAML, err := yamlFormat.Decode([]byte("server:\n  host: x\n  tags: [a, {k: v}]\n"))
		require.NoError(t, err)

		var jsonObs, yamlObs []Observation
		for obs := range Walk(fromJSON[0]) {
			jsonObs = append(jsonObs, obs)
		}
		for obs := range Walk(fromYAML[0]) {
			yamlObs = append(yamlObs, obs)
		}
		require.Len(t, yamlObs, len(jsonObs))
		for i := range jsonObs {
			require.Equal(t, jsonObs[i].Path.String(), yamlObs[i].Path.String())
			require.Equal(t, jsonObs[i].KeyNames(), yamlObs[i].KeyNames())
		}
	})
}
