package strictkeys

// Built-in format registrations using canonical names.
var (
	// JSONFormat decodes ".json" files, including streams of JSON values.
	JSONFormat = NewFormat("json", DecodeJSON, ".json")

	// YAMLFormat decodes ".yaml" and ".yml" files, including multi-document
	// streams.
	YAMLFormat = NewFormat("yaml", DecodeYAML, ".yaml", ".yml")
)

// Stdlib returns the built-in formats as a single registration.
func Stdlib() Registration {
	return Group(JSONFormat, YAMLFormat)
}
