package strictkeys

// Registration is a deferred format registration. Packages that define formats
// expose values of this type so callers opt in explicitly instead of relying
// on import side-effects (init functions).
//
// For example, in a package "tomlfmt":
//
//	var TOML = strictkeys.NewFormat("toml", decodeTOML, ".toml")
//
// Usage:
//
//	r, _ := strictkeys.NewRegistry(strictkeys.Stdlib(), tomlfmt.TOML)
type Registration func(r *Registry) error

// NewFormat wraps a decode function into a Registration for the given name and
// file extensions.
func NewFormat(name string, decode DecodeFunc, extensions ...string) Registration {
	return func(r *Registry) error {
		return r.Register(Format{Name: name, Extensions: extensions, Decode: decode})
	}
}

// Group groups multiple registrations into one:
//
//	strictkeys.NewRegistry(strictkeys.Group(strictkeys.JSONFormat, strictkeys.YAMLFormat))
func Group(regs ...Registration) Registration {
	return func(r *Registry) error { return Apply(r, regs...) }
}

// Apply applies one or more registrations to an existing registry. Stops at the
// first error and returns it.
func Apply(r *Registry, regs ...Registration) error {
	for _, reg := range regs {
		if err := reg(r); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry constructs a new registry and applies the provided registrations.
func NewRegistry(regs ...Registration) (*Registry, error) {
	r := newRegistry()
	if err := Apply(r, regs...); err != nil {
		return nil, err
	}
	return r, nil
}
