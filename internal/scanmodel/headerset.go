package scanmodel

import "net/textproto"

// HeaderSet is a case-insensitive name->value map for custom request
// headers. Custom headers replace the engine's defaults of the same name,
// comparing names the way net/http canonicalizes them.
type HeaderSet struct {
	values map[string]string // keyed by canonical MIME header key
}

// NewHeaderSet builds a HeaderSet from a plain name->value map.
func NewHeaderSet(raw map[string]string) *HeaderSet {
	hs := &HeaderSet{values: make(map[string]string, len(raw))}
	for k, v := range raw {
		hs.values[textproto.CanonicalMIMEHeaderKey(k)] = v
	}
	return hs
}

// Get returns the value for name and whether it was set explicitly.
func (hs *HeaderSet) Get(name string) (string, bool) {
	if hs == nil {
		return "", false
	}
	v, ok := hs.values[textproto.CanonicalMIMEHeaderKey(name)]
	return v, ok
}

// Each iterates over the custom headers in an unspecified order.
func (hs *HeaderSet) Each(fn func(name, value string)) {
	if hs == nil {
		return
	}
	for k, v := range hs.values {
		fn(k, v)
	}
}
