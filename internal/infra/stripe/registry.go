package stripe

import "errors"

// Registry holds the two provider clients for the process lifetime. Test
// serves non-chargeable workspaces, Live serves chargeable ones.
type Registry struct {
	Test Provider
	Live Provider
}

// NewRegistry constructs both clients eagerly so a missing credential fails
// at startup instead of on the first request.
func NewRegistry(testKey, liveKey string) (*Registry, error) {
	if testKey == "" {
		return nil, errors.New("stripe test secret key not configured")
	}
	if liveKey == "" {
		return nil, errors.New("stripe live secret key not configured")
	}
	return &Registry{
		Test: NewProvider(testKey),
		Live: NewProvider(liveKey),
	}, nil
}

// For selects the client for a workspace's billing mode.
func (r *Registry) For(chargeable bool) Provider {
	if chargeable {
		return r.Live
	}
	return r.Test
}
