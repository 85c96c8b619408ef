package auth

import "slices"

// Claim is a single statement about a subject.
type Claim struct {
	Type  string
	Value string
}

// Identity is one authenticated (or anonymous) view of a subject. An identity
// is authenticated when it has an authentication type.
type Identity struct {
	AuthenticationType string
	Name               string
	Claims             []Claim
}

// NewIdentity inits an identity. Passing an empty authType creates an
// anonymous identity.
func NewIdentity(authType, name string, claims ...Claim) Identity {
	return Identity{AuthenticationType: authType, Name: name, Claims: claims}
}

// IsAuthenticated reports whether the identity was authenticated.
func (i Identity) IsAuthenticated() bool { return i.AuthenticationType != "" }

// Principal is the subject a request runs as.
type Principal struct {
	Identities []Identity
}

// NewPrincipal inits a principal from its identities.
func NewPrincipal(ids ...Identity) *Principal {
	return &Principal{Identities: ids}
}

// Identity returns the primary identity, or the zero identity when there is none.
func (p *Principal) Identity() Identity {
	if p == nil || len(p.Identities) == 0 {
		return Identity{}
	}

	return p.Identities[0]
}

// IsAuthenticated reports whether any identity is authenticated.
func (p *Principal) IsAuthenticated() bool {
	if p == nil {
		return false
	}

	return slices.ContainsFunc(p.Identities, Identity.IsAuthenticated)
}

// FindFirst returns the first claim of the given type across all identities.
func (p *Principal) FindFirst(typ string) (Claim, bool) {
	if p == nil {
		return Claim{}, false
	}

	for _, id := range p.Identities {
		if idx := slices.IndexFunc(id.Claims, func(c Claim) bool { return c.Type == typ }); idx >= 0 {
			return id.Claims[idx], true
		}
	}

	return Claim{}, false
}

// HasClaim reports whether a claim with the type and value exists. An empty
// value matches any claim of the type.
func (p *Principal) HasClaim(typ, value string) bool {
	if p == nil {
		return false
	}

	for _, id := range p.Identities {
		if slices.ContainsFunc(id.Claims, func(c Claim) bool {
			return c.Type == typ && (value == "" || c.Value == value)
		}) {
			return true
		}
	}

	return false
}
