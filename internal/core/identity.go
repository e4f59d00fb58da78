package core

// Identity is the normalized user identity extracted from a provider's
// profile claims. One callback produces exactly one Identity.
type Identity struct {
	ExternalID string            // Stable subject identifier per (provider, subject)
	Provider   string            // "google", etc.
	Email      string            // Optional
	Name       string            // Optional display name
	Picture    string            // Optional avatar URL
	Extra      map[string]string // Residual provider-specific claims
}

// ProviderTokenSet is the result of exchanging an authorization code with
// the identity provider. Not persisted beyond the request that produced it.
type ProviderTokenSet struct {
	AccessToken  string // required
	RefreshToken string // may be empty on repeat consent
}

// Claims returns the identity as a flat claim map for token issuance.
func (i *Identity) Claims() map[string]string {
	claims := make(map[string]string, len(i.Extra)+3)
	for k, v := range i.Extra {
		claims[k] = v
	}
	if i.Email != "" {
		claims["email"] = i.Email
	}
	if i.Name != "" {
		claims["name"] = i.Name
	}
	if i.Picture != "" {
		claims["picture"] = i.Picture
	}
	return claims
}
