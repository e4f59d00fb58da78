// Package identity maps provider-specific profile claims into the
// gateway's canonical identity record.
package identity

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/labzang/hagueapi/internal/core"
)

// ErrNoSubject indicates the profile payload carried no usable subject field
var ErrNoSubject = errors.New("profile has no usable subject identifier")

// Claim keys recognized across providers, in lookup order.
var subjectKeys = []string{"sub", "id"}

// wellKnown are the claim keys promoted to named Identity fields.
var wellKnown = map[string]struct{}{
	"sub": {}, "id": {}, "email": {}, "name": {}, "picture": {},
}

// Normalize converts raw provider claims into an Identity. Pure function:
// no I/O, no mutation of the input map. The subject is taken from "sub"
// (OIDC) or "id" (legacy provider APIs); numeric subjects are rendered in
// decimal so the external id stays stable per (provider, subject).
func Normalize(provider string, rawClaims map[string]any) (*core.Identity, error) {
	subject := ""
	for _, key := range subjectKeys {
		if s := stringify(rawClaims[key]); s != "" {
			subject = s
			break
		}
	}
	if subject == "" {
		return nil, fmt.Errorf("%w: provider=%s", ErrNoSubject, provider)
	}

	id := &core.Identity{
		ExternalID: subject,
		Provider:   provider,
		Email:      stringify(rawClaims["email"]),
		Name:       stringify(rawClaims["name"]),
		Picture:    stringify(rawClaims["picture"]),
	}

	for key, value := range rawClaims {
		if _, known := wellKnown[key]; known {
			continue
		}
		if s := stringify(value); s != "" {
			if id.Extra == nil {
				id.Extra = make(map[string]string)
			}
			id.Extra[key] = s
		}
	}

	return id, nil
}

// stringify renders scalar claim values as strings. Nested objects and
// arrays are dropped rather than guessed at.
func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		// JSON numbers decode as float64; provider ids are integral
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
