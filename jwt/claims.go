package jwt

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// ClaimAuthorities carries the comma-joined authority names.
	ClaimAuthorities = "permissions"
	// ClaimResourceIDs carries the comma-joined accessible resource ids. It is
	// omitted when the principal has no resource scoping.
	ClaimResourceIDs = "courses"

	// Delimiter joins authorities and resource ids inside their claims.
	Delimiter = ","
)

// Claims is the verified claim set of an access token.
type Claims struct {
	Authorities string  `json:"permissions"`
	ResourceIDs *string `json:"courses,omitempty"`
	jwt.RegisteredClaims

	resourceIDsErr error
}

// UnmarshalJSON decodes the claim set. A courses value that is not a JSON
// string does not fail the decode; it is reported as ErrMalformedClaim when
// the Principal is rebuilt.
func (c *Claims) UnmarshalJSON(data []byte) error {
	type claimSet Claims
	aux := struct {
		*claimSet
		ResourceIDs json.RawMessage `json:"courses,omitempty"`
	}{claimSet: (*claimSet)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.ResourceIDs, c.resourceIDsErr = decodeResourceIDs(aux.ResourceIDs)
	return nil
}

func decodeResourceIDs(raw json.RawMessage) (*string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %s claim is not a string", ErrMalformedClaim, ClaimResourceIDs)
	}
	return &s, nil
}

func joinAuthorities(authorities []string) (string, error) {
	for _, a := range authorities {
		if strings.Contains(a, Delimiter) {
			return "", fmt.Errorf("%w: authority %q contains %q", ErrMalformedClaim, a, Delimiter)
		}
	}
	return strings.Join(authorities, Delimiter), nil
}

func joinResourceIDs(ids []int64) *string {
	if len(ids) == 0 {
		return nil
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	joined := strings.Join(parts, Delimiter)
	return &joined
}

func splitAuthorities(raw string) []string {
	if raw == "" {
		return nil
	}
	out := make([]string, 0, strings.Count(raw, Delimiter)+1)
	for _, part := range strings.Split(raw, Delimiter) {
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func splitResourceIDs(raw *string) ([]int64, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parts := strings.Split(*raw, Delimiter)
	out := make([]int64, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: resource id %q", ErrMalformedClaim, part)
		}
		out = append(out, id)
	}
	return out, nil
}
