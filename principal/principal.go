// Package principal defines the authenticated identity carried by access tokens.
package principal

import "slices"

// Principal is the verified identity plus authorization scope carried by a token.
//
// Authorities behave as a set: order is irrelevant and duplicates collapse.
// AccessibleResourceIDs is an ordered sequence and is never deduplicated.
type Principal struct {
	Subject               string
	Authorities           []string
	AccessibleResourceIDs []int64
}

// New returns a Principal with normalized authorities.
func New(subject string, authorities []string, resourceIDs []int64) Principal {
	return Principal{
		Subject:               subject,
		Authorities:           NormalizeAuthorities(authorities),
		AccessibleResourceIDs: slices.Clone(resourceIDs),
	}
}

// IsZero reports whether p carries no identity.
func (p Principal) IsZero() bool {
	return p.Subject == "" && len(p.Authorities) == 0 && len(p.AccessibleResourceIDs) == 0
}

// HasAuthority reports whether name is one of the granted authorities.
func (p Principal) HasAuthority(name string) bool {
	return slices.Contains(p.Authorities, name)
}

// CanAccessResource reports whether id is in the accessible resource list.
func (p Principal) CanAccessResource(id int64) bool {
	return slices.Contains(p.AccessibleResourceIDs, id)
}

// Clone returns a deep copy of p.
func (p Principal) Clone() Principal {
	return Principal{
		Subject:               p.Subject,
		Authorities:           slices.Clone(p.Authorities),
		AccessibleResourceIDs: slices.Clone(p.AccessibleResourceIDs),
	}
}

// Equal compares subjects, authority sets and resource id sequences.
// A nil and an empty resource list are equal.
func (p Principal) Equal(other Principal) bool {
	if p.Subject != other.Subject {
		return false
	}
	if !sameAuthoritySet(p.Authorities, other.Authorities) {
		return false
	}
	return slices.Equal(p.AccessibleResourceIDs, other.AccessibleResourceIDs)
}

// NormalizeAuthorities drops empty names and duplicates, keeping the first
// occurrence order.
func NormalizeAuthorities(authorities []string) []string {
	if len(authorities) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(authorities))
	out := make([]string, 0, len(authorities))
	for _, a := range authorities {
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func sameAuthoritySet(a, b []string) bool {
	a = NormalizeAuthorities(a)
	b = NormalizeAuthorities(b)
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, name := range a {
		set[name] = struct{}{}
	}
	for _, name := range b {
		if _, ok := set[name]; !ok {
			return false
		}
	}
	return true
}
