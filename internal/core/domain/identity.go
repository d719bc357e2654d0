package domain

import "strings"

// GuestOwner is the canonical sentinel for the anonymous owner partition.
// Write paths always store this explicit value; read paths additionally
// accept the historical empty representation so that data written before
// the sentinel was introduced stays visible.
const GuestOwner = "guest"

// Identity is a normalised owner identity: either a concrete user ID or
// the guest partition. The zero value is not valid; identities are
// obtained through NormalizeIdentity so that the absent and sentinel
// guest representations collapse into a single equivalence class.
type Identity struct {
	canonical string
}

// NormalizeIdentity resolves a raw owner identifier into its canonical
// form. Empty, whitespace-only, and sentinel inputs all map to the guest
// partition; anything else is a concrete user identity.
func NormalizeIdentity(raw string) Identity {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, GuestOwner) {
		return Identity{canonical: GuestOwner}
	}
	return Identity{canonical: trimmed}
}

// String returns the canonical storage representation.
func (id Identity) String() string {
	return id.canonical
}

// IsGuest returns true if this identity is the anonymous partition.
func (id Identity) IsGuest() bool {
	return id.canonical == GuestOwner
}

// IsZero returns true for an identity that did not pass through
// NormalizeIdentity. Zero identities are rejected by every store.
func (id Identity) IsZero() bool {
	return id.canonical == ""
}

// Filter builds the owner predicate for this identity. This is the only
// way to construct an OwnerFilter: call sites cannot hand-roll equality
// checks against stored owner values, which is how guest data written
// with the absent representation historically became invisible.
func (id Identity) Filter() OwnerFilter {
	forms := []string{id.canonical}
	if id.IsGuest() {
		forms = append(forms, "")
	}
	return OwnerFilter{canonical: id.canonical, forms: forms}
}

// OwnerFilter matches every storage representation of one owner
// partition. For guest identities it accepts both the explicit sentinel
// and the absent/empty form.
type OwnerFilter struct {
	canonical string
	forms     []string
}

// Canonical returns the canonical owner value the filter represents.
func (f OwnerFilter) Canonical() string {
	return f.canonical
}

// Forms returns every stored representation the filter accepts.
// Backends with server-side filtering translate these into IN lists or
// filter expressions.
func (f OwnerFilter) Forms() []string {
	return f.forms
}

// Matches reports whether a stored owner value belongs to the partition.
func (f OwnerFilter) Matches(stored string) bool {
	for _, form := range f.forms {
		if stored == form {
			return true
		}
	}
	return false
}

// IsZero returns true for a filter that was not built through an
// Identity. Stores treat a zero filter as a programming error rather
// than silently matching nothing or everything.
func (f OwnerFilter) IsZero() bool {
	return f.canonical == ""
}
