// Package permission provides the catalog of well-known authorities and a
// registry restricting which authority names an issuer may grant.
//
// # Catalog
//
// Each [Permission] value is the identifier carried in the token's
// permissions claim. [Permission.FullName] maps it to the product path
// (for example "Q-Organizer/all").
//
// # Architecture boundaries
//
// This package is a pure in-memory data structure with no I/O. Registration
// happens at startup; after [Registry.Freeze] the registry is read-only.
//
// # What this package must NOT do
//
//   - Decide whether a principal may perform an action.
//   - Import tokenauth, jwt or transport.
package permission
