// Package acl implements the Anti-Corruption Layer between external services
// and the quote domain.
//
// External DTOs stay unexported inside this package. Adapters embed
// [BaseAdapter], decode with [DecodeResponse] and translate each item into a
// domain value, dropping items that carry nothing usable. Failures are mapped
// to domain errors by [MapHTTPError]:
//   - 404 → [domain.ErrNotFound]
//   - 400/422 and other 4xx → [domain.ErrValidation]
//   - 401/403 → [domain.ErrForbidden]
//   - 429, 5xx, transport and decode failures → [domain.ErrUnavailable]
//
// [PlaceholderClient] is the adapter for the remote posts API used by the
// quote syncer.
package acl
