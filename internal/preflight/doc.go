// Package preflight provides readiness checks for the providers, sinks, and
// filesystem paths shortscout depends on.
//
// These checks run in two contexts:
//   - The CLI "shortscout doctor" command prints every result as a table.
//   - shortscoutd runs RunAll once at startup and logs failures as warnings
//     so a misconfigured provider is visible before the first request.
//
// Each check is gated by the configured provider. A disabled feature reports
// as skipped rather than failed.
package preflight
