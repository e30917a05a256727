// Package types defines the declaration model (contracts, operations,
// concrete types), the Registry interface, resolution results, and the
// standard errors for the traits method resolver.
package types
