// Package domain defines the capability interfaces persisted records implement
// (identity, audit timestamps, acting users) and embeddable base structs that
// satisfy them.
package domain
