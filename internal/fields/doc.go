// Package fields converts between typed payloads and the string-only field
// maps stored in streams.
package fields
