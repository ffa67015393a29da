// Package source fetches raw provider payloads.
//
// A Fetcher returns the provider's payload verbatim together with a
// capture timestamp and a method tag. The pipeline treats every
// capture method identically; browser-automated captures enter through
// the same snapshot store and normalize the same way.
package source
