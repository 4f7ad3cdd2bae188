// Package urlcanon rewrites media URL references to the current canonical
// media host.
//
// Stored content accumulated references in several historical forms: the
// superseded vsgtalent.nl domains, root-relative uploads paths, paths
// without a leading slash, and the occasional bare attachment ID leaked
// into a string field. The canonicalizer maps all of them to one absolute
// URL on the configured host, and is applied both at write time (gallery
// repair) and at read time (REST response filtering).
package urlcanon
