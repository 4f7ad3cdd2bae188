// Package sideload downloads remote media into the local uploads
// directory, used when seeding content from an existing site.
package sideload
