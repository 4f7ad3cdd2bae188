// Package hooks provides a named action/filter registry. Pipeline
// components subscribe to events such as upload completion or REST
// response preparation without the triggering code knowing about them.
package hooks
