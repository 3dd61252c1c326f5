// Package modset turns a directory of mods into ordered merge candidates.
package modset
