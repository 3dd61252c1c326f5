// Package watch triggers work when files under the mods directory change.
package watch
