// Package model defines the data records shared across feedback:
// feeds, episodes and playback queue entries, plus filename
// sanitization for derived download names.
package model
