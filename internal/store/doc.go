// Package store persists podcast data in SQLite: subscribed feeds,
// their episodes, the playback queue and listening history.
//
// The download queue's in-flight state is not stored; downloads that
// do not finish before the process exits are simply gone, and only a
// completed download writes its local path onto the episode row.
package store
