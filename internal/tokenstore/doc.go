// Package tokenstore persists the token -> record mapping.
//
// The durable form is one JSON document:
//
//	{
//	  "<token>": {"expires": "YYYY-MM-DD"}
//	}
//
// FileStore writes it through a temporary file in the same directory that is
// synced and atomically renamed over the primary path, so a failed save never
// damages the previous state. Every read-modify-write goes through Update,
// which holds the store's write lock for the whole window.
package tokenstore
