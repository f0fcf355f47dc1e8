// Package board defines the data model, Redis schema and storage backends for
// Easel canvas boards.
//
// # Overview
//
// A board is a session: an opaque id owning one ordered list of items. Items
// are structured cards (todo lists, agent notes, lab results, EHR snippets,
// doctor's notes) or generic shapes, positioned in a shared 2-D plane.
//
// # Storage
//
// Store is the persistence contract. RedisStore keeps each session as a JSON
// array under one key with a rolling TTL; MemoryStore mirrors that in process
// memory; FallbackStore serves from Redis until it fails and then from memory
// for the rest of the process's life.
//
// Stores move whole item lists. They do not serialize read-modify-write
// sequences; the server's per-session lock does.
//
// # Redis Schema
//
// Items: {namespace}:session:{session_id}:items (JSON string)
// Metadata: {namespace}:session:{session_id}:meta (hash: created_at_ms)
// Relay: {namespace}:session:{session_id}:events (Pub/Sub)
//
// # Events
//
// Event is the unit pushed to live viewers. Payload types for each EventType
// live alongside it so that servers and clients share one wire format.
//
// # Usage Example
//
//	store := board.NewFallbackStore(
//		board.NewRedisStore(&redis.Options{Addr: "localhost:6379"}),
//		board.NewMemoryStore(board.DefaultSessionTTL),
//	)
//
//	items, err := store.Load(ctx, "session-1")
//	if err != nil {
//		log.Fatal(err)
//	}
//	items = append(items, board.Item{ID: board.NewItemID(), Type: board.TypeSticky})
//	if err := store.Save(ctx, "session-1", items); err != nil {
//		log.Fatal(err)
//	}
package board
