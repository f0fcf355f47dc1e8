package board

import "fmt"

// Redis key pattern helpers
//
// All Redis keys and Pub/Sub channels are namespaced so that several Easel
// deployments can share one Redis server without seeing each other's sessions.
//
// Key pattern: {namespace}:session:{session_id}:{entity}
// Channel pattern: {namespace}:session:{session_id}:events

// SessionItemsKey returns the Redis key holding a session's item list.
// The value is the whole item array encoded as JSON.
// Pattern: {namespace}:session:{session_id}:items
func SessionItemsKey(namespace, sessionID string) string {
	return fmt.Sprintf("%s:session:%s:items", namespace, sessionID)
}

// SessionMetaKey returns the Redis key for a session's metadata hash.
// Pattern: {namespace}:session:{session_id}:meta
func SessionMetaKey(namespace, sessionID string) string {
	return fmt.Sprintf("%s:session:%s:meta", namespace, sessionID)
}

// SessionEventsChannel returns the Pub/Sub channel relaying a session's events
// between server instances.
// Pattern: {namespace}:session:{session_id}:events
func SessionEventsChannel(namespace, sessionID string) string {
	return fmt.Sprintf("%s:session:%s:events", namespace, sessionID)
}

// SessionEventsPattern returns the PSUBSCRIBE pattern matching every session's
// event channel in a namespace.
func SessionEventsPattern(namespace string) string {
	return fmt.Sprintf("%s:session:*:events", namespace)
}
