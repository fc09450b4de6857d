package store

import "fmt"

// Key patterns for the session keyspace. These are the only durable keys.
func sessionMetadataKey(sid string) string {
	return fmt.Sprintf("session:%s:metadata", sid)
}

func stateKey(sid string, version int) string {
	return fmt.Sprintf("session:%s:state:v%d", sid, version)
}

func statePattern(sid string) string {
	return fmt.Sprintf("session:%s:state:v*", sid)
}

func versionMetadataKey(sid string, version int) string {
	return fmt.Sprintf("session:%s:version_metadata:v%d", sid, version)
}

func versionMetadataPattern(sid string) string {
	return fmt.Sprintf("session:%s:version_metadata:v*", sid)
}

func contextKey(sid string) string {
	return fmt.Sprintf("session:%s:context", sid)
}

func userSessionsKey(uid string) string {
	return fmt.Sprintf("user:%s:sessions", uid)
}
