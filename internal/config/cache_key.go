package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ProctorStateKey returns the cache key for a session's proctoring state hash.
func (r *CacheKeyStruct) ProctorStateKey(sessionID string) string {
	return fmt.Sprintf("session:%s:proctor_state", sessionID)
}

// ViolationCountsKey returns the cache key for a session's violation counters.
func (r *CacheKeyStruct) ViolationCountsKey(sessionID string) string {
	return fmt.Sprintf("session:%s:violation_counts", sessionID)
}

// SessionEventChannel returns the Redis PubSub channel for session events
// consumed by the WebSocket stream.
func (r *CacheKeyStruct) SessionEventChannel(sessionID string) string {
	return fmt.Sprintf("session:%s:events", sessionID)
}

var CacheKey = NewCacheKeyStruct()
