package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// QuestionnaireSessionKey returns the cache key for a participant's wizard snapshot
func (r *CacheKeyStruct) QuestionnaireSessionKey(hackathonID string, participantID int) string {
	return fmt.Sprintf("participant:%d:hackathon:%s:questionnaire", participantID, hackathonID)
}

// QuestionnaireSubmitLockKey returns the lock key held while a submission is in flight
func (r *CacheKeyStruct) QuestionnaireSubmitLockKey(hackathonID string, participantID int) string {
	return fmt.Sprintf("participant:%d:hackathon:%s:questionnaire:submit_lock", participantID, hackathonID)
}

// BoardChannel returns the Redis PubSub channel name for a hackathon's team board
func (r *CacheKeyStruct) BoardChannel(hackathonID string) string {
	return fmt.Sprintf("hackathon:%s:board", hackathonID)
}

// RateLimitKey returns the counter key for a rate limited route and client
func (r *CacheKeyStruct) RateLimitKey(route, client string) string {
	return fmt.Sprintf("ratelimit:%s:%s", route, client)
}

var CacheKey = NewCacheKeyStruct()
