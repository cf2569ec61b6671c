package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key for a user's active session JTI.
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// SurveyPayloadKey returns the cache key for a published survey's respondent payload.
func (r *CacheKeyStruct) SurveyPayloadKey(surveyID string) string {
	return fmt.Sprintf("survey:%s:payload", surveyID)
}

// AccessGrantKey returns the cache key for a minted survey access grant token.
func (r *CacheKeyStruct) AccessGrantKey(surveyID, token string) string {
	return fmt.Sprintf("survey:%s:grant:%s", surveyID, token)
}

// ResponseAnswersKey returns the cache key for a response's autosave buffer.
func (r *CacheKeyStruct) ResponseAnswersKey(surveyID, responseID string) string {
	return fmt.Sprintf("survey:%s:response:%s:answers", surveyID, responseID)
}

// SurveyLiveChannel returns the Redis PubSub channel for a survey's live results.
func (r *CacheKeyStruct) SurveyLiveChannel(surveyID string) string {
	return fmt.Sprintf("survey:%s:live", surveyID)
}

var CacheKey = NewCacheKeyStruct()
