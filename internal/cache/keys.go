package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}

// AdvisoryKey addresses a cached advisory-oracle response by prompt hash.
func AdvisoryKey(provider, promptHash string) string {
	return fmt.Sprintf("advisory:%s:%s", provider, promptHash)
}

func LatestPredictionsKey(userID uuid.UUID) string {
	return fmt.Sprintf("predictions:latest:%s", userID)
}

// AlertChannel is the pub/sub channel prevention alerts are published on.
func AlertChannel(userID uuid.UUID) string {
	return fmt.Sprintf("alerts:%s", userID)
}
