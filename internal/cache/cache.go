package cache

import (
	"context"
	"fmt"
	"time"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Claimer hands out a key to exactly one caller until ttl expires.
type Claimer interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

const AnalyticsTTL = 60 * time.Second

func SessionKey(sessionID string) string { return fmt.Sprintf("interview:session:%s", sessionID) }

func AnalyticsKey(jobID string) string { return fmt.Sprintf("interview:analytics:%s", jobID) }

func FinalizedKey(sessionID string) string {
	return fmt.Sprintf("interview:%s:finalized", sessionID)
}

// Publisher fans out status events to other processes.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

func StatusChannel(sessionID string) string { return fmt.Sprintf("interview:%s:status", sessionID) }
