package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithDefaultsFillsZeroFields(t *testing.T) {
	s := (&Settings{}).withDefaults()

	assert.Equal(t, DefaultRedisAddr, s.RedisAddr)
	assert.Equal(t, DefaultQueueName, s.QueueName)
	assert.Equal(t, DefaultMaxJobs, s.MaxJobs)
	assert.Equal(t, DefaultPollInterval, s.PollInterval)
	assert.Equal(t, DefaultJobTimeout, s.JobTimeout)
	assert.Equal(t, DefaultHealthCheckInterval, s.HealthCheckInterval)
	assert.Equal(t, DefaultResultTTL, s.ResultTTL)
	assert.Equal(t, DefaultWatchDebounce, s.WatchDebounce)
}

func TestWithDefaultsKeepsExplicitValues(t *testing.T) {
	in := Settings{
		RedisAddr:    "redis.internal:6380",
		QueueName:    "critical",
		MaxJobs:      2,
		PollInterval: 100 * time.Millisecond,
	}
	s := in.withDefaults()

	assert.Equal(t, "redis.internal:6380", s.RedisAddr)
	assert.Equal(t, "critical", s.QueueName)
	assert.Equal(t, 2, s.MaxJobs)
	assert.Equal(t, 100*time.Millisecond, s.PollInterval)
	assert.Equal(t, Settings{
		RedisAddr:    "redis.internal:6380",
		QueueName:    "critical",
		MaxJobs:      2,
		PollInterval: 100 * time.Millisecond,
	}, in, "withDefaults must not mutate its receiver")
}

func TestApplyBurstOverride(t *testing.T) {
	s := Settings{Burst: false}

	no := s.apply(Overrides{})
	assert.False(t, no.Burst, "nil override leaves the settings value")

	on := true
	assert.True(t, s.apply(Overrides{Burst: &on}).Burst)

	off := false
	withBurst := Settings{Burst: true}
	assert.False(t, withBurst.apply(Overrides{Burst: &off}).Burst)
	assert.True(t, withBurst.Burst, "apply must not mutate its receiver")
}

func TestRedisKeys(t *testing.T) {
	s := Settings{QueueName: "mail"}
	assert.Equal(t, "foreman:queue:mail", s.queueKey())
	assert.Equal(t, "foreman:health:mail", s.healthKey())
	assert.Equal(t, "foreman:result:abc123", resultKey("abc123"))

	s.HealthCheckKey = "custom:health"
	assert.Equal(t, "custom:health", s.healthKey())
}
