package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 3, cfg.Scheduler.ReservationRetries)
	assert.Equal(t, 24*time.Hour, cfg.Scheduler.ExpiryInterval)
	assert.Equal(t, 10*time.Minute, cfg.Calendar.CacheTTL)
	assert.False(t, cfg.Calendar.HideCancelledOccurrences)
	assert.Equal(t, "lesson.notifications", cfg.Notifications.Topic)
	assert.Empty(t, cfg.Notifications.Brokers)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("KAFKA_BROKERS", " kafka-1:9092, ,kafka-2:9092 ")
	v.Set("CALENDAR_CACHE_TTL", "not-a-duration")
	v.Set("CALENDAR_HIDE_CANCELLED_OCCURRENCES", true)
	cfg := fromViper(v)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Notifications.Brokers)
	assert.Equal(t, 10*time.Minute, cfg.Calendar.CacheTTL)
	assert.True(t, cfg.Calendar.HideCancelledOccurrences)
}
