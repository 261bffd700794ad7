package worker

import "time"

// Defaults applied by withDefaults when a settings field is left zero.
const (
	DefaultRedisAddr           = "localhost:6379"
	DefaultQueueName           = "default"
	DefaultMaxJobs             = 10
	DefaultPollInterval        = 500 * time.Millisecond
	DefaultJobTimeout          = 5 * time.Minute
	DefaultHealthCheckInterval = time.Minute
	DefaultResultTTL           = time.Hour
	DefaultWatchDebounce       = 300 * time.Millisecond
)

// Settings describes one logical worker: where its queue lives and how it
// runs. A Settings value is resolved once and then treated as immutable;
// overrides produce a copy.
type Settings struct {
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	QueueName string `mapstructure:"queue_name"`

	// Burst makes the worker exit once the queue is drained instead of
	// polling indefinitely.
	Burst bool `mapstructure:"burst"`

	// MaxJobs bounds the number of jobs executing concurrently.
	MaxJobs      int           `mapstructure:"max_jobs"`
	JobTimeout   time.Duration `mapstructure:"job_timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`

	// HealthCheckKey overrides the derived heartbeat key when set.
	HealthCheckKey      string        `mapstructure:"health_check_key"`
	HealthCheckInterval time.Duration `mapstructure:"health_check_interval"`

	ResultTTL time.Duration `mapstructure:"result_ttl"`

	// Functions restricts the worker to a subset of the registered job
	// functions. Empty means all registered functions.
	Functions []string `mapstructure:"functions"`

	// WatchDebounce is how long the file watcher coalesces change events
	// before triggering a reload in watch mode.
	WatchDebounce time.Duration `mapstructure:"watch_debounce"`
}

// Overrides carries CLI-level settings overrides. Nil fields leave the
// resolved settings untouched.
type Overrides struct {
	Burst *bool
}

func (s *Settings) withDefaults() *Settings {
	cp := *s
	if cp.RedisAddr == "" {
		cp.RedisAddr = DefaultRedisAddr
	}
	if cp.QueueName == "" {
		cp.QueueName = DefaultQueueName
	}
	if cp.MaxJobs <= 0 {
		cp.MaxJobs = DefaultMaxJobs
	}
	if cp.PollInterval <= 0 {
		cp.PollInterval = DefaultPollInterval
	}
	if cp.JobTimeout <= 0 {
		cp.JobTimeout = DefaultJobTimeout
	}
	if cp.HealthCheckInterval <= 0 {
		cp.HealthCheckInterval = DefaultHealthCheckInterval
	}
	if cp.ResultTTL <= 0 {
		cp.ResultTTL = DefaultResultTTL
	}
	if cp.WatchDebounce <= 0 {
		cp.WatchDebounce = DefaultWatchDebounce
	}
	return &cp
}

func (s *Settings) apply(ov Overrides) *Settings {
	cp := *s
	if ov.Burst != nil {
		cp.Burst = *ov.Burst
	}
	return &cp
}

func (s *Settings) queueKey() string {
	return "foreman:queue:" + s.QueueName
}

func (s *Settings) healthKey() string {
	if s.HealthCheckKey != "" {
		return s.HealthCheckKey
	}
	return "foreman:health:" + s.QueueName
}

func resultKey(jobID string) string {
	return "foreman:result:" + jobID
}
