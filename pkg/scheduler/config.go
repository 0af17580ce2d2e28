package scheduler

// MaxTimeoutSeconds caps the per-action timeout budget at 24 hours
const MaxTimeoutSeconds = 86400

// Config holds the configuration for the action scheduler
type Config struct {
	Enabled        bool   `env:"SCHEDULER_ENABLED" envDefault:"true"`
	Debug          bool   `env:"SCHEDULER_DEBUG" envDefault:"false"`
	TimeoutSeconds int    `env:"SCHEDULER_TIMEOUT_SECONDS" envDefault:"60"`
	APIURL         string `env:"SCHEDULER_API_URL" envDefault:"/api"`
	MaxConcurrent  int    `env:"SCHEDULER_MAX_CONCURRENT" envDefault:"10"`
	SigningSecret  string `env:"SCHEDULER_SIGNING_SECRET,required"`
}

// normalize applies defaults and the timeout cap
func (c Config) normalize() Config {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 60
	}
	if c.TimeoutSeconds > MaxTimeoutSeconds {
		c.TimeoutSeconds = MaxTimeoutSeconds
	}
	if c.APIURL == "" {
		c.APIURL = "/api"
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 10
	}
	return c
}
