package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	ConfigDir         string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string
	AutoRate          bool

	// Scraping defaults
	AllowedDomains []string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
