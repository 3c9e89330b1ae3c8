package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Server        ServerConfig            `mapstructure:"server"`
	Datasource    DatasourceConfig        `mapstructure:"datasource"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Finder        FinderConfig            `mapstructure:"finder"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds the HTTP view-adapter transport settings.
type ServerConfig struct {
	Address         string `mapstructure:"address"`
	SessionTTL      int    `mapstructure:"session_ttl"` // milliseconds
	MaxSessions     int    `mapstructure:"max_sessions"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// Datasource kinds.
const (
	DatasourceStatic        = "static"
	DatasourceSheet         = "sheet"
	DatasourceFile          = "file"
	DatasourcePostgres      = "postgres"
	DatasourceElasticsearch = "elasticsearch"
)

// DatasourceConfig selects where the session venue set is read from.
type DatasourceConfig struct {
	Kind     string `mapstructure:"kind"`
	SheetURL string `mapstructure:"sheet_url"`
	FilePath string `mapstructure:"file_path"`
	Table    string `mapstructure:"table"`
	Index    string `mapstructure:"index"`
	MaxRows  int    `mapstructure:"max_rows"`
	Timeout  int    `mapstructure:"timeout"` // milliseconds
	// CacheTTL enables the redis record cache when > 0.
	CacheTTL int `mapstructure:"cache_ttl"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// FinderConfig holds the per-deployment behaviour of the filter and
// selection core.
type FinderConfig struct {
	RatingMin float64 `mapstructure:"rating_min"`
	RatingMax float64 `mapstructure:"rating_max"`
	// ShowAllWhenUnselected selects the list/expander detail view over the
	// "prompt to select" view when nothing is selected.
	ShowAllWhenUnselected bool `mapstructure:"show_all_when_unselected"`
	// ToggleOnReselect makes a click on the selected venue deselect it.
	ToggleOnReselect *bool `mapstructure:"toggle_on_reselect"`
}

// Toggle reports the effective reselect policy; unset means toggle.
func (f FinderConfig) Toggle() bool {
	if f.ToggleOnReselect == nil {
		return true
	}
	return *f.ToggleOnReselect
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ObservabilityConfig holds otel settings.
type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}
