package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/uwcoe/persondir/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

// LoadEnv loads the given dotenv files from the working directory, falling
// back to the module root (nearest parent with a go.mod) when none are
// present, so tests and tools keep working from subdirectories.
func LoadEnv(envFiles []string) (int, error) {
	existing := existingFiles(".", envFiles)
	if len(existing) == 0 {
		if root := findModuleRoot(); root != "" {
			existing = existingFiles(root, envFiles)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

func existingFiles(dir string, names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			out = append(out, path)
		}
	}
	return out
}

func findModuleRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil && !info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// DatabaseOptions configures the local persons store (Postgres).
type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"persondir"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

// EdwOptions configures the read-only enterprise data warehouse connection
// and the scope of the periodic person import.
type EdwOptions struct {
	// Driver is any registered database/sql driver name. The warehouse is
	// reached through whatever gateway the deployment provides, so the
	// driver stays a deploy-time decision.
	Driver string `env:"EDW_DRIVER" envDefault:"postgres"`
	DSN    string `env:"EDW_DSN"`
	// OrgMatch is the organization LIKE pattern selecting which person
	// rows the batch import covers.
	OrgMatch string `env:"EDW_ORG_MATCH" envDefault:"%UWORG%"`
	// ValidityYears: rows must still be valid this many years back from
	// the moment the job runs.
	ValidityYears int `env:"EDW_VALIDITY_YEARS" envDefault:"1"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type Configuration struct {
	Database   DatabaseOptions
	Edw        EdwOptions
	Prometheus PrometheusOptions

	MigrationsDir    string `env:"MIGRATIONS_DIR" envDefault:"migrations"`
	ServerPort       int    `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string `env:"-"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"error"`
	LogPath          string `env:"LOG_PATH" envDefault:"./logs/app.log"`
	// Header carrying the request id; a uuid is generated when absent.
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	// Cap on suggest/prefetch result sizes.
	SuggestLimit  int `env:"SUGGEST_LIMIT" envDefault:"25"`
	PrefetchLimit int `env:"PREFETCH_LIMIT" envDefault:"1000"`
	// Legacy integration path: match imported rows on uwnetid instead of
	// person_id. Off by default; person_id is the canonical match key.
	ImportMatchByNetID bool `env:"IMPORT_MATCH_BY_NETID" envDefault:"false"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func Use() *Configuration {
	return singleton()
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	if err := c.validate(); err != nil {
		return err
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	c.Database.Opts = c.Database.ConnectionString()
	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}
	return nil
}

func (c *Configuration) validate() error {
	if c.Edw.ValidityYears < 0 {
		return fmt.Errorf("EDW_VALIDITY_YEARS must be non-negative, got %d", c.Edw.ValidityYears)
	}
	if c.SuggestLimit <= 0 {
		return fmt.Errorf("SUGGEST_LIMIT must be positive, got %d", c.SuggestLimit)
	}
	if strings.TrimSpace(c.Edw.Driver) == "" {
		return fmt.Errorf("EDW_DRIVER must not be empty")
	}
	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
