package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DBConfig selects and configures the catalog database connection.
type DBConfig struct {
	Driver string
	DSN    string
	Logger gormlogger.Interface
	// Tracing installs the otelgorm plugin so every query gets a span.
	Tracing bool
}

// Dialect maps a driver name to its gorm dialector. PrestaShop runs on MySQL;
// postgres and sqlite serve replicas and local fixtures.
func Dialect(driver, dsn string) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "mysql", "":
		conf, err := MySQLConfig(dsn)
		if err != nil {
			return nil, err
		}
		return mysql.New(mysql.Config{DSNConfig: conf}), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("catalog: unsupported database driver %q", driver)
	}
}

// MySQLConfig parses a MySQL DSN and forces DATETIME columns to be scanned
// as time.Time in the local zone. PrestaShop stores wall-clock times in the
// shop's zone, so validity windows compare against the local clock.
func MySQLConfig(dsn string) (*mysqldriver.Config, error) {
	conf, err := mysqldriver.ParseDSN(strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("catalog: parse mysql dsn: %w", err)
	}
	conf.ParseTime = true
	conf.Loc = time.Local
	return conf, nil
}

// Open connects to the catalog database.
func Open(cfg DBConfig) (*gorm.DB, error) {
	dialector, err := Dialect(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	gormCfg := &gorm.Config{SkipDefaultTransaction: true}
	if cfg.Logger != nil {
		gormCfg.Logger = cfg.Logger
	}
	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", cfg.Driver, err)
	}
	if cfg.Tracing {
		if err := db.Use(otelgorm.NewPlugin(otelgorm.WithDBName("prestashop"))); err != nil {
			return nil, fmt.Errorf("catalog: install tracing: %w", err)
		}
	}
	return db, nil
}
