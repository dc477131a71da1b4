package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Dialect picks the driver. A connection URI wins over the discrete host fields;
// its scheme decides the driver.
func Dialect(cfg Config) (gorm.Dialector, error) {
	if uri := strings.TrimSpace(cfg.URI); uri != "" {
		return dialectFromURI(uri)
	}

	switch cfg.Type {
	case "mysql":
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.Name,
		)), nil
	case "postgres":
		return postgres.Open(fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.Host,
			cfg.User,
			cfg.Password,
			cfg.Name,
			cfg.Port,
			cfg.SSLMode,
		)), nil
	case "sqlite":
		name := strings.TrimSpace(cfg.Name)
		if name == "" {
			name = "breakeven.db"
		}
		return sqlite.Open(name), nil
	default:
		return nil, fmt.Errorf("unsupported %s type", cfg.Type)
	}
}

// DriverName reports the dialect family used for cfg.
func DriverName(cfg Config) string {
	uri := strings.TrimSpace(cfg.URI)
	switch {
	case uri == "":
		return cfg.Type
	case strings.HasPrefix(uri, "postgres://"), strings.HasPrefix(uri, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(uri, "mysql://"):
		return "mysql"
	case strings.HasPrefix(uri, "sqlite://"), strings.HasPrefix(uri, "file:"):
		return "sqlite"
	default:
		return ""
	}
}

func dialectFromURI(uri string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(uri, "postgres://"), strings.HasPrefix(uri, "postgresql://"):
		return postgres.Open(uri), nil
	case strings.HasPrefix(uri, "mysql://"):
		return mysql.Open(strings.TrimPrefix(uri, "mysql://")), nil
	case strings.HasPrefix(uri, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(uri, "sqlite://")), nil
	case strings.HasPrefix(uri, "file:"):
		return sqlite.Open(uri), nil
	default:
		return nil, fmt.Errorf("unsupported connection uri scheme")
	}
}
