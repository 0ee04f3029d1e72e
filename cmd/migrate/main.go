// Package main provides a database migration runner over the embedded
// schema migrations.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/wordrace/internal/config"
	"github.com/cory-johannsen/wordrace/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	flag.Parse()

	v := config.Defaults()
	v.SetConfigFile(*configPath)
	v.SetEnvPrefix("WORDRACE")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("reading config: %v", err)
	}

	dbCfg, err := databaseConfig(v)
	if err != nil {
		log.Fatalf("parsing database config: %v", err)
	}

	res, err := postgres.Migrate(dbCfg.DSN(), *direction, *steps)
	if err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	elapsed := time.Since(start)
	if !res.Changed {
		fmt.Fprintf(os.Stdout, "no changes (version=%d dirty=%v) [%s]\n", res.Version, res.Dirty, elapsed)
		return
	}
	fmt.Fprintf(os.Stdout, "migrated %s to version=%d dirty=%v [%s]\n", *direction, res.Version, res.Dirty, elapsed)
}

// databaseConfig reads only the database section so migrations can run
// before the rest of the config is filled in.
func databaseConfig(v *viper.Viper) (config.DatabaseConfig, error) {
	var dbCfg config.DatabaseConfig
	sub := v.Sub("database")
	if sub == nil {
		return dbCfg, fmt.Errorf("config has no database section")
	}
	if err := sub.Unmarshal(&dbCfg); err != nil {
		return dbCfg, err
	}
	return dbCfg, nil
}
