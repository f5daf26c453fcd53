// Package config loads lobstats configuration.
//
// # Configuration Sources
//
// Values are layered, later sources winning:
//
//	1. Default()
//	2. A YAML file: $LOBSTATS_CONFIG_FILE, else config.yaml or configs/config.yaml
//	3. Environment variables prefixed LOBSTATS_
//
// # Environment Variables
//
// Variable names follow the struct nesting:
//
//	LOBSTATS_SERVER_PORT=8080
//	LOBSTATS_DATASET_FILE_PATH=/srv/data/gwp.csv
//	LOBSTATS_STATS_YEAR_FROM=2008
//	LOBSTATS_STATS_YEAR_TO=2015
//	LOBSTATS_CACHE_TTL=30m
//
// # Validation
//
// Load rejects an out of range port, non-positive server timeouts, an empty
// dataset path or metric, an unknown dataset format and negative cache limits.
// The year window is not checked here: an inverted window is reported on each
// query instead.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
