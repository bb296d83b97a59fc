// Package config loads snapcli configuration.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. The YAML configuration file
//	3. Default values (lowest priority)
//
// A configuration file is mandatory: it is searched for in snapcli.yaml,
// config.yaml and configs/snapcli.yaml unless a path is given. A missing,
// unreadable or invalid file is the only condition that stops a run.
//
// # Environment Variables
//
// Scalar and list settings can be overridden with SNAP_* variables; lists
// are comma separated:
//
//	SNAP_LOGGING_LEVEL=debug
//	SNAP_RUN_CONCURRENCY=8
//	SNAP_DISCOVERY_PATHS=/data/Report_by_cono/Cono*
//	SNAP_TABLE_CLUSTER_PRIORITY=Login_Date,LastWk
//	SNAP_OUTPUT_DIRECTORY=/data/out
//
// Structured lists (identity columns, series requests, consolidate groups)
// are file only.
//
// Relative paths in the file are resolved against the file's directory with
// Config.Resolve.
package config
