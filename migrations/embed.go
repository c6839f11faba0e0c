// Package migrations embeds the versioned BigQuery DDL applied by cmd/migrate.
package migrations

import "embed"

// BigQuery holds files named NNNN_name.sql with {{PROJECT_ID}} and
// {{DATASET_ID}} placeholders.
//
//go:embed bigquery/*.sql
var BigQuery embed.FS
