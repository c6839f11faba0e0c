package main

import (
	"crypto/sha256"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Migration is one versioned SQL file.
type Migration struct {
	Version  int
	Name     string
	Filename string
	SQL      string
	Checksum string // sha256 of the file before placeholder substitution
}

// AppliedMigration is a row of schema_migrations.
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
	Checksum  string
	AppliedBy string
}

var migrationFilePattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

// parseFilename extracts the version and name from NNNN_name.sql.
func parseFilename(filename string) (version int, name string, ok bool) {
	matches := migrationFilePattern.FindStringSubmatch(filename)
	if matches == nil {
		return 0, "", false
	}
	version, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, "", false
	}
	return version, matches[2], true
}

// readMigrations loads every migration file at the root of fsys, sorted by
// version, with placeholders replaced. Files not matching the naming
// pattern are ignored; duplicate versions are an error.
func readMigrations(fsys fs.FS, projectID, datasetID string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	seen := make(map[int]string)
	var out []Migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version, name, ok := parseFilename(entry.Name())
		if !ok {
			continue
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("duplicate migration version %04d: %s and %s", version, prev, entry.Name())
		}
		seen[version] = entry.Name()

		content, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", entry.Name(), err)
		}

		sql := strings.ReplaceAll(string(content), "{{PROJECT_ID}}", projectID)
		sql = strings.ReplaceAll(sql, "{{DATASET_ID}}", datasetID)

		out = append(out, Migration{
			Version:  version,
			Name:     name,
			Filename: entry.Name(),
			SQL:      sql,
			Checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Version < out[j].Version
	})
	return out, nil
}

// plan returns the migrations not yet applied, and the applied ones whose
// file checksum no longer matches the recorded one.
func plan(all []Migration, applied []AppliedMigration) (pending, drifted []Migration) {
	byVersion := make(map[int]AppliedMigration, len(applied))
	for _, am := range applied {
		byVersion[am.Version] = am
	}

	for _, m := range all {
		am, ok := byVersion[m.Version]
		switch {
		case !ok:
			pending = append(pending, m)
		case am.Checksum != "" && am.Checksum != m.Checksum:
			drifted = append(drifted, m)
		}
	}
	return pending, drifted
}

func table(projectID, datasetID, name string) string {
	return fmt.Sprintf("`%s.%s.%s`", projectID, datasetID, name)
}

func schemaMigrationsDDL(projectID, datasetID string) string {
	return `CREATE TABLE IF NOT EXISTS ` + table(projectID, datasetID, "schema_migrations") + ` (
  version    INT64 NOT NULL,
  name       STRING NOT NULL,
  applied_at TIMESTAMP NOT NULL,
  checksum   STRING,
  applied_by STRING
)`
}

func appliedMigrationsSQL(projectID, datasetID string) string {
	return `SELECT version, name, applied_at, checksum, applied_by
FROM ` + table(projectID, datasetID, "schema_migrations") + `
ORDER BY version ASC`
}

func recordMigrationSQL(projectID, datasetID string) string {
	return `INSERT INTO ` + table(projectID, datasetID, "schema_migrations") + `
(version, name, applied_at, checksum, applied_by)
VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)`
}
