package main

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilename(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  int
		name     string
	}{
		{"0001_create_transactions.sql", true, 1, "create_transactions"},
		{"0012_add_index.sql", true, 12, "add_index"},
		{"001_invalid.sql", false, 0, ""},
		{"0001_test", false, 0, ""},
		{"0001.sql", false, 0, ""},
		{"invalid_0001_test.sql", false, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, ok := parseFilename(tt.filename)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.version, version)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestReadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_second.sql": {Data: []byte("CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.b` (id INT64);")},
		"0001_first.sql":  {Data: []byte("CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.a` (id INT64);")},
		"README.md":       {Data: []byte("notes")},
	}

	got, err := readMigrations(fsys, "proj", "ds")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 1, got[0].Version)
	assert.Equal(t, "first", got[0].Name)
	assert.Equal(t, "CREATE TABLE `proj.ds.a` (id INT64);", got[0].SQL)
	assert.Equal(t, 2, got[1].Version)
	assert.Len(t, got[0].Checksum, 64)
	assert.NotEqual(t, got[0].Checksum, got[1].Checksum)

	// Checksums ignore the target project and dataset.
	other, err := readMigrations(fsys, "other", "x")
	require.NoError(t, err)
	assert.Equal(t, got[0].Checksum, other[0].Checksum)
}

func TestReadMigrations_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"0001_a.sql": {Data: []byte("SELECT 1")},
		"0001_b.sql": {Data: []byte("SELECT 2")},
	}
	_, err := readMigrations(fsys, "p", "d")
	assert.ErrorContains(t, err, "duplicate migration version 0001")
}

func TestEmbeddedMigrations(t *testing.T) {
	source, err := migrationSource("")
	require.NoError(t, err)

	got, err := readMigrations(source, "proj", "finance")
	require.NoError(t, err)
	require.Len(t, got, 3)

	for i, m := range got {
		assert.Equal(t, i+1, m.Version)
		assert.NotContains(t, m.SQL, "{{")
		assert.True(t, strings.Contains(m.SQL, "`proj.finance."), m.Filename)
	}
}

func TestMigrationSource_MissingDir(t *testing.T) {
	_, err := migrationSource("/definitely/not/here")
	assert.Error(t, err)
}

func TestPlan(t *testing.T) {
	all := []Migration{
		{Version: 1, Name: "a", Checksum: "c1"},
		{Version: 2, Name: "b", Checksum: "c2-changed"},
		{Version: 3, Name: "c", Checksum: "c3"},
	}
	applied := []AppliedMigration{
		{Version: 1, Checksum: "c1"},
		{Version: 2, Checksum: "c2"},
	}

	pending, drifted := plan(all, applied)
	require.Len(t, pending, 1)
	assert.Equal(t, 3, pending[0].Version)
	require.Len(t, drifted, 1)
	assert.Equal(t, 2, drifted[0].Version)
}

func TestSQLBuilders(t *testing.T) {
	assert.Contains(t, schemaMigrationsDDL("p", "d"), "`p.d.schema_migrations`")
	assert.Contains(t, appliedMigrationsSQL("p", "d"), "ORDER BY version ASC")
	assert.Contains(t, recordMigrationSQL("p", "d"), "@applied_by")
}
