package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrateURL(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@localhost:5432/app?sslmode=disable": "pgx5://u:p@localhost:5432/app?sslmode=disable",
		"postgresql://u:p@localhost:5432/app":               "pgx5://u:p@localhost:5432/app",
		" pgx5://u:p@localhost/app ":                        "pgx5://u:p@localhost/app",
	}
	for in, want := range cases {
		require.Equal(t, want, migrateURL(in), in)
	}
}

func TestEmbeddedMigrationsPaired(t *testing.T) {
	entries, err := migrationFiles.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups, downs := 0, 0
	for _, entry := range entries {
		switch {
		case strings.HasSuffix(entry.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(entry.Name(), ".down.sql"):
			downs++
		}
	}
	require.Equal(t, ups, downs)
	require.Equal(t, 4, ups)
}

func TestMigrateDownRejectsNonPositiveSteps(t *testing.T) {
	require.Error(t, MigrateDown("postgres://localhost/app", 0))
}
