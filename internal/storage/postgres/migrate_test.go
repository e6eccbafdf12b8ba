package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrateURL(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@localhost:5432/gl?sslmode=disable":   "pgx5://u:p@localhost:5432/gl?sslmode=disable",
		"postgresql://u:p@localhost:5432/gl?sslmode=disable": "pgx5://u:p@localhost:5432/gl?sslmode=disable",
		"pgx5://already":                                     "pgx5://already",
	}
	for in, want := range cases {
		assert.Equal(t, want, migrateURL(in))
	}
}
