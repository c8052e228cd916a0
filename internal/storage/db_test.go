package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/fitscan"
	"github.com/claude/fitscan/internal/models"
)

func TestNotFound(t *testing.T) {
	err := fmt.Errorf("getting profile: %w", notFound(pgx.ErrNoRows))
	assert.ErrorIs(t, err, models.ErrNotFound)

	other := errors.New("connection refused")
	assert.Equal(t, other, notFound(other), "unrelated errors pass through")
}

func TestOrEmpty(t *testing.T) {
	var nilSlice []string
	got := orEmpty(nilSlice)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, []string{"a"}, orEmpty([]string{"a"}))
}

func TestEmbeddedMigrations(t *testing.T) {
	for _, name := range []string{"migrations/000001_init.up.sql", "migrations/000001_init.down.sql"} {
		b, err := fs.ReadFile(fitscan.MigrationsFS, name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, b, name)
	}
}
