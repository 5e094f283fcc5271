package migration_test

import (
	"io"
	"strings"
	"testing"

	"go-wages/internal/shared/migration"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_VersionsAreSequential(t *testing.T) {
	src, err := migration.Source()
	require.NoError(t, err)
	defer src.Close()

	v, err := src.First()
	require.NoError(t, err)

	var versions []uint
	for {
		versions = append(versions, v)
		next, err := src.Next(v)
		if err != nil {
			break
		}
		v = next
	}

	assert.Equal(t, []uint{1, 2, 3, 4}, versions)
}

func TestSource_EveryVersionHasDown(t *testing.T) {
	src, err := migration.Source()
	require.NoError(t, err)
	defer src.Close()

	for _, v := range []uint{1, 2, 3, 4} {
		r, _, err := src.ReadDown(v)
		require.NoError(t, err, "version %d", v)
		body, err := io.ReadAll(r)
		_ = r.Close()
		require.NoError(t, err)
		assert.Contains(t, string(body), "DROP TABLE")
	}
}

func TestSource_CreatesExpectedTables(t *testing.T) {
	src, err := migration.Source()
	require.NoError(t, err)
	defer src.Close()

	var all strings.Builder
	for _, v := range []uint{1, 2, 3, 4} {
		r, _, err := src.ReadUp(v)
		require.NoError(t, err)
		body, _ := io.ReadAll(r)
		_ = r.Close()
		all.Write(body)
	}

	for _, table := range []string{
		"uc_wages", "upload_progress", "wage_summaries", "wage_pyramids", "title_analysis", "outbox_events",
	} {
		assert.Contains(t, all.String(), "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
}
