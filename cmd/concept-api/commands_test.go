package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/conceptforge/concept-api/internal/config"
	"github.com/conceptforge/concept-api/internal/domain/concept"
	"github.com/conceptforge/concept-api/internal/infrastructure/server"
	"github.com/conceptforge/concept-api/internal/usecase/archive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(config.NewViper())
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInitDBAndArchiveList(t *testing.T) {
	for _, driver := range []string{config.DriverBun, config.DriverSQLite3} {
		t.Run(driver, func(t *testing.T) {
			dbPath := filepath.Join(t.TempDir(), "cli.db")

			out, err := run(t, "init-db", "--db", dbPath, "--driver", driver)
			require.NoError(t, err)
			assert.Contains(t, out, "Archive ready at "+dbPath)

			// Running it again must not fail or lose anything.
			_, err = run(t, "init-db", "--db", dbPath, "--driver", driver)
			require.NoError(t, err)

			out, err = run(t, "archive", "list", "--db", dbPath, "--driver", driver)
			require.NoError(t, err)
			var empty []concept.Concept
			require.NoError(t, json.Unmarshal([]byte(out), &empty))
			assert.NotNil(t, empty)
			assert.Empty(t, empty)

			store, err := server.OpenArchive(&config.Config{DatabasePath: dbPath, ArchiveDriver: driver})
			require.NoError(t, err)
			_, err = archive.NewService(store).Record(context.Background(), "a red bicycle", "text", []string{"https://img/1.png"})
			require.NoError(t, err)
			require.NoError(t, store.Close())

			out, err = run(t, "archive", "list", "--db", dbPath, "--driver", driver)
			require.NoError(t, err)
			var listed []concept.Concept
			require.NoError(t, json.Unmarshal([]byte(out), &listed))
			require.Len(t, listed, 1)
			assert.Equal(t, "a red bicycle", listed[0].Prompt)
		})
	}
}

func TestArchiveList_UnknownDriver(t *testing.T) {
	_, err := run(t, "archive", "list", "--db", filepath.Join(t.TempDir(), "x.db"), "--driver", "postgres")
	assert.Error(t, err)
}
