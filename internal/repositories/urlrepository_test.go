package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/Totarae/shortlink/internal/database"
	"github.com/Totarae/shortlink/internal/storage"
	"github.com/Totarae/shortlink/internal/storage/storagetest"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func TestURLRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("postgres integration test skipped in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("shortlink"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storagetest.Run(t, func(t *testing.T) storage.Storage {
		db, err := database.NewDB(ctx, dsn, zap.NewNop())
		require.NoError(t, err)
		require.NoError(t, db.Migrate())

		_, err = db.Pool.Exec(ctx, `TRUNCATE urls RESTART IDENTITY`)
		require.NoError(t, err)

		repo := NewURLRepository(db)
		t.Cleanup(func() { _ = repo.Close() })
		return repo
	})
}
