//go:build integration

package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"abcretail/internal/storage"
	"abcretail/pkg/testutil/containers"
)

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	pg := containers.GetManager().GetPostgres(t)
	store := storage.NewPostgresStore(pg.DB)
	require.NoError(t, store.EnsureSchema(context.Background()))

	suite.Run(t, &StoreContractSuite{
		newStore: func() storage.Store {
			require.NoError(t, pg.TruncateTables(context.Background(), "entities", "processed_commands"))
			return store
		},
	})
}
