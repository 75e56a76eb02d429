package store_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stefanpenner/twy/pkg/store"
	"github.com/stefanpenner/twy/pkg/store/storetest"
)

func TestFileStoreRepository(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Repository {
		s, err := store.NewStore(t.TempDir())
		require.NoError(t, err)
		return s
	})
}
