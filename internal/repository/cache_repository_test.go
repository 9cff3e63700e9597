package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/trainer-discovery-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "discovery:", nil)
	ctx := context.Background()

	var dest map[string]string
	err := repo.Get(ctx, "page", &dest)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)

	require.NoError(t, repo.Set(ctx, "page", map[string]string{"a": "b"}, time.Minute))
	require.NoError(t, repo.Close())
	assert.Equal(t, "discovery:page", repo.key("page"))
}
