package mongodb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap/zaptest"

	"user-crud-service/internal/domain/user"
	apperrors "user-crud-service/pkg/errors"
)

const missingID = "65a1f0c2b4d3e2f1a0b9c8d7"

// setupTestRepo connects to MONGO_TEST_URI and returns a repository on a
// throwaway database that is dropped after the test.
func setupTestRepo(t *testing.T) *UserRepoMongo {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database(fmt.Sprintf("users_test_%d", time.Now().UnixNano()))
	require.NoError(t, EnsureIndexes(ctx, db))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	return NewUserRepoMongo(db, zaptest.NewLogger(t))
}

func TestUserDocument_ToDomain(t *testing.T) {
	oid, err := primitive.ObjectIDFromHex(missingID)
	require.NoError(t, err)
	created := time.Date(2024, 1, 12, 10, 0, 0, 0, time.UTC)

	u := (&userDocument{ID: oid, Name: "Alice", Email: "alice@example.com", CreatedAt: created}).toDomain()

	assert.Equal(t, missingID, u.ID)
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.True(t, created.Equal(u.CreatedAt))
}

func TestObjectID(t *testing.T) {
	_, ok := objectID(missingID)
	assert.True(t, ok)

	_, ok = objectID("invalid}")
	assert.False(t, ok)
}

func TestUserRepoMongo_CRUD(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &user.User{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.NoError(t, user.ValidateID(created.ID))

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)

	updated, err := repo.Update(ctx, &user.User{ID: created.ID, Name: "Alicia", Email: "alicia@example.com"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Alicia", updated.Name)

	deleted, err := repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", deleted.Name)

	_, err = repo.GetByID(ctx, created.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUserRepoMongo_NotFound(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, missingID)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = repo.Update(ctx, &user.User{ID: missingID, Name: "X", Email: "x@example.com"})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = repo.Delete(ctx, missingID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUserRepoMongo_ListAndDeleteAll(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"Carol", "Alice", "Carol"} {
		u, err := repo.Create(ctx, &user.User{Name: name, Email: "x@example.com"})
		require.NoError(t, err)
		ids = append(ids, u.ID)
	}

	list, err := repo.List(ctx, user.Filter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, id := range ids {
		assert.Equal(t, id, list[i].ID)
	}

	list, err = repo.List(ctx, user.Filter{Name: "Carol"})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	n, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	list, err = repo.List(ctx, user.Filter{})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}
