package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-server/internal/core/domain"
)

func TestUserService_Create(t *testing.T) {
	f := newFixture(t, embedFunc(lengthVector))
	svc := NewUserService(f.store.Users, f.store.Notebooks, f.docs)
	ctx := context.Background()

	user, err := svc.Create(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.ID)

	_, err = svc.Create(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	_, err = svc.Create(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Create(ctx, strings.Repeat("u", 256))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	got, err := svc.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.ID)
}

func TestUserService_DeleteCascades(t *testing.T) {
	f := newFixture(t, embedFunc(lengthVector))
	svc := NewUserService(f.store.Users, f.store.Notebooks, f.docs)
	ctx := context.Background()
	f.notebook(t, "alice", "nb-a1")
	f.notebook(t, "alice", "nb-a2")
	f.notebook(t, "bob", "nb-b")

	var ids []string
	for _, nb := range []string{"nb-a1", "nb-a2", "nb-b"} {
		doc, err := f.docs.Upload(ctx, nb, "f.txt", []byte("one\n\ntwo"))
		require.NoError(t, err)
		ids = append(ids, doc.ID)
	}
	for _, id := range ids {
		f.waitTerminal(t, id)
	}

	require.NoError(t, svc.Delete(ctx, "alice"))

	_, err := svc.Get(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	for _, nb := range []string{"nb-a1", "nb-a2"} {
		n, err := f.index.Count(ctx, nb)
		require.NoError(t, err)
		assert.Zero(t, n, nb)
	}
	for _, id := range ids[:2] {
		_, err := f.docs.Get(ctx, id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}

	// Bob is untouched.
	n, err := f.index.Count(ctx, "nb-b")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, f.files.Len())

	assert.ErrorIs(t, svc.Delete(ctx, "alice"), domain.ErrNotFound)
}
