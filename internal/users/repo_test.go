package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassthrough(t *testing.T) {
	id, err := Passthrough{}.EnsureUser(context.Background(), UpsertUser{FirebaseUID: " uid-1 "})
	require.NoError(t, err)
	assert.Equal(t, "uid-1", id)

	_, err = Passthrough{}.EnsureUser(context.Background(), UpsertUser{})
	assert.Error(t, err)
}

func TestRepo_RequiresUID(t *testing.T) {
	_, err := NewRepo(nil).EnsureUser(context.Background(), UpsertUser{Email: "a@example.com"})
	assert.Error(t, err)
}
