package firebase

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityFromClaims(t *testing.T) {
	id, err := identityFromClaims("uid-1", map[string]interface{}{"email": "ann@example.com", "name": "Ann"})
	require.NoError(t, err)
	assert.Equal(t, &Identity{UID: "uid-1", Email: "ann@example.com", Name: "Ann"}, id)

	id, err = identityFromClaims("uid-2", map[string]interface{}{"email": "bob@example.com"})
	require.NoError(t, err)
	assert.Empty(t, id.Name)

	_, err = identityFromClaims("uid-3", map[string]interface{}{"name": "No Mail"})
	assert.Error(t, err)
}

func TestInitFirebaseRequiresCredentials(t *testing.T) {
	log := logrus.New()
	_, err := InitFirebase(context.Background(), "", log)
	assert.Error(t, err)

	_, err = InitFirebase(context.Background(), "/nonexistent/credentials.json", log)
	assert.Error(t, err)
}
