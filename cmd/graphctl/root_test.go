package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexivault/infrastructure/config"
	"lexivault/infrastructure/di"
	"lexivault/pkg/auth"
	pkgerrors "lexivault/pkg/errors"
	"lexivault/pkg/testutil"
)

// sharedContainer returns a factory handing out one memory container, so that
// several invocations see the same graph.
func sharedContainer(t *testing.T) containerFactory {
	t.Helper()
	t.Setenv("WORD_STORE", "memory")
	t.Setenv("RELATION_STORE", "memory")
	t.Setenv("LOG_LEVEL", "error")
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	ctx := context.Background()
	c, cleanup, err := di.InitializeContainer(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	require.NoError(t, testutil.Scenario().Load(ctx, c.Vocabulary))

	return func(context.Context) (*di.Container, func(), error) {
		return c, func() {}, nil
	}
}

func run(t *testing.T, factory containerFactory, args ...string) (map[string]interface{}, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(factory)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		return nil, err
	}
	if out.Len() == 0 {
		return nil, nil
	}
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &body))
	return body, nil
}

func TestGraphctl_LinkRelatedPurge(t *testing.T) {
	factory := sharedContainer(t)

	out, err := run(t, factory, "link", "--user", "7", "2", "1")
	require.NoError(t, err)
	assert.Equal(t, float64(1), out["low"])
	assert.Equal(t, float64(2), out["high"])

	out, err = run(t, factory, "related", "--user", "7", "1")
	require.NoError(t, err)
	related := out["related"].([]interface{})
	require.Len(t, related, 1)
	assert.Equal(t, "hi", related[0].(map[string]interface{})["name"])

	out, err = run(t, factory, "relations", "--user", "7")
	require.NoError(t, err)
	assert.Equal(t, float64(1), out["count"])

	out, err = run(t, factory, "linkable", "--user", "7", "--scope", "all", "1")
	require.NoError(t, err)
	assert.Len(t, out["candidates"], 2)

	_, err = run(t, factory, "purge", "--user", "8", "1")
	assert.True(t, pkgerrors.IsNotFound(err))

	out, err = run(t, factory, "purge", "--user", "7", "1")
	require.NoError(t, err)
	assert.Equal(t, float64(1), out["removed"])

	_, err = run(t, factory, "unlink", "1", "2")
	require.NoError(t, err)
}

func TestGraphctl_ArgumentErrors(t *testing.T) {
	factory := sharedContainer(t)

	_, err := run(t, factory, "link", "1", "2")
	assert.ErrorContains(t, err, "--user is required")

	_, err = run(t, factory, "link", "--user", "7", "1", "x")
	assert.Error(t, err)

	_, err = run(t, factory, "link", "--user", "7", "1", "1")
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = run(t, factory, "linkable", "--user", "7", "--scope", "galaxy", "1")
	assert.Error(t, err)

	_, err = run(t, factory, "unlink", "--enforce", "1", "2")
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestGraphctl_Seed(t *testing.T) {
	factory := sharedContainer(t)
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
vaults:
  - id: 40
    name: spanish
    user_id: 9
words:
  - id: 41
    vault_id: 40
    name: hola
    grammatical_class: interjection
    translations: [hello]
  - id: 42
    vault_id: 40
    name: adios
    grammatical_class: interjection
`), 0o600))

	out, err := run(t, factory, "seed", path)
	require.NoError(t, err)
	assert.Equal(t, float64(2), out["words"])

	_, err = run(t, factory, "link", "--user", "9", "41", "42")
	require.NoError(t, err)

	_, err = run(t, factory, "seed", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read seed file")
}

func TestGraphctl_Token(t *testing.T) {
	t.Setenv("JWT_SECRET", "graphctl-test-secret")
	t.Setenv("LOG_LEVEL", "error")
	opened := false
	factory := func(context.Context) (*di.Container, func(), error) {
		opened = true
		return nil, nil, nil
	}

	out, err := run(t, factory, "token", "--user", "7")
	require.NoError(t, err)
	assert.False(t, opened, "token does not need stores")

	v, err := auth.NewJWTValidator(auth.JWTConfig{SecretKey: "graphctl-test-secret", Issuer: "lexivault"})
	require.NoError(t, err)
	user, err := v.Resolve(out["token"].(string))
	require.NoError(t, err)
	assert.EqualValues(t, 7, user)
}
