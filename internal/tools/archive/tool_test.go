package archive_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/tools/archive"
	"go.uber.org/mock/gomock"
)

func generate(t *testing.T) (*domain.Registry, *domain.Env) {
	t.Helper()
	ctrl := gomock.NewController(t)
	reg := domain.NewRegistry()
	env := domain.NewEnv()
	require.NoError(t, archive.New().Generate(reg, env, mocks.NewMockLogger(ctrl)))
	return reg, env
}

func TestTool_GenerateDefaults(t *testing.T) {
	t.Parallel()

	reg, env := generate(t)

	assert.Equal(t, "archive", archive.New().Name())
	assert.True(t, archive.New().Exists(env))
	assert.Equal(t, "ZIP_DEFLATED", env.String(archive.KeyZipMethod))
	assert.Empty(t, env.String(archive.KeyPrefix))
	assert.True(t, env.Bool(archive.KeyVerbose))

	b, err := reg.Builder(archive.BuilderName)
	require.NoError(t, err)
	assert.Equal(t, "Archive", b.Name)
}

func TestTool_GenerateKeepsConfiguredValues(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	env := domain.NewEnv()
	env.Replace(archive.KeyZipMethod, "ZIP_STORED")
	env.Replace(archive.KeyVerbose, false)

	require.NoError(t, archive.New().Generate(domain.NewRegistry(), env, mocks.NewMockLogger(ctrl)))
	assert.Equal(t, "ZIP_STORED", env.String(archive.KeyZipMethod))
	assert.False(t, env.Bool(archive.KeyVerbose))
}

func TestBuilder_Steps(t *testing.T) {
	t.Parallel()

	reg, env := generate(t)
	b, err := reg.Builder(archive.BuilderName)
	require.NoError(t, err)

	_, err = b.NewSteps(env, nil, domain.Files("a.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrTargetRequired.Error())

	_, err = b.NewSteps(env, domain.Files("a.zip", "b.zip"), domain.Files("a.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrSingleTarget.Error())

	_, err = b.NewSteps(env, domain.Files("a.7z"), domain.Files("a.txt"))
	require.Error(t, err)
	assert.Equal(t, "Unknown file extension: a.7z", err.Error())
}

func TestBuilder_Action(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "docs/readme.txt", "read me")

	reg, env := generate(t)
	env.Replace(archive.KeyPrefix, "release")

	b, err := reg.Builder(archive.BuilderName)
	require.NoError(t, err)

	steps, err := b.NewSteps(env, domain.FilesIn(root, "out/docs.tar.bz2"), domain.FilesIn(root, "docs"))
	require.NoError(t, err)
	require.Len(t, steps, 1)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "out"), 0o750))

	var out bytes.Buffer
	steps[0].Out = &out

	inv, err := b.Action.Prepare(steps[0])
	require.NoError(t, err)
	require.NotNil(t, inv.Func)
	assert.Empty(t, inv.Command)
	require.NoError(t, inv.Func(context.Background()))

	assert.Equal(t,
		filepath.Join(root, "docs", "readme.txt")+" => "+filepath.Join("out", "docs.tar.bz2")+":release/docs/readme.txt\n",
		out.String())
	assert.Equal(t, map[string]string{"release/docs/readme.txt": "read me"},
		readAll(t, filepath.Join(root, "out", "docs.tar.bz2")))
}
