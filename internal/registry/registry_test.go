package registry

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kipod/server/internal/actor"
	"github.com/kipod/server/internal/config"
	"github.com/kipod/server/internal/mapgen"
)

func TestGetOrCreateReturnsSameGameByName(t *testing.T) {
	eng := actor.NewEngine()
	defer eng.Shutdown(0)
	reg := New(eng, mapgen.NewProcedural(), nil, config.Default(), logrus.New())

	pid1, err := reg.GetOrCreate(context.Background(), "Game of Ada", 1)
	require.NoError(t, err)
	pid2, err := reg.GetOrCreate(context.Background(), "Game of Ada", 1)
	require.NoError(t, err)
	assert.Equal(t, pid1, pid2)
}

func TestGetOrCreateRejectsNumPlayersMismatch(t *testing.T) {
	eng := actor.NewEngine()
	defer eng.Shutdown(0)
	reg := New(eng, mapgen.NewProcedural(), nil, config.Default(), logrus.New())

	_, err := reg.GetOrCreate(context.Background(), "G", 2)
	require.NoError(t, err)

	_, err = reg.GetOrCreate(context.Background(), "G", 3)
	assert.Error(t, err)
}

func TestStopRemovesGameFromRegistry(t *testing.T) {
	eng := actor.NewEngine()
	defer eng.Shutdown(0)
	reg := New(eng, mapgen.NewProcedural(), nil, config.Default(), logrus.New())

	_, err := reg.GetOrCreate(context.Background(), "G", 1)
	require.NoError(t, err)

	reg.Stop("G")
	_, ok := reg.Lookup("G")
	assert.False(t, ok)
}
