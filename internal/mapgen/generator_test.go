package mapgen

import (
	"testing"

	"github.com/kipod/server/internal/mapmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProceduralGenerateIsDeterministicForSeed(t *testing.T) {
	gen := NewProcedural()

	a, err := gen.Generate(42, 2, 2, 2)
	require.NoError(t, err)
	b, err := gen.Generate(42, 2, 2, 2)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a.Posts, 6)
}

func TestProceduralGraphIsConnectedEnoughForPosts(t *testing.T) {
	gen := NewProcedural()
	topo, err := gen.Generate(7, 1, 1, 1)
	require.NoError(t, err)

	m := mapmodel.NewMap(topo)
	assert.Len(t, m.Towns(), 1)
	assert.Len(t, m.Markets(), 1)
	assert.Len(t, m.Storages(), 1)

	for _, post := range topo.Posts {
		touched := false
		for _, l := range topo.Lines {
			if l.Touches(post.PointIdx) {
				touched = true
				break
			}
		}
		assert.True(t, touched, "post %d sits on a point with no line", post.Idx)
	}
}

func TestLoadFixtureMap02(t *testing.T) {
	topo, err := LoadFixture("map02")
	require.NoError(t, err)
	assert.Equal(t, "map02", topo.Name)

	m := mapmodel.NewMap(topo)
	line, ok := m.Line(1)
	require.True(t, ok)
	assert.Equal(t, 1, line.Length)

	post, ok := m.PostAtPoint(1)
	require.True(t, ok)
	assert.True(t, post.IsMarket())
}

func TestLoadFixtureUnknownNameErrors(t *testing.T) {
	_, err := LoadFixture("does-not-exist")
	assert.Error(t, err)
}
