package replay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteLogRecordsAndFlushesActions(t *testing.T) {
	log, err := OpenSQLite("file::memory:?cache=shared")
	require.NoError(t, err)
	defer log.Close()

	ctx := context.Background()
	gameID, err := log.AddGame(ctx, "Game of Ada", "map02", time.Now(), 1)
	require.NoError(t, err)

	require.NoError(t, log.AddAction(ctx, gameID, ActionLogin, `{"name":"ada"}`, time.Now()))
	require.NoError(t, log.AddAction(ctx, gameID, ActionTurn, `{}`, time.Now()))
	require.NoError(t, log.AddAction(ctx, gameID, ActionTurn, `{}`, time.Now()))

	// Unflushed actions are already visible to a reader.
	actions, err := log.GetAllActions(ctx, gameID)
	require.NoError(t, err)
	assert.Len(t, actions, 3)

	require.NoError(t, log.Finish(ctx, gameID))

	games, err := log.GetAllGames(ctx)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "Game of Ada", games[0].Name)
	assert.Equal(t, 2, games[0].Length) // only TURN actions count

	actions, err = log.GetAllActions(ctx, gameID)
	require.NoError(t, err)
	assert.Len(t, actions, 3)
	assert.Equal(t, ActionLogin, actions[0].Code)
}
