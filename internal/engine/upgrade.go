package engine

import (
	"encoding/json"

	"github.com/kipod/server/internal/mapmodel"
	"github.com/kipod/server/internal/replay"
)

// handleUpgrade implements UPGRADE (§4.4.6): validate every entity,
// compute total cost, and apply atomically — partial failure is
// never allowed (Open Question resolved per spec: atomic mixed
// trains+posts).
func (a *GameActor) handleUpgrade(cmd UpgradeCmd) error {
	player, ok := a.players[cmd.PlayerID]
	if !ok {
		return ErrAccessDenied
	}
	town, ok := a.m.Post(player.TownIdx)
	if !ok {
		return ErrResourceNotFound
	}

	totalCost := 0

	for _, postID := range cmd.PostIDs {
		post, ok := a.m.Post(postID)
		if !ok {
			return ErrResourceNotFound
		}
		if !post.IsTown() || post.PlayerID != cmd.PlayerID {
			return ErrAccessDenied
		}
		if !post.HasNextLevel() {
			return ErrBadCommand
		}
		totalCost += post.NextLevelPrice
	}

	for _, trainID := range cmd.TrainIDs {
		train, ok := a.m.Train(trainID)
		if !ok {
			return ErrResourceNotFound
		}
		if train.PlayerID != cmd.PlayerID {
			return ErrAccessDenied
		}
		if !a.trainAtTown(train, town) {
			return ErrBadCommand
		}
		if !mapmodel.LevelExists(mapmodel.LevelKindTrain, train.Level+1) {
			return ErrBadCommand
		}
		totalCost += train.NextLevelPrice
	}

	if totalCost > town.Armor {
		return ErrBadCommand
	}

	for _, postID := range cmd.PostIDs {
		post, _ := a.m.Post(postID)
		post.ApplyLevel(post.Level + 1)
	}
	for _, trainID := range cmd.TrainIDs {
		train, _ := a.m.Train(trainID)
		train.ApplyLevel(train.Level + 1)
	}
	town.Armor -= totalCost
	a.recordUpgrade(cmd)
	return nil
}

// recordUpgrade appends an UPGRADE action to the replay log, keyed by
// the player's login name so observer replay can re-resolve ownership
// against its own freshly-seated players (§4.3, §4.6).
func (a *GameActor) recordUpgrade(cmd UpgradeCmd) {
	name := a.playerName(cmd.PlayerID)
	if name == "" {
		return
	}
	raw, err := json.Marshal(struct {
		Name     string `json:"name"`
		PostIDs  []int  `json:"post"`
		TrainIDs []int  `json:"train"`
	}{Name: name, PostIDs: cmd.PostIDs, TrainIDs: cmd.TrainIDs})
	if err != nil {
		return
	}
	a.recordAction(replay.ActionUpgrade, string(raw))
}

// trainAtTown reports whether t sits at town's point (position 0 or
// Length of its line, at the town's end), per §4.4.6's "trains must be
// physically at the requesting player's town". The train's speed is
// not checked.
func (a *GameActor) trainAtTown(t *mapmodel.Train, town *mapmodel.Post) bool {
	line, ok := a.m.Line(t.LineIdx)
	if !ok {
		return false
	}
	pointIdx, at := t.AtEndpoint(line)
	return at && pointIdx == town.PointIdx
}
