package room

import (
	"context"
	"log/slog"

	"github.com/mcoot/farklegame/internal/dependencies/random"
	"github.com/mcoot/farklegame/internal/model"
	"github.com/mcoot/farklegame/internal/services/scoring"
)

// Ready marks a player ready. When both seats are filled and ready the game starts.
func (c *Controller) Ready(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) (*model.Room, error) {
	return c.mutate(ctx, roomID, playerID, func(room *model.Room) (*outcome, error) {
		player, err := waitingPlayer(room, playerID)
		if err != nil {
			return nil, err
		}
		player.Ready = true

		if len(room.Players) == model.MaxPlayers && room.AllReady() {
			c.startGame(room)
			return &outcome{event: model.EventStart, payload: roomPayload}, nil
		}
		return &outcome{event: model.EventReady, payload: playersPayload}, nil
	})
}

// Unready clears a player's ready flag
func (c *Controller) Unready(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) (*model.Room, error) {
	return c.mutate(ctx, roomID, playerID, func(room *model.Room) (*outcome, error) {
		player, err := waitingPlayer(room, playerID)
		if err != nil {
			return nil, err
		}
		player.Ready = false
		return &outcome{event: model.EventUnready, payload: playersPayload}, nil
	})
}

// startGame picks the first turn holder uniformly and clears every player's totals
func (c *Controller) startGame(room *model.Room) {
	first := room.Players[c.random.Intn(len(room.Players))]

	for i := range room.Players {
		room.Players[i].Bank = 0
		room.Players[i].ResetTurn()
	}
	room.Status = model.RoomStatusStarted
	room.Turn = model.Turn{Current: 1, PlayerID: first.ID}

	c.logger.Info("game started",
		slog.String("room_id", string(room.ID)),
		slog.String("first_player", string(first.ID)),
	)
}

// RollDice rolls the turn holder's remaining dice. A roll that scores nothing
// is a farkle: the turn passes with no bank credit in the same write.
func (c *Controller) RollDice(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) (*model.RollResult, error) {
	var (
		dice   []int
		farkle bool
		lost   int
	)
	saved, err := c.mutate(ctx, roomID, playerID, func(room *model.Room) (*outcome, error) {
		player, err := turnHolder(room, playerID)
		if err != nil {
			return nil, err
		}

		dice = random.RollDice(c.random, player.DiceRemaining)
		farkle = scoring.IsFarkle(dice)

		if farkle {
			lost = player.Score
			c.skipTurn(room, true)
			return &outcome{
				event: model.EventSkipTurn,
				payload: func(saved *model.Room) any {
					return model.SkipTurnPayload{Room: saved, Farkle: true, Dice: dice}
				},
			}, nil
		}

		player.CurrentRoll = dice
		return &outcome{
			event: model.EventRoll,
			payload: func(*model.Room) any {
				return model.RollPayload{PlayerID: playerID, Dice: dice}
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if farkle {
		c.logger.Info("farkle",
			slog.String("room_id", string(roomID)),
			slog.String("player_id", string(playerID)),
			slog.Int("lost", lost),
			slog.Any("dice", dice),
		)
	}
	return &model.RollResult{Dice: dice, Farkle: farkle, Room: saved}, nil
}

// Score sets aside the dice at the given indices of the pending roll and adds
// their value to the running score
func (c *Controller) Score(ctx context.Context, roomID model.RoomID, playerID model.PlayerID, indices []int) (*model.Player, error) {
	saved, err := c.mutate(ctx, roomID, playerID, func(room *model.Room) (*outcome, error) {
		player, err := turnHolder(room, playerID)
		if err != nil {
			return nil, err
		}
		if !player.HasPendingRoll() {
			return nil, model.ErrNoPendingRoll
		}

		selection, err := selectDice(player.CurrentRoll, indices)
		if err != nil {
			return nil, err
		}
		if err := scoring.ValidateSelection(selection); err != nil {
			return nil, err
		}

		player.Score += scoring.Score(selection)
		player.DiceRemaining -= len(selection)
		if player.DiceRemaining <= 0 {
			// Hot dice
			player.DiceRemaining = model.DiceCount
		}
		player.CurrentRoll = []int{}

		return &outcome{
			event: model.EventScore,
			payload: func(saved *model.Room) any {
				return *saved.GetPlayer(playerID)
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	player := saved.GetPlayer(playerID).Clone()
	return &player, nil
}

// Bank moves the turn holder's running score into their bank and passes the turn
func (c *Controller) Bank(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) (*model.Room, error) {
	var banked int
	saved, err := c.mutate(ctx, roomID, playerID, func(room *model.Room) (*outcome, error) {
		player, err := turnHolder(room, playerID)
		if err != nil {
			return nil, err
		}
		banked = player.Score
		c.skipTurn(room, false)
		return &outcome{
			event: model.EventSkipTurn,
			payload: func(saved *model.Room) any {
				return model.SkipTurnPayload{Room: saved, Farkle: false, Dice: []int{}}
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("turn banked",
		slog.String("room_id", string(roomID)),
		slog.String("player_id", string(playerID)),
		slog.Int("banked", banked),
		slog.Int("bank", saved.GetPlayer(playerID).Bank),
	)
	return saved, nil
}

// skipTurn ends the current turn and hands it to the other seat
func (c *Controller) skipTurn(room *model.Room, farkle bool) {
	holder := room.TurnHolder()
	if holder == nil {
		return
	}
	if !farkle {
		holder.Bank += holder.Score
	}
	holder.ResetTurn()

	next := room.NextPlayer(holder.ID)
	room.Turn = model.Turn{Current: room.Turn.Current + 1, PlayerID: next.ID}
}

// Chat appends a message from a seated player
func (c *Controller) Chat(ctx context.Context, roomID model.RoomID, playerID model.PlayerID, text string) (*model.Message, error) {
	if err := ValidateMessage(text); err != nil {
		return nil, err
	}
	saved, err := c.mutate(ctx, roomID, playerID, func(room *model.Room) (*outcome, error) {
		if room.GetPlayer(playerID) == nil {
			return nil, model.ErrPlayerNotFound
		}
		room.AppendMessage(model.Message{
			Text:   text,
			From:   playerID,
			SentAt: c.clock.Now(),
		})
		return &outcome{
			event: model.EventChat,
			payload: func(saved *model.Room) any {
				return *saved.LastMessage()
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	msg := *saved.LastMessage()
	return &msg, nil
}

// waitingPlayer returns the seated player while the room is still seating
func waitingPlayer(room *model.Room, playerID model.PlayerID) (*model.Player, error) {
	player := room.GetPlayer(playerID)
	if player == nil {
		return nil, model.ErrPlayerNotFound
	}
	if room.Status != model.RoomStatusWaiting {
		return nil, model.ErrGameNotWaiting
	}
	return player, nil
}

// turnHolder returns the player if the game is running and it is their turn
func turnHolder(room *model.Room, playerID model.PlayerID) (*model.Player, error) {
	if room.Status != model.RoomStatusStarted {
		return nil, model.ErrGameNotStarted
	}
	player := room.GetPlayer(playerID)
	if player == nil {
		return nil, model.ErrPlayerNotFound
	}
	if room.Turn.PlayerID != playerID {
		return nil, model.ErrNotPlayerTurn
	}
	return player, nil
}

// selectDice resolves distinct, in-range indices into die values
func selectDice(roll []int, indices []int) ([]int, error) {
	if len(indices) == 0 || len(indices) > len(roll) {
		return nil, model.ErrInvalidDiceIndex
	}
	seen := make(map[int]bool, len(indices))
	selection := make([]int, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(roll) || seen[i] {
			return nil, model.ErrInvalidDiceIndex
		}
		seen[i] = true
		selection = append(selection, roll[i])
	}
	return selection, nil
}
