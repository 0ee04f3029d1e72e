package match

import "github.com/cory-johannsen/wordrace/internal/game/player"

// Info is the serialisable snapshot of a session. It holds no live
// collaborator references, so a session can be inspected or rebuilt from it.
type Info struct {
	ID        string `json:"id"`
	GameType  string `json:"game_type"`
	Language  string `json:"language"`
	Length    int    `json:"length"`
	UserLimit int    `json:"user_limit"`

	// Channels maps user id to the id of that user's session channel.
	Channels map[string]string `json:"channels"`
	// ResponseMessages maps user id to the last rendered board message.
	ResponseMessages map[string]MessageRef `json:"response_messages"`

	Playing bool   `json:"playing"`
	Ended   bool   `json:"ended"`
	Answer  string `json:"answer"`
	Winner  string `json:"winner"`

	// Players lists the roster in join order.
	Players []PlayerInfo `json:"players"`
	// Version increases with every mutating transition.
	Version uint64 `json:"version"`
}

// PlayerInfo is one roster entry of an Info snapshot.
type PlayerInfo struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Locale  string         `json:"locale"`
	Theme   string         `json:"theme"`
	Guesses []player.Guess `json:"guesses"`
}
