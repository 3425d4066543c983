package gamesync

import "github.com/gameinfo/gamesync/internal/types"

// Public type aliases so SDK consumers can import only this package.
type (
	Game        = types.Game
	GameSummary = types.GameSummary
	Screenshot  = types.Screenshot
	Trailer     = types.Trailer
	Review      = types.Review
)
