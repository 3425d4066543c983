package types

import "time"

// ------------------------------
// Core Domain Entities
// ------------------------------

// GameSummary is a lightweight search hit returned by the catalog's
// paged search. It carries just enough to identify and label an item;
// full display data comes from a detail fetch.
type GameSummary struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	BackgroundImage string   `json:"backgroundImage,omitempty"`
	Genres          []string `json:"genres,omitempty"`
}

// Game is a fully-resolved catalog entity. Immutable from this layer's
// perspective; sourced entirely from the catalog provider.
type Game struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	Released        *time.Time `json:"released,omitempty"`
	Metacritic      *int       `json:"metacritic,omitempty"`
	UserScore       *float64   `json:"userScore,omitempty"`
	Developers      []string   `json:"developers,omitempty"`
	Genres          []string   `json:"genres,omitempty"`
	BackgroundImage string     `json:"backgroundImage,omitempty"`
	Website         string     `json:"website,omitempty"`
}

// Screenshot is a single catalog screenshot.
type Screenshot struct {
	ID    string `json:"id"`
	Image string `json:"image"`
}

// Trailer is a catalog video clip with a preview image.
type Trailer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Preview string `json:"preview,omitempty"`
	URL     string `json:"url"`
}

// Review is one free-text review of a game. ReviewID is assigned at
// creation time and never derived from the review's position in the
// containing document.
type Review struct {
	ReviewID  string     `json:"reviewId" bson:"reviewId"`
	AuthorID  string     `json:"uid" bson:"uid"`
	GameID    string     `json:"gameId,omitempty" bson:"gameId,omitempty"`
	Text      string     `json:"text" bson:"text"`
	CreatedAt time.Time  `json:"date" bson:"date"`
	EditedAt  *time.Time `json:"edited,omitempty" bson:"edited,omitempty"`
}

// ------------------------------
// Persisted Documents
// ------------------------------

// FavoritesDoc is the per-user favorites document at favorites/{userId}.
// GameIDs is a set; the store layer only mutates it through atomic
// union/difference operations.
type FavoritesDoc struct {
	GameIDs []string `json:"gameIds" bson:"gameIds"`
}

// ReviewDoc is the shared per-game review document at reviews/{gameId}.
// Insertion order is display order.
type ReviewDoc struct {
	Comments []Review `json:"comments" bson:"comments"`
}
