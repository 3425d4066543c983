// Package catalog consumes the remote game-catalog provider: paged
// search plus per-item detail, screenshot and trailer lookups. All
// calls are idempotent GETs with no side effects.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gameinfo/gamesync/internal/apperr"
	"github.com/gameinfo/gamesync/internal/types"
)

const releaseDateLayout = "2006-01-02"

// Wire shapes. The provider uses numeric ids and envelope objects;
// they are converted to domain types at this boundary.

type named struct {
	Name string `json:"name"`
}

type wireSummary struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	BackgroundImage string  `json:"background_image"`
	Genres          []named `json:"genres"`
}

type searchEnvelope struct {
	Results []wireSummary `json:"results"`
}

type wireDetail struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	DescriptionRaw  string   `json:"description_raw"`
	Released        string   `json:"released"`
	Metacritic      *int     `json:"metacritic"`
	Rating          *float64 `json:"rating"`
	Developers      []named  `json:"developers"`
	Genres          []named  `json:"genres"`
	BackgroundImage string   `json:"background_image"`
	Website         string   `json:"website"`
}

type wireScreenshot struct {
	ID    int64  `json:"id"`
	Image string `json:"image"`
}

type screenshotEnvelope struct {
	Results []wireScreenshot `json:"results"`
}

type wireTrailer struct {
	ID      int64             `json:"id"`
	Name    string            `json:"name"`
	Preview string            `json:"preview"`
	Data    map[string]string `json:"data"`
}

type trailerEnvelope struct {
	Results []wireTrailer `json:"results"`
}

// SearchGames fetches one page of search results. genre and ordering
// are optional filters; empty strings mean "all" and provider default
// order.
func SearchGames(ctx context.Context, hc *http.Client, baseURL, query, genre, ordering string, page, pageSize int) ([]types.GameSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("search", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(pageSize))
	if genre != "" {
		params.Set("genres", genre)
	}
	if ordering != "" {
		params.Set("ordering", ordering)
	}

	var env searchEnvelope
	if err := getJSON(ctx, hc, "catalog.SearchGames", fmt.Sprintf("%s/games?%s", baseURL, params.Encode()), &env); err != nil {
		return nil, err
	}
	out := make([]types.GameSummary, 0, len(env.Results))
	for _, r := range env.Results {
		out = append(out, types.GameSummary{
			ID:              strconv.FormatInt(r.ID, 10),
			Name:            r.Name,
			BackgroundImage: r.BackgroundImage,
			Genres:          names(r.Genres),
		})
	}
	return out, nil
}

// GameDetail fetches the full record for one game.
func GameDetail(ctx context.Context, hc *http.Client, baseURL, id string) (*types.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := types.ValidateIDPresent(id, "gameId"); err != nil {
		return nil, err
	}
	var wd wireDetail
	if err := getJSON(ctx, hc, "catalog.GameDetail", fmt.Sprintf("%s/games/%s", baseURL, url.PathEscape(id)), &wd); err != nil {
		return nil, err
	}
	g := &types.Game{
		ID:              strconv.FormatInt(wd.ID, 10),
		Name:            wd.Name,
		Description:     wd.DescriptionRaw,
		Metacritic:      wd.Metacritic,
		UserScore:       wd.Rating,
		Developers:      names(wd.Developers),
		Genres:          names(wd.Genres),
		BackgroundImage: wd.BackgroundImage,
		Website:         wd.Website,
	}
	if wd.Released != "" {
		if t, err := time.Parse(releaseDateLayout, wd.Released); err == nil {
			g.Released = &t
		}
	}
	return g, nil
}

// Screenshots fetches the screenshot list for one game.
func Screenshots(ctx context.Context, hc *http.Client, baseURL, id string) ([]types.Screenshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := types.ValidateIDPresent(id, "gameId"); err != nil {
		return nil, err
	}
	var env screenshotEnvelope
	if err := getJSON(ctx, hc, "catalog.Screenshots", fmt.Sprintf("%s/games/%s/screenshots", baseURL, url.PathEscape(id)), &env); err != nil {
		return nil, err
	}
	out := make([]types.Screenshot, 0, len(env.Results))
	for _, r := range env.Results {
		out = append(out, types.Screenshot{ID: strconv.FormatInt(r.ID, 10), Image: r.Image})
	}
	return out, nil
}

// Trailers fetches the trailer list for one game. The provider exposes
// several encodings per clip; the highest quality one wins.
func Trailers(ctx context.Context, hc *http.Client, baseURL, id string) ([]types.Trailer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := types.ValidateIDPresent(id, "gameId"); err != nil {
		return nil, err
	}
	var env trailerEnvelope
	if err := getJSON(ctx, hc, "catalog.Trailers", fmt.Sprintf("%s/games/%s/movies", baseURL, url.PathEscape(id)), &env); err != nil {
		return nil, err
	}
	out := make([]types.Trailer, 0, len(env.Results))
	for _, r := range env.Results {
		u := r.Data["max"]
		if u == "" {
			u = r.Data["480"]
		}
		out = append(out, types.Trailer{
			ID:      strconv.FormatInt(r.ID, 10),
			Name:    r.Name,
			Preview: r.Preview,
			URL:     u,
		})
	}
	return out, nil
}

// getJSON performs one GET and decodes the 200 response into out.
func getJSON(ctx context.Context, hc *http.Client, op, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return apperr.Network(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return apperr.FromStatus(op, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Network(op, err)
	}
	return nil
}

func names(ns []named) []string {
	if len(ns) == 0 {
		return nil
	}
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Name)
	}
	return out
}
