package api

import (
	"github.com/samber/lo"

	"nunc/internal/core"
)

type Post struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Country   string `json:"country"`
	Boosts    int64  `json:"boosts"`
	CreatedAt int64  `json:"createdAt"`
	ExpiresAt int64  `json:"expiresAt"`
}

func postFromCore(p core.Post) Post {
	return Post{
		ID:        p.ID,
		Text:      p.Text,
		Country:   p.Country,
		Boosts:    p.Boosts,
		CreatedAt: p.CreatedAt.UnixMilli(),
		ExpiresAt: p.ExpiresAt.UnixMilli(),
	}
}

func postsFromCore(posts []core.Post) []Post {
	return lo.Map(posts, func(p core.Post, _ int) Post {
		return postFromCore(p)
	})
}

type CountryTotal struct {
	Country string `json:"country"`
	Boosts  int64  `json:"boosts"`
}

type CreatePostRequest struct {
	Text    string   `json:"text"`
	Country string   `json:"country"`
	Boosts  *float64 `json:"boosts,omitempty"`
}

type BoostRequest struct {
	Add *float64 `json:"add,omitempty"`
}

type PostResponse struct {
	OK   bool `json:"ok"`
	Post Post `json:"post"`
}

type PostsResponse struct {
	Posts []Post `json:"posts"`
}

type CountriesResponse struct {
	Countries []CountryTotal `json:"countries"`
}

type HealthResponse struct {
	OK bool `json:"ok"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
