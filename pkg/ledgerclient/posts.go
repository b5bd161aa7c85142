package ledgerclient

import (
	"context"
	"strconv"
	"time"

	"resty.dev/v3"
)

const (
	postsPath     = "/api/posts"
	boostPath     = "/api/posts/{id}/boost"
	countriesPath = "/api/countries"
	healthPath    = "/healthz"
)

type Post struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Country   string `json:"country"`
	Boosts    int64  `json:"boosts"`
	CreatedAt int64  `json:"createdAt"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Live reports whether the post was still live at now according to its
// server assigned expiry.
func (p Post) Live(now time.Time) bool {
	return now.UnixMilli() < p.ExpiresAt
}

type NewPost struct {
	Text    string `json:"text"`
	Country string `json:"country,omitempty"`
	Boosts  int64  `json:"boosts,omitempty"`
}

type CountryTotal struct {
	Country string `json:"country"`
	Boosts  int64  `json:"boosts"`
}

type postResponse struct {
	OK   bool `json:"ok"`
	Post Post `json:"post"`
}

// ListPosts returns the ranked feed. A limit of 0 returns all live posts.
func (c *Client) ListPosts(ctx context.Context, limit int) ([]Post, error) {
	type Posts struct {
		Posts []Post `json:"posts"`
	}

	req := c.r(ctx).SetResult(&Posts{})
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}

	res, err := req.Get(postsPath)
	if err != nil {
		return nil, err
	}
	if err := apiError(res); err != nil {
		return nil, err
	}

	return res.Result().(*Posts).Posts, nil
}

func (c *Client) CreatePost(ctx context.Context, post NewPost) (Post, error) {
	res, err := c.r(ctx).
		SetBody(post).
		SetResult(&postResponse{}).
		Post(postsPath)
	if err != nil {
		return Post{}, err
	}
	if err := apiError(res); err != nil {
		return Post{}, err
	}

	return res.Result().(*postResponse).Post, nil
}

// Boost adds add to the post boosts. The server clamps negative values to 0.
func (c *Client) Boost(ctx context.Context, id string, add int64) (Post, error) {
	type Boost struct {
		Add int64 `json:"add"`
	}

	res, err := c.r(ctx).
		SetPathParam("id", id).
		SetBody(Boost{Add: add}).
		SetResult(&postResponse{}).
		Post(boostPath)
	if err != nil {
		return Post{}, err
	}
	if err := apiError(res); err != nil {
		return Post{}, err
	}

	return res.Result().(*postResponse).Post, nil
}

func (c *Client) CountryTotals(ctx context.Context) ([]CountryTotal, error) {
	type Countries struct {
		Countries []CountryTotal `json:"countries"`
	}

	res, err := c.r(ctx).
		SetResult(&Countries{}).
		Get(countriesPath)
	if err != nil {
		return nil, err
	}
	if err := apiError(res); err != nil {
		return nil, err
	}

	return res.Result().(*Countries).Countries, nil
}

func (c *Client) Health(ctx context.Context) error {
	res, err := c.r(ctx).Get(healthPath)
	if err != nil {
		return err
	}
	return apiError(res)
}

func apiError(res *resty.Response) error {
	if !res.IsError() {
		return nil
	}

	apiErr := &APIError{Status: res.StatusCode()}
	if body, ok := res.Error().(*errorBody); ok {
		apiErr.Code = body.Error
	}
	return apiErr
}
