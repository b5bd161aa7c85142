package posts

import (
	"time"

	"nunc/internal/core"
)

// postModel is the posts row. Times are stored as milliseconds since epoch.
type postModel struct {
	ID        string `gorm:"primaryKey;index:posts_rank_idx,priority:3"`
	Text      string `gorm:"not null"`
	Country   string `gorm:"not null"`
	Boosts    int64  `gorm:"not null;default:0;check:boosts >= 0;index:posts_rank_idx,priority:1,sort:desc"`
	CreatedAt int64  `gorm:"not null;autoCreateTime:false;index:posts_rank_idx,priority:2,sort:desc"`
	ExpiresAt int64  `gorm:"not null;index:posts_expires_at_idx"`
}

func (postModel) TableName() string {
	return "posts"
}

func fromPost(p core.Post) postModel {
	return postModel{
		ID:        p.ID,
		Text:      p.Text,
		Country:   p.Country,
		Boosts:    p.Boosts,
		CreatedAt: p.CreatedAt.UnixMilli(),
		ExpiresAt: p.ExpiresAt.UnixMilli(),
	}
}

func (m postModel) toPost() core.Post {
	return core.Post{
		ID:        m.ID,
		Text:      m.Text,
		Country:   m.Country,
		Boosts:    m.Boosts,
		CreatedAt: time.UnixMilli(m.CreatedAt),
		ExpiresAt: time.UnixMilli(m.ExpiresAt),
	}
}
