package service

import (
	"time"

	"cmsgo/app/models"
)

func newPost(title string) *models.Post {
	return &models.Post{Title: title, Excerpt: title + " excerpt", Content: title + " content"}
}

func unbounded() models.IDWindow {
	return models.UnboundedPage(0).Window()
}

func nowForTest() time.Time {
	return time.Unix(1_700_000_000, 0)
}
