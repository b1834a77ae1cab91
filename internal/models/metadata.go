package models

// LatestPostEntry — запись денормализованного кэша последних постов
// (документ metadata/latestPosts). Кэш перезаписывается целиком.
type LatestPostEntry struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	PubDate  string `json:"pub_date"`
	ImageURL string `json:"image_url,omitempty"`
}
