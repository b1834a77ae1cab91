package models

import "time"

// Типы постов, управляющие размещением на главной.
const (
	PostTypeNone        = "none"
	PostTypeFeature     = "feature"
	PostTypeRecommended = "recommended"
	PostTypeSpotlight   = "spotlight"
)

type Post struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Slug        string    `json:"slug"`
	AuthorID    int       `json:"author_id"`
	AuthorName  string    `json:"author_name"`
	TabID       int       `json:"tab_id"`
	TabSlug     string    `json:"tab_slug"`
	SectionSlug string    `json:"section_slug"`
	PostType    string    `json:"post_type"`
	// Календарная дата в формате YYYY-MM-DD: лексикографическая сортировка
	// совпадает с хронологической, формат менять нельзя.
	PubDate   string    `json:"pub_date"`
	ImageURL  string    `json:"image_url,omitempty"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Comment struct {
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// swagger:model CreatePostRequest
type CreatePostRequest struct {
	Title       string `json:"title"    example:"Открыта новая лаборатория"`
	Content     string `json:"content"  example:"Текст новости"`
	TabID       int    `json:"tab_id"   example:"1"`
	SectionSlug string `json:"section_slug" example:"campus"`
	PostType    string `json:"post_type"    example:"none"`
	// Картинка как data URL (data:image/png;base64,...), опциональна.
	CoverPhoto string `json:"cover_photo,omitempty"`
}

type UpdatePostRequest struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	TabID       int    `json:"tab_id"`
	SectionSlug string `json:"section_slug"`
	PostType    string `json:"post_type"`
	CoverPhoto  string `json:"cover_photo,omitempty"`
}

// SectionPosts — раздел вкладки со своими постами; разделы без постов
// отдаются с пустым списком, а не пропускаются.
type SectionPosts struct {
	Section Section `json:"section"`
	Posts   []*Post `json:"posts"`
}

type TabPosts struct {
	Tab      Tab            `json:"tab"`
	Sections []SectionPosts `json:"sections"`
}

// HomePosts — раскладка главной страницы по post_type.
type HomePosts struct {
	Feature     *Post   `json:"feature,omitempty"`
	Recommended []*Post `json:"recommended"`
	Spotlight   []*Post `json:"spotlight"`
}
