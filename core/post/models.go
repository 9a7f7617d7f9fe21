package post

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/enactus/membership/core"
)

// Post types
const (
	TypeAchievement = "achievement"
	TypeEvent       = "event"
	TypeArticle     = "article"
	TypeNews        = "news"
)

type Post struct {
	ID              string    `bson:"_id,omitempty" json:"id"`
	Title           string    `bson:"title" json:"title"`
	Description     string    `bson:"description" json:"description"` // markdown
	DescriptionHTML string    `bson:"-" json:"descriptionHtml"`
	Type            string    `bson:"type" json:"type"`
	ImageURL        string    `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Links           []string  `bson:"links" json:"links"`
	EventDate       string    `bson:"eventDate,omitempty" json:"eventDate,omitempty"` // YYYY-MM-DD
	AuthorID        string    `bson:"authorId" json:"authorId"`
	AuthorName      string    `bson:"authorName" json:"authorName"`
	AuthorEmail     string    `bson:"authorEmail" json:"authorEmail"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NewPost is the payload of a post creation or update.
type NewPost struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"required"`
	Type        string   `json:"type" validate:"required,oneof=achievement event article news"`
	ImageURL    string   `json:"imageUrl" validate:"omitempty,url"`
	Links       []string `json:"links" validate:"dive,url"`
	EventDate   string   `json:"eventDate" validate:"omitempty,caldate"`
}

func (np *NewPost) Validate(validate *validator.Validate) error {
	np.Title = core.CleanString(np.Title)
	np.Description = core.CleanString(np.Description)
	np.ImageURL = core.CleanString(np.ImageURL)
	np.EventDate = core.CleanString(np.EventDate)
	links := make([]string, 0, len(np.Links))
	for _, l := range np.Links {
		if l = core.CleanString(l); l != "" {
			links = append(links, l)
		}
	}
	np.Links = links
	return validate.Struct(np)
}
