package models

import "github.com/go-playground/validator/v10"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Post represents a stored content unit. ID is assigned by the store on creation.
type Post struct {
	ID      int    `json:"post_id" validate:"gte=0"`
	Title   string `json:"title" validate:"required"`
	Excerpt string `json:"excerpt" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// NavLink is one entry of the site navigation bar.
type NavLink struct {
	Name  string `json:"name" mapstructure:"name"`
	Href  string `json:"href" mapstructure:"href"`
	Title string `json:"title" mapstructure:"title"`
}

// NavbarConfig is loaded once at startup and passed read-only into every render.
type NavbarConfig struct {
	Links []NavLink `json:"links" mapstructure:"links"`
}
