package models

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate checks that title, excerpt and content are all present.
// The first missing field is reported using the API's wording.
func (p *Post) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	if fe.Tag() == "required" {
		return fmt.Errorf("cannot have empty post %s", fieldLabel(fe.Field()))
	}
	return fmt.Errorf("invalid post %s", fieldLabel(fe.Field()))
}

func fieldLabel(field string) string {
	switch field {
	case "Title":
		return "title"
	case "Excerpt":
		return "excerpt"
	case "Content":
		return "content"
	case "ID":
		return "id"
	}
	return field
}

// Equal reports whether two posts carry the same id and text.
func (p *Post) Equal(other *Post) bool {
	if p == nil || other == nil {
		return p == other
	}
	return *p == *other
}
