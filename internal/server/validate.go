package server

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/nhle/taskboard/internal/model"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check validates req and turns the first failure into a readable message.
func (s *Server) check(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return invalid("Invalid request.")
	}
	fe := verrs[0]
	field := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return invalid("%s is required.", capitalize(field))
	case "email":
		return invalid("Enter a valid email address.")
	case "min":
		return invalid("%s must be at least %s characters.", capitalize(field), fe.Param())
	case "max":
		return invalid("%s must be at most %s characters.", capitalize(field), fe.Param())
	case "oneof":
		return invalid("%q is not a valid %s.", fe.Value(), field)
	default:
		return invalid("%s is invalid.", capitalize(field))
	}
}

// parse decodes the JSON body into req and validates it.
func (s *Server) parse(c *fiber.Ctx, req any) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(req); err != nil {
			return invalid("Malformed request body: %v", err)
		}
	}
	return s.check(req)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func validColor(c *model.Color) error {
	if c != nil && !c.Valid() {
		return invalid("%q is not a valid color.", *c)
	}
	return nil
}

func validPriority(p *model.Priority) error {
	if p != nil && !p.Valid() {
		return invalid("%q is not a valid priority.", *p)
	}
	return nil
}

func validStatus(st *model.Status) error {
	if st != nil && !st.Valid() {
		return invalid("%q is not a valid status.", *st)
	}
	return nil
}
