package routes

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

/* Route is one destination listed in a routes manifest
 * The CLI protects every route of a manifest in one go
 */
type Route struct {
	Name        string `yaml:"name" validate:"required"`
	TargetURL   string `yaml:"target_url" validate:"required,http_url"`
	Description string `yaml:"description"`
}

// Validate checks that the route has a name and an absolute http(s) target
func (r *Route) Validate() error {
	if err := validate.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			switch fe.Field() {
			case "Name":
				return fmt.Errorf("name cannot be empty")
			case "TargetURL":
				if fe.Tag() == "required" {
					return fmt.Errorf("target_url cannot be empty for route %s", r.Name)
				}
				return fmt.Errorf("target_url must be an absolute http(s) URL for route %s", r.Name)
			}
		}
		return fmt.Errorf("validating route %s: %w", r.Name, err)
	}
	return nil
}
