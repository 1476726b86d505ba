package validation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/vinodismyname/storepulse/pkg/pagination"
)

var (
	v    *validator.Validate
	once sync.Once
)

// Validator returns a singleton validator with custom rules registered.
func Validator() *validator.Validate {
	once.Do(func() {
		v = validator.New()
		// Custom: column names must be non-empty and carry no surrounding whitespace
		_ = v.RegisterValidation("colname", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s != "" && strings.TrimSpace(s) == s
		})
		// Custom: measure names accepted by delta and correlation tools
		_ = v.RegisterValidation("measure", func(fl validator.FieldLevel) bool {
			switch strings.ToLower(strings.TrimSpace(fl.Field().String())) {
			case "", "sales", "profit", "quantity", "discount":
				return true
			}
			return false
		})
		// Custom: cursor must be decodable via pagination.DecodeCursor
		_ = v.RegisterValidation("cursor", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			if s == "" {
				return true // empty is allowed; use omitempty with this tag
			}
			_, err := pagination.DecodeCursor(s)
			return err == nil
		})
	})
	return v
}

// ValidateStruct validates a struct and returns a user-friendly error string
// suitable for MCP tool errors. Returns empty string when valid.
func ValidateStruct(s any) string {
	if err := Validator().Struct(s); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			fe := ve[0]
			field := strings.ToLower(fe.Field())
			switch fe.Tag() {
			case "required":
				return fmt.Sprintf("VALIDATION: %s is required", field)
			case "colname":
				return fmt.Sprintf("VALIDATION: %s must be a non-empty column name without surrounding spaces", field)
			case "measure":
				return "VALIDATION: measure must be one of sales, profit, quantity, discount"
			case "cursor":
				return "CURSOR_INVALID: failed to decode cursor; restart pagination"
			case "oneof":
				return fmt.Sprintf("VALIDATION: %s must be one of %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
			case "min", "max", "gte", "lte":
				return fmt.Sprintf("VALIDATION: %s must satisfy %s=%s", field, fe.Tag(), fe.Param())
			}
			return fmt.Sprintf("VALIDATION: invalid %s", field)
		}
		return "VALIDATION: invalid inputs"
	}
	return ""
}
