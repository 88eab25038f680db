package dto

import "github.com/go-playground/validator/v10"

// Validate is shared by every request DTO; validator caches struct metadata per instance.
var Validate = validator.New()
