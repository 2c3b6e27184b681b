package config

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// Validate checks cfg against its struct tags (required fields, oneof
// enums, conditional requirements between Backend and its backend-specific
// fields). Call after ApplyDefaults so default-filled fields don't trip
// "required" checks that only exist to catch operator typos.
func Validate(cfg *Config) error {
	return validate.Struct(cfg)
}
