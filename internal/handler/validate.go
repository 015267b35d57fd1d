package handler

import "github.com/go-playground/validator/v10"

// validate checks request DTO shape before anything touches the
// stores. A single instance is safe for concurrent use and caches
// struct metadata.
var validate = validator.New()
