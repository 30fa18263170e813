package router

import (
	"os"
	"path/filepath"

	"npc-chatlab/backend/pkg/validator"
)

// AddOpenAPIValidation enables request validation against the schema at
// schemaPath. A missing or broken schema only disables validation, it
// never blocks startup.
func (r *Router) AddOpenAPIValidation(schemaPath string) {
	if _, err := os.Stat(schemaPath); os.IsNotExist(err) {
		r.Logger.Warn("OpenAPI schema file not found, skipping validation", "path", schemaPath)
		return
	}

	v, err := validator.NewOpenAPIValidator(schemaPath)
	if err != nil {
		r.Logger.Error("Failed to initialize OpenAPI validator", "error", err.Error())
		return
	}

	r.Engine.Use(v.Middleware())
	r.Logger.Info("OpenAPI validation enabled", "schema", schemaPath)

	// Serve the schema itself for client tooling
	schemaDir := filepath.Dir(schemaPath)
	schemaFile := filepath.Base(schemaPath)
	r.Engine.Static("/api/docs", schemaDir)
	r.Logger.Info("OpenAPI schema available", "url", "/api/docs/"+schemaFile)
}
