package validator

import (
	"fmt"
	"os"
	"sync"

	"npc-chatlab/backend/pkg/errors"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/gin-gonic/gin"
)

// OpenAPIValidator validates incoming requests against the OpenAPI schema.
type OpenAPIValidator struct {
	schema     *openapi3.T
	router     routers.Router
	schemaPath string
	mutex      sync.RWMutex
}

// NewOpenAPIValidator loads and validates the schema at schemaPath.
func NewOpenAPIValidator(schemaPath string) (*OpenAPIValidator, error) {
	schema, err := loadOpenAPISchema(schemaPath)
	if err != nil {
		return nil, err
	}

	router, err := gorillamux.NewRouter(schema)
	if err != nil {
		return nil, fmt.Errorf("error creating OpenAPI router: %w", err)
	}

	return &OpenAPIValidator{
		schema:     schema,
		router:     router,
		schemaPath: schemaPath,
	}, nil
}

func loadOpenAPISchema(path string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	schema, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI schema from %s: %w", path, err)
	}

	if err := schema.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI schema: %w", err)
	}

	return schema, nil
}

// ReloadSchema re-reads the schema file, swapping it in atomically.
func (v *OpenAPIValidator) ReloadSchema() error {
	schema, err := loadOpenAPISchema(v.schemaPath)
	if err != nil {
		return err
	}

	router, err := gorillamux.NewRouter(schema)
	if err != nil {
		return fmt.Errorf("error creating OpenAPI router: %w", err)
	}

	v.mutex.Lock()
	defer v.mutex.Unlock()

	v.schema = schema
	v.router = router
	return nil
}

// Middleware returns a Gin middleware that rejects requests whose body or
// parameters do not match the schema. Routes absent from the schema pass
// through unvalidated.
func (v *OpenAPIValidator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Schema file missing means development mode, skip validation
		if _, err := os.Stat(v.schemaPath); os.IsNotExist(err) {
			c.Next()
			return
		}

		route, pathParams, err := v.router.FindRoute(c.Request)
		if err != nil {
			c.Next()
			return
		}

		requestValidationInput := &openapi3filter.RequestValidationInput{
			Request:    c.Request,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
			},
		}

		v.mutex.RLock()
		err = openapi3filter.ValidateRequest(c.Request.Context(), requestValidationInput)
		v.mutex.RUnlock()

		if err != nil {
			c.Error(errors.NewBadRequestError("SCHEMA_VALIDATION_FAILED", fmt.Sprintf("Invalid request: %v", err)))
			c.Abort()
			return
		}

		c.Next()
	}
}
