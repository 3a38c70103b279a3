package handler

import (
	"net/http"
	"strings"

	"github.com/dafibh/loandesk/loandesk-backend/docs"
	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/swaggo/swag"
)

// OpenAPI3Spec represents an OpenAPI 3.0 spec structure
type OpenAPI3Spec struct {
	OpenAPI    string                 `json:"openapi"`
	Info       map[string]interface{} `json:"info"`
	Servers    []Server               `json:"servers"`
	Paths      map[string]interface{} `json:"paths"`
	Components map[string]interface{} `json:"components,omitempty"`
}

// Server represents an OpenAPI 3.0 server
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// DefaultServers are advertised when no servers are configured
var DefaultServers = []Server{
	{URL: "http://localhost:8080/api/v1", Description: "Local Development"},
	{URL: "https://api.loandesk.app/api/v1", Description: "Production"},
}

// schemaFields are the Swagger 2.0 parameter keys that move under "schema" in 3.0
var schemaFields = []string{"type", "format", "enum", "default", "minimum", "maximum", "items"}

// convertNode rewrites a Swagger 2.0 fragment for OpenAPI 3.0: definition refs
// point at components/schemas and non-body parameters carry a schema object
func convertNode(node interface{}) interface{} {
	switch v := node.(type) {
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = convertNode(item)
		}
		return out
	case map[string]interface{}:
		_, hasIn := v["in"]
		_, hasName := v["name"]
		if hasIn && hasName {
			return convertParameter(v)
		}

		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			ref, isRef := value.(string)
			if key == "$ref" && isRef {
				out[key] = strings.Replace(ref, "#/definitions/", "#/components/schemas/", 1)
				continue
			}
			out[key] = convertNode(value)
		}
		return out
	}
	return node
}

func convertParameter(param map[string]interface{}) map[string]interface{} {
	// body parameters are left for the client generator to map to requestBody
	if param["in"] == "body" {
		return param
	}

	out := make(map[string]interface{})
	for _, field := range []string{"name", "in", "description", "required"} {
		if val, ok := param[field]; ok {
			out[field] = val
		}
	}

	schema := make(map[string]interface{})
	for _, field := range schemaFields {
		if val, ok := param[field]; ok {
			schema[field] = convertNode(val)
		}
	}
	if len(schema) > 0 {
		out["schema"] = schema
	}
	return out
}

// buildOpenAPI3 converts the registered Swagger 2.0 document
func buildOpenAPI3(doc string, servers []Server) (*OpenAPI3Spec, error) {
	var swagger2 map[string]interface{}
	if err := json.Unmarshal([]byte(doc), &swagger2); err != nil {
		return nil, err
	}

	info, _ := swagger2["info"].(map[string]interface{})
	paths, _ := swagger2["paths"].(map[string]interface{})
	convertedPaths, _ := convertNode(paths).(map[string]interface{})

	components := make(map[string]interface{})
	if secDefs, ok := swagger2["securityDefinitions"].(map[string]interface{}); ok {
		components["securitySchemes"] = secDefs
	}
	if definitions, ok := swagger2["definitions"].(map[string]interface{}); ok {
		components["schemas"] = convertNode(definitions)
	}

	return &OpenAPI3Spec{
		OpenAPI:    "3.0.3",
		Info:       info,
		Servers:    servers,
		Paths:      convertedPaths,
		Components: components,
	}, nil
}

// OpenAPI3Handler serves the API description as OpenAPI 3.0 with the given servers
func OpenAPI3Handler(servers []Server) echo.HandlerFunc {
	if len(servers) == 0 {
		servers = DefaultServers
	}
	return func(c echo.Context) error {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			return NewInternalError(c, "Failed to read swagger doc")
		}

		spec, err := buildOpenAPI3(doc, servers)
		if err != nil {
			return NewInternalError(c, "Failed to parse swagger doc")
		}

		return c.JSON(http.StatusOK, spec)
	}
}
