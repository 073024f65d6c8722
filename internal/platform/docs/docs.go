// Package docs sirve la documentación de la API: el spec OpenAPI estático
// y la UI de swagger montada en /docs.
package docs

import (
	_ "embed"
	"net/http"
)

//go:embed openapi.yaml
var openapiSpec []byte

// ServeSpec devuelve el handler de /openapi.yaml.
func ServeSpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/x-yaml")
	_, _ = w.Write(openapiSpec)
}
