package router

import (
	"net/http"

	"bonvet-api/internal/domain/pets"
	"bonvet-api/internal/domain/records"
	"bonvet-api/internal/domain/sharetokens"
	"bonvet-api/internal/domain/users"
	"bonvet-api/internal/middleware"
	"bonvet-api/internal/platform/docs"
	"bonvet-api/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Options agrupa los services ya armados (el wiring vive en cmd/api).
type Options struct {
	Verifier auth.AuthVerifier
	Issuer   auth.SessionIssuer

	Users  *users.Service
	Pets   *pets.Service
	Record *records.Service
	Tokens *sharetokens.Service
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/openapi.yaml", docs.ServeSpec)
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))

	// Rutas públicas: auth y acceso por token compartido.
	users.RegisterPublicRoutes(r, opts.Users, opts.Issuer)
	sharetokens.RegisterPublicRoutes(r, opts.Tokens, opts.Pets, opts.Users, opts.Record)

	// Rutas protegidas del dueño.
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireAuth(opts.Verifier))

		users.RegisterPrivateRoutes(pr, opts.Users)
		pets.RegisterRoutes(pr, opts.Pets)
		records.RegisterRoutes(pr, opts.Record, opts.Pets)
		sharetokens.RegisterOwnerRoutes(pr, opts.Tokens, opts.Pets)
	})

	return r
}
