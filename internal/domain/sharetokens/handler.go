package sharetokens

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"bonvet-api/internal/domain/pets"
	"bonvet-api/internal/domain/records"
	"bonvet-api/internal/domain/users"
	"bonvet-api/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterOwnerRoutes monta las rutas de gestión de QR (requieren sesión).
func RegisterOwnerRoutes(r chi.Router, svc *Service, petsSvc *pets.Service) {
	r.Route("/pets/{petID}/qr", func(qr chi.Router) {
		qr.Post("/", createQRHandler(svc, petsSvc))
		qr.Delete("/", deactivateQRHandler(svc, petsSvc))
		qr.Get("/tokens", listActiveTokensHandler(svc, petsSvc))
	})
}

// RegisterPublicRoutes monta el acceso público por token (sin sesión).
func RegisterPublicRoutes(r chi.Router, svc *Service, petsSvc *pets.Service, usersSvc *users.Service, recordsSvc *records.Service) {
	r.Get("/qr/access/{token}/records", publicAccessHandler(svc, petsSvc, usersSvc, recordsSvc))
}

type createQRResponse struct {
	Token            string `json:"token"`
	AccessURL        string `json:"access_url"`
	QRCodeBase64     string `json:"qr_code_base64"`
	QRCodeDataURI    string `json:"qr_code_data_uri"`
	ExpiresAt        string `json:"expires_at"` // ISO-8601
	ExpiresInMinutes int    `json:"expires_in_minutes"`
}

type tokenView struct {
	Token         string     `json:"token"`
	ExpiresAt     time.Time  `json:"expires_at"`
	LastUsedAt    *time.Time `json:"last_used_at,omitempty"`
	RemainingTime string     `json:"remaining_time"`
	CreatedAt     time.Time  `json:"created_at"`
}

// createQRHandler godoc
// @Summary Generar código QR
// @Description Emite un token de acceso público para la mascota y devuelve el QR renderizado. Cualquier token activo anterior queda revocado.
// @Tags qr
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param petID path string true "ID de la mascota"
// @Success 201 {object} createQRResponse
// @Failure 401 {string} string "unauthenticated"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/qr [post]
func createQRHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := ownedPet(w, r, petsSvc)
		if !ok {
			return
		}

		out, err := svc.CreateForPet(r.Context(), petID, clientIP(r))
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		b64, dataURI, err := renderQR(out.AccessURL)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, createQRResponse{
			Token:            out.Token.Token,
			AccessURL:        out.AccessURL,
			QRCodeBase64:     b64,
			QRCodeDataURI:    dataURI,
			ExpiresAt:        out.Token.ExpiresAt.Format(time.RFC3339),
			ExpiresInMinutes: out.ExpiresInMinutes,
		})
	}
}

// deactivateQRHandler revoca todos los tokens activos de la mascota.
// Idempotente: sin tokens activos igual responde 200.
func deactivateQRHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := ownedPet(w, r, petsSvc)
		if !ok {
			return
		}

		n, err := svc.DeactivateAllForPet(r.Context(), petID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"deactivated": n})
	}
}

func listActiveTokensHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := ownedPet(w, r, petsSvc)
		if !ok {
			return
		}

		items, err := svc.ListActive(r.Context(), petID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		now := svc.Now()
		out := make([]tokenView, 0, len(items))
		for _, t := range items {
			out = append(out, tokenView{
				Token:         t.Token,
				ExpiresAt:     t.ExpiresAt,
				LastUsedAt:    t.LastUsedAt,
				RemainingTime: t.RemainingTime(now),
				CreatedAt:     t.CreatedAt,
			})
		}

		writeJSON(w, http.StatusOK, out)
	}
}

// ---- acceso público ----

// publicPetView es el allow-list de campos de la mascota. Nada interno:
// ni owner_user_id, ni flags, ni IDs más allá de lo que la ruta ya expone.
type publicPetView struct {
	Name        string     `json:"name"`
	Species     string     `json:"species"`
	Breed       string     `json:"breed,omitempty"`
	Gender      string     `json:"gender"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	Age         string     `json:"age,omitempty"`
	Weight      *float64   `json:"weight,omitempty"`
	Color       string     `json:"color,omitempty"`
	Description string     `json:"description,omitempty"`
	PhotoURL    string     `json:"photo_url,omitempty"`
}

// publicOwnerView expone solo nombre y teléfono de contacto. Nunca email.
type publicOwnerView struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone,omitempty"`
}

type publicFileView struct {
	ID           string `json:"id"`
	OriginalName string `json:"original_name"`
	MimeType     string `json:"mime_type"`
	Size         int64  `json:"size"`
	URL          string `json:"url"`
}

type publicRecordView struct {
	ID               string           `json:"id"`
	Type             string           `json:"type"`
	Title            string           `json:"title"`
	Description      string           `json:"description,omitempty"`
	RecordDate       time.Time        `json:"record_date"`
	VeterinaryClinic string           `json:"veterinary_clinic,omitempty"`
	VeterinarianName string           `json:"veterinarian_name,omitempty"`
	WeightAtVisit    *float64         `json:"weight_at_visit,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	Files            []publicFileView `json:"files"`
	CreatedAt        time.Time        `json:"created_at"`
}

type accessInfoView struct {
	Token         string    `json:"token"`
	ExpiresAt     time.Time `json:"expires_at"`
	RemainingTime string    `json:"remaining_time"`
	AccessedAt    time.Time `json:"accessed_at"`
}

type publicAccessResponse struct {
	Pet            publicPetView      `json:"pet"`
	Owner          publicOwnerView    `json:"owner"`
	MedicalRecords []publicRecordView `json:"medical_records"`
	AccessInfo     accessInfoView     `json:"access_info"`
}

// publicAccessHandler godoc
// @Summary Acceso público por QR
// @Description Devuelve la vista pública (solo lectura) del historial de la mascota. La respuesta de error es siempre la misma, exista o no el token.
// @Tags qr
// @Produce json
// @Param token path string true "Token de acceso"
// @Success 200 {object} publicAccessResponse
// @Failure 401 {string} string "invalid or expired token"
// @Router /qr/access/{token}/records [get]
func publicAccessHandler(svc *Service, petsSvc *pets.Service, usersSvc *users.Service, recordsSvc *records.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Inexistente, revocado o vencido: un solo mensaje opaco. El borde
		// público no revela en qué estado quedó el token. Una falla del
		// storage no es un token malo y responde 500.
		t, err := svc.Validate(r.Context(), chi.URLParam(r, "token"))
		if err != nil {
			if errors.Is(err, ErrTokenNotFound) || errors.Is(err, ErrTokenRevoked) || errors.Is(err, ErrTokenExpired) {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		// Mascota borrada con token aún activo: mismo mensaje opaco.
		p, err := petsSvc.GetByID(r.Context(), t.PetID)
		if err != nil {
			if errors.Is(err, pets.ErrNotFound) {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		owner, err := usersSvc.GetByID(r.Context(), p.OwnerUserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		recs, err := recordsSvc.ListByPet(r.Context(), p.ID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		now := svc.Now()
		out := publicAccessResponse{
			Pet: publicPetView{
				Name:        p.Name,
				Species:     p.Species,
				Breed:       p.Breed,
				Gender:      string(p.Gender),
				BirthDate:   p.BirthDate,
				Age:         p.Age(now),
				Weight:      p.Weight,
				Color:       p.Color,
				Description: p.Description,
				PhotoURL:    p.PhotoURL,
			},
			Owner: publicOwnerView{
				FullName: owner.FullName(),
				Phone:    owner.Phone,
			},
			MedicalRecords: make([]publicRecordView, 0, len(recs)),
			AccessInfo: accessInfoView{
				Token:         t.Token,
				ExpiresAt:     t.ExpiresAt,
				RemainingTime: t.RemainingTime(now),
				AccessedAt:    now,
			},
		}

		for _, rec := range recs {
			files := make([]publicFileView, 0, len(rec.Files))
			for _, f := range rec.Files {
				files = append(files, publicFileView{
					ID:           f.ID,
					OriginalName: f.OriginalName,
					MimeType:     f.MimeType,
					Size:         f.Size,
					URL:          f.URL,
				})
			}
			out.MedicalRecords = append(out.MedicalRecords, publicRecordView{
				ID:               rec.ID,
				Type:             string(rec.Type),
				Title:            rec.Title,
				Description:      rec.Description,
				RecordDate:       rec.RecordDate,
				VeterinaryClinic: rec.VeterinaryClinic,
				VeterinarianName: rec.VeterinarianName,
				WeightAtVisit:    rec.WeightAtVisit,
				Notes:            rec.Notes,
				Files:            files,
				CreatedAt:        rec.CreatedAt,
			})
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func ownedPet(w http.ResponseWriter, r *http.Request, petsSvc *pets.Service) (string, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return "", false
	}

	petID := chi.URLParam(r, "petID")
	if _, err := petsSvc.GetOwned(r.Context(), petID, claims.UserID); err != nil {
		if errors.Is(err, pets.ErrNotFound) || errors.Is(err, pets.ErrNotAuthorized) {
			http.Error(w, "pet not found", http.StatusNotFound)
			return "", false
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return "", false
	}
	return petID, true
}

// clientIP prefiere X-Forwarded-For (primer hop) y cae a RemoteAddr.
func clientIP(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return fwd
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i > 0 {
		host = host[:i]
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
