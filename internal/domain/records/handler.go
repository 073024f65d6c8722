package records

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"bonvet-api/internal/domain/pets"
	"bonvet-api/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, petsSvc *pets.Service) {
	r.Route("/pets/{petID}/records", func(rr chi.Router) {
		rr.Post("/", createRecordHandler(svc, petsSvc))
		rr.Get("/", listRecordsHandler(svc, petsSvc))
		rr.Get("/{recordID}", getRecordHandler(svc, petsSvc))
		rr.Patch("/{recordID}", updateRecordHandler(svc, petsSvc))
		rr.Delete("/{recordID}", deleteRecordHandler(svc, petsSvc))
	})
}

type createRecordRequest struct {
	Type             RecordType `json:"type" enums:"vaccination,checkup,surgery,medication,emergency,diagnostic,treatment,other"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	RecordDate       string     `json:"record_date"` // YYYY-MM-DD
	VeterinaryClinic string     `json:"veterinary_clinic"`
	VeterinarianName string     `json:"veterinarian_name"`
	WeightAtVisit    *float64   `json:"weight_at_visit"`
	Notes            string     `json:"notes"`
}

type updateRecordRequest struct {
	Type             *RecordType `json:"type"`
	Title            *string     `json:"title"`
	Description      *string     `json:"description"`
	RecordDate       *string     `json:"record_date"` // YYYY-MM-DD
	VeterinaryClinic *string     `json:"veterinary_clinic"`
	VeterinarianName *string     `json:"veterinarian_name"`
	WeightAtVisit    *float64    `json:"weight_at_visit"`
	Notes            *string     `json:"notes"`
}

type fileResponse struct {
	ID           string `json:"id"`
	OriginalName string `json:"original_name"`
	MimeType     string `json:"mime_type"`
	Size         int64  `json:"size"`
	URL          string `json:"url"`
}

type recordResponse struct {
	ID               string         `json:"id"`
	PetID            string         `json:"pet_id"`
	Type             RecordType     `json:"type"`
	Title            string         `json:"title"`
	Description      string         `json:"description,omitempty"`
	RecordDate       time.Time      `json:"record_date"`
	VeterinaryClinic string         `json:"veterinary_clinic,omitempty"`
	VeterinarianName string         `json:"veterinarian_name,omitempty"`
	WeightAtVisit    *float64       `json:"weight_at_visit,omitempty"`
	Notes            string         `json:"notes,omitempty"`
	Files            []fileResponse `json:"files"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// createRecordHandler godoc
// @Summary Crear registro médico
// @Description Agrega una entrada al historial clínico de la mascota. Solo el dueño.
// @Tags records
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param petID path string true "ID de la mascota"
// @Param payload body createRecordRequest true "Datos del registro; record_date en formato YYYY-MM-DD"
// @Success 201 {object} recordResponse
// @Failure 400 {string} string "invalid json / invalid input"
// @Failure 401 {string} string "unauthenticated"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/records [post]
func createRecordHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := ownedPet(w, r, petsSvc)
		if !ok {
			return
		}

		var req createRecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		recordDate, err := time.Parse("2006-01-02", req.RecordDate)
		if err != nil {
			http.Error(w, "record_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		rec, err := svc.Create(r.Context(), petID, CreateInput{
			Type:             req.Type,
			Title:            req.Title,
			Description:      req.Description,
			RecordDate:       recordDate,
			VeterinaryClinic: req.VeterinaryClinic,
			VeterinarianName: req.VeterinarianName,
			WeightAtVisit:    req.WeightAtVisit,
			Notes:            req.Notes,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toRecordResponse(rec))
	}
}

func listRecordsHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := ownedPet(w, r, petsSvc)
		if !ok {
			return
		}

		items, err := svc.ListByPet(r.Context(), petID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]recordResponse, 0, len(items))
		for _, rec := range items {
			out = append(out, toRecordResponse(rec))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func getRecordHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := ownedPet(w, r, petsSvc)
		if !ok {
			return
		}

		rec, ok := recordOfPet(w, r, svc, petID)
		if !ok {
			return
		}

		writeJSON(w, http.StatusOK, toRecordResponse(rec))
	}
}

func updateRecordHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := ownedPet(w, r, petsSvc)
		if !ok {
			return
		}

		current, ok := recordOfPet(w, r, svc, petID)
		if !ok {
			return
		}

		var req updateRecordRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var recordDate *time.Time
		if req.RecordDate != nil {
			t, err := time.Parse("2006-01-02", *req.RecordDate)
			if err != nil {
				http.Error(w, "record_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			recordDate = &t
		}

		rec, err := svc.Update(r.Context(), current.ID, UpdateInput{
			Type:             req.Type,
			Title:            req.Title,
			Description:      req.Description,
			RecordDate:       recordDate,
			VeterinaryClinic: req.VeterinaryClinic,
			VeterinarianName: req.VeterinarianName,
			WeightAtVisit:    req.WeightAtVisit,
			Notes:            req.Notes,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "record not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toRecordResponse(rec))
	}
}

func deleteRecordHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := ownedPet(w, r, petsSvc)
		if !ok {
			return
		}

		rec, ok := recordOfPet(w, r, svc, petID)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), rec.ID); err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "record not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// ownedPet resuelve auth + ownership de la mascota de la ruta.
// Escribe la respuesta de error y devuelve ok=false si algo falla.
func ownedPet(w http.ResponseWriter, r *http.Request, petsSvc *pets.Service) (string, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return "", false
	}

	petID := chi.URLParam(r, "petID")
	if _, err := petsSvc.GetOwned(r.Context(), petID, claims.UserID); err != nil {
		// Ajena o inexistente responden igual; solo las fallas del storage
		// salen como 500.
		if errors.Is(err, pets.ErrNotFound) || errors.Is(err, pets.ErrNotAuthorized) {
			http.Error(w, "pet not found", http.StatusNotFound)
			return "", false
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return "", false
	}
	return petID, true
}

// recordOfPet carga el registro de la ruta y verifica que pertenezca a la
// mascota. Un registro de otra mascota responde 404, no 403: tampoco acá
// filtramos existencia.
func recordOfPet(w http.ResponseWriter, r *http.Request, svc *Service, petID string) (MedicalRecord, bool) {
	rec, err := svc.GetByID(r.Context(), chi.URLParam(r, "recordID"))
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "record not found", http.StatusNotFound)
		return MedicalRecord{}, false
	}
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return MedicalRecord{}, false
	}
	if rec.PetID != petID {
		http.Error(w, "record not found", http.StatusNotFound)
		return MedicalRecord{}, false
	}
	return rec, true
}

func toRecordResponse(rec MedicalRecord) recordResponse {
	files := make([]fileResponse, 0, len(rec.Files))
	for _, f := range rec.Files {
		files = append(files, fileResponse{
			ID:           f.ID,
			OriginalName: f.OriginalName,
			MimeType:     f.MimeType,
			Size:         f.Size,
			URL:          f.URL,
		})
	}

	return recordResponse{
		ID:               rec.ID,
		PetID:            rec.PetID,
		Type:             rec.Type,
		Title:            rec.Title,
		Description:      rec.Description,
		RecordDate:       rec.RecordDate,
		VeterinaryClinic: rec.VeterinaryClinic,
		VeterinarianName: rec.VeterinarianName,
		WeightAtVisit:    rec.WeightAtVisit,
		Notes:            rec.Notes,
		Files:            files,
		CreatedAt:        rec.CreatedAt,
		UpdatedAt:        rec.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
