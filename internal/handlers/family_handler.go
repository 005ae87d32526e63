package handlers

import (
	"net/http"
	"strconv"

	"familycard/internal/models"
	"familycard/internal/service"
)

// FamilyHandler handles family and member CRUD
type FamilyHandler struct {
	familyService *service.FamilyService
}

// NewFamilyHandler creates a new family handler
func NewFamilyHandler(familyService *service.FamilyService) *FamilyHandler {
	return &FamilyHandler{familyService: familyService}
}

type createFamilyRequest struct {
	FamilyName   string             `json:"family_name"`
	Address      string             `json:"address"`
	AnnualIncome int                `json:"annual_income"`
	Members      []models.NewMember `json:"members"`
	ChosenScheme string             `json:"chosen_scheme"`
}

// CreateFamily registers a family, assigns its scheme tier and issues
// the utility card
func (h *FamilyHandler) CreateFamily(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req createFamilyRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondWithServiceError(w, err)
		return
	}
	if req.FamilyName == "" {
		respondWithError(w, http.StatusBadRequest, "family_name required")
		return
	}

	family, members, err := h.familyService.CreateFamily(r.Context(), user, req.FamilyName, req.Address, req.AnnualIncome, req.Members, req.ChosenScheme)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	if members == nil {
		members = []models.Member{}
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"family":  family,
		"members": members,
	})
}

// GetFamilies lists the caller's families with nested members
func (h *FamilyHandler) GetFamilies(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	families, err := h.familyService.GetFamiliesForUser(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	if families == nil {
		families = []models.Family{}
	}
	respondWithData(w, http.StatusOK, families)
}

// UpdateFamily applies a partial update to a family the caller owns
func (h *FamilyHandler) UpdateFamily(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	familyID, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid family id")
		return
	}

	var fields map[string]any
	if err := decodeJSONBody(r, &fields); err != nil {
		respondWithServiceError(w, err)
		return
	}

	updated, err := h.familyService.UpdateFamily(r.Context(), user.ID, familyID, fields)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, updated)
}

type addMembersRequest struct {
	Members []models.NewMember `json:"members"`
}

// AddMembers appends members to a family the caller owns
func (h *FamilyHandler) AddMembers(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	familyID, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid family id")
		return
	}

	var req addMembersRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondWithServiceError(w, err)
		return
	}

	members, err := h.familyService.AddMembers(r.Context(), user.ID, familyID, req.Members)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, members)
}

// UpdateMember applies a partial update to a member of a family the
// caller owns
func (h *FamilyHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	memberID, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	var fields map[string]any
	if err := decodeJSONBody(r, &fields); err != nil {
		respondWithServiceError(w, err)
		return
	}

	updated, err := h.familyService.UpdateMember(r.Context(), user.ID, memberID, fields)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, updated)
}

// DeleteMember removes a member of a family the caller owns
func (h *FamilyHandler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	memberID, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid member id")
		return
	}

	deleted, err := h.familyService.DeleteMember(r.Context(), user.ID, memberID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, deleted)
}

// pathID parses the {id} path segment
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
