package server

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/ThiagoRGoveia/building-metadata/internal/catalog"
	"github.com/ThiagoRGoveia/building-metadata/internal/models"
)

// defaultRadius matches the load radius the map client starts with.
const defaultRadius = 200.0

type BuildingStore interface {
	Get(filename string) (models.Building, bool)
	Near(x, y, radius float64) []catalog.Match
}

type BuildingService struct {
	Store BuildingStore
}

func NewBuildingService(store BuildingStore) *BuildingService {
	return &BuildingService{Store: store}
}

func (h *BuildingService) GetBuilding(w http.ResponseWriter, r *http.Request) {
	filename := strings.TrimPrefix(r.URL.Path, "/buildings/")
	if filename == "" {
		http.Error(w, "Filename is required in the URL path /buildings/{filename}", http.StatusBadRequest)
		return
	}

	building, ok := h.Store.Get(filename)
	if !ok {
		http.Error(w, "Building not found", http.StatusNotFound)
		return
	}

	writeJSON(w, building)
}

func (h *BuildingService) GetNearbyBuildings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	x, err := parseFinite(query.Get("x"))
	if err != nil {
		http.Error(w, "Invalid or missing 'x' coordinate.", http.StatusBadRequest)
		return
	}
	y, err := parseFinite(query.Get("y"))
	if err != nil {
		http.Error(w, "Invalid or missing 'y' coordinate.", http.StatusBadRequest)
		return
	}

	radius := defaultRadius
	if radiusStr := query.Get("radius"); radiusStr != "" {
		radius, err = parseFinite(radiusStr)
		if err != nil || radius < 0 {
			http.Error(w, "Invalid 'radius'. Use a non-negative number.", http.StatusBadRequest)
			return
		}
	}

	writeJSON(w, h.Store.Near(x, y, radius))
}

// parseFinite rejects the NaN and Inf spellings strconv accepts.
func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}
