package server

import (
	"net/http"
)

func SetupRoutes(buildingHandler *BuildingService) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/buildings", buildingHandler.GetNearbyBuildings)
	mux.HandleFunc("/buildings/", buildingHandler.GetBuilding)

	return mux
}
