package server

import (
	"net/http"

	"github.com/playperu/dsaquiz/internal/catalog"
)

func handleCategories(c *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.All())
	}
}
