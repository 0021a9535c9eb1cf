package daemon

import (
	"log"
	"net/http"

	"github.com/minegate/minegate/internal/registry"
)

// ListProjectsResponse wraps the current registry snapshot.
type ListProjectsResponse struct {
	Projects registry.Registry `json:"projects"`
}

func (d *Daemon) handleListProjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	projects, err := d.svc.Projects()
	if err != nil {
		log.Printf("[ERROR] failed to read projects: %v", err)
		writeError(w, "failed to read projects", http.StatusInternalServerError)
		return
	}

	writeJSON(w, ListProjectsResponse{Projects: projects}, http.StatusOK)
}
