package v1

import (
	"net/http"
	"strings"

	"github.com/sentient-soup/reelname/internal/library"
	"github.com/sentient-soup/reelname/internal/transfer"
)

func (req destinationRequest) apply(d *library.Destination) {
	d.Name = strings.TrimSpace(req.Name)
	d.Type = library.DestinationType(req.Type)
	if d.Type == "" {
		d.Type = library.DestinationLocal
	}
	d.BasePath = req.BasePath
	d.SSHHost = req.SSHHost
	d.SSHPort = req.SSHPort
	d.SSHUser = req.SSHUser
	d.SSHKeyPath = req.SSHKeyPath
	// an omitted passphrase keeps the stored one
	if req.SSHKeyPassphrase != nil {
		d.SSHKeyPassphrase = req.SSHKeyPassphrase
	}
	d.MovieTemplate = req.MovieTemplate
	d.TVTemplate = req.TVTemplate
}

func (s *Server) listDestinations(w http.ResponseWriter, _ *http.Request) {
	dests, err := s.deps.Library.ListDestinations()
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	resp := make([]destinationResponse, len(dests))
	for i, d := range dests {
		resp[i] = destinationToResponse(d)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getDestination(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	d, err := s.deps.Library.GetDestination(id)
	if err != nil {
		writeStoreError(w, err, "Destination not found")
		return
	}
	writeJSON(w, http.StatusOK, destinationToResponse(d))
}

func (s *Server) addDestination(w http.ResponseWriter, r *http.Request) {
	var req destinationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	d := &library.Destination{}
	req.apply(d)
	if err := d.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_DESTINATION", err.Error())
		return
	}
	if err := s.deps.Library.AddDestination(d); err != nil {
		writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, destinationToResponse(d))
}

func (s *Server) updateDestination(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	var req destinationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	d, err := s.deps.Library.GetDestination(id)
	if err != nil {
		writeStoreError(w, err, "Destination not found")
		return
	}
	req.apply(d)
	if err := d.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_DESTINATION", err.Error())
		return
	}
	if err := s.deps.Library.UpdateDestination(d); err != nil {
		writeStoreError(w, err, "Destination not found")
		return
	}
	writeJSON(w, http.StatusOK, destinationToResponse(d))
}

func (s *Server) deleteDestination(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	if err := s.deps.Library.DeleteDestination(id); err != nil {
		writeStoreError(w, err, "Destination not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// testDestination checks that the destination is reachable. A failed check
// is reported in the body with status 200.
func (s *Server) testDestination(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	d, err := s.deps.Library.GetDestination(id)
	if err != nil {
		writeStoreError(w, err, "Destination not found")
		return
	}

	if err := transfer.TestConnection(r.Context(), d, s.deps.Dial); err != nil {
		writeJSON(w, http.StatusOK, testConnectionResponse{OK: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, testConnectionResponse{OK: true})
}
