package v1

import (
	"net/http"

	"github.com/sentient-soup/reelname/internal/library"
)

func (s *Server) getSettings(w http.ResponseWriter, _ *http.Request) {
	values, err := s.deps.Library.AllSettings()
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, values)
}

// putSettings stores every given key atomically. Keys not in the body are
// left alone.
func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if !decodeJSON(w, r, &req) {
		return
	}
	for k, v := range req {
		if err := library.ValidateSetting(k, v); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_SETTING", err.Error())
			return
		}
	}
	if err := s.deps.Library.SetSettings(req); err != nil {
		writeStoreError(w, err, "")
		return
	}
	s.getSettings(w, r)
}
