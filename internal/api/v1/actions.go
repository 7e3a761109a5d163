package v1

import (
	"errors"
	"net/http"

	"github.com/sentient-soup/reelname/internal/library"
	"github.com/sentient-soup/reelname/internal/scanner"
	"github.com/sentient-soup/reelname/internal/transfer"
)

func (s *Server) bulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	action, err := library.ParseAction(req.Action)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ACTION", err.Error())
		return
	}
	if len(req.GroupIDs) == 0 && len(req.JobIDs) == 0 {
		writeError(w, http.StatusBadRequest, "EMPTY_SELECTION", "group_ids or job_ids is required")
		return
	}

	n, err := s.deps.Library.BulkAction(action, req.GroupIDs, req.JobIDs)
	if err != nil {
		writeStoreError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, bulkResponse{Affected: n})
}

func (s *Server) scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	result, err := s.deps.Ingester.Ingest(r.Context(), req.Path)
	if err != nil {
		if errors.Is(err, scanner.ErrNoScanPath) {
			writeError(w, http.StatusBadRequest, "NO_SCAN_PATH", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "SCAN_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) matchAll(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Matcher.MatchAll(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "MATCH_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// startTransfer expands the selection and runs it. With wait set the batch
// runs on the request and the summary is returned; otherwise it is detached
// and progress is observed through the event stream.
func (s *Server) startTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := s.deps.Library.GetDestination(req.DestinationID); err != nil {
		writeStoreError(w, err, "Destination not found")
		return
	}
	jobIDs, err := transfer.ExpandGroups(s.deps.Library, req.GroupIDs, req.JobIDs)
	if err != nil {
		if errors.Is(err, transfer.ErrNothingToTransfer) {
			writeError(w, http.StatusBadRequest, "NOTHING_TO_TRANSFER", err.Error())
			return
		}
		writeStoreError(w, err, "")
		return
	}

	if req.Wait {
		result, err := s.deps.Transfers.Run(r.Context(), jobIDs, req.DestinationID, nil)
		if err != nil {
			writeTransferError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		result, err := s.deps.Transfers.Run(s.bg, jobIDs, req.DestinationID, nil)
		if err != nil {
			s.log.Error("transfer batch failed", "destination_id", req.DestinationID, "error", err)
			return
		}
		s.log.Info("transfer batch finished", "batch_id", result.BatchID,
			"completed", result.Completed, "failed", result.Failed)
	}()
	writeJSON(w, http.StatusAccepted, transferAcceptedResponse{Queued: len(jobIDs)})
}

func writeTransferError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, transfer.ErrDestinationNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, transfer.ErrNothingToTransfer):
		writeError(w, http.StatusBadRequest, "NOTHING_TO_TRANSFER", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "TRANSFER_ERROR", err.Error())
	}
}
