package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mofox-ui/pkg/document"
	"mofox-ui/pkg/merge"
	"mofox-ui/pkg/portprobe"
	"mofox-ui/pkg/startup"
)

const maxBodyBytes = 4 << 20

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type pathsResponse struct {
	OK      bool           `json:"ok"`
	Message string         `json:"message"`
	State   *startup.State `json:"state"`
}

type checkPortsRequest struct {
	Ports []int `json:"ports"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, statusResponse{Status: "error", Message: msg})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	if !s.state.OK() {
		status = "error"
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: status, Message: s.state.Message()})
}

func (s *Server) handlePaths(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, pathsResponse{
		OK:      s.state.OK(),
		Message: s.state.Message(),
		State:   s.state,
	})
}

func (s *Server) handleCheckPorts(w http.ResponseWriter, r *http.Request) {
	var req checkPortsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	results := portprobe.Check(req.Ports, func(port int, err error) {
		s.logger.Warn("port probe failed, reporting free", "port", port, "error", err)
	})
	writeJSON(w, http.StatusOK, results)
}

// store returns the store for the {name} route parameter, writing a 404
// for unknown names.
func (s *Server) store(w http.ResponseWriter, r *http.Request) (string, *document.Store, bool) {
	name := chi.URLParam(r, "name")
	st, ok := s.stores[name]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown config %q", name))
		return name, nil, false
	}
	return name, st, true
}

func (s *Server) handleConfigGet(w http.ResponseWriter, r *http.Request) {
	name, st, ok := s.store(w, r)
	if !ok {
		return
	}
	if !s.state.OK() || st.Path() == "" {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}

	doc, err := st.Read()
	if err == nil {
		var body []byte
		if body, err = json.Marshal(doc); err == nil {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(body)
			return
		}
	}
	s.logger.Error("read config", "name", name, "error", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) handleConfigUpdate(w http.ResponseWriter, r *http.Request) {
	name, st, ok := s.store(w, r)
	if !ok {
		return
	}
	if !s.state.OK() {
		writeError(w, http.StatusOK, s.state.Message())
		return
	}
	if st.Path() == "" {
		writeError(w, http.StatusOK, fmt.Sprintf("%s config path not found", name))
		return
	}

	patch, err := merge.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := st.Update(patch); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, document.ErrNullValue) {
			code = http.StatusBadRequest
		}
		s.logger.Error("update config", "name", name, "error", err)
		writeError(w, code, err.Error())
		return
	}
	s.logger.Info("config updated", "name", name, "path", st.Path())
	writeJSON(w, http.StatusOK, statusResponse{Status: "success"})
}
