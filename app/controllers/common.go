package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"cmsgo/app/apperrors"

	"github.com/gorilla/mux"
	"pkt.systems/pslog"
)

// requestLogger prefers the request scoped logger installed by middleware.
func requestLogger(r *http.Request, fallback pslog.Logger) pslog.Logger {
	if logger := pslog.LoggerFromContext(r.Context()); logger != nil {
		return logger
	}
	return fallback
}

func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// sendError writes err through mapper and logs server side failures loudly.
func sendError(w http.ResponseWriter, r *http.Request, logger pslog.Logger, mapper apperrors.StatusMapper, err error) {
	appErr := apperrors.From(err)
	status := mapper.Status(appErr.Kind)
	log := requestLogger(r, logger)
	if status >= http.StatusInternalServerError {
		log.Error("http.request.failed", "path", r.URL.Path, "kind", appErr.Kind.String(), "error", appErr.Error())
	} else {
		log.Debug("http.request.rejected", "path", r.URL.Path, "kind", appErr.Kind.String(), "error", appErr.Error())
	}
	mapper.Write(w, appErr)
}

func parseID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return 0, apperrors.NewValidation("invalid post id")
	}
	return id, nil
}

// queryInt reads an integer query parameter, falling back to def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidation("invalid " + name + " parameter")
	}
	return v, nil
}
