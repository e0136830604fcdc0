package app

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"astroapp-go/internal/action"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// actionRequest is the body of POST /api/action. Data stays raw here; the
// dispatcher decodes it per action.
type actionRequest struct {
	UserID int64           `json:"user_id" validate:"required,gt=0"`
	Action string          `json:"action" validate:"required"`
	Data   json.RawMessage `json:"data"`
}

// invoiceRequest is the body of POST /api/create-invoice.
type invoiceRequest struct {
	UserID  int64  `json:"user_id" validate:"required,gt=0"`
	Product string `json:"product" validate:"required"`
	Method  string `json:"method" validate:"required"`
}

// handleIndex serves the Mini App entry point.
func (a *Application) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(a.Config.StaticDir, "index.html"))
}

// handleHealth is the liveness probe.
func (a *Application) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleGetUser returns the profile view for a user ID.
func (a *Application) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if !a.authorized(r, userID) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	writeJSON(w, http.StatusOK, a.Resolver.Resolve(r.Context(), userID))
}

// handleAction dispatches a user action.
func (a *Application) handleAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if !a.decodeBody(w, r, &req) {
		return
	}

	if !a.authorized(r, req.UserID) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	result := a.Dispatcher.Dispatch(r.Context(), req.UserID, action.Action(req.Action), req.Data)
	writeJSON(w, http.StatusOK, result)
}

// handleCreateInvoice creates a payment invoice.
func (a *Application) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest
	if !a.decodeBody(w, r, &req) {
		return
	}

	if !a.authorized(r, req.UserID) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	result := a.Invoicer.CreateInvoice(r.Context(), req.UserID, req.Product, req.Method)
	writeJSON(w, http.StatusOK, result)
}

// decodeBody parses and validates a JSON request body. It writes the error
// response itself and reports whether the handler should continue.
func (a *Application) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return false
	}
	if err := a.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			writeError(w, http.StatusBadRequest, "invalid field "+verrs[0].Field())
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"status": "error", "message": message})
}
