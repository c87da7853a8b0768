package httpapi

import (
	"net/http"
	"time"

	"storeops.dev/internal/audit"
	"storeops.dev/internal/track"
)

type registerRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type storeSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Username string `json:"username"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	Store     storeSummary `json:"store"`
}

func summarize(st track.Store) storeSummary {
	return storeSummary{ID: st.ID, Name: st.Name, Location: st.Location, Username: st.Username}
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	st, err := a.svc.RegisterStore(r.Context(), track.RegisterParams{
		Name:     req.Name,
		Location: req.Location,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		handleTrackError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "store.register", map[string]any{
		"store_id": st.ID,
		"username": st.Username,
	})

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "store registered successfully",
		"store":   summarize(st),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	st, err := a.svc.AuthenticateStore(r.Context(), req.Username, req.Password)
	if err != nil {
		handleTrackError(w, r, err)
		return
	}

	token, expiresAt, err := a.issuer.Issue(st.ID, st.Name)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"store_id": st.ID,
		"username": st.Username,
	})

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Store:     summarize(st),
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	id, ok := a.identity(w, r)
	if !ok {
		return
	}
	st, err := a.svc.GetStore(r.Context(), id.StoreID)
	if err != nil {
		handleTrackError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(st))
}
