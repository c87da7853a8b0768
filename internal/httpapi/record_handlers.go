package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storeops.dev/internal/audit"
	"storeops.dev/internal/track"
)

// Request bodies mirror the web form field names. None of them carries a
// store field: ownership always comes from the verified token.
type temperatureRequest struct {
	EquipmentType string   `json:"equipmentType"`
	MachineID     int      `json:"machineId"`
	Hopper        string   `json:"hopper,omitempty"`
	Temperature   *float64 `json:"temperature"`
}

type tipRequest struct {
	Amount *float64 `json:"amount"`
	Notes  string   `json:"notes,omitempty"`
}

type outOfStockRequest struct {
	ItemName string `json:"itemName"`
	Quantity int    `json:"quantity,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

func (a *API) handleTemperatures(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createTemperature(w, r)
	case http.MethodGet:
		a.listTemperatures(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) createTemperature(w http.ResponseWriter, r *http.Request) {
	id, ok := a.identity(w, r)
	if !ok {
		return
	}
	var req temperatureRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Temperature == nil {
		writeError(w, r, http.StatusBadRequest, "temperature is required")
		return
	}

	rec, err := a.svc.CreateTemperature(r.Context(), id.StoreID, track.TemperatureInput{
		EquipmentType: track.EquipmentType(req.EquipmentType),
		MachineID:     req.MachineID,
		Hopper:        track.Hopper(req.Hopper),
		Temperature:   *req.Temperature,
	})
	if err != nil {
		handleTrackError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "temperature.create", map[string]any{
		"record_id":  rec.ID,
		"machine_id": rec.MachineID,
	})
	writeJSON(w, http.StatusCreated, rec)
}

func (a *API) listTemperatures(w http.ResponseWriter, r *http.Request) {
	id, ok := a.identity(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	filter := track.TemperatureFilter{
		EquipmentType: track.EquipmentType(q.Get("equipmentType")),
		Hopper:        track.Hopper(q.Get("hopper")),
	}
	if raw := strings.TrimSpace(q.Get("machineId")); raw != "" {
		machineID, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "machineId must be an integer")
			return
		}
		filter.MachineID = machineID
	}
	rng, err := parseRange(q)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	filter.Range = rng

	recs, err := a.svc.ListTemperatures(r.Context(), id.StoreID, filter)
	if err != nil {
		handleTrackError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (a *API) handleTips(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createTip(w, r)
	case http.MethodGet:
		a.listTips(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) createTip(w http.ResponseWriter, r *http.Request) {
	id, ok := a.identity(w, r)
	if !ok {
		return
	}
	var req tipRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Amount == nil {
		writeError(w, r, http.StatusBadRequest, "amount is required")
		return
	}

	rec, err := a.svc.CreateTip(r.Context(), id.StoreID, track.TipInput{
		Amount: *req.Amount,
		Notes:  req.Notes,
	})
	if err != nil {
		handleTrackError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "tip.create", map[string]any{
		"record_id": rec.ID,
	})
	writeJSON(w, http.StatusCreated, rec)
}

func (a *API) listTips(w http.ResponseWriter, r *http.Request) {
	id, ok := a.identity(w, r)
	if !ok {
		return
	}
	rng, err := parseRange(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	recs, err := a.svc.ListTips(r.Context(), id.StoreID, rng)
	if err != nil {
		handleTrackError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (a *API) handleOutOfStockCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createOutOfStock(w, r)
	case http.MethodGet:
		a.listOutOfStock(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) createOutOfStock(w http.ResponseWriter, r *http.Request) {
	id, ok := a.identity(w, r)
	if !ok {
		return
	}
	var req outOfStockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := a.svc.CreateOutOfStock(r.Context(), id.StoreID, track.OutOfStockInput{
		ItemName: req.ItemName,
		Quantity: req.Quantity,
		Notes:    req.Notes,
	})
	if err != nil {
		handleTrackError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "stock.create", map[string]any{
		"record_id": rec.ID,
		"item_name": rec.ItemName,
	})
	writeJSON(w, http.StatusCreated, rec)
}

func (a *API) listOutOfStock(w http.ResponseWriter, r *http.Request) {
	id, ok := a.identity(w, r)
	if !ok {
		return
	}
	rng, err := parseRange(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	recs, err := a.svc.ListOutOfStock(r.Context(), id.StoreID, rng)
	if err != nil {
		handleTrackError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// handleOutOfStockResource dispatches /api/out-of-stock/{id} and
// /api/out-of-stock/{id}/restock.
func (a *API) handleOutOfStockResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/out-of-stock/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}

	if itemID, found := strings.CutSuffix(path, "/restock"); found {
		if itemID == "" || strings.Contains(itemID, "/") {
			writeError(w, r, http.StatusNotFound, "not found")
			return
		}
		if r.Method != http.MethodPut {
			methodNotAllowed(w, r, http.MethodPut)
			return
		}
		a.restockItem(w, r, itemID)
		return
	}

	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	a.deleteOutOfStock(w, r, path)
}

func (a *API) restockItem(w http.ResponseWriter, r *http.Request, itemID string) {
	id, ok := a.identity(w, r)
	if !ok {
		return
	}
	rec, err := a.svc.RestockItem(r.Context(), id.StoreID, itemID)
	if err != nil {
		handleTrackError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "stock.restock", map[string]any{
		"record_id": rec.ID,
	})
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) deleteOutOfStock(w http.ResponseWriter, r *http.Request, itemID string) {
	id, ok := a.identity(w, r)
	if !ok {
		return
	}
	if err := a.svc.DeleteOutOfStock(r.Context(), id.StoreID, itemID); err != nil {
		handleTrackError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "stock.delete", map[string]any{
		"record_id": itemID,
	})
	w.WriteHeader(http.StatusNoContent)
}

// parseRange reads inclusive startDate/endDate query parameters. Values are
// accepted as RFC 3339 timestamps or calendar dates; a date-only end bound
// extends to the end of that day so the range stays inclusive.
func parseRange(q url.Values) (track.RangeFilter, error) {
	var rng track.RangeFilter
	from, err := parseDateParam(q.Get("startDate"), false)
	if err != nil {
		return track.RangeFilter{}, err
	}
	to, err := parseDateParam(q.Get("endDate"), true)
	if err != nil {
		return track.RangeFilter{}, err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return track.RangeFilter{}, fmt.Errorf("endDate precedes startDate")
	}
	rng.From = from
	rng.To = to
	return rng, nil
}

func parseDateParam(raw string, endOfDay bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use RFC 3339 or YYYY-MM-DD", raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
