package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"trade-journal-go/internal/importer"
	"trade-journal-go/internal/journal"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/store"
)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log *zap.Logger
	svc *journal.Service
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, svc *journal.Service) *APIHandler {
	return &APIHandler{log: log, svc: svc}
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ImportHandler ingests raw broker-export text.
func (h *APIHandler) ImportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.svc.ImportFromText(body.Text)
	if err != nil {
		var schemaErr *importer.SchemaError
		if errors.As(err, &schemaErr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":           "invalid file format",
				"missing_columns": schemaErr.Missing,
				"found_columns":   schemaErr.Found,
			})
			return
		}
		h.log.Error("Import failed", zap.Error(err))
		http.Error(w, "Import failed", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// TradesHandler lists trades (GET) or saves a new one (POST).
func (h *APIHandler) TradesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		f, err := filterFromQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		trades, err := h.svc.GetTrades(f)
		if err != nil {
			h.log.Error("Failed to get trades", zap.Error(err))
			http.Error(w, "Failed to get trades", http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, http.StatusOK, trades)

	case http.MethodPost:
		var t models.Trade
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		saved, err := h.svc.SaveTrade(&t)
		if err != nil {
			h.log.Error("Failed to save trade", zap.Error(err))
			http.Error(w, "Failed to save trade", http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, http.StatusCreated, saved)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// TradeByIDHandler updates (PUT) or deletes (DELETE) one trade.
func (h *APIHandler) TradeByIDHandler(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/trades/")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		http.Error(w, "Invalid trade id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodPut:
		var patch map[string]any
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		t, err := h.svc.UpdateTrade(uint(id), patch)
		if err != nil {
			h.tradeError(w, err, "Failed to update trade")
			return
		}
		h.writeJSON(w, http.StatusOK, t)

	case http.MethodDelete:
		if err := h.svc.DeleteTrade(uint(id)); err != nil {
			h.tradeError(w, err, "Failed to delete trade")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *APIHandler) tradeError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Trade not found", http.StatusNotFound)
		return
	}
	h.log.Error(msg, zap.Error(err))
	http.Error(w, msg, http.StatusInternalServerError)
}

// ReconcileHandler triggers a manual reconciliation pass.
func (h *APIHandler) ReconcileHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	res, err := h.svc.RunReconciliation()
	if err != nil {
		h.log.Error("Reconciliation failed", zap.Error(err))
		http.Error(w, "Reconciliation failed", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// MetricsHandler returns performance metrics for an optional date range.
func (h *APIHandler) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	from, err := dateParam(r, "start")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := dateParam(r, "end")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, err := h.svc.PerformanceMetrics(from, to)
	if err != nil {
		h.log.Error("Failed to compute metrics", zap.Error(err))
		http.Error(w, "Failed to compute metrics", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, m)
}

// CalendarHandler returns per-day buckets for one month.
func (h *APIHandler) CalendarHandler(w http.ResponseWriter, r *http.Request) {
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		http.Error(w, "month must be 1-12", http.StatusBadRequest)
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		http.Error(w, "year is required", http.StatusBadRequest)
		return
	}

	buckets, err := h.svc.CalendarData(time.Month(month), year)
	if err != nil {
		h.log.Error("Failed to build calendar", zap.Error(err))
		http.Error(w, "Failed to build calendar", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, buckets)
}

// WashSalesHandler returns advisory wash-sale risks.
func (h *APIHandler) WashSalesHandler(w http.ResponseWriter, r *http.Request) {
	risks, err := h.svc.WashSaleRisks()
	if err != nil {
		h.log.Error("Failed to compute wash-sale risks", zap.Error(err))
		http.Error(w, "Failed to compute wash-sale risks", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, risks)
}

func filterFromQuery(r *http.Request) (store.Filter, error) {
	var f store.Filter
	q := r.URL.Query()
	f.Symbol = q.Get("symbol")
	f.Strategy = q.Get("strategy")
	f.AssetType = q.Get("asset_type")

	var err error
	if f.StartDate, err = dateParam(r, "start"); err != nil {
		return f, err
	}
	if f.EndDate, err = dateParam(r, "end"); err != nil {
		return f, err
	}
	if f.Date, err = dateParam(r, "date"); err != nil {
		return f, err
	}
	return f, nil
}

func dateParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return nil, errors.New(name + " must be YYYY-MM-DD")
	}
	return &d, nil
}
