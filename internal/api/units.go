package api

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"bloodbank/m/domain"
	"bloodbank/m/internal/session"
)

// Intake

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	barcodes := form.list("barcodes")
	if len(barcodes) == 0 {
		http.Error(w, "barcodes are required", http.StatusBadRequest)
		return
	}
	dates := form.list("dates")
	components := form.list("components")
	volumes := form.list("volumes")

	entries := make([]domain.IntakeEntry, 0, len(barcodes))
	for i, barcode := range barcodes {
		entries = append(entries, domain.IntakeEntry{
			BarcodeID:     barcode,
			DateCollected: valueAt(dates, i),
			Component:     stringAt(components, i),
			Volume:        valueAt(volumes, i),
		})
	}

	results, err := h.units.Intake(r.Context(), entries)
	h.metrics.ObserveIntake(results)
	if err != nil {
		h.respondInternalHTML(w, r, "submit units", err)
		return
	}

	var notices []string
	for _, result := range results {
		if result.Outcome == domain.IntakeDuplicate {
			notices = append(notices, fmt.Sprintf("Record with barcode ID %s already exists in table %s. Skipping insert.",
				result.Entry.BarcodeID, result.Component))
		}
	}
	summary := domain.Summarize(results)
	staff, _ := session.FromContext(r.Context())
	h.log.Info("units submitted",
		zap.String("username", staff.Username),
		zap.Int("inserted", summary.Inserted),
		zap.Int("duplicates", summary.Duplicates),
		zap.Int("unknown_component", summary.Unknown),
		zap.Int("blank_barcode", summary.Blank),
	)
	h.renderHTML(w, http.StatusOK, intakePage, intakePageData{Notices: notices})
}

// Search and typing

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	barcode := strings.TrimSpace(form.first("barcode"))
	if barcode == "" {
		respondError(w, http.StatusBadRequest, "barcode is required")
		return
	}

	lookup, err := h.units.Lookup(r.Context(), barcode)
	if err != nil {
		h.respondInternal(w, r, "search barcode", err)
		return
	}
	if lookup.Empty() {
		respondError(w, http.StatusOK, "No records found for this barcode.")
		return
	}
	respondJSON(w, http.StatusOK, lookup)
}

type updateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handler) addBloodType(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	barcode := strings.TrimSpace(form.first("barcode"))
	if barcode == "" {
		respondJSON(w, http.StatusBadRequest, updateResponse{Success: false, Message: "barcode is required"})
		return
	}

	rows, err := h.units.SetBloodType(r.Context(), barcode, form.first("bloodtype"), form.first("rh"))
	h.metrics.ObserveUpdate("blood_type", rows, err)
	if err != nil {
		h.respondInternal(w, r, "update blood type", err)
		return
	}
	if rows == 0 {
		respondJSON(w, http.StatusOK, updateResponse{Success: false, Message: "No rows updated. Barcode not found."})
		return
	}
	respondJSON(w, http.StatusOK, updateResponse{Success: true, Message: "Blood type and Rh type updated successfully in all tables."})
}

func (h *Handler) submitScreening(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	barcode := strings.TrimSpace(form.first("barcode"))
	if barcode == "" {
		http.Error(w, "barcode is required", http.StatusBadRequest)
		return
	}
	panel := domain.Screening{
		HCV:      form.first("hcv"),
		Syphilis: form.first("syphilis"),
		HBsAg:    form.first("hbsag"),
		HIV:      form.first("hiv"),
		Malaria:  form.first("malaria"),
	}

	rows, err := h.units.SetScreening(r.Context(), barcode, panel)
	h.metrics.ObserveUpdate("screening", rows, err)
	if err != nil {
		h.respondInternalHTML(w, r, "update screening", err)
		return
	}
	if rows == 0 {
		h.log.Info("screening matched no units", zap.String("barcode", barcode))
	}
	http.Redirect(w, r, "/screening.html", http.StatusFound)
}
