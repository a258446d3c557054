package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"stockForecast/internal/domain"
	"stockForecast/internal/ports"
)

const (
	// maxUploadBytes caps the CSV upload size.
	maxUploadBytes = 32 << 20

	// defaultSymbol labels uploads that carry no symbol field.
	defaultSymbol = "BNP"
)

type dateRange struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type uploadResponse struct {
	Message    string    `json:"message"`
	DataID     string    `json:"data_id"`
	Symbol     string    `json:"symbol"`
	DataPoints int       `json:"data_points"`
	DateRange  dateRange `json:"date_range"`
}

type predictRequest struct {
	DataID       string `json:"data_id"`
	ForecastDays int    `json:"forecast_days"`
}

type predictResponse struct {
	ID           string           `json:"id"`
	DataID       string           `json:"data_id"`
	ForecastDays int              `json:"forecast_days"`
	CreatedAt    string           `json:"created_timestamp"`
	RMSE         *float64         `json:"rmse"`
	MAPE         *float64         `json:"mape"`
	ChartData    domain.ChartData `json:"chart_data"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, fmt.Errorf("%w: expected multipart form with a file field: %v", ports.ErrValidation, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, fmt.Errorf("%w: missing file field", ports.ErrValidation))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, fmt.Errorf("%w: failed to read uploaded file: %v", ports.ErrValidation, err))
		return
	}

	symbol := r.FormValue("symbol")
	if symbol == "" {
		symbol = defaultSymbol
	}

	ds, err := s.service.UploadDataset(r.Context(), content, header.Filename, symbol)
	if err != nil {
		writeError(w, err)
		return
	}
	s.metrics.UploadsTotal.Inc()

	writeJSON(w, http.StatusOK, uploadResponse{
		Message:    "File uploaded successfully",
		DataID:     ds.ID,
		Symbol:     ds.Symbol,
		DataPoints: ds.DataPoints(),
		DateRange: dateRange{
			StartDate: ds.StartDate().Format(domain.DateLayout),
			EndDate:   ds.EndDate().Format(domain.DateLayout),
		},
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed JSON body: %v", ports.ErrValidation, err))
		return
	}
	if req.DataID == "" {
		writeError(w, fmt.Errorf("%w: data_id is required", ports.ErrValidation))
		return
	}

	fr, err := s.service.Predict(r.Context(), req.DataID, req.ForecastDays)
	if err != nil {
		writeError(w, err)
		return
	}
	s.metrics.ForecastsTotal.Inc()

	writeJSON(w, http.StatusOK, toPredictResponse(fr))
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	fr, csvBytes, err := s.service.ExportForecast(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=forecast_%s.csv", fr.ID))
	w.WriteHeader(http.StatusOK)
	w.Write(csvBytes)
}

func (s *Server) handleListPredictions(w http.ResponseWriter, r *http.Request) {
	results, err := s.service.ListForecasts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]predictResponse, 0, len(results))
	for _, fr := range results {
		out = append(out, toPredictResponse(fr))
	}
	writeJSON(w, http.StatusOK, out)
}

func toPredictResponse(fr *domain.ForecastResult) predictResponse {
	return predictResponse{
		ID:           fr.ID,
		DataID:       fr.DatasetID,
		ForecastDays: fr.ForecastDays,
		CreatedAt:    fr.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		RMSE:         fr.RMSE,
		MAPE:         fr.MAPE,
		ChartData:    fr.Chart,
	}
}

// errorResponse mirrors the {detail: reason} failure body of the API.
type errorResponse struct {
	Detail string `json:"detail"`
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ports.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, ports.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ports.ErrModelFit):
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, errorResponse{Detail: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
