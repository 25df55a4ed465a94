package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"time"

	"github.com/clearpath-health/clearpath/internal/corpus"
	"github.com/clearpath-health/clearpath/internal/models"
	"github.com/clearpath-health/clearpath/internal/reasoning"
	"github.com/clearpath-health/clearpath/internal/utils"
)

type stageRequest struct {
	Stage models.Stage    `json:"stage"`
	Input json.RawMessage `json:"input"`
}

func main() {
	var (
		addr    string
		apiKey  string
		latency time.Duration
		rules   string
	)
	flag.StringVar(&addr, "addr", ":8090", "Listen address")
	flag.StringVar(&apiKey, "api-key", "", "Bearer key to require (empty disables the check)")
	flag.DurationVar(&latency, "latency", 0, "Artificial delay added to every stage call")
	flag.StringVar(&rules, "rules", "configs/rules/gaps.yaml", "Gap rule pack")
	flag.Parse()

	logger := utils.NewLogger("info", false)
	ruleSet, err := reasoning.LoadRules(rules, logger)
	if err != nil {
		logger.Error("load rules", slog.Any("error", err))
		return
	}
	heuristic := reasoning.NewHeuristic(corpus.Default(), ruleSet, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /v1/stages/{stage}", func(w http.ResponseWriter, r *http.Request) {
		if apiKey != "" && r.Header.Get("Authorization") != "Bearer "+apiKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req stageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		stage := models.Stage(r.PathValue("stage"))
		switch stage {
		case models.StageExtractDiagnosis, models.StageDraftLetter, models.StagePredictApproval:
		default:
			http.Error(w, "unknown stage", http.StatusNotFound)
			return
		}
		if req.Stage != "" && req.Stage != stage {
			http.Error(w, "stage mismatch", http.StatusBadRequest)
			return
		}
		if latency > 0 {
			select {
			case <-time.After(latency):
			case <-r.Context().Done():
				return
			}
		}

		out, err := heuristic.Invoke(r.Context(), stage, req.Input)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Info("stage served",
			slog.String("stage", string(stage)),
			slog.String("deployment", r.Header.Get("X-Deployment")),
		)
		writeJSON(w, map[string]json.RawMessage{"output": out})
	})

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15*time.Second + latency,
	}
	logger.Info("mock reasoner listening", slog.String("address", addr))
	if err := server.ListenAndServe(); err != nil {
		logger.Error("mock reasoner exited", slog.Any("error", err))
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode response", slog.Any("error", err))
	}
}
