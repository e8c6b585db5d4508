// mock-mailer is a development stand-in for the mail relay. It accepts the
// same JSON payload the API posts and logs each message instead of sending.
package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
)

type email struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

func main() {
	addr := flag.String("addr", ":8081", "listen address")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /", handleSend)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	slog.Info("mock mailer listening", "addr", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		slog.Error("mock mailer stopped", "error", err)
		os.Exit(1)
	}
}

func handleSend(w http.ResponseWriter, r *http.Request) {
	var e email
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	slog.Info("email accepted",
		"from", e.From,
		"to", e.To,
		"subject", e.Subject,
		"bytes", len(e.HTML),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "accepted"}); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
