package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"pennywise.org/internal/auth"
	"pennywise.org/internal/finance"
	"pennywise.org/internal/httpapi"
	"pennywise.org/internal/obs"
)

// captureMailer hands the activation token straight back to the smoke run
// instead of dispatching mail.
type captureMailer struct {
	tokens chan string
}

func (m *captureMailer) SendActivation(_ context.Context, _, token string) error {
	m.tokens <- token
	return nil
}

func main() {
	log.SetFlags(0)
	obs.Init()

	signer, err := auth.NewHMACSigner("smoke-secret", "pennywise-smoke")
	if err != nil {
		log.Fatalf("signer: %v", err)
	}
	mailer := &captureMailer{tokens: make(chan string, 1)}
	svc := auth.NewService(auth.NewMemoryStore(), signer, mailer)
	api := httpapi.New(svc, finance.NewMemoryStore(), httpapi.ReadyProbe{}, "smoke")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: api.Handler()}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	base := "http://" + ln.Addr().String()
	jar, err := cookiejar.New(nil)
	if err != nil {
		log.Fatalf("cookie jar: %v", err)
	}
	client := &http.Client{Jar: jar, Timeout: 5 * time.Second}

	post := func(path string, body any, want int) map[string]any {
		payload, err := json.Marshal(body)
		if err != nil {
			log.Fatalf("marshal %s: %v", path, err)
		}
		resp, err := client.Post(base+path, "application/json", bytes.NewReader(payload))
		if err != nil {
			log.Fatalf("POST %s: %v", path, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != want {
			log.Fatalf("POST %s: status %d, want %d", path, resp.StatusCode, want)
		}
		var out map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&out)
		return out
	}

	post("/api/auth/register", map[string]any{
		"name": "Smoke", "email": "smoke@example.com", "password": "smoke-pass",
	}, http.StatusOK)

	var token string
	select {
	case token = <-mailer.tokens:
	case <-time.After(2 * time.Second):
		log.Fatal("activation token was not dispatched")
	}

	post("/api/auth/activate", map[string]any{"token": token}, http.StatusOK)
	post("/api/auth/login", map[string]any{
		"email": "smoke@example.com", "password": "smoke-pass",
	}, http.StatusOK)

	created := post("/api/budgets", map[string]any{
		"category": "Entertainment", "limit": 500,
	}, http.StatusCreated)
	budget, ok := created["budget"].(map[string]any)
	if !ok || budget["id"] == "" {
		log.Fatalf("unexpected budget payload: %v", created)
	}

	resp, err := client.Get(base + "/api/budgets")
	if err != nil {
		log.Fatalf("GET /api/budgets: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("GET /api/budgets: status %d", resp.StatusCode)
	}
	var budgets []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&budgets); err != nil {
		log.Fatalf("decode budgets: %v", err)
	}
	if len(budgets) != 1 || budgets[0]["category"] != "Entertainment" {
		log.Fatalf("unexpected budgets: %v", budgets)
	}

	fmt.Println("smoke test passed: register, activate, login, budget flow")
}
