//go:build integration

package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/liamcoop/loanassess/internal/config"
	"github.com/liamcoop/loanassess/lenders"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL testcontainer, runs migrations and seeds
// the embedded lender criteria.
func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	host, err := postgres.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgres.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	connStr := fmt.Sprintf("postgres://postgres:password@%s:%s/testdb?sslmode=disable", host, port.Port())

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	for i := 0; i < 30; i++ {
		if err := db.Ping(); err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	migrationSQL, err := os.ReadFile("../../migrations/000001_lender_criteria.up.sql")
	if err != nil {
		t.Fatalf("Failed to read migration file: %v", err)
	}
	if _, err := db.Exec(string(migrationSQL)); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	criteria, err := lenders.EmbeddedSource{}.Load(ctx)
	if err != nil {
		t.Fatalf("Failed to load embedded criteria: %v", err)
	}
	store := lenders.NewPostgresSource(db)
	for _, c := range criteria {
		if err := store.Upsert(ctx, c); err != nil {
			t.Fatalf("Failed to seed lender %s: %v", c.ID, err)
		}
	}

	cleanup := func() {
		db.Close()
		postgres.Terminate(ctx)
	}

	return db, cleanup
}

// TestEndToEnd_PostgresCriteria serves assessments from criteria stored in
// Postgres.
func TestEndToEnd_PostgresCriteria(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	cfg := testConfig()
	cfg.Lenders = config.LendersConfig{Source: config.SourcePostgres}
	cfg.Database.URL = "set"

	server, err := NewServer(context.Background(), cfg, db)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	ts := httptest.NewServer(server)
	defer ts.Close()
	baseURL := ts.URL + "/api/v1"

	t.Log("Step 1: Health check...")
	health := makeRequest(t, "GET", baseURL+"/health", nil)
	if health["database"] != "ok" {
		t.Errorf("Expected database ok, got %v", health["database"])
	}
	if health["lenders_loaded"] != 3.0 {
		t.Errorf("Expected 3 lenders loaded, got %v", health["lenders_loaded"])
	}

	t.Log("Step 2: First home buyer assessment...")
	app := strongApplication()
	app["first_home_buyer"] = true
	result := makeRequest(t, "POST", baseURL+"/eligibility", app)
	if result["decision"] != "approved" {
		t.Fatalf("Expected approved, got %v", result)
	}
	if rate := result["estimated_interest_rate"]; rate != 5.95 {
		t.Errorf("Expected stored policy to price Suncorp at 5.95, got %v", rate)
	}

	t.Log("Step 3: Lender listing reflects stored policies...")
	list := makeRequest(t, "GET", baseURL+"/lenders", nil)
	lenderList, ok := list["lenders"].([]any)
	if !ok || len(lenderList) != 3 {
		t.Fatalf("Expected 3 lenders, got %v", list)
	}
	latrobe := lenderList[1].(map[string]any)
	policies, _ := latrobe["policies"].([]any)
	if len(policies) != 1 || policies[0] != "credit_impaired_specialist" {
		t.Errorf("Expected LaTrobe policy from database, got %v", latrobe["policies"])
	}
}

// Helper function to make HTTP requests with JSON body
func makeRequest(t *testing.T, method, url string, body any) map[string]any {
	resp, err := makeHTTPRequest(method, url, body)
	if err != nil {
		t.Fatalf("Failed to make %s request to %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("Request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	return result
}

// Helper function to make raw HTTP requests
func makeHTTPRequest(method, url string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBytes)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 5 * time.Second}
	return client.Do(req)
}
