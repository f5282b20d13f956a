package scryfall_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"grimoire/internal/scryfall"
	"grimoire/internal/services"
)

func TestBulkDataDecodesManifest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bulk-data" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"type":"default_cards","download_uri":"https://dump.example/d.json","size":42}]}`))
	}))
	defer server.Close()

	client, err := scryfall.New(server.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	entries, err := client.BulkData(context.Background())
	if err != nil {
		t.Fatalf("BulkData failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Type != "default_cards" || entries[0].Size != 42 {
		t.Fatalf("unexpected manifest: %#v", entries)
	}
}

func TestBulkDataNon200IsExternalServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := scryfall.New(server.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := client.BulkData(context.Background()); !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

func TestGetCardNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, err := scryfall.New(server.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	_, _, err = client.GetCard(context.Background(), "0a1b2c3d-0000-4000-8000-000000000001")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if errors.Is(err, services.ErrExternalService) {
		t.Fatalf("404 must not classify as external service failure: %v", err)
	}
}

func TestGetCardServerErrorClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := scryfall.New(server.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	_, _, err = client.GetCard(context.Background(), "0a1b2c3d-0000-4000-8000-000000000001")
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

func TestGetCardReturnsTypedFieldsAndRawPayload(t *testing.T) {
	payload := `{"id":"0a1b2c3d-0000-4000-8000-000000000001","name":"Test Card","set":"tst","cmc":3,"extra_field":"preserved"}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/cards/") {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	defer server.Close()

	client, err := scryfall.New(server.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	card, raw, err := client.GetCard(context.Background(), "0a1b2c3d-0000-4000-8000-000000000001")
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}
	if card.Name != "Test Card" || card.SetCode != "tst" || card.ConvertedCost != 3 {
		t.Fatalf("unexpected card: %#v", card)
	}
	// The raw payload must survive verbatim, unknown fields included.
	if string(raw) != payload {
		t.Fatalf("raw payload altered: %s", raw)
	}
}

func TestDownloadStreamsWithProgress(t *testing.T) {
	body := bytes.Repeat([]byte("x"), 3000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer server.Close()

	client, err := scryfall.New(server.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var dst bytes.Buffer
	var lastProgress int64
	written, err := client.Download(context.Background(), server.URL+"/dump.json", &dst, func(w int64) {
		lastProgress = w
	})
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if written != int64(len(body)) || dst.Len() != len(body) {
		t.Fatalf("expected %d bytes, wrote %d buffered %d", len(body), written, dst.Len())
	}
	if lastProgress != int64(len(body)) {
		t.Fatalf("expected final progress %d, got %d", len(body), lastProgress)
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := scryfall.New("   "); err == nil {
		t.Fatal("expected error for empty base url")
	}
}
