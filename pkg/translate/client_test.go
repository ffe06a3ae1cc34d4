package translate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestNewClientRequiresTarget(t *testing.T) {
	_, err := NewClient(Config{})
	if !errors.Is(err, ErrMissingTarget) {
		t.Errorf("expected ErrMissingTarget, got %v", err)
	}
}

func TestTranslateLine(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("tl"); got != "es" {
			t.Errorf("expected tl=es, got %q", got)
		}
		w.Write([]byte(`[[["hola mundo","hello world",null,null,10]],null,"en"]`))
	}))
	defer server.Close()

	client, err := NewClient(Config{
		TargetLanguage: "es",
		ServiceURLs:    []string{server.URL},
		HTTPClient:     server.Client(),
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := client.TranslateLine(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("TranslateLine() error: %v", err)
	}
	if got != "hola mundo" {
		t.Errorf("TranslateLine() = %q, want %q", got, "hola mundo")
	}
}

func TestTranslateLineMultipleSentences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[["primera frase. ","first sentence.",null,null,10],["segunda frase.","second sentence.",null,null,10]],null,"en"]`))
	}))
	defer server.Close()

	client, _ := NewClient(Config{
		TargetLanguage: "es",
		ServiceURLs:    []string{server.URL},
		HTTPClient:     server.Client(),
	})

	got, err := client.TranslateLine(context.Background(), "first sentence. second sentence.")
	if err != nil {
		t.Fatalf("TranslateLine() error: %v", err)
	}
	if got != "primera frase. segunda frase." {
		t.Errorf("TranslateLine() = %q", got)
	}
}

func TestTranslateLineEmptyInput(t *testing.T) {
	client, _ := NewClient(Config{TargetLanguage: "es", ServiceURLs: []string{"http://unused"}})

	got, err := client.TranslateLine(context.Background(), "   ")
	if err != nil {
		t.Fatalf("TranslateLine() error: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty translation for blank input, got %q", got)
	}
}

func TestTranslateLines(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`[[["linea","line",null,null,10]],null,"en"]`))
	}))
	defer server.Close()

	client, _ := NewClient(Config{
		TargetLanguage: "es",
		ServiceURLs:    []string{server.URL},
		HTTPClient:     server.Client(),
	})

	got, err := client.TranslateLines(context.Background(), []string{"one", "two", "three"})
	if err != nil {
		t.Fatalf("TranslateLines() error: %v", err)
	}
	want := []string{"linea", "linea", "linea"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TranslateLines() = %v, want %v", got, want)
	}
	if calls != 3 {
		t.Errorf("expected 3 requests, got %d", calls)
	}
}

func TestTranslateLineFallbackURL(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[["ok","ok",null,null,10]],null,"en"]`))
	}))
	defer good.Close()

	client, _ := NewClient(Config{
		TargetLanguage: "es",
		ServiceURLs:    []string{bad.URL, good.URL},
		HTTPClient:     good.Client(),
	})

	got, err := client.TranslateLine(context.Background(), "ok")
	if err != nil {
		t.Fatalf("TranslateLine() error: %v", err)
	}
	if got != "ok" {
		t.Errorf("TranslateLine() = %q, want %q", got, "ok")
	}
}

func TestParseResponseMalformed(t *testing.T) {
	tests := []string{
		`{}`,
		`[]`,
		`[[]]`,
	}
	for _, input := range tests {
		if _, err := parseResponse([]byte(input)); err == nil {
			t.Errorf("parseResponse(%q) expected error", input)
		}
	}
}
