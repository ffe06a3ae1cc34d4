package webapp

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/helixworks/go-agents/pkg/coach"
)

const testVCF = `##fileformat=VCFv4.2
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	SAMPLE1
1	11856378	rs1801133	G	A	50	PASS	ANN=A|missense_variant|MODERATE|MTHFR|ENSG00000177000|transcript|ENST00000376592|protein_coding|5/12|c.665C>T|p.Ala222Val|||||||||	GT	0/1
`

func multipartBody(t *testing.T, fileContent string, subjects []string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if fileContent != "" {
		part, err := writer.CreateFormFile("file", "sample.vcf")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write([]byte(fileContent)); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	for _, subject := range subjects {
		if err := writer.WriteField("subjects", subject); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestIndexServesForm(t *testing.T) {
	s := NewServer(Config{})
	resp, err := s.App().Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `action="/analyze"`) {
		t.Error("expected upload form in index page")
	}
}

func TestHealthz(t *testing.T) {
	s := NewServer(Config{})
	resp, err := s.App().Test(httptest.NewRequest("GET", "/healthz", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok" {
		t.Errorf("expected ok, got %q", body)
	}
}

func TestAnalyzeJSON(t *testing.T) {
	s := NewServer(Config{})
	body, contentType := multipartBody(t, testVCF, []string{"nutrition"})

	req := httptest.NewRequest("POST", "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}

	var payload AnalyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Subjects) != 1 || payload.Subjects[0].Subject != "nutrition" {
		t.Fatalf("expected nutrition report, got %+v", payload.Subjects)
	}
	if len(payload.Subjects[0].Entries) != 1 || payload.Subjects[0].Entries[0].Gene != "MTHFR" {
		t.Errorf("expected MTHFR entry, got %+v", payload.Subjects[0].Entries)
	}
	if payload.GeneSummary == nil || payload.GeneSummary.TotalVariants != 1 {
		t.Error("expected gene summary in response")
	}
}

func TestAnalyzeHTML(t *testing.T) {
	s := NewServer(Config{})
	body, contentType := multipartBody(t, testVCF, nil)

	req := httptest.NewRequest("POST", "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	html, _ := io.ReadAll(resp.Body)
	page := string(html)
	if !strings.Contains(page, "<h2>Results</h2>") {
		t.Error("expected results heading")
	}
	if !strings.Contains(page, "MTHFR") {
		t.Error("expected MTHFR in rendered page")
	}
	// All three subjects are reported when none are selected.
	for _, label := range []string{"Sport", "Nutrition", "Therapies"} {
		if !strings.Contains(page, "Subject: "+label) {
			t.Errorf("expected %s section", label)
		}
	}
}

func TestAnalyzeMissingFile(t *testing.T) {
	s := NewServer(Config{})
	body, contentType := multipartBody(t, "", []string{"sport"})

	req := httptest.NewRequest("POST", "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestRenderSubjectHTMLEscapes(t *testing.T) {
	report := &coach.SubjectReport{
		Subject: "sport",
		Entries: []coach.Entry{
			{
				Gene:            "ACTN3",
				Mutations:       []string{"<script>alert(1)</script>"},
				Argument:        "argument & more",
				Recommendations: []string{"rest > work"},
			},
		},
	}

	fragment := renderSubjectHTML(report)
	if strings.Contains(fragment, "<script>") {
		t.Error("expected mutation text to be escaped")
	}
	if !strings.Contains(fragment, "argument &amp; more") {
		t.Error("expected argument to be escaped")
	}
	if !strings.Contains(fragment, "rest &gt; work") {
		t.Error("expected recommendation to be escaped")
	}
}

func TestRenderGeneSummaryEmpty(t *testing.T) {
	fragment := renderGeneSummary(nil)
	if !strings.Contains(fragment, "No variants were detected") {
		t.Errorf("expected empty summary message, got %q", fragment)
	}
}
