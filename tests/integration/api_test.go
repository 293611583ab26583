//go:build integration
// +build integration

package integration

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Aevum11/ET-Physics-Toolbox/internal/config"
	"github.com/Aevum11/ET-Physics-Toolbox/internal/server"
)

const apiKey = "integration-test-key"

// TestIntakeWorkflow drives the whole intake surface over real HTTP:
// status probe, auth rejection, a CSV report, a zip report with a
// description, a corrupt zip, and the metrics exposition.
func TestIntakeWorkflow(t *testing.T) {
	srv, root := setupTestServer(t)
	defer srv.Close()

	client := &http.Client{Timeout: 30 * time.Second}

	t.Run("Status Probe", func(t *testing.T) {
		resp, err := client.Get(srv.URL + "/api/v1/status")
		if err != nil {
			t.Fatalf("Status request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("Expected status 200, got %d", resp.StatusCode)
		}

		var result map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			t.Fatalf("Failed to decode status response: %v", err)
		}
		if result["status"] != "online" {
			t.Errorf("Expected status 'online', got %q", result["status"])
		}
	})

	t.Run("Upload Without Token", func(t *testing.T) {
		body, contentType := multipartUpload(t, "report.csv", []byte("a,b\n"), "")

		req, _ := http.NewRequest("POST", srv.URL+"/api/v1/upload", body)
		req.Header.Set("Content-Type", contentType)

		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("Upload failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("Expected status 401, got %d", resp.StatusCode)
		}
	})

	t.Run("Upload CSV", func(t *testing.T) {
		content := []byte("detector,reading\nB,19.3\n")
		body, contentType := multipartUpload(t, "telemetry.csv", content, "")

		resp := authedPost(t, client, srv.URL, body, contentType)
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d", resp.StatusCode)
		}

		var result map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			t.Fatalf("Failed to decode upload response: %v", err)
		}
		if result["message"] != "Secure upload successful" {
			t.Errorf("Expected success message, got %q", result["message"])
		}

		assertStoredFile(t, root, "_telemetry.csv", content)
	})

	t.Run("Upload Zip With Description", func(t *testing.T) {
		body, contentType := multipartUpload(t, "results.zip", validZip(t), "overnight run")

		resp := authedPost(t, client, srv.URL, body, contentType)
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d", resp.StatusCode)
		}

		descs, err := filepath.Glob(filepath.Join(root, "*", "*_desc.txt"))
		if err != nil || len(descs) != 1 {
			t.Fatalf("Expected one description file, got %v (err %v)", descs, err)
		}
		content, err := os.ReadFile(descs[0])
		if err != nil {
			t.Fatalf("Failed to read description: %v", err)
		}
		if string(content) != "overnight run" {
			t.Errorf("Description mismatch: got %q", content)
		}
	})

	t.Run("Upload Corrupt Zip", func(t *testing.T) {
		data := validZip(t)
		data[31] ^= 0xFF // member payload byte, CRC no longer matches
		body, contentType := multipartUpload(t, "broken.zip", data, "")

		resp := authedPost(t, client, srv.URL, body, contentType)
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", resp.StatusCode)
		}

		var result map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			t.Fatalf("Failed to decode error response: %v", err)
		}
		if result["error"] != "Corrupted ZIP" {
			t.Errorf("Expected 'Corrupted ZIP', got %q", result["error"])
		}

		// The rejected archive is still on disk for inspection.
		assertStoredFile(t, root, "_broken.zip", nil)
	})

	t.Run("Metrics Exposition", func(t *testing.T) {
		resp, err := client.Get(srv.URL + "/metrics")
		if err != nil {
			t.Fatalf("Metrics request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("Expected status 200, got %d", resp.StatusCode)
		}

		buf := new(bytes.Buffer)
		if _, err := buf.ReadFrom(resp.Body); err != nil {
			t.Fatalf("Failed to read metrics body: %v", err)
		}
		if !bytes.Contains(buf.Bytes(), []byte("etnode_uploads_total")) {
			t.Error("Missing etnode_uploads_total in exposition")
		}
	})
}

// setupTestServer builds a real Server from environment-driven config
// over a temp storage root and serves it via httptest.
func setupTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	root := t.TempDir()
	t.Setenv("ET_API_KEY", apiKey)
	t.Setenv("ET_UPLOAD_DIR", root)
	t.Setenv("ET_ADDR", ":0")
	t.Setenv("ET_RATE_LIMIT", "0")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	s := server.New(cfg)
	return httptest.NewServer(s.Handler()), root
}

func multipartUpload(t *testing.T, filename string, content []byte, description string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Failed to write file content: %v", err)
	}
	if description != "" {
		if err := writer.WriteField("description", description); err != nil {
			t.Fatalf("Failed to write description: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	return body, writer.FormDataContentType()
}

func authedPost(t *testing.T, client *http.Client, baseURL string, body *bytes.Buffer, contentType string) *http.Response {
	t.Helper()

	req, err := http.NewRequest("POST", baseURL+"/api/v1/upload", body)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-ET-AUTH-TOKEN", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	return resp
}

// assertStoredFile finds the stored report matching suffix under the
// date-bucketed root and, when want is non-nil, checks its content.
func assertStoredFile(t *testing.T, root, suffix string, want []byte) {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(root, "*", "*"+suffix))
	if err != nil || len(matches) != 1 {
		t.Fatalf("Expected one stored file matching %q, got %v (err %v)", suffix, matches, err)
	}
	if want == nil {
		return
	}
	content, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("Failed to read stored file: %v", err)
	}
	if !bytes.Equal(content, want) {
		t.Errorf("Stored content mismatch at %s", matches[0])
	}
}

func validZip(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, err := w.CreateHeader(&zip.FileHeader{Name: "d", Method: zip.Store})
	if err != nil {
		t.Fatalf("Failed to create zip member: %v", err)
	}
	if _, err := fw.Write([]byte("payload")); err != nil {
		t.Fatalf("Failed to write zip member: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return buf.Bytes()
}
