package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/geocoder89/contacts/internal/jobs"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func (a *testApp) upload(t *testing.T, token, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("avatar", filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPatch, "/users/avatars", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestAvatarUploadAndResize(t *testing.T) {
	app := setupMemoryApp(t)
	token := app.registerAndLogin(t, uniq("avatar")+"@example.com", "secret1")

	w := app.upload(t, token, "me.png", pngBytes(t, 120, 80))
	app.expect(t, w, http.StatusOK)

	var resp struct {
		AvatarURL string `json:"avatarURL"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(resp.AvatarURL, "/avatars/") || !strings.HasSuffix(resp.AvatarURL, "_me.png") {
		t.Fatalf("unexpected avatar url %q", resp.AvatarURL)
	}

	app.expect(t, app.do(t, http.MethodGet, resp.AvatarURL, "", nil), http.StatusOK)

	var resize *jobs.Job
	for _, j := range app.queue.Pending() {
		if j.Type == jobs.JobResizeAvatar {
			j := j
			resize = &j
		}
	}
	if resize == nil {
		t.Fatalf("no resize job queued")
	}

	h := jobs.ResizeAvatarHandler(50, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := h(context.Background(), *resize); err != nil {
		t.Fatalf("resize: %v", err)
	}

	decoded, _ := jobs.DecodePayload(*resize)
	f, err := os.Open(decoded.(jobs.ResizeAvatarPayload).Path)
	if err != nil {
		t.Fatalf("open resized: %v", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode resized: %v", err)
	}
	if cfg.Width != 50 || cfg.Height != 50 {
		t.Fatalf("resized to %dx%d, want 50x50", cfg.Width, cfg.Height)
	}
}

func TestAvatarUploadRejections(t *testing.T) {
	app := setupMemoryApp(t)
	token := app.registerAndLogin(t, uniq("avatar")+"@example.com", "secret1")

	app.expect(t, app.upload(t, token, "notes.txt", []byte("hello")), http.StatusBadRequest)

	// JSON is not an upload
	app.expect(t, app.do(t, http.MethodPatch, "/users/avatars", token, map[string]string{"avatar": "x"}), http.StatusUnsupportedMediaType)

	app.expect(t, app.upload(t, "", "me.png", pngBytes(t, 10, 10)), http.StatusUnauthorized)
}
