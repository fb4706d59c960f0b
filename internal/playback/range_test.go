package playback

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		size      int64
		wantStart int64
		wantEnd   int64
		wantNil   bool
		wantErr   error
	}{
		{"empty header", "", 1000, 0, 0, true, nil},
		{"full range", "bytes=0-999", 1000, 0, 999, false, nil},
		{"open end", "bytes=500-", 1000, 500, 999, false, nil},
		{"suffix range", "bytes=-500", 1000, 500, 999, false, nil},
		{"single byte", "bytes=0-0", 1000, 0, 0, false, nil},
		{"middle range", "bytes=100-199", 1000, 100, 199, false, nil},
		{"end clamped to size", "bytes=0-2000", 1000, 0, 999, false, nil},
		{"suffix larger than file", "bytes=-2000", 500, 0, 499, false, nil},
		{"last byte", "bytes=999-", 1000, 999, 999, false, nil},
		{"multi range takes first", "bytes=0-99, 200-299", 1000, 0, 99, false, nil},

		{"start at size", "bytes=1000-", 1000, 0, 0, false, ErrUnsatisfiable},
		{"whole range past end", "bytes=1500-2000", 1000, 0, 0, false, ErrUnsatisfiable},
		{"no bytes prefix", "invalid", 1000, 0, 0, false, ErrInvalidRange},
		{"wrong unit", "chars=0-100", 1000, 0, 0, false, ErrInvalidRange},
		{"non-numeric start", "bytes=abc-100", 1000, 0, 0, false, ErrInvalidRange},
		{"non-numeric end", "bytes=0-abc", 1000, 0, 0, false, ErrInvalidRange},
		{"zero suffix", "bytes=-0", 1000, 0, 0, false, ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.header, tt.size)

			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("ParseRange() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Errorf("ParseRange() unexpected error: %v", err)
				return
			}
			if tt.wantNil {
				if got != nil {
					t.Errorf("ParseRange() = %v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("ParseRange() = nil, want non-nil")
			}
			if got.Start != tt.wantStart || got.End != tt.wantEnd {
				t.Errorf("ParseRange() = {%d, %d}, want {%d, %d}", got.Start, got.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestByteRange_Length(t *testing.T) {
	tests := []struct {
		start, end, want int64
	}{
		{0, 99, 100},
		{0, 0, 1},
		{500, 999, 500},
	}

	for _, tt := range tests {
		r := ByteRange{Start: tt.start, End: tt.end}
		if got := r.Length(); got != tt.want {
			t.Errorf("Length() = %d, want %d", got, tt.want)
		}
	}
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("0123456789"), 0644); err != nil {
		t.Fatalf("write test file: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(logger), path
}

func TestServeFile_Full(t *testing.T) {
	srv, path := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/playback", nil)
	rec := httptest.NewRecorder()

	if err := srv.ServeFile(rec, req, path); err != nil {
		t.Fatalf("ServeFile() error = %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "0123456789" {
		t.Errorf("body = %q", got)
	}
	if rec.Header().Get("Accept-Ranges") != "bytes" {
		t.Error("missing Accept-Ranges header")
	}
	if rec.Header().Get("Content-Type") != "video/mp4" {
		t.Errorf("Content-Type = %s, want video/mp4", rec.Header().Get("Content-Type"))
	}
}

func TestServeFile_Partial(t *testing.T) {
	srv, path := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/playback", nil)
	req.Header.Set("Range", "bytes=2-5")
	rec := httptest.NewRecorder()

	if err := srv.ServeFile(rec, req, path); err != nil {
		t.Fatalf("ServeFile() error = %v", err)
	}

	if rec.Code != http.StatusPartialContent {
		t.Errorf("status = %d, want 206", rec.Code)
	}
	if got := rec.Body.String(); got != "2345" {
		t.Errorf("body = %q, want 2345", got)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 2-5/10" {
		t.Errorf("Content-Range = %s", got)
	}
}

func TestServeFile_Unsatisfiable(t *testing.T) {
	srv, path := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/playback", nil)
	req.Header.Set("Range", "bytes=100-")
	rec := httptest.NewRecorder()

	if err := srv.ServeFile(rec, req, path); err != nil {
		t.Fatalf("ServeFile() error = %v", err)
	}

	if rec.Code != http.StatusRequestedRangeNotSatisfiable {
		t.Errorf("status = %d, want 416", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes */10" {
		t.Errorf("Content-Range = %s", got)
	}
}

func TestServeFile_InvalidRangeFallsBackToFull(t *testing.T) {
	srv, path := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/playback", nil)
	req.Header.Set("Range", "frames=0-10")
	rec := httptest.NewRecorder()

	if err := srv.ServeFile(rec, req, path); err != nil {
		t.Fatalf("ServeFile() error = %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "0123456789" {
		t.Errorf("body = %q", got)
	}
}

func TestServeFile_Missing(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/playback", nil)
	rec := httptest.NewRecorder()

	if err := srv.ServeFile(rec, req, "/nonexistent/clip.mp4"); err != nil {
		t.Fatalf("ServeFile() error = %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestServeFile_Head(t *testing.T) {
	srv, path := newTestServer(t)

	req := httptest.NewRequest(http.MethodHead, "/playback", nil)
	rec := httptest.NewRecorder()

	if err := srv.ServeFile(rec, req, path); err != nil {
		t.Fatalf("ServeFile() error = %v", err)
	}

	if rec.Body.Len() != 0 {
		t.Errorf("HEAD response has body of %d bytes", rec.Body.Len())
	}
	if got := rec.Header().Get("Content-Length"); got != "10" {
		t.Errorf("Content-Length = %s, want 10", got)
	}
}
