package serve

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

var archiveLabels = []string{"Download .tar.gz", "Download .tar", "Download .zip"}

// testTree builds the served fixture:
//
//	a.txt                "alpha\n"
//	broken -> missing-target
//	onlyBroken/dangling -> missing-target
//	someDir/b.txt        "bravo\n"
//	someDir/nested/c.txt "charlie\n"
func testTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	for _, dir := range []string{"someDir/nested", "onlyBroken"} {
		if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(dir)), 0755); err != nil {
			t.Fatalf("failed to create fixture directory %s: %v", dir, err)
		}
	}
	files := map[string]string{
		"a.txt":                "alpha\n",
		"someDir/b.txt":        "bravo\n",
		"someDir/nested/c.txt": "charlie\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(root, filepath.FromSlash(name)), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write fixture file %s: %v", name, err)
		}
	}
	for _, name := range []string{"broken", "onlyBroken/dangling"} {
		if err := os.Symlink("missing-target", filepath.Join(root, filepath.FromSlash(name))); err != nil {
			t.Fatalf("failed to create symlink %s: %v", name, err)
		}
	}

	return root
}

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	if cfg.Root == "" {
		cfg.Root = testTree(t)
	}
	srv, err := NewServer(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("failed to build server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func fetch(t *testing.T, url string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body of %s: %v", url, err)
	}
	return resp.StatusCode, body
}

// pageTexts parses an HTML document and returns every text node.
func pageTexts(t *testing.T, page []byte) []string {
	t.Helper()
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		t.Fatalf("parsing listing page: %v", err)
	}
	var texts []string
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			texts = append(texts, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)
	return texts
}

func containsText(texts []string, want string) bool {
	for _, text := range texts {
		if text == want {
			return true
		}
	}
	return false
}

func assertLinkPresence(t *testing.T, page []byte, present, absent []string) {
	t.Helper()
	texts := pageTexts(t, page)
	for _, label := range present {
		if !containsText(texts, label) {
			t.Errorf("expected link text %q to be present", label)
		}
	}
	for _, label := range absent {
		if containsText(texts, label) {
			t.Errorf("expected link text %q to be absent", label)
		}
	}
}

func TestListing_ArchivesDisabledByDefault(t *testing.T) {
	ts := newTestServer(t, Config{})

	status, page := fetch(t, ts.URL+"/")
	if status != http.StatusOK {
		t.Fatalf("listing status = %d, want 200", status)
	}
	assertLinkPresence(t, page, nil, archiveLabels)
}

func TestDownload_ForbiddenByDefault(t *testing.T) {
	ts := newTestServer(t, Config{})

	for _, format := range []string{"tar_gz", "tar", "zip"} {
		status, body := fetch(t, ts.URL+"/?download="+format)
		if status != http.StatusForbidden {
			t.Errorf("download=%s status = %d, want 403", format, status)
		}
		if len(body) != 0 {
			t.Errorf("download=%s forbidden body should be empty, got %d bytes", format, len(body))
		}
	}
}

func TestIndexingDisabled_HidesEverything(t *testing.T) {
	ts := newTestServer(t, Config{
		EnableTarGz:     true,
		EnableTar:       true,
		EnableZip:       true,
		DisableIndexing: true,
	})

	if status, _ := fetch(t, ts.URL+"/"); status != http.StatusNotFound {
		t.Errorf("listing status = %d, want 404", status)
	}
	for _, format := range []string{"tar_gz", "tar", "zip"} {
		if status, _ := fetch(t, ts.URL+"/?download="+format); status != http.StatusNotFound {
			t.Errorf("download=%s status = %d, want 404", format, status)
		}
	}

	// Plain files are unaffected by the indexing flag.
	status, body := fetch(t, ts.URL+"/a.txt")
	if status != http.StatusOK || string(body) != "alpha\n" {
		t.Errorf("file serving broke with indexing disabled: status=%d body=%q", status, body)
	}
}

func TestSingleFormatEnabled(t *testing.T) {
	cases := []struct {
		name   string
		cfg    Config
		format string
		label  string
	}{
		{"tar_gz", Config{EnableTarGz: true}, "tar_gz", "Download .tar.gz"},
		{"tar", Config{EnableTar: true}, "tar", "Download .tar"},
		{"zip", Config{EnableZip: true}, "zip", "Download .zip"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t, tc.cfg)

			var absent []string
			for _, label := range archiveLabels {
				if label != tc.label {
					absent = append(absent, label)
				}
			}
			status, page := fetch(t, ts.URL+"/someDir/")
			if status != http.StatusOK {
				t.Fatalf("listing status = %d, want 200", status)
			}
			assertLinkPresence(t, page, []string{tc.label}, absent)

			for _, format := range []string{"tar_gz", "tar", "zip"} {
				want := http.StatusForbidden
				if format == tc.format {
					want = http.StatusOK
				}
				if status, _ := fetch(t, ts.URL+"/someDir/?download="+format); status != want {
					t.Errorf("download=%s status = %d, want %d", format, status, want)
				}
			}
		})
	}
}

func TestDownload_BrokenSymlinkBehavior(t *testing.T) {
	root := testTree(t)
	cfg := Config{Root: root, EnableTarGz: true, EnableTar: true, EnableZip: true}
	ts := newTestServer(t, cfg)

	t.Run("tar skips the link", func(t *testing.T) {
		status, body := fetch(t, ts.URL+"/?download=tar")
		if status != http.StatusOK {
			t.Fatalf("status = %d, want 200", status)
		}
		if len(body) < 4*512 {
			t.Errorf("tar output too short: %d bytes", len(body))
		}
		tr := tar.NewReader(bytes.NewReader(body))
		for {
			hdr, err := tr.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("reading tar body: %v", err)
			}
			if strings.HasSuffix(hdr.Name, "/broken") {
				t.Errorf("broken symlink leaked into the tar stream as %q", hdr.Name)
			}
		}
	})

	t.Run("tar.gz of only a broken link is the bare header", func(t *testing.T) {
		status, body := fetch(t, ts.URL+"/onlyBroken/?download=tar_gz")
		if status != http.StatusOK {
			t.Fatalf("status = %d, want 200", status)
		}
		if len(body) != 10 {
			t.Errorf("expected the 10-byte gzip member header, got %d bytes", len(body))
		}
	})

	t.Run("zip aborts to an empty body", func(t *testing.T) {
		status, body := fetch(t, ts.URL+"/?download=zip")
		if status != http.StatusOK {
			t.Fatalf("status = %d, want 200", status)
		}
		if len(body) != 0 {
			t.Errorf("expected an empty zip body, got %d bytes", len(body))
		}
	})
}

func TestDownload_ZipEntryNamesUnixStyle(t *testing.T) {
	ts := newTestServer(t, Config{EnableZip: true})

	status, body := fetch(t, ts.URL+"/someDir/?download=zip")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		t.Fatalf("body is not a valid zip archive: %v", err)
	}
	if len(zr.File) == 0 {
		t.Fatal("expected a non-empty archive")
	}
	for _, f := range zr.File {
		if strings.Contains(f.Name, `\`) {
			t.Errorf("zip entry %q contains a backslash", f.Name)
		}
	}
}

func TestDownload_Idempotent(t *testing.T) {
	ts := newTestServer(t, Config{EnableTar: true})

	read := func() map[string]string {
		status, body := fetch(t, ts.URL+"/someDir/?download=tar")
		if status != http.StatusOK {
			t.Fatalf("status = %d, want 200", status)
		}
		entries := make(map[string]string)
		tr := tar.NewReader(bytes.NewReader(body))
		for {
			hdr, err := tr.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("reading tar body: %v", err)
			}
			content, err := io.ReadAll(tr)
			if err != nil {
				t.Fatalf("reading tar entry %s: %v", hdr.Name, err)
			}
			entries[hdr.Name] = string(content)
		}
		return entries
	}

	first := read()
	second := read()
	if len(first) != len(second) {
		t.Fatalf("entry sets differ: %d vs %d entries", len(first), len(second))
	}
	for name, content := range first {
		got, ok := second[name]
		if !ok {
			t.Errorf("entry %s missing from second download", name)
			continue
		}
		if got != content {
			t.Errorf("entry %s content differs between downloads", name)
		}
	}
}

func TestDownload_ContentHeaders(t *testing.T) {
	ts := newTestServer(t, Config{EnableTarGz: true})

	resp, err := http.Get(ts.URL + "/someDir/?download=tar_gz")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if got := resp.Header.Get("Content-Type"); got != "application/gzip" {
		t.Errorf("Content-Type = %q, want application/gzip", got)
	}
	if got := resp.Header.Get("Content-Disposition"); !strings.Contains(got, `someDir.tar.gz`) {
		t.Errorf("Content-Disposition = %q, want a someDir.tar.gz filename", got)
	}
}

func TestDownload_UnknownFormat(t *testing.T) {
	ts := newTestServer(t, Config{EnableTar: true})

	if status, _ := fetch(t, ts.URL+"/?download=rar"); status != http.StatusBadRequest {
		t.Errorf("unknown format status = %d, want 400", status)
	}
}

func TestServeFile_Good(t *testing.T) {
	ts := newTestServer(t, Config{})

	status, body := fetch(t, ts.URL+"/someDir/b.txt")
	if status != http.StatusOK || string(body) != "bravo\n" {
		t.Errorf("file fetch: status=%d body=%q", status, body)
	}

	if status, _ := fetch(t, ts.URL+"/missing.txt"); status != http.StatusNotFound {
		t.Errorf("missing file status = %d, want 404", status)
	}
}

func TestDirectoryRedirect(t *testing.T) {
	ts := newTestServer(t, Config{})

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Get(ts.URL + "/someDir")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusMovedPermanently {
		t.Fatalf("status = %d, want 301", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != "/someDir/" {
		t.Errorf("Location = %q, want /someDir/", got)
	}
}

func TestTraversal_Rejected(t *testing.T) {
	root := testTree(t)
	srv, err := NewServer(Config{Root: root}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("failed to build server: %v", err)
	}

	// Hand-built request: clients normalize "..", the handler must not rely
	// on that.
	for _, p := range []string{"/../", "/../../etc/passwd", "/someDir/../../x"} {
		rec := httptest.NewRecorder()
		req := &http.Request{Method: http.MethodGet, URL: &url.URL{Path: p}}
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("path %q: status = %d, want 400", p, rec.Code)
		}
	}
}
