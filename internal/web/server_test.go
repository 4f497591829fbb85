package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/temirov/ctxrepo/internal/scanner"
	"github.com/temirov/ctxrepo/internal/session"
	"github.com/temirov/ctxrepo/internal/tokenizer"
	"github.com/temirov/ctxrepo/internal/types"
	"github.com/temirov/ctxrepo/internal/web"
)

const formContentType = "application/x-www-form-urlencoded"

type fixture struct {
	manager *session.Manager
	handler http.Handler
	root    string
}

func newFixture(testingHandle *testing.T, openRepository bool) fixture {
	testingHandle.Helper()
	manager := session.NewManager(session.Config{
		RepositoriesDirectory: filepath.Join(testingHandle.TempDir(), "cloned_repos"),
		ScanOptions:           scanner.Options{TokenCounter: tokenizer.WordCounter{}},
	}, nil)
	server := web.NewServer(web.Config{}, manager, nil)
	result := fixture{manager: manager, handler: server.Handler()}
	if !openRepository {
		return result
	}

	rootDirectory := testingHandle.TempDir()
	files := map[string][]byte{
		"file1.py":    []byte("print('one')"),
		"notes.txt":   []byte("plain notes"),
		"LICENSE":     []byte("MIT License"),
		"binary_file": {0x00, 0x01, 0x02},
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(rootDirectory, name), content, 0o644); err != nil {
			testingHandle.Fatalf("write %s: %v", name, err)
		}
	}
	snapshot, err := manager.Open(context.Background(), rootDirectory)
	if err != nil {
		testingHandle.Fatalf("Open error: %v", err)
	}
	result.root = snapshot.Scan.Root
	return result
}

func (testFixture fixture) post(testingHandle *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	testingHandle.Helper()
	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	request.Header.Set("Content-Type", formContentType)
	recorder := httptest.NewRecorder()
	testFixture.handler.ServeHTTP(recorder, request)
	return recorder
}

func (testFixture fixture) get(path string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	testFixture.handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))
	return recorder
}

func parseDocument(testingHandle *testing.T, recorder *httptest.ResponseRecorder) *goquery.Document {
	testingHandle.Helper()
	document, err := goquery.NewDocumentFromReader(strings.NewReader(recorder.Body.String()))
	if err != nil {
		testingHandle.Fatalf("parse html: %v", err)
	}
	return document
}

func TestIndexWithoutRepositoryShowsCloneForm(testingHandle *testing.T) {
	testFixture := newFixture(testingHandle, false)
	recorder := testFixture.get("/")
	if recorder.Code != http.StatusOK {
		testingHandle.Fatalf("expected 200, got %d", recorder.Code)
	}
	document := parseDocument(testingHandle, recorder)
	if document.Find("form#clone-form input[name='url']").Length() != 1 {
		testingHandle.Fatalf("clone form missing:\n%s", recorder.Body.String())
	}
	if action, _ := document.Find("form#clone-form").Attr("action"); action != "/clone" {
		testingHandle.Fatalf("unexpected clone action %q", action)
	}
}

func TestRoutesRequireRepository(testingHandle *testing.T) {
	testFixture := newFixture(testingHandle, false)
	for _, path := range []string{"/update-totals", "/select-all", "/unselect-all", "/combine", "/delete"} {
		recorder := testFixture.post(testingHandle, path, url.Values{})
		if recorder.Code != http.StatusBadRequest {
			testingHandle.Fatalf("%s: expected 400, got %d", path, recorder.Code)
		}
		var payload map[string]string
		if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
			testingHandle.Fatalf("%s: invalid json body %q", path, recorder.Body.String())
		}
		if payload["error"] != "No repository selected" {
			testingHandle.Fatalf("%s: unexpected error %q", path, payload["error"])
		}
	}
}

func TestCloneRejectsMissingAndInvalidURL(testingHandle *testing.T) {
	testFixture := newFixture(testingHandle, false)
	for _, value := range []string{"", "https://example.com/.."} {
		recorder := testFixture.post(testingHandle, "/clone", url.Values{"url": {value}})
		if recorder.Code != http.StatusBadRequest {
			testingHandle.Fatalf("url %q: expected 400, got %d", value, recorder.Code)
		}
	}
}

func TestRepositoryPage(testingHandle *testing.T) {
	testFixture := newFixture(testingHandle, true)
	recorder := testFixture.get("/")
	if recorder.Code != http.StatusOK {
		testingHandle.Fatalf("expected 200, got %d", recorder.Code)
	}
	document := parseDocument(testingHandle, recorder)

	var extensionOrder []string
	document.Find("input[name='file_types']").Each(func(_ int, selection *goquery.Selection) {
		value, _ := selection.Attr("value")
		extensionOrder = append(extensionOrder, value)
	})
	expectedOrder := []string{types.NoExtensionKey, ".py", ".txt"}
	if strings.Join(extensionOrder, ",") != strings.Join(expectedOrder, ",") {
		testingHandle.Fatalf("expected extension order %v, got %v", expectedOrder, extensionOrder)
	}

	if totals := strings.TrimSpace(document.Find("#totals").Text()); totals != "Total: 3 files, 34 bytes, 5 tokens" {
		testingHandle.Fatalf("unexpected initial totals %q", totals)
	}
	skipped := document.Find("li.skipped")
	if skipped.Length() != 1 || !strings.Contains(skipped.Text(), "binary_file (Binary or unreadable file - skipped)") {
		testingHandle.Fatalf("expected one skipped entry, got %q", skipped.Text())
	}
	if skipped.Find("input").Length() != 0 {
		testingHandle.Fatalf("skipped files must not be selectable")
	}
	checked := document.Find("input[name='selected_files'][checked]").Length()
	if checked != 4 {
		testingHandle.Fatalf("expected root and three files checked, got %d", checked)
	}
}

func TestUpdateTotals(testingHandle *testing.T) {
	testFixture := newFixture(testingHandle, true)
	recorder := testFixture.post(testingHandle, "/update-totals", url.Values{
		"selected_files": {testFixture.root},
		"file_types":     {".txt"},
	})
	if recorder.Code != http.StatusOK {
		testingHandle.Fatalf("expected 200, got %d", recorder.Code)
	}
	if body := recorder.Body.String(); body != "Total: 2 files, 23 bytes, 3 tokens" {
		testingHandle.Fatalf("unexpected totals %q", body)
	}

	recorder = testFixture.post(testingHandle, "/update-totals", url.Values{
		"selected_files": {filepath.Join(testFixture.root, "binary_file"), filepath.Join(testFixture.root, "missing")},
	})
	if body := recorder.Body.String(); body != "Total: 0 files, 0 bytes, 0 tokens" {
		testingHandle.Fatalf("unexpected totals for unknown paths %q", body)
	}
}

func TestSelectAndUnselectAll(testingHandle *testing.T) {
	testFixture := newFixture(testingHandle, true)

	unselected := parseDocument(testingHandle, testFixture.post(testingHandle, "/unselect-all", url.Values{}))
	if unselected.Find("input[name='selected_files']").Length() != 4 || unselected.Find("input[checked]").Length() != 0 {
		testingHandle.Fatalf("expected four unchecked checkboxes")
	}

	selected := parseDocument(testingHandle, testFixture.post(testingHandle, "/select-all", url.Values{}))
	if selected.Find("input[name='selected_files'][checked]").Length() != 4 {
		testingHandle.Fatalf("expected four checked checkboxes")
	}
}

func TestCombine(testingHandle *testing.T) {
	testFixture := newFixture(testingHandle, true)
	recorder := testFixture.post(testingHandle, "/combine", url.Values{
		"selected_files": {testFixture.root},
		"file_types":     {".txt", types.NoExtensionKey},
	})
	if recorder.Code != http.StatusOK {
		testingHandle.Fatalf("expected 200, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "&gt;&gt;&gt; FILE: file1.py &lt;&lt;&lt;") {
		testingHandle.Fatalf("combined output must be escaped:\n%s", recorder.Body.String())
	}
	document := parseDocument(testingHandle, recorder)
	if text := document.Find("pre#combined").Text(); text != ">>> FILE: file1.py <<<\nprint('one')\n\n" {
		testingHandle.Fatalf("unexpected combined text %q", text)
	}
}

func TestDeleteRedirectsAndClearsRepository(testingHandle *testing.T) {
	testFixture := newFixture(testingHandle, true)
	recorder := testFixture.post(testingHandle, "/delete", url.Values{})
	if recorder.Code != http.StatusSeeOther || recorder.Header().Get("Location") != "/" {
		testingHandle.Fatalf("expected 303 to /, got %d %q", recorder.Code, recorder.Header().Get("Location"))
	}
	if _, err := testFixture.manager.Snapshot(); !errors.Is(err, session.ErrNoRepository) {
		testingHandle.Fatalf("expected repository to be cleared, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(testFixture.root, "file1.py")); err != nil {
		testingHandle.Fatalf("opened directory must remain on disk: %v", err)
	}
}

func TestMethodNotAllowed(testingHandle *testing.T) {
	testFixture := newFixture(testingHandle, false)
	if recorder := testFixture.get("/combine"); recorder.Code != http.StatusMethodNotAllowed {
		testingHandle.Fatalf("expected 405, got %d", recorder.Code)
	}
	if recorder := testFixture.get("/unknown"); recorder.Code != http.StatusNotFound {
		testingHandle.Fatalf("expected 404, got %d", recorder.Code)
	}
}

func TestRunServesUntilCanceled(testingHandle *testing.T) {
	manager := session.NewManager(session.Config{RepositoriesDirectory: testingHandle.TempDir()}, nil)
	server := web.NewServer(web.Config{Address: "127.0.0.1:0", ShutdownTimeout: time.Second}, manager, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	addressChannel := make(chan string, 1)
	errorChannel := make(chan error, 1)
	go func() {
		errorChannel <- server.Run(ctx, func(address string) { addressChannel <- address })
	}()

	var address string
	select {
	case address = <-addressChannel:
	case <-time.After(5 * time.Second):
		testingHandle.Fatalf("server did not report its address")
	}

	response, err := http.Get("http://" + address + "/")
	if err != nil {
		testingHandle.Fatalf("GET error: %v", err)
	}
	_ = response.Body.Close()
	if response.StatusCode != http.StatusOK {
		testingHandle.Fatalf("expected 200, got %d", response.StatusCode)
	}

	cancel()
	select {
	case runErr := <-errorChannel:
		if runErr != nil {
			testingHandle.Fatalf("Run returned error: %v", runErr)
		}
	case <-time.After(5 * time.Second):
		testingHandle.Fatalf("server did not stop")
	}
}
