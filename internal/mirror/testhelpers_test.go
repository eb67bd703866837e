package mirror_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/bamsammich/lfskit/internal/mirror"
)

// fakeAPI stands in for the contents API and the raw download host.
//
//	/repos/{owner}/{name}/contents/{folder}?ref=  → listings[folder]
//	/raw/{path}                                   → files[path]
type fakeAPI struct {
	srv      *httptest.Server
	listings map[string][]mirror.Entry
	files    map[string]string

	// status overrides: folder → status code for its listing.
	listingStatus map[string]int
	rawStatus     map[string]int

	mu       sync.Mutex
	requests []string
	refs     []string
	auth     []string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{
		listings:      make(map[string][]mirror.Entry),
		files:         make(map[string]string),
		listingStatus: make(map[string]int),
		rawStatus:     make(map[string]int),
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) URL() string { return f.srv.URL }

// addFile registers a file entry under folder and its raw content.
func (f *fakeAPI) addFile(folder, path, content string) {
	f.listings[folder] = append(f.listings[folder], mirror.Entry{
		Name:        path[strings.LastIndexByte(path, '/')+1:],
		Path:        path,
		Type:        mirror.TypeFile,
		DownloadURL: f.srv.URL + "/raw/" + path,
		Size:        int64(len(content)),
	})
	f.files[path] = content
}

// addDir registers a dir entry under folder.
func (f *fakeAPI) addDir(folder, path string) {
	f.listings[folder] = append(f.listings[folder], mirror.Entry{
		Name: path[strings.LastIndexByte(path, '/')+1:],
		Path: path,
		Type: mirror.TypeDir,
	})
	if _, ok := f.listings[path]; !ok {
		f.listings[path] = []mirror.Entry{}
	}
}

func (f *fakeAPI) log() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *fakeAPI) refList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.refs...)
}

func (f *fakeAPI) authHeaders() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.auth...)
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	f.mu.Unlock()

	switch {
	case strings.HasPrefix(r.URL.Path, "/raw/"):
		path := strings.TrimPrefix(r.URL.Path, "/raw/")
		f.record("raw " + path)
		if code, ok := f.rawStatus[path]; ok {
			http.Error(w, "nope", code)
			return
		}
		content, ok := f.files[path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(content))

	case strings.HasPrefix(r.URL.Path, "/repos/"):
		// /repos/owner/name/contents/<folder>
		rest := strings.TrimPrefix(r.URL.Path, "/repos/")
		parts := strings.SplitN(rest, "/", 4)
		if len(parts) < 3 || parts[2] != "contents" {
			http.NotFound(w, r)
			return
		}
		folder := ""
		if len(parts) == 4 {
			folder = parts[3]
		}
		f.record("list " + folder)
		f.mu.Lock()
		f.refs = append(f.refs, r.URL.Query().Get("ref"))
		f.mu.Unlock()

		if code, ok := f.listingStatus[folder]; ok {
			w.WriteHeader(code)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		entries, ok := f.listings[folder]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(entries)

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAPI) record(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, s)
}
