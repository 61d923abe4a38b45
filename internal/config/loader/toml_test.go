package loader

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
)

// MemFS is an in-memory file system for testing.
type MemFS struct {
	files map[string][]byte
}

func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string][]byte)}
}

func (m *MemFS) AddFile(path string, content string) {
	m.files[path] = []byte(content)
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func TestTOMLLoader_Load(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/config.toml", `
[jobs]
workers = 8
timeout = "5s"

[log]
level = "debug"
`)

	config, err := NewTOMLLoaderWithFS(memfs, "/config.toml").Load()
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}

	jobs, ok := config["jobs"].(map[string]any)
	if !ok {
		t.Fatal("jobs section not found")
	}
	if jobs["workers"] != int64(8) {
		t.Errorf("jobs.workers = %v, want 8", jobs["workers"])
	}
	if jobs["timeout"] != "5s" {
		t.Errorf("jobs.timeout = %v, want 5s", jobs["timeout"])
	}
	log := config["log"].(map[string]any)
	if log["level"] != "debug" {
		t.Errorf("log.level = %v, want debug", log["level"])
	}
}

func TestTOMLLoader_LoadMissing(t *testing.T) {
	config, err := NewTOMLLoaderWithFS(NewMemFS(), "/missing.toml").Load()
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if config != nil {
		t.Errorf("config = %v, want nil", config)
	}
}

func TestTOMLLoader_ParseError(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/bad.toml", "[jobs]\nworkers = = 3\n")

	_, err := NewTOMLLoaderWithFS(memfs, "/bad.toml").Load()
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if pe.Line == 0 {
		t.Error("Line not reported")
	}
	if !strings.Contains(pe.Error(), "/bad.toml") {
		t.Errorf("Error() = %q, want path", pe.Error())
	}
}

func TestTOMLLoader_LoadFromReader(t *testing.T) {
	config, err := NewTOMLLoader("").LoadFromReader(strings.NewReader("[viewer]\nwidth = 80\n"))
	if err != nil {
		t.Fatalf("LoadFromReader error = %v", err)
	}
	if got := config["viewer"].(map[string]any)["width"]; got != int64(80) {
		t.Errorf("viewer.width = %v, want 80", got)
	}
}

func TestTOMLLoader_Includes(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/etc/main.toml", `
"@include" = ["base.toml"]

[jobs]
workers = 2
`)
	memfs.AddFile("/etc/base.toml", `
[jobs]
workers = 16
queue_size = 64
`)

	config, err := NewTOMLLoaderWithFS(memfs, "/etc/main.toml").Load()
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	jobs := config["jobs"].(map[string]any)
	if jobs["workers"] != int64(2) {
		t.Errorf("jobs.workers = %v, want 2 (including file wins)", jobs["workers"])
	}
	if jobs["queue_size"] != int64(64) {
		t.Errorf("jobs.queue_size = %v, want 64", jobs["queue_size"])
	}
	if _, ok := config["@include"]; ok {
		t.Error("@include should be removed")
	}
}

func TestTOMLLoader_IncludeCycle(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/a.toml", `"@include" = "a.toml"`)

	_, err := NewTOMLLoaderWithFS(memfs, "/a.toml").Load()
	if !errors.Is(err, ErrIncludeDepthExceeded) {
		t.Errorf("error = %v, want ErrIncludeDepthExceeded", err)
	}
}

func TestForPath(t *testing.T) {
	memfs := NewMemFS()
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"/c.toml", "*loader.TOMLLoader", false},
		{"/c.yaml", "*loader.YAMLLoader", false},
		{"/c.YML", "*loader.YAMLLoader", false},
		{"/c.json", "", true},
	}
	for _, tt := range tests {
		l, err := ForPath(memfs, tt.path)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("ForPath(%q) error = %v, want ErrUnsupportedFormat", tt.path, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ForPath(%q) error = %v", tt.path, err)
			continue
		}
		switch l.(type) {
		case *TOMLLoader:
			if tt.want != "*loader.TOMLLoader" {
				t.Errorf("ForPath(%q) = TOML loader", tt.path)
			}
		case *YAMLLoader:
			if tt.want != "*loader.YAMLLoader" {
				t.Errorf("ForPath(%q) = YAML loader", tt.path)
			}
		}
	}
}

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"jobs": map[string]any{"workers": 1, "queue_size": 10},
		"log":  "x",
	}
	src := map[string]any{
		"jobs": map[string]any{"workers": 4},
		"log":  map[string]any{"level": "warn"},
	}
	got := DeepMerge(dst, src)

	jobs := got["jobs"].(map[string]any)
	if jobs["workers"] != 4 || jobs["queue_size"] != 10 {
		t.Errorf("jobs = %v", jobs)
	}
	if _, ok := got["log"].(map[string]any); !ok {
		t.Errorf("log = %v, want replaced by map", got["log"])
	}
	if DeepMerge(nil, nil) == nil {
		t.Error("DeepMerge(nil, nil) should return an empty map")
	}
}
