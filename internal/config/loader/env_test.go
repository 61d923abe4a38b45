package loader

import (
	"testing"
)

func TestEnvLoader_Load(t *testing.T) {
	t.Setenv("MVTEST_JOBS_QUEUE_SIZE", "256")
	t.Setenv("MVTEST_LOG_LEVEL", "debug")
	t.Setenv("MVTEST_METRICS_ENABLED", "yes")
	t.Setenv("MVTEST_JOBS_TIMEOUT", "1m30s")
	t.Setenv("OTHER_JOBS_WORKERS", "3")

	config, err := NewEnvLoader("MVTEST_").Load()
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}

	jobs := config["jobs"].(map[string]any)
	if jobs["queue_size"] != int64(256) {
		t.Errorf("jobs.queue_size = %v, want 256", jobs["queue_size"])
	}
	if jobs["timeout"] != "1m30s" {
		t.Errorf("jobs.timeout = %v, want 1m30s", jobs["timeout"])
	}
	if _, ok := jobs["workers"]; ok {
		t.Error("unprefixed variable should be ignored")
	}
	if config["log"].(map[string]any)["level"] != "debug" {
		t.Error("log.level not set")
	}
	if config["metrics"].(map[string]any)["enabled"] != true {
		t.Error("metrics.enabled not set")
	}
}

func TestEnvLoader_Mapping(t *testing.T) {
	t.Setenv("MV_STATE_DIR", "/var/lib/mv")

	l := NewEnvLoader("MVTEST_")
	l.AddMapping("MV_STATE_DIR", "state.path")
	config, err := l.Load()
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if got := config["state"].(map[string]any)["path"]; got != "/var/lib/mv" {
		t.Errorf("state.path = %v, want /var/lib/mv", got)
	}
}

func TestEnvLoader_ParseValue(t *testing.T) {
	l := NewEnvLoader("X_")
	tests := []struct {
		in   string
		want any
	}{
		{"", ""},
		{"true", true},
		{"off", false},
		{"42", int64(42)},
		{"-1", int64(-1)},
		{"1.5", 1.5},
		{"250ms", "250ms"},
		{"text", "text"},
	}
	for _, tt := range tests {
		if got := l.parseValue(tt.in); got != tt.want {
			t.Errorf("parseValue(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestEnvLoader_EnvToPath(t *testing.T) {
	l := NewEnvLoader("MODELVIEW_")
	tests := map[string]string{
		"MODELVIEW_JOBS_QUEUE_SIZE":    "jobs.queue_size",
		"MODELVIEW_LOG_LEVEL":          "log.level",
		"MODELVIEW_VIEWER_AUTO_EXPAND": "viewer.auto_expand",
		"MODELVIEW_DEBUG":              "debug",
	}
	for env, want := range tests {
		if got := l.envToPath(env); got != want {
			t.Errorf("envToPath(%q) = %q, want %q", env, got, want)
		}
	}
}
