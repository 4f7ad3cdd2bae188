package startup

import (
	"testing"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion == "" {
		t.Error("Expected GoVersion to be set")
	}
	if info.OS == "" {
		t.Error("Expected OS to be set")
	}
	if info.Arch == "" {
		t.Error("Expected Arch to be set")
	}

	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_SET_VAR", "custom")
	if got := getEnv("TEST_SET_VAR", "default"); got != "custom" {
		t.Errorf("getEnv = %q, want custom", got)
	}
	if got := getEnv("TEST_UNSET_VAR_XYZ", "default"); got != "default" {
		t.Errorf("getEnv = %q, want default", got)
	}
}

func TestGetEnvList(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		setEnv   bool
		want     []string
	}{
		{"unset uses default", "", false, []string{"a", "b"}},
		{"single value", "vsgtalent.nl", true, []string{"vsgtalent.nl"}},
		{"trims and drops empties", " one, ,two ,", true, []string{"one", "two"}},
		{"only separators falls back", " , ,", true, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_LIST_VAR"
			if tt.setEnv {
				t.Setenv(key, tt.envValue)
			}
			got := getEnvList(key, []string{"a", "b"})
			if len(got) != len(tt.want) {
				t.Fatalf("getEnvList = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("getEnvList[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/wp-json/wp/v2/posts", "wp-json/posts"},
		{"/wp-json/wp/v2/posts/{id}", "wp-json/posts"},
		{"/wp-json/wp/v2/evenementen", "wp-json/evenementen"},
		{"/admin/repair-gallery", "admin"},
		{"/health", "health"},
	}

	for _, tt := range tests {
		if got := getRouteGroup(tt.path); got != tt.want {
			t.Errorf("getRouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
