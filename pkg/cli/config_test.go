package cli

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/haivivi/pcmogg/pkg/storage"
)

func newTestConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := LoadConfigWithPath("testapp", filepath.Join(t.TempDir(), "sub", "config.yaml"))
	if err != nil {
		t.Fatalf("LoadConfigWithPath error: %v", err)
	}
	return cfg
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", ""},
		{"1234", "****"},
		{"12345678", "********"},
		{"123456789", "1234*6789"},
		{"wJalrXUtnFEMI/K7MDENG", "wJal" + strings.Repeat("*", 13) + "DENG"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := MaskSecret(tt.key); got != tt.want {
				t.Errorf("MaskSecret(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestLoadConfigWithPath_NewConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg, err := LoadConfigWithPath("testapp", path)
	if err != nil {
		t.Fatalf("LoadConfigWithPath error: %v", err)
	}
	if cfg.AppName != "testapp" {
		t.Errorf("AppName = %q, want testapp", cfg.AppName)
	}
	if cfg.Profiles == nil {
		t.Error("Profiles map is nil")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not created: %v", err)
	}
	if cfg.Path() != path || cfg.Dir() != filepath.Dir(path) {
		t.Errorf("Path() = %q, Dir() = %q", cfg.Path(), cfg.Dir())
	}
}

func TestConfig_ProfileCRUD(t *testing.T) {
	cfg := newTestConfig(t)

	if err := cfg.AddProfile("", &Profile{}); err == nil {
		t.Error("AddProfile with empty name succeeded")
	}

	q := float32(0.7)
	if err := cfg.AddProfile("voice", &Profile{Channels: 1, SampleRate: 16000, Quality: &q, Encoding: "s16le"}); err != nil {
		t.Fatalf("AddProfile error: %v", err)
	}
	if err := cfg.AddProfile("music", &Profile{Channels: 2, SampleRate: 48000}); err != nil {
		t.Fatalf("AddProfile error: %v", err)
	}
	if got := cfg.ListProfiles(); !slices.Equal(got, []string{"music", "voice"}) {
		t.Errorf("ListProfiles = %v", got)
	}

	p, err := cfg.GetProfile("voice")
	if err != nil {
		t.Fatalf("GetProfile error: %v", err)
	}
	if p.Name != "voice" || p.SampleRate != 16000 {
		t.Errorf("GetProfile = %+v", p)
	}
	if _, err := cfg.GetProfile("missing"); err == nil {
		t.Error("GetProfile(missing) succeeded")
	}

	if _, err := cfg.ResolveProfile(""); !errors.Is(err, ErrNoProfile) {
		t.Errorf("ResolveProfile without current = %v, want ErrNoProfile", err)
	}
	if err := cfg.UseProfile("missing"); err == nil {
		t.Error("UseProfile(missing) succeeded")
	}
	if err := cfg.UseProfile("voice"); err != nil {
		t.Fatalf("UseProfile error: %v", err)
	}
	if p, err := cfg.ResolveProfile(""); err != nil || p.Name != "voice" {
		t.Errorf("ResolveProfile(\"\") = %v, %v", p, err)
	}
	if p, err := cfg.ResolveProfile("music"); err != nil || p.Name != "music" {
		t.Errorf("ResolveProfile(music) = %v, %v", p, err)
	}

	if err := cfg.DeleteProfile("voice"); err != nil {
		t.Fatalf("DeleteProfile error: %v", err)
	}
	if cfg.CurrentProfile != "" {
		t.Errorf("CurrentProfile = %q after deleting it", cfg.CurrentProfile)
	}
	if err := cfg.DeleteProfile("voice"); err == nil {
		t.Error("DeleteProfile twice succeeded")
	}
}

func TestConfig_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := LoadConfigWithPath("testapp", path)
	if err != nil {
		t.Fatalf("LoadConfigWithPath error: %v", err)
	}

	q := float32(0.4)
	p := &Profile{
		Channels:   2,
		SampleRate: 44100,
		Quality:    &q,
		ChunkMS:    40,
		Archive:    "s3://recordings/sessions",
		S3:         &storage.S3Config{Region: "eu-west-1", PathStyle: true},
	}
	p.SetTag("ARTIST", "pcmogg")
	if err := cfg.AddProfile("prod", p); err != nil {
		t.Fatalf("AddProfile error: %v", err)
	}
	if err := cfg.UseProfile("prod"); err != nil {
		t.Fatalf("UseProfile error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat error: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadConfigWithPath("testapp", path)
	if err != nil {
		t.Fatalf("reload error: %v", err)
	}
	if loaded.CurrentProfile != "prod" {
		t.Errorf("CurrentProfile = %q, want prod", loaded.CurrentProfile)
	}
	got, err := loaded.GetProfile("prod")
	if err != nil {
		t.Fatalf("GetProfile error: %v", err)
	}
	if got.Quality == nil || *got.Quality != 0.4 {
		t.Errorf("Quality = %v, want 0.4", got.Quality)
	}
	if got.SampleRate != 44100 || got.ChunkMS != 40 || got.Archive != p.Archive {
		t.Errorf("reloaded profile = %+v", got)
	}
	if got.S3 == nil || got.S3.Region != "eu-west-1" || !got.S3.PathStyle {
		t.Errorf("S3 = %+v", got.S3)
	}
	if got.Tags["ARTIST"] != "pcmogg" {
		t.Errorf("Tags = %v", got.Tags)
	}
}

func TestProfile_Masked(t *testing.T) {
	p := &Profile{Name: "prod", S3: &storage.S3Config{AccessKeyID: "AKIA", SecretAccessKey: "0123456789abcdef"}}
	m := p.Masked()
	if m.S3.SecretAccessKey != "0123********cdef" {
		t.Errorf("masked secret = %q", m.S3.SecretAccessKey)
	}
	if p.S3.SecretAccessKey != "0123456789abcdef" {
		t.Error("Masked modified the original profile")
	}
	if (&Profile{Name: "local"}).Masked().S3 != nil {
		t.Error("Masked invented S3 settings")
	}
}

func TestPaths(t *testing.T) {
	home := t.TempDir()
	p := &Paths{AppName: "testapp", HomeDir: home}
	app := filepath.Join(home, DefaultBaseDir, "testapp")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"AppDir", p.AppDir(), app},
		{"ConfigFile", p.ConfigFile(), filepath.Join(app, DefaultConfigFile)},
		{"JournalDir", p.JournalDir(), filepath.Join(app, "data", "journal")},
		{"ArchiveDir", p.ArchiveDir(), filepath.Join(app, "data", "archive")},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s() = %q, want %q", tt.name, tt.got, tt.want)
		}
	}

	if err := p.EnsureDataDir(); err != nil {
		t.Fatalf("EnsureDataDir error: %v", err)
	}
	if info, err := os.Stat(p.DataDir()); err != nil || !info.IsDir() {
		t.Errorf("data dir not created: %v", err)
	}
}
