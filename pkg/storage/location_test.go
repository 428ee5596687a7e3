package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		raw     string
		want    Location
		wantErr bool
	}{
		{"s3://audio/out.ogg", Location{Bucket: "audio", Name: "out.ogg"}, false},
		{"s3://audio/a/b/out.ogg", Location{Bucket: "audio", Dir: "a/b", Name: "out.ogg"}, false},
		{"s3://audio//a/out.ogg", Location{Bucket: "audio", Dir: "a", Name: "out.ogg"}, false},
		{"in.pcm", Location{Dir: ".", Name: "in.pcm"}, false},
		{filepath.Join("data", "in.pcm"), Location{Dir: "data" + string(filepath.Separator), Name: "in.pcm"}, false},
		{"s3://audio", Location{}, true},
		{"s3:///key", Location{}, true},
		{"dir/", Location{}, true},
		{"-", Location{}, true},
		{"", Location{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseLocation(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLocation) {
					t.Fatalf("ParseLocation(%q) error = %v, want ErrInvalidLocation", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLocation(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseLocation(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseRoot(t *testing.T) {
	got, err := ParseRoot("s3://archive/sessions/")
	if err != nil {
		t.Fatal(err)
	}
	if got != (Location{Bucket: "archive", Dir: "sessions"}) {
		t.Errorf("ParseRoot = %+v", got)
	}
	if got.String() != "s3://archive/sessions/" {
		t.Errorf("String() = %q", got.String())
	}

	got, err = ParseRoot("/var/lib/pcmogg/")
	if err != nil {
		t.Fatal(err)
	}
	if got.IsS3() || got.Dir != filepath.Clean("/var/lib/pcmogg") {
		t.Errorf("ParseRoot = %+v", got)
	}
	if _, err := ParseRoot("s3://"); !errors.Is(err, ErrInvalidLocation) {
		t.Errorf("ParseRoot(s3://) = %v, want ErrInvalidLocation", err)
	}
}

func TestLocationString(t *testing.T) {
	loc := Location{Bucket: "b", Dir: "p", Name: "x.ogg"}
	if loc.String() != "s3://b/p/x.ogg" {
		t.Errorf("String() = %q", loc.String())
	}
	loc = Location{Bucket: "b", Name: "x.ogg"}
	if loc.String() != "s3://b/x.ogg" {
		t.Errorf("String() = %q", loc.String())
	}
}

func TestOpenLocal(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(Location{Dir: dir, Name: "x.ogg"}, S3Config{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*Local); !ok {
		t.Fatalf("Open returned %T, want *Local", store)
	}
	store, err = Open(Location{Bucket: "b", Name: "x.ogg"}, S3Config{Region: "eu-west-1", Endpoint: "http://127.0.0.1:9000"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*S3Store); !ok {
		t.Fatalf("Open returned %T, want *S3Store", store)
	}
}

func TestContentType(t *testing.T) {
	for name, want := range map[string]string{
		"a.ogg":     "audio/ogg",
		"a/b.OGA":   "audio/ogg",
		"in.pcm":    "audio/pcm",
		"in.raw":    "audio/pcm",
		"x.wav":     "audio/wav",
		"notes.txt": "application/octet-stream",
	} {
		if got := ContentType(name); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", name, got, want)
		}
	}
}
