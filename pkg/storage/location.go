package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Stdio is the location that means stdin for input and stdout for output.
const Stdio = "-"

// ErrInvalidLocation is returned for location strings that name no file.
var ErrInvalidLocation = errors.New("storage: invalid location")

// Location is a parsed location string.
type Location struct {
	// Bucket is set for s3:// locations and empty for local files.
	Bucket string
	// Dir is the store root: the key prefix for S3, the directory for
	// local files.
	Dir string
	// Name is the file path relative to Dir.
	Name string
}

// IsS3 reports whether the location names an S3 object.
func (l Location) IsS3() bool {
	return l.Bucket != ""
}

func (l Location) String() string {
	if l.IsS3() {
		if l.Dir == "" {
			return "s3://" + l.Bucket + "/" + l.Name
		}
		return "s3://" + l.Bucket + "/" + l.Dir + "/" + l.Name
	}
	return filepath.Join(l.Dir, filepath.FromSlash(l.Name))
}

// ParseLocation splits a local path or s3://bucket/key URL into a store
// root and a file name. Stdio is not a location.
func ParseLocation(raw string) (Location, error) {
	if raw == "" || raw == Stdio {
		return Location{}, fmt.Errorf("%w: %q", ErrInvalidLocation, raw)
	}
	if rest, ok := strings.CutPrefix(raw, "s3://"); ok {
		bucket, key, _ := strings.Cut(rest, "/")
		key = strings.Trim(key, "/")
		if bucket == "" || key == "" {
			return Location{}, fmt.Errorf("%w: %q needs a bucket and a key", ErrInvalidLocation, raw)
		}
		loc := Location{Bucket: bucket, Name: key}
		if i := strings.LastIndexByte(key, '/'); i >= 0 {
			loc.Dir, loc.Name = key[:i], key[i+1:]
		}
		return loc, nil
	}
	if strings.HasSuffix(raw, "/") || strings.HasSuffix(raw, string(filepath.Separator)) {
		return Location{}, fmt.Errorf("%w: %q is a directory", ErrInvalidLocation, raw)
	}
	dir, name := filepath.Split(filepath.Clean(raw))
	if dir == "" {
		dir = "."
	}
	return Location{Dir: dir, Name: name}, nil
}

// ParseRoot parses a location that names a directory or key prefix, such
// as an archive root. The result has an empty Name.
func ParseRoot(raw string) (Location, error) {
	if raw == "" || raw == Stdio {
		return Location{}, fmt.Errorf("%w: %q", ErrInvalidLocation, raw)
	}
	if rest, ok := strings.CutPrefix(raw, "s3://"); ok {
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return Location{}, fmt.Errorf("%w: %q needs a bucket", ErrInvalidLocation, raw)
		}
		return Location{Bucket: bucket, Dir: strings.Trim(prefix, "/")}, nil
	}
	return Location{Dir: filepath.Clean(raw)}, nil
}

// Open returns the store rooted at the location. S3 locations use a client
// built from cfg.
func Open(loc Location, cfg S3Config) (FileStore, error) {
	if loc.IsS3() {
		return NewS3(NewS3Client(cfg), loc.Bucket, loc.Dir), nil
	}
	return NewLocal(loc.Dir)
}
