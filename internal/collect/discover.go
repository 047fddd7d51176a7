package collect

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Default naming conventions for per-sample annotation files.
const (
	DefaultSuffix       = "hg38_multianno.xlsx"
	DefaultLabelPattern = `POOL-\d+`
)

// Discover walks root recursively and returns the paths of all regular files
// whose base name ends with one of the suffixes, sorted lexicographically.
// Symlinks to regular files are included; directory symlinks are not walked.
// Office lock files (~$name) are skipped.
func Discover(root string, suffixes []string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !isRegularFile(path, d) {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, "~$") {
			return nil
		}
		for _, s := range suffixes {
			if strings.HasSuffix(name, s) {
				paths = append(paths, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

func isRegularFile(path string, d fs.DirEntry) bool {
	if d.Type()&fs.ModeSymlink == 0 {
		return d.Type().IsRegular()
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Labeler extracts sample labels from file names.
type Labeler struct {
	re *regexp.Regexp
}

// NewLabeler compiles pattern into a Labeler.
func NewLabeler(pattern string) (*Labeler, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Labeler{re: re}, nil
}

// Label returns the first match of the pattern in the base name of path,
// or "" if nothing matches.
func (l *Labeler) Label(path string) string {
	return l.re.FindString(filepath.Base(path))
}

var defaultLabeler = &Labeler{re: regexp.MustCompile(DefaultLabelPattern)}

// SampleLabel extracts a sample label using DefaultLabelPattern.
func SampleLabel(path string) string {
	return defaultLabeler.Label(path)
}
