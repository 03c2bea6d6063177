package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/use-agent/ccbrowser/ccerrors"
	"github.com/use-agent/ccbrowser/models"
)

// Vault persists recordings under a directory tree of
// <yyyy-MM-dd_HH-mm-ss>_<slug>/recording.json entries (spec.md §6
// "Recording file"), separate from the workspace descriptor Store since
// recordings live under a sibling vault root, not the workspace root.
type Vault struct {
	Root string
}

// NewVault creates a Vault rooted at root (typically config.PathConfig.RecordingsRoot).
func NewVault(root string) *Vault {
	return &Vault{Root: root}
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	s := slugPattern.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		s = "recording"
	}
	return s
}

// Save writes rec to a new timestamped directory and returns its path.
func (v *Vault) Save(rec *models.Recording) (string, error) {
	dirName := rec.RecordedAt.UTC().Format("2006-01-02_15-04-05") + "_" + slugify(rec.Name)
	dir := filepath.Join(v.Root, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "recording.json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", err
	}
	return dir, nil
}

// Find returns the newest recording whose directory slug contains query
// (spec.md §6: "the findRecording helper returns the newest directory whose
// slug contains the query").
func (v *Vault) Find(query string) (*models.Recording, error) {
	entries, err := os.ReadDir(v.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ccerrors.New(ccerrors.CodeConfigNotFound, fmt.Sprintf("no recording matches %q", query), nil)
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() && strings.Contains(e.Name(), query) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, ccerrors.New(ccerrors.CodeConfigNotFound, fmt.Sprintf("no recording matches %q", query), nil)
	}
	sort.Strings(names) // timestamp-prefixed names sort chronologically
	newest := names[len(names)-1]

	data, err := os.ReadFile(filepath.Join(v.Root, newest, "recording.json"))
	if err != nil {
		return nil, err
	}
	var rec models.Recording
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, ccerrors.New(ccerrors.CodeConfigNotFound, "recording file is corrupt", err)
	}
	return &rec, nil
}
