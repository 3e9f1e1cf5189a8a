package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var audioExts = map[string]bool{".wav": true, ".mp3": true, ".flac": true, ".m4a": true, ".ogg": true}

type answersFile struct {
	Answers []struct {
		Answer string `json:"answer"`
	} `json:"answers"`
}

// LoadDir builds cases from a directory where every audio file <name>.<ext>
// sits next to <name>.txt (reference transcript) and optionally <name>.json
// ({"answers":[{"answer":...}]}). Audio without a transcript is skipped.
func LoadDir(dir string) ([]Case, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read eval dir: %w", err)
	}
	var out []Case
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || !audioExts[ext] {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		transcript, err := os.ReadFile(filepath.Join(dir, name+".txt"))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read transcript for %s: %w", name, err)
		}
		c := Case{
			Name:       name,
			AudioPath:  filepath.Join(dir, e.Name()),
			Transcript: strings.TrimSpace(string(transcript)),
		}
		raw, err := os.ReadFile(filepath.Join(dir, name+".json"))
		switch {
		case err == nil:
			var af answersFile
			if err := json.Unmarshal(raw, &af); err != nil {
				return nil, fmt.Errorf("parse answers for %s: %w", name, err)
			}
			for _, a := range af.Answers {
				c.Answers = append(c.Answers, a.Answer)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("read answers for %s: %w", name, err)
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// LoadAny picks LoadDir for directories and Load for xlsx manifests.
func LoadAny(path string) ([]Case, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat dataset: %w", err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	return Load(path)
}
