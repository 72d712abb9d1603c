package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/jask/mccheck/internal/listview"
)

const listFile = "list.json"

// List is the remembered state of the verification list between sessions.
type List struct {
	Sort string `json:"sort"`
	Desc bool   `json:"desc"`
}

// FromSort converts the active sort for saving.
func FromSort(s listview.Sort) List {
	return List{Sort: s.Column.Key(), Desc: s.Desc}
}

// SortOrDefault returns the saved sort, or the newest-first default when the
// saved column is unknown.
func (l List) SortOrDefault() listview.Sort {
	col, ok := listview.ParseColumn(l.Sort)
	if !ok {
		return listview.DefaultSort()
	}
	return listview.Sort{Column: col, Desc: l.Desc}
}

func listPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, "mccheck")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, listFile), nil
}

func SaveList(l List) error {
	path, err := listPath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadList returns the saved list state; a missing file yields the zero List.
func LoadList() (List, error) {
	path, err := listPath()
	if err != nil {
		return List{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return List{}, nil
		}
		return List{}, err
	}
	var l List
	if err := json.Unmarshal(data, &l); err != nil {
		return List{}, err
	}
	return l, nil
}
