// Package openapi встраивает OpenAPI описание MiddlemanService.
package openapi

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
)

// SpecFile имя встроенного файла описания
const SpecFile = "middleman.openapi.json"

//go:embed middleman.openapi.json
var content embed.FS

// GetSpec возвращает содержимое OpenAPI описания
func GetSpec() ([]byte, error) {
	return content.ReadFile(SpecFile)
}

// MustGetSpec возвращает описание или паникует
func MustGetSpec() []byte {
	data, err := GetSpec()
	if err != nil {
		panic("failed to load OpenAPI spec: " + err.Error())
	}
	return data
}

// Paths возвращает отсортированные пути процедур из описания
func Paths() ([]string, error) {
	data, err := GetSpec()
	if err != nil {
		return nil, err
	}

	var doc struct {
		Paths map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", SpecFile, err)
	}

	paths := make([]string, 0, len(doc.Paths))
	for p := range doc.Paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}
