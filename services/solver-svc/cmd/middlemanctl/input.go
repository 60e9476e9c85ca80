package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"middleman/pkg/domain"
)

var errNoInput = errors.New("problem file is required (--input or first argument)")

// inputPath путь из --input или первого аргумента
func inputPath(flag string, args []string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	return "", errNoInput
}

// readProblem читает задачу из файла; "-" читает stdin как YAML
func readProblem(path string, stdin io.Reader) (*domain.Problem, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read problem: %w", err)
	}
	return decodeProblem(data, filepath.Ext(path))
}

func decodeProblem(data []byte, ext string) (*domain.Problem, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("problem file is empty")
	}

	var p domain.Problem
	switch strings.ToLower(ext) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return nil, fmt.Errorf("decode json problem: %w", err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&p); err != nil {
			return nil, fmt.Errorf("decode yaml problem: %w", err)
		}
	}

	fillCounts(&p)
	return &p, nil
}

// fillCounts выводит количество участников из длины векторов, если оно не указано
func fillCounts(p *domain.Problem) {
	if p.Suppliers == 0 {
		p.Suppliers = len(p.Supply)
	}
	if p.Recipients == 0 {
		p.Recipients = len(p.Demand)
	}
}
