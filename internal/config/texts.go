package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/liturgical-scheduler/internal/program"
)

// LoadTexts reads liturgical wording from a YAML mapping of category to text.
// An empty path yields the canonical wording. Categories absent from the
// file keep their canonical wording; unknown categories are rejected.
func LoadTexts(path string) (program.Texts, error) {
	texts := program.DefaultTexts()
	if strings.TrimSpace(path) == "" {
		return texts, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read texts file: %w", err)
	}
	return parseTexts(raw, texts)
}

func parseTexts(raw []byte, texts program.Texts) (program.Texts, error) {
	var doc map[string]string
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse texts file: %w", err)
	}

	var unknown []string
	for category, text := range doc {
		category = strings.ToLower(strings.TrimSpace(category))
		if _, ok := texts[category]; !ok {
			unknown = append(unknown, category)
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			texts[category] = text
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("texts file has unknown categories: %s", strings.Join(unknown, ", "))
	}
	return texts, nil
}
