package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/kafka"
)

// loadCorpus reads documents from a directory of .txt files, where the file
// name is the document id and the first line its title, or from a JSON lines
// file of document events.
func loadCorpus(path string) ([]kafka.DocumentEvent, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus: %w", err)
	}
	if info.IsDir() {
		return loadDir(path)
	}
	return loadJSONLines(path)
}

func loadDir(dir string) ([]kafka.DocumentEvent, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	docs := make([]kafka.DocumentEvent, 0, len(matches))
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", m, err)
		}
		title, body, _ := strings.Cut(string(data), "\n")
		doc := kafka.DocumentEvent{
			DocumentID: strings.TrimSuffix(filepath.Base(m), ".txt"),
			Title:      strings.TrimSpace(title),
			Body:       body,
		}
		if err := validator.ValidateDocument(doc); err != nil {
			return nil, fmt.Errorf("%s: %w", m, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func loadJSONLines(path string) ([]kafka.DocumentEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus: %w", err)
	}
	defer f.Close()

	var docs []kafka.DocumentEvent
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16<<20)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		doc, err := kafka.DecodeJSON[kafka.DocumentEvent]([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		if err := validator.ValidateDocument(doc); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		docs = append(docs, doc)
	}
	return docs, sc.Err()
}
