package annotations

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const (
	jsonlSuffix = "_annotations.jsonl"
	jsonSuffix  = "_annotations.json"
)

// Storage persists annotation records, one append-only log per
// annotator.
type Storage interface {
	// Append appends a record to the annotator's log.
	Append(rec *Record) error

	// Load loads one annotator's records keyed by problem id. A later
	// record for the same problem wins. A missing log yields an empty
	// map.
	Load(annotator string) (map[string]*Record, error)

	// Annotators lists the annotators that have a log, sorted by name.
	Annotators() ([]string, error)
}

// LoadAll loads every annotator's records. The returned names are
// sorted.
func LoadAll(s Storage) (map[string]map[string]*Record, []string, error) {
	names, err := s.Annotators()
	if err != nil {
		return nil, nil, err
	}
	all := make(map[string]map[string]*Record, len(names))
	for _, name := range names {
		records, err := s.Load(name)
		if err != nil {
			return nil, nil, err
		}
		all[name] = records
	}
	return all, names, nil
}

// MemoryStorage keeps records in memory (for testing).
type MemoryStorage struct {
	records map[string]map[string]*Record
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]map[string]*Record),
	}
}

func (m *MemoryStorage) Append(rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byProblem, ok := m.records[rec.Annotator]
	if !ok {
		byProblem = make(map[string]*Record)
		m.records[rec.Annotator] = byProblem
	}
	recCopy := *rec
	byProblem[rec.ProblemID] = &recCopy
	return nil
}

func (m *MemoryStorage) Load(annotator string) (map[string]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]*Record, len(m.records[annotator]))
	for pid, rec := range m.records[annotator] {
		recCopy := *rec
		out[pid] = &recCopy
	}
	return out, nil
}

func (m *MemoryStorage) Annotators() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.records))
	for name := range m.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// FileStorage keeps one JSONL log per annotator under a directory.
// It also reads logs saved as a single JSON array, a format older
// annotation tools produced.
type FileStorage struct {
	dir string
	mu  sync.Mutex
}

// NewFileStorage creates a file-based storage rooted at dir.
func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{dir: dir}
}

func (f *FileStorage) logPath(annotator string) string {
	return filepath.Join(f.dir, annotator+jsonlSuffix)
}

func (f *FileStorage) Append(rec *Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create annotations directory: %w", err)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	file, err := os.OpenFile(f.logPath(rec.Annotator), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open annotation log: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}

func (f *FileStorage) Load(annotator string) (map[string]*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, path := range []string{
		filepath.Join(f.dir, annotator+jsonlSuffix),
		filepath.Join(f.dir, annotator+jsonSuffix),
	} {
		records, err := loadLog(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		return records, nil
	}
	return map[string]*Record{}, nil
}

func (f *FileStorage) Annotators() ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read annotations directory: %w", err)
	}

	seen := make(map[string]bool)
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, ok := AnnotatorFromFilename(entry.Name())
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// AnnotatorFromFilename derives the annotator name from an annotation
// log filename.
func AnnotatorFromFilename(filename string) (string, bool) {
	base := filepath.Base(filename)
	for _, suffix := range []string{jsonlSuffix, jsonSuffix} {
		if name, ok := strings.CutSuffix(base, suffix); ok && name != "" {
			return name, true
		}
	}
	return "", false
}

// loadLog parses one annotation log. JSONL is the native format; a file
// whose content starts with "[" is read as a JSON array instead.
func loadLog(path string) (map[string]*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	records := make(map[string]*Record)
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []*Record
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		for _, rec := range list {
			records[rec.ProblemID] = rec
		}
		return records, nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		rec := &Record{}
		if err := json.Unmarshal(line, rec); err != nil {
			return nil, fmt.Errorf("failed to parse %s line %d: %w", path, lineNo, err)
		}
		records[rec.ProblemID] = rec
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return records, nil
}
