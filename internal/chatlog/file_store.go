package chatlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var ErrFileNotFound = errors.New("chatlog: file not found")

type FileInfo struct {
	Filename string    `json:"filename"`
	Size     int64     `json:"size"`
	Lines    int       `json:"lines"`
	Modified time.Time `json:"modified"`
}

// FileStore writes one JSON line per entry to messages_YYYYMMDD.log in dir.
type FileStore struct {
	dir    string
	now    func() time.Time
	logger *slog.Logger
}

func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{dir: dir, now: time.Now, logger: logger}, nil
}

func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) todayPath() string {
	return filepath.Join(s.dir, "messages_"+s.now().Format("20060102")+".log")
}

func (s *FileStore) Append(e Entry) error {
	line, err := json.Marshal(e)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(s.todayPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads today's file. A missing file is an empty log.
func (s *FileStore) Load() ([]Entry, error) {
	entries, err := s.readPath(s.todayPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return entries, err
}

func (s *FileStore) Replace(entries []Entry) error {
	var buf bytes.Buffer
	for _, e := range entries {
		line, err := json.Marshal(e)
		if err != nil {
			return err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return os.WriteFile(s.todayPath(), buf.Bytes(), 0644)
}

// Files lists the *.log files in the directory, newest name first.
func (s *FileStore) Files() ([]FileInfo, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.log"))
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))

	files := make([]FileInfo, 0, len(matches))
	for _, path := range matches {
		st, err := os.Stat(path)
		if err != nil {
			continue
		}
		lines, err := countLines(path)
		if err != nil {
			return nil, err
		}
		files = append(files, FileInfo{
			Filename: filepath.Base(path),
			Size:     st.Size(),
			Lines:    lines,
			Modified: st.ModTime().UTC(),
		})
	}
	return files, nil
}

// ReadFile returns the entries of one log file. Names that are not a plain
// *.log file in the directory yield ErrFileNotFound.
func (s *FileStore) ReadFile(name string) ([]Entry, error) {
	if name == "" || filepath.Base(name) != name || strings.Contains(name, "..") || !strings.HasSuffix(name, ".log") {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}
	entries, err := s.readPath(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}
	return entries, err
}

func (s *FileStore) readPath(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	n := 0
	for sc.Scan() {
		n++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			s.logger.Warn("skipping corrupt chat log line",
				slog.String("file", filepath.Base(path)),
				slog.Int("line", n),
				slog.String("error", err.Error()))
			continue
		}
		entries = append(entries, e)
	}
	return entries, sc.Err()
}

func countLines(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	n := bytes.Count(data, []byte{'\n'})
	if len(data) > 0 && data[len(data)-1] != '\n' {
		n++
	}
	return n, nil
}
