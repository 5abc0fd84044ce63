package api

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/trialdata/xportio/pkg/catalog"
	"github.com/trialdata/xportio/pkg/dataset"
	"github.com/trialdata/xportio/pkg/engine"
)

const (
	defaultRowLimit = 50
	maxRowLimit     = 1000
)

// Server holds the API server state
type Server struct {
	config  ServerConfig
	metrics *Metrics
}

// NewServer creates a new API server
func NewServer(config ServerConfig, metrics *Metrics) *Server {
	return &Server{
		config:  config,
		metrics: metrics,
	}
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleListDatasets scans the data directory and returns a summary of
// every readable transport file.
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	infos, err := s.scanDataDir()
	if err != nil {
		s.metrics.RecordDecodeOperation("list", false, time.Since(start))
		sendError(w, "Failed to scan data directory: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.metrics.RecordDecodeOperation("list", true, time.Since(start))
	s.metrics.UpdateDatasetCount(len(infos))
	sendSuccess(w, infos)
}

// handleGetDataset returns the metadata of one dataset by name.
func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	name := chi.URLParam(r, "name")

	info, _, err := s.findDataset(name)
	if err != nil {
		s.metrics.RecordDecodeOperation("describe", false, time.Since(start))
		sendError(w, err.Error(), http.StatusNotFound)
		return
	}

	s.metrics.RecordDecodeOperation("describe", true, time.Since(start))
	sendSuccess(w, info)
}

// handleGetRows streams one page of observation rows from a dataset.
// Numeric missing values render as null.
func (s *Server) handleGetRows(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	name := chi.URLParam(r, "name")

	limit := defaultRowLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			sendError(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = n
	}
	if limit > maxRowLimit {
		limit = maxRowLimit
	}

	var offset int64
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			sendError(w, "Invalid offset parameter", http.StatusBadRequest)
			return
		}
		offset = n
	}

	_, path, err := s.findDataset(name)
	if err != nil {
		s.metrics.RecordDecodeOperation("rows", false, time.Since(start))
		sendError(w, err.Error(), http.StatusNotFound)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		s.metrics.RecordDecodeOperation("rows", false, time.Since(start))
		sendError(w, "Failed to open transport file", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	rd, err := engine.NewReader(f, engine.ReaderConfig{})
	if err != nil {
		s.metrics.RecordDecodeOperation("rows", false, time.Since(start))
		sendError(w, "Failed to decode transport file: "+err.Error(), http.StatusInternalServerError)
		return
	}

	ds := rd.Dataset()
	columns := make([]string, len(ds.Columns))
	for i, c := range ds.Columns {
		columns[i] = c.Name
	}

	page := RowsPage{
		Dataset: ds.Name,
		Columns: columns,
		Offset:  offset,
		Limit:   limit,
		Rows:    [][]interface{}{},
	}

	var total int64
	it := rd.Rows()
	for it.Next() {
		if total >= offset && len(page.Rows) < limit {
			page.Rows = append(page.Rows, renderRow(it.Row()))
		}
		total++
	}
	if err := it.Err(); err != nil {
		s.metrics.RecordDecodeOperation("rows", false, time.Since(start))
		sendError(w, "Failed to read rows: "+err.Error(), http.StatusInternalServerError)
		return
	}
	page.Total = total

	s.metrics.RecordDecodeOperation("rows", true, time.Since(start))
	s.metrics.RecordRowsServed(len(page.Rows))
	sendSuccess(w, page)
}

// renderRow converts a decoded row to its JSON shape.
func renderRow(row dataset.Row) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		switch v.Kind() {
		case dataset.KindNumber:
			f, _ := v.Float()
			out[i] = f
		case dataset.KindText:
			s, _ := v.Str()
			out[i] = s
		default:
			out[i] = nil
		}
	}
	return out
}

// scanDataDir summarizes every transport file in the data directory,
// skipping files that fail to decode.
func (s *Server) scanDataDir() ([]DatasetInfo, error) {
	paths, err := transportFiles(s.config.DataDir)
	if err != nil {
		return nil, err
	}

	infos := make([]DatasetInfo, 0, len(paths))
	for _, path := range paths {
		info, err := summarizeFile(path)
		if err != nil {
			continue
		}
		infos = append(infos, *info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Dataset < infos[j].Dataset })
	return infos, nil
}

// findDataset locates a dataset by name (case-insensitive) in the data
// directory.
func (s *Server) findDataset(name string) (*DatasetInfo, string, error) {
	paths, err := transportFiles(s.config.DataDir)
	if err != nil {
		return nil, "", err
	}

	for _, path := range paths {
		info, err := summarizeFile(path)
		if err != nil {
			continue
		}
		if strings.EqualFold(info.Dataset, name) {
			return info, path, nil
		}
	}
	return nil, "", &notFoundError{name: name}
}

type notFoundError struct {
	name string
}

func (e *notFoundError) Error() string {
	return "dataset not found: " + e.name
}

func transportFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".xpt") {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func summarizeFile(path string) (*DatasetInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	e, err := catalog.Summarize(f, path)
	if err != nil {
		return nil, err
	}

	cols := make([]ColumnInfo, len(e.Columns))
	for i, c := range e.Columns {
		cols[i] = ColumnInfo{
			Name:   c.Name,
			Label:  c.Label,
			Kind:   c.Kind,
			Length: c.Length,
			Format: c.Format,
		}
	}
	return &DatasetInfo{
		File:    filepath.Base(path),
		Dataset: e.Dataset,
		Label:   e.Label,
		Version: e.Version,
		Columns: cols,
		Rows:    e.Rows,
	}, nil
}
