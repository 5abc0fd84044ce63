package api

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port    int
	Bind    string
	APIKey  string // empty disables X-API-Key authentication
	DataDir string // directory scanned for transport files
}

// ColumnInfo describes one variable of a served dataset
type ColumnInfo struct {
	Name   string `json:"name"`
	Label  string `json:"label,omitempty"`
	Kind   string `json:"kind"`
	Length int    `json:"length"`
	Format string `json:"format,omitempty"`
}

// DatasetInfo describes one dataset found in the data directory
type DatasetInfo struct {
	File    string       `json:"file"`
	Dataset string       `json:"dataset"`
	Label   string       `json:"label,omitempty"`
	Version string       `json:"version"`
	Columns []ColumnInfo `json:"columns"`
	Rows    int64        `json:"rows"`
}

// RowsPage is one page of observation rows. Numeric cells are JSON
// numbers, character cells strings, and missing values null.
type RowsPage struct {
	Dataset string          `json:"dataset"`
	Columns []string        `json:"columns"`
	Offset  int64           `json:"offset"`
	Limit   int             `json:"limit"`
	Rows    [][]interface{} `json:"rows"`
	Total   int64           `json:"total"`
}
