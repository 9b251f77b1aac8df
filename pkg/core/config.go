package core

// TargetConfig holds warehouse target configuration.
type TargetConfig struct {
	Type string `koanf:"type"` // duckdb, postgres, sqlite

	// File-based databases (DuckDB, SQLite)
	Database string `koanf:"database"` // file path or database name

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	Schema string `koanf:"schema"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`

	// Params holds adapter-specific configuration (e.g., DuckDB extensions, settings)
	Params map[string]any `koanf:"params"`
}

// SourceConfig describes where raw datasets are loaded from.
type SourceConfig struct {
	Type string `koanf:"type"` // xlsx, csv, jsonstat, warehouse
	Path string `koanf:"path"`

	// Sheets restricts which workbook sheets are exposed as datasets.
	Sheets []string `koanf:"sheets"`

	// HeaderRows is the number of header rows above the data (1 or 2).
	HeaderRows int `koanf:"header_rows"`

	// FallbackGroup labels value columns with no preceding named group.
	FallbackGroup string `koanf:"fallback_group"`

	// Tables lists the warehouse fact tables exposed as datasets.
	Tables []string `koanf:"tables"`

	// JSON-stat dimension ids.
	TimeDimension  string `koanf:"time_dimension"`
	GroupDimension string `koanf:"group_dimension"`
}

// AdapterConfig holds configuration for connecting to a database.
type AdapterConfig struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string
	Options  map[string]string
	Params   map[string]any
}

// Column represents a column in a database table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Position int
}

// TableMetadata holds metadata about a database table.
type TableMetadata struct {
	Schema   string
	Name     string
	Columns  []Column
	RowCount int64
}
