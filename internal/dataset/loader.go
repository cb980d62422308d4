package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/AJAY-DOMBALE-04/Placeme/internal/logger"
)

const (
	ColumnName            = "StudentName"
	ColumnRollNumber      = "RollNumber"
	ColumnBranch          = "Branch"
	ColumnCGPA            = "CGPA"
	ColumnSkills          = "Skills"
	ColumnCompany         = "Company"
	ColumnJobRole         = "JobRole"
	ColumnPackage         = "Package"
	ColumnYear            = "Year"
	ColumnOpportunityType = "OpportunityType"
)

// RequiredColumns lists the header names every source must carry.
var RequiredColumns = []string{
	ColumnName,
	ColumnRollNumber,
	ColumnBranch,
	ColumnCGPA,
	ColumnSkills,
	ColumnCompany,
	ColumnJobRole,
	ColumnPackage,
	ColumnYear,
	ColumnOpportunityType,
}

// Loader reads the placement CSV once and serves the cached table afterwards.
type Loader struct {
	path   string
	logger *zap.Logger

	mu    sync.Mutex
	table *Table
}

func NewLoader(path string, log *zap.Logger) *Loader {
	return &Loader{
		path:   strings.TrimSpace(path),
		logger: logger.WithFields(log, logger.DatasetFields(path)...),
	}
}

// Path returns the configured source location.
func (l *Loader) Path() string { return l.path }

// Load returns the cached table, reading the source on first use.
func (l *Loader) Load() (*Table, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.table != nil {
		return l.table, nil
	}

	table, err := l.read()
	if err != nil {
		return nil, err
	}

	l.table = table
	return table, nil
}

// Reload drops the cached table and reads the source again.
func (l *Loader) Reload() (*Table, error) {
	l.mu.Lock()
	l.table = nil
	l.mu.Unlock()

	return l.Load()
}

func (l *Loader) read() (*Table, error) {
	file, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w at %q", ErrMissingResource, l.path)
		}
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer file.Close()

	table, err := Parse(file)
	if err != nil {
		return nil, err
	}

	l.logger.Info("dataset loaded", zap.Int("records", table.Len()), zap.Int("columns", len(table.Columns)))
	return table, nil
}

// Parse decodes and normalizes a placement CSV stream.
func Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &SchemaError{Missing: append([]string(nil), RequiredColumns...)}
		}
		return nil, fmt.Errorf("reading dataset header: %w", err)
	}

	columns := make([]string, len(header))
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		columns[i] = name
		key := strings.ToLower(name)
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	var missing []string
	for _, name := range RequiredColumns {
		if _, ok := index[strings.ToLower(name)]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	table := &Table{Columns: columns}
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading dataset line %d: %w", line, err)
		}

		cell := func(name string) string {
			i := index[strings.ToLower(name)]
			if i >= len(row) {
				return ""
			}
			return row[i]
		}

		raw := cell(ColumnSkills)
		table.Records = append(table.Records, Record{
			Name:            cell(ColumnName),
			RollNumber:      strings.TrimSpace(cell(ColumnRollNumber)),
			Branch:          cell(ColumnBranch),
			CGPA:            parseFloat(cell(ColumnCGPA)),
			RawSkills:       raw,
			Skills:          NewSkillSet(NormalizeSkills(raw)...),
			Company:         cell(ColumnCompany),
			JobRole:         cell(ColumnJobRole),
			Package:         parseFloat(cell(ColumnPackage)),
			Year:            parseInt(cell(ColumnYear)),
			OpportunityType: cell(ColumnOpportunityType),
		})
	}

	return table, nil
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func parseInt(s string) int {
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return int(parseFloat(s))
}
