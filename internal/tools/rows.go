// Package tools implements the metadata, query and summarize operations
// exposed over MCP. Every call re-queries the engine: results are derived
// projections of catalog state and are never cached.
package tools

import (
	"database/sql"
	"fmt"
)

// collectRows drains a result set into a columnar layout. Column names
// come from the driver's result descriptor, not from row data, so every
// row shares the same declared shape. Byte slices are converted to
// strings for readability.
func collectRows(rows *sql.Rows) (cols []string, data [][]any, err error) {
	cols, err = rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		data = append(data, values)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return cols, data, nil
}
