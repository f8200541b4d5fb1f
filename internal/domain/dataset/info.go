package dataset

// Info is the metadata shown when a dataset is opened.
type Info struct {
	Name           string           `json:"name"`
	Hash           string           `json:"hash"`
	Rows           int              `json:"rows"`
	Cols           int              `json:"cols"`
	Columns        []string         `json:"columns"`
	Dtypes         map[string]DType `json:"dtypes"`
	MissingValues  map[string]int   `json:"missing_values"`
	DuplicatedRows int              `json:"duplicated_rows"`
	Head           []map[string]any `json:"head"`
}

// GetInfo collects name, shape, dtypes, missing counts, duplicate count and the first five rows.
func GetInfo(d *Dataset) Info {
	rows, cols := d.Shape()
	info := Info{
		Name:           d.Name,
		Hash:           d.Hash,
		Rows:           rows,
		Cols:           cols,
		Columns:        d.ColumnNames(),
		Dtypes:         d.Dtypes(),
		MissingValues:  d.MissingCounts(),
		DuplicatedRows: d.DuplicatedRows(),
	}
	for i := 0; i < min(5, rows); i++ {
		rec := make(map[string]any, cols)
		for _, c := range d.columns {
			rec[c.Name] = c.Value(i)
		}
		info.Head = append(info.Head, rec)
	}
	return info
}
