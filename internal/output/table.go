package output

// Table is a pre-rendered table for the table output format.
type Table struct {
	Headers []string   `json:"headers,omitempty" yaml:"headers,omitempty"`
	Rows    [][]string `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// Table lets a Table be passed wherever a Tabler is accepted.
func (t Table) Table() Table { return t }
