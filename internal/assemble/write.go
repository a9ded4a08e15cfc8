package assemble

import (
	"github.com/paveg/reviewrisk/internal/config"
	"github.com/paveg/reviewrisk/internal/dataframe"
	"github.com/paveg/reviewrisk/internal/io"
)

// Artifacts lists the master tables of a result by artifact name.
func (r *Result) Artifacts() map[string]*dataframe.DataFrame {
	return map[string]*dataframe.DataFrame{
		TableMaster: r.Master,
		TableBasic:  r.Basic,
		TableFull:   r.Full,
	}
}

// Write persists the master artifacts under cfg.OutputDir, creating the
// directory when needed, and returns the row count of each.
func Write(res *Result, cfg *config.Config) (map[string]int, error) {
	rows := make(map[string]int, 3)
	for _, name := range []string{TableMaster, TableBasic, TableFull} {
		df := res.Artifacts()[name]
		if err := io.WriteFile(cfg.OutputPath(name), df, io.DefaultCSVOptions()); err != nil {
			return nil, err
		}
		rows[name] = df.Len()
	}
	return rows, nil
}
