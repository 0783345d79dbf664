package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/ja7ad/copper/pkg/types"
)

type row struct {
	Iteration   int         `json:"iteration"`
	Phase       int         `json:"phase"`
	Performance float64     `json:"performance"`
	Cap         types.Power `json:"cap_w"`
	Xup         float64     `json:"xup"`
	Error       float64     `json:"error"`
	Workload    float64     `json:"workload"`
	EnergyCumJ  float64     `json:"e_cum_j"`
}

func fmtFloat(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }

// sinks fans rows out to the table and the optional CSV/JSON files.
type sinks struct {
	tw *tabwriter.Writer

	csvF  *os.File
	csvW  *csv.Writer
	jsonF *os.File
	jsonN int
}

func create(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.Create(path)
}

func openSinks(out io.Writer, pretty bool, csvPath, jsonPath string) (*sinks, error) {
	s := &sinks{}
	if pretty {
		s.tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(s.tw, "ITER\tPHASE\tPERF\tCAP\tXUP\tERROR\tWORKLOAD\tE_cum (J)")
		fmt.Fprintln(s.tw, "----\t-----\t----\t---\t---\t-----\t--------\t---------")
		s.tw.Flush()
	}

	if csvPath != "" {
		f, err := create(csvPath)
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		s.csvF = f
		s.csvW = csv.NewWriter(f)
		_ = s.csvW.Write([]string{
			"iteration", "phase", "performance", "cap_w", "xup", "error", "workload", "e_cum_j",
		})
		s.csvW.Flush()
		if err := s.csvW.Error(); err != nil {
			s.close()
			return nil, fmt.Errorf("csv: %w", err)
		}
	}

	if jsonPath != "" {
		f, err := create(jsonPath)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("json: %w", err)
		}
		s.jsonF = f
		_, _ = s.jsonF.WriteString("[\n")
	}
	return s, nil
}

func (s *sinks) write(r row) error {
	if s.tw != nil {
		fmt.Fprintf(s.tw, "%d\t%d\t%.3f\t%s\t%.3f\t%.3f\t%.4f\t%.3f\n",
			r.Iteration, r.Phase, r.Performance, r.Cap.Humanized(), r.Xup, r.Error, r.Workload, r.EnergyCumJ)
		s.tw.Flush()
	}

	if s.csvW != nil {
		_ = s.csvW.Write([]string{
			strconv.Itoa(r.Iteration), strconv.Itoa(r.Phase),
			fmtFloat(r.Performance), fmtFloat(r.Cap.Watts()), fmtFloat(r.Xup),
			fmtFloat(r.Error), fmtFloat(r.Workload), fmtFloat(r.EnergyCumJ),
		})
		s.csvW.Flush()
		if err := s.csvW.Error(); err != nil {
			return fmt.Errorf("csv: %w", err)
		}
	}

	if s.jsonF != nil {
		b, err := json.MarshalIndent(r, "  ", "  ")
		if err != nil {
			return fmt.Errorf("json: %w", err)
		}
		if s.jsonN > 0 {
			_, _ = s.jsonF.WriteString(",\n")
		}
		_, _ = s.jsonF.WriteString("  ")
		if _, err := s.jsonF.Write(b); err != nil {
			return fmt.Errorf("json: %w", err)
		}
		s.jsonN++
	}
	return nil
}

func (s *sinks) close() {
	if s.csvW != nil {
		s.csvW.Flush()
	}
	if s.csvF != nil {
		_ = s.csvF.Close()
	}
	if s.jsonF != nil {
		_, _ = s.jsonF.WriteString("\n]\n")
		_ = s.jsonF.Close()
	}
}
