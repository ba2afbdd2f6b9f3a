package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/moosim/internal/dynamo"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCSV writes one row per sample: time, then the state components
// x0..x{n-1}, then the controls u0..u{m-1}. Values keep full precision.
func WriteCSV(w io.Writer, traj *dynamo.Trajectory) error {
	cw := csv.NewWriter(w)

	header := []string{"time"}
	for i := 0; i < traj.XSize(); i++ {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	for i := 0; i < traj.USize(); i++ {
		header = append(header, fmt.Sprintf("u%d", i))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for k, t := range traj.T {
		row[0] = formatFloat(t)
		for i, series := range traj.X {
			row[1+i] = formatFloat(series[k])
		}
		for i, series := range traj.U {
			row[1+traj.XSize()+i] = formatFloat(series[k])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses the WriteCSV layout for a system with xSize states and
// uSize controls.
func ReadCSV(r io.Reader, xSize, uSize int) (*dynamo.Trajectory, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 1 + xSize + uSize

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("missing header")
	}

	traj := dynamo.NewTrajectory(xSize, uSize, len(records)-1)
	x := make([]float64, xSize)
	u := make([]float64, uSize)
	for line, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line+2, err)
			}
			vals[j] = v
		}
		copy(x, vals[1:1+xSize])
		copy(u, vals[1+xSize:])
		traj.Append(vals[0], x, u)
	}
	return traj, nil
}
