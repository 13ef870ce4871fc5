// Package state keeps the desired and current motor positions of every array
// in CSV files and turns their difference into command payloads.
package state

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bigbag/motorlink/internal/protocol"
)

// Limits bounds the state grid.
type Limits struct {
	MaxArrays int
	MaxMotors int
	MaxTurns  int
}

// Grid holds one row of motor positions per array number.
type Grid [][]int

// Zero returns a MaxArrays x MaxMotors grid of zeros.
func Zero(limits Limits) Grid {
	grid := make(Grid, limits.MaxArrays)
	for i := range grid {
		grid[i] = make([]int, limits.MaxMotors)
	}
	return grid
}

// Check returns an error if path does not exist.
func Check(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: file not found", path)
		}
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Load reads a grid from a CSV file. Cells that are not integers read as 0.
func Load(path string) (Grid, error) {
	records, err := readRecords(path)
	if err != nil {
		return nil, err
	}

	grid := make(Grid, len(records))
	for i, row := range records {
		grid[i] = make([]int, len(row))
		for j, cell := range row {
			grid[i][j], _ = strconv.Atoi(strings.TrimSpace(cell))
		}
	}
	return grid, nil
}

// Save writes grid to path, replacing the file.
func Save(path string, grid Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, row := range grid {
		record := make([]string, len(row))
		for j, v := range row {
			record[j] = strconv.Itoa(v)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// Lint rewrites the CSV at path as a MaxArrays x MaxMotors grid.
// Each cell keeps its value only when it is an integer in (0, MaxTurns];
// anything else, including missing rows and cells, becomes 0.
func Lint(path string, limits Limits) (Grid, error) {
	records, err := readRecords(path)
	if err != nil {
		return nil, err
	}

	grid := LintRecords(records, limits)
	if err := Save(path, grid); err != nil {
		return nil, err
	}
	return grid, nil
}

// LintRecords applies the Lint rules to raw CSV records.
func LintRecords(records [][]string, limits Limits) Grid {
	grid := Zero(limits)
	for i := 0; i < limits.MaxArrays && i < len(records); i++ {
		row := records[i]
		for j := 0; j < limits.MaxMotors && j < len(row); j++ {
			v, err := strconv.Atoi(strings.TrimSpace(row[j]))
			if err != nil || v <= 0 || v > limits.MaxTurns {
				continue
			}
			grid[i][j] = v
		}
	}
	return grid
}

// Copy replaces dst with the contents of src.
func Copy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}

func readRecords(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}

// Plan builds one payload per array moving it from current to desired.
// For each motor the difference current-desired picks the direction:
// negative is Down, positive is Up, zero is None; its magnitude is the
// number of turns.
func Plan(desired, current Grid, arrays []protocol.ReadyInfo) ([]string, error) {
	payloads := make([]string, len(arrays))
	for i, arr := range arrays {
		want, err := row(desired, arr)
		if err != nil {
			return nil, fmt.Errorf("desired state: %w", err)
		}
		have, err := row(current, arr)
		if err != nil {
			return nil, fmt.Errorf("current state: %w", err)
		}

		table := protocol.NewTable(arr.Motors)
		for m := range table {
			diff := have[m] - want[m]
			switch {
			case diff < 0:
				table[m] = protocol.Command{Direction: protocol.Down, Turns: -diff}
			case diff > 0:
				table[m] = protocol.Command{Direction: protocol.Up, Turns: diff}
			default:
				table[m] = protocol.Command{Direction: protocol.None}
			}
		}
		payloads[i] = protocol.Encode(table)
	}
	return payloads, nil
}

// ResetPlan builds one payload per array raising every motor by turns.
func ResetPlan(arrays []protocol.ReadyInfo, turns int) []string {
	payloads := make([]string, len(arrays))
	for i, arr := range arrays {
		table := protocol.NewTable(arr.Motors)
		for m := range table {
			table[m] = protocol.Command{Direction: protocol.Up, Turns: turns}
		}
		payloads[i] = protocol.Encode(table)
	}
	return payloads
}

// SplitManual splits hand-typed input such as "<Up,1>;<Down,2>" into
// payloads, one per array in connection order.
func SplitManual(text string) []string {
	parts := strings.Split(text, ";")
	payloads := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.TrimPrefix(p, "<")
		p = strings.TrimSuffix(p, ">")
		payloads = append(payloads, p)
	}
	return payloads
}

func row(grid Grid, arr protocol.ReadyInfo) ([]int, error) {
	if arr.Array < 0 || arr.Array >= len(grid) {
		return nil, fmt.Errorf("no row for array %d", arr.Array)
	}
	r := grid[arr.Array]
	if arr.Motors > len(r) {
		return nil, fmt.Errorf("array %d has %d motors, row has %d", arr.Array, arr.Motors, len(r))
	}
	return r, nil
}
