package service

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// WriteTable writes a nested table with sorted keys: the outer key on its own line,
// then one tab-indented "inner: value" line per entry, then a blank line
func WriteTable(w io.Writer, table map[string]map[string]float64) error {
	bw := bufio.NewWriter(w)

	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		nested := table[key]
		subkeys := make([]string, 0, len(nested))
		for k := range nested {
			subkeys = append(subkeys, k)
		}
		sort.Strings(subkeys)

		if _, err := fmt.Fprintln(bw, key); err != nil {
			return err
		}
		for _, subkey := range subkeys {
			if _, err := fmt.Fprintf(bw, "\t%s: %s\n", subkey, FormatProbability(nested[subkey])); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(bw); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// FormatProbability renders the shortest round-trip form, keeping a decimal point on whole numbers (1.0)
func FormatProbability(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eIN") {
		s += ".0"
	}
	return s
}

// TableFile pairs an output path with the table written to it
type TableFile struct {
	Path  string
	Table map[string]map[string]float64
}

// rename is swapped in tests to fail individual moves
var rename = os.Rename

// stagedTable tracks one output through the commit: its temp file, the backup of
// the file it replaces and whether the new content is in place
type stagedTable struct {
	path      string
	tmp       string
	backup    string
	committed bool
}

// WriteTablesAtomic writes every table to a temporary file first and renames them into place
// only after all writes succeeded. If a move fails, files already moved are rolled back to
// their previous content, so a failed run leaves either the old dumps or none.
func WriteTablesAtomic(files ...TableFile) error {
	staged := make([]stagedTable, 0, len(files))
	cleanup := func() {
		for _, s := range staged {
			os.Remove(s.tmp)
		}
	}

	for _, f := range files {
		if err := os.MkdirAll(filepath.Dir(f.Path), 0755); err != nil {
			cleanup()
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		tmp, err := os.CreateTemp(filepath.Dir(f.Path), filepath.Base(f.Path)+".tmp-*")
		if err != nil {
			cleanup()
			return fmt.Errorf("failed to create temp file: %w", err)
		}
		staged = append(staged, stagedTable{path: f.Path, tmp: tmp.Name()})

		if err := WriteTable(tmp, f.Table); err != nil {
			tmp.Close()
			cleanup()
			return fmt.Errorf("failed to write %s: %w", f.Path, err)
		}
		if err := tmp.Close(); err != nil {
			cleanup()
			return fmt.Errorf("failed to close %s: %w", f.Path, err)
		}
	}

	for i := range staged {
		s := &staged[i]
		if _, err := os.Stat(s.path); err == nil {
			s.backup = s.tmp + ".bak"
			if err := rename(s.path, s.backup); err != nil {
				s.backup = ""
				rollbackTables(staged)
				return fmt.Errorf("failed to back up %s: %w", s.path, err)
			}
		}
		if err := rename(s.tmp, s.path); err != nil {
			rollbackTables(staged)
			return fmt.Errorf("failed to move %s into place: %w", s.path, err)
		}
		s.committed = true
	}

	for _, s := range staged {
		if s.backup != "" {
			os.Remove(s.backup)
		}
	}
	return nil
}

// rollbackTables restores every backed up file and drops new content and temp files
func rollbackTables(staged []stagedTable) {
	for i := len(staged) - 1; i >= 0; i-- {
		s := staged[i]
		if s.committed {
			os.Remove(s.path)
		} else {
			os.Remove(s.tmp)
		}
		if s.backup != "" {
			os.Rename(s.backup, s.path)
		}
	}
}
