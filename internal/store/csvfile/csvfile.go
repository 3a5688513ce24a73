// Package csvfile persists the in-memory stores to flat CSV files and loads
// them back on startup. One file per entity; writes go through a temp file
// and rename so a crash mid-save never leaves a truncated data file.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"meditrack/backend/internal/domain"
	"meditrack/backend/internal/ids"
	"meditrack/backend/internal/store"
)

// FileNames maps each entity to its CSV file within the data directory.
type FileNames struct {
	Patients     string
	Doctors      string
	Appointments string
	Bills        string
}

func DefaultFileNames() FileNames {
	return FileNames{
		Patients:     "patients.csv",
		Doctors:      "doctors.csv",
		Appointments: "appointments.csv",
		Bills:        "bills.csv",
	}
}

// Stores bundles the four entity stores the repository persists.
type Stores struct {
	Patients     *store.Store[domain.Patient]
	Doctors      *store.Store[domain.Doctor]
	Appointments *store.Store[domain.Appointment]
	Bills        *store.Store[domain.Bill]
}

type Repository struct {
	dir   string
	files FileNames
	log   *slog.Logger
}

func NewRepository(dir string, files FileNames, log *slog.Logger) (*Repository, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %q: %w", dir, err)
	}
	return &Repository{
		dir:   dir,
		files: files,
		log:   log.With(slog.String("component", "store.csvfile")),
	}, nil
}

// SaveAll writes every store to its CSV file. Each file is written fully
// even if another one fails; the first failure is returned.
func (r *Repository) SaveAll(st Stores) error {
	var firstErr error
	save := func(name string, header []string, rows [][]string) {
		if err := r.writeFile(name, header, rows); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	save(r.files.Patients, patientHeader, encodeAll(st.Patients.Snapshot(), encodePatient))
	save(r.files.Doctors, doctorHeader, encodeAll(st.Doctors.Snapshot(), encodeDoctor))
	save(r.files.Appointments, appointmentHeader, encodeAll(st.Appointments.Snapshot(), encodeAppointment))
	save(r.files.Bills, billHeader, encodeAll(st.Bills.Snapshot(), encodeBill))

	if firstErr != nil {
		return firstErr
	}
	r.log.Info("data saved",
		slog.String("dir", r.dir),
		slog.Int("patients", st.Patients.Len()),
		slog.Int("doctors", st.Doctors.Len()),
		slog.Int("appointments", st.Appointments.Len()),
		slog.Int("bills", st.Bills.Len()),
	)
	return nil
}

func encodeAll[T any](snap store.Snapshot[T], encode func(T) []string) [][]string {
	values := snap.Values()
	rows := make([][]string, 0, len(values))
	for _, v := range values {
		rows = append(rows, encode(v))
	}
	return rows
}

// LoadAll reads every CSV file into its store and advances the id allocator
// past the highest sequential id seen, so new records never collide with
// loaded ones. Every row must decode and validate; a bad row aborts the
// load with its file and line. Missing files are not an error; the
// corresponding store is left empty.
func (r *Repository) LoadAll(st Stores, alloc *ids.Prefixed) error {
	if err := loadInto(r, r.files.Patients, patientHeader, decodePatient, st.Patients, ids.KindPatient, alloc); err != nil {
		return err
	}
	if err := loadInto(r, r.files.Doctors, doctorHeader, decodeDoctor, st.Doctors, ids.KindDoctor, alloc); err != nil {
		return err
	}
	if err := loadInto(r, r.files.Appointments, appointmentHeader, decodeAppointment, st.Appointments, ids.KindAppointment, alloc); err != nil {
		return err
	}
	if err := loadInto(r, r.files.Bills, billHeader, decodeBill, st.Bills, ids.KindBill, alloc); err != nil {
		return err
	}
	r.log.Info("data loaded",
		slog.String("dir", r.dir),
		slog.Int("patients", st.Patients.Len()),
		slog.Int("doctors", st.Doctors.Len()),
		slog.Int("appointments", st.Appointments.Len()),
		slog.Int("bills", st.Bills.Len()),
	)
	return nil
}

func loadInto[T domain.Validatable](
	r *Repository,
	name string,
	header []string,
	decode func([]string) (string, T, error),
	dst *store.Store[T],
	kind ids.Kind,
	alloc *ids.Prefixed,
) error {
	rows, err := r.readFile(name, header)
	if err != nil {
		return err
	}
	if rows == nil {
		return nil
	}

	entries := make(map[string]T, len(rows))
	var maxSeen uint64
	for i, row := range rows {
		key, v, err := decode(row)
		if err != nil {
			return fmt.Errorf("%s row %d: %w", name, i+2, err)
		}
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%s row %d: %w", name, i+2, err)
		}
		entries[key] = v
		if n, ok := sequenceOf(key, kind); ok && n > maxSeen {
			maxSeen = n
		}
	}
	dst.Restore(store.NewSnapshot(dst.Name(), entries))
	if alloc != nil && maxSeen > 0 {
		alloc.Advance(kind, maxSeen)
	}
	return nil
}

// sequenceOf extracts the numeric part of a prefixed id such as "P0042".
// Ids in other formats are ignored.
func sequenceOf(id string, kind ids.Kind) (uint64, bool) {
	prefix := ids.Prefix(kind)
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	n, err := strconv.ParseUint(id[len(prefix):], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// writeFile writes header and rows to a temp file, keeps the previous file
// as a .bak copy, and renames the temp file into place.
func (r *Repository) writeFile(name string, header []string, rows [][]string) error {
	path := filepath.Join(r.dir, name)

	tmp, err := os.CreateTemp(r.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s header: %w", name, err)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s rows: %w", name, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp for %s: %w", name, err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := copyFile(path, path+".bak"); err != nil {
			r.log.Warn("could not write backup", slog.String("file", name), slog.Any("err", err))
		}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// readFile returns the data rows of a CSV file, or nil when the file does
// not exist. The header must match the expected column list exactly.
func (r *Repository) readFile(name string, header []string) ([][]string, error) {
	path := filepath.Join(r.dir, name)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = len(header)

	got, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", name, err)
	}
	for i := range header {
		if got[i] != header[i] {
			return nil, fmt.Errorf("%s: unexpected column %q at position %d, want %q", name, got[i], i, header[i])
		}
	}

	var rows [][]string
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		rows = append(rows, row)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
