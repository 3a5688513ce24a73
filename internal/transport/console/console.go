// Package console is the interactive menu frontend. It reads commands from
// stdin, calls the services, and renders results and errors as text.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"meditrack/backend/internal/domain"
	"meditrack/backend/internal/service/appointments"
	"meditrack/backend/internal/service/billing"
	"meditrack/backend/internal/service/doctors"
	"meditrack/backend/internal/service/patients"
	"meditrack/backend/internal/store"
	"meditrack/backend/internal/store/csvfile"
)

// timeLayout is the format users type and see for appointment times.
const timeLayout = "02/01/2006 15:04"

type Services struct {
	Patients     *patients.Service
	Doctors      *doctors.Service
	Appointments *appointments.Service
	Billing      *billing.Service
}

type Menu struct {
	in   *bufio.Reader
	out  io.Writer
	svc  Services
	repo *csvfile.Repository
	log  *slog.Logger
}

func NewMenu(in io.Reader, out io.Writer, svc Services, repo *csvfile.Repository, log *slog.Logger) *Menu {
	if log == nil {
		log = slog.Default()
	}
	return &Menu{
		in:   bufio.NewReader(in),
		out:  out,
		svc:  svc,
		repo: repo,
		log:  log.With(slog.String("component", "console")),
	}
}

// Run drives the main menu until the user exits or input ends. Data is saved
// on exit when a repository is configured.
func (m *Menu) Run(ctx context.Context) error {
	fmt.Fprintln(m.out, "=== MediTrack Practice Management ===")
	for {
		fmt.Fprint(m.out, `
 1. Patients
 2. Doctors
 3. Appointments
 4. Billing
 5. Reports
 6. Save data
 0. Exit
Choice: `)
		choice, err := m.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return m.shutdown()
			}
			return err
		}

		switch choice {
		case "1":
			m.patientMenu(ctx)
		case "2":
			m.doctorMenu(ctx)
		case "3":
			m.appointmentMenu(ctx)
		case "4":
			m.billingMenu(ctx)
		case "5":
			m.reports(ctx)
		case "6":
			m.save()
		case "0", "q", "exit":
			return m.shutdown()
		default:
			fmt.Fprintln(m.out, "Unknown choice.")
		}
	}
}

func (m *Menu) shutdown() error {
	m.save()
	fmt.Fprintln(m.out, "Goodbye.")
	return nil
}

func (m *Menu) save() {
	if m.repo == nil {
		return
	}
	st := csvfile.Stores{
		Patients:     m.svc.Patients.Store(),
		Doctors:      m.svc.Doctors.Store(),
		Appointments: m.svc.Appointments.Store(),
		Bills:        m.svc.Billing.Store(),
	}
	if err := m.repo.SaveAll(st); err != nil {
		m.log.Error("save failed", slog.Any("err", err))
		fmt.Fprintf(m.out, "Could not save data: %v\n", err)
		return
	}
	fmt.Fprintln(m.out, "Data saved.")
}

func statusList(statuses []domain.AppointmentStatus) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

func (m *Menu) readLine() (string, error) {
	line, err := m.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// renderError turns service errors into a one-line message the operator can
// act on.
func (m *Menu) renderError(err error) {
	var conflict *domain.ConflictError
	var invalid *domain.ValidationError
	var illegal *domain.IllegalTransitionError

	switch {
	case errors.As(err, &conflict):
		fmt.Fprintf(m.out, "That slot is taken: %s. Pick a different time.\n", conflict.Error())
	case errors.As(err, &invalid):
		fmt.Fprintf(m.out, "Invalid input: %s %s.\n", invalid.Field, invalid.Msg)
	case errors.As(err, &illegal):
		fmt.Fprintf(m.out, "Not allowed: %s.\n", illegal.Error())
		if next := illegal.From.ValidTransitions(); len(next) > 0 {
			fmt.Fprintf(m.out, "From %s you can move to: %s.\n", illegal.From, statusList(next))
		}
	case errors.Is(err, store.ErrNotFound):
		fmt.Fprintf(m.out, "Record not found: %v.\n", err)
	default:
		m.log.Error("operation failed", slog.Any("err", err))
		fmt.Fprintf(m.out, "Something went wrong: %v.\n", err)
	}
}
