package console

import (
	"context"
	"fmt"

	"meditrack/backend/internal/domain"
	"meditrack/backend/internal/service/appointments"
)

func (m *Menu) appointmentMenu(ctx context.Context) {
	for {
		fmt.Fprint(m.out, `
-- Appointments --
 1. Book appointment
 2. View appointment
 3. Confirm
 4. Start consultation
 5. Complete consultation
 6. Cancel
 7. Mark no-show
 8. Reschedule
 9. List by doctor
10. List by patient
11. List for a day
12. List for a date range
13. Upcoming
14. Overdue
15. Active emergencies
16. Free slots for a doctor
17. Search
18. Send reminders
 0. Back
Choice: `)
		choice, err := m.readLine()
		if err != nil {
			return
		}
		switch choice {
		case "1":
			m.bookAppointment(ctx)
		case "2":
			m.viewAppointment(ctx)
		case "3":
			m.transition(ctx, "Confirmed", m.svc.Appointments.Confirm)
		case "4":
			m.transition(ctx, "Started", m.svc.Appointments.Start)
		case "5":
			m.completeAppointment(ctx)
		case "6":
			m.cancelAppointment(ctx)
		case "7":
			m.transition(ctx, "Marked as no-show", m.svc.Appointments.MarkNoShow)
		case "8":
			m.rescheduleAppointment(ctx)
		case "9":
			m.listForDoctor(ctx)
		case "10":
			m.listForPatient(ctx)
		case "11":
			m.listForDay(ctx)
		case "12":
			m.listForRange(ctx)
		case "13":
			m.listAppointments(ctx, m.svc.Appointments.Upcoming)
		case "14":
			m.listAppointments(ctx, m.svc.Appointments.Overdue)
		case "15":
			m.listAppointments(ctx, m.svc.Appointments.Emergencies)
		case "16":
			m.freeSlots(ctx)
		case "17":
			m.searchAppointments(ctx)
		case "18":
			m.sendReminders(ctx)
		case "0":
			return
		default:
			fmt.Fprintln(m.out, "Unknown choice.")
		}
	}
}

func (m *Menu) bookAppointment(ctx context.Context) {
	in := appointments.CreateInput{
		PatientID: m.promptRequired("Patient id"),
		DoctorID:  m.promptRequired("Doctor id"),
	}
	start, ok := m.promptTime("Start time")
	if !ok {
		return
	}
	in.StartTime = start
	in.DurationMinutes = m.promptInt("Duration minutes", domain.DefaultDurationMinutes)
	in.ReasonForVisit = m.promptRequired("Reason for visit")
	in.Symptoms = m.prompt("Symptoms")
	in.Emergency = m.promptBool("Emergency")

	appt, err := m.svc.Appointments.Create(ctx, in)
	if err != nil {
		m.renderError(err)
		return
	}
	fmt.Fprintf(m.out, "Booked %s at %s, fee %.2f.\n",
		appt.ID, formatTime(appt.StartTime), appt.ConsultationFee)
}

func (m *Menu) viewAppointment(ctx context.Context) {
	appt, err := m.svc.Appointments.Get(ctx, m.promptRequired("Appointment id"))
	if err != nil {
		m.renderError(err)
		return
	}
	m.printAppointment(appt)
	if appt.Diagnosis != "" {
		fmt.Fprintf(m.out, "  diagnosis: %s\n", appt.Diagnosis)
	}
	if appt.Prescription != "" {
		fmt.Fprintf(m.out, "  prescription: %s\n", appt.Prescription)
	}
	if appt.CancellationReason != "" {
		fmt.Fprintf(m.out, "  cancelled because: %s\n", appt.CancellationReason)
	}
}

func (m *Menu) printAppointment(a domain.Appointment) {
	flag := ""
	if a.Emergency {
		flag = "  EMERGENCY"
	}
	fmt.Fprintf(m.out, "%s  %s  %s -> %s  patient:%s doctor:%s  %s%s\n",
		a.ID, a.Status, formatTime(a.StartTime), formatTime(a.ScheduledEndTime()),
		a.PatientID, a.DoctorID, a.ReasonForVisit, flag)
}

func (m *Menu) transition(ctx context.Context, done string, fn func(context.Context, string) (domain.Appointment, error)) {
	id := m.promptRequired("Appointment id")
	appt, err := fn(ctx, id)
	if err != nil {
		m.renderError(err)
		return
	}
	fmt.Fprintf(m.out, "%s: %s is now %s.\n", done, appt.ID, appt.Status)
}

func (m *Menu) completeAppointment(ctx context.Context) {
	id := m.promptRequired("Appointment id")
	diagnosis := m.promptRequired("Diagnosis")
	prescription := m.prompt("Prescription")
	notes := m.prompt("Notes")
	appt, err := m.svc.Appointments.Complete(ctx, id, diagnosis, prescription, notes)
	if err != nil {
		m.renderError(err)
		return
	}
	fmt.Fprintf(m.out, "Completed %s. A bill can now be generated.\n", appt.ID)
}

func (m *Menu) cancelAppointment(ctx context.Context) {
	id := m.promptRequired("Appointment id")
	reason := m.promptRequired("Cancellation reason")
	if _, err := m.svc.Appointments.Cancel(ctx, id, reason); err != nil {
		m.renderError(err)
		return
	}
	fmt.Fprintln(m.out, "Cancelled.")
}

func (m *Menu) rescheduleAppointment(ctx context.Context) {
	id := m.promptRequired("Appointment id")
	newStart, ok := m.promptTime("New start time")
	if !ok {
		return
	}
	reason := m.prompt("Reason")
	appt, err := m.svc.Appointments.Reschedule(ctx, id, newStart, reason)
	if err != nil {
		m.renderError(err)
		return
	}
	fmt.Fprintf(m.out, "Moved %s to %s (reschedule #%d).\n",
		appt.ID, formatTime(appt.StartTime), appt.RescheduleCount)
}

func (m *Menu) listForDoctor(ctx context.Context) {
	for _, a := range m.svc.Appointments.ByDoctor(ctx, m.promptRequired("Doctor id")) {
		m.printAppointment(a)
	}
}

func (m *Menu) listForPatient(ctx context.Context) {
	for _, a := range m.svc.Appointments.ByPatient(ctx, m.promptRequired("Patient id")) {
		m.printAppointment(a)
	}
}

func (m *Menu) listAppointments(ctx context.Context, list func(context.Context) []domain.Appointment) {
	appts := list(ctx)
	if len(appts) == 0 {
		fmt.Fprintln(m.out, "Nothing to show.")
		return
	}
	for _, a := range appts {
		m.printAppointment(a)
	}
}

func (m *Menu) listForRange(ctx context.Context) {
	from, ok := m.promptDate("From date")
	if !ok {
		return
	}
	to, ok := m.promptDate("To date (inclusive)")
	if !ok {
		return
	}
	for _, a := range m.svc.Appointments.Between(ctx, from, to.AddDate(0, 0, 1)) {
		m.printAppointment(a)
	}
}

func (m *Menu) sendReminders(ctx context.Context) {
	sent, err := m.svc.Appointments.SendReminders(ctx)
	if err != nil {
		m.renderError(err)
		return
	}
	if len(sent) == 0 {
		fmt.Fprintln(m.out, "No reminders due.")
		return
	}
	for _, a := range sent {
		fmt.Fprintf(m.out, "Reminder sent for %s (%s at %s)\n",
			a.ID, a.PatientID, formatTime(a.StartTime))
	}
}

func (m *Menu) listForDay(ctx context.Context) {
	date, ok := m.promptDate("Date")
	if !ok {
		return
	}
	for _, a := range m.svc.Appointments.OnDate(ctx, date) {
		m.printAppointment(a)
	}
}

func (m *Menu) freeSlots(ctx context.Context) {
	doctorID := m.promptRequired("Doctor id")
	date, ok := m.promptDate("Date")
	if !ok {
		return
	}
	slots, err := m.svc.Appointments.AvailableSlots(ctx, doctorID, date, m.promptInt("Slot minutes", domain.DefaultDurationMinutes))
	if err != nil {
		m.renderError(err)
		return
	}
	if len(slots) == 0 {
		fmt.Fprintln(m.out, "No free slots that day.")
		return
	}
	for _, s := range slots {
		fmt.Fprintf(m.out, "  %s\n", formatTime(s))
	}
}

func (m *Menu) searchAppointments(ctx context.Context) {
	for _, a := range m.svc.Appointments.Search(ctx, m.promptRequired("Search term")) {
		m.printAppointment(a)
	}
}
