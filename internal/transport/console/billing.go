package console

import (
	"context"
	"fmt"

	"meditrack/backend/internal/domain"
)

func (m *Menu) billingMenu(ctx context.Context) {
	for {
		fmt.Fprint(m.out, `
-- Billing --
 1. Generate bill for appointment
 2. View bill
 3. Record payment
 4. Bills for a patient
 5. Outstanding bills
 0. Back
Choice: `)
		choice, err := m.readLine()
		if err != nil {
			return
		}
		switch choice {
		case "1":
			m.generateBill(ctx)
		case "2":
			m.viewBill(ctx)
		case "3":
			m.recordPayment(ctx)
		case "4":
			m.billsForPatient(ctx)
		case "5":
			m.outstandingBills(ctx)
		case "0":
			return
		default:
			fmt.Fprintln(m.out, "Unknown choice.")
		}
	}
}

func (m *Menu) generateBill(ctx context.Context) {
	bill, err := m.svc.Billing.Generate(ctx, m.promptRequired("Appointment id"))
	if err != nil {
		m.renderError(err)
		return
	}
	m.printBill(bill)
}

func (m *Menu) viewBill(ctx context.Context) {
	bill, err := m.svc.Billing.Get(ctx, m.promptRequired("Bill id"))
	if err != nil {
		m.renderError(err)
		return
	}
	m.printBill(bill)
}

func (m *Menu) printBill(b domain.Bill) {
	status := "UNPAID"
	if b.Paid {
		status = "PAID"
	}
	fmt.Fprintf(m.out, "%s  appointment:%s patient:%s  %s\n", b.ID, b.AppointmentID, b.PatientID, status)
	fmt.Fprintf(m.out, "  base %.2f  discount %.2f  tax %.2f  total %.2f  paid %.2f  due %.2f\n",
		b.BaseAmount, b.DiscountAmount, b.TaxAmount, b.TotalAmount, b.AmountPaid, b.Outstanding())
}

func (m *Menu) recordPayment(ctx context.Context) {
	id := m.promptRequired("Bill id")
	amount := m.promptFloat("Amount")
	method := m.promptRequired("Method (CASH/CARD/UPI)")
	bill, err := m.svc.Billing.RecordPayment(ctx, id, amount, method)
	if err != nil {
		m.renderError(err)
		return
	}
	if bill.Paid {
		fmt.Fprintln(m.out, "Payment recorded. Bill settled.")
		return
	}
	fmt.Fprintf(m.out, "Payment recorded. %.2f still due.\n", bill.Outstanding())
}

func (m *Menu) billsForPatient(ctx context.Context) {
	for _, b := range m.svc.Billing.ByPatient(ctx, m.promptRequired("Patient id")) {
		m.printBill(b)
	}
}

func (m *Menu) outstandingBills(ctx context.Context) {
	bills := m.svc.Billing.Outstanding(ctx)
	if len(bills) == 0 {
		fmt.Fprintln(m.out, "Nothing outstanding.")
		return
	}
	for _, b := range bills {
		m.printBill(b)
	}
}

func (m *Menu) reports(ctx context.Context) {
	stats := m.svc.Appointments.Statistics(ctx)
	fmt.Fprintf(m.out, "Appointments: %d active, %d emergencies\n", stats.Total, stats.Emergency)
	for _, status := range domain.AllStatuses() {
		if n := stats.ByStatus[status]; n > 0 {
			fmt.Fprintf(m.out, "  %-12s %d\n", status, n)
		}
	}

	rev := m.svc.Billing.RevenueSummary(ctx)
	fmt.Fprintf(m.out, "Billing: %d bills, %d unpaid\n", rev.BillCount, rev.UnpaidCount)
	fmt.Fprintf(m.out, "  billed %.2f  collected %.2f  outstanding %.2f\n",
		rev.Billed, rev.Collected, rev.Outstanding)

	fmt.Fprintf(m.out, "Doctors available: %d\n", len(m.svc.Doctors.Available(ctx)))
	fmt.Fprintf(m.out, "Senior patients: %d, insured: %d\n",
		len(m.svc.Patients.Seniors(ctx)), len(m.svc.Patients.Insured(ctx)))

	if today := m.svc.Appointments.Today(ctx); len(today) > 0 {
		fmt.Fprintln(m.out, "Today's schedule:")
		for _, a := range today {
			m.printAppointment(a)
		}
	}
	if overdue := m.svc.Appointments.Overdue(ctx); len(overdue) > 0 {
		fmt.Fprintf(m.out, "Overdue appointments: %d\n", len(overdue))
	}
}
