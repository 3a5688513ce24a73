package console

import (
	"context"
	"fmt"

	"meditrack/backend/internal/domain"
	"meditrack/backend/internal/service/patients"
)

func (m *Menu) patientMenu(ctx context.Context) {
	for {
		fmt.Fprint(m.out, `
-- Patients --
 1. Register patient
 2. View patient
 3. Update contact details
 4. Add medical history
 5. Add allergy
 6. Record visit
 7. List patients
 8. Search patients
 9. Deactivate patient
 0. Back
Choice: `)
		choice, err := m.readLine()
		if err != nil {
			return
		}
		switch choice {
		case "1":
			m.registerPatient(ctx)
		case "2":
			m.viewPatient(ctx)
		case "3":
			m.updatePatient(ctx)
		case "4":
			m.addHistory(ctx)
		case "5":
			m.addAllergy(ctx)
		case "6":
			m.recordVisit(ctx)
		case "7":
			m.listPatients(ctx)
		case "8":
			m.searchPatients(ctx)
		case "9":
			m.deactivatePatient(ctx)
		case "0":
			return
		default:
			fmt.Fprintln(m.out, "Unknown choice.")
		}
	}
}

func (m *Menu) registerPatient(ctx context.Context) {
	in := patients.CreateInput{
		FirstName:  m.promptRequired("First name"),
		LastName:   m.promptRequired("Last name"),
		Gender:     m.prompt("Gender"),
		Email:      m.prompt("Email"),
		Phone:      m.prompt("Phone"),
		Address:    m.prompt("Address"),
		BloodGroup: m.prompt("Blood group"),
	}
	if dob, ok := m.promptDate("Date of birth"); ok {
		in.DateOfBirth = dob
	}
	in.InsuranceProvider = m.prompt("Insurance provider (blank if none)")
	if in.InsuranceProvider != "" {
		in.InsurancePolicyNumber = m.promptRequired("Policy number")
	}

	p, err := m.svc.Patients.Create(ctx, in)
	if err != nil {
		m.renderError(err)
		return
	}
	fmt.Fprintf(m.out, "Registered %s with id %s.\n", p.FullName(), p.ID)
}

func (m *Menu) viewPatient(ctx context.Context) {
	p, err := m.svc.Patients.Get(ctx, m.promptRequired("Patient id"))
	if err != nil {
		m.renderError(err)
		return
	}
	m.printPatient(p)
}

func (m *Menu) printPatient(p domain.Patient) {
	fmt.Fprintf(m.out, "%s  %s  visits:%d  active:%v\n", p.ID, p.FullName(), p.VisitCount, p.Active)
	if p.BloodGroup != "" {
		fmt.Fprintf(m.out, "  blood group: %s\n", p.BloodGroup)
	}
	if p.HasInsurance() {
		fmt.Fprintf(m.out, "  insurance: %s (%s)\n", p.InsuranceProvider, p.InsurancePolicyNumber)
	}
	if h := p.MedicalHistory(); len(h) > 0 {
		fmt.Fprintf(m.out, "  history: %v\n", h)
	}
	if a := p.Allergies(); len(a) > 0 {
		fmt.Fprintf(m.out, "  allergies: %v\n", a)
	}
}

func (m *Menu) updatePatient(ctx context.Context) {
	id := m.promptRequired("Patient id")
	in := patients.UpdateInput{
		Email:   m.prompt("Email (blank to keep)"),
		Phone:   m.prompt("Phone (blank to keep)"),
		Address: m.prompt("Address (blank to keep)"),
	}
	if _, err := m.svc.Patients.Update(ctx, id, in); err != nil {
		m.renderError(err)
		return
	}
	fmt.Fprintln(m.out, "Updated.")
}

func (m *Menu) addHistory(ctx context.Context) {
	id := m.promptRequired("Patient id")
	entry := m.promptRequired("History entry")
	if _, err := m.svc.Patients.AddMedicalHistory(ctx, id, entry); err != nil {
		m.renderError(err)
		return
	}
	fmt.Fprintln(m.out, "Recorded.")
}

func (m *Menu) addAllergy(ctx context.Context) {
	id := m.promptRequired("Patient id")
	allergy := m.promptRequired("Allergy")
	if _, err := m.svc.Patients.AddAllergy(ctx, id, allergy); err != nil {
		m.renderError(err)
		return
	}
	fmt.Fprintln(m.out, "Recorded.")
}

// recordVisit is for walk-ins; booked appointments bump the counter on
// their own.
func (m *Menu) recordVisit(ctx context.Context) {
	p, err := m.svc.Patients.RecordVisit(ctx, m.promptRequired("Patient id"))
	if err != nil {
		m.renderError(err)
		return
	}
	fmt.Fprintf(m.out, "Visit recorded: %s has %d visits.\n", p.FullName(), p.VisitCount)
}

func (m *Menu) listPatients(ctx context.Context) {
	page := m.promptInt("Page", 0)
	size := m.promptInt("Page size", 10)
	result, err := m.svc.Patients.Page(ctx, page, size)
	if err != nil {
		m.renderError(err)
		return
	}
	for _, p := range result.Content {
		fmt.Fprintf(m.out, "%s  %-30s visits:%d\n", p.ID, p.FullName(), p.VisitCount)
	}
	// Footer appears only when there is more than one page.
	if !result.IsFirst() || result.HasNext() {
		fmt.Fprintln(m.out, result)
	}
}

func (m *Menu) searchPatients(ctx context.Context) {
	for _, p := range m.svc.Patients.Search(ctx, m.promptRequired("Search term")) {
		fmt.Fprintf(m.out, "%s  %s\n", p.ID, p.FullName())
	}
}

func (m *Menu) deactivatePatient(ctx context.Context) {
	if err := m.svc.Patients.Deactivate(ctx, m.promptRequired("Patient id")); err != nil {
		m.renderError(err)
		return
	}
	fmt.Fprintln(m.out, "Deactivated.")
}
