package console

import (
	"context"
	"fmt"
	"strings"

	"meditrack/backend/internal/domain"
	"meditrack/backend/internal/service/doctors"
)

func (m *Menu) doctorMenu(ctx context.Context) {
	for {
		fmt.Fprint(m.out, `
-- Doctors --
 1. Register doctor
 2. View doctor
 3. Set availability
 4. List doctors
 5. List by specialization
 6. Search doctors
 7. Deactivate doctor
 0. Back
Choice: `)
		choice, err := m.readLine()
		if err != nil {
			return
		}
		switch choice {
		case "1":
			m.registerDoctor(ctx)
		case "2":
			m.viewDoctor(ctx)
		case "3":
			m.setAvailability(ctx)
		case "4":
			m.listDoctors(ctx)
		case "5":
			m.listBySpecialization(ctx)
		case "6":
			m.searchDoctors(ctx)
		case "7":
			m.deactivateDoctor(ctx)
		case "0":
			return
		default:
			fmt.Fprintln(m.out, "Unknown choice.")
		}
	}
}

func (m *Menu) promptSpecialization() (domain.Specialization, bool) {
	names := make([]string, 0, len(domain.AllSpecializations()))
	for _, s := range domain.AllSpecializations() {
		names = append(names, string(s))
	}
	v := m.promptRequired(fmt.Sprintf("Specialization (%s)", strings.Join(names, ", ")))
	spec, ok := domain.ParseSpecialization(v)
	if !ok {
		fmt.Fprintf(m.out, "Unknown specialization %q.\n", v)
		return "", false
	}
	return spec, true
}

func (m *Menu) registerDoctor(ctx context.Context) {
	spec, ok := m.promptSpecialization()
	if !ok {
		return
	}
	in := doctors.CreateInput{
		FirstName:         m.promptRequired("First name"),
		LastName:          m.promptRequired("Last name"),
		Email:             m.prompt("Email"),
		Phone:             m.prompt("Phone"),
		LicenseNumber:     m.promptRequired("License number"),
		Specialization:    spec,
		YearsOfExperience: m.promptInt("Years of experience", 0),
		Department:        m.prompt("Department"),
	}

	doc, err := m.svc.Doctors.Create(ctx, in)
	if err != nil {
		m.renderError(err)
		return
	}
	fmt.Fprintf(m.out, "Registered Dr. %s with id %s, consultation fee %.2f.\n",
		doc.FullName(), doc.ID, doc.ConsultationFee)
}

func (m *Menu) viewDoctor(ctx context.Context) {
	doc, err := m.svc.Doctors.Get(ctx, m.promptRequired("Doctor id"))
	if err != nil {
		m.renderError(err)
		return
	}
	m.printDoctor(doc)
}

func (m *Menu) printDoctor(d domain.Doctor) {
	fmt.Fprintf(m.out, "%s  Dr. %s  %s  %dy  fee:%.2f  available:%v  active:%v\n",
		d.ID, d.FullName(), d.Specialization, d.YearsOfExperience,
		d.ConsultationFee, d.Available, d.Active)
}

func (m *Menu) setAvailability(ctx context.Context) {
	id := m.promptRequired("Doctor id")
	available := m.promptBool("Available")
	if _, err := m.svc.Doctors.SetAvailability(ctx, id, available); err != nil {
		m.renderError(err)
		return
	}
	fmt.Fprintln(m.out, "Updated.")
}

func (m *Menu) listDoctors(ctx context.Context) {
	for _, d := range m.svc.Doctors.All(ctx) {
		m.printDoctor(d)
	}
}

func (m *Menu) listBySpecialization(ctx context.Context) {
	spec, ok := m.promptSpecialization()
	if !ok {
		return
	}
	for _, d := range m.svc.Doctors.BySpecialization(ctx, spec) {
		m.printDoctor(d)
	}
}

func (m *Menu) searchDoctors(ctx context.Context) {
	for _, d := range m.svc.Doctors.Search(ctx, m.promptRequired("Search term")) {
		m.printDoctor(d)
	}
}

func (m *Menu) deactivateDoctor(ctx context.Context) {
	if err := m.svc.Doctors.Deactivate(ctx, m.promptRequired("Doctor id")); err != nil {
		m.renderError(err)
		return
	}
	fmt.Fprintln(m.out, "Deactivated.")
}
