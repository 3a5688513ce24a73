package csvfile

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"meditrack/backend/internal/domain"
)

// listSeparator joins multi-valued fields inside a single CSV cell. None of
// the stored values may contain it.
const listSeparator = ";"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func parseTime(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", field, err)
	}
	return t.UTC(), nil
}

func parseTimePtr(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseTime(field, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func parseFloat(field, s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return f, nil
}

func parseInt(field, s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return n, nil
}

func parseBool(field, s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%s: %w", field, err)
	}
	return b, nil
}

func joinList(items []string) string { return strings.Join(items, listSeparator) }

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, listSeparator)
}

var patientHeader = []string{
	"id", "first_name", "last_name", "date_of_birth", "gender", "email",
	"phone", "address", "blood_group", "insurance_provider",
	"insurance_policy_number", "visit_count", "medical_history", "allergies",
	"active", "created_at", "updated_at",
}

func encodePatient(p domain.Patient) []string {
	return []string{
		p.ID, p.FirstName, p.LastName, formatTime(p.DateOfBirth), p.Gender,
		p.Email, p.Phone, p.Address, p.BloodGroup, p.InsuranceProvider,
		p.InsurancePolicyNumber, strconv.Itoa(p.VisitCount),
		joinList(p.MedicalHistory()), joinList(p.Allergies()),
		strconv.FormatBool(p.Active), formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	}
}

func decodePatient(row []string) (string, domain.Patient, error) {
	var p domain.Patient
	var err error

	p.ID = row[0]
	p.FirstName, p.LastName = row[1], row[2]
	if p.DateOfBirth, err = parseTime("date_of_birth", row[3]); err != nil {
		return "", p, err
	}
	p.Gender, p.Email, p.Phone, p.Address = row[4], row[5], row[6], row[7]
	p.BloodGroup, p.InsuranceProvider, p.InsurancePolicyNumber = row[8], row[9], row[10]
	if p.VisitCount, err = parseInt("visit_count", row[11]); err != nil {
		return "", p, err
	}
	p.SetMedicalHistory(splitList(row[12]))
	p.SetAllergies(splitList(row[13]))
	if p.Active, err = parseBool("active", row[14]); err != nil {
		return "", p, err
	}
	if p.CreatedAt, err = parseTime("created_at", row[15]); err != nil {
		return "", p, err
	}
	if p.UpdatedAt, err = parseTime("updated_at", row[16]); err != nil {
		return "", p, err
	}
	return p.ID, p, nil
}

var doctorHeader = []string{
	"id", "first_name", "last_name", "date_of_birth", "gender", "email",
	"phone", "address", "license_number", "specialization",
	"years_of_experience", "consultation_fee", "department", "available",
	"active", "created_at", "updated_at",
}

func encodeDoctor(d domain.Doctor) []string {
	return []string{
		d.ID, d.FirstName, d.LastName, formatTime(d.DateOfBirth), d.Gender,
		d.Email, d.Phone, d.Address, d.LicenseNumber, string(d.Specialization),
		strconv.Itoa(d.YearsOfExperience), formatFloat(d.ConsultationFee),
		d.Department, strconv.FormatBool(d.Available),
		strconv.FormatBool(d.Active), formatTime(d.CreatedAt), formatTime(d.UpdatedAt),
	}
}

func decodeDoctor(row []string) (string, domain.Doctor, error) {
	var d domain.Doctor
	var err error

	d.ID = row[0]
	d.FirstName, d.LastName = row[1], row[2]
	if d.DateOfBirth, err = parseTime("date_of_birth", row[3]); err != nil {
		return "", d, err
	}
	d.Gender, d.Email, d.Phone, d.Address = row[4], row[5], row[6], row[7]
	d.LicenseNumber = row[8]
	d.Specialization = domain.Specialization(row[9])
	if d.YearsOfExperience, err = parseInt("years_of_experience", row[10]); err != nil {
		return "", d, err
	}
	if d.ConsultationFee, err = parseFloat("consultation_fee", row[11]); err != nil {
		return "", d, err
	}
	d.Department = row[12]
	if d.Available, err = parseBool("available", row[13]); err != nil {
		return "", d, err
	}
	if d.Active, err = parseBool("active", row[14]); err != nil {
		return "", d, err
	}
	if d.CreatedAt, err = parseTime("created_at", row[15]); err != nil {
		return "", d, err
	}
	if d.UpdatedAt, err = parseTime("updated_at", row[16]); err != nil {
		return "", d, err
	}
	return d.ID, d, nil
}

var appointmentHeader = []string{
	"id", "patient_id", "doctor_id", "start_time", "duration_minutes",
	"status", "reason_for_visit", "appointment_type", "symptoms", "diagnosis",
	"prescription", "notes", "consultation_fee", "emergency", "reminder_sent",
	"reschedule_count", "cancellation_reason", "actual_start_time",
	"actual_end_time", "active", "created_at", "updated_at",
}

func encodeAppointment(a domain.Appointment) []string {
	return []string{
		a.ID, a.PatientID, a.DoctorID, formatTime(a.StartTime),
		strconv.Itoa(a.DurationMinutes), string(a.Status), a.ReasonForVisit,
		a.AppointmentType, a.Symptoms, a.Diagnosis, a.Prescription, a.Notes,
		formatFloat(a.ConsultationFee), strconv.FormatBool(a.Emergency),
		strconv.FormatBool(a.ReminderSent), strconv.Itoa(a.RescheduleCount),
		a.CancellationReason, formatTimePtr(a.ActualStartTime),
		formatTimePtr(a.ActualEndTime), strconv.FormatBool(a.Active),
		formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
	}
}

func decodeAppointment(row []string) (string, domain.Appointment, error) {
	var a domain.Appointment
	var err error

	a.ID, a.PatientID, a.DoctorID = row[0], row[1], row[2]
	if a.StartTime, err = parseTime("start_time", row[3]); err != nil {
		return "", a, err
	}
	if a.DurationMinutes, err = parseInt("duration_minutes", row[4]); err != nil {
		return "", a, err
	}
	status, ok := domain.ParseStatus(row[5])
	if !ok {
		return "", a, fmt.Errorf("status: unknown value %q", row[5])
	}
	a.Status = status
	a.ReasonForVisit, a.AppointmentType, a.Symptoms = row[6], row[7], row[8]
	a.Diagnosis, a.Prescription, a.Notes = row[9], row[10], row[11]
	if a.ConsultationFee, err = parseFloat("consultation_fee", row[12]); err != nil {
		return "", a, err
	}
	if a.Emergency, err = parseBool("emergency", row[13]); err != nil {
		return "", a, err
	}
	if a.ReminderSent, err = parseBool("reminder_sent", row[14]); err != nil {
		return "", a, err
	}
	if a.RescheduleCount, err = parseInt("reschedule_count", row[15]); err != nil {
		return "", a, err
	}
	a.CancellationReason = row[16]
	if a.ActualStartTime, err = parseTimePtr("actual_start_time", row[17]); err != nil {
		return "", a, err
	}
	if a.ActualEndTime, err = parseTimePtr("actual_end_time", row[18]); err != nil {
		return "", a, err
	}
	if a.Active, err = parseBool("active", row[19]); err != nil {
		return "", a, err
	}
	if a.CreatedAt, err = parseTime("created_at", row[20]); err != nil {
		return "", a, err
	}
	if a.UpdatedAt, err = parseTime("updated_at", row[21]); err != nil {
		return "", a, err
	}
	return a.ID, a, nil
}

var billHeader = []string{
	"id", "appointment_id", "patient_id", "doctor_id", "base_amount",
	"discount_amount", "tax_amount", "total_amount", "amount_paid", "paid",
	"payment_method", "paid_at", "active", "created_at", "updated_at",
}

func encodeBill(b domain.Bill) []string {
	return []string{
		b.ID, b.AppointmentID, b.PatientID, b.DoctorID,
		formatFloat(b.BaseAmount), formatFloat(b.DiscountAmount),
		formatFloat(b.TaxAmount), formatFloat(b.TotalAmount),
		formatFloat(b.AmountPaid), strconv.FormatBool(b.Paid),
		b.PaymentMethod, formatTimePtr(b.PaidAt),
		strconv.FormatBool(b.Active), formatTime(b.CreatedAt), formatTime(b.UpdatedAt),
	}
}

func decodeBill(row []string) (string, domain.Bill, error) {
	var b domain.Bill
	var err error

	b.ID, b.AppointmentID, b.PatientID, b.DoctorID = row[0], row[1], row[2], row[3]
	if b.BaseAmount, err = parseFloat("base_amount", row[4]); err != nil {
		return "", b, err
	}
	if b.DiscountAmount, err = parseFloat("discount_amount", row[5]); err != nil {
		return "", b, err
	}
	if b.TaxAmount, err = parseFloat("tax_amount", row[6]); err != nil {
		return "", b, err
	}
	if b.TotalAmount, err = parseFloat("total_amount", row[7]); err != nil {
		return "", b, err
	}
	if b.AmountPaid, err = parseFloat("amount_paid", row[8]); err != nil {
		return "", b, err
	}
	if b.Paid, err = parseBool("paid", row[9]); err != nil {
		return "", b, err
	}
	b.PaymentMethod = row[10]
	if b.PaidAt, err = parseTimePtr("paid_at", row[11]); err != nil {
		return "", b, err
	}
	if b.Active, err = parseBool("active", row[12]); err != nil {
		return "", b, err
	}
	if b.CreatedAt, err = parseTime("created_at", row[13]); err != nil {
		return "", b, err
	}
	if b.UpdatedAt, err = parseTime("updated_at", row[14]); err != nil {
		return "", b, err
	}
	return b.ID, b, nil
}
