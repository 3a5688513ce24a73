package console

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

func (m *Menu) prompt(label string) string {
	fmt.Fprintf(m.out, "%s: ", label)
	line, err := m.readLine()
	if err != nil {
		return ""
	}
	return line
}

// promptRequired re-asks until the user types something. An empty answer
// after three attempts gives up and returns "".
func (m *Menu) promptRequired(label string) string {
	for i := 0; i < 3; i++ {
		if v := m.prompt(label); v != "" {
			return v
		}
		fmt.Fprintln(m.out, "A value is required.")
	}
	return ""
}

func (m *Menu) promptInt(label string, fallback int) int {
	v := m.prompt(fmt.Sprintf("%s [%d]", label, fallback))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fmt.Fprintln(m.out, "Not a number, using default.")
		return fallback
	}
	return n
}

func (m *Menu) promptFloat(label string) float64 {
	v := m.prompt(label)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		fmt.Fprintln(m.out, "Not a number, using 0.")
		return 0
	}
	return f
}

func (m *Menu) promptBool(label string) bool {
	v := strings.ToLower(m.prompt(label + " (y/n)"))
	return v == "y" || v == "yes"
}

// promptTime parses dd/mm/yyyy hh:mm in the clinic's local wall-clock terms.
func (m *Menu) promptTime(label string) (time.Time, bool) {
	v := m.prompt(fmt.Sprintf("%s (%s)", label, "dd/mm/yyyy hh:mm"))
	if v == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		fmt.Fprintf(m.out, "Could not parse %q as a time.\n", v)
		return time.Time{}, false
	}
	return t.UTC(), true
}

func (m *Menu) promptDate(label string) (time.Time, bool) {
	v := m.prompt(fmt.Sprintf("%s (%s)", label, "dd/mm/yyyy"))
	if v == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("02/01/2006", v)
	if err != nil {
		fmt.Fprintf(m.out, "Could not parse %q as a date.\n", v)
		return time.Time{}, false
	}
	return t.UTC(), true
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(timeLayout)
}
