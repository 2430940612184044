package scheduling

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vinodyk/patient-appointments/models"
	"github.com/vinodyk/patient-appointments/services/rules"
)

var bookingKeywords = []string{"book", "schedule", "confirm", "reserve", "choose", "select", "pick"}

var numberRe = regexp.MustCompile(`\b(\d+)\b`)

// ReferencesPreviousSlots reports whether the message is selecting one of
// the slots offered on an earlier turn. A doctor name fragment or a
// verbatim slot time/date counts on its own; a bare number only counts
// when booking vocabulary is present and the number is within range of
// the offered list, so "I've had this for 3 days" never books slot three.
func ReferencesPreviousSlots(message string, slots []models.Slot) bool {
	if len(slots) == 0 {
		return false
	}
	lower := strings.ToLower(message)

	if referencedSlot(lower, slots) != nil {
		return true
	}
	if matchesSlotTimeOrDate(lower, slots) {
		return true
	}

	if !rules.ContainsAny(message, bookingKeywords...) {
		return false
	}
	if n, ok := firstNumber(lower); ok && n >= 1 && n <= len(slots) {
		return true
	}
	if mentionsRosterDoctor(lower) {
		return true
	}
	return strings.Contains(lower, "appointment")
}

func matchesSlotTimeOrDate(lower string, slots []models.Slot) bool {
	squeezed := strings.ReplaceAll(lower, " ", "")
	for i := range slots {
		timeStr := strings.ReplaceAll(strings.ToLower(slots[i].Time), " ", "")
		if strings.Contains(squeezed, timeStr) {
			return true
		}
		if slots[i].Date != "" && strings.Contains(lower, slots[i].Date) {
			return true
		}
	}
	return false
}

// ResolveSlot picks the slot the message refers to. Resolution order is
// doctor name, then slot number, then time of day. No match returns nil
// with wantsFirst reporting whether the message still reads as an
// unambiguous "book it" that should take the first offered slot.
func ResolveSlot(message string, slots []models.Slot) (selected *models.Slot, wantsFirst bool) {
	lower := strings.ToLower(message)

	if s := referencedSlot(lower, slots); s != nil {
		return s, false
	}

	if n, ok := firstNumber(lower); ok {
		if n >= 1 && n <= len(slots) && rules.ContainsAny(message, bookingKeywords...) {
			return &slots[n-1], false
		}
	}

	for i := range slots {
		timeStr := strings.ReplaceAll(strings.ToLower(slots[i].Time), " ", "")
		if strings.Contains(strings.ReplaceAll(lower, " ", ""), timeStr) {
			return &slots[i], false
		}
	}

	if rules.ContainsAny(message, "book", "schedule", "confirm", "yes") {
		return nil, true
	}
	return nil, false
}

// referencedSlot matches the message against the doctor names in the
// offered slots. Honorifics are stripped before matching so "with Chen"
// finds "Dr. Michael Chen".
func referencedSlot(lower string, slots []models.Slot) *models.Slot {
	for i := range slots {
		doctor := strings.ToLower(slots[i].Doctor)
		doctor = strings.TrimPrefix(doctor, "dr. ")
		for _, part := range strings.Fields(doctor) {
			if strings.Contains(lower, part) {
				return &slots[i]
			}
		}
	}
	return nil
}

func firstNumber(lower string) (int, bool) {
	m := numberRe.FindStringSubmatch(lower)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func mentionsRosterDoctor(lower string) bool {
	for _, doctors := range roster {
		for _, doc := range doctors {
			name := strings.TrimPrefix(strings.ToLower(doc.Name), "dr. ")
			for _, part := range strings.Fields(name) {
				if strings.Contains(lower, part) {
					return true
				}
			}
		}
	}
	return false
}
