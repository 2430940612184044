package scheduling

// Doctor is one provider on the clinic roster.
type Doctor struct {
	Name         string
	Availability string
}

// AroundTheClock marks providers that take walk-ins at any hour.
const AroundTheClock = "24/7"

// roster maps specialty keys to the providers who cover them. Specialties
// without a dedicated provider fall back to general practice.
var roster = map[string][]Doctor{
	"general_practice": {
		{Name: "Dr. Sarah Johnson", Availability: "Mon-Fri 9AM-5PM"},
		{Name: "Dr. Michael Chen", Availability: "Tue-Sat 10AM-6PM"},
		{Name: "Dr. Emily Rodriguez", Availability: "Mon-Wed-Fri 8AM-4PM"},
	},
	"cardiology": {
		{Name: "Dr. Robert Heart", Availability: "Mon-Thu 9AM-3PM"},
		{Name: "Dr. Lisa Cardiac", Availability: "Tue-Fri 11AM-5PM"},
	},
	"pulmonology": {
		{Name: "Dr. David Lung", Availability: "Mon-Wed-Fri 10AM-4PM"},
	},
	"neurology": {
		{Name: "Dr. Amanda Brain", Availability: "Tue-Thu 9AM-3PM"},
	},
	"emergency": {
		{Name: "Dr. Emergency Smith", Availability: AroundTheClock},
		{Name: "Dr. Urgent Care", Availability: AroundTheClock},
	},
}

// DoctorsFor returns the providers covering a specialty, falling back to
// general practice when the specialty has no dedicated roster entry.
func DoctorsFor(specialty string) []Doctor {
	if doctors, ok := roster[specialty]; ok {
		return doctors
	}
	return roster["general_practice"]
}

// HasSpecialty reports whether the specialty has its own roster entry.
func HasSpecialty(specialty string) bool {
	_, ok := roster[specialty]
	return ok
}
