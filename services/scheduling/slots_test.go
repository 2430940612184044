package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinodyk/patient-appointments/models"
)

// Monday, so weekday-only windows are easy to reason about.
var testNow = time.Date(2025, time.August, 4, 9, 0, 0, 0, time.UTC)

func testBooker() *Booker {
	return NewBookerAt(nil, func() time.Time { return testNow })
}

func TestFindAvailableSlots_CapAndOrder(t *testing.T) {
	b := testBooker()
	slots := b.FindAvailableSlots(Requirements{
		Specialty: "general_practice",
		Priority:  models.PriorityLow,
	})

	require.NotEmpty(t, slots)
	assert.LessOrEqual(t, len(slots), maxSlotsReturned)

	for i := 1; i < len(slots); i++ {
		prev, cur := slots[i-1], slots[i]
		if prev.Date == cur.Date {
			assert.LessOrEqual(t, timeToMinutes(prev.Time), timeToMinutes(cur.Time),
				"slots on the same day must be in clock order")
		} else {
			assert.Less(t, prev.Date, cur.Date)
		}
	}
}

func TestFindAvailableSlots_LowPriorityIsWeekdaysOnly(t *testing.T) {
	b := testBooker()
	slots := b.FindAvailableSlots(Requirements{
		Specialty: "general_practice",
		Priority:  models.PriorityLow,
	})

	for _, s := range slots {
		date, err := time.Parse("2006-01-02", s.Date)
		require.NoError(t, err)
		assert.True(t, isWeekday(date), "low priority slot on %s", s.Date)
	}
}

func TestFindAvailableSlots_EmergencyUsesHalfHourGrid(t *testing.T) {
	b := testBooker()
	slots := b.FindAvailableSlots(Requirements{
		Specialty: "emergency",
		Priority:  models.PriorityEmergency,
	})

	require.NotEmpty(t, slots)
	assert.Equal(t, testNow.Format("2006-01-02"), slots[0].Date)
	assert.Equal(t, "8:00 AM", slots[0].Time)

	times := map[string]bool{}
	for _, s := range slots {
		times[s.Time] = true
	}
	assert.True(t, times["8:30 AM"], "half-hour emergency grid expected")
}

func TestFindAvailableSlots_UnknownSpecialtyFallsBack(t *testing.T) {
	b := testBooker()
	slots := b.FindAvailableSlots(Requirements{
		Specialty: "podiatry",
		Priority:  models.PriorityMedium,
	})

	require.NotEmpty(t, slots)
	doctors := map[string]bool{}
	for _, s := range slots {
		doctors[s.Doctor] = true
	}
	assert.True(t, doctors["Dr. Sarah Johnson"] || doctors["Dr. Michael Chen"] || doctors["Dr. Emily Rodriguez"],
		"unknown specialty should surface general practice providers")
}

func TestFilterByTime(t *testing.T) {
	slots := []models.Slot{
		{Date: "2025-08-04", Time: "9:00 AM"},
		{Date: "2025-08-04", Time: "1:00 PM"},
		{Date: "2025-08-04", Time: "4:00 PM"},
	}

	morning := filterByTime(slots, "morning")
	require.Len(t, morning, 1)
	assert.Equal(t, "9:00 AM", morning[0].Time)

	afternoon := filterByTime(slots, "afternoon")
	assert.Len(t, afternoon, 2)
}

func TestExtractRequirements_FromTriage(t *testing.T) {
	b := testBooker()
	sess := models.NewSessionContext()
	sess.SymptomAnalysis = &models.SymptomAnalysis{
		Symptoms:          []string{"chest pain"},
		Severity:          models.PriorityHigh,
		SpecialtyRequired: "cardiology",
	}

	req := b.ExtractRequirements("please find me something tomorrow morning", sess)
	assert.Equal(t, "cardiology", req.Specialty)
	assert.Equal(t, models.PriorityHigh, req.Priority)
	assert.Equal(t, "tomorrow", req.PreferredDate)
	assert.Equal(t, "morning", req.PreferredTime)
}

func TestExtractRequirements_UrgencyOverrides(t *testing.T) {
	b := testBooker()
	req := b.ExtractRequirements("I need an urgent appointment asap", models.NewSessionContext())

	assert.Equal(t, models.AppointmentEmergency, req.AppointmentType)
	assert.Equal(t, models.PriorityEmergency, req.Priority)
}

func TestTimeToMinutes(t *testing.T) {
	assert.Equal(t, 9*60, timeToMinutes("9:00 AM"))
	assert.Equal(t, 13*60, timeToMinutes("1:00 PM"))
	assert.Equal(t, 8*60+30, timeToMinutes("8:30 AM"))
	assert.Equal(t, 0, timeToMinutes("12:00 AM"))
	assert.Equal(t, 12*60, timeToMinutes("12:00 PM"))
	assert.Less(t, timeToMinutes("10:00 AM"), timeToMinutes("1:00 PM"),
		"chronological order, not lexical")
}

func TestBookingConfidence_Clamped(t *testing.T) {
	many := make([]models.Slot, 6)
	high := bookingConfidence(many, Requirements{Specialty: "emergency", Priority: models.PriorityEmergency})
	assert.Equal(t, 1.0, high)

	low := bookingConfidence(nil, Requirements{Specialty: "podiatry", Priority: models.PriorityLow})
	assert.GreaterOrEqual(t, low, 0.5)
}

func TestBooker_Invoke_RejectsNonMedical(t *testing.T) {
	b := testBooker()
	sess := models.NewSessionContext()
	sess.IsMedical = false

	resp, err := b.Invoke(context.Background(), "book me a restaurant table", sess)
	require.NoError(t, err)
	assert.Equal(t, "invalid_medical_request", resp.ActionTaken)

	data, ok := resp.Data.(models.BookingData)
	require.True(t, ok)
	assert.Empty(t, data.AvailableSlots)
}

func TestBooker_Invoke_BooksOnExplicitRequest(t *testing.T) {
	b := testBooker()
	sess := models.NewSessionContext()
	sess.SymptomAnalysis = &models.SymptomAnalysis{
		Symptoms:          []string{"rash"},
		Severity:          models.PriorityMedium,
		SpecialtyRequired: "general_practice",
	}

	resp, err := b.Invoke(context.Background(), "please book the appointment for my rash", sess)
	require.NoError(t, err)

	data, ok := resp.Data.(models.BookingData)
	require.True(t, ok)
	require.NotNil(t, data.Booking)
	assert.Equal(t, "appointment_booked", resp.ActionTaken)
	assert.True(t, data.Booking.Confirmed)
	assert.Regexp(t, `^APT-[0-9A-F]{8}$`, data.Booking.AppointmentID)
	assert.Equal(t, data.AvailableSlots[0].Date, data.Booking.Date)
}

func TestBooker_Invoke_ListsSlotsWithoutBookingVocabulary(t *testing.T) {
	b := testBooker()
	sess := models.NewSessionContext()
	sess.SymptomAnalysis = &models.SymptomAnalysis{
		Symptoms: []string{"cough"},
		Severity: models.PriorityMedium,
	}

	resp, err := b.Invoke(context.Background(), "what times do you have for my cough", sess)
	require.NoError(t, err)

	data, ok := resp.Data.(models.BookingData)
	require.True(t, ok)
	assert.Nil(t, data.Booking)
	assert.NotEmpty(t, data.AvailableSlots)
	assert.Equal(t, "slots_provided", resp.ActionTaken)
	assert.NotEmpty(t, data.NextAvailable)
}
