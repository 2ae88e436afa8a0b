package chat

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/clinicbot/clinic/internal/domain/account"
	"github.com/clinicbot/clinic/internal/domain/billing"
	"github.com/clinicbot/clinic/internal/domain/clinic"
	"github.com/clinicbot/clinic/internal/domain/medication"
	"github.com/clinicbot/clinic/internal/domain/scheduling"
)

const divider = "-----------------\n"

const profileHelp = `You can update your profile information using these commands:
- Update my phone to [your phone number]
- Update my address to [your address]
- Update my blood type to [your blood type]
- Update my allergies to [your allergies]
- Update my emergency contact to [contact info]

For example: "Update my phone to 1234567890" or "My blood type is A+"`

func orNotProvided(v *string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return "Not provided"
	}
	return *v
}

func fieldLabel(field string) string { return strings.ReplaceAll(field, "_", " ") }

func formatProfile(v *account.ProfileView) string {
	var b strings.Builder
	b.WriteString("Your Profile Information:\n")
	name := v.User.Username
	if v.Profile != nil && v.Profile.FirstName != nil {
		name = strings.TrimSpace(*v.Profile.FirstName + " " + orEmpty(v.Profile.LastName))
	}
	fmt.Fprintf(&b, "Name: %s\n", name)
	fmt.Fprintf(&b, "Email: %s\n", v.User.Email)
	fmt.Fprintf(&b, "Phone: %s\n", orNotProvided(v.User.Phone))
	fmt.Fprintf(&b, "Address: %s\n", orNotProvided(v.User.Address))
	var blood, allergies *string
	if v.Profile != nil {
		blood, allergies = v.Profile.BloodType, v.Profile.Allergies
	}
	fmt.Fprintf(&b, "Blood Type: %s\n", orNotProvided(blood))
	fmt.Fprintf(&b, "Allergies: %s\n", orNotProvided(allergies))
	fmt.Fprintf(&b, "Emergency Contact: %s", orNotProvided(v.User.EmergencyContact))
	return b.String()
}

func orEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatAppointments(items []*scheduling.Appointment) string {
	if len(items) == 0 {
		return "You don't have any upcoming appointments scheduled."
	}
	var b strings.Builder
	b.WriteString("Your upcoming appointments:\n\n")
	for _, a := range items {
		fmt.Fprintf(&b, "ID: %s\n", a.ID)
		fmt.Fprintf(&b, "Date: %s\n", scheduling.FormatDate(a.Date))
		fmt.Fprintf(&b, "Time: %s\n", a.Time)
		fmt.Fprintf(&b, "Doctor: Dr. %s\n", a.DoctorName)
		fmt.Fprintf(&b, "Type: %s\n", a.Type)
		fmt.Fprintf(&b, "Status: %s\n", capitalize(string(a.Status)))
		b.WriteString(divider)
	}
	return b.String()
}

func formatPrescriptions(items []*medication.Prescription, activeOnly bool) string {
	if len(items) == 0 {
		if activeOnly {
			return "You don't have any active prescriptions at the moment."
		}
		return "You don't have any prescriptions on file."
	}
	var b strings.Builder
	b.WriteString("Your Prescriptions:\n\n")
	for _, p := range items {
		fmt.Fprintf(&b, "Medication: %s\n", p.MedicationName)
		fmt.Fprintf(&b, "Dosage: %s\n", orNotProvided(p.Dosage))
		fmt.Fprintf(&b, "Frequency: %s\n", orNotProvided(p.Frequency))
		if p.StartDate != nil {
			fmt.Fprintf(&b, "Start Date: %s\n", p.StartDate.Format(time.DateOnly))
		}
		if p.EndDate != nil {
			fmt.Fprintf(&b, "End Date: %s\n", p.EndDate.Format(time.DateOnly))
		}
		fmt.Fprintf(&b, "Refills Remaining: %d\n", p.RefillsRemaining)
		fmt.Fprintf(&b, "Status: %s\n", capitalize(p.Status))
		b.WriteString(divider)
	}
	if activeOnly {
		b.WriteString("\nNeed a refill? Just ask 'I need a refill for [medication name]'")
	}
	return b.String()
}

func formatPrescriptionDetail(p *medication.Prescription) string {
	if p.RefillsRemaining <= 0 {
		return fmt.Sprintf("You have no refills remaining for %s. Please contact your doctor for a new prescription.", p.MedicationName)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Prescription Details for %s:\n\n", p.MedicationName)
	fmt.Fprintf(&b, "Dosage: %s\n", orNotProvided(p.Dosage))
	fmt.Fprintf(&b, "Frequency: %s\n", orNotProvided(p.Frequency))
	fmt.Fprintf(&b, "Refills Remaining: %d\n", p.RefillsRemaining)
	if p.EndDate != nil {
		fmt.Fprintf(&b, "Valid until: %s\n", p.EndDate.Format(time.DateOnly))
	}
	b.WriteString("\nYou can request a refill from the Prescriptions page or set a refill reminder there.")
	return b.String()
}

func formatBills(o *billing.Outstanding) string {
	if len(o.Bills) == 0 {
		return "You don't have any outstanding bills."
	}
	var b strings.Builder
	b.WriteString("Your billing information:\n\n")
	for _, bill := range o.Bills {
		fmt.Fprintf(&b, "Service: %s\n", bill.Description)
		fmt.Fprintf(&b, "Amount: $%.2f\n", bill.Amount)
		fmt.Fprintf(&b, "Due date: %s\n", bill.DueDate.Format(time.DateOnly))
		fmt.Fprintf(&b, "Status: %s\n", bill.Status)
		b.WriteString(divider)
	}
	fmt.Fprintf(&b, "\nTotal outstanding: $%.2f", o.Total)
	return b.String()
}

var weekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

func formatDoctors(doctors []*scheduling.Doctor, speciality string) string {
	if len(doctors) == 0 {
		if speciality != "" {
			return fmt.Sprintf("Sorry, we don't have any %s doctors available right now.", speciality)
		}
		return "Sorry, no doctors are available right now."
	}
	var b strings.Builder
	b.WriteString("Here are our available doctors:\n\n")
	for _, d := range doctors {
		fmt.Fprintf(&b, "Dr. %s - %s\n", d.Name, d.Speciality)
		var days []string
		for _, wd := range weekOrder {
			iv, ok, err := d.Schedule.Hours(wd)
			if err != nil || !ok {
				continue
			}
			days = append(days, fmt.Sprintf("%s %s-%s", wd.String()[:3], scheduling.FormatClock(iv.Start), scheduling.FormatClock(iv.End)))
		}
		if len(days) > 0 {
			fmt.Fprintf(&b, "Hours: %s\n", strings.Join(days, ", "))
		}
		b.WriteString("\n")
	}
	b.WriteString("Please choose a doctor and time slot.")
	return b.String()
}

type clinicTopic int

const (
	clinicAll clinicTopic = iota
	clinicHours
	clinicLocation
	clinicContact
)

func formatClinic(info *clinic.Info, topic clinicTopic) string {
	mapURL := orNotProvided(info.MapURL)
	switch topic {
	case clinicHours:
		return fmt.Sprintf("Our clinic hours are:\n%s\n\nEmergency hours: %s\n\nNeed to schedule an appointment?",
			info.OpeningHours, info.EmergencyHours)
	case clinicLocation:
		return fmt.Sprintf("We are located at:\n%s\n\nMap: %s", info.Address, mapURL)
	case clinicContact:
		return fmt.Sprintf("Phone: %s\nEmail: %s\n\nHow can we help you today?", info.Phone, info.Email)
	}
	return fmt.Sprintf("Clinic Information:\n%s\nAddress: %s\nPhone: %s\nEmail: %s\nHours: %s\nEmergency: %s\nMap: %s\n\nWould you like to schedule an appointment?",
		info.Name, info.Address, info.Phone, info.Email, info.OpeningHours, info.EmergencyHours, mapURL)
}

func formatBooked(a *scheduling.Appointment) string {
	return fmt.Sprintf("Appointment scheduled successfully!\nDate: %s\nTime: %s\nDoctor: Dr. %s\nType: %s\nFee: $%.2f\n\nYour appointment has been booked.",
		scheduling.FormatDate(a.Date), a.Time, a.DoctorName, a.Type, billing.AppointmentPrice(a.Type))
}

// formatSlots groups free slots by doctor.
func formatSlots(intro string, slots []scheduling.Slot) string {
	byDoctor := make(map[string][]string)
	for _, s := range slots {
		byDoctor[s.Doctor] = append(byDoctor[s.Doctor], s.Time)
	}
	names := make([]string, 0, len(byDoctor))
	for name := range byDoctor {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(intro)
	for _, name := range names {
		fmt.Fprintf(&b, "\nDr. %s:\n%s\n", name, strings.Join(byDoctor[name], ", "))
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
