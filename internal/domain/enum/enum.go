// Package enum lists the allowed values of every enumerated column. The
// schema enforces the same sets with CHECK constraints.
package enum

func set(values ...string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

var (
	Gender        = set("male", "female")
	BloodType     = set("A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-", "unknown")
	MaritalStatus = set("single", "married", "divorced", "widowed")
	Severity      = set("mild", "moderate", "severe", "life_threatening")

	AppointmentStatus = set("scheduled", "completed", "cancelled", "no_show", "rescheduled")
	AppointmentType   = set("consultation", "follow_up", "emergency", "checkup")

	PrescriptionStatus = set("pending", "dispensed", "cancelled")

	DonorType    = set("individual", "organization", "government", "ngo", "pharmaceutical_company")
	DonationType = set("medicine", "equipment", "medical_device", "mixed")

	EquipmentCondition = set("new", "excellent", "good", "fair", "needs_repair", "out_of_service")

	DocumentType = set("lab_result", "imaging", "prescription", "referral", "consent_form",
		"insurance_document", "identification", "medical_history", "discharge_summary", "other")

	DosageForm = set("tablet", "capsule", "syrup", "injection", "cream", "ointment", "drops",
		"inhaler", "patch", "suppository", "powder", "solution", "suspension", "gel", "spray", "other")

	TransactionType = set("prescribed", "donated", "expired", "damaged", "returned", "purchased", "lost", "stolen")
	ReferenceType   = set("prescription", "donation", "adjustment", "transfer", "disposal")

	SettingType = set("string", "integer", "boolean", "json")

	UserRole = set("admin", "staff")
)

const (
	StatusDispensed    = "dispensed"
	ConditionGood      = "good"
	DefaultBloodType   = "unknown"
	DefaultCountry     = "Unknown"
	DefaultDonorType   = "individual"
	DefaultSettingType = "string"
)
