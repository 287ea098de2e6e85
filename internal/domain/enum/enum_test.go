package enum

import "testing"

func TestSets(t *testing.T) {
	tests := []struct {
		name  string
		set   map[string]bool
		count int
	}{
		{"gender", Gender, 2},
		{"blood_type", BloodType, 9},
		{"appointment_status", AppointmentStatus, 5},
		{"equipment_condition", EquipmentCondition, 6},
		{"document_type", DocumentType, 10},
		{"dosage_form", DosageForm, 16},
		{"transaction_type", TransactionType, 8},
		{"reference_type", ReferenceType, 5},
	}
	for _, tt := range tests {
		if len(tt.set) != tt.count {
			t.Errorf("%s: expected %d values, got %d", tt.name, tt.count, len(tt.set))
		}
	}
	if !EquipmentCondition[ConditionGood] || !BloodType[DefaultBloodType] || !DonorType[DefaultDonorType] {
		t.Error("defaults must belong to their sets")
	}
}
