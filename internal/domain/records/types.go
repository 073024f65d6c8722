package records

type RecordType string

const (
	TypeVaccination RecordType = "vaccination"
	TypeCheckup     RecordType = "checkup"
	TypeSurgery     RecordType = "surgery"
	TypeMedication  RecordType = "medication"
	TypeEmergency   RecordType = "emergency"
	TypeDiagnostic  RecordType = "diagnostic"
	TypeTreatment   RecordType = "treatment"
	TypeOther       RecordType = "other"
)

var knownTypes = map[RecordType]struct{}{
	TypeVaccination: {},
	TypeCheckup:     {},
	TypeSurgery:     {},
	TypeMedication:  {},
	TypeEmergency:   {},
	TypeDiagnostic:  {},
	TypeTreatment:   {},
	TypeOther:       {},
}

func validType(t RecordType) bool {
	_, ok := knownTypes[t]
	return ok
}
