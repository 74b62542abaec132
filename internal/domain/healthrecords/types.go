package healthrecords

// RecordType clasifica el evento clínico registrado.
type RecordType string

const (
	RecordTypeCheckup    RecordType = "checkup"
	RecordTypeIllness    RecordType = "illness"
	RecordTypeInjury     RecordType = "injury"
	RecordTypeSurgery    RecordType = "surgery"
	RecordTypeMedication RecordType = "medication"
	RecordTypeOther      RecordType = "other"
)

func (t RecordType) Valid() bool {
	switch t {
	case RecordTypeCheckup, RecordTypeIllness, RecordTypeInjury,
		RecordTypeSurgery, RecordTypeMedication, RecordTypeOther:
		return true
	}
	return false
}
