package models

// DefaultAcademicYear is the academic year every backfill and new-model lookup
// targets. It is a fixed constant, not derived from the current date.
const DefaultAcademicYear = "2024-25"

// LegacyUniversityExamType is the legacy exam_type string reserved for
// university-conducted marks. Only admins may write it.
const LegacyUniversityExamType = "University"

// ExamTypeID enumerates the exam_types reference rows.
type ExamTypeID int64

const (
	ExamTypeMid1     ExamTypeID = 1
	ExamTypeMid2     ExamTypeID = 2
	ExamTypeSemester ExamTypeID = 3
	ExamTypeSlipTest ExamTypeID = 4
)

var examTypeNames = map[ExamTypeID]string{
	ExamTypeMid1:     "Mid-1",
	ExamTypeMid2:     "Mid-2",
	ExamTypeSemester: "Semester",
	ExamTypeSlipTest: "Slip Test",
}

// String returns the reference name of the exam type.
func (id ExamTypeID) String() string {
	if name, ok := examTypeNames[id]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether id is one of the reference exam types.
func (id ExamTypeID) Valid() bool {
	_, ok := examTypeNames[id]
	return ok
}

// IsUniversity reports whether marks of this exam type count as university marks.
func (id ExamTypeID) IsUniversity() bool {
	return id == ExamTypeSemester
}

// LegacyExamTypeTable maps legacy free-text exam_type values to reference exam
// types. The table is closed: any other string has no new-model equivalent.
var LegacyExamTypeTable = map[string]ExamTypeID{
	"Internal-1": ExamTypeMid1,
	"Internal-2": ExamTypeMid2,
	"Semester":   ExamTypeSemester,
}

// LegacyExamType is the result of translating a legacy exam_type string.
type LegacyExamType struct {
	Raw    string
	ID     ExamTypeID
	Mapped bool
}

// Unmapped reports whether the legacy string has no reference exam type.
func (t LegacyExamType) Unmapped() bool { return !t.Mapped }

// TranslateLegacyExamType translates a legacy exam_type string. The function is
// total: strings outside LegacyExamTypeTable yield an explicit unmapped value.
func TranslateLegacyExamType(raw string) LegacyExamType {
	id, ok := LegacyExamTypeTable[raw]
	if !ok {
		return LegacyExamType{Raw: raw}
	}
	return LegacyExamType{Raw: raw, ID: id, Mapped: true}
}

// ExamType is a persisted exam_types row.
type ExamType struct {
	ID              ExamTypeID `db:"id" json:"id"`
	Name            string     `db:"name" json:"name"`
	ConductedBy     string     `db:"conducted_by" json:"conducted_by"`
	IsInternal      bool       `db:"is_internal" json:"is_internal"`
	DefaultMaxMarks float64    `db:"default_max_marks" json:"default_max_marks"`
}
