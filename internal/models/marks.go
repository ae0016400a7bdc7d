package models

// Marks is a single exam result. The legacy columns (SubjectID, ExamType,
// TotalMarks) are always written; the reconciliation columns may be null.
type Marks struct {
	ID                int64    `db:"id" json:"id"`
	StudentID         int64    `db:"student_id" json:"student_id"`
	SubjectID         int64    `db:"subject_id" json:"subject_id"`
	ExamType          string   `db:"exam_type" json:"exam_type"`
	MarksObtained     float64  `db:"marks_obtained" json:"marks_obtained"`
	TotalMarks        float64  `db:"total_marks" json:"total_marks"`
	SubjectOfferingID *int64   `db:"subject_offering_id" json:"subject_offering_id"`
	ExamSessionID     *int64   `db:"exam_session_id" json:"exam_session_id"`
	MaxMarks          *float64 `db:"max_marks" json:"max_marks"`
	UploadedBy        *int64   `db:"uploaded_by" json:"uploaded_by"`
}

// EffectiveMax prefers the new-model max_marks and falls back to total_marks.
func (m Marks) EffectiveMax() float64 {
	if m.MaxMarks != nil {
		return *m.MaxMarks
	}
	return m.TotalMarks
}

// MarkDetail is a marks row joined with subject, semester and, when linked,
// the exam session's exam type name.
type MarkDetail struct {
	Marks
	SubjectName         string  `db:"subject_name" json:"subject_name"`
	SubjectCode         string  `db:"subject_code" json:"subject_code"`
	SemesterName        *string `db:"semester_name" json:"semester,omitempty"`
	SessionExamTypeName *string `db:"session_exam_type_name" json:"session_exam_type,omitempty"`
}

// IsUniversity classifies the row. A linked exam session decides through its
// exam type name; otherwise the legacy exam_type string decides.
func (m MarkDetail) IsUniversity() bool {
	if m.SessionExamTypeName != nil {
		return *m.SessionExamTypeName == ExamTypeSemester.String()
	}
	return m.ExamType == LegacyUniversityExamType
}

// ClassMark is a marks row annotated for class-level analysis.
type ClassMark struct {
	StudentID     int64    `db:"student_id"`
	StudentName   string   `db:"student_name"`
	SubjectName   string   `db:"subject_name"`
	ExamType      string   `db:"exam_type"`
	MarksObtained float64  `db:"marks_obtained"`
	TotalMarks    float64  `db:"total_marks"`
	MaxMarks      *float64 `db:"max_marks"`
	ExamSessionID *int64   `db:"exam_session_id"`
	SessionLabel  *string  `db:"session_label"`
}

// EffectiveMax mirrors Marks.EffectiveMax.
func (m ClassMark) EffectiveMax() float64 {
	if m.MaxMarks != nil {
		return *m.MaxMarks
	}
	return m.TotalMarks
}
