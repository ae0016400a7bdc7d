package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/performance-analyzer-api/internal/dto"
	"github.com/noah-isme/performance-analyzer-api/internal/models"
	appErrors "github.com/noah-isme/performance-analyzer-api/pkg/errors"
)

func TestClassServiceTeacherSubjectsLegacyFallback(t *testing.T) {
	f := newAcademicFixture()
	semesterName := "2-1"
	f.subjects.byTeacher[7] = []models.SubjectWithSemester{{Subject: models.Subject{ID: 9, Name: "Maths", Code: "MA201"}, SemesterName: &semesterName}}
	svc := NewClassService(f.service, nil)

	resp, err := svc.TeacherSubjects(context.Background(), teacherPrincipal(7))
	require.NoError(t, err)
	assert.Equal(t, dto.ModelLegacy, resp.Model)
	require.Len(t, resp.Subjects, 1)
	assert.Equal(t, "Maths", resp.Subjects[0].Name)
	assert.Nil(t, resp.Subjects[0].SubjectOfferingID)
}

func TestClassServiceTeacherSubjectsFromOfferings(t *testing.T) {
	f := newAcademicFixture()
	f.addOffering(models.SubjectOffering{ID: 5, SubjectID: 9, SectionID: 2, TeacherID: 7, AcademicYear: models.DefaultAcademicYear})
	f.offerings.details = []models.SubjectOfferingDetail{
		{SubjectOffering: models.SubjectOffering{ID: 5, SubjectID: 9, SectionID: 2, TeacherID: 7, AcademicYear: models.DefaultAcademicYear}, SubjectName: "Maths", SectionName: "cse-a"},
	}
	f.subjects.byTeacher[7] = []models.SubjectWithSemester{{Subject: models.Subject{ID: 3, Name: "Legacy only"}}}
	svc := NewClassService(f.service, nil)

	resp, err := svc.TeacherSubjects(context.Background(), teacherPrincipal(7))
	require.NoError(t, err)
	assert.Equal(t, dto.ModelNew, resp.Model)
	require.Len(t, resp.Subjects, 1)
	assert.Equal(t, int64(9), resp.Subjects[0].ID)
	assert.Equal(t, int64(5), *resp.Subjects[0].SubjectOfferingID)
	assert.Equal(t, "cse-a", *resp.Subjects[0].SectionName)
}

func TestClassServiceSectionStudentsRequiresOffering(t *testing.T) {
	f := newAcademicFixture()
	sectionID := int64(2)
	f.students.byID[1] = &models.Student{ID: 1, SectionID: &sectionID}
	f.addOffering(models.SubjectOffering{ID: 5, SubjectID: 9, SectionID: 2, TeacherID: 7, AcademicYear: models.DefaultAcademicYear})
	svc := NewClassService(f.service, nil)

	students, err := svc.SectionStudents(context.Background(), teacherPrincipal(7), 2)
	require.NoError(t, err)
	assert.Len(t, students, 1)

	_, err = svc.SectionStudents(context.Background(), teacherPrincipal(8), 2)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	students, err = svc.SectionStudents(context.Background(), adminPrincipal(), 3)
	require.NoError(t, err)
	assert.NotNil(t, students)
	assert.Empty(t, students)
}

func TestClassServiceClassStudents(t *testing.T) {
	f := newAcademicFixture()
	deptID, semID := int64(2), int64(3)
	f.students.byID[1] = &models.Student{ID: 1, DepartmentID: &deptID, CurrentSemesterID: &semID}
	svc := NewClassService(f.service, nil)

	students, err := svc.ClassStudents(context.Background(), 2, 3)
	require.NoError(t, err)
	assert.Len(t, students, 1)
}
