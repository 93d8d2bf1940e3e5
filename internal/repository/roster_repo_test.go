package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/vibecheck-api/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Student{},
		&models.Teacher{},
		&models.ClassSection{},
		&models.AttendanceRecord{},
		&models.SchoolProfile{},
	))
	return db
}

func TestStudentRepositoryListFiltersAndSorts(t *testing.T) {
	db := openTestDB(t)
	repo := NewStudentRepository(db)
	ctx := context.Background()

	classID := "class-10a"
	require.NoError(t, repo.Create(ctx, &models.Student{ID: "s2", Name: "Zara Khan", RollNumber: "R-02", ClassID: &classID}))
	require.NoError(t, repo.Create(ctx, &models.Student{ID: "s1", Name: "Aditi Rao", RollNumber: "R-01", ClassID: &classID}))
	require.NoError(t, repo.Create(ctx, &models.Student{ID: "s3", Name: "Bilal Noor", RollNumber: "X-99"}))

	all, err := repo.List(ctx, StudentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "Aditi Rao", all[0].Name, "expected alphabetical order")

	inClass, err := repo.List(ctx, StudentFilter{ClassID: classID})
	require.NoError(t, err)
	require.Len(t, inClass, 2)

	searched, err := repo.List(ctx, StudentFilter{Search: "x-9"})
	require.NoError(t, err)
	require.Len(t, searched, 1)
	require.Equal(t, "s3", searched[0].ID)
}

func TestStudentRepositoryDeleteAndAvatar(t *testing.T) {
	db := openTestDB(t)
	repo := NewStudentRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Student{ID: "s1", Name: "Aditi", RollNumber: "1"}))
	require.NoError(t, repo.UpdateAvatar(ctx, "s1", "https://cdn.example.com/a.png"))

	student, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/a.png", student.AvatarURL)

	require.ErrorIs(t, repo.UpdateAvatar(ctx, "missing", "x"), gorm.ErrRecordNotFound)
	require.NoError(t, repo.Delete(ctx, "s1"))
	require.ErrorIs(t, repo.Delete(ctx, "s1"), gorm.ErrRecordNotFound)

	_, err = repo.GetByID(ctx, "s1")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTeacherRepositoryCRUD(t *testing.T) {
	db := openTestDB(t)
	repo := NewTeacherRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Teacher{ID: "t2", Name: "Mr. Weatherbee", Subject: "History"}))
	require.NoError(t, repo.Create(ctx, &models.Teacher{ID: "t1", Name: "Ms. Grundy", Subject: "English"}))

	teachers, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	require.Equal(t, "t1", teachers[0].ID)

	require.NoError(t, repo.Delete(ctx, "t2"))
	_, err = repo.GetByID(ctx, "t2")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestClassRepositoryRejectsDuplicateGradeSection(t *testing.T) {
	db := openTestDB(t)
	repo := NewClassRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.ClassSection{ID: "c1", Grade: "10", Section: "A"}))
	require.NoError(t, repo.Create(ctx, &models.ClassSection{ID: "c2", Grade: "11", Section: "Science"}))
	require.Error(t, repo.Create(ctx, &models.ClassSection{ID: "c3", Grade: "10", Section: "A"}))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	classes, err := repo.List(ctx)
	require.NoError(t, err)
	require.Equal(t, "10", classes[0].Grade)
}

func TestSchoolRepositorySaveReplacesProfile(t *testing.T) {
	db := openTestDB(t)
	repo := NewSchoolRepository(db)
	ctx := context.Background()

	_, err := repo.Get(ctx)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.Save(ctx, &models.SchoolProfile{Name: "Riverdale High", StartTime: "08:00"}))
	require.NoError(t, repo.Save(ctx, &models.SchoolProfile{Name: "Riverdale High", StartTime: "08:30", Address: "123 Riverdale Ln"}))

	profile, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "08:30", profile.StartTime)
	require.Equal(t, "123 Riverdale Ln", profile.Address)

	var rows int64
	require.NoError(t, db.Model(&models.SchoolProfile{}).Count(&rows).Error)
	require.Equal(t, int64(1), rows)
}
