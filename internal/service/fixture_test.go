package service

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/vibecheck-api/internal/attendance"
	"github.com/noah-isme/vibecheck-api/internal/models"
	"github.com/noah-isme/vibecheck-api/internal/repository"
)

var testLoc = time.FixedZone("WIB", 7*60*60)

type serviceFixture struct {
	db         *gorm.DB
	mini       *miniredis.Miniredis
	redis      *redis.Client
	validate   *validator.Validate
	students   repository.StudentRepository
	teachers   repository.TeacherRepository
	classes    repository.ClassRepository
	school     repository.SchoolRepository
	attendance repository.AttendanceRepository
	registry   *attendance.MemoryRegistry
	config     *attendance.ConfigHolder
	ledger     *attendance.Ledger
}

func newServiceFixture(t *testing.T) *serviceFixture {
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

	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &serviceFixture{
		db:         db,
		mini:       mini,
		redis:      client,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		students:   repository.NewStudentRepository(db),
		teachers:   repository.NewTeacherRepository(db),
		classes:    repository.NewClassRepository(db),
		school:     repository.NewSchoolRepository(db),
		attendance: repository.NewAttendanceRepository(db),
		registry:   attendance.NewMemoryRegistry(),
		config:     attendance.NewConfigHolder(),
	}
	f.ledger = f.newLedger()
	return f
}

func (f *serviceFixture) newLedger() *attendance.Ledger {
	return attendance.NewLedger(f.registry, f.config,
		attendance.WithLocation(testLoc),
		attendance.WithSink(repository.NewAttendanceSink(f.attendance)),
	)
}

func clockAt(date string, hour, minute int) func() time.Time {
	return func() time.Time {
		day, err := time.ParseInLocation(attendance.DateLayout, date, testLoc)
		if err != nil {
			panic(err)
		}
		return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, testLoc)
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	buf := bytes.NewBuffer(nil)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := bytes.NewBuffer(nil)
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", "application/octet-stream")
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	require.Len(t, form.File["file"], 1)
	return form.File["file"][0]
}
