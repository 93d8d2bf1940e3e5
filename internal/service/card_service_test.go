package service

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vibecheck-api/internal/attendance"
	"github.com/noah-isme/vibecheck-api/internal/dto"
)

func TestCardServiceRendersStudentCard(t *testing.T) {
	f := newServiceFixture(t)
	students := registerStudents(t, f, "Sam Okafor")
	f.config.Replace(attendance.SchoolConfig{Name: "Riverdale High", Address: "123 Riverdale Ln", StartTime: "08:00"})
	cards := NewCardService(f.students, f.teachers, f.registry, f.config, zerolog.Nop())

	card, err := cards.Card(context.Background(), students[0].ID)
	require.NoError(t, err)
	require.Equal(t, "Sam Okafor", card.Person.Name)
	require.Equal(t, "STUDENT", card.Person.Type)
	require.Equal(t, "Riverdale High", card.SchoolName)
	require.Equal(t, students[0].ID, card.QRPayload)
	require.Equal(t, "/api/v1/cards/"+students[0].ID+"/qr.png", card.QRImagePath)

	raw, err := cards.QR(context.Background(), students[0].ID, 160)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, 160, img.Bounds().Dx())
}

func TestCardServiceTeacherAndUnknown(t *testing.T) {
	f := newServiceFixture(t)
	roster := newTestRoster(f)
	cards := NewCardService(f.students, f.teachers, f.registry, f.config, zerolog.Nop())
	ctx := context.Background()

	teacher, err := roster.CreateTeacher(ctx, dto.TeacherCreateRequest{Name: "Ms Vale", Subject: "History"})
	require.NoError(t, err)

	card, err := cards.Card(ctx, teacher.ID)
	require.NoError(t, err)
	require.Equal(t, "TEACHER", card.Person.Type)
	require.Equal(t, "History", card.Person.Subtitle)

	_, err = cards.Card(ctx, "nobody")
	require.ErrorIs(t, err, ErrPersonNotFound)
	_, err = cards.QR(ctx, "nobody", 0)
	require.ErrorIs(t, err, ErrPersonNotFound)
}
