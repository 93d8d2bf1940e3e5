package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vibecheck-api/internal/dto"
	"github.com/noah-isme/vibecheck-api/pkg/ai"
)

type stubGenerator struct {
	profiles  []ai.StudentProfile
	extracted ai.StudentProfile
	lastImage ai.CardImage
	err       error
}

func (g *stubGenerator) GenerateStudents(_ context.Context, count int) ([]ai.StudentProfile, error) {
	if g.err != nil {
		return nil, g.err
	}
	if count < len(g.profiles) {
		return g.profiles[:count], nil
	}
	return g.profiles, nil
}

func (g *stubGenerator) ExtractStudent(_ context.Context, image ai.CardImage) (ai.StudentProfile, error) {
	g.lastImage = image
	if g.err != nil {
		return ai.StudentProfile{}, g.err
	}
	return g.extracted, nil
}

func TestSuggestionServiceDisabledWithoutGenerator(t *testing.T) {
	f := newServiceFixture(t)
	svc := NewSuggestionService(nil, f.classes, 1, f.validate, zerolog.Nop())

	_, err := svc.Suggest(context.Background(), dto.SuggestionRequest{Count: 3})
	require.ErrorIs(t, err, ErrSuggestionsDisabled)
	_, err = svc.ExtractFromCard(context.Background(), fileHeader(t, "card.png", pngBytes(t)))
	require.ErrorIs(t, err, ErrSuggestionsDisabled)
}

func TestSuggestionServiceSuggest(t *testing.T) {
	f := newServiceFixture(t)
	generator := &stubGenerator{profiles: []ai.StudentProfile{
		{Name: "Vera Kim", RollNumber: "11", Grade: "10"},
		{Name: "Wes Hall", RollNumber: "12", Grade: "10"},
	}}
	svc := NewSuggestionService(generator, f.classes, 1, f.validate, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Suggest(ctx, dto.SuggestionRequest{Count: 50})
	require.Error(t, err)

	suggestions, err := svc.Suggest(ctx, dto.SuggestionRequest{Count: 1})
	require.NoError(t, err)
	require.Equal(t, []dto.StudentSuggestion{{Name: "Vera Kim", RollNumber: "11", Grade: "10"}}, suggestions)

	generator.err = errors.New("model unavailable")
	_, err = svc.Suggest(ctx, dto.SuggestionRequest{Count: 2})
	require.EqualError(t, err, "model unavailable")
}

func TestSuggestionServiceExtractMatchesClass(t *testing.T) {
	f := newServiceFixture(t)
	classes := NewClassService(f.classes, f.validate, zerolog.Nop())
	ctx := context.Background()
	science, err := classes.Create(ctx, dto.ClassCreateRequest{Grade: "11", Section: "Science"})
	require.NoError(t, err)

	generator := &stubGenerator{extracted: ai.StudentProfile{
		Name:       "Xia Wong",
		RollNumber: "8",
		Grade:      "11",
		Section:    "Science",
		BloodGroup: "O+",
	}}
	svc := NewSuggestionService(generator, f.classes, 1, f.validate, zerolog.Nop())

	req, err := svc.ExtractFromCard(ctx, fileHeader(t, "card.png", pngBytes(t)))
	require.NoError(t, err)
	require.Equal(t, "Xia Wong", req.Name)
	require.Equal(t, science.ID, req.ClassID)
	require.Equal(t, "O+", req.BloodGroup)
	require.Equal(t, "image/png", generator.lastImage.MimeType)

	generator.extracted.Section = "Arts"
	unmatched, err := svc.ExtractFromCard(ctx, fileHeader(t, "card.png", pngBytes(t)))
	require.NoError(t, err)
	require.Empty(t, unmatched.ClassID)
	require.Equal(t, "Arts", unmatched.Section)

	_, err = svc.ExtractFromCard(ctx, fileHeader(t, "card.txt", []byte("hello")))
	require.ErrorIs(t, err, ErrAvatarTypeNotAllowed)
}
