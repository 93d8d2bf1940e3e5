package cloudinary

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestPublicIDIsStable(t *testing.T) {
	require.Equal(t, "student-5f0c8a8e-3c7b", PublicID("student-5F0C8A8E-3c7b.png"))
	require.Equal(t, "teacher-ms-o-neil", PublicID("teacher-Ms O'Neil.jpg"))
	require.Equal(t, "avatar", PublicID("$$$.webp"))
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{CloudName: "demo"}, zerolog.Nop())
	require.Error(t, err)
}
