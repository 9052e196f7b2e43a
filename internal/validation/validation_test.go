package validation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateSlug(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Contact Form", "contact-form"},
		{"punctuation", "Hello, World!", "hello-world"},
		{"underscores and hyphens", "my__form -- v2", "my-form-v2"},
		{"surrounding separators", "  --Feedback--  ", "feedback"},
		{"digits", "Survey 2024", "survey-2024"},
		{"email as name", "jane.doe@example.com", "janedoeexamplecom"},
		{"only symbols", "!!!", "form"},
		{"empty", "", "form"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, GenerateSlug(tc.in, "form"))
		})
	}
}

type createRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=10"`
	Email string `json:"email" validate:"omitempty,email"`
	Role  string `json:"role" validate:"omitempty,oneof=VIEWER EDITOR"`
}

func TestStruct_Messages(t *testing.T) {
	require.NoError(t, Struct(createRequest{Name: "ok"}))
	require.EqualError(t, Struct(createRequest{}), "name is required")
	require.EqualError(t, Struct(createRequest{Name: strings.Repeat("a", 11)}), "name must be at most 10 characters")
	require.EqualError(t, Struct(createRequest{Name: "ok", Email: "nope"}), "email must be a valid email address")
	require.EqualError(t, Struct(createRequest{Name: "ok", Role: "OWNER"}), "role must be one of: VIEWER, EDITOR")
}

func TestDecodeJSON(t *testing.T) {
	var dst createRequest

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Team"}`))
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, 1024, &dst))
	require.Equal(t, "Team", dst.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	require.True(t, errors.Is(DecodeJSON(httptest.NewRecorder(), req, 1024, &dst), ErrInvalidJSON))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"`+strings.Repeat("a", 100)+`"}`))
	require.True(t, errors.Is(DecodeJSON(httptest.NewRecorder(), req, 16, &dst), ErrBodyTooLarge))
}

func TestUniqueSlug(t *testing.T) {
	taken := map[string]bool{"contact": true, "contact-1": true}
	exists := func(ctx context.Context, slug string) (bool, error) {
		return taken[slug], nil
	}

	slug, err := UniqueSlug(context.Background(), "contact", exists)
	require.NoError(t, err)
	require.Equal(t, "contact-2", slug)

	slug, err = UniqueSlug(context.Background(), "survey", exists)
	require.NoError(t, err)
	require.Equal(t, "survey", slug)
}

func TestUniqueSlug_PropagatesErrors(t *testing.T) {
	boom := errors.New("db down")
	_, err := UniqueSlug(context.Background(), "x", func(ctx context.Context, slug string) (bool, error) {
		return false, boom
	})
	require.ErrorIs(t, err, boom)
}

func TestUniqueSlug_Exhausted(t *testing.T) {
	_, err := UniqueSlug(context.Background(), "x", func(ctx context.Context, slug string) (bool, error) {
		return true, nil
	})
	require.ErrorIs(t, err, ErrSlugExhausted)
}
