package utils

import (
	"bytes"
	"context"
	"testing"
	"time"

	"go-storefront/apperr"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestIdentityTokenRoundTrip(t *testing.T) {
	ti := NewTokenIssuer("secret", time.Hour, time.Minute)

	token, err := ti.Issue("64b7f0c2e4b0a1a2b3c4d5e6", true)
	require.NoError(t, err)

	claims, err := ti.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2e4b0a1a2b3c4d5e6", claims.UserID)
	assert.True(t, claims.IsAdmin)
	assert.NotEmpty(t, claims.Id)
}

func TestTokenRejections(t *testing.T) {
	ti := NewTokenIssuer("secret", time.Hour, time.Hour)
	other := NewTokenIssuer("other-secret", time.Hour, time.Hour)
	expired := NewTokenIssuer("secret", -time.Minute, -time.Minute)

	identity, err := ti.Issue("u1", false)
	require.NoError(t, err)
	reset, err := ti.IssueReset("u1")
	require.NoError(t, err)
	forged, err := other.Issue("u1", true)
	require.NoError(t, err)
	stale, err := expired.Issue("u1", false)
	require.NoError(t, err)
	staleReset, err := expired.IssueReset("u1")
	require.NoError(t, err)

	tests := []struct {
		name  string
		parse func(string) (*Claims, error)
		token string
	}{
		{"garbage", ti.Parse, "not-a-token"},
		{"wrong key", ti.Parse, forged},
		{"expired identity", ti.Parse, stale},
		{"reset token used as identity", ti.Parse, reset},
		{"identity token used as reset", ti.ParseReset, identity},
		{"expired reset", ti.ParseReset, staleReset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := tt.parse(tt.token)
			assert.Nil(t, claims)
			assert.True(t, apperr.Is(err, apperr.Unauthorized), "got %v", err)
		})
	}
}

func TestResetTokensAreUnique(t *testing.T) {
	ti := NewTokenIssuer("secret", time.Hour, time.Hour)
	a, err := ti.IssueReset("u1")
	require.NoError(t, err)
	b, err := ti.IssueReset("u1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("RESET_TOKEN_TTL", "90m")
	t.Setenv("EMAIL_PROVIDER", "")
	t.Setenv("BASE_URL", "https://shop.example.com/")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, 30*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 90*time.Minute, cfg.ResetTokenTTL)
	assert.Equal(t, "https://shop.example.com", cfg.BaseURL)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}},
		{"bad duration", map[string]string{"JWT_SECRET": "x", "TOKEN_TTL": "soon"}},
		{"negative duration", map[string]string{"JWT_SECRET": "x", "REQUEST_TIMEOUT": "-1s"}},
		{"postmark without token", map[string]string{"JWT_SECRET": "x", "EMAIL_PROVIDER": "postmark", "POSTMARK_API_TOKEN": ""}},
		{"unknown provider", map[string]string{"JWT_SECRET": "x", "EMAIL_PROVIDER": "pigeon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"TOKEN_TTL", "RESET_TOKEN_TTL", "REQUEST_TIMEOUT", "EMAIL_PROVIDER"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	m := NewMailer(Config{}, zerolog.New(&buf))

	subject, body := ResetPasswordEmail("<Amira>", "http://localhost:5000/reset-password/abc")
	require.NoError(t, m.Send(context.Background(), "amira@example.com", subject, body))

	assert.Equal(t, "Reset Password", subject)
	assert.Contains(t, body, "&lt;Amira&gt;")
	assert.Contains(t, buf.String(), "amira@example.com")
}

func TestDisabledStorage(t *testing.T) {
	s, err := NewStorage(Config{})
	require.NoError(t, err)
	_, err = s.Upload(context.Background(), bytes.NewReader(nil), "a.png")
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func workbook(t *testing.T, rows ...[]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseProductSheet(t *testing.T) {
	buf := workbook(t,
		[]interface{}{"Slug", "Name", "Category", "Brand", "Price", "Stock", "Image", "Description", "Notes"},
		[]interface{}{"snail-cream", "Snail Cream", "Skincare", "COSRX", "25.5", "10", "/img/1.jpg", "hydrating", "x"},
		[]interface{}{},
		[]interface{}{"rice-toner", "Rice Toner", "Skincare", "I'm From", "18", "0", "/img/2.jpg", "brightening"},
	)

	products, err := ParseProductSheet(buf)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "snail-cream", products[0].Slug)
	assert.Equal(t, 25.5, *products[0].Price)
	assert.Equal(t, 10, *products[0].Stock)
	assert.Equal(t, 0, *products[1].Stock)
}

func TestParseProductSheetErrors(t *testing.T) {
	header := []interface{}{"name", "slug", "category", "brand", "price", "stock", "image", "description"}

	tests := []struct {
		name string
		buf  *bytes.Buffer
	}{
		{"not a workbook", bytes.NewBufferString("name,slug\n")},
		{"header only", workbook(t, header)},
		{"missing column", workbook(t, header[:7], []interface{}{"a", "b", "c", "d", "1", "1", "i"})},
		{"bad price", workbook(t, header, []interface{}{"a", "b", "c", "d", "cheap", "1", "i", "d"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProductSheet(tt.buf)
			assert.True(t, apperr.Is(err, apperr.Validation), "got %v", err)
		})
	}
}
