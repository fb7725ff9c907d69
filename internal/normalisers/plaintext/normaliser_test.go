package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/taxadvisor/internal/core/domain"
)

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.Equal(t, domain.FormatPlainText, normaliser.Format())
}

func TestNormalise_Success(t *testing.T) {
	raw := &domain.RawDocument{
		Path:    "income_tax-rates.txt",
		Format:  domain.FormatPlainText,
		Content: []byte("The income tax rate for individuals is 15%.\r\nSecond line."),
	}

	doc, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "income_tax-rates.txt", doc.Path)
	assert.Equal(t, "income tax rates", doc.Title)
	assert.Equal(t, "The income tax rate for individuals is 15%.\nSecond line.", doc.Content)
	assert.Equal(t, domain.FormatPlainText, doc.Format)
	assert.Len(t, doc.ContentHash, 64)
}

func TestNormalise_StripsBOM(t *testing.T) {
	raw := &domain.RawDocument{Path: "a.txt", Content: []byte("\ufeffVAT")}

	doc, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "VAT", doc.Content)
}

func TestNormalise_NilInput(t *testing.T) {
	doc, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, doc)
}

func TestNormalise_KeepsInnerBOM(t *testing.T) {
	raw := &domain.RawDocument{Path: "a.txt", Content: []byte("VAT\ufeff rate")}

	doc, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "VAT\ufeff rate", doc.Content)
}
