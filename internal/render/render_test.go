package render

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/credenciales/internal/apperr"
	"github.com/yourorg/credenciales/internal/cache"
	"github.com/yourorg/credenciales/internal/models"
)

func sample() models.Credential {
	return models.Credential{
		ID:               "c-1",
		Kind:             models.KindMinisterial,
		Documento:        "30123456",
		Nombre:           "Juan",
		Apellido:         "Pérez",
		Nacionalidad:     "Argentina",
		FechaNacimiento:  models.NewDate(1975, time.March, 2),
		Tipo:             models.TipoPastor,
		FechaVencimiento: models.NewDate(2025, time.December, 31),
		UpdatedAt:        time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "31/12/2025", FormatDate(models.NewDate(2025, time.December, 31)))
	assert.Equal(t, "02/03/1975", FormatDate(models.NewDate(1975, time.March, 2)))
	assert.Equal(t, "", FormatDate(models.Date{}))
}

func TestDatesMatchOnScreenAndPrint(t *testing.T) {
	c := sample()

	card := NewCard(c, Layout{})
	card.Flip()
	back, err := card.HTML()
	require.NoError(t, err)
	assert.Contains(t, string(back), "31/12/2025")

	doc, err := PrintDocument(c)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "31/12/2025")
	assert.Contains(t, string(doc), "02/03/1975")
}

func TestCardFlip(t *testing.T) {
	card := NewCard(sample(), DefaultLayout)
	assert.Equal(t, FaceFrente, card.Face())

	front, err := card.HTML()
	require.NoError(t, err)
	assert.Contains(t, string(front), "Apellido / Surname")
	assert.Contains(t, string(front), "CREDENCIAL MINISTERIAL")
	assert.NotContains(t, string(front), SedeSocial)

	card.Flip()
	assert.Equal(t, FaceDorso, card.Face())
	back, err := card.HTML()
	require.NoError(t, err)
	assert.Contains(t, string(back), "Vencimiento / Expiry date")
	assert.Contains(t, string(back), SedeSocial)

	card.Flip()
	assert.Equal(t, FaceFrente, card.Face())
	card.Show(FaceDorso)
	assert.True(t, card.Flipped)
}

func TestPrintDocumentMirrorsPanels(t *testing.T) {
	c := sample()
	l := Layout{Registro: "FICHERO DE CULTOS N° 123 - CUIT 30-12345678-9"}

	doc, err := l.PrintDocument(c)
	require.NoError(t, err)
	front, err := l.FaceHTML(c, FaceFrente)
	require.NoError(t, err)
	back, err := l.FaceHTML(c, FaceDorso)
	require.NoError(t, err)

	html := string(doc)
	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, string(front), "el frente impreso es el mismo marcado que en pantalla")
	assert.Contains(t, html, string(back))
	assert.Equal(t, 2, strings.Count(html, "width:340px;height:214px"))
	for _, label := range []string{
		"Apellido / Surname",
		"Nombre / Name",
		"Documento / ID Number",
		"Nacionalidad / Nationality",
		"Fecha de nacimiento / Date of birth",
		"Tipo / Type",
	} {
		assert.Contains(t, html, label)
	}
	assert.Contains(t, html, SedeSocial)
	assert.Contains(t, html, "FICHERO DE CULTOS N° 123 - CUIT 30-12345678-9")
}

func TestPrintDocumentDefaultRegistro(t *testing.T) {
	doc, err := Layout{}.PrintDocument(sample())
	require.NoError(t, err)
	assert.Contains(t, string(doc), DefaultRegistro)
	assert.Contains(t, string(doc), SedeSocial)
}

func TestPrintDocumentEscapesFields(t *testing.T) {
	c := sample()
	c.Nombre = `<script>alert(1)</script>`
	doc, err := PrintDocument(c)
	require.NoError(t, err)
	assert.NotContains(t, string(doc), "<script>")
	assert.Contains(t, string(doc), "&lt;script&gt;")
}

func TestCapellaniaLabels(t *testing.T) {
	c := sample()
	c.Kind = models.KindCapellania
	c.Tipo = models.TipoCapellana
	front, err := DefaultLayout.FaceHTML(c, FaceFrente)
	require.NoError(t, err)
	assert.Contains(t, string(front), "CREDENCIAL DE CAPELLANÍA")
	assert.Contains(t, string(front), "Cargo / Position")
	assert.Contains(t, string(front), "CAPELLANA")
}

func TestPhotoURLUsesAssetBase(t *testing.T) {
	c := sample()
	c.FotoURL = "/uploads/foto.jpg"
	front, err := Layout{AssetBase: "http://127.0.0.1:8080/"}.FaceHTML(c, FaceFrente)
	require.NoError(t, err)
	assert.Contains(t, string(front), `src="http://127.0.0.1:8080/uploads/foto.jpg"`)

	front, err = Layout{}.FaceHTML(c, FaceFrente)
	require.NoError(t, err)
	assert.Contains(t, string(front), `src="/uploads/foto.jpg"`)
}

func TestParseFace(t *testing.T) {
	f, err := ParseFace("")
	require.NoError(t, err)
	assert.Equal(t, FaceFrente, f)
	f, err = ParseFace("DORSO")
	require.NoError(t, err)
	assert.Equal(t, FaceDorso, f)
	_, err = ParseFace("lateral")
	assert.Error(t, err)
}

func TestChromePrinterMissingBrowserIsUnavailable(t *testing.T) {
	p := NewChromePrinter("/nonexistent/chrome", time.Second, zap.NewNop())
	_, err := p.PDF(context.Background(), []byte("<html></html>"))
	require.Error(t, err)
	assert.Equal(t, apperr.Unavailable, apperr.KindOf(err))
	assert.NotEmpty(t, apperr.MessageOf(err))
}

type countingPrinter struct {
	calls int
	err   error
}

func (p *countingPrinter) PDF(_ context.Context, doc []byte) ([]byte, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return append([]byte("%PDF-"), doc...), nil
}

func TestCachedPDFByVersion(t *testing.T) {
	pdfs := cache.New[[]byte](time.Hour, 0)
	p := &countingPrinter{}
	cp := NewCachedPDF(p, DefaultLayout, pdfs)
	c := sample()

	first, err := cp.PDF(context.Background(), c)
	require.NoError(t, err)
	_, err = cp.PDF(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 1, p.calls)
	assert.True(t, strings.HasPrefix(string(first), "%PDF-"))

	c.Nombre = "Juan Carlos"
	_, err = cp.PDF(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 2, p.calls)
	assert.Equal(t, 1, pdfs.Stats().Items, "la versión anterior se descarta")
}

func TestCachedPDFSameSecondEdit(t *testing.T) {
	pdfs := cache.New[[]byte](time.Hour, 0)
	p := &countingPrinter{}
	cp := NewCachedPDF(p, DefaultLayout, pdfs)
	c := sample()

	before, err := cp.PDF(context.Background(), c)
	require.NoError(t, err)
	assert.Contains(t, string(before), "31/12/2025")

	// misma marca de tiempo, distinto vencimiento
	c.FechaVencimiento = models.NewDate(2027, time.January, 1)
	after, err := cp.PDF(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 2, p.calls)
	assert.Contains(t, string(after), "01/01/2027")
	assert.NotContains(t, string(after), "31/12/2025")
}

func TestVersionKeyIgnoresUpdatedAt(t *testing.T) {
	c := sample()
	doc, err := DefaultLayout.PrintDocument(c)
	require.NoError(t, err)
	key := VersionKey(c, doc)
	assert.True(t, strings.HasPrefix(key, "ministerial:c-1:"))

	c.UpdatedAt = c.UpdatedAt.Add(time.Minute)
	doc2, err := DefaultLayout.PrintDocument(c)
	require.NoError(t, err)
	assert.Equal(t, key, VersionKey(c, doc2))
}

func TestCachedPDFDoesNotCacheFailures(t *testing.T) {
	pdfs := cache.New[[]byte](time.Hour, 0)
	p := &countingPrinter{err: apperr.Wrap(apperr.Unavailable, errors.New("crash"), "")}
	cp := NewCachedPDF(p, DefaultLayout, pdfs)

	_, err := cp.PDF(context.Background(), sample())
	assert.Equal(t, apperr.Unavailable, apperr.KindOf(err))
	assert.Equal(t, 0, pdfs.Stats().Items)
}
