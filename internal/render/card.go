// Package render produce la tarjeta de credencial: el fragmento de la cara
// visible para pantalla y el documento imprimible con frente y dorso.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yourorg/credenciales/internal/models"
)

// Textos institucionales del pie de la tarjeta. DefaultRegistro no lleva
// número de fichero ni CUIT: la línea completa se configura en
// CARD_REGISTRO_LINE.
const (
	SedeSocial      = "SEDE SOCIAL: PICO 1641 (1429) CAPITAL FEDERAL"
	DefaultRegistro = "INSCRIPTA EN EL FICHERO DE CULTOS"
)

// Medidas del panel de la tarjeta en píxeles CSS, fijas en las plantillas.
const (
	PanelWidth  = 340
	PanelHeight = 214
)

// FormatDate formatea d como dd/MM/yyyy; la fecha vacía queda en blanco.
func FormatDate(d models.Date) string {
	return d.Display()
}

// Face es la cara de la tarjeta.
type Face string

const (
	FaceFrente Face = "frente"
	FaceDorso  Face = "dorso"
)

func ParseFace(s string) (Face, error) {
	switch Face(strings.ToLower(strings.TrimSpace(s))) {
	case "", FaceFrente:
		return FaceFrente, nil
	case FaceDorso:
		return FaceDorso, nil
	}
	return "", fmt.Errorf("cara desconocida %q", s)
}

// Layout fija los textos del pie. El valor cero usa los textos por defecto.
type Layout struct {
	Sede     string
	Registro string
	// AssetBase se antepone a las fotos con ruta relativa ("/uploads/...")
	// para que el navegador de impresión pueda cargarlas.
	AssetBase string
}

// DefaultLayout es el pie institucional sin configuración.
var DefaultLayout = Layout{Sede: SedeSocial, Registro: DefaultRegistro}

func (l Layout) withDefaults() Layout {
	if l.Sede == "" {
		l.Sede = SedeSocial
	}
	if l.Registro == "" {
		l.Registro = DefaultRegistro
	}
	return l
}

// cardView es lo que ven las plantillas.
type cardView struct {
	Title            string
	TipoLabel        string
	Apellido         string
	Nombre           string
	Documento        string
	Nacionalidad     string
	FechaNacimiento  string
	Tipo             string
	FotoURL          string
	FechaVencimiento string
	Sede             string
	Registro         string
}

func (l Layout) view(c models.Credential) cardView {
	l = l.withDefaults()
	tipoLabel := "Tipo / Type"
	if c.Kind == models.KindCapellania {
		tipoLabel = "Cargo / Position"
	}
	return cardView{
		Title:            c.Kind.Title(),
		TipoLabel:        tipoLabel,
		Apellido:         c.Apellido,
		Nombre:           c.Nombre,
		Documento:        c.Documento,
		Nacionalidad:     c.Nacionalidad,
		FechaNacimiento:  FormatDate(c.FechaNacimiento),
		Tipo:             c.Tipo,
		FotoURL:          l.assetURL(c.FotoURL),
		FechaVencimiento: FormatDate(c.FechaVencimiento),
		Sede:             l.Sede,
		Registro:         l.Registro,
	}
}

func (l Layout) assetURL(u string) string {
	if l.AssetBase == "" || !strings.HasPrefix(u, "/") || strings.HasPrefix(u, "//") {
		return u
	}
	return strings.TrimRight(l.AssetBase, "/") + u
}

// FaceHTML devuelve el panel de una cara. Es el mismo marcado que usa el
// documento imprimible.
func (l Layout) FaceHTML(c models.Credential, f Face) (template.HTML, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, string(f), l.view(c)); err != nil {
		return "", fmt.Errorf("render %s: %w", f, err)
	}
	return template.HTML(buf.String()), nil
}

// PrintDocument arma el HTML autocontenido con frente y dorso lado a lado,
// listo para imprimir o convertir a PDF.
func (l Layout) PrintDocument(c models.Credential) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "document", l.view(c)); err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	return buf.Bytes(), nil
}

// PrintDocument usa DefaultLayout.
func PrintDocument(c models.Credential) ([]byte, error) {
	return DefaultLayout.PrintDocument(c)
}

// Card es la tarjeta interactiva. Flipped es estado de presentación y no se
// persiste.
type Card struct {
	Credential models.Credential
	Flipped    bool
	Layout     Layout
}

func NewCard(c models.Credential, l Layout) *Card {
	return &Card{Credential: c, Layout: l}
}

func (c *Card) Flip() { c.Flipped = !c.Flipped }

func (c *Card) Face() Face {
	if c.Flipped {
		return FaceDorso
	}
	return FaceFrente
}

// Show deja visible la cara f.
func (c *Card) Show(f Face) { c.Flipped = f == FaceDorso }

// HTML devuelve el panel de la cara visible.
func (c *Card) HTML() (template.HTML, error) {
	return c.Layout.FaceHTML(c.Credential, c.Face())
}
