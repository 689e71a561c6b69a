package render

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/yourorg/credenciales/internal/apperr"
	"github.com/yourorg/credenciales/internal/cache"
	"github.com/yourorg/credenciales/internal/models"
)

// Printer convierte un documento HTML en PDF.
type Printer interface {
	PDF(ctx context.Context, document []byte) ([]byte, error)
}

// ChromePrinter imprime con un Chrome/Chromium headless. Si el navegador no
// está o falla, devuelve un error Unavailable que el usuario puede reintentar.
type ChromePrinter struct {
	execPath string
	timeout  time.Duration
	log      *zap.Logger
}

var chromeCandidates = []string{
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/snap/bin/chromium",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"C:\\Program Files\\Google\\Chrome\\Application\\chrome.exe",
	"C:\\Program Files (x86)\\Google\\Chrome\\Application\\chrome.exe",
	"C:\\Program Files\\Microsoft\\Edge\\Application\\msedge.exe",
}

// NewChromePrinter usa execPath si se indica; si no, busca un navegador
// instalado en el primer uso.
func NewChromePrinter(execPath string, timeout time.Duration, log *zap.Logger) *ChromePrinter {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &ChromePrinter{execPath: execPath, timeout: timeout, log: log}
}

func (p *ChromePrinter) findChrome() (string, error) {
	if p.execPath != "" {
		if _, err := os.Stat(p.execPath); err != nil {
			return "", fmt.Errorf("CHROME_PATH %s: %w", p.execPath, err)
		}
		return p.execPath, nil
	}
	for _, path := range chromeCandidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "chrome"} {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", errors.New("no se encontró Chrome ni Chromium instalado")
}

func (p *ChromePrinter) PDF(ctx context.Context, document []byte) ([]byte, error) {
	chromePath, err := p.findChrome()
	if err != nil {
		return nil, apperr.Wrap(apperr.Unavailable, err, "la impresión no está disponible: no se encontró el navegador")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(chromePath),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(p.log.Sugar().Debugf))
	defer browserCancel()

	start := time.Now()
	var pdf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(document)).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		p.log.Warn("impresión PDF fallida", zap.String("chrome", chromePath), zap.Error(err))
		return nil, apperr.Wrap(apperr.Unavailable, err, "no se pudo generar el PDF de la credencial, intente nuevamente")
	}
	p.log.Debug("PDF generado", zap.Int("bytes", len(pdf)), zap.Duration("duracion", time.Since(start)))
	return pdf, nil
}

// CachedPDF genera PDFs de credenciales y los guarda por versión del
// documento impreso: cualquier cambio visible en la credencial cambia de
// clave, aunque ocurra en el mismo segundo que la edición anterior.
type CachedPDF struct {
	printer Printer
	layout  Layout
	cache   *cache.Cache[[]byte]
}

func NewCachedPDF(p Printer, l Layout, c *cache.Cache[[]byte]) *CachedPDF {
	return &CachedPDF{printer: p, layout: l, cache: c}
}

func (c *CachedPDF) Layout() Layout { return c.layout }

func (c *CachedPDF) PDF(ctx context.Context, cred models.Credential) ([]byte, error) {
	doc, err := c.layout.PrintDocument(cred)
	if err != nil {
		return nil, err
	}
	key := VersionKey(cred, doc)
	if data, ok := c.cache.Get(key); ok {
		return data, nil
	}
	data, err := c.printer.PDF(ctx, doc)
	if err != nil {
		return nil, err
	}
	c.cache.DeletePrefix(keyPrefix(cred))
	c.cache.Set(key, data)
	return data, nil
}

// VersionKey identifica la hoja impresa de una credencial: tipo, id y el
// sha256 del HTML que se envía a la impresora.
func VersionKey(c models.Credential, document []byte) string {
	sum := sha256.Sum256(document)
	return keyPrefix(c) + hex.EncodeToString(sum[:])
}

func keyPrefix(c models.Credential) string {
	return string(c.Kind) + ":" + c.ID + ":"
}
