package program

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// DefaultPDFTimeout bounds a single PDF export.
const DefaultPDFTimeout = 30 * time.Second

// PDFExporter prints the HTML encoding of a program through headless Chromium.
type PDFExporter struct {
	// Timeout bounds the whole export. Zero means DefaultPDFTimeout.
	Timeout time.Duration
	// AllocatorOptions are passed to chromedp when non-empty, for example to
	// point at a specific Chromium binary.
	AllocatorOptions []chromedp.ExecAllocatorOption
}

// Export renders p as an A4 PDF document.
func (e PDFExporter) Export(parentCtx context.Context, p Program) ([]byte, error) {
	var html bytes.Buffer
	if err := EncodeHTML(&html, p); err != nil {
		return nil, err
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultPDFTimeout
	}

	allocCtx := parentCtx
	if len(e.AllocatorOptions) > 0 {
		var cancelAlloc context.CancelFunc
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(parentCtx, e.AllocatorOptions...)
		defer cancelAlloc()
	}

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, timeout)
	defer timeoutCancel()

	var pdf []byte
	tasks := chromedp.Tasks{
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html.String()).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("program: chromedp run failed: %w", err)
	}
	return pdf, nil
}
