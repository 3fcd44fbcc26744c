// internal/app/system/pdf/pdf.go
package pdf

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Chrome prints HTML documents to PDF with a headless Chrome started per call.
type Chrome struct {
	opts []chromedp.ExecAllocatorOption
	log  *zap.Logger
}

// NewChrome uses the chromedp default flags plus any extra options (for
// example chromedp.ExecPath).
func NewChrome(logger *zap.Logger, extra ...chromedp.ExecAllocatorOption) *Chrome {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.DisableGPU, chromedp.NoSandbox)
	opts = append(opts, extra...)
	return &Chrome{opts: opts, log: logger}
}

// Render loads html into a blank page and prints it with backgrounds.
func (c *Chrome) Render(ctx context.Context, html string) ([]byte, error) {
	if html == "" {
		return nil, errors.New("empty document")
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, c.opts...)
	defer cancelAlloc()
	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	var out []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			out = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	c.log.Debug("pdf rendered", zap.Int("bytes", len(out)))
	return out, nil
}
