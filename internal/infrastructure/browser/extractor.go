package browser

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"licitradar/internal/config"
	"licitradar/internal/domain"
	"licitradar/internal/ports"
)

// minCorpusLength is the point below which the main document text is
// considered incomplete and nested iframes are harvested as well.
const minCorpusLength = 1000

var (
	onclickURLExpr = regexp.MustCompile(`'(http.*?)'`)
	organismExpr   = regexp.MustCompile(`Nombre del Organismo\s*:\s*(.*)`)
	paymentExpr    = regexp.MustCompile(`(?i)reclamos?[^\n]*pago[^\n]*`)
)

// Extractor drives a scoped headless-browser session to capture the
// technical detail page of one tender. Each extraction acquires its own
// browser and tears it down on every exit path.
type Extractor struct {
	portalURL string
	headless  bool
	timeout   time.Duration
	logger    *slog.Logger
}

var _ ports.DetailExtractor = (*Extractor)(nil)

// NewExtractor builds the adapter from browser configuration.
func NewExtractor(cfg config.BrowserConfig, logger *slog.Logger) *Extractor {
	return &Extractor{
		portalURL: cfg.PortalURL,
		headless:  cfg.IsHeadless(),
		timeout:   cfg.Timeout(),
		logger:    logger,
	}
}

// Extract searches the portal for the external id, resolves the detail
// link, and captures the page text plus best-effort metadata. On failure it
// returns the sentinel-populated result alongside the error; it never
// panics past this boundary.
func (e *Extractor) Extract(ctx context.Context, externalID string) (domain.Detail, error) {
	result := domain.SentinelDetail(time.Now())

	chrome := launcher.New().Headless(e.headless).NoSandbox(true)
	controlURL, err := chrome.Launch()
	if err != nil {
		return result, fmt.Errorf("launch browser: %w", err)
	}
	defer chrome.Cleanup()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return result, fmt.Errorf("connect browser: %w", err)
	}
	defer func() { _ = browser.Close() }()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return result, fmt.Errorf("open page: %w", err)
	}
	page = page.Timeout(e.timeout)

	dismissPortalDialogs(page)

	link, err := e.resolveDetailLink(page, externalID)
	if err != nil {
		return result, fmt.Errorf("resolve detail link for %s: %w", externalID, err)
	}
	result.Link = link

	corpus, err := e.captureCorpus(page, link)
	if err != nil {
		return result, fmt.Errorf("capture corpus for %s: %w", externalID, err)
	}
	result.Corpus = corpus

	e.rescueMetadata(page, corpus, &result)

	e.debug("extraction completed", "tender", externalID, "corpus_bytes", len(corpus))
	return result, nil
}

// resolveDetailLink runs the portal search and pulls the detail URL out of
// the result anchor's onclick handler inside the results iframe.
func (e *Extractor) resolveDetailLink(page *rod.Page, externalID string) (string, error) {
	if err := page.Navigate(e.portalURL); err != nil {
		return "", fmt.Errorf("navigate portal: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait portal load: %w", err)
	}

	search, err := page.Element("#txtBuscar")
	if err != nil {
		return "", fmt.Errorf("locate search box: %w", err)
	}
	if err := search.Input(externalID); err != nil {
		return "", fmt.Errorf("type external id: %w", err)
	}

	button, err := page.Element("#btnBuscar")
	if err != nil {
		return "", fmt.Errorf("locate search button: %w", err)
	}
	if err := button.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return "", fmt.Errorf("click search: %w", err)
	}

	frameEl, err := page.Element("#form-iframe")
	if err != nil {
		return "", fmt.Errorf("locate results iframe: %w", err)
	}
	frame, err := frameEl.Frame()
	if err != nil {
		return "", fmt.Errorf("enter results iframe: %w", err)
	}

	anchor, err := frame.Timeout(e.timeout).ElementX(
		fmt.Sprintf(`//a[contains(@onclick, '%s')]`, externalID))
	if err != nil {
		return "", fmt.Errorf("locate result anchor: %w", err)
	}
	onclick, err := anchor.Attribute("onclick")
	if err != nil {
		return "", fmt.Errorf("read onclick attribute: %w", err)
	}
	if onclick == nil {
		return "", fmt.Errorf("result anchor has no onclick attribute")
	}

	match := onclickURLExpr.FindStringSubmatch(*onclick)
	if match == nil {
		return "", fmt.Errorf("no detail url in onclick %q", *onclick)
	}
	return match[1], nil
}

// captureCorpus navigates to the detail page and collects its visible text,
// harvesting nested iframes when the main document is too thin.
func (e *Extractor) captureCorpus(page *rod.Page, link string) (string, error) {
	if err := page.Navigate(link); err != nil {
		return "", fmt.Errorf("navigate detail: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait detail load: %w", err)
	}
	// The detail page keeps mutating while its widgets load.
	if err := page.WaitStable(2 * time.Second); err != nil {
		e.debug("detail page never stabilized", "error", err)
	}

	corpus, err := pageInnerText(page)
	if err != nil {
		return "", fmt.Errorf("read document text: %w", err)
	}

	if len(strings.TrimSpace(corpus)) < minCorpusLength {
		frames, err := page.Elements("iframe")
		if err == nil {
			for _, frameEl := range frames {
				frame, err := frameEl.Frame()
				if err != nil {
					continue
				}
				text, err := pageInnerText(frame)
				if err != nil {
					continue
				}
				corpus += "\n" + text
			}
		}
	}

	if strings.TrimSpace(corpus) == "" {
		return "", fmt.Errorf("detail page produced empty text")
	}
	return corpus, nil
}

// rescueMetadata fills best-effort guesses for title, organism, publication
// date, and payment note from the rendered detail page. Misses leave the
// sentinel values in place for the repair stage to fix later.
func (e *Extractor) rescueMetadata(page *rod.Page, corpus string, result *domain.Detail) {
	if match := organismExpr.FindStringSubmatch(corpus); match != nil {
		result.Organization = strings.TrimSpace(match[1])
	}
	if match := paymentExpr.FindString(corpus); match != "" {
		result.PaymentNote = strings.TrimSpace(match)
	}

	html, err := page.HTML()
	if err != nil {
		return
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return
	}

	if title := strings.TrimSpace(doc.Find("#lblNombreLicitacion").First().Text()); title != "" {
		result.OfficialTitle = title
	}
	if org := strings.TrimSpace(doc.Find("#lblNombreOrganismo").First().Text()); org != "" {
		result.Organization = org
	}
	if published := strings.TrimSpace(doc.Find("#lblFicha3Publicacion").First().Text()); published != "" {
		if parsed, err := time.Parse("02-01-2006", published); err == nil {
			result.PublishedDate = parsed.Format("2006-01-02")
		}
	}
}

// dismissPortalDialogs auto-accepts the portal's javascript alerts so they
// cannot wedge the navigation flow.
func dismissPortalDialogs(page *rod.Page) {
	go page.EachEvent(func(ev *proto.PageJavascriptDialogOpening) {
		_ = proto.PageHandleJavaScriptDialog{Accept: true}.Call(page)
	})()
}

func pageInnerText(page *rod.Page) (string, error) {
	obj, err := page.Eval(`() => document.body.innerText`)
	if err != nil {
		return "", err
	}
	return obj.Value.Str(), nil
}

func (e *Extractor) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
