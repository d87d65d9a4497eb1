package makemytrip

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"flightfare-pipeline/config"
	"flightfare-pipeline/models"
	"flightfare-pipeline/utils"
)

// sessionState tracks where a date's acquisition currently is. Sessions move
// strictly forward: Idle → Navigating → AntiBotCheck → PopupDismissal →
// AwaitingResults → Extracting → Done, bailing to Failed at any point.
type sessionState string

const (
	stateIdle            sessionState = "idle"
	stateNavigating      sessionState = "navigating"
	stateAntiBotCheck    sessionState = "anti-bot-check"
	statePopupDismissal  sessionState = "popup-dismissal"
	stateAwaitingResults sessionState = "awaiting-results"
	stateExtracting      sessionState = "extracting"
	stateDone            sessionState = "done"
	stateFailed          sessionState = "failed"
)

// blockMarkerJS detects the site's "NETWORK PROBLEM" interstitial, which is
// how it tells banned clients apart from a slow page.
const blockMarkerJS = `
	(function() {
		var body = document.body ? (document.body.innerText || '') : '';
		return body.indexOf('NETWORK PROBLEM') !== -1;
	})()
`

// popupDismissal is one known modal and the script that closes it. Absence
// of a popup is normal; each attempt is bounded and never fails the session.
type popupDismissal struct {
	name    string
	clickJS string
}

var popupDismissals = []popupDismissal{
	{
		name: "comparison tutorial",
		clickJS: `
			(function() {
				var btns = document.querySelectorAll('button');
				for (var i = 0; i < btns.length; i++) {
					if ((btns[i].innerText || '').trim().toUpperCase() === 'GOT IT') {
						btns[i].click();
						return true;
					}
				}
				return false;
			})()
		`,
	},
	{
		name: "generic modal",
		clickJS: `
			(function() {
				var el = document.querySelector('button[data-cy="closeModal"]');
				if (el) { el.click(); return true; }
				return false;
			})()
		`,
	},
	{
		name: "login tray",
		clickJS: `
			(function() {
				var el = document.querySelector('li[data-cy="account"]');
				if (el) { el.click(); return true; }
				return false;
			})()
		`,
	},
}

// session owns the acquisition of exactly one departure date. It launches
// its own browser with a fresh fingerprint and tears it down on every exit
// path, so anti-bot state never leaks between dates.
type session struct {
	cfg        *config.Config
	logger     *utils.Logger
	extractor  *Extractor
	humanDelay *utils.Throttle

	date    time.Time
	dateISO string
	state   sessionState
}

func newSession(cfg *config.Config, logger *utils.Logger, extractor *Extractor, date time.Time) *session {
	return &session{
		cfg:       cfg,
		logger:    logger,
		extractor: extractor,
		humanDelay: utils.NewThrottle(
			time.Duration(cfg.HumanDelayMinSec)*time.Second,
			time.Duration(cfg.HumanDelayMaxSec)*time.Second,
		),
		date:    date,
		dateISO: date.Format("2006-01-02"),
		state:   stateIdle,
	}
}

// searchURL builds the listing URL for the session's route and date. The
// site expects dd/mm/yyyy inside the itinerary segment.
func searchURL(cfg *config.Config, date time.Time) string {
	return fmt.Sprintf(
		"https://www.makemytrip.com/flight/search?itinerary=%s-%s-%s"+
			"&tripType=O&paxType=A-1_C-0_I-0&intl=false&cabinClass=E&lang=eng",
		cfg.SourceAirport, cfg.DestinationAirport, date.Format("02/01/2006"))
}

// Run drives the session through its states and returns the extracted
// records plus the structured outcome the orchestrator records. It never
// returns an error: every failure is converted to an outcome here.
func (s *session) Run(parent context.Context) ([]*models.FlightRecord, models.DateOutcome) {
	fp := randomFingerprint()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(fp.UserAgent),
	)
	if bin := s.cfg.ChromeBin; bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	} else if bin := findChromeBinary(); bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	defer cancelAlloc()

	ctx, cancelCtx := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelCtx()

	// Navigating
	s.transition(stateNavigating)
	url := searchURL(s.cfg, s.date)
	s.logger.Info("[session %s] navigating: %s", s.dateISO, url)

	retry := &utils.RetryConfig{MaxAttempts: 2, BaseDelay: 3 * time.Second, Logger: s.logger}
	err := retry.Do(fmt.Sprintf("navigate %s", s.dateISO), func() error {
		navCtx, cancelNav := context.WithTimeout(ctx, time.Duration(s.cfg.NavTimeoutSec)*time.Second)
		defer cancelNav()
		return chromedp.Run(navCtx,
			chromedp.EmulateViewport(fp.Width, fp.Height),
			chromedp.ActionFunc(func(ctx context.Context) error {
				if _, err := page.AddScriptToEvaluateOnNewDocument(stealthInitScript).Do(ctx); err != nil {
					return err
				}
				if err := emulation.SetTimezoneOverride(fp.Timezone).Do(ctx); err != nil {
					return err
				}
				return emulation.SetLocaleOverride().WithLocale(fp.Locale).Do(ctx)
			}),
			chromedp.Navigate(url),
		)
	})
	if err != nil {
		return s.fail(fmt.Sprintf("navigation: %v", err))
	}

	slept := s.humanDelay.Wait()
	s.logger.Debug("[session %s] post-load delay %.1fs", s.dateISO, slept.Seconds())

	// AntiBotCheck: one refresh-and-retry, then give up. Extraction against
	// a block page would only produce garbage.
	s.transition(stateAntiBotCheck)
	blocked, title, err := s.blockCheck(ctx)
	if err != nil {
		return s.fail(fmt.Sprintf("block check: %v", err))
	}
	if blocked {
		s.logger.Warn("[session %s] block marker detected (title %q) — refreshing once", s.dateISO, title)
		reloadCtx, cancelReload := context.WithTimeout(ctx, time.Duration(s.cfg.NavTimeoutSec)*time.Second)
		err = chromedp.Run(reloadCtx, chromedp.Reload())
		cancelReload()
		if err != nil {
			return s.fail(fmt.Sprintf("refresh after block: %v", err))
		}
		s.humanDelay.Wait()

		blocked, title, err = s.blockCheck(ctx)
		if err != nil {
			return s.fail(fmt.Sprintf("block re-check: %v", err))
		}
		if blocked {
			return s.fail(fmt.Sprintf("still blocked after refresh (title %q)", title))
		}
	}

	// PopupDismissal
	s.transition(statePopupDismissal)
	s.dismissPopups(ctx)

	// AwaitingResults: the dominant natural failure mode is this wait timing
	// out, so it is reported, never raised.
	s.transition(stateAwaitingResults)
	waitCtx, cancelWait := context.WithTimeout(ctx, time.Duration(s.cfg.ResultsTimeoutSec)*time.Second)
	err = chromedp.Run(waitCtx,
		chromedp.WaitVisible(strings.Join(cardSelectors, ", "), chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
	)
	cancelWait()
	if err != nil {
		return s.fail(fmt.Sprintf("results wait: %v (title %q)", err, s.title(ctx)))
	}

	// Extracting
	s.transition(stateExtracting)
	var cards []rawCard
	extractCtx, cancelExtract := context.WithTimeout(ctx, 30*time.Second)
	err = chromedp.Run(extractCtx, chromedp.Evaluate(collectorJS(s.cfg.CardLimit), &cards))
	cancelExtract()
	if err != nil {
		return s.fail(fmt.Sprintf("card collection: %v", err))
	}

	if len(cards) == 0 {
		// Either the route genuinely has no flights that day or the layout
		// drifted past every known selector. Not distinguishable from here,
		// so it is surfaced as its own outcome.
		title := s.title(ctx)
		s.transition(stateDone)
		s.logger.Warn("[session %s] zero cards matched any locator (title %q)", s.dateISO, title)
		return nil, models.DateOutcome{
			Date:    s.dateISO,
			Outcome: models.OutcomeInconclusive,
			Detail:  title,
		}
	}

	s.logger.Info("[session %s] found %d result cards", s.dateISO, len(cards))

	var records []*models.FlightRecord
	for i, card := range cards {
		rec := s.extractor.Extract(card, i, s.dateISO)
		if rec == nil {
			continue
		}
		rec.ScrapedAt = time.Now()
		records = append(records, rec)
	}

	s.transition(stateDone)
	if len(records) == 0 {
		return nil, models.DateOutcome{Date: s.dateISO, Outcome: models.OutcomeEmpty}
	}
	return records, models.DateOutcome{
		Date:        s.dateISO,
		Outcome:     models.OutcomeSuccess,
		RecordCount: len(records),
	}
}

func (s *session) transition(next sessionState) {
	s.logger.Debug("[session %s] %s → %s", s.dateISO, s.state, next)
	s.state = next
}

func (s *session) fail(detail string) ([]*models.FlightRecord, models.DateOutcome) {
	s.transition(stateFailed)
	s.logger.Warn("[session %s] failed: %s", s.dateISO, detail)
	return nil, models.DateOutcome{Date: s.dateISO, Outcome: models.OutcomeFailed, Detail: detail}
}

// blockCheck inspects the page title and the network-problem marker.
func (s *session) blockCheck(ctx context.Context) (bool, string, error) {
	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var title string
	var marker bool
	if err := chromedp.Run(checkCtx,
		chromedp.Title(&title),
		chromedp.Evaluate(blockMarkerJS, &marker),
	); err != nil {
		return false, "", err
	}

	lower := strings.ToLower(title)
	// Very short titles are interstitial pages, not the results page.
	blocked := marker ||
		strings.Contains(lower, "blocked") ||
		strings.Contains(lower, "captcha") ||
		len(title) < 10
	return blocked, title, nil
}

// dismissPopups makes one bounded attempt per known modal. Absence is the
// normal case and logged only at debug level.
func (s *session) dismissPopups(ctx context.Context) {
	timeout := time.Duration(s.cfg.PopupTimeoutSec) * time.Second
	for _, p := range popupDismissals {
		popCtx, cancel := context.WithTimeout(ctx, timeout)
		var clicked bool
		err := chromedp.Run(popCtx, chromedp.Evaluate(p.clickJS, &clicked))
		cancel()

		switch {
		case err != nil:
			s.logger.Debug("[session %s] popup %q check skipped: %v", s.dateISO, p.name, err)
		case clicked:
			s.logger.Debug("[session %s] dismissed popup %q", s.dateISO, p.name)
			time.Sleep(time.Second)
		default:
			s.logger.Debug("[session %s] popup %q not present", s.dateISO, p.name)
		}
	}
}

// title fetches the page title for diagnostics, best effort.
func (s *session) title(ctx context.Context) string {
	titleCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var title string
	if err := chromedp.Run(titleCtx, chromedp.Title(&title)); err != nil {
		return ""
	}
	return title
}
