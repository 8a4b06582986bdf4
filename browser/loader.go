package browser

import (
	"context"
	"log/slog"
	"time"

	"gamepass-catalog/config"
)

// ExtractFunc re-runs extraction over the page's current state and
// returns the total number of items retained so far.
type ExtractFunc func(ctx context.Context) (int, error)

// Progress reports what a reveal loop did.
type Progress struct {
	Attempts  int
	Clicks    int
	Scrolls   int
	Converged bool
}

// Loader drives pagination clicks and lazy-load scrolling until the
// page stops yielding new content.
type Loader struct {
	page    Page
	extract ExtractFunc

	settle              time.Duration
	maxScrolls          int
	noProgressThreshold int
	nextSelectors       []NextSelector
	sleep               func(time.Duration)

	itemCount int
}

// NewLoader wires a loader to a page and an extraction callback.
func NewLoader(page Page, extract ExtractFunc, cfg *config.Config) *Loader {
	return &Loader{
		page:                page,
		extract:             extract,
		settle:              cfg.SettleDelay,
		maxScrolls:          cfg.MaxScrolls,
		noProgressThreshold: cfg.NoProgressThreshold,
		nextSelectors:       DefaultNextSelectors,
		sleep:               time.Sleep,
	}
}

// WithSleep overrides the settle-delay sleeper. Test hook.
func (l *Loader) WithSleep(sleep func(time.Duration)) *Loader {
	l.sleep = sleep
	return l
}

// WithNextSelectors overrides the pagination-control cascade.
func (l *Loader) WithNextSelectors(selectors []NextSelector) *Loader {
	l.nextSelectors = selectors
	return l
}

// DismissConsent clicks through a blocking consent dialog if one is
// present. Best effort: absence is not an error.
func (l *Loader) DismissConsent(ctx context.Context) bool {
	var clicked bool
	if err := l.page.Eval(ctx, consentScript, &clicked); err != nil {
		slog.Debug("consent dismissal failed", slog.Any("error", err))
		return false
	}
	if clicked {
		slog.Info("consent dialog dismissed")
		l.sleep(l.settle)
	}
	return clicked
}

// WidenPageSize selects the largest items-per-page option when the page
// offers one, shrinking the number of reveal attempts needed. Returns
// the chosen size, or 0 when no such control exists.
func (l *Loader) WidenPageSize(ctx context.Context) int {
	var size int
	if err := l.page.Eval(ctx, widenPageSizeScript, &size); err != nil {
		slog.Debug("items-per-page widening failed", slog.Any("error", err))
		return 0
	}
	if size > 0 {
		slog.Info("items per page widened", slog.Int("size", size))
		l.sleep(l.settle)
	}
	return size
}

// RevealAll alternates pagination clicks and lazy-load scrolling,
// re-extracting after every reveal action, until the threshold of
// consecutive no-progress attempts is hit or maxAttempts runs out.
func (l *Loader) RevealAll(ctx context.Context, maxAttempts int) (Progress, error) {
	var progress Progress
	noProgress := 0

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return progress, err
		}
		progress.Attempts = attempt

		itemsBefore := l.itemCount
		heightBefore := l.scrollHeight(ctx)

		clicked := l.clickNext(ctx)
		if clicked {
			progress.Clicks++
			l.sleep(l.settle)
			l.scrollPass(ctx, l.maxScrolls/2)
		} else {
			progress.Scrolls++
			l.scrollPass(ctx, l.maxScrolls)
		}
		l.runExtract(ctx)

		heightAfter := l.scrollHeight(ctx)
		if l.itemCount > itemsBefore || heightAfter > heightBefore {
			noProgress = 0
			slog.Info("reveal progress",
				slog.Int("attempt", attempt),
				slog.Int("items", l.itemCount),
				slog.Bool("clicked_next", clicked),
			)
		} else {
			noProgress++
			slog.Debug("no reveal progress",
				slog.Int("attempt", attempt),
				slog.Int("streak", noProgress),
			)
		}

		if noProgress >= l.noProgressThreshold {
			progress.Converged = true
			break
		}
	}

	return progress, nil
}

// InitialReveal performs the first scroll-and-extract pass after
// navigation, before pagination discovery starts.
func (l *Loader) InitialReveal(ctx context.Context) int {
	l.scrollPass(ctx, l.maxScrolls)
	l.runExtract(ctx)
	return l.itemCount
}

func (l *Loader) clickNext(ctx context.Context) bool {
	script, err := clickNextScript(l.nextSelectors)
	if err != nil {
		slog.Error("building next-control script", slog.Any("error", err))
		return false
	}
	var result clickResult
	if err := l.page.Eval(ctx, script, &result); err != nil {
		slog.Debug("next-control discovery failed", slog.Any("error", err))
		return false
	}
	if result.Clicked {
		slog.Info("clicked pagination control",
			slog.String("selector", result.Desc),
			slog.String("label", result.Label),
		)
	}
	return result.Clicked
}

// scrollPass scrolls to the bottom repeatedly until the content extent
// stops growing, nudging through the middle once before giving up, then
// returns the viewport to the top.
func (l *Loader) scrollPass(ctx context.Context, maxScrolls int) {
	if maxScrolls < 1 {
		maxScrolls = 1
	}
	lastHeight := l.scrollHeight(ctx)

	for i := 0; i < maxScrolls; i++ {
		if ctx.Err() != nil {
			return
		}
		l.evalDiscard(ctx, scrollToBottomScript)
		l.sleep(l.settle)

		height := l.scrollHeight(ctx)
		if height == lastHeight {
			l.evalDiscard(ctx, scrollMidThenBottomScript)
			l.sleep(l.settle)
			height = l.scrollHeight(ctx)
			if height == lastHeight {
				break
			}
		}
		lastHeight = height
	}

	l.evalDiscard(ctx, scrollTopScript)
}

func (l *Loader) runExtract(ctx context.Context) {
	count, err := l.extract(ctx)
	if err != nil {
		slog.Error("extraction pass failed", slog.Any("error", err))
		return
	}
	l.itemCount = count
}

func (l *Loader) scrollHeight(ctx context.Context) int64 {
	var height int64
	if err := l.page.Eval(ctx, scrollHeightScript, &height); err != nil {
		slog.Debug("reading scroll height failed", slog.Any("error", err))
		return 0
	}
	return height
}

func (l *Loader) evalDiscard(ctx context.Context, script string) {
	var ok bool
	if err := l.page.Eval(ctx, script, &ok); err != nil {
		slog.Debug("page script failed", slog.Any("error", err))
	}
}
