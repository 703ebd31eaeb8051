// Package automation provides reusable page actions for the browser fetcher.
package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/IshaanNene/NewsPulse/internal/fetcher"
)

// lookupTimeout bounds a single element lookup inside an action.
const lookupTimeout = 3 * time.Second

// ClickRepeatedly clicks the element matched by selector up to max times,
// waiting between clicks for new content to render. It stops without error
// once the element disappears, which is how "load more" controls signal the
// end of a list.
func ClickRepeatedly(selector string, max int, wait time.Duration) fetcher.PageAction {
	return func(page *rod.Page) error {
		for i := 0; i < max; i++ {
			el, err := page.Timeout(lookupTimeout).Element(selector)
			if err != nil {
				return nil
			}
			visible, err := el.Visible()
			if err != nil || !visible {
				return nil
			}
			if err := el.ScrollIntoView(); err != nil {
				return fmt.Errorf("scroll to %s: %w", selector, err)
			}
			if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
				return fmt.Errorf("click %s (%d): %w", selector, i+1, err)
			}
			if wait > 0 && !pause(page.GetContext(), wait) {
				return nil
			}
		}
		return nil
	}
}

// ScrollToBottom scrolls to the end of the document. Naver only mounts the
// comment module once it enters the viewport.
func ScrollToBottom() fetcher.PageAction {
	return func(page *rod.Page) error {
		_, err := page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
		return err
	}
}

// pause waits for d and reports false when ctx ends first, so a cancelled
// crawl releases its page slot right away.
func pause(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Sequence runs actions in order and stops at the first error.
func Sequence(actions ...fetcher.PageAction) fetcher.PageAction {
	return func(page *rod.Page) error {
		for i, action := range actions {
			if action == nil {
				continue
			}
			if err := action(page); err != nil {
				return fmt.Errorf("action %d: %w", i, err)
			}
		}
		return nil
	}
}
