package browser

import (
	"encoding/json"
	"fmt"
)

// NextSelector is one entry in the pagination-control cascade. Trusted
// selectors are site-structure-aware: they are accepted after the
// negative more/previous screen even when the control has no text.
// Untrusted selectors additionally require a positive "next" signal.
type NextSelector struct {
	Selector string `json:"selector"`
	Trusted  bool   `json:"trusted"`
	Desc     string `json:"desc"`
}

// DefaultNextSelectors orders site-specific matches before generic ones,
// so a structural match beats a text-contains match. Only selectors that
// encode "next" in their own structure are trusted; c-glyph is a generic
// icon class, so a glyph anchor must still carry a next signal in its
// text, label, or class before it gets clicked.
var DefaultNextSelectors = []NextSelector{
	{Selector: "li.paginatenext a", Trusted: true, Desc: "paginatenext li"},
	{Selector: "a[data-loc-aria='keyArianextpage']", Trusted: true, Desc: "keyArianextpage"},
	{Selector: "a.c-glyph", Desc: "c-glyph next"},
	{Selector: "button[aria-label='Next'], button[aria-label='next'], button[aria-label='Next page'], button[aria-label='Go to next page']", Desc: "aria-label next"},
	{Selector: "button[data-testid='next'], button[data-testid='next-button'], button[data-testid='pagination-next']", Desc: "testid next"},
	{Selector: "button, a", Desc: "text next"},
	{Selector: "button[class*='arrow'][class*='right'], button[class*='chevron'][class*='right']", Desc: "arrow right"},
}

const scrollHeightScript = `document.body ? document.body.scrollHeight : 0`

const scrollToBottomScript = `(() => {
	window.scrollTo(0, document.body ? document.body.scrollHeight : 0);
	return true;
})()`

const scrollMidThenBottomScript = `(() => {
	const h = document.body ? document.body.scrollHeight : 0;
	window.scrollTo(0, h * 0.5);
	window.scrollTo(0, h);
	return true;
})()`

const scrollTopScript = `(() => { window.scrollTo(0, 0); return true; })()`

// consentScript dismisses a blocking cookie/consent dialog, best effort.
const consentScript = `(() => {
	const matches = (el) => {
		const text = (el.textContent || '').replace(/\s+/g, ' ').trim().toLowerCase();
		return text === 'accept' || text === 'i accept' || text === 'accept all' || text === 'agree';
	};
	const candidates = [
		...document.querySelectorAll('#acceptButton'),
		...document.querySelectorAll("button[class*='cookie']"),
		...document.querySelectorAll("button, [role='button']"),
	];
	for (const el of candidates) {
		if (el.offsetParent === null) continue;
		if (el.id === 'acceptButton' || (el.className || '').toLowerCase().includes('cookie') || matches(el)) {
			el.click();
			return true;
		}
	}
	return false;
})()`

// widenPageSizeScript looks for an items-per-page select and picks its
// largest numeric option, shrinking the number of pages to walk.
// Returns the chosen size, or 0 when no such control exists.
const widenPageSizeScript = `(() => {
	const hints = ['per', 'page', 'limit', 'size'];
	const hinted = (el) => {
		const probe = ((el.name || '') + ' ' + (el.id || '') + ' ' + (el.className || '')).toLowerCase();
		return hints.some(h => probe.includes(h));
	};
	const selects = [...document.querySelectorAll('select')];
	selects.sort((a, b) => (hinted(b) ? 1 : 0) - (hinted(a) ? 1 : 0));
	for (const sel of selects) {
		if (sel.offsetParent === null) continue;
		let best = null;
		for (const opt of sel.options) {
			const n = parseInt(opt.value || opt.textContent, 10);
			if (!isNaN(n) && (best === null || n > best.n)) best = { opt, n };
		}
		if (best && best.opt.value !== sel.value) {
			sel.value = best.opt.value;
			sel.dispatchEvent(new Event('change', { bubbles: true }));
			return best.n;
		}
	}
	return 0;
})()`

// clickResult is the value returned by the next-control script.
type clickResult struct {
	Clicked bool   `json:"clicked"`
	Desc    string `json:"desc"`
	Label   string `json:"label"`
}

// clickNextScript builds the pagination-control discovery script. Each
// selector is tried in order; a candidate is clicked only when it is
// visible, enabled, carries no more/previous signal, and (for untrusted
// selectors) carries a positive next signal somewhere in its text,
// accessible label, class, or test id.
func clickNextScript(selectors []NextSelector) (string, error) {
	encoded, err := json.Marshal(selectors)
	if err != nil {
		return "", fmt.Errorf("encode next selectors: %w", err)
	}

	return fmt.Sprintf(`((selectors) => {
	const norm = (s) => (s || '').replace(/\s+/g, ' ').trim().toLowerCase();
	const disabled = (el) =>
		el.disabled === true ||
		norm(el.getAttribute('disabled')) === 'true' ||
		norm(el.getAttribute('aria-disabled')) === 'true';
	const visible = (el) => el.offsetParent !== null;

	const examine = (el, trusted, desc) => {
		if (!visible(el) || disabled(el)) return null;
		const text = norm(el.textContent);
		const aria = norm(el.getAttribute('aria-label'));
		const cls = norm(el.className);
		const testid = norm(el.getAttribute('data-testid'));

		const hasNext = text.includes('next') || aria.includes('next') ||
			cls.includes('next') || testid.includes('next');
		const hasMore = (text.includes('more') && !text.includes('next')) ||
			(aria.includes('more') && !aria.includes('next'));
		const hasPrev = text.includes('previous') || aria.includes('previous');

		if (hasMore || hasPrev) return null;
		if (!trusted && !hasNext) return null;
		return { el, label: text || aria || desc };
	};

	// A thrown native click falls back to a dispatched event; only a
	// click that actually fired is reported as progress.
	const click = (found, desc) => {
		found.el.scrollIntoView({ block: 'center' });
		try {
			found.el.click();
		} catch (e) {
			try {
				found.el.dispatchEvent(new MouseEvent('click', { bubbles: true, cancelable: true, view: window }));
			} catch (e2) {
				return null;
			}
		}
		return { clicked: true, desc, label: found.label };
	};

	for (const entry of selectors) {
		let nodes;
		try { nodes = document.querySelectorAll(entry.selector); } catch (e) { continue; }
		for (const el of nodes) {
			const found = examine(el, entry.trusted === true, entry.desc);
			if (!found) continue;
			const result = click(found, entry.desc);
			if (result) return result;
		}
	}

	// Pagination-container fallback: the last enabled control in a
	// pagination block is usually Next.
	const containers = document.querySelectorAll(
		"nav[class*='pagination'], div[class*='pagination'], ul[class*='pagination']");
	for (const container of containers) {
		const items = container.querySelectorAll('button, a');
		if (items.length < 2) continue;
		const last = items[items.length - 1];
		const found = examine(last, true, 'pagination last');
		if (!found) continue;
		const result = click(found, 'pagination last');
		if (result) return result;
	}

	return { clicked: false, desc: '', label: '' };
})(%s)`, string(encoded)), nil
}
