// Package browser drives the upstream image generator site with headless
// Chrome through chromedp. It implements generation.Driver: one attempt opens
// a tab, submits the prompt, waits for the result and extracts the image
// URLs, which are then checked with HEAD requests. Session cookies are kept
// in a JSON snapshot between attempts.
package browser
