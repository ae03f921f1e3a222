package browser

import (
	"context"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// EnableNetwork arms background-traffic interception.
func (b *Browser) EnableNetwork() error {
	return b.run(b.cfg.ElementTimeout, network.Enable())
}

// DisableNetwork disarms background-traffic interception.
func (b *Browser) DisableNetwork() error {
	return b.run(b.cfg.ElementTimeout, network.Disable())
}

// ListenNetwork registers callbacks for background request/response events.
// The listener lives for the browser's lifetime; callers gate delivery with
// their own armed state.
func (b *Browser) ListenNetwork(onRequest func(id, url string), onResponse func(id, url string)) {
	chromedp.ListenTarget(b.ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			onRequest(string(e.RequestID), e.Request.URL)
		case *network.EventResponseReceived:
			onResponse(string(e.RequestID), e.Response.URL)
		}
	})
}

// ResponseBody fetches the captured body of an intercepted response by its
// request identifier.
func (b *Browser) ResponseBody(id string) ([]byte, error) {
	var body []byte
	err := b.run(b.cfg.ElementTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		body, err = network.GetResponseBody(network.RequestID(id)).Do(ctx)
		return err
	}))
	return body, err
}
