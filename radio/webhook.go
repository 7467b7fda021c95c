package radio

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/jonboulle/clockwork"
)

const webhookTimeout = 30 * time.Second

// uplink is the query string of one webhook message, in the style of a
// radio network backend callback.
type uplink struct {
	Device string `url:"device"`
	Seq    uint32 `url:"seq"`
	Time   int64  `url:"time"`
	Data   string `url:"data"`
}

// Webhook delivers each payload as an HTTP GET to a collector URL.
type Webhook struct {
	base   *url.URL
	device string
	client *http.Client
	clock  clockwork.Clock

	mu     sync.Mutex
	active bool
	seq    uint32
}

func NewWebhook(base, device string) (*Webhook, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("webhook url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("webhook url %q: scheme must be http or https", base)
	}
	return &Webhook{
		base:   u,
		device: device,
		client: &http.Client{Timeout: webhookTimeout},
		clock:  clockwork.NewRealClock(),
	}, nil
}

func (w *Webhook) Activate() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.active = true
	return nil
}

func (w *Webhook) SendMessage(payload []byte) error {
	w.mu.Lock()
	if !w.active {
		w.mu.Unlock()
		return ErrNotActive
	}
	w.seq++
	msg := uplink{
		Device: w.device,
		Seq:    w.seq,
		Time:   w.clock.Now().Unix(),
		Data:   hex.EncodeToString(payload),
	}
	w.mu.Unlock()

	vals, err := query.Values(msg)
	if err != nil {
		return fmt.Errorf("encode uplink: %w", err)
	}
	// keep any parameters already on the collector URL, such as a token
	u := *w.base
	q := u.Query()
	for k, v := range vals {
		q[k] = v
	}
	u.RawQuery = q.Encode()
	resp, err := w.client.Get(u.String())
	if err != nil {
		return fmt.Errorf("send uplink: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("send uplink: HTTP [%v]", resp.Status)
	}
	return nil
}

// Deactivate drops idle connections so nothing is held open between reports.
func (w *Webhook) Deactivate() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.active = false
	w.client.CloseIdleConnections()
	return nil
}
