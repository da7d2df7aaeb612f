package notify

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"
)

// ShoutrrrSender delivers alerts to any Shoutrrr service URL. For smtp:// URLs
// the message recipients are passed as toaddresses.
type ShoutrrrSender struct {
	URL string
}

func NewShoutrrrSender(rawURL string) *ShoutrrrSender {
	return &ShoutrrrSender{URL: rawURL}
}

// Send delivers msg. Shoutrrr has no delivery receipt, so the Receipt is empty.
func (s *ShoutrrrSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	target := s.URL
	if strings.HasPrefix(target, "smtp://") && len(msg.Recipients) > 0 {
		var err error
		target, err = applyParams(target, map[string]string{
			"toaddresses": strings.Join(msg.Recipients, ","),
		})
		if err != nil {
			return Receipt{}, err
		}
	}

	sender, err := shoutrrr.CreateSender(target)
	if err != nil {
		return Receipt{}, fmt.Errorf("creating shoutrrr sender: %w", err)
	}

	params := types.Params{"title": msg.Title}
	errs := sender.Send(msg.Body, &params)
	for _, e := range errs {
		if e != nil {
			return Receipt{}, fmt.Errorf("sending via shoutrrr: %w", e)
		}
	}

	return Receipt{}, nil
}

// applyParams merges params into the query string of a service URL.
func applyParams(rawURL string, params map[string]string) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing service url: %w", err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
