// Package intercept enforces throttle admission in front of remote calls.
//
// Two forms are provided. Invoke and Invoke0 wrap a single operation, which is
// how an arbitrary service method is decorated. Transport wraps an
// http.RoundTripper, so every operation of every service built on one
// http.Client is admitted on the same channel without per-service code.
// Neither form caches, retries or alters the delegated call.
package intercept

import (
	"context"
	"net/http"
)

// Admitter grants permission for a call on a named channel.
// *throttle.Throttle satisfies it.
type Admitter interface {
	Admit(ctx context.Context, channel string) error
}

// Invoke admits on channel, then calls fn and returns its results unchanged.
// A nil Admitter delegates immediately.
func Invoke[T any](ctx context.Context, a Admitter, channel string, fn func(context.Context) (T, error)) (T, error) {
	if a != nil {
		if err := a.Admit(ctx, channel); err != nil {
			var zero T
			return zero, err
		}
	}
	return fn(ctx)
}

// Invoke0 is Invoke for operations that return only an error.
func Invoke0(ctx context.Context, a Admitter, channel string, fn func(context.Context) error) error {
	_, err := Invoke(ctx, a, channel, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Transport is an http.RoundTripper that admits every request on Channel
// before handing it to Base.
type Transport struct {
	Base     http.RoundTripper
	Admitter Admitter
	Channel  string
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Admitter != nil {
		if err := t.Admitter.Admit(req.Context(), t.Channel); err != nil {
			// RoundTrip must close the body even when it fails.
			if req.Body != nil {
				_ = req.Body.Close()
			}
			return nil, err
		}
	}
	return t.base().RoundTrip(req)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// NewClient returns a shallow copy of base whose transport admits on channel.
// A nil base starts from an empty http.Client.
func NewClient(base *http.Client, a Admitter, channel string) *http.Client {
	c := &http.Client{}
	if base != nil {
		*c = *base
	}
	c.Transport = &Transport{
		Base:     c.Transport,
		Admitter: a,
		Channel:  channel,
	}
	return c
}
