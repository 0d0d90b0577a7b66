// Package civi implements a CiviCRM APIv3 REST client covering the calls
// the order pipeline makes. Requests are typed param structs serialized
// into the endpoint's json form parameter; response envelopes are decoded
// with jx because their values member is dynamically shaped (object keyed
// by id, array, or scalar depending on entity and action).
package civi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Client talks to one CiviCRM site.
type Client struct {
	endpoint string
	siteKey  string
	apiKey   string
	http     *http.Client
	lg       *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the logger used for request-level debug output.
func WithLogger(lg *zap.Logger) Option {
	return func(c *Client) { c.lg = lg }
}

// WithTracerProvider instruments the client's transport.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		base := c.http.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		c.http.Transport = otelhttp.NewTransport(base, otelhttp.WithTracerProvider(tp))
	}
}

// New creates a Client for the REST endpoint (e.g.
// https://example.org/civicrm/ajax/rest) with the site and contact API keys.
func New(endpoint, siteKey, apiKey string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		siteKey:  siteKey,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 30 * time.Second},
		lg:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a CiviCRM-side failure on a single API call. Trace carries the
// remote stack trace when the endpoint runs in debug mode; it is meant for
// admin-facing diagnostics only.
type APIError struct {
	Entity  string
	Action  string
	Message string
	Trace   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Entity, e.Action, e.Message)
}

// Result is a decoded APIv3 response envelope.
type Result struct {
	Count  int
	ID     int
	Values []json.RawMessage

	raw     []byte
	isError bool
	errMsg  string
	trace   string
}

// One unmarshals the first value into dst.
func (r *Result) One(dst any) error {
	if len(r.Values) == 0 {
		return errors.New("empty result")
	}
	return json.Unmarshal(r.Values[0], dst)
}

// All unmarshals every value into dst, which must be a pointer to a slice.
func (r *Result) All(dst any) error {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range r.Values {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(v)
	}
	buf.WriteByte(']')
	return json.Unmarshal(buf.Bytes(), dst)
}

// Flat unmarshals the whole response body into dst. Actions like getsingle
// and getvalue return the record or value directly instead of an envelope.
func (r *Result) Flat(dst any) error {
	return json.Unmarshal(r.raw, dst)
}

// Call performs one API call. A CiviCRM-side failure is returned as an
// *APIError; the Result is non-nil only on success. Calls are never retried.
func (c *Client) Call(ctx context.Context, entity, action string, params any) (*Result, error) {
	if params == nil {
		params = struct{}{}
	}
	body, err := json.Marshal(params)
	if err != nil {
		return nil, errors.Wrapf(err, "marshal %s.%s params", entity, action)
	}

	values := url.Values{
		"entity":  {entity},
		"action":  {action},
		"key":     {c.siteKey},
		"api_key": {c.apiKey},
		"json":    {string(body)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, errors.Wrapf(err, "build %s.%s request", entity, action)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s.%s", entity, action)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s.%s response", entity, action)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s.%s: status %d", entity, action, res.StatusCode)
	}

	result, err := parseResult(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s.%s response", entity, action)
	}
	if result.isError {
		c.lg.Debug("api call failed",
			zap.String("entity", entity),
			zap.String("action", action),
			zap.String("message", result.errMsg),
		)
		return nil, &APIError{Entity: entity, Action: action, Message: result.errMsg, Trace: result.trace}
	}
	return result, nil
}

// parseResult decodes an APIv3 envelope. Non-envelope responses (flat
// records from getsingle, bare values from getvalue) keep their raw body
// accessible through Result.Flat.
func parseResult(raw []byte) (*Result, error) {
	r := &Result{raw: raw}
	d := jx.DecodeBytes(raw)

	if d.Next() != jx.Object {
		// Bare value response.
		return r, nil
	}

	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "is_error":
			n, err := d.Num()
			if err != nil {
				return err
			}
			v, err := n.Int64()
			if err != nil {
				return err
			}
			r.isError = v != 0
			return nil
		case "error_message":
			s, err := d.Str()
			if err != nil {
				return err
			}
			r.errMsg = s
			return nil
		case "trace":
			s, err := d.Str()
			if err != nil {
				return err
			}
			r.trace = s
			return nil
		case "count":
			n, err := d.Num()
			if err != nil {
				return err
			}
			v, err := n.Int64()
			if err != nil {
				return err
			}
			r.Count = int(v)
			return nil
		case "id":
			n, err := d.Num()
			if err != nil {
				return err
			}
			v, err := n.Int64()
			if err != nil {
				return err
			}
			r.ID = int(v)
			return nil
		case "values":
			return decodeValues(d, r)
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, err
	}
	return r, nil
}

// decodeValues collects the values member, whatever its shape.
func decodeValues(d *jx.Decoder, r *Result) error {
	switch d.Next() {
	case jx.Object:
		return d.Obj(func(d *jx.Decoder, _ string) error {
			v, err := d.Raw()
			if err != nil {
				return err
			}
			r.Values = append(r.Values, json.RawMessage(v))
			return nil
		})
	case jx.Array:
		return d.Arr(func(d *jx.Decoder) error {
			v, err := d.Raw()
			if err != nil {
				return err
			}
			r.Values = append(r.Values, json.RawMessage(v))
			return nil
		})
	default:
		v, err := d.Raw()
		if err != nil {
			return err
		}
		r.Values = append(r.Values, json.RawMessage(v))
		return nil
	}
}
