// Package client sends request targets through a Transport and parses
// the raw responses it returns.
package client

import (
	"context"
	"log/slog"

	"http-message/application/http/message"
	"http-message/application/util/uri"

	"github.com/benbjohnson/clock"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = validator.New()

type Client struct {
	transport Transport

	opts    Options
	baseURL uri.URI

	logger *slog.Logger
	clock  clock.Clock
}

var _ message.Dispatcher = (*Client)(nil)

func New(t Transport, logger *slog.Logger, clock clock.Clock, opts Options) (*Client, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, errors.Wrap(err, "validating options")
	}

	c := &Client{
		transport: t,
		opts:      opts,
		logger:    logger,
		clock:     clock,
	}

	if opts.BaseURL != "" {
		base, err := uri.Parse(opts.BaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "parsing base url")
		}
		c.baseURL = base
	}

	return c, nil
}

// Execute sends request and parses the response.
func (c *Client) Execute(ctx context.Context, request message.Request) (*message.Response, error) {
	return c.Dispatch(ctx, request.Target())
}

// Dispatch sends target through a new transport session.
// The session is closed before Dispatch returns.
func (c *Client) Dispatch(ctx context.Context, target message.RequestTarget) (*message.Response, error) {
	params, err := c.buildParams(target)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("dispatching request", "method", params.Method, "uri", params.URI.String())

	start := c.clock.Now()

	result, err := c.send(ctx, params)
	if err != nil {
		return nil, err
	}

	res, err := message.ParseResponse(result.StatusCode, result.Raw, c.opts.Receive.Framing)
	if err != nil {
		return nil, errors.Wrap(err, "parsing response")
	}

	c.logger.Debug("received response", "status", res.StatusCode(), "elapsed", c.clock.Since(start))

	return res, nil
}

func (c *Client) send(ctx context.Context, params Params) (Result, error) {
	session, err := c.transport.Open(ctx)
	if err != nil {
		return Result{}, asTransportError(err, CodeConnectFailure)
	}
	defer func() {
		if err := session.Close(); err != nil {
			c.logger.Error("error when closing transport session", "error", err)
		}
	}()

	result, err := session.Send(ctx, params)
	if err != nil {
		return Result{}, asTransportError(err, CodeUnknown)
	}

	if len(result.Raw) == 0 {
		return Result{}, &TransportError{
			Code:    CodeEmptyResponse,
			Message: "transport returned no bytes",
		}
	}

	return result, nil
}

func (c *Client) buildParams(target message.RequestTarget) (Params, error) {
	method := target.Method()
	if !method.IsSupported() {
		return Params{}, errors.Wrapf(ErrUnsupportedMethod, "%q", method)
	}

	u := target.URI()
	if !c.baseURL.IsZero() {
		resolved, err := uri.Resolve(c.baseURL, u)
		if err != nil {
			return Params{}, errors.Wrap(err, "resolving against base url")
		}
		u = resolved
	}

	headers := target.Headers()

	contentType, hasContentType := message.DefaultContentType, false
	if v, ok := headers.Lookup("Content-Type"); ok && len(v) > 0 {
		contentType, hasContentType = v[0], true
	}
	mediaType := message.MediaType(contentType)

	body := target.Body()
	if body.IsStructured() && !message.HasEncoder(mediaType) {
		c.logger.Warn("no encoder for content type, sending body as stored", "content_type", mediaType)
	}

	data, err := message.EncodeBody(body, mediaType)
	if err != nil {
		return Params{}, errors.Wrap(err, "encoding body")
	}

	params := Params{
		Method:    method,
		URI:       u,
		Headers:   headers.Lines(),
		Body:      data,
		HasBody:   len(data) > 0,
		BasicAuth: target.BasicAuth(),
	}

	if params.HasBody && !hasContentType {
		params.Headers = append(params.Headers, "Content-Type: "+message.DefaultContentType)
	}

	return params, nil
}
