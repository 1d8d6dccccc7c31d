// Package tcp performs single HTTP/1.1 exchanges over TCP, and over TLS
// for https URIs. Every session dials its own connection and closes it.
//
// Result.Raw carries the response head followed by a blank line and the
// decoded body, byte for byte. Parse it with http.FramingBlankLine:
// positional framing reads a body that ends in a newline as empty.
package tcp

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"http-message/application/http"
	"http-message/application/http/client"
	"http-message/application/http/transfer"
	"http-message/application/util/domain"
	"http-message/application/util/uri"
	iolib "http-message/lib/io"
	sliceutil "http-message/lib/slice"

	"github.com/benbjohnson/clock"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = validator.New()

// ErrResponseTooLarge is returned when a response exceeds Options.MaxResponseSize.
var ErrResponseTooLarge = iolib.ErrLimitExceeded

type Transport struct {
	lookuper  domain.Lookuper
	decoders  *transfer.Registry
	tlsConfig *tls.Config

	opts Options

	logger *slog.Logger
	clock  clock.Clock
}

var _ client.Transport = (*Transport)(nil)

func New(lookuper domain.Lookuper, logger *slog.Logger, clock clock.Clock, opts Options) (*Transport, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, errors.Wrap(err, "validating options")
	}

	return &Transport{
		lookuper:  lookuper,
		decoders:  transfer.NewRegistry(opts.ExtraTransferDecoders),
		tlsConfig: &tls.Config{InsecureSkipVerify: opts.InsecureSkipVerify},
		opts:      opts,
		logger:    logger,
		clock:     clock,
	}, nil
}

// Open returns a session. The connection is dialed by Send,
// once the request URI is known.
func (t *Transport) Open(ctx context.Context) (client.Session, error) {
	return &session{t: t}, nil
}

type session struct {
	t    *Transport
	conn net.Conn
	used bool
}

var _ client.Session = (*session)(nil)

func (s *session) Close() error {
	if s.conn == nil {
		return nil
	}

	err := s.conn.Close()
	s.conn = nil

	return err
}

func (s *session) Send(ctx context.Context, params client.Params) (client.Result, error) {
	if s.used {
		return client.Result{}, client.NewTransportError(client.CodeProtocol, errors.New("session was already used"))
	}
	s.used = true

	conn, err := s.t.dial(ctx, params.URI)
	if err != nil {
		return client.Result{}, err
	}
	s.conn = conn

	if timeout := s.t.opts.IOTimeout; timeout > 0 {
		if err := conn.SetDeadline(s.t.clock.Now().Add(timeout)); err != nil {
			return client.Result{}, client.NewTransportError(client.CodeConnectionClosed, err)
		}
	}

	// Unblock pending I/O when ctx ends.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Unix(1, 0)) })
	defer stop()

	if err := s.t.writeRequest(conn, params); err != nil {
		return client.Result{}, classify(ctx, err, client.CodeWriteFailure)
	}

	result, err := s.t.readResponse(conn)
	if err != nil {
		return client.Result{}, classify(ctx, err, client.CodeReadFailure)
	}

	s.t.logger.Debug("exchange finished", "remote", conn.RemoteAddr().String(), "status", result.StatusCode)

	return result, nil
}

func (t *Transport) dial(ctx context.Context, u uri.URI) (net.Conn, error) {
	scheme := strings.ToLower(u.Scheme())
	if scheme != "http" && scheme != "https" {
		return nil, client.NewTransportError(client.CodeProtocol, errors.Errorf("unsupported scheme %q", u.Scheme()))
	}

	host := u.Host()
	if host == "" {
		return nil, client.NewTransportError(client.CodeProtocol, errors.New("URI has no host"))
	}

	port, ok := u.Port()
	if !ok {
		port = uri.DefaultPort(scheme)
	}

	addr, err := t.resolve(ctx, host)
	if err != nil {
		return nil, client.NewTransportError(client.CodeDNSFailure, err)
	}

	dialer := net.Dialer{Timeout: t.opts.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", netip.AddrPortFrom(addr, port).String())
	if err != nil {
		return nil, classify(ctx, err, client.CodeConnectFailure)
	}

	if scheme == "http" {
		return conn, nil
	}

	cfg := t.tlsConfig.Clone()
	cfg.ServerName = trimBrackets(host)

	tlsConn := tls.Client(conn, cfg)

	handshakeCtx := ctx
	if t.opts.DialTimeout > 0 {
		var cancel context.CancelFunc
		handshakeCtx, cancel = context.WithTimeout(ctx, t.opts.DialTimeout)
		defer cancel()
	}

	if err := tlsConn.HandshakeContext(handshakeCtx); err != nil {
		_ = conn.Close()
		return nil, classify(handshakeCtx, errors.Wrap(err, "tls handshake"), client.CodeConnectFailure)
	}

	return tlsConn, nil
}

func (t *Transport) resolve(ctx context.Context, host string) (netip.Addr, error) {
	if addr, err := netip.ParseAddr(trimBrackets(host)); err == nil {
		return addr, nil
	}

	addrs, err := t.lookuper.LookupIP(ctx, host)
	if err != nil {
		return netip.Addr{}, errors.Wrapf(err, "lookup for host(%s) failed", host)
	}
	if len(addrs) == 0 {
		return netip.Addr{}, errors.Wrap(domain.ErrDomainNotFound, host)
	}

	// Lets simply use the first address.
	return addrs[0], nil
}

func trimBrackets(host string) string {
	return strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
}

func (t *Transport) writeRequest(w io.Writer, params client.Params) error {
	fields := make([]http.Field, 0, len(params.Headers)+4)
	for _, line := range params.Headers {
		field, err := http.ParseField([]byte(line))
		if err != nil {
			return client.NewTransportError(client.CodeProtocol, errors.Wrapf(err, "header line %q", line))
		}
		fields = append(fields, field)
	}

	if _, ok := http.LookupField(fields, "Host"); !ok {
		fields = append([]http.Field{http.NewField("Host", hostHeader(params.URI))}, fields...)
	}

	if _, ok := http.LookupField(fields, "Authorization"); !ok && params.BasicAuth != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(params.BasicAuth))
		fields = append(fields, http.NewField("Authorization", "Basic "+credentials))
	}

	request := http.Request{
		RequestLine: http.RequestLine{
			Method:  params.Method.String(),
			Target:  params.URI.RequestTarget(),
			Version: http.Version11,
		},
	}

	if params.HasBody {
		fields = http.DropField(fields, "Content-Length")
		fields = append(fields, http.NewField("Content-Length", strconv.Itoa(len(params.Body))))
		request.Body = bytes.NewReader(params.Body)
	}

	fields = http.DropField(fields, "Connection")
	request.Headers = append(fields, http.NewField("Connection", "close"))

	t.logger.Debug("writing request",
		"method", request.Method,
		"target", request.Target,
		"fields", sliceutil.Map(request.Headers, func(f http.Field) string { return string(f.Name) }),
	)

	err := http.WriteRequest(w, request)
	if errors.Is(err, http.ErrInvalidFieldName) || errors.Is(err, http.ErrInvalidFieldValue) {
		return client.NewTransportError(client.CodeProtocol, err)
	}

	return err
}

// hostHeader omits the port when it is the default one of the scheme.
func hostHeader(u uri.URI) string {
	port, ok := u.Port()
	if !ok || port == uri.DefaultPort(u.Scheme()) {
		return u.Host()
	}
	return u.Host() + ":" + strconv.FormatUint(uint64(port), 10)
}

// readResponse reads one response and re-serializes it with its body
// decoded, so that the result no longer depends on transfer codings.
func (t *Transport) readResponse(r io.Reader) (client.Result, error) {
	if t.opts.MaxResponseSize > 0 {
		r = iolib.LimitReader(r, uint(t.opts.MaxResponseSize))
	}

	var res http.Response
	if err := http.NewResponseDecoder(r, t.opts.Decode).Decode(&res); err != nil {
		if isClosed(err) {
			return client.Result{}, client.NewTransportError(client.CodeConnectionClosed, err)
		}
		if errors.Is(err, ErrResponseTooLarge) || isTimeout(err) {
			return client.Result{}, err
		}
		return client.Result{}, client.NewTransportError(client.CodeProtocol, errors.Wrap(err, "decoding response head"))
	}

	body, err := t.readBody(&res)
	if err != nil {
		return client.Result{}, err
	}

	res.Body = bytes.NewReader(body)

	buf := bytes.NewBuffer(nil)
	if err := http.WriteResponse(buf, res); err != nil {
		return client.Result{}, client.NewTransportError(client.CodeProtocol, errors.Wrap(err, "encoding received response"))
	}

	return client.Result{StatusCode: res.StatusCode, Raw: buf.Bytes()}, nil
}

// readBody reads the body of res and rewrites its framing headers to
// describe the decoded body.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3
func (t *Transport) readBody(res *http.Response) ([]byte, error) {
	if te, ok := http.LookupField(res.Headers, "Transfer-Encoding"); ok {
		var trailers []http.Field

		r, err := t.decoders.Decode(res.Body, transfer.ParseCodings(te), func(f []http.Field) {
			trailers = append(trailers, f...)
		})
		if err != nil {
			return nil, client.NewTransportError(client.CodeProtocol, err)
		}

		body, err := io.ReadAll(r)
		if err != nil {
			return nil, bodyError(err)
		}

		res.Headers = http.DropField(res.Headers, "Transfer-Encoding")
		res.Headers = http.DropField(res.Headers, "Content-Length")
		res.Headers = append(res.Headers, trailers...)
		res.Headers = append(res.Headers, http.NewField("Content-Length", strconv.Itoa(len(body))))

		return body, nil
	}

	if noBody(res.StatusCode) {
		return nil, nil
	}

	if cl, ok := http.LookupField(res.Headers, "Content-Length"); ok {
		n, err := strconv.ParseUint(string(cl), 10, 63)
		if err != nil {
			return nil, client.NewTransportError(client.CodeProtocol, errors.Wrapf(err, "content length %q", cl))
		}

		if max := t.opts.MaxResponseSize; max > 0 && n > uint64(max) {
			return nil, client.NewTransportError(client.CodeProtocol,
				errors.Wrapf(ErrResponseTooLarge, "content length %d", n))
		}

		// The buffer grows with what arrives, not with what was announced.
		buf := bytes.NewBuffer(nil)
		if _, err := io.CopyN(buf, res.Body, int64(n)); err != nil {
			return nil, bodyError(unexpected(err))
		}
		return buf.Bytes(), nil
	}

	// Delimited by connection close.
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, bodyError(err)
	}

	return body, nil
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

func noBody(code int) bool {
	return (code >= 100 && code < 200) || code == 204 || code == 304
}

func bodyError(err error) error {
	if isClosed(err) {
		return client.NewTransportError(client.CodeConnectionClosed, errors.Wrap(err, "reading body"))
	}
	if errors.Is(err, transfer.ErrMalformedChunk) {
		return client.NewTransportError(client.CodeProtocol, err)
	}
	return errors.Wrap(err, "reading body")
}

func isClosed(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET)
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// classify maps err to a TransportError, keeping one that is already there.
func classify(ctx context.Context, err error, fallback client.TransportCode) error {
	var te *client.TransportError
	if errors.As(err, &te) {
		return te
	}

	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return client.NewTransportError(client.CodeCanceled, errors.Wrap(ctx.Err(), err.Error()))
	case ctx.Err() != nil:
		return client.NewTransportError(client.CodeTimeout, errors.Wrap(ctx.Err(), err.Error()))
	case isTimeout(err):
		return client.NewTransportError(client.CodeTimeout, err)
	case errors.Is(err, ErrResponseTooLarge):
		return client.NewTransportError(client.CodeProtocol, err)
	case isClosed(err):
		return client.NewTransportError(client.CodeConnectionClosed, err)
	}

	return client.NewTransportError(fallback, err)
}
