package tcp

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"http-message/application/http"
	"http-message/application/http/client"
	"http-message/application/http/message"
	"http-message/application/util/domain"
	"http-message/application/util/uri"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

// receivedRequest is the request as the test server saw it.
type receivedRequest struct {
	line   string
	fields []string
	body   []byte
}

type TransportTestSuite struct {
	suite.Suite

	ln   net.Listener
	port uint16
	wg   sync.WaitGroup

	logger    *slog.Logger
	lookuper  domain.Lookuper
	transport *Transport
}

func TestTransportTestSuite(t *testing.T) {
	suite.Run(t, new(TransportTestSuite))
}

func (s *TransportTestSuite) SetupTest() {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)
	s.ln = ln
	s.port = uint16(ln.Addr().(*net.TCPAddr).Port)

	s.logger = slog.New(slog.DiscardHandler)
	s.lookuper = domain.NewMapLookuper(map[string][]netip.Addr{
		"service.test": {netip.MustParseAddr("127.0.0.1")},
	})

	s.transport = s.newTransport(DefaultOptions)
}

func (s *TransportTestSuite) TearDownTest() {
	defer goleak.VerifyNone(s.T())
	_ = s.ln.Close()
	s.wg.Wait()
}

func (s *TransportTestSuite) newTransport(opts Options) *Transport {
	opts.IOTimeout = 5 * time.Second
	// Deadlines are set on real sockets.
	t, err := New(s.lookuper, s.logger, clock.New(), opts)
	s.Require().NoError(err)
	return t
}

func (s *TransportTestSuite) url(path string) string {
	return "http://service.test:" + strconv.Itoa(int(s.port)) + path
}

// serve reads one request from the next connection and answers it with respond.
func (s *TransportTestSuite) serve(respond func(w net.Conn)) <-chan receivedRequest {
	received := make(chan receivedRequest, 1)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(received)

		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		req, err := readRequest(bufio.NewReader(conn))
		if err != nil {
			return
		}

		received <- req
		respond(conn)
	}()

	return received
}

func readRequest(br *bufio.Reader) (receivedRequest, error) {
	var req receivedRequest

	line, err := br.ReadString('\n')
	if err != nil {
		return req, err
	}
	req.line = strings.TrimSuffix(line, "\r\n")

	length := 0
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return req, err
		}
		line = strings.TrimSuffix(line, "\r\n")
		if line == "" {
			break
		}
		req.fields = append(req.fields, line)

		if name, value, _ := strings.Cut(line, ":"); strings.EqualFold(name, "Content-Length") {
			length, _ = strconv.Atoi(strings.TrimSpace(value))
		}
	}

	req.body = make([]byte, length)
	_, err = io.ReadFull(br, req.body)
	return req, err
}

func writeResponse(w io.Writer, code int, fields []http.Field, body []byte) {
	res := http.Response{
		StatusLine: http.StatusLine{Version: http.Version11, StatusCode: code, ReasonPhrase: "Whatever"},
		Headers:    fields,
	}
	if body != nil {
		res.Body = bytes.NewReader(body)
	}
	_ = http.WriteResponse(w, res)
}

func (s *TransportTestSuite) send(params client.Params) (client.Result, error) {
	session, err := s.transport.Open(context.Background())
	s.Require().NoError(err)
	defer func() { s.NoError(session.Close()) }()

	return session.Send(context.Background(), params)
}

func (s *TransportTestSuite) params(method message.Method, rawURL string) client.Params {
	u, err := uri.Parse(rawURL)
	s.Require().NoError(err)
	return client.Params{Method: method, URI: u}
}

func (s *TransportTestSuite) TestContentLength() {
	received := s.serve(func(w net.Conn) {
		writeResponse(w, 200, []http.Field{
			http.NewField("Content-Type", "text/plain"),
			http.NewField("Content-Length", "5"),
		}, []byte("hello"))
	})

	params := s.params(message.MethodPost, s.url("/path?q=a b"))
	params.Headers = []string{"X-Custom: 1", "X-Custom: 2"}
	params.Body = []byte("payload")
	params.HasBody = true
	params.BasicAuth = "user:pass"

	result, err := s.send(params)
	s.Require().NoError(err)

	s.Equal(200, result.StatusCode)

	raw, err := http.ParseRaw(result.Raw, http.FramingBlankLine)
	s.Require().NoError(err)
	s.Equal("HTTP/1.1", raw.Version)
	s.Equal("hello", string(raw.Body))

	got := <-received
	s.Equal("POST /path?q=a%20b HTTP/1.1", got.line)
	s.Equal("payload", string(got.body))
	s.Equal([]string{
		"Host: service.test:" + strconv.Itoa(int(s.port)),
		"X-Custom: 1",
		"X-Custom: 2",
		"Authorization: Basic dXNlcjpwYXNz",
		"Content-Length: 7",
		"Connection: close",
	}, got.fields)
}

func (s *TransportTestSuite) TestChunked() {
	s.serve(func(w net.Conn) {
		writeResponse(w, 200, []http.Field{http.NewField("Transfer-Encoding", "chunked")}, nil)

		_, _ = w.Write([]byte("" +
			"6;ext=1\r\nhello \r\n" +
			"5\r\nworld\r\n" +
			"0\r\n" +
			"X-Checksum: abc\r\n" +
			"\r\n"))
	})

	result, err := s.send(s.params(message.MethodGet, s.url("/")))
	s.Require().NoError(err)

	raw, err := http.ParseRaw(result.Raw, http.FramingBlankLine)
	s.Require().NoError(err)
	s.Equal("hello world", string(raw.Body))

	_, ok := http.LookupField(raw.Fields, "Transfer-Encoding")
	s.False(ok)

	cl, ok := http.LookupField(raw.Fields, "Content-Length")
	s.True(ok)
	s.Equal("11", string(cl))

	checksum, ok := http.LookupField(raw.Fields, "X-Checksum")
	s.True(ok)
	s.Equal("abc", string(checksum))
}

func (s *TransportTestSuite) TestCloseDelimited() {
	s.serve(func(w net.Conn) {
		writeResponse(w, 200, nil, []byte("until close"))
	})

	result, err := s.send(s.params(message.MethodGet, s.url("/")))
	s.Require().NoError(err)
	s.True(strings.HasSuffix(string(result.Raw), "\r\n\r\nuntil close"))
}

func (s *TransportTestSuite) TestNoContent() {
	s.serve(func(w net.Conn) {
		writeResponse(w, 204, nil, nil)
	})

	result, err := s.send(s.params(message.MethodDelete, s.url("/")))
	s.Require().NoError(err)
	s.Equal(204, result.StatusCode)
}

func (s *TransportTestSuite) TestClosedWithoutResponse() {
	s.serve(func(w net.Conn) {})

	_, err := s.send(s.params(message.MethodGet, s.url("/")))
	s.requireCode(err, client.CodeConnectionClosed)
}

func (s *TransportTestSuite) TestMalformedResponse() {
	s.serve(func(w net.Conn) {
		_, _ = w.Write([]byte("garbage\r\n\r\n"))
	})

	_, err := s.send(s.params(message.MethodGet, s.url("/")))
	s.requireCode(err, client.CodeProtocol)
}

func (s *TransportTestSuite) TestResponseTooLarge() {
	opts := DefaultOptions
	opts.MaxResponseSize = 64
	s.transport = s.newTransport(opts)

	s.serve(func(w net.Conn) {
		body := bytes.Repeat([]byte("x"), 1024)
		writeResponse(w, 200, []http.Field{http.NewField("Content-Length", "1024")}, body)
	})

	_, err := s.send(s.params(message.MethodGet, s.url("/")))
	s.requireCode(err, client.CodeProtocol)
	s.ErrorIs(err, ErrResponseTooLarge)
}

func (s *TransportTestSuite) TestMalformedChunkedBody() {
	s.serve(func(w net.Conn) {
		writeResponse(w, 200, []http.Field{http.NewField("Transfer-Encoding", "chunked")}, nil)
		_, _ = w.Write([]byte("zz\r\nnot hex\r\n0\r\n\r\n"))
	})

	_, err := s.send(s.params(message.MethodGet, s.url("/")))
	s.requireCode(err, client.CodeProtocol)
}

func (s *TransportTestSuite) TestHugeContentLength() {
	testcases := []struct {
		desc     string
		max      int64
		expected client.TransportCode
		wantErr  error
	}{
		{desc: "above the limit", max: 1024, expected: client.CodeProtocol, wantErr: ErrResponseTooLarge},
		{desc: "no limit", max: 0, expected: client.CodeConnectionClosed},
	}

	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			opts := DefaultOptions
			opts.MaxResponseSize = tc.max
			s.transport = s.newTransport(opts)

			s.serve(func(w net.Conn) {
				_, _ = w.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: 9223372036854775806\r\n\r\nx"))
			})

			_, err := s.send(s.params(message.MethodGet, s.url("/")))
			s.requireCode(err, tc.expected)
			if tc.wantErr != nil {
				s.ErrorIs(err, tc.wantErr)
			}
		})
	}
}

func (s *TransportTestSuite) TestShortContentLengthBody() {
	s.serve(func(w net.Conn) {
		_, _ = w.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: 10\r\n\r\nabc"))
	})

	_, err := s.send(s.params(message.MethodGet, s.url("/")))
	s.requireCode(err, client.CodeConnectionClosed)
}

func (s *TransportTestSuite) TestContextCanceled() {
	release := make(chan struct{})
	s.serve(func(w net.Conn) { <-release })
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	stop := time.AfterFunc(50*time.Millisecond, cancel)
	defer stop.Stop()

	session, err := s.transport.Open(ctx)
	s.Require().NoError(err)
	defer func() { s.NoError(session.Close()) }()

	_, err = session.Send(ctx, s.params(message.MethodGet, s.url("/")))
	s.requireCode(err, client.CodeCanceled)
	s.ErrorIs(err, context.Canceled)
}

func (s *TransportTestSuite) TestContextDeadline() {
	release := make(chan struct{})
	s.serve(func(w net.Conn) { <-release })
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	session, err := s.transport.Open(ctx)
	s.Require().NoError(err)
	defer func() { s.NoError(session.Close()) }()

	_, err = session.Send(ctx, s.params(message.MethodGet, s.url("/")))
	s.requireCode(err, client.CodeTimeout)
}

func (s *TransportTestSuite) TestDialFailures() {
	closed, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)
	closedPort := closed.Addr().(*net.TCPAddr).Port
	s.Require().NoError(closed.Close())

	testcases := []struct {
		desc     string
		rawURL   string
		expected client.TransportCode
	}{
		{desc: "unknown host", rawURL: "http://unknown.test/", expected: client.CodeDNSFailure},
		{desc: "refused", rawURL: "http://127.0.0.1:" + strconv.Itoa(closedPort) + "/", expected: client.CodeConnectFailure},
		{desc: "unsupported scheme", rawURL: "ftp://service.test/", expected: client.CodeProtocol},
		{desc: "no host", rawURL: "/relative", expected: client.CodeProtocol},
	}
	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			_, err := s.send(s.params(message.MethodGet, tc.rawURL))
			s.requireCode(err, tc.expected)
		})
	}
}

func (s *TransportTestSuite) TestSessionIsSingleUse() {
	s.serve(func(w net.Conn) {
		writeResponse(w, 200, []http.Field{http.NewField("Content-Length", "0")}, nil)
	})

	session, err := s.transport.Open(context.Background())
	s.Require().NoError(err)
	defer func() { s.NoError(session.Close()) }()

	params := s.params(message.MethodGet, s.url("/"))

	_, err = session.Send(context.Background(), params)
	s.Require().NoError(err)

	_, err = session.Send(context.Background(), params)
	s.requireCode(err, client.CodeProtocol)
}

func (s *TransportTestSuite) TestWithClient() {
	s.serve(func(w net.Conn) {
		body := []byte(`{"items":[{"id":1},{"id":2}]}`)
		writeResponse(w, 200, []http.Field{
			http.NewField("Content-Type", "application/json"),
			http.NewField("Content-Length", strconv.Itoa(len(body))),
		}, body)
	})

	c, err := client.New(s.transport, s.logger, clock.NewMock(), client.Options{
		BaseURL: s.url("/api/"),
		Receive: client.ReceiveOptions{Framing: http.FramingBlankLine},
	})
	s.Require().NoError(err)

	req, err := message.Get("items", message.Header("Accept", "application/json"))
	s.Require().NoError(err)

	res, err := req.Execute(context.Background(), c)
	s.Require().NoError(err)

	s.True(res.IsSuccess())
	s.Equal("OK", res.ReasonPhrase())

	ids, err := res.Lookup("items.#.id")
	s.Require().NoError(err)
	s.Equal("[1,2]", ids.Raw)
}

func (s *TransportTestSuite) TestClientFraming() {
	body := "{\"id\":7}\n"

	testcases := []struct {
		desc     string
		framing  http.Framing
		expected string
	}{
		{desc: "blank line keeps the body", framing: http.FramingBlankLine, expected: body},
		{desc: "positional sees the empty last line", framing: http.FramingPositional, expected: ""},
	}

	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			s.serve(func(w net.Conn) {
				writeResponse(w, 200, []http.Field{
					http.NewField("Content-Type", "application/json"),
					http.NewField("Content-Length", strconv.Itoa(len(body))),
				}, []byte(body))
			})

			c, err := client.New(s.transport, s.logger, clock.NewMock(), client.Options{
				Receive: client.ReceiveOptions{Framing: tc.framing},
			})
			s.Require().NoError(err)

			req, err := message.Get(s.url("/item"))
			s.Require().NoError(err)

			res, err := req.Execute(context.Background(), c)
			s.Require().NoError(err)
			s.Equal(tc.expected, res.Body().String())
		})
	}
}

func (s *TransportTestSuite) requireCode(err error, code client.TransportCode) {
	var te *client.TransportError
	s.Require().ErrorAs(err, &te)
	s.Equal(code, te.Code, te.Error())
}
