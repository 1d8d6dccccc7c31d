package transfer

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	"http-message/application/http"
	"http-message/application/util/rule"
	bytesutil "http-message/util/bytes"

	"github.com/pkg/errors"
)

var ErrMalformedChunk = errors.New("malformed chunked body")

// maxChunkLineLength bounds chunk-size and trailer lines.
const maxChunkLineLength = 8192

type chunkedDecoder struct{}

func (chunkedDecoder) Coding() Coding { return CodingChunked }

func (chunkedDecoder) NewReader(r io.Reader) io.Reader { return NewChunkedReader(r) }

// ChunkedReader yields the data of a chunked body. Chunk extensions are skipped.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-7.1
type ChunkedReader struct {
	br     *bufio.Reader
	remain uint64 // data bytes left in the current chunk
	done   bool

	onTrailer func(f []http.Field)
}

var _ io.Reader = (*ChunkedReader)(nil)

func NewChunkedReader(r io.Reader) *ChunkedReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &ChunkedReader{br: br}
}

// OnTrailer registers f, called once with the trailer section after the last chunk.
func (cr *ChunkedReader) OnTrailer(f func(f []http.Field)) { cr.onTrailer = f }

func (cr *ChunkedReader) Read(p []byte) (int, error) {
	if cr.done {
		return 0, io.EOF
	}

	if cr.remain == 0 {
		size, err := cr.chunkSize()
		if err != nil {
			return 0, err
		}

		if size == 0 {
			if err := cr.trailers(); err != nil {
				return 0, errors.Wrap(err, "reading trailer section")
			}
			cr.done = true
			return 0, io.EOF
		}
		cr.remain = size
	}

	if uint64(len(p)) > cr.remain {
		p = p[:cr.remain]
	}

	n, err := cr.br.Read(p)
	cr.remain -= uint64(n)
	if err != nil {
		return n, errors.Wrap(unexpected(err), "reading chunk data")
	}

	if cr.remain == 0 {
		if err := cr.chunkEnd(); err != nil {
			return n, err
		}
	}

	return n, nil
}

func (cr *ChunkedReader) chunkSize() (uint64, error) {
	line, err := readCRLFLine(cr.br)
	if err != nil {
		return 0, errors.Wrap(err, "reading chunk size")
	}

	raw, _, _ := bytes.Cut(line, []byte{';'})
	raw = bytes.TrimFunc(raw, rule.IsWhitespace)

	size, err := strconv.ParseUint(string(raw), 16, 63)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedChunk, "chunk size is not hex: %q", raw)
	}

	return size, nil
}

func (cr *ChunkedReader) chunkEnd() error {
	crlf := make([]byte, len(rule.CRLF))
	if _, err := io.ReadFull(cr.br, crlf); err != nil {
		return errors.Wrap(unexpected(err), "reading chunk delimiter")
	}

	if !bytes.Equal(crlf, rule.CRLF) {
		return errors.Wrap(ErrMalformedChunk, "chunk data not followed by CRLF")
	}

	return nil
}

func (cr *ChunkedReader) trailers() error {
	fields := make([]http.Field, 0)
	for {
		line, err := readCRLFLine(cr.br)
		if err != nil {
			return err
		}
		if len(line) == 0 {
			break
		}

		field, err := http.ParseField(line)
		if err != nil {
			return errors.Wrap(ErrMalformedChunk, err.Error())
		}
		fields = append(fields, field)
	}

	if cr.onTrailer != nil {
		cr.onTrailer(fields)
	}

	return nil
}

func readCRLFLine(br *bufio.Reader) ([]byte, error) {
	line, err := bytesutil.ReadLine(br, maxChunkLineLength)
	if errors.Is(err, bytesutil.ErrLineTooLong) {
		return nil, errors.Wrap(ErrMalformedChunk, err.Error())
	}
	if err != nil {
		return nil, err
	}

	line, ok := bytes.CutSuffix(line, rule.CRLF)
	if !ok {
		return nil, errors.Wrap(ErrMalformedChunk, "line not terminated by CRLF")
	}

	return line, nil
}

// unexpected reports a body that ends mid-chunk.
func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
