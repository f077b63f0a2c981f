package api

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// decompressMiddleware handles decompression of request bodies based on the
// Content-Encoding header. Supports zstd; bodies without a Content-Encoding
// header pass through untouched.
func decompressMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			encoding := r.Header.Get("Content-Encoding")

			if encoding == "" {
				next.ServeHTTP(w, r)
				return
			}

			if strings.EqualFold(encoding, "zstd") {
				decoder, err := zstd.NewReader(r.Body)
				if err != nil {
					respondError(w, http.StatusBadRequest, "Failed to create zstd decoder")
					return
				}
				defer decoder.Close()

				r.Body = io.NopCloser(decoder)

				// Downstream handlers see an uncompressed body of
				// unknown length
				r.Header.Del("Content-Encoding")
				r.Header.Del("Content-Length")
				r.ContentLength = -1

				next.ServeHTTP(w, r)
				return
			}

			respondError(w, http.StatusUnsupportedMediaType,
				"Unsupported Content-Encoding: "+encoding)
		})
	}
}

// compressMiddleware compresses response bodies when the client advertises
// support via Accept-Encoding. Brotli is preferred over gzip. Responses that
// already carry a Content-Encoding (e.g. proxied object storage bytes) are
// left alone.
func compressMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accepted := r.Header.Get("Accept-Encoding")

			var encoding string
			switch {
			case acceptsEncoding(accepted, "br"):
				encoding = "br"
			case acceptsEncoding(accepted, "gzip"):
				encoding = "gzip"
			default:
				next.ServeHTTP(w, r)
				return
			}

			cw := &compressedResponseWriter{
				ResponseWriter: w,
				encoding:       encoding,
			}
			defer cw.close()

			next.ServeHTTP(cw, r)
		})
	}
}

func acceptsEncoding(header, encoding string) bool {
	for _, part := range strings.Split(header, ",") {
		name, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.EqualFold(name, encoding) {
			return true
		}
	}
	return false
}

// compressedResponseWriter defers choosing a writer until the first write so
// that handlers which set their own Content-Encoding bypass compression.
type compressedResponseWriter struct {
	http.ResponseWriter
	encoding    string
	writer      io.WriteCloser
	wroteHeader bool
	skip        bool
}

func (cw *compressedResponseWriter) WriteHeader(status int) {
	if cw.wroteHeader {
		return
	}
	cw.wroteHeader = true

	h := cw.Header()
	if h.Get("Content-Encoding") != "" || status == http.StatusNoContent {
		cw.skip = true
		cw.ResponseWriter.WriteHeader(status)
		return
	}

	h.Del("Content-Length")
	h.Set("Content-Encoding", cw.encoding)
	h.Add("Vary", "Accept-Encoding")
	cw.ResponseWriter.WriteHeader(status)

	if cw.encoding == "br" {
		cw.writer = brotli.NewWriter(cw.ResponseWriter)
	} else {
		cw.writer = gzip.NewWriter(cw.ResponseWriter)
	}
}

func (cw *compressedResponseWriter) Write(p []byte) (int, error) {
	if !cw.wroteHeader {
		cw.WriteHeader(http.StatusOK)
	}
	if cw.skip {
		return cw.ResponseWriter.Write(p)
	}
	return cw.writer.Write(p)
}

func (cw *compressedResponseWriter) close() {
	if cw.writer != nil {
		cw.writer.Close()
	}
}
