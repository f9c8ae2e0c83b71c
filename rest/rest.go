// Package rest is a thin client for services that speak LLSD over HTTP.
// Each Service pairs a base URL with an Encoding that fixes how request and
// response bodies serialize: LLSD XML, LLSD notation, or plain JSON.
package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/llbase/go-llbase/llsd"
)

// Error describes a failed request: a transport problem, an encoding
// problem, or a non-2xx response from the service.
type Error struct {
	Service string
	URL     string
	Status  int
	Msg     string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d for %s)", e.Service, e.Msg, e.Status, e.URL)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Service, e.Msg, e.URL)
}

// Encoding fixes the body serialization of a Service.
type Encoding interface {
	ContentType() string
	Accept() string
	Encode(llsd.Value) ([]byte, error)
	Decode([]byte) (llsd.Value, error)
}

// The built-in encodings.
var (
	LLSDXML      Encoding = llsdXMLEncoding{}
	LLSDNotation Encoding = llsdNotationEncoding{}
	JSON         Encoding = jsonEncoding{}
)

type llsdXMLEncoding struct{}

func (llsdXMLEncoding) ContentType() string { return llsd.XMLMimeType }
func (llsdXMLEncoding) Accept() string      { return llsd.XMLMimeType }
func (llsdXMLEncoding) Encode(v llsd.Value) ([]byte, error) {
	return llsd.FormatXML(v)
}
func (llsdXMLEncoding) Decode(data []byte) (llsd.Value, error) {
	return llsd.Parse(data, "")
}

type llsdNotationEncoding struct{}

func (llsdNotationEncoding) ContentType() string { return llsd.NotationMimeType }
func (llsdNotationEncoding) Accept() string      { return "*/*" }
func (llsdNotationEncoding) Encode(v llsd.Value) ([]byte, error) {
	return llsd.FormatNotation(v)
}
func (llsdNotationEncoding) Decode(data []byte) (llsd.Value, error) {
	return llsd.Parse(data, "")
}

type jsonEncoding struct{}

func (jsonEncoding) ContentType() string { return "application/json" }
func (jsonEncoding) Accept() string      { return "application/json" }
func (jsonEncoding) Encode(v llsd.Value) ([]byte, error) {
	return gojson.Marshal(v.Any())
}
func (jsonEncoding) Decode(data []byte) (llsd.Value, error) {
	return llsd.ParseJSON(data)
}

// Options tunes a Service beyond its name and base URL.
type Options struct {
	// Encoding for request and response bodies. Defaults to LLSDXML.
	Encoding Encoding

	// Client used for requests. Defaults to http.DefaultClient.
	Client *http.Client

	// Username and Password enable HTTP basic authentication when Username
	// is non-empty.
	Username string
	Password string
}

// Service issues requests against one REST endpoint.
type Service struct {
	name    string
	baseURL string
	opts    Options
}

// NewService returns a Service named name (used in error messages) rooted at
// baseURL.
func NewService(name, baseURL string, opts *Options) *Service {
	s := &Service{name: name, baseURL: strings.TrimRight(baseURL, "/")}
	if opts != nil {
		s.opts = *opts
	}
	if s.opts.Encoding == nil {
		s.opts.Encoding = LLSDXML
	}
	if s.opts.Client == nil {
		s.opts.Client = http.DefaultClient
	}
	return s
}

// Name returns the service name.
func (s *Service) Name() string { return s.name }

func (s *Service) url(path string) string {
	if path == "" {
		return s.baseURL
	}
	return s.baseURL + "/" + strings.TrimLeft(path, "/")
}

// Get requests path and decodes the response body.
func (s *Service) Get(ctx context.Context, path string) (llsd.Value, error) {
	return s.do(ctx, http.MethodGet, path, nil)
}

// Post sends body to path and decodes the response.
func (s *Service) Post(ctx context.Context, path string, body llsd.Value) (llsd.Value, error) {
	return s.do(ctx, http.MethodPost, path, &body)
}

// Put sends body to path and decodes the response.
func (s *Service) Put(ctx context.Context, path string, body llsd.Value) (llsd.Value, error) {
	return s.do(ctx, http.MethodPut, path, &body)
}

// Delete requests deletion of path and decodes the response.
func (s *Service) Delete(ctx context.Context, path string) (llsd.Value, error) {
	return s.do(ctx, http.MethodDelete, path, nil)
}

func (s *Service) do(ctx context.Context, method, path string, body *llsd.Value) (llsd.Value, error) {
	u := s.url(path)
	if _, err := url.Parse(u); err != nil {
		return llsd.Undef(), &Error{Service: s.name, URL: u, Msg: "bad url: " + err.Error()}
	}

	var reqBody io.Reader
	if body != nil {
		data, err := s.opts.Encoding.Encode(*body)
		if err != nil {
			return llsd.Undef(), &Error{Service: s.name, URL: u, Msg: "encode request: " + err.Error()}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return llsd.Undef(), &Error{Service: s.name, URL: u, Msg: err.Error()}
	}
	req.Header.Set("Accept", s.opts.Encoding.Accept())
	if body != nil {
		req.Header.Set("Content-Type", s.opts.Encoding.ContentType())
	}
	if s.opts.Username != "" {
		req.SetBasicAuth(s.opts.Username, s.opts.Password)
	}

	resp, err := s.opts.Client.Do(req)
	if err != nil {
		return llsd.Undef(), &Error{Service: s.name, URL: u, Msg: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return llsd.Undef(), &Error{Service: s.name, URL: u, Status: resp.StatusCode, Msg: "read response: " + err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(data))
		if len(msg) > 200 {
			msg = msg[:200]
		}
		if msg == "" {
			msg = resp.Status
		}
		return llsd.Undef(), &Error{Service: s.name, URL: u, Status: resp.StatusCode, Msg: msg}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return llsd.Undef(), nil
	}

	v, err := s.opts.Encoding.Decode(data)
	if err != nil {
		return llsd.Undef(), &Error{Service: s.name, URL: u, Status: resp.StatusCode, Msg: "decode response: " + err.Error()}
	}
	return v, nil
}
