package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/context/ctxhttp"
)

// Client talks to a remote "huffpack serve".
type Client struct {
	BaseURL string

	h *http.Client
}

func NewClient(base_url string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(base_url, "/"),
		h: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

type APIError struct {
	Code        string
	Description string

	req  *http.Request
	resp *http.Response
	data []byte
	err  error
}

func (e APIError) Error() string {
	b := &bytes.Buffer{}
	if e.req != nil {
		fmt.Fprintf(b, "error while calling %s: ", e.req.URL)
	}
	if e.resp != nil {
		fmt.Fprintf(b, "got status %d: ", e.resp.StatusCode)
	}
	if e.Code != "" {
		fmt.Fprintf(b, "%s: %s", e.Code, e.Description)
		return b.String()
	}
	if e.data != nil {
		fmt.Fprintf(b, "got data: %q: ", string(e.data))
	}
	if e.err != nil {
		b.WriteString(e.err.Error())
	} else {
		b.WriteString("unexpected status code")
	}

	return b.String()
}

func (e APIError) Unwrap() error {
	return e.err
}

func (e APIError) StatusCode() int {
	if e.resp == nil {
		return 0
	}
	return e.resp.StatusCode
}

// upload posts filename/data as the "file" form field to path and
// returns the reply body with its headers.
func (c *Client) upload(ctx context.Context, path, filename string, data []byte, password string) ([]byte, http.Header, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	w, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot create form file: %w", err)
	}
	if _, err = w.Write(data); err != nil {
		return nil, nil, fmt.Errorf("cannot write into multipart form: %w", err)
	}
	if password != "" {
		if err = mw.WriteField("password", password); err != nil {
			return nil, nil, fmt.Errorf("cannot write into multipart form: %w", err)
		}
	}
	if err = mw.Close(); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequest("POST", c.BaseURL+path, buf)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot make http request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("User-Agent", "huffpack")

	resp, err := ctxhttp.Do(ctx, c.h, req)
	if err != nil {
		return nil, nil, APIError{req: req, err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, APIError{req: req, err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		api_err := APIError{req: req, resp: resp, data: body}
		var reply struct {
			Error       string `json:"error"`
			Description string `json:"description"`
		}
		if json.Unmarshal(body, &reply) == nil {
			api_err.Code = reply.Error
			api_err.Description = reply.Description
		}
		return nil, nil, api_err
	}

	return body, resp.Header, nil
}

// Compress returns the artifact and the id of the run the server
// recorded for it.
func (c *Client) Compress(ctx context.Context, filename string, data []byte, password string) ([]byte, string, error) {
	artifact, h, err := c.upload(ctx, "/compress", filename, data, password)
	if err != nil {
		return nil, "", err
	}
	return artifact, h.Get("X-Run-Id"), nil
}

func (c *Client) Decompress(ctx context.Context, filename string, artifact []byte, password string) ([]byte, error) {
	data, _, err := c.upload(ctx, "/decompress", filename, artifact, password)
	return data, err
}

// vim: ai:ts=8:sw=8:noet:syntax=go
