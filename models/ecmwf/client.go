package ecmwf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	. "hstin/reanalysis/helper"

	"github.com/xhhuango/json"
	"golang.org/x/net/http2"
)

// APIError is a request rejected by the Web API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("ecmwf api: %s (status %s, http %d)", e.Message, e.Status, e.StatusCode)
	}
	return fmt.Sprintf("ecmwf api: %s (http %d)", e.Message, e.StatusCode)
}

type apiReply struct {
	Name     string   `json:"name"`
	Status   string   `json:"status"`
	Href     string   `json:"href"`
	Size     int64    `json:"size"`
	Error    string   `json:"error"`
	Reason   string   `json:"reason"`
	Messages []string `json:"messages"`
}

type Client struct {
	credentials  Credentials
	outputFolder string
	pollInterval time.Duration
	httpClient   *http.Client

	// downloads have no deadline of their own, only ctx bounds them
	downloadClient *http.Client
}

type ClientOptions struct {
	Credentials  Credentials
	OutputFolder string
	PollInterval time.Duration
	Timeout      time.Duration
}

func NewClient(options ClientOptions) *Client {
	if options.PollInterval <= 0 {
		options.PollInterval = 30 * time.Second
	}
	if options.Timeout <= 0 {
		options.Timeout = 5 * time.Minute
	}
	if options.Credentials.URL == "" {
		options.Credentials.URL = DefaultAPIURL
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if err := http2.ConfigureTransport(transport); err != nil {
		Log.Warn().Err(err).Msg("HTTP/2 unavailable, using HTTP/1.1")
	}

	return &Client{
		credentials:    options.Credentials,
		outputFolder:   options.OutputFolder,
		pollInterval:   options.PollInterval,
		httpClient:     &http.Client{Timeout: options.Timeout, Transport: transport},
		downloadClient: &http.Client{Transport: transport},
	}
}

// Submit queues the request, waits for the archive to complete it, stores
// the data at the request target and removes the request from the queue.
func (c *Client) Submit(ctx context.Context, req *Request) (*Result, error) {
	dataset, ok := req.Get("dataset")
	if !ok {
		return nil, fmt.Errorf("request has no dataset")
	}
	target, ok := req.Get("target")
	if !ok {
		return nil, fmt.Errorf("request has no target")
	}
	if err := checkTarget(target); err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/datasets/%s/requests", strings.TrimSuffix(c.credentials.URL, "/"), dataset)
	reply, location, retry, err := c.call(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	if location == "" {
		location = reply.Href
	}
	if location == "" {
		return nil, fmt.Errorf("[API] no request location returned for %s", reply.Name)
	}
	defer c.cleanup(location)

	for reply.Status == "queued" || reply.Status == "active" {
		Log.Info().Str("request", reply.Name).Str("status", reply.Status).Dur("retry", retry).Msg("Waiting for archive")

		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		var next string
		reply, next, retry, err = c.call(ctx, http.MethodGet, location, nil)
		if err != nil {
			return nil, err
		}
		if next != "" {
			location = next
		}
	}

	if reply.Status != "complete" {
		return nil, &APIError{StatusCode: http.StatusOK, Status: reply.Status, Message: reply.Reason}
	}

	path := filepath.Join(c.outputFolder, target)
	size, err := c.download(ctx, reply.Href, path)
	if err != nil {
		return nil, err
	}
	if reply.Size > 0 && size != reply.Size {
		return nil, fmt.Errorf("[DL] size mismatch for %s: expected %d bytes, got %d", path, reply.Size, size)
	}

	return &Result{Request: req, Target: path, Href: reply.Href, Size: size}, nil
}

func (c *Client) newRequest(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("From", c.credentials.Email)
	req.Header.Set("X-ECMWF-KEY", c.credentials.Key)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) call(ctx context.Context, method, url string, body []byte) (*apiReply, string, time.Duration, error) {
	req, err := c.newRequest(ctx, method, url, body)
	if err != nil {
		return nil, "", 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", 0, fmt.Errorf("[API] %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	var reply apiReply
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", 0, fmt.Errorf("[API] reading reply: %w", err)
	}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &reply); err != nil && resp.StatusCode < 300 {
			return nil, "", 0, fmt.Errorf("[API] decoding reply: %w", err)
		}
	}

	for _, m := range reply.Messages {
		Log.Info().Str("request", reply.Name).Msg(m)
	}

	if resp.StatusCode > 299 || reply.Error != "" {
		message := reply.Error
		if message == "" {
			message = strings.TrimSpace(string(data))
		}
		if message == "" {
			message = resp.Status
		}
		return nil, "", 0, &APIError{StatusCode: resp.StatusCode, Status: reply.Status, Message: message}
	}

	retry := c.pollInterval
	if s := resp.Header.Get("Retry-After"); s != "" {
		if seconds, err := strconv.Atoi(s); err == nil && seconds >= 0 {
			retry = time.Duration(seconds) * time.Second
		}
	}

	return &reply, resp.Header.Get("Location"), retry, nil
}

func (c *Client) download(ctx context.Context, url, path string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.downloadClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("[DL] getting url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("[DL] non-200 status code: %d", resp.StatusCode)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("[DL] creating folder: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "download-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("[DL] creating file: %w", err)
	}
	cleanupTemp := true
	defer func() {
		_ = tmpFile.Close()
		if cleanupTemp {
			_ = os.Remove(tmpFile.Name())
		}
	}()

	size, err := io.Copy(tmpFile, resp.Body)
	if err != nil {
		return 0, fmt.Errorf("[DL] copying file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return 0, fmt.Errorf("[DL] closing file: %w", err)
	}
	if err := os.Rename(tmpFile.Name(), path); err != nil {
		return 0, fmt.Errorf("[DL] renaming file: %w", err)
	}
	cleanupTemp = false

	Log.Info().Str("target", path).Int64("size", size).Msg("Downloaded")
	return size, nil
}

// cleanup deletes the finished request from the queue. Failures are only logged.
func (c *Client) cleanup(location string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodDelete, location, nil)
	if err != nil {
		Log.Warn().Err(err).Msg("Error creating cleanup request")
		return
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		Log.Warn().Err(err).Str("location", location).Msg("Error deleting request")
		return
	}
	resp.Body.Close()
}
