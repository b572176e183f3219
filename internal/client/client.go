// Package client talks to the REST backend on behalf of admin tooling.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/unicover/unicover-lms/internal/course"
	"github.com/unicover/unicover-lms/internal/question"
	"github.com/unicover/unicover-lms/internal/testbank"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("api: %d %s: %s", e.Status, http.StatusText(e.Status), body)
}

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	h := c.HTTP
	if h == nil {
		h = http.DefaultClient
	}
	res, err := h.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
		return &APIError{Status: res.StatusCode, Body: string(b)}
	}
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// Login exchanges credentials for a token and keeps it on the client.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	err := c.do(ctx, "POST", "/api/auth/login/", map[string]string{"username": username, "password": password}, &out)
	if err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("login: empty token")
	}
	c.Token = out.AccessToken
	return out.AccessToken, nil
}

// listBody accepts a bare array, a paginated {results} envelope or a
// {data} wrapper.
func listBody[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var out []T
		return out, json.Unmarshal(raw, &out)
	}
	var env struct {
		Results []T `json:"results"`
		Data    []T `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	if env.Results != nil {
		return env.Results, nil
	}
	return env.Data, nil
}

type TestFilter struct {
	Language string
	Search   string
	Page     int
	PageSize int
}

func (c *Client) ListTests(ctx context.Context, f TestFilter) ([]testbank.Test, error) {
	q := url.Values{}
	if f.Language != "" {
		q.Set("language", f.Language)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(f.PageSize))
	}
	path := "/api/tests/"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var raw json.RawMessage
	if err := c.do(ctx, "GET", path, nil, &raw); err != nil {
		return nil, err
	}
	return listBody[testbank.Test](raw)
}

// GetTest loads a test with its questions converted to the editor shape.
func (c *Client) GetTest(ctx context.Context, id int64) (UITest, error) {
	var t testbank.Test
	if err := c.do(ctx, "GET", testPath(id), nil, &t); err != nil {
		return UITest{}, err
	}
	return fromServer(t)
}

func (c *Client) CreateTest(ctx context.Context, t testbank.Test) (testbank.Test, error) {
	var out testbank.Test
	err := c.do(ctx, "POST", "/api/tests/", t, &out)
	return out, err
}

func (c *Client) UpdateTest(ctx context.Context, t testbank.Test) (testbank.Test, error) {
	var out testbank.Test
	err := c.do(ctx, "PUT", testPath(t.ID), t, &out)
	return out, err
}

func (c *Client) DeleteTest(ctx context.Context, id int64) error {
	return c.do(ctx, "DELETE", testPath(id), nil, nil)
}

func (c *Client) ListQuestions(ctx context.Context, testID int64) ([]question.APIQuestion, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "GET", testPath(testID)+"questions/", nil, &raw); err != nil {
		return nil, err
	}
	return listBody[question.APIQuestion](raw)
}

func (c *Client) AddQuestion(ctx context.Context, testID int64, q question.APIQuestion) (question.APIQuestion, error) {
	var out question.APIQuestion
	err := c.do(ctx, "POST", testPath(testID)+"questions/", q, &out)
	return out, err
}

func (c *Client) UpdateQuestion(ctx context.Context, testID int64, id string, q question.APIQuestion) (question.APIQuestion, error) {
	var out question.APIQuestion
	err := c.do(ctx, "PUT", testPath(testID)+"questions/"+url.PathEscape(id)+"/", q, &out)
	return out, err
}

func (c *Client) DeleteQuestion(ctx context.Context, testID int64, id string) error {
	return c.do(ctx, "DELETE", testPath(testID)+"questions/"+url.PathEscape(id)+"/", nil, nil)
}

type CourseFilter struct {
	Status   string
	Language string
	Search   string
}

func (c *Client) ListCourses(ctx context.Context, f CourseFilter) ([]course.Course, error) {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Language != "" {
		q.Set("language", f.Language)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	path := "/api/courses/"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var raw json.RawMessage
	if err := c.do(ctx, "GET", path, nil, &raw); err != nil {
		return nil, err
	}
	return listBody[course.Course](raw)
}

func testPath(id int64) string { return "/api/tests/" + strconv.FormatInt(id, 10) + "/" }
