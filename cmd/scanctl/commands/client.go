package commands

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/multierr"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const apiPrefix = "/api/v1"

// APIError is a non-2xx answer from the service.
type APIError struct {
	Status  int
	Message string `json:"error"`
	Code    string `json:"code"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

type client struct {
	base    string
	token   string
	timeout time.Duration
}

func newClient(base, token string, timeout time.Duration) *client {
	return &client{
		base:    strings.TrimRight(base, "/"),
		token:   token,
		timeout: timeout,
	}
}

func (c *client) url(path string) string {
	return c.base + apiPrefix + path
}

// websocketURL maps the http(s) base onto ws(s) and passes the token as a
// query parameter, which is how the socket routes authenticate.
func (c *client) websocketURL(path string) (string, error) {
	u, err := url.Parse(c.url(path))
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server scheme %q", u.Scheme)
	}

	if c.token != "" {
		q := u.Query()
		q.Set("token", c.token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *client) do(agent *fiber.Agent, body interface{}, out interface{}, headers map[string]string) error {
	agent.Timeout(c.timeout)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if c.token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	for k, v := range headers {
		agent.Set(k, v)
	}
	if body != nil {
		agent.JSON(body)
	}

	status, raw, errs := agent.Bytes()
	if len(errs) > 0 {
		return multierr.Combine(errs...)
	}

	if status < 200 || status >= 300 {
		apiErr := &APIError{Status: status}
		if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *client) get(path string, out interface{}) error {
	return c.do(fiber.Get(c.url(path)), nil, out, nil)
}

func (c *client) post(path string, body, out interface{}, headers map[string]string) error {
	return c.do(fiber.Post(c.url(path)), body, out, headers)
}

func (c *client) delete(path string, out interface{}) error {
	return c.do(fiber.Delete(c.url(path)), nil, out, nil)
}

func (c *client) requireToken() error {
	if c.token == "" {
		return errors.New("no access token: run `scanctl token` and pass --token or set SCANCTL_TOKEN")
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
