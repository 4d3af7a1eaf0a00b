package chainlog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client talks to a verification Server using JSON reports.
type Client struct {
	BaseURL string       // base URL of the verification server
	Client  *http.Client // can customize timeouts, TLS, etc.
}

// NewClient creates a JSON verification client.
func NewClient(baseURL string) *Client {
	return &Client{BaseURL: baseURL, Client: &http.Client{}}
}

// Verify asks the server to verify chainID and returns its report.
func (c *Client) Verify(ctx context.Context, chainID string) (Report, error) {
	body, err := c.post(ctx, chainID, "")
	if err != nil {
		return Report{}, err
	}
	var rep Report
	if err := json.Unmarshal(body, &rep); err != nil {
		return Report{}, fmt.Errorf("decode report: %w", err)
	}
	return rep, nil
}

// Head fetches the server's view of the chain's head pointer. ok is false
// when the server has no head recorded.
func (c *Client) Head(ctx context.Context, chainID string) (head string, ok bool, err error) {
	url := fmt.Sprintf("%s/api/v1/chains/%s/head", c.BaseURL, chainID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("get head: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return "", false, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, fmt.Errorf("read head: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("server returned %d: %s", resp.StatusCode, body)
	}
	return strings.TrimSpace(string(body)), true, nil
}

func (c *Client) post(ctx context.Context, chainID, accept string) ([]byte, error) {
	url := fmt.Sprintf("%s/api/v1/chains/%s/verify", c.BaseURL, chainID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return nil, err
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post verify: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, body)
	}
	return body, nil
}

// ProtoClient talks to a verification Server using protobuf wire format.
// More compact than JSON and language-agnostic on the server side.
type ProtoClient struct {
	c Client
}

// NewProtoClient creates a protobuf verification client.
func NewProtoClient(baseURL string) *ProtoClient {
	return &ProtoClient{c: Client{BaseURL: baseURL, Client: &http.Client{}}}
}

// Verify asks the server to verify chainID and returns its report.
func (p *ProtoClient) Verify(ctx context.Context, chainID string) (Report, error) {
	body, err := p.c.post(ctx, chainID, "application/x-protobuf")
	if err != nil {
		return Report{}, err
	}
	rep, err := UnmarshalReport(body)
	if err != nil {
		return Report{}, fmt.Errorf("decode report: %w", err)
	}
	return rep, nil
}
