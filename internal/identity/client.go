// Package identity is a thin client for the external identity provider's
// admin API. It only ever creates and deletes authentication records;
// passwords and sessions are entirely the provider's business.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for the identity package.
var (
	ErrCreateRejected = errors.New("identity: user creation rejected")
	ErrNotFound       = errors.New("identity: user not found")
)

// Client talks to a GoTrue-compatible admin API. Every request carries the
// project anon key as apikey; admin endpoints additionally authorize with
// the service-role key.
type Client struct {
	baseURL    string
	anonKey    string
	serviceKey string
	http       *http.Client
}

func New(baseURL, anonKey, serviceKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		serviceKey: serviceKey,
		http:       &http.Client{Timeout: timeout},
	}
}

// User is the provider-side authentication record.
type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// CreateUserParams describes a pre-confirmed identity to provision.
type CreateUserParams struct {
	Email    string
	Password string
	Name     string
}

type createUserRequest struct {
	Email        string         `json:"email"`
	Password     string         `json:"password"`
	EmailConfirm bool           `json:"email_confirm"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// CreateUser creates a confirmed identity with {nome} metadata.
func (c *Client) CreateUser(ctx context.Context, p CreateUserParams) (*User, error) {
	body, err := json.Marshal(createUserRequest{
		Email:        p.Email,
		Password:     p.Password,
		EmailConfirm: true,
		UserMetadata: map[string]any{"nome": p.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("identity.CreateUser: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/admin/users", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("identity.CreateUser: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity.CreateUser: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("identity.CreateUser: %w: %s", ErrCreateRejected, readError(resp.Body, resp.StatusCode))
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("identity.CreateUser: decode: %w", err)
	}
	if user.ID == uuid.Nil {
		return nil, fmt.Errorf("identity.CreateUser: %w: response carried no user id", ErrCreateRejected)
	}

	return &user, nil
}

// DeleteUser removes an identity. Used as the compensating action when a
// later provisioning step fails.
func (c *Client) DeleteUser(ctx context.Context, id uuid.UUID) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/auth/v1/admin/users/"+url.PathEscape(id.String()), nil)
	if err != nil {
		return fmt.Errorf("identity.DeleteUser: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity.DeleteUser: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("identity.DeleteUser: %w", ErrNotFound)
	default:
		return fmt.Errorf("identity.DeleteUser: %s", readError(resp.Body, resp.StatusCode))
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
}

// readError extracts the provider's error message, capped so a misbehaving
// upstream cannot flood the logs.
func readError(r io.Reader, status int) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 4096))

	var body struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Msg != "" {
			return fmt.Sprintf("status %d: %s", status, body.Msg)
		}
		if body.Message != "" {
			return fmt.Sprintf("status %d: %s", status, body.Message)
		}
	}
	return fmt.Sprintf("status %d", status)
}
