package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the Identity Toolkit REST endpoint.
const DefaultBaseURL = "https://identitytoolkit.googleapis.com/v1"

// restCodes maps Identity Toolkit error strings to auth/* codes.
var restCodes = map[string]string{
	"EMAIL_NOT_FOUND":             CodeUserNotFound,
	"INVALID_PASSWORD":            CodeWrongPassword,
	"INVALID_LOGIN_CREDENTIALS":   CodeInvalidCredential,
	"EMAIL_EXISTS":                CodeEmailInUse,
	"WEAK_PASSWORD":               CodeWeakPassword,
	"INVALID_EMAIL":               CodeInvalidEmail,
	"MISSING_EMAIL":               CodeInvalidEmail,
	"TOO_MANY_ATTEMPTS_TRY_LATER": CodeTooManyRequests,
	"INVALID_ID_TOKEN":            CodeInvalidToken,
	"USER_DISABLED":               "auth/user-disabled",
}

// Client is a Provider backed by the Identity Toolkit REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ Provider = (*Client)(nil)

func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type authResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

func (r authResponse) user() User {
	return User{
		UID:          r.LocalID,
		Email:        r.Email,
		DisplayName:  r.DisplayName,
		IDToken:      r.IDToken,
		RefreshToken: r.RefreshToken,
	}
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (User, error) {
	var resp authResponse
	err := c.post(ctx, "signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return User{}, err
	}
	u := resp.user()
	if displayName == "" {
		return u, nil
	}

	// the profile is set in a second call, as the web SDK does
	updated, err := c.UpdateProfile(ctx, u.IDToken, displayName)
	if err != nil {
		return User{}, err
	}
	return updated, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (User, error) {
	var resp authResponse
	err := c.post(ctx, "signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	return resp.user(), err
}

func (c *Client) SignInWithIdP(ctx context.Context, cred IdPCredential) (User, error) {
	if cred.ProviderID == "" {
		cred.ProviderID = "google.com"
	}
	post := url.Values{}
	post.Set("providerId", cred.ProviderID)
	if cred.IDToken != "" {
		post.Set("id_token", cred.IDToken)
	}
	if cred.AccessToken != "" {
		post.Set("access_token", cred.AccessToken)
	}
	requestURI := cred.RequestURI
	if requestURI == "" {
		requestURI = "http://localhost"
	}

	var resp authResponse
	err := c.post(ctx, "signInWithIdp", map[string]any{
		"postBody":            post.Encode(),
		"requestUri":          requestURI,
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}, &resp)
	return resp.user(), err
}

func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	return c.post(ctx, "sendOobCode", map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}, nil)
}

func (c *Client) UpdateProfile(ctx context.Context, idToken, displayName string) (User, error) {
	var resp authResponse
	err := c.post(ctx, "update", map[string]any{
		"idToken":           idToken,
		"displayName":       displayName,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return User{}, err
	}
	u := resp.user()
	if u.IDToken == "" {
		u.IDToken = idToken
	}
	return u, nil
}

// SignOut has no server side call; the caller drops the tokens.
func (c *Client) SignOut(ctx context.Context, idToken string) error {
	return nil
}

func (c *Client) post(ctx context.Context, method string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/accounts:%s?key=%s", c.baseURL, method, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Code: CodeInternal, Err: fmt.Errorf("execute request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Code: CodeInternal, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// decodeError turns an error body into an *Error. Messages look like
// "WEAK_PASSWORD : Password should be at least 6 characters".
func decodeError(status int, raw []byte) *Error {
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err != nil || er.Error.Message == "" {
		return &Error{Code: CodeInternal, Err: fmt.Errorf("API error (status %d): %s", status, string(raw))}
	}
	key, _, _ := strings.Cut(er.Error.Message, " ")
	code, ok := restCodes[key]
	if !ok {
		code = "auth/" + strings.ToLower(strings.ReplaceAll(key, "_", "-"))
	}
	return &Error{Code: code, Err: fmt.Errorf("API error (status %d): %s", status, er.Error.Message)}
}
