// Package credential loads, parses, and persists the ShopBack token triple.
//
// Two source encodings are accepted: a JSON object with the three named
// fields, or a single browser cookie line of semicolon-separated key=value
// pairs. Saved credentials are always written back in JSON form.
package credential

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Cookie keys the ShopBack web client stores the token triple under.
const (
	cookieKeyAccessToken  = "sbet"
	cookieKeyRefreshToken = "sbrefresh"
	cookieKeyUserAgent    = "authDeviceId"
)

// Credential is the authentication triple required by the ShopBack API.
// A Credential is valid only when all three fields are non-empty.
type Credential struct {
	AccessToken     string `json:"accessToken"`
	RefreshToken    string `json:"refreshToken"`
	ClientUserAgent string `json:"clientUserAgent"`
}

// Valid reports whether all three fields are present.
func (c Credential) Valid() bool {
	return c.AccessToken != "" && c.RefreshToken != "" && c.ClientUserAgent != ""
}

// InvalidCredentialError indicates the credential source could not be parsed
// into a complete token triple, or could not be read at all.
type InvalidCredentialError struct {
	Reason string
}

func (e *InvalidCredentialError) Error() string {
	if e.Reason == "" {
		return "invalid credential"
	}
	return "invalid credential: " + e.Reason
}

// Parse extracts a Credential from raw source text. It tries the JSON object
// form first and falls back to cookie-line parsing when the JSON form fails
// or is missing fields.
func Parse(raw []byte) (Credential, error) {
	var cred Credential
	if err := json.Unmarshal(raw, &cred); err == nil && cred.Valid() {
		return cred, nil
	}

	cred, ok := parseCookieLine(string(raw))
	if !ok {
		return Credential{}, &InvalidCredentialError{
			Reason: "source is neither a credential JSON object nor a complete cookie line",
		}
	}
	return cred, nil
}

// parseCookieLine extracts the token triple from the first line of a
// semicolon-separated cookie string. Pairs without '=' and unrecognized keys
// are skipped.
func parseCookieLine(s string) (Credential, bool) {
	firstLine, _, _ := strings.Cut(s, "\n")

	var cred Credential
	for _, pair := range strings.Split(strings.TrimSpace(firstLine), ";") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			continue
		}
		switch key {
		case cookieKeyAccessToken:
			cred.AccessToken = value
		case cookieKeyRefreshToken:
			cred.RefreshToken = value
		case cookieKeyUserAgent:
			cred.ClientUserAgent = value
		}
	}

	return cred, cred.Valid()
}

// Load reads and parses the credential file at path.
func Load(path string) (Credential, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Credential{}, &InvalidCredentialError{
			Reason: fmt.Sprintf("reading %s: %v", path, err),
		}
	}
	return Parse(raw)
}

// Save writes the credential to path in JSON form, overwriting any previous
// content. Callers in ephemeral mode (no configured path) skip Save entirely.
func Save(path string, cred Credential) error {
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding credential: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing credential file: %w", err)
	}
	return nil
}
