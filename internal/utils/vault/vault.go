package vault

import (
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

const serviceAccountTokenPath = "/var/run/secrets/kubernetes.io/serviceaccount/token"

// VaultClient reads signing keys from Vault's KV v2 store, logging in
// once via Kubernetes auth.
type VaultClient struct {
	client       *resty.Client
	kvSecretPath string
	role         string
}

type loginResponse struct {
	Errors []string `json:"errors"`
	Auth   *struct {
		ClientToken string `json:"client_token"`
	} `json:"auth"`
}

type kvResponse struct {
	Errors []string `json:"errors"`
	Data   struct {
		Data map[string]string `json:"data"`
	} `json:"data"`
}

// New logs in and returns a client holding the session token. Signing
// keys are required at startup, so a failed login is fatal.
func New(addr, kvSecretPath, role string) *VaultClient {
	vc := &VaultClient{
		client: resty.New().
			SetBaseURL(addr).
			SetTimeout(10 * time.Second).
			SetRetryCount(2),
		kvSecretPath: kvSecretPath,
		role:         role,
	}
	if err := vc.login(); err != nil {
		panic(err)
	}
	return vc
}

func (vc *VaultClient) login() error {
	k8sToken, err := os.ReadFile(serviceAccountTokenPath)
	if err != nil {
		return fmt.Errorf("failed to read service account token: %v", err)
	}

	var result loginResponse
	resp, err := vc.client.R().
		SetBody(map[string]string{
			"jwt":  string(k8sToken),
			"role": vc.role,
		}).
		SetResult(&result).
		Post("/v1/auth/kubernetes/login")
	if err != nil {
		return err
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("vault login failed with status %d: %s", resp.StatusCode(), resp.Body())
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("vault login error: %v", result.Errors)
	}
	if result.Auth == nil || result.Auth.ClientToken == "" {
		return fmt.Errorf("vault login returned no client token")
	}

	vc.client.SetHeader("X-Vault-Token", result.Auth.ClientToken)
	return nil
}

// GetKV returns one secret value from the configured KV path.
func (vc *VaultClient) GetKV(secretKey string) (string, error) {
	var result kvResponse
	resp, err := vc.client.R().
		SetResult(&result).
		Get("/v1/" + vc.kvSecretPath)
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("vault KV read failed with status %d: %s", resp.StatusCode(), resp.Body())
	}
	if len(result.Errors) > 0 {
		return "", fmt.Errorf("vault KV read error: %v", result.Errors)
	}

	secret, ok := result.Data.Data[secretKey]
	if !ok {
		return "", fmt.Errorf("secret key %q not found under %s", secretKey, vc.kvSecretPath)
	}
	return secret, nil
}
