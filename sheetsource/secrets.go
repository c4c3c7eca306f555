package sheetsource

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	log "github.com/sirupsen/logrus"
)

// serviceAccountKey is the subset of the Google service account credential
// schema we sanity-check before handing the raw payload to the oauth
// library. Unrelated fields in the secret are ignored.
type serviceAccountKey struct {
	Type        string `json:"type"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// FetchServiceAccountKey retrieves the service account credential bundle
// from AWS Secrets Manager and validates that it parses as one. Exactly one
// GetSecretValue call is made per run.
func FetchServiceAccountKey(ctx context.Context, secretName, region string) ([]byte, error) {
	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("creating aws config: %w", err)
	}

	client := secretsmanager.NewFromConfig(awsCfg)

	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching secret %q: %w", secretName, err)
	}

	payload := out.SecretBinary
	if out.SecretString != nil {
		payload = []byte(*out.SecretString)
	}

	if err := validateServiceAccountKey(payload); err != nil {
		return nil, fmt.Errorf("secret %q: %w", secretName, err)
	}

	log.WithFields(log.Fields{
		"secretName": secretName,
		"region":     region,
	}).Info("fetched service account credentials")

	return payload, nil
}

func validateServiceAccountKey(payload []byte) error {
	var key serviceAccountKey
	if err := json.Unmarshal(payload, &key); err != nil {
		return fmt.Errorf("payload is not valid JSON: %w", err)
	}

	if key.Type != "service_account" {
		return fmt.Errorf("payload is not a service account key (type %q)", key.Type)
	} else if key.ClientEmail == "" {
		return fmt.Errorf("payload is missing 'client_email'")
	} else if key.PrivateKey == "" {
		return fmt.Errorf("payload is missing 'private_key'")
	}

	return nil
}
