package algolia

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsManagerClient defines the interface for AWS Secrets Manager operations.
type SecretsManagerClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecrets returns a FetchSecrets function that reads Algolia credentials
// stored at "{environment}/algolia" as JSON with app_id and api_key fields.
func AWSSecrets(ctx context.Context, client SecretsManagerClient, env string) FetchSecrets {
	secretPath := fmt.Sprintf("%s/algolia", env)
	return fetchSecret(ctx, client, secretPath, "at path")
}

// AWSSecretsFromARN returns a FetchSecrets function that reads Algolia
// credentials from the secret with the given ARN.
func AWSSecretsFromARN(ctx context.Context, client SecretsManagerClient, secretArn string) FetchSecrets {
	return fetchSecret(ctx, client, secretArn, "with ARN")
}

func fetchSecret(ctx context.Context, client SecretsManagerClient, secretID, describe string) FetchSecrets {
	return func() (Secrets, error) {
		result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
			SecretId: aws.String(secretID),
		})
		if err != nil {
			return Secrets{}, fmt.Errorf("failed to get secret from AWS Secrets Manager %s %s: %w", describe, secretID, err)
		}

		if result.SecretString == nil {
			return Secrets{}, fmt.Errorf("secret %s %s has no string value", describe, secretID)
		}

		var secrets Secrets
		if err := json.Unmarshal([]byte(aws.ToString(result.SecretString)), &secrets); err != nil {
			return Secrets{}, fmt.Errorf("failed to unmarshal secret JSON %s %s: %w", describe, secretID, err)
		}

		return secrets, nil
	}
}
