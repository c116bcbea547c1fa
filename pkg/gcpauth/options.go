// Package gcpauth turns the GCP credential settings into client options
// shared by the Pub/Sub and BigQuery clients.
package gcpauth

import (
	"strings"

	"google.golang.org/api/option"

	"github.com/landlordheaven/heaven-backend/pkg/config"
)

// ClientOptions prefers inline JSON credentials, then a key file. With
// neither set the SDKs fall back to Application Default Credentials.
func ClientOptions(gcp config.GCPConfig) []option.ClientOption {
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(gcp.CredentialsJSON))}
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		return []option.ClientOption{option.WithCredentialsFile(gcp.ApplicationCredentials)}
	}
	return nil
}
