package gcp

import (
	"os"
	"strings"

	"google.golang.org/api/option"
)

// clientOptions resolves credentials for Google API clients and appends extra.
// GOOGLE_APPLICATION_CREDENTIALS_JSON wins over GOOGLE_APPLICATION_CREDENTIALS,
// which may hold inline JSON or a path. With neither set, application default
// credentials apply. GCP_QUOTA_PROJECT bills calls to another project.
func clientOptions(extra ...option.ClientOption) []option.ClientOption {
	opts := []option.ClientOption{option.WithUserAgent("travel-companion-backend")}
	switch creds := firstEnv("GOOGLE_APPLICATION_CREDENTIALS_JSON", "GOOGLE_APPLICATION_CREDENTIALS"); {
	case creds == "":
	case strings.HasPrefix(creds, "{"):
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	default:
		opts = append(opts, option.WithCredentialsFile(creds))
	}
	if qp := firstEnv("GCP_QUOTA_PROJECT"); qp != "" {
		opts = append(opts, option.WithQuotaProject(qp))
	}
	return append(opts, extra...)
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}
