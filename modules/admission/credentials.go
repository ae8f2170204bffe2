package admission

import (
	"net/http"
	"strings"

	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/credential"
)

// HeaderAPIKey carries an API key when the Authorization header is not used.
const HeaderAPIKey = "X-API-Key"

// CredentialFrom extracts the raw credential of r. Sources in order: an
// Authorization Bearer token, the X-API-Key header, the api_key query
// parameter. Bearer tokens return an empty kind so the resolver can tell API
// keys from session tokens by prefix.
func CredentialFrom(r *http.Request) (string, credential.Kind) {
	if scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " "); ok && strings.EqualFold(scheme, "Bearer") {
		if token = strings.TrimSpace(token); token != "" {
			return token, ""
		}
	}
	if key := strings.TrimSpace(r.Header.Get(HeaderAPIKey)); key != "" {
		return key, credential.KindAPIKey
	}
	if key := r.URL.Query().Get("api_key"); key != "" {
		return key, credential.KindAPIKey
	}
	return "", ""
}
