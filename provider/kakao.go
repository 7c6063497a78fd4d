package provider

import "golang.org/x/oauth2"

// Fixed Kakao OAuth2 endpoints, used when no OIDC issuer is configured for
// discovery.
var kakaoEndpoint = oauth2.Endpoint{
	AuthURL:  "https://kauth.kakao.com/oauth/authorize",
	TokenURL: "https://kauth.kakao.com/oauth/token",
}

var kakaoScopes = []string{"profile_nickname", "account_email"}
