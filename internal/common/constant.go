package common

// RefreshTokenCookieName is the cookie that carries the opaque refresh token.
const RefreshTokenCookieName = "refresh_token"

// AuthorizationHeaderName carries the bearer access token, both as an HTTP
// header and as gRPC metadata.
const AuthorizationHeaderName = "authorization"

// BearerScheme prefixes the access token in the authorization header.
const BearerScheme = "Bearer"
