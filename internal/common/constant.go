package common

// AuthorizationHeaderName is the HTTP header carrying the bearer session token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the opaque token in the authorization header.
const BearerPrefix = "Bearer "

// TokenBytes is the number of random bytes behind every opaque token. Tokens
// are hex-encoded, so their string form is twice as long.
const TokenBytes = 32
