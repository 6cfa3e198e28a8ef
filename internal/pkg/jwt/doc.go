// Package jwt verifies session tokens minted by the identity provider.
//
// Tokens are HMAC signed with the provider's shared secret. Verification pins
// the algorithm, the issuer and the audience, so a token minted by another
// project (same algorithm, different secret or issuer) is rejected.
package jwt
