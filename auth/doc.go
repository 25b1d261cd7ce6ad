// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides token generation, download signing, and session tokens.

# Magic Link Tokens

Login and invitation links carry a random 32-byte (256-bit) secret:

	token, err := auth.GenerateToken()
	hash := auth.HashToken(token)

Only the SHA-256 hash is stored in verification_token. The plain token
travels in the email and is hashed again when the link is opened.

# Download Links

Attachments kept on local disk are served through signed, expiring links:

	sig := auth.SignDownload(key, expires, salt)
	err := auth.VerifyDownload(key, exp, sig, salt, time.Now())

The signature is HMAC-SHA256 over the storage key and the unix expiry,
URL-safe base64 encoded without padding. Comparison is constant time.

# Sessions

The session cookie holds an HS256 JWT:

	raw, err := auth.IssueSession(sessionID, userID, tenantID, role, expires, secret)
	claims, err := auth.ParseSession(raw, secret)

Claims are sid, sub (user id), tid (tenant id), role and exp. A valid JWT is
not enough on its own: the session row must still exist, which is what makes
logout and deactivation immediate.
*/
package auth
