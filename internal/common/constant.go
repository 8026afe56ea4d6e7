package common

// DefaultSessionCookieName is the cookie that carries the session token
// when the configuration does not override it.
const DefaultSessionCookieName = "session_token"

// LoginThought is the audit text appended for every successful login.
const LoginThought = "logged in"
