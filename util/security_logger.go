package util

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/caresync/caresync-api/model"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SecurityEventType represents different types of security events
type SecurityEventType string

const (
	EventLoginSuccess       SecurityEventType = "LOGIN_SUCCESS"
	EventLoginFailure       SecurityEventType = "LOGIN_FAILURE"
	EventSignupSuccess      SecurityEventType = "SIGNUP_SUCCESS"
	EventLogout             SecurityEventType = "LOGOUT"
	EventTokenRefreshed     SecurityEventType = "TOKEN_REFRESHED"
	EventProfileUpdated     SecurityEventType = "PROFILE_UPDATED"
	EventUnauthorizedAccess SecurityEventType = "UNAUTHORIZED_ACCESS"
	EventRateLimitExceeded  SecurityEventType = "RATE_LIMIT_EXCEEDED"
	EventSuspiciousActivity SecurityEventType = "SUSPICIOUS_ACTIVITY"
)

// SecurityEvent represents a security event to be logged
type SecurityEvent struct {
	EventType SecurityEventType
	UserID    string
	Email     string
	IP        string
	UserAgent string
	Message   string
	Details   map[string]interface{}
}

// SecurityLogger writes security events to the process log and, when a
// database is attached, persists them to security_logs. A nil
// *SecurityLogger discards everything.
type SecurityLogger struct {
	log zerolog.Logger
	db  *gorm.DB
	geo *GeoLocator
}

// NewSecurityLogger builds a logger. db and geo may be nil.
func NewSecurityLogger(log zerolog.Logger, db *gorm.DB, geo *GeoLocator) *SecurityLogger {
	return &SecurityLogger{
		log: log.With().Str("component", "security").Logger(),
		db:  db,
		geo: geo,
	}
}

const maxLogValueBytes = 200

// sanitizeLogValue removes newlines and other characters that could break log
// parsing, and caps the value without splitting a UTF-8 sequence.
func sanitizeLogValue(value string) string {
	value = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(value)
	if len(value) > maxLogValueBytes {
		cut := maxLogValueBytes
		for cut > 0 && !utf8.RuneStart(value[cut]) {
			cut--
		}
		value = value[:cut] + "..."
	}
	return value
}

// Log emits event and persists it best-effort. Persistence failures are
// logged and never surface to the caller.
func (s *SecurityLogger) Log(event SecurityEvent) {
	if s == nil {
		return
	}

	s.log.Info().
		Str("event", string(event.EventType)).
		Str("user_id", sanitizeLogValue(event.UserID)).
		Str("email", sanitizeLogValue(event.Email)).
		Str("ip", sanitizeLogValue(event.IP)).
		Str("user_agent", sanitizeLogValue(event.UserAgent)).
		Int("details_count", len(event.Details)).
		Msg(sanitizeLogValue(event.Message))

	if s.db == nil {
		return
	}

	var details datatypes.JSON
	if event.Details != nil {
		if b, err := json.Marshal(event.Details); err == nil {
			details = datatypes.JSON(b)
		}
	}

	entry := model.SecurityLog{
		EventType: string(event.EventType),
		UserID:    sanitizeLogValue(event.UserID),
		Email:     sanitizeLogValue(event.Email),
		IP:        sanitizeLogValue(event.IP),
		Location:  sanitizeLogValue(s.geo.Location(event.IP)),
		UserAgent: sanitizeLogValue(event.UserAgent),
		Message:   sanitizeLogValue(event.Message),
		Details:   details,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		s.log.Error().Err(err).Msg("failed to persist security event")
	}
}

// LoginSuccess logs a successful login event
func (s *SecurityLogger) LoginSuccess(userID, email, ip, userAgent string) {
	s.Log(SecurityEvent{
		EventType: EventLoginSuccess,
		UserID:    userID,
		Email:     email,
		IP:        ip,
		UserAgent: userAgent,
		Message:   "User logged in successfully",
	})
}

// LoginFailure logs a failed login attempt
func (s *SecurityLogger) LoginFailure(email, ip, userAgent, reason string) {
	s.Log(SecurityEvent{
		EventType: EventLoginFailure,
		Email:     email,
		IP:        ip,
		UserAgent: userAgent,
		Message:   fmt.Sprintf("Login failed: %s", reason),
	})
}

// SignupSuccess logs a new account registration
func (s *SecurityLogger) SignupSuccess(userID, email, role, ip, userAgent string) {
	s.Log(SecurityEvent{
		EventType: EventSignupSuccess,
		UserID:    userID,
		Email:     email,
		IP:        ip,
		UserAgent: userAgent,
		Message:   "User registered",
		Details:   map[string]interface{}{"role": role},
	})
}

// Logout logs a logout event
func (s *SecurityLogger) Logout(email, ip, userAgent string) {
	s.Log(SecurityEvent{
		EventType: EventLogout,
		Email:     email,
		IP:        ip,
		UserAgent: userAgent,
		Message:   "User logged out",
	})
}

// UnauthorizedAccess logs unauthorized access attempts
func (s *SecurityLogger) UnauthorizedAccess(userID, email, ip, resource, reason string) {
	s.Log(SecurityEvent{
		EventType: EventUnauthorizedAccess,
		UserID:    userID,
		Email:     email,
		IP:        ip,
		Message:   fmt.Sprintf("Unauthorized access to %s: %s", resource, reason),
	})
}

// RateLimitExceeded logs when rate limit is exceeded
func (s *SecurityLogger) RateLimitExceeded(ip, endpoint string) {
	s.Log(SecurityEvent{
		EventType: EventRateLimitExceeded,
		IP:        ip,
		Message:   fmt.Sprintf("Rate limit exceeded for endpoint: %s", endpoint),
	})
}
