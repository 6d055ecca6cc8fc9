// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/designo-group/secret-santa/pkg/address"
	"github.com/designo-group/secret-santa/pkg/apiresponses"
	"github.com/designo-group/secret-santa/pkg/mail"
	"github.com/designo-group/secret-santa/pkg/metrics"
	"github.com/designo-group/secret-santa/pkg/ratelimit"
	"github.com/designo-group/secret-santa/pkg/system"
)

const (
	// CodeTTL is how long an issued code stays valid.
	CodeTTL = 15 * time.Minute
	// MaxAttempts is the number of wrong guesses after which a code is dropped.
	MaxAttempts = 5

	codeDigits   = 6
	defaultTitle = "Your Secret Santa verification code"

	sessionCode     = "messaging.code"
	sessionEmail    = "messaging.email"
	sessionExpires  = "messaging.expires"
	sessionNonce    = "messaging.nonce"
	// SessionVerifiedEmail holds the address confirmed by the last successful
	// verification.
	SessionVerifiedEmail = "messaging.verified"
)

// MailSender is satisfied by *mail.Dispatcher.
type MailSender interface {
	SendMail(ctx context.Context, req mail.Request) (mail.Status, error)
}

type Controller struct {
	sender      MailSender
	log         *zap.SugaredLogger
	ipLimiter   *ratelimit.Limiter
	rcptLimiter *ratelimit.Limiter
	attempts    *attemptTracker
	subject     string
	now         func() time.Time
}

type Option func(*Controller)

// WithLimiters replaces the default per-IP and per-recipient limiters.
func WithLimiters(ip, recipient *ratelimit.Limiter) Option {
	return func(c *Controller) {
		c.ipLimiter = ip
		c.rcptLimiter = recipient
	}
}

// WithSubject sets the subject of the code mail.
func WithSubject(subject string) Option {
	return func(c *Controller) {
		c.subject = subject
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

func NewController(sender MailSender, log *zap.SugaredLogger, opts ...Option) *Controller {
	c := &Controller{
		sender:  sender,
		log:     log.Named("messaging"),
		subject:  defaultTitle,
		now:      time.Now,
		attempts: newAttemptTracker(MaxAttempts),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ipLimiter == nil {
		c.ipLimiter = ratelimit.New(ratelimit.DefaultIPConfig())
	}
	if c.rcptLimiter == nil {
		c.rcptLimiter = ratelimit.New(ratelimit.DefaultRecipientConfig())
	}
	return c
}

func (ctrl *Controller) BasePath() string {
	return "messaging"
}

func (ctrl *Controller) Handlers() []gin.HandlerFunc {
	return []gin.HandlerFunc{ctrl.ipLimiter.Middleware("messaging")}
}

func (ctrl *Controller) Register(rg *gin.RouterGroup) error {
	rg.POST("/code", ctrl.handleSendCode)
	rg.POST("/verify", ctrl.handleVerifyCode)
	return nil
}

// Stop releases the limiters' cleanup goroutines.
func (ctrl *Controller) Stop() {
	ctrl.ipLimiter.Stop()
	ctrl.rcptLimiter.Stop()
}

type sendCodeRequest struct {
	Email string `json:"email"`
}

type verifyCodeRequest struct {
	Code string `json:"code"`
}

func (ctrl *Controller) handleSendCode(c *gin.Context) {
	log := system.GetReqLogger(c, ctrl.log)

	var req sendCodeRequest
	if !apiresponses.BindJSON(c, &req) {
		return
	}

	recipient, err := address.ToASCII(strings.TrimSpace(req.Email))
	if err != nil {
		log.Debugw("Rejected address", "error", err)
		apiresponses.RespondBadRequest(c, err.Error(), addressErrorCode(err))
		return
	}
	if !ctrl.rcptLimiter.AllowRecipient(recipient) {
		metrics.HTTPRateLimited.WithLabelValues("messaging_recipient").Inc()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": "Too many codes requested for this address, please try again later",
		})
		return
	}

	code, err := generateCode()
	if err != nil {
		_ = c.Error(err)
		return
	}

	status, err := ctrl.sender.SendMail(c.Request.Context(), mail.Request{
		Template:   mail.MessagingCode,
		Recipients: []string{recipient},
		Subject:    ctrl.subject,
		Substitutions: map[string]any{
			"code":    code,
			"email":   recipient,
			"minutes": int(CodeTTL / time.Minute),
		},
	})
	if err != nil {
		if mail.IsValidation(err) {
			apiresponses.RespondBadRequest(c, err.Error(), mail.CodeOf(err))
			return
		}
		_ = c.Error(err)
		return
	}

	now := ctrl.now()
	expires := now.Add(CodeTTL)
	nonce := uuid.NewString()

	session := sessions.Default(c)
	if previous, ok := session.Get(sessionNonce).(string); ok {
		ctrl.attempts.forget(previous)
	}
	session.Set(sessionCode, code)
	session.Set(sessionEmail, recipient)
	session.Set(sessionExpires, expires.Unix())
	session.Set(sessionNonce, nonce)
	if err := session.Save(); err != nil {
		_ = c.Error(fmt.Errorf("saving session: %w", err))
		return
	}
	ctrl.attempts.issue(nonce, now, expires)

	metrics.MessagingCodesIssued.Inc()
	log.Infow("Messaging code issued", "status", status)
	apiresponses.RespondOK(c, gin.H{"status": status})
}

func (ctrl *Controller) handleVerifyCode(c *gin.Context) {
	log := system.GetReqLogger(c, ctrl.log)

	var req verifyCodeRequest
	if !apiresponses.BindJSON(c, &req) {
		return
	}

	session := sessions.Default(c)
	email, _ := session.Get(sessionEmail).(string)
	result := ctrl.check(session, strings.TrimSpace(req.Code))
	metrics.MessagingCodesVerified.WithLabelValues(result).Inc()

	if result == resultOK {
		session.Set(SessionVerifiedEmail, email)
	}
	if err := session.Save(); err != nil {
		_ = c.Error(fmt.Errorf("saving session: %w", err))
		return
	}

	if result != resultOK {
		log.Debugw("Messaging code rejected", "result", result)
		c.JSON(http.StatusBadRequest, gin.H{"verified": false})
		return
	}
	log.Infow("Messaging code verified")
	apiresponses.RespondOK(c, gin.H{"verified": true})
}

const (
	resultOK       = "ok"
	resultMissing  = "missing"
	resultExpired  = "expired"
	resultMismatch = "mismatch"
	resultLocked   = "locked"
)

// check compares the submitted code against the session. The attempt count
// lives in the tracker, keyed by the session nonce. Anything other than a
// mismatch removes the code from the session.
func (ctrl *Controller) check(session sessions.Session, submitted string) string {
	stored, _ := session.Get(sessionCode).(string)
	nonce, _ := session.Get(sessionNonce).(string)
	expires, _ := session.Get(sessionExpires).(int64)
	if stored == "" || nonce == "" {
		return resultMissing
	}
	now := ctrl.now()
	if now.Unix() > expires {
		ctrl.attempts.forget(nonce)
		clearCode(session)
		return resultExpired
	}
	match := subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
	result := ctrl.attempts.guess(nonce, match, now)
	if result != resultMismatch {
		clearCode(session)
	}
	return result
}

func clearCode(session sessions.Session) {
	session.Delete(sessionCode)
	session.Delete(sessionEmail)
	session.Delete(sessionExpires)
	session.Delete(sessionNonce)
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generating code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

func addressErrorCode(err error) string {
	if errors.Is(err, address.ErrInvalidRecipient) {
		return mail.CodeInvalidRecipient
	}
	return mail.CodeInvalidFormat
}
