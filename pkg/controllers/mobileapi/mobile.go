// Package mobileapi carries the customer-facing authentication flow. OTP
// verification is the single point where a bearer token is issued.
package mobileapi

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base32"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"gms_backend/pkg/audit"
	"gms_backend/pkg/config"
	"gms_backend/pkg/models"
	"gms_backend/pkg/utils"
)

const (
	tagSendOTP   = "mobile.otp.send"
	tagVerifyOTP = "mobile.otp.verify"

	otpValidity    = 5 * time.Minute
	otpMaxAttempts = 3
)

var mobilePattern = regexp.MustCompile(`^[0-9]{10}$`)

// Controller handles mobile OTP login and profile
type Controller struct {
	DB    *gorm.DB
	Redis *redis.Client
	Audit *audit.Recorder
}

// NewController wires the mobile controller
func NewController(db *gorm.DB, rdb *redis.Client, recorder *audit.Recorder) *Controller {
	return &Controller{DB: db, Redis: rdb, Audit: recorder}
}

// SendOTP generates a time-based code for the mobile number and opens a
// challenge window in redis. Delivery itself goes through the external
// messaging gateway; here the code is only logged in development.
func (ctl *Controller) SendOTP(c *gin.Context) {
	var req struct {
		Mobile string `json:"mobile" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.MobileError(c, http.StatusBadRequest, "Mobile number is required")
		return
	}

	mobile := strings.TrimSpace(req.Mobile)
	if !mobilePattern.MatchString(mobile) {
		utils.MobileError(c, http.StatusBadRequest, "Enter a valid 10-digit mobile number")
		return
	}

	code, err := totp.GenerateCodeCustom(otpSecret(mobile), time.Now(), otpOpts())
	if err != nil {
		logrus.WithError(err).Error("failed to generate OTP code")
		utils.MobileError(c, http.StatusInternalServerError, "Failed to generate OTP")
		return
	}

	// The challenge key gates verification attempts; the code itself is
	// recomputed from the shared secret, never stored.
	ctx := context.Background()
	if err := ctl.Redis.Set(ctx, challengeKey(mobile), 0, otpValidity).Err(); err != nil {
		logrus.WithError(err).Error("failed to store OTP challenge")
		utils.MobileError(c, http.StatusInternalServerError, "Failed to generate OTP")
		return
	}

	if config.IsDevelopment() {
		logrus.WithFields(logrus.Fields{"mobile": mobile, "code": code}).Info("OTP generated")
	}

	ctl.Audit.Record(mobile, "OTP sent", tagSendOTP, http.StatusOK)
	utils.MobileOK(c, "OTP sent successfully", gin.H{"mobile": mobile})
}

// VerifyOTP validates the code and issues the bearer token, creating the
// subscriber on first login.
func (ctl *Controller) VerifyOTP(c *gin.Context) {
	var req struct {
		Mobile string `json:"mobile" binding:"required"`
		OTP    string `json:"otp" binding:"required"`
		Name   string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.MobileError(c, http.StatusBadRequest, "Mobile number and OTP are required")
		return
	}

	mobile := strings.TrimSpace(req.Mobile)
	ctx := context.Background()

	attempts, err := ctl.Redis.Get(ctx, challengeKey(mobile)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			utils.MobileError(c, http.StatusBadRequest, "No OTP found. Please request a new one.")
			return
		}
		utils.MobileError(c, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}

	if attempts >= otpMaxAttempts {
		ctl.Redis.Del(ctx, challengeKey(mobile))
		utils.MobileError(c, http.StatusBadRequest, "Too many attempts. Please request a new OTP.")
		return
	}

	valid, err := totp.ValidateCustom(req.OTP, otpSecret(mobile), time.Now(), otpOpts())
	if err != nil || !valid {
		ctl.Redis.Incr(ctx, challengeKey(mobile))
		ctl.Audit.Record(mobile, "OTP verification failed", tagVerifyOTP, http.StatusBadRequest)
		utils.MobileError(c, http.StatusBadRequest,
			fmt.Sprintf("Invalid OTP. %d attempts remaining.", otpMaxAttempts-attempts-1))
		return
	}

	ctl.Redis.Del(ctx, challengeKey(mobile))

	var subscriber models.Subscriber
	err = ctl.DB.Where("mobile = ?", mobile).First(&subscriber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		subscriber = models.Subscriber{Mobile: mobile, Name: strings.TrimSpace(req.Name)}
		if err := ctl.DB.Create(&subscriber).Error; err != nil {
			utils.MobileError(c, http.StatusInternalServerError, "Failed to create account")
			return
		}
	} else if err != nil {
		utils.MobileError(c, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}

	token, err := utils.MintMobileToken(subscriber.ID, subscriber.Mobile)
	if err != nil {
		utils.MobileError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	ctl.Audit.Record(mobile, "OTP verified, token issued", tagVerifyOTP, http.StatusOK)
	utils.MobileOK(c, "Authentication successful", gin.H{
		"token": token,
		"subscriber": gin.H{
			"id":     subscriber.ID,
			"mobile": subscriber.Mobile,
			"name":   subscriber.Name,
		},
	})
}

// GetProfile returns the authenticated subscriber's profile
func (ctl *Controller) GetProfile(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	var subscriber models.Subscriber
	if err := ctl.DB.Preload("City").First(&subscriber, claims.SubscriberID).Error; err != nil {
		utils.MobileError(c, http.StatusNotFound, "Subscriber not found")
		return
	}
	utils.MobileOK(c, "", subscriber)
}

// UpdateProfile updates name/email/city for the authenticated subscriber
func (ctl *Controller) UpdateProfile(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	var req struct {
		Name   *string `json:"name"`
		Email  *string `json:"email"`
		CityID *int    `json:"cityId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.MobileError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.CityID != nil {
		updates["city_id"] = *req.CityID
	}
	if len(updates) == 0 {
		utils.MobileError(c, http.StatusBadRequest, "Nothing to update")
		return
	}

	if err := ctl.DB.Model(&models.Subscriber{}).Where("id = ?", claims.SubscriberID).Updates(updates).Error; err != nil {
		utils.MobileError(c, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	utils.MobileOK(c, "Profile updated", nil)
}

func mustClaims(c *gin.Context) *utils.MobileTokenClaims {
	v, exists := c.Get("mobileClaims")
	if !exists {
		utils.MobileError(c, http.StatusUnauthorized, "Authentication required")
		return nil
	}
	claims, ok := v.(*utils.MobileTokenClaims)
	if !ok {
		utils.MobileError(c, http.StatusUnauthorized, "Authentication required")
		return nil
	}
	return claims
}

// otpSecret derives a per-mobile TOTP secret from the signing secret, so
// no per-challenge state beyond the attempt counter is needed.
func otpSecret(mobile string) string {
	mac := hmac.New(sha1.New, []byte(config.AppConfig.JWTSecret))
	mac.Write([]byte("otp:" + mobile))
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(mac.Sum(nil))
}

func otpOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    uint(otpValidity.Seconds()),
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

func challengeKey(mobile string) string {
	return "otp:" + mobile
}
