package auth

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"gms_backend/pkg/acl"
	"gms_backend/pkg/audit"
	"gms_backend/pkg/config"
	"gms_backend/pkg/models"
	"gms_backend/pkg/session"
	"gms_backend/pkg/utils"
)

const (
	tagLogin        = "auth.login"
	tagLogout       = "auth.logout"
	tagReset        = "auth.password_reset"
	tagActiveGarage = "auth.active_garage"
)

// Controller handles operator login and the password lifecycle
type Controller struct {
	DB       *gorm.DB
	Sessions *session.Service
	Audit    *audit.Recorder
}

// NewController wires the auth controller
func NewController(db *gorm.DB, sessions *session.Service, recorder *audit.Recorder) *Controller {
	return &Controller{DB: db, Sessions: sessions, Audit: recorder}
}

// Login authenticates credentials and creates the session. Preconditions
// are checked in a fixed order; the first failing one wins and each carries
// its own user-visible message.
func (ctl *Controller) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Email and password are required")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := ctl.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctl.Audit.Record(email, "Login attempt for unknown user", tagLogin, http.StatusBadRequest)
			utils.BadRequest(c, "User does not exist.")
			return
		}
		utils.InternalError(c, "Something went wrong. Please try again.")
		return
	}

	if resetDue(&user) {
		ctl.Audit.Record(email, "Login redirected to password reset", tagLogin, http.StatusOK)
		c.JSON(http.StatusOK, gin.H{
			"status":   false,
			"message":  "Password reset required.",
			"redirect": "/reset-password",
		})
		return
	}

	if user.Status != models.UserStatusActive {
		ctl.Audit.Record(email, "Login refused, user "+strings.ToLower(string(user.Status)), tagLogin, http.StatusBadRequest)
		utils.BadRequest(c, fmt.Sprintf("User is %s.", strings.ToLower(string(user.Status))))
		return
	}

	if user.Expiry != nil && user.Expiry.Before(time.Now()) {
		ctl.Audit.Record(email, "Login refused, account expired", tagLogin, http.StatusBadRequest)
		utils.BadRequest(c, "Account expired.")
		return
	}

	if !utils.VerifyPassword([]byte(config.AppConfig.PasswordCipherKey), user.Password, req.Password) {
		ctl.Audit.Record(email, "Login refused, incorrect password", tagLogin, http.StatusBadRequest)
		utils.BadRequest(c, "Incorrect password.")
		return
	}

	sessionCtx, err := ctl.buildSessionContext(&user)
	if err != nil {
		logrus.WithError(err).WithField("user", user.ID).Error("failed to build session context")
		utils.InternalError(c, "Something went wrong. Please try again.")
		return
	}

	if err := ctl.Sessions.Create(c, *sessionCtx); err != nil {
		logrus.WithError(err).Error("failed to create session")
		utils.InternalError(c, "Something went wrong. Please try again.")
		return
	}

	redirect := "/home"
	if user.UserType == models.UserTypeAdmin || user.UserType == models.UserTypeBusiness {
		redirect = "/garage-summary"
	}

	ctl.Audit.Record(email, "Login successful", tagLogin, http.StatusOK)
	c.JSON(http.StatusOK, gin.H{
		"status":   true,
		"message":  "Login successful",
		"redirect": redirect,
		"user": gin.H{
			"id":             user.ID,
			"name":           user.Name,
			"email":          user.Email,
			"userType":       user.UserType,
			"activeGarageId": sessionCtx.ActiveGarageID,
			"garageIds":      sessionCtx.GarageIDs,
			"cityIds":        sessionCtx.CityIDs,
			"acl":            sessionCtx.ACL,
			"businessLogo":   sessionCtx.BusinessLogo,
			"rangeFrom":      sessionCtx.RangeFrom,
			"rangeTo":        sessionCtx.RangeTo,
		},
	})
}

// buildSessionContext resolves scope sets, the ACL projection and the
// sticky active garage for a user that passed every login precondition.
func (ctl *Controller) buildSessionContext(user *models.User) (*session.Context, error) {
	cityIDs, err := ctl.allowedCityIDs(user.ID)
	if err != nil {
		return nil, err
	}

	garageIDs, err := ctl.allowedGarageIDs(user, cityIDs)
	if err != nil {
		return nil, err
	}

	projection, err := acl.ProjectForRole(ctl.DB, user.RoleID)
	if err != nil {
		return nil, err
	}

	activeGarageID, err := ctl.resolveActiveGarage(user.ID, garageIDs)
	if err != nil {
		return nil, err
	}

	logo := ""
	if user.UserType == models.UserTypeGarage && user.BusinessID != nil {
		var business models.Business
		if err := ctl.DB.First(&business, *user.BusinessID).Error; err == nil && business.LogoPath != nil {
			logo = *business.LogoPath
		}
	}

	now := time.Now()
	return &session.Context{
		UserID:         user.ID,
		Name:           user.Name,
		Email:          user.Email,
		UserType:       user.UserType,
		Status:         user.Status,
		RoleID:         user.RoleID,
		GarageIDs:      garageIDs,
		CityIDs:        cityIDs,
		ActiveGarageID: activeGarageID,
		ACL:            projection,
		BusinessLogo:   logo,
		RangeFrom:      now.AddDate(0, 0, -7).Format("2006-01-02"),
		RangeTo:        now.Format("2006-01-02"),
	}, nil
}

func (ctl *Controller) allowedCityIDs(userID int) ([]int, error) {
	var rows []models.UserCity
	if err := ctl.DB.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.CityID)
	}
	return ids, nil
}

// allowedGarageIDs returns the user's garage scope. Admin users are scoped
// by city, so their garage set is every garage inside the allowed cities.
func (ctl *Controller) allowedGarageIDs(user *models.User, cityIDs []int) ([]int, error) {
	if user.UserType == models.UserTypeAdmin {
		if len(cityIDs) == 0 {
			return []int{}, nil
		}
		var garages []models.Garage
		if err := ctl.DB.Where("city_id IN ?", cityIDs).Find(&garages).Error; err != nil {
			return nil, err
		}
		ids := make([]int, 0, len(garages))
		for _, g := range garages {
			ids = append(ids, g.ID)
		}
		return ids, nil
	}

	var rows []models.UserGarage
	if err := ctl.DB.Where("user_id = ?", user.ID).Find(&rows).Error; err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.GarageID)
	}
	return ids, nil
}

// resolveActiveGarage reuses the sticky pointer when it is still allowed,
// otherwise picks the lowest allowed id and persists it. Users with no
// allowed garages get none.
func (ctl *Controller) resolveActiveGarage(userID int, garageIDs []int) (*int, error) {
	if len(garageIDs) == 0 {
		return nil, nil
	}

	allowed := make(map[int]bool, len(garageIDs))
	for _, id := range garageIDs {
		allowed[id] = true
	}

	var sticky models.UserActiveGarage
	err := ctl.DB.Where("user_id = ?", userID).First(&sticky).Error
	if err == nil && allowed[sticky.GarageID] {
		return &sticky.GarageID, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	sorted := append([]int(nil), garageIDs...)
	sort.Ints(sorted)
	chosen := sorted[0]

	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := ctl.DB.Create(&models.UserActiveGarage{UserID: userID, GarageID: chosen}).Error; err != nil {
			return nil, err
		}
	} else {
		if err := ctl.DB.Model(&models.UserActiveGarage{}).Where("user_id = ?", userID).
			Update("garage_id", chosen).Error; err != nil {
			return nil, err
		}
	}
	return &chosen, nil
}

// resetDue mirrors the forced-reset rule: the flag forces it, and so does
// an elapsed rotation interval.
func resetDue(user *models.User) bool {
	if user.PasswordResetFlag {
		return true
	}
	days := user.PasswordResetDays
	if days <= 0 {
		days = config.AppConfig.PasswordResetIntervalDays
	}
	return user.PasswordResetLastAt.AddDate(0, 0, days).Before(time.Now())
}

// Logout clears the session
func (ctl *Controller) Logout(c *gin.Context) {
	actor := "unknown"
	if ctx, ok := session.FromContext(c); ok {
		actor = ctx.Email
	}
	if err := ctl.Sessions.Clear(c); err != nil {
		logrus.WithError(err).Warn("failed to clear session on logout")
	}
	ctl.Audit.Record(actor, "Logout", tagLogout, http.StatusOK)
	utils.OK(c, "Logged out successfully", nil)
}

// ResetPassword rotates a password. It is reachable without a session
// because forced-reset users are redirected here before login.
func (ctl *Controller) ResetPassword(c *gin.Context) {
	var req struct {
		Email           string `json:"email" binding:"required,email"`
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required"`
		ConfirmPassword string `json:"confirmPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Email, current password, new password, and confirm password are required")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := ctl.DB.Where("email = ?", email).First(&user).Error; err != nil {
		ctl.Audit.Record(email, "Password reset for unknown user", tagReset, http.StatusBadRequest)
		utils.BadRequest(c, "User does not exist.")
		return
	}

	key := []byte(config.AppConfig.PasswordCipherKey)
	if !utils.VerifyPassword(key, user.Password, req.CurrentPassword) {
		ctl.Audit.Record(email, "Password reset refused, incorrect password", tagReset, http.StatusBadRequest)
		utils.BadRequest(c, "Current password is incorrect.")
		return
	}

	if req.NewPassword == req.CurrentPassword {
		utils.BadRequest(c, "New password must differ from the current password.")
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		utils.BadRequest(c, "New passwords do not match.")
		return
	}
	if err := utils.CheckPasswordStrength(req.NewPassword); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		utils.InternalError(c, "Something went wrong. Please try again.")
		return
	}

	updates := map[string]interface{}{
		"password":               hashed,
		"password_reset_flag":    false,
		"password_reset_last_at": time.Now(),
	}
	if err := ctl.DB.Model(&user).Updates(updates).Error; err != nil {
		ctl.Audit.Record(email, "Password reset failed", tagReset, http.StatusInternalServerError)
		utils.InternalError(c, "Something went wrong. Please try again.")
		return
	}

	ctl.Audit.Record(email, "Password reset successful", tagReset, http.StatusOK)
	utils.OK(c, "Password reset successfully. Please login.", nil)
}

// SelectActiveGarage switches the session's active garage. The target must
// be inside the allowed set.
func (ctl *Controller) SelectActiveGarage(c *gin.Context) {
	ctx, ok := session.FromContext(c)
	if !ok {
		utils.Unauthorized(c, "Please login to continue.")
		return
	}

	var req struct {
		GarageID int `json:"garageId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "garageId is required")
		return
	}

	if !ctx.AllowsGarage(req.GarageID) {
		ctl.Audit.Record(ctx.Email, fmt.Sprintf("Refused switch to garage %d", req.GarageID), tagActiveGarage, http.StatusForbidden)
		utils.Forbidden(c, "Selected garage is outside your allowed scope.")
		return
	}

	err := ctl.DB.Model(&models.UserActiveGarage{}).
		Where("user_id = ?", ctx.UserID).
		Update("garage_id", req.GarageID)
	if err.Error != nil {
		utils.InternalError(c, "Something went wrong. Please try again.")
		return
	}
	if err.RowsAffected == 0 {
		if createErr := ctl.DB.Create(&models.UserActiveGarage{UserID: ctx.UserID, GarageID: req.GarageID}).Error; createErr != nil {
			utils.InternalError(c, "Something went wrong. Please try again.")
			return
		}
	}

	ctx.ActiveGarageID = &req.GarageID
	if updateErr := ctl.Sessions.Update(c, ctx); updateErr != nil {
		utils.InternalError(c, "Something went wrong. Please try again.")
		return
	}

	ctl.Audit.Record(ctx.Email, fmt.Sprintf("Switched active garage to %d", req.GarageID), tagActiveGarage, http.StatusOK)
	utils.OK(c, "Active garage updated", gin.H{"activeGarageId": req.GarageID})
}
