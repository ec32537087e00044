package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cod-verifier/middleware"
	"cod-verifier/models"
)

// SendOTP issues a one-time code for the session's phone number.
func (vc *VerificationController) SendOTP(c *gin.Context) {
	var req struct {
		Phone       string `json:"phone" binding:"required"`
		CountryCode string `json:"country_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	region, ok := models.ParseRegion(req.CountryCode)
	if !ok {
		vc.respondError(c, &models.ValidationError{
			Message: "unsupported country code, supported: IN, US, GB",
		})
		return
	}

	sessionID := middleware.GetSessionID(c)
	result, err := vc.OTP.IssueCode(c.Request.Context(), sessionID, req.Phone, region)
	if err != nil {
		vc.respondError(c, err)
		return
	}

	resp := gin.H{"message": result.Message}
	if result.TestMode {
		// Test mode skips the SMS dispatch and hands the code back.
		resp["otp"] = result.Code
		resp["test_mode"] = true
	}
	c.JSON(http.StatusOK, resp)
}

// VerifyOTP checks the supplied code and returns the recomputed gate.
func (vc *VerificationController) VerifyOTP(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required,len=6,numeric"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a 6-digit code is required"})
		return
	}

	sessionID := middleware.GetSessionID(c)
	if err := vc.OTP.VerifyCode(c.Request.Context(), sessionID, req.Code); err != nil {
		vc.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "phone number verified",
		"gate":    vc.gateFor(c, sessionID),
	})
}
