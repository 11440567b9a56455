package main

import (
	"net/http"

	"finbot/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func accountResponse(a models.Account) gin.H {
	return gin.H{
		"id":           a.ID,
		"user_id":      a.UserID,
		"name":         a.Name,
		"balance":      a.Balance,
		"account_type": a.AccountType,
		"bank_name":    a.BankName,
		"created_at":   a.CreatedAt,
		"updated_at":   a.UpdatedAt,
		"is_active":    a.Active,
	}
}

// findOwnedAccount loads an active account by path id for the given user.
func findOwnedAccount(c *gin.Context, userID uint) (*models.Account, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return nil, false
	}
	var a models.Account
	if err := db.Where("id = ? AND user_id = ? AND active = ?", id, userID, true).First(&a).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "bank account not found"})
		return nil, false
	}
	return &a, true
}

// createAccountHandler opens a bank account with an optional opening balance.
func createAccountHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		Name        string          `json:"name" binding:"required"`
		Balance     decimal.Decimal `json:"balance"`
		AccountType string          `json:"account_type" binding:"required"`
		BankName    string          `json:"bank_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Balance.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "opening balance cannot be negative"})
		return
	}
	a := models.Account{
		UserID:      user.ID,
		Name:        req.Name,
		Balance:     req.Balance,
		AccountType: req.AccountType,
		BankName:    req.BankName,
		Active:      true,
	}
	if err := db.Create(&a).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusOK, accountResponse(a))
}

func listAccountsHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var accounts []models.Account
	if err := db.Where("user_id = ? AND active = ?", user.ID, true).Order("created_at").Find(&accounts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	out := make([]gin.H, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountResponse(a))
	}
	c.JSON(http.StatusOK, out)
}

func getAccountHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	a, ok := findOwnedAccount(c, user.ID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, accountResponse(*a))
}

// updateAccountHandler changes descriptive fields only. Balance and version
// are owned by the ledger engine and never written here.
func updateAccountHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	a, ok := findOwnedAccount(c, user.ID)
	if !ok {
		return
	}
	var req struct {
		Name        string `json:"name" binding:"required"`
		AccountType string `json:"account_type" binding:"required"`
		BankName    string `json:"bank_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updates := map[string]any{"name": req.Name, "account_type": req.AccountType, "bank_name": req.BankName}
	if err := db.Model(a).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, accountResponse(*a))
}

// deleteAccountHandler deactivates the account; rows are never removed.
func deleteAccountHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	a, ok := findOwnedAccount(c, user.ID)
	if !ok {
		return
	}
	if err := db.Model(a).Update("active", false).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "deactivate failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "bank account deactivated"})
}

// getAccountBalanceHandler reads the latest committed balance through the
// ledger engine.
func getAccountBalanceHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	a, ok := findOwnedAccount(c, user.ID)
	if !ok {
		return
	}
	balance, err := ledgerSvc.AccountBalance(c.Request.Context(), a.ID)
	if err != nil {
		c.JSON(ledgerErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"account_id": a.ID, "balance": balance})
}
