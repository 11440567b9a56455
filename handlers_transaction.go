package main

import (
	"net/http"
	"strconv"
	"time"

	"finbot/models"
	"finbot/pkg/ledger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func transactionResponse(t models.Transaction) gin.H {
	return gin.H{
		"id":               t.ID,
		"user_id":          t.UserID,
		"account_id":       t.AccountID,
		"amount":           t.Amount,
		"type":             t.Type,
		"category":         t.Category,
		"description":      t.Description,
		"transaction_date": t.TransactionDate,
		"previous_balance": t.PreviousBalance,
		"new_balance":      t.NewBalance,
		"created_at":       t.CreatedAt,
	}
}

// createTransactionHandler drives the ledger engine: balance move, immutable
// record and budget propagation happen as one logical unit.
func createTransactionHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		AccountID   string          `json:"account_id" binding:"required"`
		Amount      decimal.Decimal `json:"amount" binding:"required"`
		Type        string          `json:"type" binding:"required"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Date        string          `json:"transaction_date"` // optional ISO8601
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}
	direction, err := ledger.ParseDirection(req.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var occurredAt time.Time
	if req.Date != "" {
		occurredAt, err = time.Parse(time.RFC3339, req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction_date"})
			return
		}
	}

	rec, err := ledgerSvc.RecordTransaction(c.Request.Context(), ledger.TransactionRequest{
		OwnerID:     user.ID,
		AccountID:   accountID,
		Amount:      req.Amount,
		Direction:   direction,
		Category:    req.Category,
		Description: req.Description,
		OccurredAt:  occurredAt,
	})
	if err != nil {
		c.JSON(ledgerErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":               rec.ID,
		"user_id":          rec.OwnerID,
		"account_id":       rec.AccountID,
		"amount":           rec.Amount,
		"type":             rec.Direction.String(),
		"category":         rec.Category,
		"description":      rec.Description,
		"transaction_date": rec.OccurredAt,
		"previous_balance": rec.PreviousBalance,
		"new_balance":      rec.NewBalance,
		"created_at":       rec.CreatedAt,
	})
}

func writeTransactionList(c *gin.Context, items []models.Transaction) {
	out := make([]gin.H, 0, len(items))
	for _, t := range items {
		out = append(out, transactionResponse(t))
	}
	c.JSON(http.StatusOK, out)
}

// listTransactionsHandler returns the user's transactions, newest first,
// with limit/offset paging.
func listTransactionsHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	var items []models.Transaction
	err := db.Where("user_id = ?", user.ID).
		Order("transaction_date desc").Limit(limit).Offset(offset).
		Find(&items).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	writeTransactionList(c, items)
}

func listTransactionsByAccountHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	accountID, err := uuid.Parse(c.Param("accountId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}
	// account must belong to the caller and be active
	var a models.Account
	if err := db.Where("id = ? AND user_id = ? AND active = ?", accountID, user.ID, true).First(&a).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "bank account not found"})
		return
	}
	var items []models.Transaction
	if err := db.Where("user_id = ? AND account_id = ?", user.ID, accountID).Order("transaction_date desc").Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	writeTransactionList(c, items)
}

func listTransactionsByDateRangeHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start"})
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end"})
		return
	}
	var items []models.Transaction
	err = db.Where("user_id = ? AND transaction_date BETWEEN ? AND ?", user.ID, start, end).
		Order("transaction_date desc").Find(&items).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	writeTransactionList(c, items)
}

func listTransactionsByCategoryHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var items []models.Transaction
	err := db.Where("user_id = ? AND category = ?", user.ID, c.Param("category")).
		Order("transaction_date desc").Find(&items).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	writeTransactionList(c, items)
}

func getTransactionHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction id"})
		return
	}
	var t models.Transaction
	if err := db.Where("id = ? AND user_id = ?", id, user.ID).First(&t).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
		return
	}
	c.JSON(http.StatusOK, transactionResponse(t))
}
