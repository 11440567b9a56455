package main

import (
	"net/http"
	"time"

	"finbot/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var budgetPeriods = map[string]bool{"DAILY": true, "WEEKLY": true, "MONTHLY": true, "YEARLY": true}

func budgetResponse(b models.Budget) gin.H {
	return gin.H{
		"id":            b.ID,
		"user_id":       b.UserID,
		"name":          b.Name,
		"category":      b.Category,
		"amount":        b.Amount,
		"period":        b.Period,
		"start_date":    b.StartDate,
		"end_date":      b.EndDate,
		"current_spent": b.CurrentSpent,
		"created_at":    b.CreatedAt,
		"updated_at":    b.UpdatedAt,
		"is_active":     b.Active,
	}
}

type budgetRequest struct {
	Name      string          `json:"name" binding:"required"`
	Category  string          `json:"category" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Period    string          `json:"period" binding:"required"`
	StartDate string          `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate   string          `json:"end_date"`                      // optional, open-ended if empty
}

// parseBudgetDates validates the period label and date window of a request.
func parseBudgetDates(c *gin.Context, req budgetRequest) (time.Time, *time.Time, bool) {
	if !budgetPeriods[req.Period] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period must be DAILY, WEEKLY, MONTHLY or YEARLY"})
		return time.Time{}, nil, false
	}
	if !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return time.Time{}, nil, false
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return time.Time{}, nil, false
	}
	var end *time.Time
	if req.EndDate != "" {
		e, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
			return time.Time{}, nil, false
		}
		if e.Before(start) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date before start_date"})
			return time.Time{}, nil, false
		}
		end = &e
	}
	return start, end, true
}

func findOwnedBudget(c *gin.Context, userID uint) (*models.Budget, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid budget id"})
		return nil, false
	}
	var b models.Budget
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&b).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "budget not found"})
		return nil, false
	}
	return &b, true
}

func createBudgetHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req budgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, end, ok := parseBudgetDates(c, req)
	if !ok {
		return
	}
	b := models.Budget{
		UserID:       user.ID,
		Name:         req.Name,
		Category:     req.Category,
		Amount:       req.Amount,
		Period:       req.Period,
		StartDate:    start,
		EndDate:      end,
		CurrentSpent: decimal.Zero,
		Active:       true,
	}
	if err := db.Create(&b).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusOK, budgetResponse(b))
}

func listBudgetsHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var budgets []models.Budget
	if err := db.Where("user_id = ? AND active = ?", user.ID, true).Order("created_at").Find(&budgets).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	out := make([]gin.H, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, budgetResponse(b))
	}
	c.JSON(http.StatusOK, out)
}

func getBudgetHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	b, ok := findOwnedBudget(c, user.ID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, budgetResponse(*b))
}

// updateBudgetHandler changes the budget definition. CurrentSpent and version
// are owned by the ledger engine and never written here.
func updateBudgetHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	b, ok := findOwnedBudget(c, user.ID)
	if !ok {
		return
	}
	var req budgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, end, ok := parseBudgetDates(c, req)
	if !ok {
		return
	}
	updates := map[string]any{
		"name":       req.Name,
		"category":   req.Category,
		"amount":     req.Amount,
		"period":     req.Period,
		"start_date": start,
		"end_date":   end,
	}
	if err := db.Model(b).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, budgetResponse(*b))
}

// deleteBudgetHandler deactivates the budget; rows are never removed.
func deleteBudgetHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	b, ok := findOwnedBudget(c, user.ID)
	if !ok {
		return
	}
	if err := db.Model(b).Update("active", false).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "deactivate failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "budget deactivated"})
}

// getBudgetStatusHandler reports limit, spend, remaining and percentage used
// through the ledger engine.
func getBudgetStatusHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	b, ok := findOwnedBudget(c, user.ID)
	if !ok {
		return
	}
	status, err := ledgerSvc.BudgetStatusFor(c.Request.Context(), b.ID)
	if err != nil {
		c.JSON(ledgerErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"budget_id":       status.BudgetID,
		"limit_amount":    status.LimitAmount,
		"current_spent":   status.CurrentSpent,
		"remaining":       status.Remaining,
		"percentage_used": status.PercentageUsed,
	})
}
