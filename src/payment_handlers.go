package main

import (
	"consultly/src/common"
	"consultly/src/db"
	"consultly/src/models"
	"consultly/src/types"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func paymentHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/payments/intent", func(ctx *gin.Context) {
			var body types.CreatePaymentIntentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			intent, err := common.CreateBookingPaymentIntent(ctx.Copy(), body.BookingID, userId)
			if err != nil {
				switch {
				case errors.Is(err, common.ErrBookingNotFound):
					ctx.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
				case errors.Is(err, common.ErrBookingAlreadyPaid), errors.Is(err, common.ErrBookingNotPayable), errors.Is(err, common.ErrAmountBelowMinimum):
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				default:
					ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				}
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": gin.H{
				"paymentIntentId": intent.ID,
				"clientSecret":    intent.ClientSecret,
				"amount":          intent.Amount,
				"currency":        intent.Currency,
			}})
		}).
		GET("/transactions", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var transactions []models.PaymentTransaction
			if err := db.
				Model(&models.PaymentTransaction{}).
				Where(&models.PaymentTransaction{ClientID: userId}).
				Order("created_at DESC").
				Find(&transactions).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": transactions, "count": len(transactions)})
		}).
		GET("/transactions/:id", func(ctx *gin.Context) {
			var params struct {
				ID string `uri:"id" binding:"required,uuid"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			txnId := uuid.MustParse(params.ID)
			userId := ctx.GetUint("id")
			db := db.GetDb()
			var txn models.PaymentTransaction
			if err := db.
				Model(&models.PaymentTransaction{}).
				Where(&models.PaymentTransaction{ID: txnId}).
				Preload("Booking").
				First(&txn).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
				return
			}
			if txn.ClientID != userId && ctx.GetString("role") != "admin" {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": txn})
		})

	return g
}

func adminHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/admin/bookings/:id/settle", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			result := common.SettleBooking(ctx.Copy(), params.ID)
			if !result.Success {
				status := http.StatusUnprocessableEntity
				switch result.Code {
				case types.CODE_NOT_FOUND:
					status = http.StatusNotFound
				case types.CODE_VALIDATION, types.CODE_NO_PAYOUT_ACCOUNT, types.CODE_ACCOUNT_NOT_READY, types.CODE_CONSISTENCY:
					status = http.StatusBadRequest
				}
				ctx.JSON(status, gin.H{"error": result.Error, "data": result})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": result})
		}).
		GET("/admin/platform-fee", func(ctx *gin.Context) {
			fee, err := common.GetPlatformFee()
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"feeAmount": fee}})
		}).
		PUT("/admin/platform-fee", func(ctx *gin.Context) {
			var body types.UpdatePlatformFeeRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			updatedBy := ctx.GetString("email")
			cfg, err := common.UpdatePlatformFee(*body.FeeAmount, updatedBy)
			if err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": cfg})
		})

	return g
}
