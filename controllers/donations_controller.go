package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/tumaini/giving-portal-go/config"
	models "github.com/tumaini/giving-portal-go/models"
	store "github.com/tumaini/giving-portal-go/store"
	utils "github.com/tumaini/giving-portal-go/utils"
)

// ---------------- CREATE ----------------
// Admin-only manual record for offline donations (cash, bank transfer).
// Online donations are created by the checkout workflow and the webhook.
func CreateDonation(cfg *config.Config, s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.Donation
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if input.Amount <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be greater than 0"})
			return
		}
		if input.Currency == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "currency is required"})
			return
		}
		if input.Type == "" {
			input.Type = models.DonationOneTime
		}
		if input.Status == "" {
			input.Status = models.DonationPending
		}

		id, ce := store.Insert(c.Request.Context(), s, store.ColDonations, input)
		if ce != nil {
			respondStoreError(c, ce, "could not create donation")
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"id":      id.Hex(),
			"message": "donation created",
		})
	}
}

// ---------------- LIST ----------------
func ListDonations(cfg *config.Config, s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		// --- Build filter ---
		filter := bson.M{}
		if campaignID := c.Query("campaign_id"); campaignID != "" {
			if oid, err := primitive.ObjectIDFromHex(campaignID); err == nil {
				filter["campaign_id"] = oid
			}
		}
		if status := c.Query("status"); status != "" {
			filter["status"] = status
		}

		donations, ce := store.Find[models.Donation](c.Request.Context(), s, store.ColDonations, store.Query{
			Filter: filter,
			Sort:   bson.D{{Key: "created_at", Value: -1}},
		})
		if ce != nil {
			respondStoreError(c, ce, "could not fetch donations")
			return
		}

		if len(donations) == 0 {
			c.JSON(http.StatusOK, []models.Donation{})
			return
		}

		// --- Pick the most recently updated donation ---
		latest := donations[0]
		for _, d := range donations {
			if d.UpdatedAt.After(latest.UpdatedAt) {
				latest = d
			}
		}

		// --- Generate ETag from latest donation ---
		etag := utils.GenerateETag(latest.ID, latest.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)
		c.Header("Last-Modified", latest.UpdatedAt.UTC().Format(http.TimeFormat))

		c.JSON(http.StatusOK, donations)
	}
}

// ---------------- GET ----------------
func GetDonation(cfg *config.Config, s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid donation id"})
			return
		}

		donation, ce := store.GetByID[models.Donation](c.Request.Context(), s, store.ColDonations, oid)
		if ce != nil {
			respondStoreError(c, ce, "could not fetch donation")
			return
		}

		etag := utils.GenerateETag(donation.ID, donation.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)

		c.JSON(http.StatusOK, donation)
	}
}

// ---------------- UPDATE ----------------
// Only the status may change, and only forward: pending -> completed or
// pending -> failed.
func UpdateDonationStatus(cfg *config.Config, s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid donation id"})
			return
		}

		var input struct {
			Status models.DonationStatus `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		donation, ce := store.GetByID[models.Donation](c.Request.Context(), s, store.ColDonations, oid)
		if ce != nil {
			respondStoreError(c, ce, "could not fetch donation")
			return
		}
		if !donation.Status.CanTransitionTo(input.Status) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "invalid status transition from " + string(donation.Status) + " to " + string(input.Status),
			})
			return
		}

		if ce := store.Update(c.Request.Context(), s, store.ColDonations, oid, bson.M{"status": input.Status}); ce != nil {
			respondStoreError(c, ce, "failed to update donation")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "donation updated", "id": oid.Hex()})
	}
}

// ---------------- DELETE ----------------
func DeleteDonation(cfg *config.Config, s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid donation id"})
			return
		}

		if ce := store.Remove(c.Request.Context(), s, store.ColDonations, oid); ce != nil {
			respondStoreError(c, ce, "failed to delete donation")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "donation deleted", "id": oid.Hex()})
	}
}
