package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/tumaini/giving-portal-go/config"
	models "github.com/tumaini/giving-portal-go/models"
	store "github.com/tumaini/giving-portal-go/store"
	utils "github.com/tumaini/giving-portal-go/utils"
)

// ---------------- CREATE ----------------
func CreateCampaign(cfg *config.Config, s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		// --- Authenticated user ---
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		// --- Bind form fields ---
		var input struct {
			Title        string  `form:"title" binding:"required"`
			Description  string  `form:"description"`
			TargetAmount float64 `form:"target_amount"`
			Deadline     *string `form:"deadline"` // string for binding, convert later
		}

		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// --- Parse deadline if provided ---
		var deadline *time.Time
		if input.Deadline != nil && *input.Deadline != "" {
			parsed, err := time.Parse(time.RFC3339, *input.Deadline)
			if err != nil {
				// Try fallback formats
				layouts := []string{"2006-01-02", "2006-01-02 15:04", "2006-01-02 15:04:05"}
				for _, layout := range layouts {
					if t, e := time.Parse(layout, *input.Deadline); e == nil {
						parsed = t
						err = nil
						break
					}
				}
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "invalid deadline format, use RFC3339 or YYYY-MM-DD"})
					return
				}
			}
			deadline = &parsed
		}

		// --- Handle file uploads ---
		form, err := c.MultipartForm()
		if err != nil && err != http.ErrNotMultipart {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data"})
			return
		}

		var imageURLs []string
		if form != nil {
			files := form.File["images"] // key must be "images"
			for _, fileHeader := range files {
				file, err := fileHeader.Open()
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open file"})
					return
				}

				url, err := utils.UploadCampaignImage(file, fileHeader)
				file.Close()
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{
						"error":   "image upload failed",
						"details": err.Error(),
						"file":    fileHeader.Filename,
					})
					return
				}

				imageURLs = append(imageURLs, url)
			}
		}

		// --- Save campaign ---
		campaign := models.Campaign{
			UserID:       userID,
			Title:        input.Title,
			Description:  input.Description,
			TargetAmount: input.TargetAmount,
			Deadline:     deadline,
			Status:       "ACTIVE",
			Images:       imageURLs,
		}

		id, ce := store.Insert(c.Request.Context(), s, store.ColCampaigns, campaign)
		if ce != nil {
			respondStoreError(c, ce, "could not create campaign")
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"id":      id.Hex(),
			"message": "campaign created",
		})
	}
}

// ---------------- LIST (public) ----------------
// Serves the marketing pages. Uses the safe wrapper: on failure the caller
// gets the classified copy and an empty body, never a raw driver error.
func ListCampaigns(cfg *config.Config, s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := bson.M{}
		if status := c.Query("status"); status != "" {
			filter["status"] = status
		}

		n := &respNotifier{}
		campaigns, ok := store.SafeFind[models.Campaign](c.Request.Context(), s.WithNotifier(n), store.ColCampaigns, store.Query{
			Filter: filter,
			Sort:   bson.D{{Key: "created_at", Value: -1}},
		}, "could not fetch campaigns")
		if !ok {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": n.msg})
			return
		}

		c.JSON(http.StatusOK, campaigns)
	}
}

// ---------------- GET ----------------
func GetCampaign(cfg *config.Config, s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
			return
		}

		campaign, ce := store.GetByID[models.Campaign](c.Request.Context(), s, store.ColCampaigns, oid)
		if ce != nil {
			respondStoreError(c, ce, "could not fetch campaign")
			return
		}

		etag := utils.GenerateETag(campaign.ID, campaign.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)

		c.JSON(http.StatusOK, campaign)
	}
}

// ---------------- UPDATE ----------------
func UpdateCampaign(cfg *config.Config, s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
			return
		}

		var input struct {
			Title        string   `json:"title"`
			Description  string   `json:"description"`
			TargetAmount float64  `json:"target_amount"`
			Status       string   `json:"status"`
			Deadline     *string  `json:"deadline"`
			Images       []string `json:"images"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		update := bson.M{}
		if input.Title != "" {
			update["title"] = input.Title
		}
		if input.Description != "" {
			update["description"] = input.Description
		}
		if input.TargetAmount > 0 {
			update["target_amount"] = input.TargetAmount
		}
		if input.Status != "" {
			switch input.Status {
			case "ACTIVE", "CLOSED", "ARCHIVED":
				update["status"] = input.Status
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
				return
			}
		}
		if input.Deadline != nil && *input.Deadline != "" {
			parsed, err := time.Parse(time.RFC3339, *input.Deadline)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid deadline format, use RFC3339"})
				return
			}
			update["deadline"] = parsed
		}
		if input.Images != nil {
			update["images"] = input.Images
		}

		if len(update) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
			return
		}

		if ce := store.Update(c.Request.Context(), s, store.ColCampaigns, oid, update); ce != nil {
			respondStoreError(c, ce, "failed to update campaign")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "campaign updated", "id": oid.Hex()})
	}
}

// ---------------- DELETE ----------------
func DeleteCampaign(cfg *config.Config, s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
			return
		}

		campaign, ce := store.GetByID[models.Campaign](c.Request.Context(), s, store.ColCampaigns, oid)
		if ce != nil {
			respondStoreError(c, ce, "could not fetch campaign")
			return
		}

		if ce := store.Remove(c.Request.Context(), s, store.ColCampaigns, oid); ce != nil {
			respondStoreError(c, ce, "failed to delete campaign")
			return
		}

		// Best-effort image cleanup.
		go func(urls []string) {
			for _, u := range urls {
				_ = utils.DeleteCampaignImage(u)
			}
		}(campaign.Images)

		c.JSON(http.StatusOK, gin.H{"message": "campaign deleted", "id": oid.Hex()})
	}
}
