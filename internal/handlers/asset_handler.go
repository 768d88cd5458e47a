package handlers

import (
	"net/http"

	"github.com/assetstore/backend/internal/middleware"
	"github.com/assetstore/backend/internal/models"
	"github.com/assetstore/backend/internal/pkg/logger"
	"github.com/assetstore/backend/internal/services"
	"github.com/gin-gonic/gin"
)

type AssetHandler struct {
	assetService *services.AssetService
	log          *logger.Logger
}

func NewAssetHandler(assetService *services.AssetService, log *logger.Logger) *AssetHandler {
	return &AssetHandler{assetService: assetService, log: log.With("handler", "AssetHandler")}
}

// CreateAsset creates an asset owned by the user in the path
func (h *AssetHandler) CreateAsset(c *gin.Context) {
	ownerID, err := uuidParam(c, "userUUID")
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	var req services.CreateAssetInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, h.log, bindError(err))
		return
	}
	asset, err := h.assetService.CreateAsset(c.Request.Context(), ownerID, req)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, asset)
}

// SetFile uploads the asset's primary file
func (h *AssetHandler) SetFile(c *gin.Context) {
	id, err := uuidParam(c, "uuid")
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	file, err := formUpload(c, "file")
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	asset, err := h.assetService.SetFile(c.Request.Context(), id, file)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File uploaded", "file": asset.File})
}

// SetPictures replaces the asset's preview pictures
func (h *AssetHandler) SetPictures(c *gin.Context) {
	id, err := uuidParam(c, "uuid")
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	pictures, err := formUploads(c, "pictures")
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	asset, err := h.assetService.SetPictures(c.Request.Context(), id, pictures)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Pictures uploaded", "pictures": asset.Pictures})
}

// AddPictures appends pictures to an asset owned by the caller
func (h *AssetHandler) AddPictures(c *gin.Context) {
	id, err := uuidParam(c, "uuid")
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	pictures, err := formUploads(c, "pictures")
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	asset, err := h.assetService.AddPictures(c.Request.Context(), id, middleware.Subject(c), pictures)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, asset)
}

// RemovePicture drops one picture from an asset owned by the caller
func (h *AssetHandler) RemovePicture(c *gin.Context) {
	id, err := uuidParam(c, "uuid")
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	asset, err := h.assetService.RemovePicture(c.Request.Context(), id, c.Param("picture"), middleware.Subject(c))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, asset)
}

// FindAssets filters assets by query parameters. A page envelope is returned
// when page or take is given, a plain list otherwise.
func (h *AssetHandler) FindAssets(c *gin.Context) {
	var query services.AssetQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		RespondError(c, h.log, bindError(err))
		return
	}
	var opts models.PageOptions
	if err := c.ShouldBindQuery(&opts); err != nil {
		RespondError(c, h.log, bindError(err))
		return
	}
	assets, meta, err := h.assetService.FindByQuery(c.Request.Context(), query, &opts)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	if meta == nil {
		c.JSON(http.StatusOK, assets)
		return
	}
	c.JSON(http.StatusOK, models.Page[models.Asset]{Data: assets, Meta: *meta})
}

// GetAsset returns one asset with owner and translations
func (h *AssetHandler) GetAsset(c *gin.Context) {
	id, err := uuidParam(c, "uuid")
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	asset, err := h.assetService.GetAsset(c.Request.Context(), id)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, asset)
}

// DeleteAsset deletes an asset owned by the caller
func (h *AssetHandler) DeleteAsset(c *gin.Context) {
	id, err := uuidParam(c, "uuid")
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	affected, err := h.assetService.DeleteAsset(c.Request.Context(), id, middleware.Subject(c))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"affected": affected})
}
