package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sportconnect-go/internal/model"
	"sportconnect-go/internal/service"
	"sportconnect-go/pkg/log"
	"sportconnect-go/pkg/mailer"
)

// RecoHandler 负责处理推荐与每日报告相关的 API 请求。
type RecoHandler struct {
	recoService   service.RecoService
	reportService service.ReportService
}

// NewRecoHandler 创建一个新的 RecoHandler 实例。
func NewRecoHandler(recoService service.RecoService, reportService service.ReportService) *RecoHandler {
	return &RecoHandler{recoService: recoService, reportService: reportService}
}

// GenerateRequest 定义了推荐生成 API 的请求体结构。
type GenerateRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Lang   string `json:"lang"`
}

// Generate 处理 POST /reco/generate。
func (h *RecoHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Generate: Invalid request payload, error: %v", err)
		abortWithDetail(c, http.StatusBadRequest, "user_id est obligatoire.")
		return
	}
	if !authorizeUser(c, req.UserID) {
		return
	}

	res, err := h.recoService.Generate(c.Request.Context(), req.UserID, req.Lang)
	if err != nil {
		log.Errorf("Generate: failed for user %s: %v", req.UserID, err)
		abortWithDetail(c, http.StatusInternalServerError, "Réponse vide du chatbot.")
		return
	}
	c.JSON(http.StatusOK, res)
}

// History 处理 GET /reco/history/:user_id。读取失败时返回空列表。
func (h *RecoHandler) History(c *gin.Context) {
	userID := c.Param("user_id")
	if !authorizeUser(c, userID) {
		return
	}

	recos, err := h.recoService.History(c.Request.Context(), userID)
	if err != nil {
		log.Errorf("History: failed to read recommendations for %s: %v", userID, err)
		c.JSON(http.StatusOK, []model.Recommendation{})
		return
	}
	c.JSON(http.StatusOK, recos)
}

// SendReportRequest 定义了发送每日报告 API 的请求体结构。
type SendReportRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Email  string `json:"email" binding:"required,email"`
	Name   string `json:"name"`
	Lang   string `json:"lang"`
}

// SendReport 处理 POST /reco/send-report。
func (h *RecoHandler) SendReport(c *gin.Context) {
	var req SendReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("SendReport: Invalid request payload, error: %v", err)
		abortWithDetail(c, http.StatusBadRequest, "user_id et email sont obligatoires.")
		return
	}
	if !authorizeUser(c, req.UserID) {
		return
	}

	err := h.reportService.SendDailyReport(c.Request.Context(), service.ReportRequest{
		UserID: req.UserID,
		Email:  req.Email,
		Name:   req.Name,
		Lang:   req.Lang,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Rapport du jour envoyé.", "email": req.Email})
	case errors.Is(err, service.ErrNoRecommendation):
		abortWithDetail(c, http.StatusNotFound, "Aucune recommandation trouvée pour cet utilisateur.")
	case errors.Is(err, mailer.ErrNotConfigured):
		abortWithDetail(c, http.StatusServiceUnavailable, "L'envoi d'e-mails n'est pas configuré.")
	case errors.Is(err, service.ErrDeliveryFailed):
		abortWithDetail(c, http.StatusBadGateway, "Échec de l'envoi du rapport.")
	default:
		log.Errorf("SendReport: failed for user %s: %v", req.UserID, err)
		abortWithDetail(c, http.StatusInternalServerError, "Erreur serveur lors de la lecture des recommandations.")
	}
}

// Health 处理 GET /reco/health。
func (h *RecoHandler) Health(c *gin.Context) {
	health("reco")(c)
}
