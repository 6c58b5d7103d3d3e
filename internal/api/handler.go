// Package api implements the HTTP handlers for the matching service.
//
// Routes:
//
//	GET   /matches/score?job_id=&applicant_id=[&explain=true] → score one pair
//	GET   /matches/jobs/:jobID/applicants                     → applicants ranked for a job
//	GET   /matches/applicants/:applicantID/jobs               → jobs ranked for an applicant
//	POST  /matches/jobs/:jobID/notify                         → notify the top applicants
//	GET   /notifications                                      → caller's in-app notifications
//	PATCH /notifications                                      → mark notifications read
//
// Notification routes take the user from user_id, falling back to the
// x-user-id header forwarded by the Gateway.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agrotalent/matching-service/internal/match"
	"agrotalent/matching-service/internal/model"
	"agrotalent/matching-service/internal/notify"
)

// UserHeader carries the authenticated user id set by the Gateway.
const UserHeader = "x-user-id"

// Matcher is the subset of *match.Finder the handlers call.
type Matcher interface {
	Explain(ctx context.Context, jobID, applicantID string) (match.Score, error)
	MatchesForJob(ctx context.Context, jobID string) ([]model.MatchResult, error)
	MatchesForApplicant(ctx context.Context, applicantID string) ([]model.MatchResult, error)
	MatchesForApplicantAllRegions(ctx context.Context, applicantID string) ([]model.MatchResult, error)
	NotifyTopMatches(ctx context.Context, jobID string) (*match.FanOutReport, error)
}

// Notifications is the inbox read side. notify.Inbox satisfies it.
type Notifications interface {
	List(ctx context.Context, userID string, opts notify.ListOptions) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID string, ids []string) (int64, error)
}

// Handler holds shared dependencies.
type Handler struct {
	matcher  Matcher
	inbox    Notifications
	logger   *zap.Logger
	topLimit int
}

// NewHandler returns a configured Handler. topLimit caps the applicant job
// list; zero means no cap.
func NewHandler(matcher Matcher, inbox Notifications, logger *zap.Logger, topLimit int) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{matcher: matcher, inbox: inbox, logger: logger, topLimit: topLimit}
}

// ─── Request / response types ────────────────────────────────────────────────

type scoreResponse struct {
	JobID       string   `json:"job_id"`
	ApplicantID string   `json:"applicant_id"`
	MatchScore  int      `json:"match_score"`
	Reasons     []string `json:"reasons,omitempty"`
}

type matchesResponse struct {
	Matches []model.MatchResult `json:"matches"`
}

type notifyResponse struct {
	Selected  int                     `json:"selected"`
	Delivered int                     `json:"delivered"`
	Failed    []match.DispatchFailure `json:"failed"`
}

type notificationsResponse struct {
	Notifications []model.Notification `json:"notifications"`
}

type markReadRequest struct {
	UserID          string   `json:"user_id"`
	NotificationIDs []string `json:"notification_ids"`
	MarkAllRead     bool     `json:"mark_all_read"`
}

// ─── Matches ─────────────────────────────────────────────────────────────────

// Score handles GET /matches/score.
func (h *Handler) Score(c *gin.Context) {
	jobID, applicantID := c.Query("job_id"), c.Query("applicant_id")
	if !h.validID(c, "job_id", jobID) || !h.validID(c, "applicant_id", applicantID) {
		return
	}

	score, err := h.matcher.Explain(c.Request.Context(), jobID, applicantID)
	if err != nil {
		h.internalError(c, "score failed", err)
		return
	}

	resp := scoreResponse{JobID: jobID, ApplicantID: applicantID, MatchScore: score.Value}
	if c.Query("explain") == "true" {
		resp.Reasons = score.Reasons
	}
	c.JSON(http.StatusOK, resp)
}

// MatchesForJob handles GET /matches/jobs/:jobID/applicants.
func (h *Handler) MatchesForJob(c *gin.Context) {
	jobID := c.Param("jobID")
	if !h.validID(c, "job_id", jobID) {
		return
	}

	matches, err := h.matcher.MatchesForJob(c.Request.Context(), jobID)
	if err != nil {
		h.internalError(c, "matches for job failed", err)
		return
	}
	c.JSON(http.StatusOK, matchesResponse{Matches: matches})
}

// MatchesForApplicant handles GET /matches/applicants/:applicantID/jobs.
// The default view is capped at topLimit. all_regions=true drops the region
// and qualification narrowing and returns every match.
func (h *Handler) MatchesForApplicant(c *gin.Context) {
	applicantID := c.Param("applicantID")
	if !h.validID(c, "applicant_id", applicantID) {
		return
	}

	allRegions := c.Query("all_regions") == "true"
	find := h.matcher.MatchesForApplicant
	if allRegions {
		find = h.matcher.MatchesForApplicantAllRegions
	}
	matches, err := find(c.Request.Context(), applicantID)
	if err != nil {
		h.internalError(c, "matches for applicant failed", err)
		return
	}
	if !allRegions && h.topLimit > 0 && len(matches) > h.topLimit {
		matches = matches[:h.topLimit]
	}
	c.JSON(http.StatusOK, matchesResponse{Matches: matches})
}

// NotifyTopMatches handles POST /matches/jobs/:jobID/notify.
func (h *Handler) NotifyTopMatches(c *gin.Context) {
	jobID := c.Param("jobID")
	if !h.validID(c, "job_id", jobID) {
		return
	}

	report, err := h.matcher.NotifyTopMatches(c.Request.Context(), jobID)
	if err != nil {
		h.internalError(c, "notify top matches failed", err)
		return
	}
	c.JSON(http.StatusOK, notifyResponse{
		Selected:  report.Selected,
		Delivered: report.Delivered,
		Failed:    report.Failed,
	})
}

// ─── Notifications ───────────────────────────────────────────────────────────

// ListNotifications handles GET /notifications[?unread=true].
func (h *Handler) ListNotifications(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		userID = c.GetHeader(UserHeader)
	}
	if !h.validID(c, "user_id", userID) {
		return
	}

	list, err := h.inbox.List(c.Request.Context(), userID, notify.ListOptions{
		UnreadOnly: c.Query("unread") == "true",
	})
	if err != nil {
		h.internalError(c, "list notifications failed", err)
		return
	}
	c.JSON(http.StatusOK, notificationsResponse{Notifications: list})
}

// MarkNotificationsRead handles PATCH /notifications.
func (h *Handler) MarkNotificationsRead(c *gin.Context) {
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if req.UserID == "" {
		req.UserID = c.GetHeader(UserHeader)
	}
	if !h.validID(c, "user_id", req.UserID) {
		return
	}

	var ids []string
	if !req.MarkAllRead {
		if len(req.NotificationIDs) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "notification_ids or mark_all_read is required"})
			return
		}
		for _, id := range req.NotificationIDs {
			if !h.validID(c, "notification_ids", id) {
				return
			}
		}
		ids = req.NotificationIDs
	}

	n, err := h.inbox.MarkRead(c.Request.Context(), req.UserID, ids)
	if err != nil {
		h.internalError(c, "mark notifications read failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "updated": n})
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// validID writes a 400 and returns false when id is not a UUID.
func (h *Handler) validID(c *gin.Context, field, id string) bool {
	if err := match.ValidateID(field, id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func (h *Handler) internalError(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
